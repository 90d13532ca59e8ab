// Package parser tokenizes BBP request lines.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// FieldSep separates the fields of an ADD payload.
const FieldSep = ";;"

var bookNameRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// BookNamePattern matches a filesystem-safe book name.
func BookNamePattern() *regexp.Regexp { return bookNameRe }

// Request is one parsed request line.
type Request struct {
	Verb string
	Rest string // trimmed text after the verb
}

// Parse splits line into its verb and the remaining text. The verb is the
// first whitespace-delimited token; Verb is empty for a blank line.
func Parse(line string) Request {
	line = strings.TrimSpace(line)
	if line == "" {
		return Request{}
	}
	i := strings.IndexFunc(line, isSpace)
	if i < 0 {
		return Request{Verb: line}
	}
	return Request{Verb: line[:i], Rest: strings.TrimSpace(line[i:])}
}

// Fields returns the whitespace-delimited tokens of the remaining text.
func (r Request) Fields() []string {
	return strings.Fields(r.Rest)
}

// SplitFields splits s on FieldSep and trims every field.
func SplitFields(s string) []string {
	parts := strings.Split(s, FieldSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ParseID parses a decimal item id. The whole token must be numeric.
func ParseID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ValidBookName reports whether name is non-empty and alphanumeric.
func ValidBookName(name string) bool {
	return bookNameRe.MatchString(name)
}

// CutWord splits off the first whitespace-delimited token of s and
// returns it with the trimmed remainder.
func CutWord(s string) (word, rest string) {
	r := Parse(s)
	return r.Verb, r.Rest
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
