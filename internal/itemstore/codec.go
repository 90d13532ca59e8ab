package itemstore

import (
	"strconv"
	"strings"

	"github.com/starford/bbp/internal/models"
)

const fieldSep = "|"

// Escape encodes s so that it fits in one log field: newline, carriage
// return, the field separator and the escape character itself are replaced
// by two-character sequences.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\\n\r|") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '|':
			b.WriteString(`\p`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape reverses Escape. Unknown escape sequences are kept verbatim.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 'r':
				b.WriteByte('\r')
				i++
				continue
			case 'p':
				b.WriteByte('|')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// encodeItem renders one items-log line, newline included.
func encodeItem(it models.Item) string {
	return strconv.Itoa(it.ID) + fieldSep + it.Type.String() + fieldSep +
		Escape(it.Title) + fieldSep + Escape(it.Body) + "\n"
}

// decodeItem parses one items-log line (without its newline).
func decodeItem(line string) (models.Item, bool) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != 4 {
		return models.Item{}, false
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id <= 0 {
		return models.Item{}, false
	}
	typ, ok := models.ParseItemType(parts[1])
	if !ok {
		return models.Item{}, false
	}
	return models.Item{
		ID:    id,
		Type:  typ,
		Title: Unescape(parts[2]),
		Body:  Unescape(parts[3]),
	}, true
}

// encodeLink renders one links-log line in canonical a<b order.
func encodeLink(l models.Link) string {
	l = models.NewLink(l.A, l.B)
	return strconv.Itoa(l.A) + fieldSep + strconv.Itoa(l.B) + "\n"
}

// decodeLink parses one links-log line and canonicalises it.
func decodeLink(line string) (models.Link, bool) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != 2 {
		return models.Link{}, false
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.Link{}, false
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return models.Link{}, false
	}
	return models.NewLink(a, b), true
}

// splitLines splits log content on '\n', dropping empty lines.
func splitLines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	out := raw[:0]
	for _, l := range raw {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
