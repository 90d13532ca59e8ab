package protocol

import (
	"strings"

	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/parser"
)

func (p *Processor) handleSearch(req parser.Request) Response {
	if req.Rest == "" {
		return errorResponse(MalformedRequest)
	}
	mode, rest := parser.CutWord(req.Rest)
	switch mode {
	case "TYPE":
		return p.searchType(rest)
	case "TITLE":
		return p.searchTitle(rest)
	case "KEYWORDS":
		return p.searchKeywords(rest)
	default:
		return errorResponse(MalformedRequest)
	}
}

// searchType matches term against title or body within one type bucket.
func (p *Processor) searchType(rest string) Response {
	typeStr, term := parser.CutWord(rest)
	if typeStr == "" || term == "" {
		return errorResponse(MalformedRequest)
	}
	typ, ok := models.ParseItemType(typeStr)
	if !ok {
		return errorResponse(TypeNotFound)
	}
	term = strings.ToLower(term)
	return matchesOrNotFound(filter(p.store().Bucket(typ), func(it models.Item) bool {
		return containsFold(it.Title, term) || containsFold(it.Body, term)
	}))
}

// searchTitle matches term against every title.
func (p *Processor) searchTitle(term string) Response {
	if term == "" {
		return errorResponse(MalformedRequest)
	}
	term = strings.ToLower(term)
	return matchesOrNotFound(filter(p.store().Items(), func(it models.Item) bool {
		return containsFold(it.Title, term)
	}))
}

// searchKeywords requires every keyword to appear in the title or body.
func (p *Processor) searchKeywords(rest string) Response {
	keywords := strings.Fields(strings.ToLower(rest))
	if len(keywords) == 0 {
		return errorResponse(MalformedRequest)
	}
	return matchesOrNotFound(filter(p.store().Items(), func(it models.Item) bool {
		for _, k := range keywords {
			if !containsFold(it.Title, k) && !containsFold(it.Body, k) {
				return false
			}
		}
		return true
	}))
}

// containsFold reports whether lowerTerm occurs in s, ignoring case.
func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}
