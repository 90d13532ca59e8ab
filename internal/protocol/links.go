package protocol

import (
	"errors"
	"strconv"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/parser"
)

func (p *Processor) handleLink(req parser.Request) Response {
	fields := req.Fields()
	if len(fields) != 2 {
		return errorResponse(MalformedRequest)
	}
	a, okA := parser.ParseID(fields[0])
	b, okB := parser.ParseID(fields[1])
	if !okA || !okB {
		return errorResponse(MalformedID)
	}
	if a == b {
		return errorResponse(MalformedRequest)
	}

	err := p.store().AddLink(a, b)
	switch {
	case err == nil:
		return okResponse()
	case errors.Is(err, apperr.ErrNotFound):
		return errorResponse(NotFound)
	case errors.Is(err, apperr.ErrLinkExists):
		return errorResponse(LinkExists)
	default:
		return errorResponse(MalformedRequest)
	}
}

func (p *Processor) handleContext(req parser.Request) Response {
	id, ok := singleID(req)
	if !ok {
		return errorResponse(MalformedID)
	}
	st := p.store()
	center, ok := st.Get(id)
	if !ok {
		return errorResponse(NotFound)
	}

	lines := []string{"ITEM:", formatFull(center), "", "LINKED-TO:"}
	for _, nid := range st.Neighbors(id) {
		if target, ok := st.Get(nid); ok {
			lines = append(lines, formatFull(target))
		}
	}
	return blockResponse(HeaderContext, lines)
}

var outlineSections = []struct {
	typ    models.ItemType
	header string
}{
	{models.Theme, "THEMES"},
	{models.Char, "CHARACTERS"},
	{models.Plot, "PLOT"},
	{models.Phil, "PHILOSOPHIES"},
	{models.Quote, "QUOTES"},
}

func (p *Processor) handleOutline(parser.Request) Response {
	var lines []string
	for _, sec := range outlineSections {
		lines = append(lines, sec.header+":")
		for _, it := range p.store().Bucket(sec.typ) {
			lines = append(lines, "  "+strconv.Itoa(it.ID)+" ;; "+it.Title)
		}
		lines = append(lines, "")
	}
	return blockResponse(HeaderOutline, lines)
}
