package protocol

import (
	"strconv"

	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/parser"
)

func (p *Processor) handleAdd(req parser.Request) Response {
	parts := parser.SplitFields(req.Rest)

	var typeStr, title, body string
	typeStr = parts[0]
	if len(parts) >= 2 {
		title = parts[1]
	}
	if len(parts) >= 3 {
		body = parts[2]
	}

	switch {
	case title == "":
		return errorResponse(MissingTitle)
	case body == "":
		return errorResponse(MissingBody)
	case len(parts) > 3:
		return errorResponse(MalformedRequest)
	}

	typ, ok := models.ParseItemType(typeStr)
	if !ok {
		return errorResponse(UnknownType)
	}

	it, err := p.store().AddItem(typ, title, body)
	if err != nil {
		return errorResponse(ItemExists)
	}
	return okPayload(strconv.Itoa(it.ID) + " ;; " + it.Title)
}

func (p *Processor) handleGet(req parser.Request) Response {
	id, ok := singleID(req)
	if !ok {
		return errorResponse(MalformedID)
	}
	it, ok := p.store().Get(id)
	if !ok {
		return errorResponse(NotFound)
	}
	return okPayload(formatFull(it))
}

func (p *Processor) handleList(req parser.Request) Response {
	typ, ok := models.ParseItemType(req.Rest)
	if !ok {
		return errorResponse(UnknownType)
	}
	return matchesOrNotFound(p.store().Bucket(typ))
}

func (p *Processor) handleDelete(req parser.Request) Response {
	id, ok := singleID(req)
	if !ok {
		return errorResponse(MalformedID)
	}
	victim, ok := p.store().DeleteItem(id)
	if !ok {
		return errorResponse(NotFound)
	}
	return okPayload(formatFull(victim))
}
