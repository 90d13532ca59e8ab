package protocol

import (
	"errors"
	"log/slog"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/parser"
)

// bookError maps a books.Service failure to its wire code.
func bookError(err error) Response {
	switch {
	case errors.Is(err, apperr.ErrInvalidName):
		return errorResponse(InvalidBookName)
	case errors.Is(err, apperr.ErrAlreadyExists):
		return errorResponse(BookExists)
	case errors.Is(err, apperr.ErrNotFound):
		return errorResponse(BookNotFound)
	case errors.Is(err, apperr.ErrUnauthorized):
		return errorResponse(Unauthorized)
	case errors.Is(err, apperr.ErrActiveBook):
		return errorResponse(ActiveBook)
	case errors.Is(err, apperr.ErrCreateFailed):
		return errorResponse(BookCreateFailed)
	case errors.Is(err, apperr.ErrDeleteFailed):
		return errorResponse(BookDeleteFailed)
	default:
		return errorResponse(BookLoadFailed)
	}
}

func (p *Processor) handleNewBook(req parser.Request) Response {
	fields := req.Fields()
	if len(fields) != 1 {
		return errorResponse(MalformedRequest)
	}
	if err := p.books.Create(fields[0]); err != nil {
		p.logger.Info("protocol: NEWB failed",
			slog.String("book", fields[0]), slog.String("error", err.Error()))
		return bookError(err)
	}
	return okPayload(p.books.Active())
}

func (p *Processor) handleLoadBook(req parser.Request) Response {
	fields := req.Fields()
	if len(fields) != 1 {
		return errorResponse(MalformedRequest)
	}
	if err := p.books.Load(fields[0]); err != nil {
		p.logger.Info("protocol: LOADB failed",
			slog.String("book", fields[0]), slog.String("error", err.Error()))
		return bookError(err)
	}
	return okPayload(p.books.Active())
}

func (p *Processor) handleDeleteBook(req parser.Request) Response {
	fields := req.Fields()
	if len(fields) != 2 {
		return errorResponse(MalformedRequest)
	}
	if err := p.books.Delete(fields[0], fields[1]); err != nil {
		p.logger.Info("protocol: DELETEB failed",
			slog.String("book", fields[0]), slog.String("error", err.Error()))
		return bookError(err)
	}
	return okResponse()
}

func (p *Processor) handleWhichBook(req parser.Request) Response {
	if req.Rest != "" {
		return errorResponse(MalformedRequest)
	}
	name := p.books.Active()
	if name == "" {
		return errorResponse(NotFound)
	}
	return okPayload(name)
}
