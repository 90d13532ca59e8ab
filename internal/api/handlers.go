package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/parser"
)

// BookLister is the read side of the book catalog.
type BookLister interface {
	ListBooks() ([]models.BookInfo, error)
	GetBook(name string) (*models.BookInfo, error)
}

// Handler holds API route handlers.
type Handler struct {
	books BookLister
}

// NewHandler creates a new Handler.
func NewHandler(books BookLister) *Handler {
	return &Handler{books: books}
}

// ListBooks handles GET /api/books.
//
//	@Summary		List every book in the catalog
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	BookListResponse
//	@Security		BearerAuth
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	infos, err := h.books.ListBooks()
	if err != nil {
		slog.Error("list books failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	out := make([]BookSummary, 0, len(infos))
	for _, b := range infos {
		out = append(out, toSummary(b))
	}
	writeJSON(w, http.StatusOK, BookListResponse{Books: out, Total: len(out)})
}

// GetBook handles GET /api/books/{name}.
//
//	@Summary		Get one book's catalog entry
//	@Tags			books
//	@Produce		json
//	@Param			name	path		string	true	"Book name"
//	@Success		200		{object}	BookSummary
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{name} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !parser.ValidBookName(name) {
		writeError(w, http.StatusBadRequest, "invalid book name", "")
		return
	}
	info, err := h.books.GetBook(name)
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "book not found", name)
		return
	}
	if err != nil {
		slog.Error("get book failed", slog.String("book", name), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error", name)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(*info))
}
