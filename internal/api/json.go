package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Book  string `json:"book,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.Int("status", status), slog.String("error", err.Error()))
	}
}

// writeError writes {"error": msg}, naming book when it is known.
func writeError(w http.ResponseWriter, status int, msg, book string) {
	writeJSON(w, status, errResponse{Error: msg, Book: book})
}
