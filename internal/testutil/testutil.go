// Package testutil provides shared test helpers for setting up book
// directories, catalogs and services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/bbp/internal/books"
	"github.com/starford/bbp/internal/catalog"
	"github.com/starford/bbp/internal/storage"
)

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "bbp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBooksDir creates a temporary books directory with its storage.FS.
func TestBooksDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestService returns a books service over a fresh directory with name
// already open as the active book.
func TestService(t *testing.T, name string, opts ...books.Option) (*books.Service, *storage.FS) {
	t.Helper()
	_, fs := TestBooksDir(t)
	opts = append([]books.Option{books.WithLogger(QuietLogger())}, opts...)
	svc := books.NewService(fs, opts...)
	if name != "" {
		if err := svc.Open(name); err != nil {
			t.Fatal(err)
		}
	}
	return svc, fs
}

// QuietLogger discards all output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
