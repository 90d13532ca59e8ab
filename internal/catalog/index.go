package catalog

import "github.com/starford/bbp/internal/models"

// BookCatalog defines the catalog operations used by the rest of the
// application. Consumers should depend on this interface rather than *DB.
type BookCatalog interface {
	UpsertBook(b models.BookInfo) error
	DeleteBook(name string) error
	GetBook(name string) (*models.BookInfo, error)
	ListBooks() ([]models.BookInfo, error)
	HighWater(name string) (int, error)
	RaiseHighWater(name string, next int) error
	AllChecksums() (map[string]Checksums, error)
	Close() error
}

// Verify *DB satisfies BookCatalog at compile time.
var _ BookCatalog = (*DB)(nil)
