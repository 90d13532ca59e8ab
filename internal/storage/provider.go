// Package storage defines the books-directory file-system abstraction.
package storage

import "github.com/starford/bbp/internal/models"

// Provider is the interface for book log file operations.
// All paths are relative to the books directory.
type Provider interface {
	// List returns metadata for every .db file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path.
	Write(path string, content []byte) error
	// Append appends content to path, creating the file if needed.
	Append(path string, content []byte) error
	// Create creates an empty file at path and fails if it already exists.
	Create(path string) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
	// Delete removes the file at path.
	Delete(path string) error
}
