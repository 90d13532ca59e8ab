package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/models"
)

// Checksums pairs the stored checksums of a book's two logs.
type Checksums struct {
	Items string
	Links string
}

// UpsertBook inserts or refreshes a book row. next_id never decreases.
func (db *DB) UpsertBook(b models.BookInfo) error {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO books (name, items_checksum, links_checksum, item_count, link_count, next_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			items_checksum = excluded.items_checksum,
			links_checksum = excluded.links_checksum,
			item_count     = excluded.item_count,
			link_count     = excluded.link_count,
			next_id        = MAX(books.next_id, excluded.next_id),
			updated_at     = excluded.updated_at
	`, b.Name, b.ItemsChecksum, b.LinksChecksum, b.ItemCount, b.LinkCount, max(b.NextID, 1), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert book: %w", err)
	}
	return nil
}

// DeleteBook removes a book row. Deleting an unknown book is not an error.
func (db *DB) DeleteBook(name string) error {
	if _, err := db.conn.Exec(`DELETE FROM books WHERE name = ?`, name); err != nil {
		return fmt.Errorf("catalog: delete book: %w", err)
	}
	return nil
}

// GetBook returns one book row or apperr.ErrNotFound.
func (db *DB) GetBook(name string) (*models.BookInfo, error) {
	row := db.conn.QueryRow(`
		SELECT name, items_checksum, links_checksum, item_count, link_count, next_id, updated_at
		FROM books WHERE name = ?`, name)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get book: %w", err)
	}
	return b, nil
}

// ListBooks returns every book ordered by name.
func (db *DB) ListBooks() ([]models.BookInfo, error) {
	rows, err := db.conn.Query(`
		SELECT name, items_checksum, links_checksum, item_count, link_count, next_id, updated_at
		FROM books ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	defer rows.Close()

	var out []models.BookInfo
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// HighWater returns the recorded next id for a book, or 0 if unknown.
func (db *DB) HighWater(name string) (int, error) {
	var next int
	err := db.conn.QueryRow(`SELECT next_id FROM books WHERE name = ?`, name).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: high water: %w", err)
	}
	return next, nil
}

// RaiseHighWater records that ids below next have been handed out.
func (db *DB) RaiseHighWater(name string, next int) error {
	_, err := db.conn.Exec(`
		INSERT INTO books (name, next_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET next_id = MAX(books.next_id, excluded.next_id)
	`, name, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("catalog: raise high water: %w", err)
	}
	return nil
}

// AllChecksums returns the stored log checksums keyed by book name.
func (db *DB) AllChecksums() (map[string]Checksums, error) {
	rows, err := db.conn.Query(`SELECT name, items_checksum, links_checksum FROM books`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Checksums)
	for rows.Next() {
		var name string
		var cs Checksums
		if err := rows.Scan(&name, &cs.Items, &cs.Links); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (*models.BookInfo, error) {
	var b models.BookInfo
	if err := s.Scan(&b.Name, &b.ItemsChecksum, &b.LinksChecksum,
		&b.ItemCount, &b.LinkCount, &b.NextID, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
