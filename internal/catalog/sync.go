package catalog

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/starford/bbp/internal/checksum"
	"github.com/starford/bbp/internal/itemstore"
	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/storage"
)

var bookFileRe = regexp.MustCompile(`^([A-Za-z0-9]+)_(items|links)\.db$`)

// BookOf returns the book name a log file belongs to.
func BookOf(path string) (string, bool) {
	m := bookFileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Sync walks the books directory and brings the catalog up to date:
//   - books whose log checksums changed are re-read and upserted
//   - rows for books whose items log is gone are deleted
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	known, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]Checksums)
	for _, m := range metas {
		name, ok := BookOf(m.Path)
		if !ok || filepath.Dir(m.Path) != "." {
			continue
		}
		cs := disk[name]
		if m.Path == itemstore.ItemsFile(name) {
			cs.Items = m.Checksum
		} else {
			cs.Links = m.Checksum
		}
		disk[name] = cs
	}

	for name, cs := range disk {
		if cs.Items == "" {
			// links log without an items log is not a loadable book
			delete(disk, name)
			continue
		}
		if prev, ok := known[name]; ok && prev == cs {
			continue
		}
		if _, err := refreshBook(db, store, name); err != nil {
			logger.Warn("sync: refresh failed", slog.String("book", name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("book", name))
		}
	}

	for name := range known {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteBook(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("book", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("book", name))
			}
		}
	}

	return nil
}

// refreshBook re-reads one book from disk and upserts its row. It returns
// false when the book's items log no longer exists (the row is removed).
func refreshBook(db *DB, store storage.Provider, name string) (bool, error) {
	itemsData, err := store.Read(itemstore.ItemsFile(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, db.DeleteBook(name)
	}
	if err != nil {
		return false, err
	}
	linksData, err := store.Read(itemstore.LinksFile(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	snap := itemstore.New(store, name)
	if err := snap.Load(); err != nil {
		return false, err
	}

	info := models.BookInfo{
		Name:          name,
		ItemsChecksum: checksum.Sum(itemsData),
		ItemCount:     snap.Len(),
		LinkCount:     len(snap.Links()),
		NextID:        snap.NextID(),
		UpdatedAt:     time.Now().UTC(),
	}
	if linksData != nil {
		info.LinksChecksum = checksum.Sum(linksData)
	}
	return true, db.UpsertBook(info)
}
