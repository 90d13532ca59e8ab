package itemstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
)

func (s *Store) persistent() bool {
	return s.files != nil && s.book != ""
}

// appendLog writes one line to a log. Failures are logged and swallowed:
// the in-memory mutation has already been applied.
func (s *Store) appendLog(path, line string) {
	if !s.persistent() {
		return
	}
	if err := s.files.Append(path, []byte(line)); err != nil {
		s.logger.Warn("itemstore: append failed",
			slog.String("book", s.book),
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// compact rewrites both logs from the in-memory state.
func (s *Store) compact() {
	if !s.persistent() {
		return
	}
	var items strings.Builder
	for _, it := range s.items {
		items.WriteString(encodeItem(it))
	}
	if err := s.files.Write(s.itemsPath, []byte(items.String())); err != nil {
		s.logger.Warn("itemstore: rewrite items failed",
			slog.String("book", s.book), slog.String("error", err.Error()))
	}

	var links strings.Builder
	for _, l := range s.Links() {
		links.WriteString(encodeLink(l))
	}
	if err := s.files.Write(s.linksPath, []byte(links.String())); err != nil {
		s.logger.Warn("itemstore: rewrite links failed",
			slog.String("book", s.book), slog.String("error", err.Error()))
	}
}

// Load discards all in-memory state and replays both logs. Missing logs
// are treated as empty; malformed lines and links to unknown items are
// skipped.
func (s *Store) Load() error {
	s.reset()
	if !s.persistent() {
		return nil
	}

	data, err := s.readLog(s.itemsPath)
	if err != nil {
		return err
	}
	maxID := 0
	skipped := 0
	for _, line := range splitLines(data) {
		it, ok := decodeItem(line)
		if !ok {
			skipped++
			continue
		}
		if _, dup := s.indexByID[it.ID]; dup {
			skipped++
			continue
		}
		if _, dup := s.titles[NormalizeTitle(it.Title)]; dup {
			skipped++
			continue
		}
		s.insert(it)
		maxID = max(maxID, it.ID)
	}
	s.nextID = maxID + 1

	data, err = s.readLog(s.linksPath)
	if err != nil {
		return err
	}
	for _, line := range splitLines(data) {
		l, ok := decodeLink(line)
		if !ok || l.A == l.B {
			skipped++
			continue
		}
		_, okA := s.indexByID[l.A]
		_, okB := s.indexByID[l.B]
		if !okA || !okB {
			skipped++
			continue
		}
		s.connect(l)
	}

	if skipped > 0 {
		s.logger.Warn("itemstore: skipped log lines",
			slog.String("book", s.book), slog.Int("count", skipped))
	}
	return nil
}

func (s *Store) readLog(path string) ([]byte, error) {
	data, err := s.files.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("itemstore: load %s: %w", path, err)
	}
	return data, nil
}
