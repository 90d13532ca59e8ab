package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/bbp/internal/storage"
)

const debounce = 200 * time.Millisecond

// EventCallback is called after a watcher-driven catalog change.
// kind is "changed" or "removed".
type EventCallback func(kind string, book string)

// Watch starts an fsnotify watcher on the books directory and refreshes
// catalog rows for books whose log files change, until ctx is cancelled.
// Bursts of events (every ADD appends a line) are coalesced per book.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(book string) {
		pending[book] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	flush := func() {
		for book := range pending {
			present, err := refreshBook(db, store, book)
			if err != nil {
				logger.Warn("watcher: refresh failed", slog.String("book", book), slog.String("error", err.Error()))
				continue
			}
			kind := "changed"
			if !present {
				kind = "removed"
			}
			logger.Debug("watcher: refreshed", slog.String("book", book), slog.String("op", kind))
			if cb != nil {
				cb(kind, book)
			}
		}
		clear(pending)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			book, isLog := BookOf(ev.Name)
			if !isLog {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule(book)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
