// Package books manages the lifecycle of named books and owns the item
// store of the active one.
package books

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/itemstore"
	"github.com/starford/bbp/internal/parser"
	"github.com/starford/bbp/internal/storage"
)

// DeleteKey is the shared secret DELETEB requires.
const DeleteKey = "m0u53!"

// Catalog records the id high-water mark of each book.
type Catalog interface {
	HighWater(name string) (int, error)
	RaiseHighWater(name string, next int) error
	DeleteBook(name string) error
}

// Notifier receives book and item events.
type Notifier interface {
	Notify(kind string, data map[string]any)
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog makes ids monotonic across reloads using c.
func WithCatalog(c Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service coordinates book files, the active store and the catalog.
// It is not safe for concurrent use.
type Service struct {
	files    storage.Provider
	catalog  Catalog
	notifier Notifier
	logger   *slog.Logger

	active string
	store  *itemstore.Store
}

// NewService returns a service with no active book and an empty
// memory-only store.
func NewService(files storage.Provider, opts ...Option) *Service {
	s := &Service{files: files, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.store = itemstore.New(nil, "", itemstore.WithLogger(s.logger))
	return s
}

// Active returns the active book name, or "" when none is set.
func (s *Service) Active() string { return s.active }

// Store returns the store of the active book.
func (s *Service) Store() *itemstore.Store { return s.store }

// ValidateName checks that name is a non-empty alphanumeric book name.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Match(parser.BookNamePattern()),
	)
	if err != nil {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidName, name)
	}
	return nil
}

// Open makes name the active book, loading its logs when they exist and
// starting empty otherwise. It is used for the startup book.
func (s *Service) Open(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return s.switchTo(name)
}

// Create makes the two empty logs of a new book and switches to it.
func (s *Service) Create(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	itemsPath, linksPath := itemstore.ItemsFile(name), itemstore.LinksFile(name)

	exists, err := s.anyExists(itemsPath, linksPath)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrCreateFailed, err)
	}
	if exists {
		return apperr.ErrAlreadyExists
	}

	if err := s.files.Create(itemsPath); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrCreateFailed, err)
	}
	if err := s.files.Create(linksPath); err != nil {
		s.removeCreated(name, itemsPath)
		return fmt.Errorf("%w: %w", apperr.ErrCreateFailed, err)
	}

	if err := s.switchTo(name); err != nil {
		s.removeCreated(name, itemsPath, linksPath)
		return fmt.Errorf("%w: %w", apperr.ErrCreateFailed, err)
	}
	s.notify("book.created", map[string]any{"book": name})
	return nil
}

// removeCreated deletes logs made by a Create that did not finish.
func (s *Service) removeCreated(name string, paths ...string) {
	for _, p := range paths {
		if err := s.files.Delete(p); err != nil {
			s.logger.Warn("books: cleanup after failed create",
				slog.String("book", name), slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}

// Load switches to an existing book. The items log must exist.
func (s *Service) Load(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	ok, err := s.files.Exists(itemstore.ItemsFile(name))
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrLoadFailed, err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return s.switchTo(name)
}

// Delete removes both logs of a book other than the active one.
func (s *Service) Delete(name, key string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if key != DeleteKey {
		return apperr.ErrUnauthorized
	}

	itemsPath, linksPath := itemstore.ItemsFile(name), itemstore.LinksFile(name)
	itemsOK, err := s.files.Exists(itemsPath)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeleteFailed, err)
	}
	linksOK, err := s.files.Exists(linksPath)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeleteFailed, err)
	}
	if !itemsOK && !linksOK {
		return apperr.ErrNotFound
	}
	if name == s.active {
		return apperr.ErrActiveBook
	}

	var errs []error
	if itemsOK {
		errs = append(errs, s.files.Delete(itemsPath))
	}
	if linksOK {
		errs = append(errs, s.files.Delete(linksPath))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeleteFailed, err)
	}

	if s.catalog != nil {
		if err := s.catalog.DeleteBook(name); err != nil {
			s.logger.Warn("books: catalog delete failed",
				slog.String("book", name), slog.String("error", err.Error()))
		}
	}
	s.notify("book.deleted", map[string]any{"book": name})
	return nil
}

func (s *Service) anyExists(paths ...string) (bool, error) {
	for _, p := range paths {
		ok, err := s.files.Exists(p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// switchTo discards the current store and builds a fresh one for name.
func (s *Service) switchTo(name string) error {
	st := itemstore.New(s.files, name,
		itemstore.WithLogger(s.logger),
		itemstore.WithListener(s.onStoreEvent),
	)
	if err := st.Load(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrLoadFailed, err)
	}
	if s.catalog != nil {
		hw, err := s.catalog.HighWater(name)
		if err != nil {
			s.logger.Warn("books: high water lookup failed",
				slog.String("book", name), slog.String("error", err.Error()))
		}
		st.ReserveIDs(hw)
	}

	s.store = st
	s.active = name
	s.logger.Info("books: active book switched",
		slog.String("book", name), slog.Int("items", st.Len()))
	s.notify("book.switched", map[string]any{"book": name})
	return nil
}

func (s *Service) onStoreEvent(ev itemstore.Event) {
	data := map[string]any{"book": ev.Book}
	switch ev.Kind {
	case itemstore.EventItemAdded:
		data["id"] = ev.Item.ID
		if s.catalog != nil && ev.Book != "" {
			if err := s.catalog.RaiseHighWater(ev.Book, ev.Item.ID+1); err != nil {
				s.logger.Warn("books: raise high water failed",
					slog.String("book", ev.Book), slog.String("error", err.Error()))
			}
		}
	case itemstore.EventItemDeleted:
		data["id"] = ev.Item.ID
	case itemstore.EventLinkAdded:
		data["a"] = ev.Link.A
		data["b"] = ev.Link.B
	}
	s.notify(string(ev.Kind), data)
}

func (s *Service) notify(kind string, data map[string]any) {
	if s.notifier != nil {
		s.notifier.Notify(kind, data)
	}
}
