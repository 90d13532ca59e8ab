// Package itemstore holds the items, type buckets and link graph of the
// active book and persists them to the book's two append-only logs.
//
// A Store is not safe for concurrent use; callers serialize access.
//
// Log fields escape backslash and carriage return as well as newline and
// the field separator. A log holding a literal `\\` therefore loads it as a
// single backslash. Callers store fields as given; the protocol layer trims
// whitespace around ADD fields, body included, before they reach AddItem.
package itemstore

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/storage"
)

// EventKind names a store mutation.
type EventKind string

const (
	EventItemAdded   EventKind = "item.added"
	EventItemDeleted EventKind = "item.deleted"
	EventLinkAdded   EventKind = "link.added"
)

// Event describes one committed mutation.
type Event struct {
	Kind EventKind
	Book string
	Item models.Item
	Link models.Link
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithListener registers fn to be called after every committed mutation.
func WithListener(fn func(Event)) Option {
	return func(s *Store) {
		s.listener = fn
	}
}

// ItemsFile returns the items-log file name of book.
func ItemsFile(book string) string { return book + "_items.db" }

// LinksFile returns the links-log file name of book.
func LinksFile(book string) string { return book + "_links.db" }

// Store is the in-memory state of one book.
type Store struct {
	files     storage.Provider
	book      string
	itemsPath string
	linksPath string

	items     []models.Item
	indexByID map[int]int
	buckets   [models.NumItemTypes][]int
	titles    map[string]struct{}
	adj       map[int]map[int]struct{}
	nextID    int

	logger   *slog.Logger
	listener func(Event)
}

// New returns an empty store for book. When files is nil or book is empty
// the store is memory-only.
func New(files storage.Provider, book string, opts ...Option) *Store {
	s := &Store{
		files:  files,
		book:   book,
		logger: slog.Default(),
	}
	if book != "" {
		s.itemsPath = ItemsFile(book)
		s.linksPath = LinksFile(book)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

// Book returns the name of the book backing the store.
func (s *Store) Book() string { return s.book }

func (s *Store) reset() {
	s.items = nil
	s.indexByID = make(map[int]int)
	for i := range s.buckets {
		s.buckets[i] = nil
	}
	s.titles = make(map[string]struct{})
	s.adj = make(map[int]map[int]struct{})
	s.nextID = 1
}

// NormalizeTitle is the uniqueness key of a title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// AddItem creates a new item. Its only error is apperr.ErrAlreadyExists,
// returned without consuming an id when the normalized title is taken.
func (s *Store) AddItem(typ models.ItemType, title, body string) (models.Item, error) {
	key := NormalizeTitle(title)
	if _, dup := s.titles[key]; dup {
		return models.Item{}, apperr.ErrAlreadyExists
	}

	it := models.Item{ID: s.nextID, Type: typ, Title: title, Body: body}
	s.nextID++
	s.insert(it)

	s.appendLog(s.itemsPath, encodeItem(it))
	s.emit(Event{Kind: EventItemAdded, Item: it})
	return it, nil
}

func (s *Store) insert(it models.Item) {
	s.items = append(s.items, it)
	s.indexByID[it.ID] = len(s.items) - 1
	s.buckets[it.Type] = append(s.buckets[it.Type], it.ID)
	s.titles[NormalizeTitle(it.Title)] = struct{}{}
}

// Get returns the item with the given id.
func (s *Store) Get(id int) (models.Item, bool) {
	idx, ok := s.indexByID[id]
	if !ok {
		return models.Item{}, false
	}
	return s.items[idx], true
}

// Items returns every item in store order.
func (s *Store) Items() []models.Item {
	return slices.Clone(s.items)
}

// Bucket returns the items of one type in insertion order.
func (s *Store) Bucket(typ models.ItemType) []models.Item {
	if !typ.Valid() {
		return nil
	}
	ids := s.buckets[typ]
	out := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.Get(id); ok {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of items.
func (s *Store) Len() int { return len(s.items) }

// NextID returns the id the next successful AddItem will assign.
func (s *Store) NextID() int { return s.nextID }

// ReserveIDs raises the id counter to at least next. It never lowers it.
func (s *Store) ReserveIDs(next int) {
	if next > s.nextID {
		s.nextID = next
	}
}

// AddLink records the undirected edge a-b.
func (s *Store) AddLink(a, b int) error {
	if a == b {
		return apperr.ErrSelfLink
	}
	if _, ok := s.indexByID[a]; !ok {
		return apperr.ErrNotFound
	}
	if _, ok := s.indexByID[b]; !ok {
		return apperr.ErrNotFound
	}
	if s.HasLink(a, b) {
		return apperr.ErrLinkExists
	}
	l := models.NewLink(a, b)
	s.connect(l)
	s.appendLog(s.linksPath, encodeLink(l))
	s.emit(Event{Kind: EventLinkAdded, Link: l})
	return nil
}

func (s *Store) connect(l models.Link) {
	if s.adj[l.A] == nil {
		s.adj[l.A] = make(map[int]struct{})
	}
	if s.adj[l.B] == nil {
		s.adj[l.B] = make(map[int]struct{})
	}
	s.adj[l.A][l.B] = struct{}{}
	s.adj[l.B][l.A] = struct{}{}
}

// HasLink reports whether a and b are linked.
func (s *Store) HasLink(a, b int) bool {
	if a == b {
		return false
	}
	_, ok := s.adj[a][b]
	return ok
}

// Neighbors returns the ids linked to id in ascending order.
func (s *Store) Neighbors(id int) []int {
	nbrs := s.adj[id]
	out := make([]int, 0, len(nbrs))
	for n := range nbrs {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Links returns every edge once, ordered by (A, B).
func (s *Store) Links() []models.Link {
	var out []models.Link
	for a, nbrs := range s.adj {
		for b := range nbrs {
			if a < b {
				out = append(out, models.Link{A: a, B: b})
			}
		}
	}
	slices.SortFunc(out, func(x, y models.Link) int {
		if x.A != y.A {
			return x.A - y.A
		}
		return x.B - y.B
	})
	return out
}

// DeleteItem removes the item and every edge touching it, then compacts
// both logs. It returns the removed item and false if id is unknown.
func (s *Store) DeleteItem(id int) (models.Item, bool) {
	idx, ok := s.indexByID[id]
	if !ok {
		return models.Item{}, false
	}
	victim := s.items[idx]

	delete(s.titles, NormalizeTitle(victim.Title))
	bucket := s.buckets[victim.Type]
	s.buckets[victim.Type] = slices.DeleteFunc(bucket, func(v int) bool { return v == id })

	s.items = slices.Delete(s.items, idx, idx+1)
	delete(s.indexByID, id)
	for i := idx; i < len(s.items); i++ {
		s.indexByID[s.items[i].ID] = i
	}

	for nbr := range s.adj[id] {
		delete(s.adj[nbr], id)
		if len(s.adj[nbr]) == 0 {
			delete(s.adj, nbr)
		}
	}
	delete(s.adj, id)

	s.compact()
	s.emit(Event{Kind: EventItemDeleted, Item: victim})
	return victim, true
}

func (s *Store) emit(ev Event) {
	if s.listener == nil {
		return
	}
	ev.Book = s.book
	s.listener(ev)
}
