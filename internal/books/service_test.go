package books

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/starford/bbp/internal/apperr"
	"github.com/starford/bbp/internal/itemstore"
	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/storage"
)

type memCatalog struct {
	mu   sync.Mutex
	next map[string]int
}

func newMemCatalog() *memCatalog { return &memCatalog{next: map[string]int{}} }

func (c *memCatalog) HighWater(name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next[name], nil
}

func (c *memCatalog) RaiseHighWater(name string, next int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next[name] = max(c.next[name], next)
	return nil
}

func (c *memCatalog) DeleteBook(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.next, name)
	return nil
}

type recorder struct {
	kinds []string
}

func (r *recorder) Notify(kind string, _ map[string]any) { r.kinds = append(r.kinds, kind) }

// failingFS fails Create for paths with the given suffix.
type failingFS struct {
	*storage.FS
	failSuffix string
}

func (f failingFS) Create(path string) error {
	if strings.HasSuffix(path, f.failSuffix) {
		return errors.New("disk full")
	}
	return f.FS.Create(path)
}

// readFailFS fails Read for paths with the given suffix.
type readFailFS struct {
	*storage.FS
	failSuffix string
}

func (f readFailFS) Read(path string) ([]byte, error) {
	if strings.HasSuffix(path, f.failSuffix) {
		return nil, errors.New("io error")
	}
	return f.FS.Read(path)
}

func testFS(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestNewServiceHasNoActiveBook(t *testing.T) {
	s := NewService(testFS(t))
	if s.Active() != "" {
		t.Errorf("Active = %q", s.Active())
	}
	if _, err := s.Store().AddItem(models.Quote, "t", "b"); err != nil {
		t.Errorf("memory-only store should accept items: %v", err)
	}
}

func TestCreateSwitchesAndCreatesFiles(t *testing.T) {
	fs := testFS(t)
	s := NewService(fs)
	if err := s.Create("novel"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Active() != "novel" || s.Store().Book() != "novel" {
		t.Errorf("Active = %q, store book = %q", s.Active(), s.Store().Book())
	}
	for _, p := range []string{"novel_items.db", "novel_links.db"} {
		if ok, _ := fs.Exists(p); !ok {
			t.Errorf("%s not created", p)
		}
	}
	if err := s.Create("novel"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second Create err = %v", err)
	}
}

func TestCreateRejectsBadNames(t *testing.T) {
	s := NewService(testFS(t))
	for _, name := range []string{"", "my-book", "../etc"} {
		if err := s.Create(name); !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("Create(%q) err = %v", name, err)
		}
	}
}

func TestCreateCleansUpOnPartialFailure(t *testing.T) {
	fs := testFS(t)
	s := NewService(failingFS{FS: fs, failSuffix: "_links.db"})
	err := s.Create("novel")
	if !errors.Is(err, apperr.ErrCreateFailed) {
		t.Fatalf("err = %v, want ErrCreateFailed", err)
	}
	if ok, _ := fs.Exists("novel_items.db"); ok {
		t.Error("items log should be removed after failed create")
	}
	if s.Active() != "" {
		t.Errorf("Active = %q after failed create", s.Active())
	}
}

func TestCreateCleansUpWhenLoadFails(t *testing.T) {
	fs := testFS(t)
	s := NewService(readFailFS{FS: fs, failSuffix: "_items.db"})
	err := s.Create("novel")
	if !errors.Is(err, apperr.ErrCreateFailed) {
		t.Fatalf("err = %v, want ErrCreateFailed", err)
	}
	for _, p := range []string{"novel_items.db", "novel_links.db"} {
		if ok, _ := fs.Exists(p); ok {
			t.Errorf("%s left behind after failed create", p)
		}
	}
	if s.Active() != "" {
		t.Errorf("Active = %q after failed create", s.Active())
	}

	retry := NewService(fs)
	if err := retry.Create("novel"); err != nil {
		t.Errorf("retry Create: %v", err)
	}
}

func TestLoad(t *testing.T) {
	fs := testFS(t)
	_ = fs.Write("saved_items.db", []byte("1|THEME|Fate|inevitable\n"))
	s := NewService(fs)

	if err := s.Load("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Load(missing) err = %v", err)
	}
	if err := s.Load("saved"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Active() != "saved" || s.Store().Len() != 1 {
		t.Errorf("active=%q len=%d", s.Active(), s.Store().Len())
	}
}

func TestDelete(t *testing.T) {
	fs := testFS(t)
	s := NewService(fs)
	_ = s.Create("old")
	_ = s.Create("current")

	cases := []struct {
		name, key string
		want      error
	}{
		{"bad-name", DeleteKey, apperr.ErrInvalidName},
		{"old", "wrong", apperr.ErrUnauthorized},
		{"nothere", DeleteKey, apperr.ErrNotFound},
		{"current", DeleteKey, apperr.ErrActiveBook},
	}
	for _, c := range cases {
		if err := s.Delete(c.name, c.key); !errors.Is(err, c.want) {
			t.Errorf("Delete(%q, %q) err = %v, want %v", c.name, c.key, err, c.want)
		}
	}

	if err := s.Delete("old", DeleteKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := fs.Exists("old_items.db"); ok {
		t.Error("old_items.db still present")
	}
	if ok, _ := fs.Exists("old_links.db"); ok {
		t.Error("old_links.db still present")
	}
}

func TestDeleteWithOnlyLinksLog(t *testing.T) {
	fs := testFS(t)
	_ = fs.Write("half_links.db", nil)
	s := NewService(fs)
	if err := s.Delete("half", DeleteKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestCatalogKeepsIDsMonotonicAcrossReload(t *testing.T) {
	fs := testFS(t)
	cat := newMemCatalog()
	s := NewService(fs, WithCatalog(cat))
	if err := s.Open("novel"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	st := s.Store()
	_, _ = st.AddItem(models.Quote, "a", "a")
	_, _ = st.AddItem(models.Quote, "b", "b")
	st.DeleteItem(2)

	if err := s.Load("novel"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	it, err := s.Store().AddItem(models.Quote, "c", "c")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if it.ID != 3 {
		t.Errorf("id after delete+reload = %d, want 3", it.ID)
	}
}

func TestNotifierEvents(t *testing.T) {
	rec := &recorder{}
	s := NewService(testFS(t), WithNotifier(rec))
	_ = s.Create("novel")
	_, _ = s.Store().AddItem(models.Quote, "a", "a")
	_, _ = s.Store().AddItem(models.Quote, "b", "b")
	_ = s.Store().AddLink(1, 2)
	s.Store().DeleteItem(1)

	want := []string{
		"book.switched", "book.created",
		string(itemstore.EventItemAdded), string(itemstore.EventItemAdded),
		string(itemstore.EventLinkAdded), string(itemstore.EventItemDeleted),
	}
	if strings.Join(rec.kinds, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", rec.kinds, want)
	}
}
