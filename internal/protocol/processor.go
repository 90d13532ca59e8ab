// Package protocol implements the Book Builder Protocol command processor:
// it parses request lines, runs them against the active book and formats
// the framed responses.
package protocol

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/starford/bbp/internal/books"
	"github.com/starford/bbp/internal/itemstore"
	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/parser"
)

type handlerFunc func(req parser.Request) Response

type command struct {
	name   string
	help   string
	handle handlerFunc
}

// Processor dispatches request lines to command handlers. It holds no
// state of its own beyond its collaborators and is not safe for
// concurrent use.
type Processor struct {
	books  *books.Service
	logger *slog.Logger

	commands []command
	byName   map[string]command
}

// NewProcessor builds a processor over svc.
func NewProcessor(svc *books.Service, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{books: svc, logger: logger}
	p.commands = []command{
		{"ADD", "ADD TYPE;;title;;body - Add a new item of the given TYPE with the given title and body.", p.handleAdd},
		{"GET", "GET id - Retrieve the full details of the item with the given id.", p.handleGet},
		{"LIST", "LIST TYPE - List all items of the given TYPE.", p.handleList},
		{"SEARCH", "SEARCH TYPE|TITLE|KEYWORDS ... - Search items by type, title, or keywords.", p.handleSearch},
		{"LINK", "LINK id1 id2 - Create a link between two existing items.", p.handleLink},
		{"CONTEXT", "CONTEXT id - Show the item and all items it is directly linked to.", p.handleContext},
		{"OUTLINE", "OUTLINE - Show a high-level outline of items for current book grouped by type.", p.handleOutline},
		{"DELETE", "DELETE id - Delete the item with the given id.", p.handleDelete},
		{"NEWB", "NEWB name - Create a new empty book backed by name_items.db/name_links.db and switch to it.", p.handleNewBook},
		{"LOADB", "LOADB name - Load an existing book (name_items.db/name_links.db) into the server.", p.handleLoadBook},
		{"DELETEB", "DELETEB name <secret key> - Delete the files for the named book (not allowed for the active book).", p.handleDeleteBook},
		{"WHICHB", "WHICHB - Show the name of the currently active book.", p.handleWhichBook},
		{"USAGE", "USAGE [command] - Show help for all commands or for a specific command.", p.handleUsage},
	}
	p.byName = make(map[string]command, len(p.commands))
	for _, c := range p.commands {
		p.byName[c.name] = c
	}
	return p
}

// Execute runs one request line and returns its response.
func (p *Processor) Execute(line string) Response {
	req := parser.Parse(line)
	if req.Verb == "" {
		return errorResponse(EmptyRequest)
	}
	cmd, ok := p.byName[req.Verb]
	if !ok {
		return errorResponse(CommandNotFound)
	}
	return cmd.handle(req)
}

// Handle runs one request line and writes the complete response to w.
// Nothing is written until the response is fully formed.
func (p *Processor) Handle(line string, w io.Writer) error {
	resp := p.Execute(line)
	for _, l := range resp.Lines {
		p.logger.Debug("S -> C", slog.String("line", l))
	}
	_, err := resp.WriteTo(w)
	return err
}

// IsBlockCommand reports whether verb answers with a block response on
// success.
func IsBlockCommand(verb string) bool {
	switch verb {
	case "LIST", "SEARCH", "CONTEXT", "OUTLINE", "USAGE":
		return true
	}
	return false
}

func (p *Processor) store() *itemstore.Store {
	return p.books.Store()
}

func formatSummary(it models.Item) string {
	return strconv.Itoa(it.ID) + " ;; " + it.Title + " ;; " + it.Body
}

func formatFull(it models.Item) string {
	return strconv.Itoa(it.ID) + " ;; " + it.Type.String() + " ;; " + it.Title + " ;; " + it.Body
}

// singleID parses a request whose only argument is an item id.
func singleID(req parser.Request) (int, bool) {
	return parser.ParseID(req.Rest)
}

// filter returns the elements of items that satisfy match, preserving order.
func filter[T any](items []T, match func(T) bool) []T {
	var out []T
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

func matchesOrNotFound(matches []models.Item) Response {
	if len(matches) == 0 {
		return errorResponse(NotFound)
	}
	lines := make([]string, len(matches))
	for i, it := range matches {
		lines[i] = formatSummary(it)
	}
	return blockResponse(HeaderOK, lines)
}
