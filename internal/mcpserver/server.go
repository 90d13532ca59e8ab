// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the book protocol as tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/bbp/internal/models"
	"github.com/starford/bbp/internal/protocol"
)

const contractURI = "bbp://protocol"

// BookLister lists the books known to the catalog.
type BookLister interface {
	ListBooks() ([]models.BookInfo, error)
}

// Server wraps the MCP server with book protocol tools.
type Server struct {
	mcp *server.MCPServer

	// mu serializes requests; the processor is single-flow.
	mu      sync.Mutex
	proc    *protocol.Processor
	catalog BookLister
}

// requestDescription describes bbp_request with the live verb and item type lists.
func requestDescription(verbs []string) string {
	types := make([]string, 0, models.NumItemTypes)
	for _, t := range models.ItemTypes() {
		types = append(types, t.String())
	}
	return "Run one Book Builder Protocol request line against the active book " +
		"and return the framed response text. Verbs: " + strings.Join(verbs, ", ") +
		". Item types: " + strings.Join(types, ", ") +
		". Read the protocol contract first via the " + contractURI + " resource."
}

// New creates a new MCP server with all tools registered. catalog may be
// nil, in which case list_books reports an error.
func New(proc *protocol.Processor, catalog BookLister) *Server {
	s := &Server{proc: proc, catalog: catalog}

	s.mcp = server.NewMCPServer(
		"BBP",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("bbp_request",
		mcp.WithDescription(requestDescription(proc.Verbs())),
		mcp.WithString("line", mcp.Required(), mcp.Description("Request line, e.g. 'ADD QUOTE;;title;;body' or 'CONTEXT 3'")),
	), s.request)

	s.mcp.AddTool(mcp.NewTool("bbp_usage",
		mcp.WithDescription("Show help for every protocol command or for one command."),
		mcp.WithString("command", mcp.Description("Optional command name, e.g. LINK")),
	), s.usage)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List the books in the catalog with their item and link counts."),
	), s.listBooks)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Protocol Contract",
			mcp.WithResourceDescription("Request grammar and response framing of the book protocol."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContract,
	)

	return s
}

// ServeStdio serves MCP on stdin/stdout until ctx is cancelled or stdin
// is closed.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) execute(line string) *mcp.CallToolResult {
	s.mu.Lock()
	resp := s.proc.Execute(line)
	s.mu.Unlock()

	text := strings.TrimSuffix(resp.String(), "\n")
	if resp.IsError() {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

func (s *Server) request(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// one request per call
	if strings.ContainsAny(line, "\r\n") {
		return mcp.NewToolResultError("line must not contain newlines"), nil
	}
	return s.execute(line), nil
}

func (s *Server) usage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line := "USAGE"
	if cmd, err := req.RequireString("command"); err == nil && strings.TrimSpace(cmd) != "" {
		line += " " + strings.TrimSpace(cmd)
	}
	return s.execute(line), nil
}

func (s *Server) listBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.catalog == nil {
		return mcp.NewToolResultError("catalog is not configured"), nil
	}
	books, err := s.catalog.ListBooks()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if books == nil {
		books = []models.BookInfo{}
	}
	out, _ := json.MarshalIndent(books, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readContract(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ProtocolContract,
		},
	}, nil
}
