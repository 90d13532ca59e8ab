// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/bbp/internal/api"
	"github.com/starford/bbp/internal/books"
	"github.com/starford/bbp/internal/catalog"
	"github.com/starford/bbp/internal/client"
	"github.com/starford/bbp/internal/mcpserver"
	"github.com/starford/bbp/internal/protocol"
	"github.com/starford/bbp/internal/server"
	"github.com/starford/bbp/internal/sse"
	"github.com/starford/bbp/internal/storage"
)

// core is the state shared by every entry point: the books directory, the
// catalog and the processor over the active book.
type core struct {
	store *storage.FS
	db    *catalog.DB
	books *books.Service
	proc  *protocol.Processor
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func openCore(cfg *Config, logger *slog.Logger, notifier books.Notifier) (*core, error) {
	// Ensure books directory exists.
	if err := os.MkdirAll(cfg.Books.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create books dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Books.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	// Bring the catalog up to date with what is on disk.
	if err := catalog.Sync(db, store, logger); err != nil {
		logger.Warn("initial catalog sync failed", slog.String("error", err.Error()))
	}

	opts := []books.Option{books.WithCatalog(db), books.WithLogger(logger)}
	if notifier != nil {
		opts = append(opts, books.WithNotifier(notifier))
	}
	svc := books.NewService(store, opts...)
	if cfg.Books.Default != "" {
		if err := svc.Open(cfg.Books.Default); err != nil {
			db.Close()
			return nil, fmt.Errorf("open book %q: %w", cfg.Books.Default, err)
		}
	}

	return &core{
		store: store,
		db:    db,
		books: svc,
		proc:  protocol.NewProcessor(svc, logger),
	}, nil
}

// Run starts the protocol server, and the catalog HTTP API when enabled,
// with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("tcp_address", cfg.App.TCP.Address()),
		slog.Bool("http_enabled", cfg.HTTP.Enabled),
		slog.String("books_dir", cfg.Books.Dir),
		slog.String("default_book", cfg.Books.Default),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := openCore(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer c.db.Close()

	tcpServer := server.New(cfg.App.TCP.Address(), c.proc, logger)

	g, gCtx := errgroup.WithContext(ctx)

	// Start protocol server.
	g.Go(func() error {
		if err := tcpServer.ListenAndServe(gCtx); err != nil {
			return fmt.Errorf("TCP server error: %w", err)
		}
		return nil
	})

	// Keep the catalog in step with the books directory.
	g.Go(func() error {
		if err := catalog.Watch(gCtx, c.db, c.store, c.store.Root(), logger, func(kind, book string) {
			broker.Notify("book."+kind, map[string]any{"book": book})
		}); err != nil {
			logger.Warn("catalog watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		httpServer = &http.Server{
			Addr:    cfg.HTTP.Address(),
			Handler: newHTTPHandler(cfg, c.db, broker),
		}
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	shutdownCtx, stop := signal.NotifyContext(gCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g.Go(func() error {
		<-shutdownCtx.Done()
		logger.Info("Shutting down server...")
		stop()

		if httpServer != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(sctx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func newHTTPHandler(cfg *Config, db *catalog.DB, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.ListBooks(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"catalog unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, including the SSE stream at /api/events.
	r.Mount("/api", api.NewRouter(db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	return r
}

// RunMCP serves the protocol as MCP tools over stdio. Logs go to stderr
// since stdout carries the MCP stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	logger := newLogger(app.config, app.logOutput)
	slog.SetDefault(logger)

	c, err := openCore(app.config, logger, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()

	logger.Info("Starting MCP server", slog.String("book", c.books.Active()))
	return mcpserver.New(c.proc, c.db).ServeStdio(ctx)
}

// RunClient connects to addr and runs an interactive session over in and
// out until EOF or until the server hangs up.
func RunClient(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	c, err := client.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer c.Close()
	return client.NewSession(c, in, out).Run()
}
