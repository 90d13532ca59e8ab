// Package server serves the line protocol over TCP, one connection at a
// time.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Handler answers one request line by writing a complete response to w.
type Handler interface {
	Handle(line string, w io.Writer) error
}

// Server accepts a connection, serves it until EOF and only then accepts
// the next one. Requests therefore never run concurrently.
type Server struct {
	addr    string
	handler Handler
	logger  *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// New returns a server that will listen on addr.
func New(addr string, h Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, handler: h, logger: logger}
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln. Cancelling ctx closes ln and the
// connection in progress; Serve then returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("tcp server listening", slog.String("addr", ln.Addr().String()))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
			s.closeActive()
		case <-stop:
			ln.Close()
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("tcp server stopped")
				return nil
			}
			s.logger.Error("accept failed", slog.String("error", err.Error()))
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.logger.Info("client connected", slog.String("remote", remote))

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
		s.logger.Info("client disconnected", slog.String("remote", remote))
	}()
	if ctx.Err() != nil {
		return
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Warn("read failed", slog.String("remote", remote), slog.String("error", err.Error()))
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.logger.Debug("C -> S", slog.String("remote", remote), slog.String("line", line))
		if err := s.handler.Handle(line, conn); err != nil {
			s.logger.Warn("write response failed",
				slog.String("remote", remote), slog.String("error", err.Error()))
			return
		}
	}
}

func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}
