// Package client is a line protocol client: it sends one request line and
// reads back one framed response.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/starford/bbp/internal/parser"
	"github.com/starford/bbp/internal/protocol"
)

// ErrClosed is returned when the server closes the connection before a
// response is complete.
var ErrClosed = errors.New("connection closed")

// Client holds one open connection.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn)}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends line and returns the response lines. Block commands are read
// up to the end sentinel or an error line; everything else is one line.
func (c *Client) Do(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	verb, _ := parser.CutWord(line)
	if !protocol.IsBlockCommand(verb) {
		l, err := c.readLine()
		if err != nil {
			return nil, err
		}
		return []string{l}, nil
	}

	var out []string
	for {
		l, err := c.readLine()
		if err != nil {
			return out, err
		}
		out = append(out, l)
		if l == protocol.EndSentinel || strings.HasPrefix(l, "ERR") {
			return out, nil
		}
	}
}

func (c *Client) readLine() (string, error) {
	l, err := c.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return "", ErrClosed
		}
		return "", fmt.Errorf("receive: %w", err)
	}
	return strings.TrimRight(l, "\r\n"), nil
}
