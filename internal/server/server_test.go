package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/starford/bbp/internal/protocol"
	"github.com/starford/bbp/internal/testutil"
)

func startServer(t *testing.T) string {
	t.Helper()
	svc, _ := testutil.TestService(t, "bbp")
	proc := protocol.NewProcessor(svc, testutil.QuietLogger())
	srv := New("", proc, testutil.QuietLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

type testConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *testConn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testConn{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testConn) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatal(err)
	}
}

func (c *testConn) readLine() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return strings.TrimRight(line, "\n")
}

func TestServeRoundTrip(t *testing.T) {
	c := dial(t, startServer(t))

	c.send("ADD QUOTE;;Opening Line;;It was the best of times")
	if got := c.readLine(); got != "OK 1 ;; Opening Line" {
		t.Fatalf("ADD: %q", got)
	}

	// blank lines get no response
	c.send("   ")
	c.send("LIST QUOTE")
	want := []string{"OK", "1 ;; Opening Line ;; It was the best of times", ".END"}
	for _, w := range want {
		if got := c.readLine(); got != w {
			t.Fatalf("LIST: got %q, want %q", got, w)
		}
	}

	c.send("BOGUS")
	if got := c.readLine(); got != "ERR COMMAND-NOT-FOUND" {
		t.Fatalf("BOGUS: %q", got)
	}
	// the connection survives errors
	c.send("WHICHB")
	if got := c.readLine(); got != "OK bbp" {
		t.Fatalf("WHICHB: %q", got)
	}
}

func TestServeConnectionsSequentially(t *testing.T) {
	addr := startServer(t)

	first := dial(t, addr)
	first.send("ADD THEME;;Growth;;change")
	if got := first.readLine(); got != "OK 1 ;; Growth" {
		t.Fatalf("first: %q", got)
	}

	// the second client is queued until the first disconnects
	second := dial(t, addr)
	second.send("GET 1")
	second.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := second.r.ReadString('\n'); err == nil {
		t.Fatal("second connection was served while the first was open")
	}

	first.conn.Close()
	if got := second.readLine(); got != "OK 1 ;; THEME ;; Growth ;; change" {
		t.Fatalf("second: %q", got)
	}
}
