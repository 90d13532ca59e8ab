package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/starford/bbp/internal/protocol"
	"github.com/starford/bbp/internal/server"
	"github.com/starford/bbp/internal/testutil"
)

func startServer(t *testing.T) string {
	t.Helper()
	svc, _ := testutil.TestService(t, "bbp")
	srv := server.New("", protocol.NewProcessor(svc, testutil.QuietLogger()), testutil.QuietLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDoReadsSingleAndBlockResponses(t *testing.T) {
	c := dial(t, startServer(t))

	got, err := c.Do("ADD QUOTE;;Opening Line;;It was the best of times")
	if err != nil || len(got) != 1 || got[0] != "OK 1 ;; Opening Line" {
		t.Fatalf("ADD = %q, %v", got, err)
	}

	got, err = c.Do("CONTEXT 1")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "OK CONTEXT" || got[len(got)-1] != ".END" {
		t.Fatalf("CONTEXT = %q", got)
	}

	// a failing block command ends on the error line
	got, err = c.Do("LIST PLOT")
	if err != nil || len(got) != 1 || got[0] != "ERR NOT-FOUND" {
		t.Fatalf("LIST PLOT = %q, %v", got, err)
	}

	got, err = c.Do("WHICHB")
	if err != nil || got[0] != "OK bbp" {
		t.Fatalf("WHICHB = %q, %v", got, err)
	}
}

func TestDoReportsClosedConnection(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	go func() {
		bufio.NewReader(srvConn).ReadString('\n')
		srvConn.Close()
	}()
	c := New(cliConn)
	defer c.Close()

	if _, err := c.Do("GET 1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestSessionEchoesResponses(t *testing.T) {
	c := dial(t, startServer(t))

	in := strings.NewReader("ADD PLOT;;Rising Action;;Conflict emerges\n\nOUTLINE\nBOGUS\n")
	var out bytes.Buffer
	if err := NewSession(c, in, &out).Run(); err != nil {
		t.Fatal(err)
	}

	text := out.String()
	for _, want := range []string{
		"Starting Client\n",
		"Type Ctrl-D (EOF) to exit.\n",
		"C: S: OK 1 ;; Rising Action\n",
		"S: OK OUTLINE\n",
		"S:   1 ;; Rising Action\n",
		"S: .END\n",
		"S: ERR COMMAND-NOT-FOUND\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "\x1b[") {
		t.Error("colors should be disabled for a non-terminal writer")
	}
}

func TestSessionStopsWhenServerCloses(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	go func() {
		bufio.NewReader(srvConn).ReadString('\n')
		srvConn.Close()
	}()
	c := New(cliConn)
	defer c.Close()

	var out bytes.Buffer
	if err := NewSession(c, strings.NewReader("GET 1\nGET 2\n"), &out).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out.String(), "S: <connection closed>\n") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}
