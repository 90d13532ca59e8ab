package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const banner = `Welcome! You are connected to the Book Builder Protocol (BBP) server.
Enter commands like:
  ADD QUOTE;;title;;body
  GET 1
  LIST PLOT
  SEARCH TYPE PLOT hero
  SEARCH TITLE redemption
  SEARCH KEYWORDS modernity failure
  LINK 1 4
  CONTEXT 1
  OUTLINE
Type Ctrl-D (EOF) to exit.`

// Session drives a Client from a line-oriented input, echoing every
// response line with an "S: " prefix.
type Session struct {
	client *Client
	in     io.Reader
	out    io.Writer

	ok  *color.Color
	err *color.Color
}

// NewSession returns a session reading commands from in and writing to
// out. Colors are enabled only when out is a terminal.
func NewSession(c *Client, in io.Reader, out io.Writer) *Session {
	s := &Session{
		client: c,
		in:     in,
		out:    out,
		ok:     color.New(color.FgGreen),
		err:    color.New(color.FgRed),
	}
	if !IsTerminal(out) {
		s.ok.DisableColor()
		s.err.DisableColor()
	}
	return s
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run prints the banner, then reads commands until EOF on in or until the
// server closes the connection.
func (s *Session) Run() error {
	fmt.Fprintln(s.out, "Starting Client")
	fmt.Fprintln(s.out, banner)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "C: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lines, err := s.client.Do(line)
		for _, l := range lines {
			s.echo(l)
		}
		if errors.Is(err, ErrClosed) {
			fmt.Fprintln(s.out, "S: <connection closed>")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) echo(line string) {
	switch {
	case strings.HasPrefix(line, "ERR"):
		fmt.Fprintln(s.out, "S: "+s.err.Sprint(line))
	case strings.HasPrefix(line, "OK"):
		fmt.Fprintln(s.out, "S: "+s.ok.Sprint(line))
	default:
		fmt.Fprintln(s.out, "S: "+line)
	}
}
