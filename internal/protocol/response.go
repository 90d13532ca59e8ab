package protocol

import (
	"io"
	"strings"
)

// Response is a fully formed reply: one error line, one OK line, or a
// block of lines ending with EndSentinel.
type Response struct {
	Lines []string
	Block bool
}

func errorResponse(c Code) Response {
	return Response{Lines: []string{"ERR " + c.String()}}
}

func okResponse() Response {
	return Response{Lines: []string{string(HeaderOK)}}
}

func okPayload(payload string) Response {
	return Response{Lines: []string{string(HeaderOK) + " " + payload}}
}

func blockResponse(h Header, lines []string) Response {
	out := make([]string, 0, len(lines)+2)
	out = append(out, string(h))
	out = append(out, lines...)
	out = append(out, EndSentinel)
	return Response{Lines: out, Block: true}
}

// IsError reports whether r is an ERR response.
func (r Response) IsError() bool {
	return len(r.Lines) == 1 && strings.HasPrefix(r.Lines[0], "ERR ")
}

// String renders r as newline-terminated wire text.
func (r Response) String() string {
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes the whole response with a single Write call.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}
