package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/bbp/internal/books"
	"github.com/starford/bbp/internal/testutil"
)

func newTestProcessor(t *testing.T) (*Processor, *books.Service) {
	t.Helper()
	svc, _ := testutil.TestService(t, "bbp")
	return NewProcessor(svc, testutil.QuietLogger()), svc
}

// run executes each line and returns the last response.
func run(t *testing.T, p *Processor, lines ...string) Response {
	t.Helper()
	var resp Response
	for _, l := range lines {
		resp = p.Execute(l)
	}
	return resp
}

func expectLines(t *testing.T, resp Response, want ...string) {
	t.Helper()
	if len(resp.Lines) != len(want) {
		t.Fatalf("got %q, want %q", resp.Lines, want)
	}
	for i := range want {
		if resp.Lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q (all: %q)", i, resp.Lines[i], want[i], resp.Lines)
		}
	}
}

func expectError(t *testing.T, resp Response, code Code) {
	t.Helper()
	expectLines(t, resp, "ERR "+code.String())
}

func TestScenario(t *testing.T) {
	p, _ := newTestProcessor(t)

	expectLines(t, p.Execute("ADD QUOTE;;Opening Line;;It was the best of times"), "OK 1 ;; Opening Line")
	expectLines(t, p.Execute("GET 1"), "OK 1 ;; QUOTE ;; Opening Line ;; It was the best of times")
	expectLines(t, p.Execute("ADD PLOT;;Rising Action;;Conflict emerges"), "OK 2 ;; Rising Action")
	expectLines(t, p.Execute("LINK 1 2"), "OK")
	expectLines(t, p.Execute("CONTEXT 1"),
		"OK CONTEXT",
		"ITEM:",
		"1 ;; QUOTE ;; Opening Line ;; It was the best of times",
		"",
		"LINKED-TO:",
		"2 ;; PLOT ;; Rising Action ;; Conflict emerges",
		".END",
	)
	expectLines(t, p.Execute("LIST QUOTE"), "OK", "1 ;; Opening Line ;; It was the best of times", ".END")
	expectLines(t, p.Execute("SEARCH KEYWORDS best times"), "OK", "1 ;; Opening Line ;; It was the best of times", ".END")
}

func TestDispatchErrors(t *testing.T) {
	p, _ := newTestProcessor(t)
	expectError(t, p.Execute(""), EmptyRequest)
	expectError(t, p.Execute("   "), EmptyRequest)
	expectError(t, p.Execute("FROB 1"), CommandNotFound)
	expectError(t, p.Execute("add QUOTE;;a;;b"), CommandNotFound)
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		line string
		want Code
	}{
		{"ADD", MissingTitle},
		{"ADD QUOTE", MissingTitle},
		{"ADD QUOTE;;;;body", MissingTitle},
		{"ADD QUOTE;;Title", MissingBody},
		{"ADD QUOTE;;Title;;  ", MissingBody},
		{"ADD QUOTE;;Title;;body;;extra", MalformedRequest},
		{"ADD POEM;;Title;;body", UnknownType},
		{"ADD quote;;Title;;body", UnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p, _ := newTestProcessor(t)
			expectError(t, p.Execute(tt.line), tt.want)
		})
	}
}

func TestAddDuplicateTitle(t *testing.T) {
	p, _ := newTestProcessor(t)
	run(t, p, "ADD QUOTE;;Opening Line;;first")
	expectError(t, p.Execute("ADD PLOT;;  opening LINE ;;second"), ItemExists)
	// the failed add must not consume an id
	expectLines(t, p.Execute("ADD PLOT;;Other;;second"), "OK 2 ;; Other")
}

func TestAddTrimsFields(t *testing.T) {
	p, _ := newTestProcessor(t)
	expectLines(t, p.Execute("ADD QUOTE;;  Padded Title ;;  padded body  "), "OK 1 ;; Padded Title")
	expectLines(t, p.Execute("GET 1"), "OK 1 ;; QUOTE ;; Padded Title ;; padded body")
}

func TestGet(t *testing.T) {
	p, _ := newTestProcessor(t)
	expectError(t, p.Execute("GET"), MalformedID)
	expectError(t, p.Execute("GET abc"), MalformedID)
	expectError(t, p.Execute("GET 1 2"), MalformedID)
	expectError(t, p.Execute("GET 9"), NotFound)
}

func TestList(t *testing.T) {
	p, _ := newTestProcessor(t)
	expectError(t, p.Execute("LIST NOVEL"), UnknownType)
	expectError(t, p.Execute("LIST CHAR"), NotFound)

	run(t, p,
		"ADD CHAR;;Alice;;curious",
		"ADD THEME;;Growth;;change",
		"ADD CHAR;;Bob;;steady",
	)
	expectLines(t, p.Execute("LIST CHAR"), "OK", "1 ;; Alice ;; curious", "3 ;; Bob ;; steady", ".END")
}

func TestSearch(t *testing.T) {
	p, _ := newTestProcessor(t)
	run(t, p,
		"ADD QUOTE;;Opening Line;;It was the best of times",
		"ADD PLOT;;Rising Action;;Conflict emerges",
		"ADD QUOTE;;Closing;;The worst of times",
	)

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"type body match", "SEARCH TYPE QUOTE TIMES", []string{"OK", "1 ;; Opening Line ;; It was the best of times", "3 ;; Closing ;; The worst of times", ".END"}},
		{"type restricted to bucket", "SEARCH TYPE PLOT times", []string{"ERR NOT-FOUND"}},
		{"type unknown", "SEARCH TYPE NOVEL x", []string{"ERR TYPE-NOT-FOUND"}},
		{"type missing term", "SEARCH TYPE QUOTE", []string{"ERR MALFORMED-REQUEST"}},
		{"title", "SEARCH TITLE action", []string{"OK", "2 ;; Rising Action ;; Conflict emerges", ".END"}},
		{"title ignores body", "SEARCH TITLE conflict", []string{"ERR NOT-FOUND"}},
		{"keywords conjunctive", "SEARCH KEYWORDS worst TIMES", []string{"OK", "3 ;; Closing ;; The worst of times", ".END"}},
		{"keywords none", "SEARCH KEYWORDS worst conflict", []string{"ERR NOT-FOUND"}},
		{"no mode", "SEARCH", []string{"ERR MALFORMED-REQUEST"}},
		{"bad mode", "SEARCH BODY x", []string{"ERR MALFORMED-REQUEST"}},
		{"keywords empty", "SEARCH KEYWORDS", []string{"ERR MALFORMED-REQUEST"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectLines(t, p.Execute(tt.line), tt.want...)
		})
	}
}

func TestLink(t *testing.T) {
	p, _ := newTestProcessor(t)
	run(t, p, "ADD QUOTE;;A;;a", "ADD PLOT;;B;;b")

	expectError(t, p.Execute("LINK 1"), MalformedRequest)
	expectError(t, p.Execute("LINK 1 2 3"), MalformedRequest)
	expectError(t, p.Execute("LINK 1 x"), MalformedID)
	expectError(t, p.Execute("LINK 1 1"), MalformedRequest)
	expectError(t, p.Execute("LINK 1 7"), NotFound)
	expectLines(t, p.Execute("LINK 2 1"), "OK")
	expectError(t, p.Execute("LINK 1 2"), LinkExists)

	// symmetric
	ctx := p.Execute("CONTEXT 2")
	if !strings.Contains(ctx.String(), "1 ;; QUOTE ;; A ;; a") {
		t.Fatalf("CONTEXT 2 misses item 1: %q", ctx.Lines)
	}
}

func TestContextNoLinks(t *testing.T) {
	p, _ := newTestProcessor(t)
	run(t, p, "ADD THEME;;Solo;;alone")
	expectLines(t, p.Execute("CONTEXT 1"), "OK CONTEXT", "ITEM:", "1 ;; THEME ;; Solo ;; alone", "", "LINKED-TO:", ".END")
	expectError(t, p.Execute("CONTEXT 2"), NotFound)
	expectError(t, p.Execute("CONTEXT two"), MalformedID)
}

func TestOutline(t *testing.T) {
	p, _ := newTestProcessor(t)
	expectLines(t, p.Execute("OUTLINE"),
		"OK OUTLINE",
		"THEMES:", "",
		"CHARACTERS:", "",
		"PLOT:", "",
		"PHILOSOPHIES:", "",
		"QUOTES:", "",
		".END",
	)

	run(t, p, "ADD QUOTE;;Q;;q", "ADD THEME;;T;;t", "ADD PHIL;;P;;p")
	expectLines(t, p.Execute("OUTLINE"),
		"OK OUTLINE",
		"THEMES:", "  2 ;; T", "",
		"CHARACTERS:", "",
		"PLOT:", "",
		"PHILOSOPHIES:", "  3 ;; P", "",
		"QUOTES:", "  1 ;; Q", "",
		".END",
	)
}

func TestDeleteCascades(t *testing.T) {
	p, _ := newTestProcessor(t)
	run(t, p, "ADD QUOTE;;A;;a", "ADD PLOT;;B;;b", "ADD CHAR;;C;;c", "LINK 1 2", "LINK 2 3")

	expectLines(t, p.Execute("DELETE 2"), "OK 2 ;; PLOT ;; B ;; b")
	expectError(t, p.Execute("GET 2"), NotFound)
	expectError(t, p.Execute("DELETE 2"), NotFound)
	expectError(t, p.Execute("DELETE x"), MalformedID)
	expectError(t, p.Execute("LIST PLOT"), NotFound)

	for _, line := range []string{"CONTEXT 1", "CONTEXT 3", "OUTLINE"} {
		if out := p.Execute(line).String(); strings.Contains(out, " ;; B") {
			t.Fatalf("%s still mentions deleted item: %q", line, out)
		}
	}
}

func TestBookCommands(t *testing.T) {
	p, svc := newTestProcessor(t)

	expectLines(t, p.Execute("WHICHB"), "OK bbp")
	expectError(t, p.Execute("WHICHB now"), MalformedRequest)

	expectError(t, p.Execute("NEWB"), MalformedRequest)
	expectError(t, p.Execute("NEWB a b"), MalformedRequest)
	expectError(t, p.Execute("NEWB bad-name"), InvalidBookName)
	expectLines(t, p.Execute("NEWB novel"), "OK novel")
	expectLines(t, p.Execute("WHICHB"), "OK novel")
	expectError(t, p.Execute("NEWB novel"), BookExists)

	run(t, p, "ADD QUOTE;;In novel;;x")
	expectError(t, p.Execute("LOADB missing"), BookNotFound)
	expectError(t, p.Execute("LOADB ../etc"), InvalidBookName)

	expectLines(t, p.Execute("NEWB other"), "OK other")
	expectError(t, p.Execute("GET 1"), NotFound)
	expectLines(t, p.Execute("LOADB novel"), "OK novel")
	expectLines(t, p.Execute("GET 1"), "OK 1 ;; QUOTE ;; In novel ;; x")

	expectError(t, p.Execute("DELETEB other"), MalformedRequest)
	expectError(t, p.Execute("DELETEB other wrong"), Unauthorized)
	expectError(t, p.Execute("DELETEB ghost "+books.DeleteKey), BookNotFound)
	expectError(t, p.Execute("DELETEB novel "+books.DeleteKey), ActiveBook)
	expectLines(t, p.Execute("DELETEB other "+books.DeleteKey), "OK")
	expectError(t, p.Execute("LOADB other"), BookNotFound)

	if svc.Active() != "novel" {
		t.Fatalf("active = %q", svc.Active())
	}
}

func TestWhichBookWithoutActiveBook(t *testing.T) {
	svc, _ := testutil.TestService(t, "")
	p := NewProcessor(svc, testutil.QuietLogger())
	expectError(t, p.Execute("WHICHB"), NotFound)
}

func TestUsage(t *testing.T) {
	p, _ := newTestProcessor(t)

	all := p.Execute("USAGE")
	if !all.Block || all.Lines[0] != "OK" || all.Lines[len(all.Lines)-1] != EndSentinel {
		t.Fatalf("bad framing: %q", all.Lines)
	}
	help := all.Lines[1 : len(all.Lines)-1]
	verbs := p.Verbs()
	if len(help) != len(verbs) {
		t.Fatalf("got %d help lines, want %d", len(help), len(verbs))
	}
	for i, v := range verbs {
		if !strings.HasPrefix(help[i], v+" ") {
			t.Errorf("help %d = %q, want prefix %q", i, help[i], v)
		}
	}

	expectLines(t, p.Execute("USAGE link"), "OK", "LINK id1 id2 - Create a link between two existing items.", ".END")
	expectError(t, p.Execute("USAGE FROB"), NotFound)
}

func TestHandleWritesWholeResponse(t *testing.T) {
	p, _ := newTestProcessor(t)
	var buf bytes.Buffer
	if err := p.Handle("OUTLINE", &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "OK OUTLINE\n") || !strings.HasSuffix(out, "\n.END\n") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	if err := p.Handle("GET 1", &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ERR NOT-FOUND\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestBookRoundTripThroughReload(t *testing.T) {
	p, _ := newTestProcessor(t)
	run(t, p,
		"NEWB saga",
		"ADD QUOTE;;Pipe | inside;;line one",
		"ADD CHAR;;Hero;;brave",
		"ADD PLOT;;Turn;;twist",
		"LINK 1 2",
		"LINK 2 3",
		"DELETE 3",
	)
	before := []string{
		p.Execute("GET 1").String(),
		p.Execute("CONTEXT 2").String(),
		p.Execute("OUTLINE").String(),
	}

	run(t, p, "NEWB scratch", "LOADB saga")
	after := []string{
		p.Execute("GET 1").String(),
		p.Execute("CONTEXT 2").String(),
		p.Execute("OUTLINE").String(),
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("reload changed output:\nbefore %q\nafter  %q", before[i], after[i])
		}
	}
}

func TestIsBlockCommand(t *testing.T) {
	for _, v := range []string{"LIST", "SEARCH", "CONTEXT", "OUTLINE", "USAGE"} {
		if !IsBlockCommand(v) {
			t.Errorf("%s should be a block command", v)
		}
	}
	for _, v := range []string{"ADD", "GET", "LINK", "DELETE", "WHICHB"} {
		if IsBlockCommand(v) {
			t.Errorf("%s should not be a block command", v)
		}
	}
}
