package protocol

import (
	"strings"

	"github.com/starford/bbp/internal/parser"
)

func (p *Processor) handleUsage(req parser.Request) Response {
	if req.Rest == "" {
		return blockResponse(HeaderOK, p.Usage())
	}
	fields := req.Fields()
	if len(fields) != 1 {
		return errorResponse(MalformedRequest)
	}
	cmd, ok := p.byName[strings.ToUpper(fields[0])]
	if !ok {
		return errorResponse(NotFound)
	}
	return blockResponse(HeaderOK, []string{cmd.help})
}

// Usage returns every command's help line in dispatch order.
func (p *Processor) Usage() []string {
	out := make([]string, len(p.commands))
	for i, c := range p.commands {
		out[i] = c.help
	}
	return out
}

// Verbs returns the command names in dispatch order.
func (p *Processor) Verbs() []string {
	out := make([]string, len(p.commands))
	for i, c := range p.commands {
		out[i] = c.name
	}
	return out
}
