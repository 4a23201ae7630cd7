// Package sse implements the incremental server-sent-events field parser of
// spec.md §4.5, grounded on
// original_source/core/utils/api/base_request.py's parse_stream.
package sse

import (
	"strconv"
	"strings"
)

// Event is one emitted SSE frame.
type Event struct {
	Event    string
	Data     string
	ID       string
	Retry    int
	HasRetry bool
}

// Parser accumulates field-level state across chunk boundaries for one
// stream. Not safe for concurrent use; owned by one execute-loop iteration.
type Parser struct {
	data    []string
	event   string
	id      string
	retry   int
	hasRetry bool
	partial string
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{}
}

// Feed takes chunk's bytes as text unchanged (invalid UTF-8 sequences are
// not replaced), prepends any carried-over partial line, and returns every
// event completed
// by a blank-line terminator within chunk. An incomplete trailing line is
// held over for the next Feed call.
func (p *Parser) Feed(chunk []byte) []Event {
	text := string(chunk) // Go strings are already permissive byte sequences; invalid UTF-8 is preserved as-is

	if p.partial != "" {
		text = p.partial + text
		p.partial = ""
	}

	endsOnBoundary := strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\r")
	lines := splitLines(text)

	if !endsOnBoundary && len(lines) > 0 {
		p.partial = lines[len(lines)-1]
		lines = lines[:len(lines)-1]
	}

	var events []Event
	for _, line := range lines {
		if ev, ok := p.consumeLine(line); ok {
			events = append(events, ev)
		}
	}

	return events
}

func (p *Parser) consumeLine(line string) (Event, bool) {
	if strings.TrimSpace(line) == "" {
		if len(p.data) == 0 {
			return Event{}, false
		}

		ev := Event{
			Event:    nonEmpty(p.event, "message"),
			Data:     strings.Join(p.data, "\n"),
			ID:       p.id,
			Retry:    p.retry,
			HasRetry: p.hasRetry,
		}

		p.data = nil
		p.event = ""
		p.id = ""
		p.retry = 0
		p.hasRetry = false

		return ev, true
	}

	if strings.HasPrefix(line, ":") {
		return Event{}, false
	}

	key, val := splitField(line)
	switch key {
	case "data":
		p.data = append(p.data, val)
	case "event":
		p.event = val
	case "id":
		p.id = val
	case "retry":
		if n, err := strconv.Atoi(val); err == nil {
			p.retry = n
			p.hasRetry = true
		}
	}

	return Event{}, false
}

// Reset clears the carry-over buffer, for stop_stream semantics.
func (p *Parser) Reset() {
	p.data = nil
	p.event = ""
	p.id = ""
	p.retry = 0
	p.hasRetry = false
	p.partial = ""
}

func splitField(line string) (key, val string) {
	idx := strings.IndexByte(line, ':')
	if idx == -1 {
		return strings.TrimSpace(line), ""
	}
	key = strings.TrimSpace(line[:idx])
	val = strings.TrimLeft(line[idx+1:], " ")
	return key, val
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	parts := strings.Split(normalized, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
