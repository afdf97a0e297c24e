// Package eventlog persists and reads the line-oriented event log format:
// a comment-prefixed JSON header on the first line, then one JSON event per
// line, ordered by timestamp.
package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/offlinefirst/inputfixture/pkg/event"
)

// HeaderMarker prefixes the header line so event parsers can skip it.
const HeaderMarker = "# "

// ErrMissingHeader indicates a log whose first line is not a header comment.
var ErrMissingHeader = errors.New("first line must be a JSON header comment")

// Write stable-sorts the events by timestamp and writes the complete log to
// path in one pass. Stability preserves the composer's emission order among
// equal timestamps, so a down/up pair scheduled at the same instant keeps a
// deterministic relative order.
func Write(path string, hdr event.Header, events []event.Event) error {
	sort.SliceStable(events, func(i, j int) bool { return events[i].T < events[j].T })

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create event log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	headerJSON, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", HeaderMarker, headerJSON); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", i, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write event %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	return nil
}

// ParseHeader decodes the header payload of a header comment line.
func ParseHeader(line string) (event.Header, error) {
	var hdr event.Header
	if !strings.HasPrefix(line, HeaderMarker) {
		return hdr, ErrMissingHeader
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, HeaderMarker))
	if err := json.Unmarshal([]byte(payload), &hdr); err != nil {
		return hdr, fmt.Errorf("decode header: %w", err)
	}
	return hdr, nil
}

// Read loads a complete log from disk: header first, then every event in
// file order. Blank lines are ignored; malformed event lines are an error.
func Read(path string) (event.Header, []event.Event, error) {
	var hdr event.Header

	data, err := os.ReadFile(path)
	if err != nil {
		return hdr, nil, fmt.Errorf("read event log: %w", err)
	}

	lines := Lines(data)
	if len(lines) == 0 {
		return hdr, nil, errors.New("event log is empty")
	}

	hdr, err = ParseHeader(lines[0])
	if err != nil {
		return hdr, nil, err
	}

	events := make([]event.Event, 0, len(lines)-1)
	for i, line := range lines[1:] {
		var ev event.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return hdr, nil, fmt.Errorf("decode event on line %d: %w", i+2, err)
		}
		events = append(events, ev)
	}
	return hdr, events, nil
}

// Lines splits raw log bytes into trimmed non-blank lines.
func Lines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
