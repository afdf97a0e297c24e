// Package validate checks a persisted event log against the structural and
// timing invariants downstream consumers rely on. Checks run as an explicit
// ordered list and the first failure is terminal; structural checks
// (existence, header, well-formedness) precede the timing checks that assume
// well-formed input.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/offlinefirst/inputfixture/pkg/event"
	"github.com/offlinefirst/inputfixture/pkg/eventlog"
)

// Failure reason codes, stable identifiers for the first violated invariant.
const (
	ReasonMissingOrEmpty    = "missing-or-empty"
	ReasonMissingHeader     = "missing-header"
	ReasonUndecodableHeader = "undecodable-header"
	ReasonMalformedEvent    = "malformed-event"
	ReasonNonMonotonic      = "non-monotonic"
	ReasonTooShort          = "too-short"
	ReasonCadenceDrift      = "cadence-drift"
)

// Config carries the validation thresholds. The defaults are part of the
// fixture contract and must not change for existing logs.
type Config struct {
	// MinDuration is the required span between the first and last event.
	MinDuration time.Duration
	// MaxDrift is the exclusive upper bound on pointer cadence drift.
	MaxDrift time.Duration
	// DefaultRateHz substitutes for a header without a sample rate.
	DefaultRateHz int
}

// DefaultConfig returns the contract thresholds: 600 seconds minimum
// duration, 100ms drift ceiling, 60Hz fallback rate.
func DefaultConfig() Config {
	return Config{
		MinDuration:   600 * time.Second,
		MaxDrift:      100 * time.Millisecond,
		DefaultRateHz: 60,
	}
}

// Failure identifies the first violated invariant.
type Failure struct {
	Reason string
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Reason
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

// Stats are the measured properties reported on success.
type Stats struct {
	Duration     time.Duration
	EventCount   int
	PointerCount int
	MaxDrift     time.Duration
}

// Report is the verdict for one validation run.
type Report struct {
	Pass    bool
	Failure *Failure
	Stats   Stats
	Header  event.Header
}

// logState accumulates what each check has established so later checks can
// build on it without re-reading the file.
type logState struct {
	path   string
	lines  []string
	header event.Header
	rate   int
	events []event.Event
	stats  Stats
}

type check struct {
	name string
	run  func(*logState, Config) *Failure
}

// checks is the ordered invariant list. Order matters: every entry may rely
// on the state populated by the entries before it.
func checks() []check {
	return []check{
		{name: "existence", run: checkExistence},
		{name: "header-presence", run: checkHeaderPresence},
		{name: "header-decodable", run: checkHeaderDecodable},
		{name: "event-well-formedness", run: checkWellFormed},
		{name: "monotonicity", run: checkMonotonic},
		{name: "minimum-duration", run: checkMinDuration},
		{name: "pointer-cadence-drift", run: checkCadenceDrift},
	}
}

// File validates the log at path and returns the verdict.
func File(path string, cfg Config) Report {
	if cfg.DefaultRateHz <= 0 {
		cfg.DefaultRateHz = DefaultConfig().DefaultRateHz
	}

	state := &logState{path: path}
	for _, c := range checks() {
		if failure := c.run(state, cfg); failure != nil {
			return Report{Pass: false, Failure: failure, Stats: state.stats, Header: state.header}
		}
	}
	return Report{Pass: true, Stats: state.stats, Header: state.header}
}

func checkExistence(state *logState, _ Config) *Failure {
	data, err := os.ReadFile(state.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Failure{Reason: ReasonMissingOrEmpty, Detail: fmt.Sprintf("log file %s does not exist", state.path)}
		}
		return &Failure{Reason: ReasonMissingOrEmpty, Detail: err.Error()}
	}

	state.lines = eventlog.Lines(data)
	if len(state.lines) == 0 {
		return &Failure{Reason: ReasonMissingOrEmpty, Detail: fmt.Sprintf("log file %s has no content", state.path)}
	}
	return nil
}

func checkHeaderPresence(state *logState, _ Config) *Failure {
	if _, err := eventlog.ParseHeader(state.lines[0]); errors.Is(err, eventlog.ErrMissingHeader) {
		return &Failure{Reason: ReasonMissingHeader, Detail: "first line must be a JSON header comment"}
	}
	return nil
}

func checkHeaderDecodable(state *logState, cfg Config) *Failure {
	hdr, err := eventlog.ParseHeader(state.lines[0])
	if err != nil {
		return &Failure{Reason: ReasonUndecodableHeader, Detail: err.Error()}
	}
	state.header = hdr

	// Absence of the sample rate is a backward-compatible default, not an
	// error.
	state.rate = hdr.PointerSampleRateHz
	if state.rate <= 0 {
		state.rate = cfg.DefaultRateHz
	}
	return nil
}

func checkWellFormed(state *logState, _ Config) *Failure {
	state.events = make([]event.Event, 0, len(state.lines)-1)
	for i, line := range state.lines[1:] {
		var ev event.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return &Failure{Reason: ReasonMalformedEvent, Detail: fmt.Sprintf("line %d: %v", i+2, err)}
		}
		state.events = append(state.events, ev)
	}
	state.stats.EventCount = len(state.events)
	return nil
}

func checkMonotonic(state *logState, _ Config) *Failure {
	for i := 1; i < len(state.events); i++ {
		if state.events[i].T < state.events[i-1].T {
			return &Failure{
				Reason: ReasonNonMonotonic,
				Detail: fmt.Sprintf("event %d at t=%d precedes event %d at t=%d", i+1, state.events[i].T, i, state.events[i-1].T),
			}
		}
	}
	return nil
}

func checkMinDuration(state *logState, cfg Config) *Failure {
	if len(state.events) < 2 {
		return &Failure{Reason: ReasonTooShort, Detail: "log has fewer than two events"}
	}
	first := state.events[0].T
	last := state.events[len(state.events)-1].T
	state.stats.Duration = time.Duration(last - first)

	if state.stats.Duration < cfg.MinDuration {
		return &Failure{
			Reason: ReasonTooShort,
			Detail: fmt.Sprintf("duration %.2fs below minimum %.0fs", state.stats.Duration.Seconds(), cfg.MinDuration.Seconds()),
		}
	}
	return nil
}

func checkCadenceDrift(state *logState, cfg Config) *Failure {
	expectedStep := int64(1e9) / int64(state.rate)

	var maxDrift int64
	var prev int64
	seen := false
	for _, ev := range state.events {
		if ev.Type != event.TypePointer {
			continue
		}
		if seen {
			drift := (ev.T - prev) - expectedStep
			if drift < 0 {
				drift = -drift
			}
			if drift > maxDrift {
				maxDrift = drift
			}
		}
		prev = ev.T
		seen = true
		state.stats.PointerCount++
	}
	state.stats.MaxDrift = time.Duration(maxDrift)

	if state.stats.MaxDrift >= cfg.MaxDrift {
		return &Failure{
			Reason: ReasonCadenceDrift,
			Detail: fmt.Sprintf("max pointer cadence drift %.2fms exceeds %.0fms", state.stats.MaxDrift.Seconds()*1000, cfg.MaxDrift.Seconds()*1000),
		}
	}
	return nil
}
