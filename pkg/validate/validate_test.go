package validate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/offlinefirst/inputfixture/pkg/compose"
	"github.com/offlinefirst/inputfixture/pkg/event"
	"github.com/offlinefirst/inputfixture/pkg/eventlog"
	"github.com/offlinefirst/inputfixture/pkg/trajectory"
)

func testHeader(rate int) event.Header {
	return event.Header{
		SchemaVersion:       event.SchemaVersion,
		EpochMonotonicNs:    0,
		EpochWall:           "2026-01-01T00:00:00Z",
		CaptureWidth:        1920,
		CaptureHeight:       1080,
		ScaleFactor:         1.0,
		PointerSampleRateHz: rate,
	}
}

// evenPointerLog builds a log of nominally spaced pointer events, with
// timestamps computed the way the generator computes them.
func evenPointerLog(t *testing.T, dir string, rate, seconds int) string {
	t.Helper()
	step := 1e9 / float64(rate)
	total := seconds*rate + 1
	events := make([]event.Event, 0, total)
	for i := 0; i < total; i++ {
		events = append(events, event.Pointer(int64(float64(i)*step), 0.5, 0.5))
	}
	path := filepath.Join(dir, "events.jsonl")
	if err := eventlog.Write(path, testHeader(rate), events); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestValidatorPassesSerializedFixture(t *testing.T) {
	// The full pipeline output must satisfy its own validator.
	syn, err := trajectory.New(trajectory.StandardPlan(), 60)
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	composer, err := compose.New(compose.Options{})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	events, err := composer.Compose(syn.Samples(600*60 + 1))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := eventlog.Write(path, testHeader(60), events); err != nil {
		t.Fatalf("write log: %v", err)
	}

	report := File(path, DefaultConfig())
	if !report.Pass {
		t.Fatalf("expected PASS, got %v", report.Failure)
	}
	if report.Stats.Duration < 600*time.Second {
		t.Fatalf("expected >= 600s duration, got %s", report.Stats.Duration)
	}
	if report.Stats.MaxDrift > time.Microsecond {
		t.Fatalf("expected near-zero drift, got %s", report.Stats.MaxDrift)
	}
	if report.Stats.PointerCount != 600*60+1 {
		t.Fatalf("unexpected pointer count %d", report.Stats.PointerCount)
	}
}

func TestHappyPathDiagnostics(t *testing.T) {
	// Scenario C: 600s at 60Hz, evenly spaced, reports PASS with ~0 drift.
	path := evenPointerLog(t, t.TempDir(), 60, 600)
	report := File(path, DefaultConfig())
	if !report.Pass {
		t.Fatalf("expected PASS, got %v", report.Failure)
	}
	if report.Stats.MaxDrift > time.Nanosecond {
		t.Fatalf("expected near-zero drift, got %s", report.Stats.MaxDrift)
	}
	if report.Stats.EventCount != 600*60+1 {
		t.Fatalf("unexpected event count %d", report.Stats.EventCount)
	}
	if report.Header.PointerSampleRateHz != 60 {
		t.Fatalf("header not surfaced in report")
	}
}

func TestMissingAndEmptyLogs(t *testing.T) {
	dir := t.TempDir()

	report := File(filepath.Join(dir, "absent.jsonl"), DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonMissingOrEmpty {
		t.Fatalf("expected missing-or-empty, got %+v", report.Failure)
	}

	empty := filepath.Join(dir, "empty.jsonl")
	if err := os.WriteFile(empty, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	report = File(empty, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonMissingOrEmpty {
		t.Fatalf("expected missing-or-empty, got %+v", report.Failure)
	}
}

func TestMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte(`{"t":0,"type":"pointer","x":0,"y":0}`+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	report := File(path, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonMissingHeader {
		t.Fatalf("expected missing-header, got %+v", report.Failure)
	}
}

func TestUndecodableHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte("# not-a-json-object\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	report := File(path, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonUndecodableHeader {
		t.Fatalf("expected undecodable-header, got %+v", report.Failure)
	}
}

func TestHeaderRateDefaultsTo60(t *testing.T) {
	dir := t.TempDir()
	step := int64(1e9) / 60
	events := make([]event.Event, 0, 601)
	for i := 0; i < 601; i++ {
		events = append(events, event.Pointer(int64(i)*step, 0.5, 0.5))
	}
	path := filepath.Join(dir, "events.jsonl")
	hdr := testHeader(0) // rate absent from header
	if err := eventlog.Write(path, hdr, events); err != nil {
		t.Fatalf("write log: %v", err)
	}

	cfg := DefaultConfig()
	cfg.MinDuration = 5 * time.Second
	report := File(path, cfg)
	if !report.Pass {
		t.Fatalf("expected PASS with defaulted rate, got %v", report.Failure)
	}
	if report.Stats.MaxDrift != 0 {
		t.Fatalf("expected zero drift against defaulted 60Hz, got %s", report.Stats.MaxDrift)
	}
}

func TestMalformedEventLine(t *testing.T) {
	path := evenPointerLog(t, t.TempDir(), 60, 600)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if err := os.WriteFile(path, append(data, []byte("{broken\n")...), 0o644); err != nil {
		t.Fatalf("append fixture: %v", err)
	}

	report := File(path, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonMalformedEvent {
		t.Fatalf("expected malformed-event, got %+v", report.Failure)
	}
}

func TestNonMonotonicTimestamps(t *testing.T) {
	// Scenario D: swapping two adjacent timestamps breaks monotonicity.
	dir := t.TempDir()
	step := int64(1e9) / 60
	events := make([]event.Event, 0, 36001)
	for i := 0; i < 36001; i++ {
		events = append(events, event.Pointer(int64(i)*step, 0.5, 0.5))
	}
	events[100].T, events[101].T = events[101].T, events[100].T

	path := filepath.Join(dir, "events.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	// Bypass the serializer: it would repair the order we are testing.
	writeRawLog(t, file, testHeader(60), events)

	report := File(path, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonNonMonotonic {
		t.Fatalf("expected non-monotonic, got %+v", report.Failure)
	}
}

func TestDurationTooShort(t *testing.T) {
	// Scenario B: 5 seconds at 60Hz against the 600 second minimum.
	path := evenPointerLog(t, t.TempDir(), 60, 5)
	report := File(path, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonTooShort {
		t.Fatalf("expected too-short, got %+v", report.Failure)
	}
}

func TestCadenceDriftDetected(t *testing.T) {
	// Scenario A: evenly spaced samples except a single 150ms gap.
	dir := t.TempDir()
	step := int64(1e9) / 60
	gap := int64(150 * time.Millisecond)
	events := make([]event.Event, 0, 36001)
	var tns int64
	for i := 0; i < 36001; i++ {
		events = append(events, event.Pointer(tns, 0.5, 0.5))
		if i == 18000 {
			tns += gap
		} else {
			tns += step
		}
	}
	path := filepath.Join(dir, "events.jsonl")
	if err := eventlog.Write(path, testHeader(60), events); err != nil {
		t.Fatalf("write log: %v", err)
	}

	report := File(path, DefaultConfig())
	if report.Pass || report.Failure.Reason != ReasonCadenceDrift {
		t.Fatalf("expected cadence-drift, got %+v", report.Failure)
	}
	// |150ms - 16.67ms| ~ 133ms measured drift.
	if report.Stats.MaxDrift < 130*time.Millisecond || report.Stats.MaxDrift > 140*time.Millisecond {
		t.Fatalf("unexpected max drift %s", report.Stats.MaxDrift)
	}
}

func TestDriftStrictlyBelowThreshold(t *testing.T) {
	// Drift exactly at the threshold fails; just below passes.
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.MinDuration = time.Second

	build := func(name string, drift time.Duration) string {
		step := int64(1e9) / 60
		events := make([]event.Event, 0, 200)
		var tns int64
		for i := 0; i < 200; i++ {
			events = append(events, event.Pointer(tns, 0.5, 0.5))
			if i == 100 {
				tns += step + int64(drift)
			} else {
				tns += step
			}
		}
		path := filepath.Join(dir, name)
		if err := eventlog.Write(path, testHeader(60), events); err != nil {
			t.Fatalf("write log: %v", err)
		}
		return path
	}

	atLimit := File(build("at.jsonl", cfg.MaxDrift), cfg)
	if atLimit.Pass || atLimit.Failure.Reason != ReasonCadenceDrift {
		t.Fatalf("drift equal to threshold should fail, got %+v", atLimit.Failure)
	}

	below := File(build("below.jsonl", cfg.MaxDrift-time.Millisecond), cfg)
	if !below.Pass {
		t.Fatalf("drift below threshold should pass, got %v", below.Failure)
	}
}

func writeRawLog(t *testing.T, file *os.File, hdr event.Header, events []event.Event) {
	t.Helper()
	defer file.Close()

	headerLine, err := json.Marshal(hdr)
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if _, err := file.WriteString(eventlog.HeaderMarker + string(headerLine) + "\n"); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("encode event: %v", err)
		}
		if _, err := file.WriteString(string(line) + "\n"); err != nil {
			t.Fatalf("write event: %v", err)
		}
	}
}
