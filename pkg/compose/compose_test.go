package compose

import (
	"testing"
	"time"

	"github.com/offlinefirst/inputfixture/pkg/event"
	"github.com/offlinefirst/inputfixture/pkg/trajectory"
)

func newCursor(t *testing.T, seconds, rate int) *trajectory.Cursor {
	t.Helper()
	syn, err := trajectory.New(trajectory.StandardPlan(), rate)
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	return syn.Samples(seconds*rate + 1)
}

func TestNewValidation(t *testing.T) {
	bad := Cadence{ClickEvery: time.Second, ClickHold: 0}
	if _, err := New(Options{Cadence: &bad}); err == nil {
		t.Fatalf("expected error for zero click hold")
	}
	badKeys := Cadence{KeyEvery: time.Second, KeyHold: time.Millisecond}
	if _, err := New(Options{Cadence: &badKeys}); err == nil {
		t.Fatalf("expected error for missing key codes")
	}
	if _, err := New(Options{Script: Script{{Kind: "hover"}}}); err == nil {
		t.Fatalf("expected error for unknown script action")
	}
}

func TestComposePreservesPointerSamples(t *testing.T) {
	composer, err := New(Options{})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}

	cursor := newCursor(t, 10, 60)
	events, err := composer.Compose(cursor)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	var pointers []event.Event
	for _, ev := range events {
		if ev.Type == event.TypePointer {
			pointers = append(pointers, ev)
		}
	}
	if len(pointers) != 601 {
		t.Fatalf("expected 601 pointer samples, got %d", len(pointers))
	}
	for i := 1; i < len(pointers); i++ {
		if pointers[i].T < pointers[i-1].T {
			t.Fatalf("pointer samples reordered at %d", i)
		}
	}
}

func TestComposePeriodicCadence(t *testing.T) {
	composer, err := New(Options{})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}

	// 10 seconds at 60Hz: clicks at 0s and 5s, keys at 0s, 3s, 6s, 9s.
	events, err := composer.Compose(newCursor(t, 10, 60))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	clicks := map[string]int{}
	keys := map[string]int{}
	for _, ev := range events {
		switch ev.Type {
		case event.TypeClick:
			clicks[ev.State]++
		case event.TypeKey:
			keys[ev.State]++
		}
	}

	if clicks[event.StateDown] != 3 || clicks[event.StateUp] != 3 {
		t.Fatalf("expected 3 click pairs, got %v", clicks)
	}
	if keys[event.StateDown] != 4 || keys[event.StateUp] != 4 {
		t.Fatalf("expected 4 key pairs, got %v", keys)
	}
}

func TestComposePairsAreMatched(t *testing.T) {
	composer, err := New(Options{})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	events, err := composer.Compose(newCursor(t, 30, 60))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	// Every down must be followed by a later up for the same button/code.
	open := map[string]int{}
	for _, ev := range events {
		var ident string
		switch ev.Type {
		case event.TypeClick:
			ident = "click:" + ev.Button
		case event.TypeKey:
			ident = "key:" + ev.Code
		default:
			continue
		}
		switch ev.State {
		case event.StateDown:
			open[ident]++
		case event.StateUp:
			open[ident]--
			if open[ident] < 0 {
				t.Fatalf("up without matching down for %s", ident)
			}
		}
	}
	for ident, n := range open {
		if n != 0 {
			t.Fatalf("unmatched downs for %s: %d", ident, n)
		}
	}
}

func TestComposeClickUpPositionMatchesDown(t *testing.T) {
	composer, err := New(Options{})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	events, err := composer.Compose(newCursor(t, 10, 60))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	var lastDown *event.Event
	for i := range events {
		ev := events[i]
		if ev.Type != event.TypeClick {
			continue
		}
		if ev.State == event.StateDown {
			lastDown = &events[i]
			continue
		}
		if lastDown == nil {
			t.Fatalf("click up before any down")
		}
		if ev.X != lastDown.X || ev.Y != lastDown.Y {
			t.Fatalf("click release moved: down (%v,%v) up (%v,%v)", lastDown.X, lastDown.Y, ev.X, ev.Y)
		}
		if ev.T != lastDown.T+80*time.Millisecond.Nanoseconds() {
			t.Fatalf("click release offset wrong: down %d up %d", lastDown.T, ev.T)
		}
	}
}

func TestComposeRotatesKeyCodes(t *testing.T) {
	cadence := DefaultCadence()
	cadence.ClickEvery = 0
	cadence.KeyCodes = []string{"KeyA", "KeyB"}
	composer, err := New(Options{Cadence: &cadence})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}

	events, err := composer.Compose(newCursor(t, 9, 60))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	var codes []string
	for _, ev := range events {
		if ev.Type == event.TypeKey && ev.State == event.StateDown {
			codes = append(codes, ev.Code)
		}
	}
	want := []string{"KeyA", "KeyB", "KeyA", "KeyB"}
	if len(codes) != len(want) {
		t.Fatalf("expected %d key presses, got %d", len(want), len(codes))
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("key rotation wrong at %d: got %s want %s", i, codes[i], want[i])
		}
	}
}

func TestComposeScriptedScenario(t *testing.T) {
	cadence := Cadence{} // periodic injection disabled
	composer, err := New(Options{
		Cadence: &cadence,
		Script: Script{
			{Kind: ActionClick, At: 2 * time.Second, X: 0.4, Y: 0.6},
			{Kind: ActionType, At: 4 * time.Second, Text: "go 1.23", Spacing: 100 * time.Millisecond},
		},
	})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}

	events, err := composer.Compose(newCursor(t, 10, 60))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	var clicks, keys []event.Event
	for _, ev := range events {
		switch ev.Type {
		case event.TypeClick:
			clicks = append(clicks, ev)
		case event.TypeKey:
			keys = append(keys, ev)
		}
	}

	if len(clicks) != 2 {
		t.Fatalf("expected one scripted click pair, got %d events", len(clicks))
	}
	if clicks[0].T != 2*time.Second.Nanoseconds() || clicks[0].Button != event.ButtonLeft {
		t.Fatalf("unexpected scripted click: %+v", clicks[0])
	}

	// "go 1.23" is 7 runes, one down/up pair each.
	if len(keys) != 14 {
		t.Fatalf("expected 14 key events, got %d", len(keys))
	}
	if keys[0].Code != "KeyG" {
		t.Fatalf("expected first typed code KeyG, got %s", keys[0].Code)
	}
	if keys[4].Code != "Space" {
		t.Fatalf("expected third rune to map to Space, got %s", keys[4].Code)
	}
	if keys[2].T-keys[0].T != 100*time.Millisecond.Nanoseconds() {
		t.Fatalf("unexpected inter-key spacing: %d", keys[2].T-keys[0].T)
	}
}

func TestComposeRejectsScriptPastSessionEnd(t *testing.T) {
	composer, err := New(Options{
		Script: Script{{Kind: ActionClick, At: time.Hour, X: 0.5, Y: 0.5}},
	})
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	if _, err := composer.Compose(newCursor(t, 5, 60)); err == nil {
		t.Fatalf("expected error for script action past the session end")
	}
}

func TestKeyCodeMapping(t *testing.T) {
	cases := map[rune]string{
		'a': "KeyA",
		'Z': "KeyZ",
		'4': "Digit4",
		' ': "Space",
		'.': "Period",
		'•': "Space",
	}
	for r, want := range cases {
		if got := KeyCode(r); got != want {
			t.Fatalf("KeyCode(%q) = %s, want %s", r, got, want)
		}
	}
}
