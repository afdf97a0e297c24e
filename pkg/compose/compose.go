// Package compose interleaves synthesized pointer samples with click and
// key events, either on a periodic cadence or from a scripted scenario. The
// composer never reorders or drops pointer samples; it only appends
// secondary events whose timestamps fall inside the session's time range.
// Output is unsorted; ordering is the serializer's responsibility.
package compose

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/offlinefirst/inputfixture/pkg/event"
	"github.com/offlinefirst/inputfixture/pkg/trajectory"
)

// Cadence configures periodic click and key injection. A zero period
// disables the corresponding event type.
type Cadence struct {
	ClickEvery  time.Duration
	ClickHold   time.Duration
	ClickButton string
	KeyEvery    time.Duration
	KeyHold     time.Duration
	KeyCodes    []string
}

// DefaultCadence mirrors the stock fixture: a left click every five seconds
// released 80ms later, and a KeyA press every three seconds released 40ms
// later.
func DefaultCadence() Cadence {
	return Cadence{
		ClickEvery:  5 * time.Second,
		ClickHold:   80 * time.Millisecond,
		ClickButton: event.ButtonLeft,
		KeyEvery:    3 * time.Second,
		KeyHold:     40 * time.Millisecond,
		KeyCodes:    []string{"KeyA"},
	}
}

// Composer walks a pointer sample cursor and emits the full unsorted event
// collection for a session.
type Composer struct {
	cadence Cadence
	script  Script
}

// Options configures a composer. Cadence defaults to DefaultCadence when
// nil; Script entries are layered on top of whatever the cadence injects.
type Options struct {
	Cadence *Cadence
	Script  Script
}

// New validates options and constructs a composer.
func New(opts Options) (*Composer, error) {
	cadence := DefaultCadence()
	if opts.Cadence != nil {
		cadence = *opts.Cadence
	}
	if cadence.ClickEvery < 0 || cadence.KeyEvery < 0 {
		return nil, errors.New("cadence periods must not be negative")
	}
	if cadence.ClickEvery > 0 && cadence.ClickHold <= 0 {
		return nil, errors.New("click hold must be positive when clicks are enabled")
	}
	if cadence.KeyEvery > 0 {
		if cadence.KeyHold <= 0 {
			return nil, errors.New("key hold must be positive when keys are enabled")
		}
		if len(cadence.KeyCodes) == 0 {
			return nil, errors.New("key codes must not be empty when keys are enabled")
		}
	}
	if err := opts.Script.validate(); err != nil {
		return nil, err
	}
	return &Composer{cadence: cadence, script: opts.Script}, nil
}

// Compose traverses the cursor once and returns every event of the session:
// all pointer samples in generation order, plus injected click/key pairs.
func (c *Composer) Compose(cursor *trajectory.Cursor) ([]event.Event, error) {
	if cursor == nil || cursor.Len() == 0 {
		return nil, errors.New("pointer sample sequence must not be empty")
	}

	cursor.Reset()
	rate := cursor.Rate()

	clickSamples := periodSamples(c.cadence.ClickEvery, rate)
	keySamples := periodSamples(c.cadence.KeyEvery, rate)

	events := make([]event.Event, 0, cursor.Len()+cursor.Len()/rate)
	var lastT int64

	for {
		sample, ok := cursor.Next()
		if !ok {
			break
		}
		events = append(events, event.Pointer(sample.T, sample.X, sample.Y))
		lastT = sample.T

		if clickSamples > 0 && sample.Index%clickSamples == 0 {
			events = append(events,
				event.Click(sample.T, c.cadence.ClickButton, event.StateDown, sample.X, sample.Y),
				event.Click(sample.T+c.cadence.ClickHold.Nanoseconds(), c.cadence.ClickButton, event.StateUp, sample.X, sample.Y),
			)
		}
		if keySamples > 0 && sample.Index%keySamples == 0 {
			code := c.cadence.KeyCodes[(sample.Index/keySamples)%len(c.cadence.KeyCodes)]
			events = append(events,
				event.Key(sample.T, code, event.StateDown),
				event.Key(sample.T+c.cadence.KeyHold.Nanoseconds(), code, event.StateUp),
			)
		}
	}

	scripted, err := c.script.events(lastT)
	if err != nil {
		return nil, err
	}
	events = append(events, scripted...)

	return events, nil
}

func periodSamples(period time.Duration, rate int) int {
	if period <= 0 {
		return 0
	}
	return int(period.Seconds() * float64(rate))
}

// Script is an ordered list of discrete actions layered onto the trajectory
// at explicit offsets from the session start.
type Script []Action

// Action kinds.
const (
	ActionClick = "click"
	ActionType  = "type"
)

// Action is one scripted interaction. Click actions press Button at (X, Y)
// and release after Hold. Type actions emit one key pair per rune of Text
// with Spacing between presses.
type Action struct {
	Kind    string
	At      time.Duration
	Button  string
	X       float64
	Y       float64
	Text    string
	Spacing time.Duration
	Hold    time.Duration
}

func (s Script) validate() error {
	for i, action := range s {
		if action.At < 0 {
			return fmt.Errorf("script action %d: offset must not be negative", i)
		}
		switch action.Kind {
		case ActionClick:
			if action.X < 0 || action.X > 1 || action.Y < 0 || action.Y > 1 {
				return fmt.Errorf("script action %d: click position out of bounds", i)
			}
		case ActionType:
			if action.Text == "" {
				return fmt.Errorf("script action %d: type action needs text", i)
			}
		default:
			return fmt.Errorf("script action %d: unknown kind %q", i, action.Kind)
		}
	}
	return nil
}

// events expands the script into concrete events. Actions whose timestamps
// fall outside the session range [0, lastT] are rejected rather than
// silently clipped, so a scenario author learns the script and plan
// disagree.
func (s Script) events(lastT int64) ([]event.Event, error) {
	var out []event.Event
	for i, action := range s {
		start := action.At.Nanoseconds()
		if start > lastT {
			return nil, fmt.Errorf("script action %d at %s starts after the session ends", i, action.At)
		}

		switch action.Kind {
		case ActionClick:
			button := action.Button
			if button == "" {
				button = event.ButtonLeft
			}
			hold := action.Hold
			if hold <= 0 {
				hold = 80 * time.Millisecond
			}
			out = append(out,
				event.Click(start, button, event.StateDown, action.X, action.Y),
				event.Click(start+hold.Nanoseconds(), button, event.StateUp, action.X, action.Y),
			)
		case ActionType:
			spacing := action.Spacing
			if spacing <= 0 {
				spacing = 120 * time.Millisecond
			}
			hold := action.Hold
			if hold <= 0 {
				hold = 40 * time.Millisecond
			}
			for j, r := range []rune(action.Text) {
				t := start + int64(j)*spacing.Nanoseconds()
				if t > lastT {
					return nil, fmt.Errorf("script action %d: typed text runs past the session end", i)
				}
				code := KeyCode(r)
				out = append(out,
					event.Key(t, code, event.StateDown),
					event.Key(t+hold.Nanoseconds(), code, event.StateUp),
				)
			}
		}
	}
	return out, nil
}

// KeyCode maps a rune to a key code in the schema's convention ("KeyA",
// "Digit4", "Space"). Unmapped runes fall back to "Space" so scripted text
// always types something.
func KeyCode(r rune) string {
	switch {
	case unicode.IsLetter(r):
		return "Key" + string(unicode.ToUpper(r))
	case unicode.IsDigit(r):
		return "Digit" + string(r)
	case r == ' ':
		return "Space"
	case r == '.':
		return "Period"
	case r == ',':
		return "Comma"
	default:
		return "Space"
	}
}
