// Package scenario names reproducible fixture recipes: a phase plan, a
// cadence or script, and a duration, bundled so test authors can request
// semantically meaningful sessions ("hover-zoom") instead of hand-tuning
// synthesis parameters.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/offlinefirst/inputfixture/pkg/compose"
	"github.com/offlinefirst/inputfixture/pkg/event"
	"github.com/offlinefirst/inputfixture/pkg/trajectory"
)

// Scenario is one named fixture recipe. DurationSeconds of zero defers to
// the generate configuration.
type Scenario struct {
	Name            string
	Description     string
	DurationSeconds int
	Plan            trajectory.Plan
	Cadence         compose.Cadence
	Script          compose.Script
}

// Builtins returns the stock scenarios, sorted by name.
func Builtins() []Scenario {
	scenarios := []Scenario{
		standard(),
		hoverZoom(),
		panTyping(),
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios
}

// Lookup finds a built-in scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range Builtins() {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// standard is the stock ten-minute fixture: the looping hover/transit/wander
// trajectory with periodic click and key injection.
func standard() Scenario {
	return Scenario{
		Name:            "standard",
		Description:     "Looping hover/transit trajectory with periodic clicks and keys",
		DurationSeconds: 600,
		Plan:            trajectory.StandardPlan(),
		Cadence:         compose.DefaultCadence(),
	}
}

// hoverZoom rests the pointer long enough to trigger dwell-based zoom
// analysis downstream, then clicks the hover target and pans away.
func hoverZoom() Scenario {
	return Scenario{
		Name:            "hover-zoom",
		Description:     "Long dwell on a target region with a single scripted click",
		DurationSeconds: 600,
		Plan: trajectory.Plan{
			Loop: true,
			Phases: []trajectory.Phase{
				{Kind: trajectory.Hover, Seconds: 30, From: trajectory.Point{X: 0.3, Y: 0.3}, JitterAmp: 0.005, FreqX: 0.05, FreqY: 0.07},
				{Kind: trajectory.Transit, Seconds: 15, From: trajectory.Point{X: 0.3, Y: 0.3}, To: trajectory.Point{X: 0.7, Y: 0.6}, JitterAmp: 0.01, FreqX: 0.15, FreqY: 0.2},
				{Kind: trajectory.Hover, Seconds: 15, From: trajectory.Point{X: 0.7, Y: 0.6}, JitterAmp: 0.005, FreqX: 0.05, FreqY: 0.07},
			},
		},
		Cadence: compose.Cadence{}, // no periodic injection
		Script: compose.Script{
			{Kind: compose.ActionClick, At: 28 * time.Second, Button: event.ButtonLeft, X: 0.3, Y: 0.3},
		},
	}
}

// panTyping pans across the frame, types a short string while resting, then
// pans back.
func panTyping() Scenario {
	return Scenario{
		Name:            "pan-typing",
		Description:     "Two pan transits separated by a scripted typed string",
		DurationSeconds: 600,
		Plan: trajectory.Plan{
			Loop: true,
			Phases: []trajectory.Phase{
				{Kind: trajectory.Transit, Seconds: 20, From: trajectory.Point{X: 0.1, Y: 0.5}, To: trajectory.Point{X: 0.9, Y: 0.5}, JitterAmp: 0.01, FreqX: 0.12, FreqY: 0.18},
				{Kind: trajectory.Hover, Seconds: 10, From: trajectory.Point{X: 0.9, Y: 0.5}, JitterAmp: 0.004, FreqX: 0.06, FreqY: 0.09},
				{Kind: trajectory.Transit, Seconds: 20, From: trajectory.Point{X: 0.9, Y: 0.5}, To: trajectory.Point{X: 0.1, Y: 0.5}, JitterAmp: 0.01, FreqX: 0.12, FreqY: 0.18},
			},
		},
		Cadence: compose.Cadence{},
		Script: compose.Script{
			{Kind: compose.ActionType, At: 22 * time.Second, Text: "lorem ipsum", Spacing: 120 * time.Millisecond},
		},
	}
}

// fileScenario is the YAML schema for scenario files.
type fileScenario struct {
	Name            string       `yaml:"name"`
	Description     string       `yaml:"description"`
	DurationSeconds int          `yaml:"duration_seconds"`
	Loop            bool         `yaml:"loop"`
	Phases          []filePhase  `yaml:"phases"`
	Cadence         *fileCadence `yaml:"cadence"`
	Script          []fileAction `yaml:"script"`
}

type filePhase struct {
	Kind      string    `yaml:"kind"`
	Seconds   int       `yaml:"seconds"`
	From      []float64 `yaml:"from"`
	To        []float64 `yaml:"to"`
	JitterAmp float64   `yaml:"jitter_amp"`
	FreqX     float64   `yaml:"freq_x"`
	FreqY     float64   `yaml:"freq_y"`
}

type fileCadence struct {
	ClickEverySeconds int      `yaml:"click_every_seconds"`
	ClickHoldMs       int      `yaml:"click_hold_ms"`
	ClickButton       string   `yaml:"click_button"`
	KeyEverySeconds   int      `yaml:"key_every_seconds"`
	KeyHoldMs         int      `yaml:"key_hold_ms"`
	KeyCodes          []string `yaml:"key_codes"`
}

type fileAction struct {
	Kind      string  `yaml:"kind"`
	AtSeconds float64 `yaml:"at_seconds"`
	Button    string  `yaml:"button"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Text      string  `yaml:"text"`
	SpacingMs int     `yaml:"spacing_ms"`
}

// LoadFile reads a scenario definition from a YAML file.
func LoadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario file: %w", err)
	}

	var raw fileScenario
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario file %q: %w", path, err)
	}
	if raw.Name == "" {
		return Scenario{}, fmt.Errorf("scenario file %q: name must not be empty", path)
	}

	scenario := Scenario{
		Name:            raw.Name,
		Description:     raw.Description,
		DurationSeconds: raw.DurationSeconds,
		Plan:            trajectory.Plan{Loop: raw.Loop},
	}

	for i, phase := range raw.Phases {
		converted, err := phase.convert()
		if err != nil {
			return Scenario{}, fmt.Errorf("scenario file %q: phase %d: %w", path, i, err)
		}
		scenario.Plan.Phases = append(scenario.Plan.Phases, converted)
	}
	if err := scenario.Plan.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario file %q: %w", path, err)
	}

	if raw.Cadence != nil {
		scenario.Cadence = compose.Cadence{
			ClickEvery:  time.Duration(raw.Cadence.ClickEverySeconds) * time.Second,
			ClickHold:   time.Duration(raw.Cadence.ClickHoldMs) * time.Millisecond,
			ClickButton: raw.Cadence.ClickButton,
			KeyEvery:    time.Duration(raw.Cadence.KeyEverySeconds) * time.Second,
			KeyHold:     time.Duration(raw.Cadence.KeyHoldMs) * time.Millisecond,
			KeyCodes:    raw.Cadence.KeyCodes,
		}
		if scenario.Cadence.ClickButton == "" {
			scenario.Cadence.ClickButton = event.ButtonLeft
		}
	}

	for _, action := range raw.Script {
		scenario.Script = append(scenario.Script, compose.Action{
			Kind:    action.Kind,
			At:      time.Duration(action.AtSeconds * float64(time.Second)),
			Button:  action.Button,
			X:       action.X,
			Y:       action.Y,
			Text:    action.Text,
			Spacing: time.Duration(action.SpacingMs) * time.Millisecond,
		})
	}

	return scenario, nil
}

func (p filePhase) convert() (trajectory.Phase, error) {
	from, err := point(p.From)
	if err != nil {
		return trajectory.Phase{}, fmt.Errorf("from: %w", err)
	}
	phase := trajectory.Phase{
		Kind:      trajectory.Kind(p.Kind),
		Seconds:   p.Seconds,
		From:      from,
		JitterAmp: p.JitterAmp,
		FreqX:     p.FreqX,
		FreqY:     p.FreqY,
	}
	if len(p.To) > 0 {
		to, err := point(p.To)
		if err != nil {
			return trajectory.Phase{}, fmt.Errorf("to: %w", err)
		}
		phase.To = to
	}
	return phase, nil
}

func point(coords []float64) (trajectory.Point, error) {
	if len(coords) != 2 {
		return trajectory.Point{}, fmt.Errorf("expected [x, y], got %d values", len(coords))
	}
	return trajectory.Point{X: coords[0], Y: coords[1]}, nil
}
