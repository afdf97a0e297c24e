// Package trajectory synthesises deterministic pointer paths from a phase
// plan: an ordered list of motion segments (hover or linear transit) walked
// at a fixed nominal sample rate. Every emitted coordinate is clamped to the
// normalized [0,1] range and rounded to four decimals before it leaves the
// package.
package trajectory

import (
	"errors"
	"fmt"
	"math"
)

// Kind names a phase motion rule.
type Kind string

const (
	// Hover keeps the pointer at a target point with small sinusoidal jitter.
	Hover Kind = "hover"
	// Transit interpolates linearly between two points with added jitter.
	Transit Kind = "transit"
)

// Point is a normalized coordinate pair.
type Point struct {
	X float64
	Y float64
}

// Phase describes one motion segment of a plan.
type Phase struct {
	Kind    Kind
	Seconds int
	// From is the hover target, or the transit start point.
	From Point
	// To is the transit end point. Ignored for hover phases.
	To Point
	// JitterAmp is the sinusoidal jitter amplitude applied to both axes.
	JitterAmp float64
	// FreqX and FreqY scale the sample index inside the jitter sinusoids,
	// in radians per sample.
	FreqX float64
	FreqY float64
}

// Plan is an ordered list of phases. When Loop is set the plan cycles for
// the whole session; otherwise the pointer holds the final position once the
// last phase is exhausted.
type Plan struct {
	Phases []Phase
	Loop   bool
}

// CycleSeconds reports the combined duration of all phases.
func (p Plan) CycleSeconds() int {
	total := 0
	for _, phase := range p.Phases {
		total += phase.Seconds
	}
	return total
}

// Validate checks the plan is non-empty with positive phase durations and
// known motion kinds.
func (p Plan) Validate() error {
	if len(p.Phases) == 0 {
		return errors.New("phase plan must contain at least one phase")
	}
	for i, phase := range p.Phases {
		if phase.Seconds <= 0 {
			return fmt.Errorf("phase %d: duration must be positive", i)
		}
		switch phase.Kind {
		case Hover, Transit:
		default:
			return fmt.Errorf("phase %d: unknown kind %q", i, phase.Kind)
		}
	}
	return nil
}

// StandardPlan is the stock fixture trajectory: a one-minute cycle of
// resting in the top-left region, transiting to the lower-right, then
// wandering back toward centre with coarser jitter.
func StandardPlan() Plan {
	return Plan{
		Loop: true,
		Phases: []Phase{
			{Kind: Hover, Seconds: 20, From: Point{0.15, 0.15}, JitterAmp: 0.02, FreqX: 0.1, FreqY: 0.13},
			{Kind: Transit, Seconds: 20, From: Point{0.15, 0.15}, To: Point{0.72, 0.52}, JitterAmp: 0.01, FreqX: 0.2, FreqY: 0.25},
			{Kind: Transit, Seconds: 20, From: Point{0.72, 0.52}, To: Point{0.48, 0.48}, JitterAmp: 0.04, FreqX: 0.08, FreqY: 0.08},
		},
	}
}

// Synthesizer produces pointer samples for a plan at a fixed rate. It holds
// no mutable state: the position for a sample index is a pure function, so
// any traversal of the sequence is reproducible.
type Synthesizer struct {
	plan Plan
	rate int
}

// New validates the plan and rate and constructs a synthesizer.
func New(plan Plan, rateHz int) (*Synthesizer, error) {
	if rateHz <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &Synthesizer{plan: plan, rate: rateHz}, nil
}

// Rate reports the nominal sample rate in Hz.
func (s *Synthesizer) Rate() int { return s.rate }

// TimestampNs reports the nominal timestamp of sample i relative to the
// session epoch.
func (s *Synthesizer) TimestampNs(i int) int64 {
	return int64(float64(i) * (1e9 / float64(s.rate)))
}

// At returns the pointer position for sample index i, clamped to [0,1] on
// both axes and rounded to four decimals.
func (s *Synthesizer) At(i int) (x, y float64) {
	phase, progress := s.locate(i)

	switch phase.Kind {
	case Transit:
		x = phase.From.X + (phase.To.X-phase.From.X)*progress
		y = phase.From.Y + (phase.To.Y-phase.From.Y)*progress
	default:
		x = phase.From.X
		y = phase.From.Y
	}

	fi := float64(i)
	x += phase.JitterAmp * math.Sin(fi*phase.FreqX)
	y += phase.JitterAmp * math.Cos(fi*phase.FreqY)

	return round4(clamp01(x)), round4(clamp01(y))
}

// locate maps a sample index to its phase and the progress within it.
func (s *Synthesizer) locate(i int) (Phase, float64) {
	cycleSamples := s.plan.CycleSeconds() * s.rate
	j := i
	if s.plan.Loop {
		j = i % cycleSamples
	} else if j >= cycleSamples {
		// Hold at the end of the final phase.
		last := s.plan.Phases[len(s.plan.Phases)-1]
		return last, 1
	}

	start := 0
	for _, phase := range s.plan.Phases {
		length := phase.Seconds * s.rate
		if j < start+length {
			return phase, float64(j-start) / float64(length)
		}
		start += length
	}
	// Unreachable for validated plans; hold the final phase end.
	last := s.plan.Phases[len(s.plan.Phases)-1]
	return last, 1
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
