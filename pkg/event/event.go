package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// SchemaVersion tags every serialized log header.
const SchemaVersion = "1.0"

// Event type discriminators as they appear on the wire.
const (
	TypePointer = "pointer"
	TypeClick   = "click"
	TypeKey     = "key"
)

// Button and key states.
const (
	StateDown = "down"
	StateUp   = "up"
)

// Mouse button identifiers.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

// Header is the single leading metadata record of an event log. Field order
// matches the wire layout; encoding/json preserves declaration order.
type Header struct {
	SchemaVersion       string  `json:"schema_version"`
	EpochMonotonicNs    int64   `json:"epoch_monotonic_ns"`
	EpochWall           string  `json:"epoch_wall"`
	CaptureWidth        int     `json:"capture_width"`
	CaptureHeight       int     `json:"capture_height"`
	ScaleFactor         float64 `json:"scale_factor"`
	PointerSampleRateHz int     `json:"pointer_sample_rate_hz"`
}

// Event is one timestamped input event. Type selects which of the remaining
// fields are meaningful: pointer uses X/Y, click uses Button/State/X/Y, and
// key uses Code/State. T is nanoseconds relative to the header epoch.
type Event struct {
	T      int64
	Type   string
	Button string
	Code   string
	State  string
	X      float64
	Y      float64
}

// Pointer constructs a pointer sample at a normalized position.
func Pointer(t int64, x, y float64) Event {
	return Event{T: t, Type: TypePointer, X: x, Y: y}
}

// Click constructs a mouse button transition at the pointer's position.
func Click(t int64, button, state string, x, y float64) Event {
	return Event{T: t, Type: TypeClick, Button: button, State: state, X: x, Y: y}
}

// Key constructs a keyboard transition for a key code such as "KeyA".
func Key(t int64, code, state string) Event {
	return Event{T: t, Type: TypeKey, Code: code, State: state}
}

// MarshalJSON encodes the event with the exact per-type field order required
// by the log schema:
//
//	pointer: t, type, x, y
//	click:   t, type, button, state, x, y
//	key:     t, type, code, state
func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"t":`)
	buf.WriteString(strconv.FormatInt(e.T, 10))
	buf.WriteString(`,"type":"`)
	buf.WriteString(e.Type)
	buf.WriteByte('"')

	switch e.Type {
	case TypePointer:
		writeCoord(&buf, "x", e.X)
		writeCoord(&buf, "y", e.Y)
	case TypeClick:
		if err := writeString(&buf, "button", e.Button); err != nil {
			return nil, err
		}
		if err := writeString(&buf, "state", e.State); err != nil {
			return nil, err
		}
		writeCoord(&buf, "x", e.X)
		writeCoord(&buf, "y", e.Y)
	case TypeKey:
		if err := writeString(&buf, "code", e.Code); err != nil {
			return nil, err
		}
		if err := writeString(&buf, "state", e.State); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("encode event: unknown type %q", e.Type)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeCoord(buf *bytes.Buffer, key string, value float64) {
	buf.WriteString(`,"`)
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
}

func writeString(buf *bytes.Buffer, key, value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode event field %s: %w", key, err)
	}
	buf.WriteString(`,"`)
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.Write(encoded)
	return nil
}

// UnmarshalJSON decodes a single event record, rejecting records without a
// numeric non-negative timestamp or with an unrecognized type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		T      *int64  `json:"t"`
		Type   string  `json:"type"`
		Button string  `json:"button"`
		Code   string  `json:"code"`
		State  string  `json:"state"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.T == nil {
		return errors.New("event record missing timestamp")
	}
	if *raw.T < 0 {
		return fmt.Errorf("event timestamp must be non-negative, got %d", *raw.T)
	}

	switch raw.Type {
	case TypePointer, TypeClick, TypeKey:
	default:
		return fmt.Errorf("unknown event type %q", raw.Type)
	}

	*e = Event{
		T:      *raw.T,
		Type:   raw.Type,
		Button: raw.Button,
		Code:   raw.Code,
		State:  raw.State,
		X:      raw.X,
		Y:      raw.Y,
	}
	return nil
}

// TimestampSecs reports the timestamp as fractional seconds from the epoch.
func (e Event) TimestampSecs() float64 {
	return float64(e.T) / 1e9
}

// PointerPosition extracts the normalized pointer position for events that
// carry one.
func (e Event) PointerPosition() (x, y float64, ok bool) {
	switch e.Type {
	case TypePointer, TypeClick:
		return e.X, e.Y, true
	default:
		return 0, 0, false
	}
}
