// Package event defines the input-event data model shared by the
// synthesiser, serializer, and validator: a session header plus a tagged
// union of pointer, click, and key events with nanosecond timestamps.
//
// The wire encoding is one flat JSON object per line with a fixed field
// order per event type; downstream consumers treat the layout as part of
// the schema, so encoding goes through explicit MarshalJSON implementations
// rather than struct-tag defaults.
package event
