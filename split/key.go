// Package split implements seeded train/test partitioning of event
// containers and the propagation of an existing partition onto derivative
// containers that describe the same events.
package split

import "fmt"

// EventKey is the composite natural key identifying one physical event
// within a dataset: the (run, segment, event) triple.
type EventKey struct {
	Run     uint64
	Segment uint64
	Event   uint64
}

func (k EventKey) String() string {
	return fmt.Sprintf("(%d,%d,%d)", k.Run, k.Segment, k.Event)
}

// KeyFields names the container columns holding the three identity
// integers.
type KeyFields struct {
	Run     string
	Segment string
	Event   string
}

// DefaultKeyFields returns the conventional identity column names.
func DefaultKeyFields() KeyFields {
	return KeyFields{Run: "Run", Segment: "LumiSec", Event: "Event"}
}

// Names returns the field names as a slice, for reader activation.
func (f KeyFields) Names() []string {
	return []string{f.Run, f.Segment, f.Event}
}

// keyedRecord is the subset of ntuple.Record that key extraction needs.
type keyedRecord interface {
	Uint(name string) (uint64, error)
}

// ExtractKey computes a record's EventKey from the configured identity
// fields. Any absent or non-integer field yields a MissingFieldError.
func ExtractKey(rec keyedRecord, fields KeyFields) (EventKey, error) {
	run, err := rec.Uint(fields.Run)
	if err != nil {
		return EventKey{}, &MissingFieldError{Field: fields.Run, Err: err}
	}
	segment, err := rec.Uint(fields.Segment)
	if err != nil {
		return EventKey{}, &MissingFieldError{Field: fields.Segment, Err: err}
	}
	event, err := rec.Uint(fields.Event)
	if err != nil {
		return EventKey{}, &MissingFieldError{Field: fields.Event, Err: err}
	}
	return EventKey{Run: run, Segment: segment, Event: event}, nil
}
