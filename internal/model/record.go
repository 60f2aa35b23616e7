// Package model holds the canonical record type shared by the decoder,
// the display output, and the queue/store collaborators.
package model

import (
	"bytes"
	"encoding/json"
)

// Entry is one decoded field inside a Record. Value is a string, int64,
// float64, or bool. Fallback is true when type coercion failed and the
// type's zero-equivalent was substituted; the emitted value is unchanged
// but the substitution stays observable.
type Entry struct {
	Name     string
	Value    any
	Fallback bool
}

// Record is an ordered field-name to value mapping produced for one logical
// line (or one fixed-width line group). It is assembled once, never mutated
// afterwards, and serializes in field declaration order.
type Record struct {
	entries []Entry
}

// NewRecord returns an empty record with capacity for n fields.
func NewRecord(n int) *Record {
	return &Record{entries: make([]Entry, 0, n)}
}

// Append adds a field to the end of the record. Field order is declaration
// order; the decoder appends fields exactly once each.
func (r *Record) Append(name string, value any, fallback bool) {
	r.entries = append(r.entries, Entry{Name: name, Value: value, Fallback: fallback})
}

// Len returns the number of fields present in the record.
func (r *Record) Len() int { return len(r.entries) }

// Entries returns the record's fields in declaration order. Callers must not
// modify the returned slice.
func (r *Record) Entries() []Entry { return r.entries }

// Get returns the value for a field name, or false when the field is absent
// (short delimited line or truncated fixed-width group).
func (r *Record) Get(name string) (any, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// FallbackFields returns the names of fields whose value came from the
// coercion fallback rather than a genuine parse, in declaration order.
func (r *Record) FallbackFields() []string {
	var names []string
	for _, e := range r.entries {
		if e.Fallback {
			names = append(names, e.Name)
		}
	}
	return names
}

// MarshalJSON emits a JSON object whose keys appear in field declaration
// order. encoding/json's map marshalling sorts keys, so the object is built
// by hand.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalPretty renders a slice of records as an indented JSON array, the
// display form printed after a run.
func MarshalPretty(records []*Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}
