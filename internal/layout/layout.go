// Package layout holds the declarative description of a flat file's
// structure: encoding kind, delimiter, and the ordered field list that
// drives decoding. A Layout is loaded once per run and never mutated.
package layout

import (
	"fmt"
	"strings"
)

// Kind selects how a data file's lines map to fields.
type Kind string

const (
	// Delimited files carry one field per token, tokens separated by a
	// single delimiter character.
	Delimited Kind = "delimited"

	// Fixed files carry fields at fixed character offsets, possibly
	// wrapping a logical record across several physical lines.
	Fixed Kind = "fixed"
)

// DefaultDelimiter is used when a delimited layout omits the delimiter.
const DefaultDelimiter = ','

// Recognized field types. Anything else degrades to FieldString.
const (
	FieldString = "string"
	FieldInt    = "int"
	FieldFloat  = "float"
	FieldBool   = "bool"
)

// Field describes one named, typed, positioned unit of data.
// Position is the 1-based start offset within a physical line and Size the
// character width; both are meaningful only for fixed layouts.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Position    int    `json:"position" yaml:"position"`
	Size        int    `json:"size" yaml:"size"`
	Type        string `json:"field_type" yaml:"field_type"`
}

// Layout is the immutable description of one file format. It is shared by
// reference through the whole decode pipeline.
type Layout struct {
	Name        string  `json:"name" yaml:"name"`
	Version     int     `json:"version" yaml:"version"`
	Delimiter   string  `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Kind        Kind    `json:"file_type" yaml:"file_type"`
	Destination string  `json:"destination" yaml:"destination"`
	StorageName string  `json:"storage_name" yaml:"storage_name"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// DelimiterRune returns the declared delimiter, or DefaultDelimiter when the
// layout omits one.
func (l *Layout) DelimiterRune() rune {
	if l.Delimiter == "" {
		return DefaultDelimiter
	}
	return []rune(l.Delimiter)[0]
}

// Error reports a malformed or unusable layout description. It aborts a run
// before any decoding starts.
type Error struct {
	Path   string // layout file, empty when loaded from memory
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := "layout"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validate checks the structural invariants: a recognized encoding kind, a
// single-character delimiter when one is given, at least one field, unique
// field names, and sane position/size for fixed layouts. Unrecognized field
// types are not an error; the coercer treats them as string.
func (l *Layout) Validate() error {
	// Accept any casing of the kind tag ("Fixed", "FIXED", ...).
	switch Kind(strings.ToLower(string(l.Kind))) {
	case Delimited:
		l.Kind = Delimited
	case Fixed:
		l.Kind = Fixed
	default:
		return &Error{Reason: fmt.Sprintf("unknown file_type %q", l.Kind)}
	}
	if n := len([]rune(l.Delimiter)); n > 1 {
		return &Error{Reason: fmt.Sprintf("delimiter %q must be a single character", l.Delimiter)}
	}
	if len(l.Fields) == 0 {
		return &Error{Reason: "layout declares no fields"}
	}

	seen := make(map[string]struct{}, len(l.Fields))
	for _, f := range l.Fields {
		if f.Name == "" {
			return &Error{Reason: "field with empty name"}
		}
		if _, dup := seen[f.Name]; dup {
			return &Error{Reason: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[f.Name] = struct{}{}

		if l.Kind == Fixed {
			if f.Position < 1 {
				return &Error{Reason: fmt.Sprintf("field %q: position %d must be >= 1", f.Name, f.Position)}
			}
			if f.Size < 1 {
				return &Error{Reason: fmt.Sprintf("field %q: size %d must be >= 1", f.Name, f.Size)}
			}
		}
	}
	return nil
}
