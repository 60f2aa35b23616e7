// Package decode turns the physical lines of a data file into ordered
// records, driven by a layout. Delimited layouts map one line to one record;
// fixed layouts may consume several physical lines per record when the field
// list wraps past the end of a line.
//
// Decoding is synchronous and pure: the same layout and line sequence always
// produce the same result. All recoverable problems (short fixed-width
// lines, coercion fallbacks) are collected in the Result rather than
// aborting the run.
package decode

import (
	"fmt"

	"github.com/weftlabs/weft/internal/layout"
	"github.com/weftlabs/weft/internal/model"
	"github.com/weftlabs/weft/internal/source"
)

// FieldError reports a fixed-width field whose declared range exceeds the
// content of the physical line it was extracted from. It is recoverable: the
// field is left absent from its record and decoding continues.
type FieldError struct {
	Field string
	Line  int // 1-based physical line number
	Want  int // required line length for the field's range
	Have  int // actual line length
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: line %d is %d chars, range requires %d",
		e.Field, e.Line, e.Have, e.Want)
}

// Stats counts what happened during one decode pass. Coercion fallbacks are
// not errors, but they are where data gets silently defaulted, so they are
// tracked per field.
type Stats struct {
	Lines            int
	Records          int
	Fallbacks        int
	FallbacksByField map[string]int
	FieldErrors      int
}

func (s *Stats) countFallback(field string) {
	s.Fallbacks++
	if s.FallbacksByField == nil {
		s.FallbacksByField = make(map[string]int)
	}
	s.FallbacksByField[field]++
}

// Result is the outcome of decoding one data file against one layout.
// Records preserves input order. FieldErrors holds the recoverable
// extraction failures encountered along the way.
type Result struct {
	Records     []*model.Record
	Stats       Stats
	FieldErrors []*FieldError
}

// Decode reads every line from the source and decodes records per the
// layout's declared kind. The returned error is a read failure from the line
// source; decode-level problems end up in the Result instead.
func Decode(lay *layout.Layout, lines source.Lines) (*Result, error) {
	res := &Result{}
	switch lay.Kind {
	case layout.Delimited:
		decodeDelimited(lay, lines, res)
	case layout.Fixed:
		decodeFixed(lay, lines, res)
	default:
		return nil, &layout.Error{Reason: fmt.Sprintf("unknown file_type %q", lay.Kind)}
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
