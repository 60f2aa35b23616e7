package decode

import (
	"strings"

	"github.com/weftlabs/weft/internal/layout"
	"github.com/weftlabs/weft/internal/model"
	"github.com/weftlabs/weft/internal/source"
)

// decodeFixed assembles one record per pass over the field list. A cursor
// tracks the next unconsumed 1-based offset within the current physical
// line; when a field's declared position lies before the cursor, the
// previous field filled out the rest of the line and the record continues on
// the next physical line.
//
// Continuation policy: the cursor resets to the start of the new line, i.e.
// each physical line is measured from its own beginning. Field positions on
// continuation lines are therefore declared relative to that line, not to
// the logical record.
func decodeFixed(lay *layout.Layout, lines source.Lines, res *Result) {
	for {
		line, ok := lines.Next()
		if !ok {
			return
		}
		res.Stats.Lines++

		rec := model.NewRecord(len(lay.Fields))
		// Offsets and sizes are declared in characters, so the line is
		// sliced as runes.
		current := []rune(line)
		cursor := 0
		lineNo := res.Stats.Lines

		for _, f := range lay.Fields {
			if f.Position < cursor {
				next, ok := lines.Next()
				if !ok {
					// Line source exhausted mid-record: partial
					// record, remaining fields absent.
					break
				}
				res.Stats.Lines++
				lineNo = res.Stats.Lines
				current = []rune(next)
				cursor = 0
			}

			end := f.Position - 1 + f.Size
			if len(current) < end {
				res.FieldErrors = append(res.FieldErrors, &FieldError{
					Field: f.Name,
					Line:  lineNo,
					Want:  end,
					Have:  len(current),
				})
				res.Stats.FieldErrors++
				cursor = f.Position + f.Size - 1
				continue
			}

			raw := strings.TrimSpace(string(current[f.Position-1 : end]))
			val, fb := Coerce(raw, f.Type)
			if fb {
				res.Stats.countFallback(f.Name)
			}
			rec.Append(f.Name, val, fb)
			cursor = f.Position + f.Size - 1
		}

		res.Records = append(res.Records, rec)
		res.Stats.Records++
	}
}
