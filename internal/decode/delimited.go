package decode

import (
	"strings"

	"github.com/weftlabs/weft/internal/layout"
	"github.com/weftlabs/weft/internal/model"
	"github.com/weftlabs/weft/internal/source"
)

// decodeDelimited produces one record per physical line. Tokens map to
// fields positionally; a line with fewer tokens than fields yields a record
// with the trailing fields absent (never defaulted).
func decodeDelimited(lay *layout.Layout, lines source.Lines, res *Result) {
	delim := string(lay.DelimiterRune())

	for {
		line, ok := lines.Next()
		if !ok {
			return
		}
		res.Stats.Lines++

		tokens := strings.Split(line, delim)
		rec := model.NewRecord(len(lay.Fields))
		for i, f := range lay.Fields {
			if i >= len(tokens) {
				break
			}
			// Trim, strip one outer quote pair, then trim what the
			// quotes were protecting, so `"  42 "` coerces as "42".
			raw := strings.TrimSpace(stripQuotes(strings.TrimSpace(tokens[i])))
			val, fb := Coerce(raw, f.Type)
			if fb {
				res.Stats.countFallback(f.Name)
			}
			rec.Append(f.Name, val, fb)
		}
		res.Records = append(res.Records, rec)
		res.Stats.Records++
	}
}

// stripQuotes removes one matching pair of outer double quotes, if present.
// Inner quotes are untouched.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
