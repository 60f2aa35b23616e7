package decode

import (
	"strconv"

	"github.com/weftlabs/weft/internal/layout"
)

// Coerce converts a trimmed raw token into the scalar value declared for its
// field. Parse failures silently yield the type's zero-equivalent (0, 0.0,
// false); the second return reports whether that fallback fired so callers
// can count silently defaulted values without changing them. Unrecognized
// declared types are treated as string, which never fails.
func Coerce(raw string, declaredType string) (any, bool) {
	switch declaredType {
	case layout.FieldInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return int64(0), true
		}
		return n, false
	case layout.FieldFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return float64(0), true
		}
		return f, false
	case layout.FieldBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return false, true
		}
		return b, false
	default:
		return raw, false
	}
}
