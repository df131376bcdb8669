package domain

import "fmt"

// MetaMap holds free-form metadata restricted to the scalar union
// string | float64 | bool | nil so manifest serialization stays stable.
type MetaMap map[string]any

// NormalizeMeta coerces arbitrary decoded JSON values into the scalar union.
// Numeric types collapse to float64; anything non-scalar is rendered as a
// string rather than carried as an open-ended object.
func NormalizeMeta(in map[string]any) MetaMap {
	if len(in) == 0 {
		return nil
	}
	out := make(MetaMap, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return fmt.Sprint(t)
	}
}
