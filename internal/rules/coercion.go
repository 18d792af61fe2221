// internal/rules/coercion.go
package rules

/*
 * Value normalization for comparisons.
 *
 * Intake views and rule literals both arrive as decoded JSON, where every
 * number is float64. Values built in Go (tests, programmatic payloads) may
 * carry int or float32 instead. Normalize maps every numeric kind to float64,
 * recursively through lists and objects, so eq and in compare by value.
 *
 * Booleans are never numbers: true does not equal 1.
 */

// Normalize returns v with all numbers converted to float64 and typed
// string slices converted to []any. Other values are returned unchanged.
func Normalize(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case []any:
		out := make([]any, len(n))
		for i, elem := range n {
			out[i] = Normalize(elem)
		}
		return out
	case []string:
		out := make([]any, len(n))
		for i, elem := range n {
			out[i] = elem
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, elem := range n {
			out[k] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}
