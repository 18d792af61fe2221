// internal/rules/operators.go
package rules

import (
	"reflect"
	"strings"
)

/*
 * Operator comparison logic.
 *
 * Five operators are supported:
 *   - exists/missing: presence in the provided view (cost 1)
 *   - eq: structural equality on normalized values (cost 5)
 *   - in: membership in a literal list (cost 8)
 *   - contains: list element or substring (cost 10)
 *
 * exists and missing never look at values; they are answered by the caller
 * from the provided view and only reach Compare through evaluateCondition.
 * Values must already be normalized via Normalize().
 */

// Operator identifies a condition operator.
type Operator int

const (
	OpUnspecified Operator = iota
	OpExists
	OpMissing
	OpEq
	OpIn
	OpContains
)

var operatorNames = map[string]Operator{
	"exists":   OpExists,
	"missing":  OpMissing,
	"eq":       OpEq,
	"in":       OpIn,
	"contains": OpContains,
}

// ParseOperator maps a configuration operator name to an Operator.
// Unknown names yield OpUnspecified and false.
func ParseOperator(name string) (Operator, bool) {
	op, ok := operatorNames[name]
	return op, ok
}

func (op Operator) String() string {
	for name, candidate := range operatorNames {
		if candidate == op {
			return name
		}
	}
	return "unspecified"
}

// Compare applies a value operator. present reports whether the field
// resolved in the full view; value is nil when it did not.
func Compare(op Operator, value any, present bool, target any) bool {
	switch op {
	case OpEq:
		return compareEqual(value, target)
	case OpIn:
		return present && compareIn(value, target)
	case OpContains:
		return present && compareContains(value, target)
	default:
		return false
	}
}

// compareEqual performs deep equality on normalized values.
// An absent field compares as nil, so {op: eq, value: null} matches it.
func compareEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// compareIn checks whether value equals any element of set.
func compareIn(value, set any) bool {
	arr, ok := set.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}

// compareContains checks list membership, or substring for strings.
// Other value types never contain anything.
func compareContains(value, target any) bool {
	switch v := value.(type) {
	case []any:
		for _, elem := range v {
			if compareEqual(elem, target) {
				return true
			}
		}
		return false
	case string:
		s, ok := target.(string)
		return ok && strings.Contains(v, s)
	default:
		return false
	}
}
