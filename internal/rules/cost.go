// internal/rules/cost.go
package rules

/*
 * Cost model for condition evaluation.
 *
 * Cost formula: lookup_cost + operator_cost
 *
 * Presence checks read the provided view only and are cheapest. Value
 * operators pay per path segment plus the comparison itself. Groups cost
 * the sum of their branches. Branches of a group are evaluated in ascending
 * cost order so short-circuiting skips the expensive ones.
 */

const (
	// Operator base costs
	CostExists   = 1
	CostMissing  = 1
	CostEq       = 5
	CostIn       = 8
	CostContains = 10

	// Field lookup cost per path segment
	CostLookupPerSegment = 16
)

// CalculateConditionCost computes the cost of a single condition.
func CalculateConditionCost(segments []string, op Operator) int {
	return len(segments)*CostLookupPerSegment + operatorCost(op)
}

func operatorCost(op Operator) int {
	switch op {
	case OpExists:
		return CostExists
	case OpMissing:
		return CostMissing
	case OpEq:
		return CostEq
	case OpIn:
		return CostIn
	case OpContains:
		return CostContains
	default:
		return CostEq
	}
}
