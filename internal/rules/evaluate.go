// internal/rules/evaluate.go
package rules

import (
	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/internal/types"
)

/*
 * Condition tree evaluation.
 *
 * Evaluation flow:
 *   1. Group: all -> every branch true, any -> one branch true
 *      (short-circuit, branches pre-ordered by cost)
 *   2. Condition: exists/missing read the provided view,
 *      value operators resolve the full view then Compare
 *
 * A condition that resolves to nothing is not an error. Only a condition
 * with an operator that slipped past compilation fails, and that error
 * aborts the whole evaluation.
 */

// Context carries the two views a condition is evaluated against.
// Full holds every field including filled-in and profile data; Provided
// holds only what the caller actually supplied.
type Context struct {
	Full     map[string]any
	Provided map[string]any
}

// EvaluateExpression evaluates a compiled tree against ctx.
func EvaluateExpression(expr *CompiledExpression, ctx *Context) (bool, error) {
	if expr.Condition != nil {
		return evaluateCondition(expr.Condition, ctx)
	}

	switch expr.Mode {
	case GroupAll:
		for _, branch := range expr.Branches {
			ok, err := EvaluateExpression(branch, ctx)
			if err != nil || !ok {
				return false, err
			}
		}
		return len(expr.Branches) > 0, nil
	case GroupAny:
		for _, branch := range expr.Branches {
			ok, err := EvaluateExpression(branch, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, types.ErrEmptyGroup
	}
}

// evaluateCondition answers presence operators from the provided view and
// value operators from the full view.
func evaluateCondition(cond *CompiledCondition, ctx *Context) (bool, error) {
	switch cond.Operator {
	case OpExists:
		_, ok := Resolve(ctx.Provided, cond.Path)
		return ok, nil
	case OpMissing:
		_, ok := Resolve(ctx.Provided, cond.Path)
		return !ok, nil
	case OpEq, OpIn, OpContains:
		value, present := Resolve(ctx.Full, cond.Path)
		return Compare(cond.Operator, Normalize(value), present, cond.Value), nil
	default:
		return false, eris.Wrapf(types.ErrUnsupportedOperator, "%s on %q", cond.Operator, cond.Field)
	}
}
