// internal/rules/compile.go
package rules

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles the decoded condition trees of a RulesDocument into
 * CompiledExpression trees with parsed paths, resolved operators and
 * cost-ordered branches.
 *
 * Compilation workflow:
 *   1. Validate group shape (exactly one of all/any, non-empty)
 *   2. Validate conditions (known operator, path depth, in literal is a list
 *      of at most MaxInOperatorValues values)
 *   3. Calculate costs using the cost model
 *   4. Order group branches by ascending cost (stable sort for determinism)
 *
 * Every configuration defect is reported here, so a compiled tree cannot
 * fail during evaluation. Reordering branches therefore never changes the
 * boolean result of a group.
 */

// GroupMode selects AND or OR semantics for a compiled group.
type GroupMode int

const (
	GroupAll GroupMode = iota
	GroupAny
)

// CompiledCondition is a pre-processed condition ready for evaluation.
type CompiledCondition struct {
	Field    string   // original path as written in configuration
	Path     []string // parsed segments, prefix stripped
	Operator Operator
	Value    any // normalized literal; []any for in
	Cost     int
}

// CompiledExpression is a leaf (Condition set) or a group (Branches set).
type CompiledExpression struct {
	Condition *CompiledCondition
	Mode      GroupMode
	Branches  []*CompiledExpression // ordered by ascending cost
	Cost      int
}

// CompiledRule is a named rule whose conditions are compiled.
type CompiledRule struct {
	RuleID     string
	Fields     []string
	Conditions *CompiledExpression
}

// CompiledDocument is a fully validated rules document.
type CompiledDocument struct {
	Version         string
	AlwaysVisible   []string
	AlwaysRequired  []string
	VisibilityRules []CompiledRule
	RequiredRules   []CompiledRule
}

// Compile validates and pre-processes a whole rules document.
func Compile(doc *types.RulesDocument) (*CompiledDocument, error) {
	visibility, err := compileRules(doc.VisibilityRules)
	if err != nil {
		return nil, eris.Wrap(err, "visibility_rules")
	}
	required, err := compileRules(doc.RequiredRules)
	if err != nil {
		return nil, eris.Wrap(err, "required_rules")
	}
	return &CompiledDocument{
		Version:         doc.Version,
		AlwaysVisible:   append([]string(nil), doc.AlwaysVisible...),
		AlwaysRequired:  append([]string(nil), doc.AlwaysRequired...),
		VisibilityRules: visibility,
		RequiredRules:   required,
	}, nil
}

func compileRules(specs []types.RuleSpec) ([]CompiledRule, error) {
	out := make([]CompiledRule, 0, len(specs))
	for i := range specs {
		spec := &specs[i]
		expr, err := CompileExpression(&spec.Conditions)
		if err != nil {
			return nil, eris.Wrapf(err, "rule %q", spec.RuleID)
		}
		out = append(out, CompiledRule{
			RuleID:     spec.RuleID,
			Fields:     append([]string(nil), spec.Fields...),
			Conditions: expr,
		})
	}
	return out, nil
}

// CompileExpression validates and pre-processes a condition tree.
func CompileExpression(expr types.Expression) (*CompiledExpression, error) {
	return compileExpression(expr, 1)
}

func compileExpression(expr types.Expression, depth int) (*CompiledExpression, error) {
	switch e := expr.(type) {
	case *types.Condition:
		cc, err := compileCondition(e)
		if err != nil {
			return nil, err
		}
		return &CompiledExpression{Condition: cc, Cost: cc.Cost}, nil
	case *types.Group:
		return compileGroup(e, depth)
	default:
		return nil, eris.Wrapf(types.ErrInvalidDocument, "unknown expression type %T", expr)
	}
}

// compileGroup enforces exactly one populated branch list and MaxGroupDepth.
func compileGroup(g *types.Group, depth int) (*CompiledExpression, error) {
	if depth > types.MaxGroupDepth {
		return nil, eris.Wrapf(types.ErrGroupTooDeep, "limit %d", types.MaxGroupDepth)
	}
	if len(g.All) == 0 && len(g.Any) == 0 {
		return nil, types.ErrEmptyGroup
	}
	if len(g.All) > 0 && len(g.Any) > 0 {
		return nil, types.ErrAmbiguousGroup
	}

	mode, items := GroupAll, g.All
	if len(g.Any) > 0 {
		mode, items = GroupAny, g.Any
	}

	compiled := &CompiledExpression{
		Mode:     mode,
		Branches: make([]*CompiledExpression, 0, len(items)),
	}
	for _, item := range items {
		branch, err := compileExpression(item, depth+1)
		if err != nil {
			return nil, err
		}
		compiled.Branches = append(compiled.Branches, branch)
		compiled.Cost += branch.Cost
	}

	// Stable sort: equal-cost branches keep declaration order
	sort.SliceStable(compiled.Branches, func(i, j int) bool {
		return compiled.Branches[i].Cost < compiled.Branches[j].Cost
	})

	return compiled, nil
}

// compileCondition parses the path, resolves the operator and validates the
// literal. A null in literal is treated as an empty list.
func compileCondition(cond *types.Condition) (*CompiledCondition, error) {
	path, err := ParsePath(cond.Field)
	if err != nil {
		return nil, eris.Wrapf(err, "condition field %q", cond.Field)
	}

	op, ok := ParseOperator(cond.Op)
	if !ok {
		return nil, eris.Wrapf(types.ErrUnsupportedOperator, "%s", cond.Op)
	}

	value := Normalize(cond.Value)
	if op == OpIn {
		if value == nil {
			value = []any{}
		}
		list, ok := value.([]any)
		if !ok {
			return nil, eris.Wrapf(types.ErrInvalidInValue, "condition field %q", cond.Field)
		}
		if len(list) > types.MaxInOperatorValues {
			return nil, eris.Wrapf(types.ErrTooManyInValues, "condition field %q has %d values, limit %d", cond.Field, len(list), types.MaxInOperatorValues)
		}
	}

	return &CompiledCondition{
		Field:    cond.Field,
		Path:     path,
		Operator: op,
		Value:    value,
		Cost:     CalculateConditionCost(path, op),
	}, nil
}
