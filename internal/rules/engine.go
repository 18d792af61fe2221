// internal/rules/engine.go
package rules

import (
	"sort"

	"github.com/solatis/estimator/internal/intake"
	"github.com/solatis/estimator/internal/types"
)

// Engine evaluates intakes against a compiled rules document. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	doc *CompiledDocument
}

// NewEngine compiles doc. Any configuration defect is returned here.
func NewEngine(doc *types.RulesDocument) (*Engine, error) {
	compiled, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	return &Engine{doc: compiled}, nil
}

// Version returns the rules document version.
func (e *Engine) Version() string { return e.doc.Version }

// EvaluateIntake evaluates a validated intake.
func (e *Engine) EvaluateIntake(in *intake.Intake, profile *types.LocationProfile) (*types.RulesOutput, error) {
	return e.Evaluate(FromValidated(in), profile)
}

// EvaluatePayload evaluates an untyped, possibly partial intake payload.
func (e *Engine) EvaluatePayload(payload map[string]any, profile *types.LocationProfile) (*types.RulesOutput, error) {
	return e.Evaluate(FromRaw(payload), profile)
}

// Evaluate computes visible fields, required fields and applied defaults.
// No partial output is returned: any error aborts the evaluation.
func (e *Engine) Evaluate(src Source, profile *types.LocationProfile) (*types.RulesOutput, error) {
	v, err := src.views(profile)
	if err != nil {
		return nil, err
	}

	visible := newFieldSet(e.doc.AlwaysVisible, profile.VisibleFields)
	required := newFieldSet(e.doc.AlwaysRequired, profile.RequiredFields)

	if err := applyRules(e.doc.VisibilityRules, v.ctx, visible); err != nil {
		return nil, err
	}
	if err := applyRules(e.doc.RequiredRules, v.ctx, required); err != nil {
		return nil, err
	}

	return &types.RulesOutput{
		VisibleFields:   visible.sorted(),
		RequiredFields:  required.sorted(),
		AppliedDefaults: AppliedDefaults(v.defaults, v.mallAreas, profile),
	}, nil
}

func applyRules(rules []CompiledRule, ctx *Context, into fieldSet) error {
	for i := range rules {
		ok, err := EvaluateExpression(rules[i].Conditions, ctx)
		if err != nil {
			return err
		}
		if ok {
			into.add(rules[i].Fields...)
		}
	}
	return nil
}

type fieldSet map[string]struct{}

func newFieldSet(lists ...[]string) fieldSet {
	s := fieldSet{}
	for _, l := range lists {
		s.add(l...)
	}
	return s
}

func (s fieldSet) add(fields ...string) {
	for _, f := range fields {
		s[f] = struct{}{}
	}
}

func (s fieldSet) sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
