// internal/types/rules.go
package types

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

/*
 * Rules configuration document.
 *
 * A rules document lists always-visible and always-required field paths plus
 * two rule lists. Each rule contributes its target fields when its condition
 * tree evaluates true. Condition trees are a closed sum type:
 *
 *   - Condition: leaf predicate {field, op, value}
 *   - Group:     {all: [...]} (AND) or {any: [...]} (OR)
 *
 * Decoding dispatches on the presence of the "field" key. Group shape errors
 * (neither or both of all/any) are reported by rules.CompileExpression so the
 * raw document can still be inspected by tooling.
 */

// Expression is a node of a rule condition tree: *Condition or *Group.
type Expression interface {
	isExpression()
}

// Condition is a single predicate over a field path.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
}

// Group combines sub-expressions with AND (All) or OR (Any) semantics.
type Group struct {
	All []Expression `json:"all,omitempty"`
	Any []Expression `json:"any,omitempty"`
}

func (*Condition) isExpression() {}
func (*Group) isExpression()     {}

// RuleSpec is a named condition tree with the fields it contributes.
type RuleSpec struct {
	RuleID     string   `json:"rule_id"`
	Fields     []string `json:"fields"`
	Conditions Group    `json:"conditions"`
}

// RulesDocument is the versioned rules configuration.
type RulesDocument struct {
	Version         string     `json:"version"`
	AlwaysVisible   []string   `json:"always_visible"`
	AlwaysRequired  []string   `json:"always_required"`
	VisibilityRules []RuleSpec `json:"visibility_rules"`
	RequiredRules   []RuleSpec `json:"required_rules"`
}

// UnmarshalJSON decodes both branch lists, dispatching each element to
// Condition or Group.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw struct {
		All []json.RawMessage `json:"all"`
		Any []json.RawMessage `json:"any"`
	}
	if err := DecodeStrict(data, &raw); err != nil {
		return eris.Wrap(err, "decode rule group")
	}

	all, err := decodeExpressions(raw.All)
	if err != nil {
		return err
	}
	anyOf, err := decodeExpressions(raw.Any)
	if err != nil {
		return err
	}
	g.All = all
	g.Any = anyOf
	return nil
}

func decodeExpressions(items []json.RawMessage) ([]Expression, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]Expression, 0, len(items))
	for i, item := range items {
		expr, err := DecodeExpression(item)
		if err != nil {
			return nil, eris.Wrapf(err, "expression %d", i)
		}
		out = append(out, expr)
	}
	return out, nil
}

// DecodeExpression decodes a condition tree node. Objects carrying a "field"
// key are conditions; everything else is decoded as a group.
func DecodeExpression(data []byte) (Expression, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, eris.Wrap(err, "decode expression")
	}
	if _, ok := probe["field"]; ok {
		cond := &Condition{}
		if err := DecodeStrict(data, cond); err != nil {
			return nil, eris.Wrap(err, "decode condition")
		}
		return cond, nil
	}
	group := &Group{}
	if err := group.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return group, nil
}

// DecodeStrict decodes JSON into v rejecting unknown fields and trailing data.
func DecodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return eris.New("unexpected trailing data")
	}
	return nil
}
