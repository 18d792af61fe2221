// internal/rules/context.go
package rules

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/internal/intake"
	"github.com/solatis/estimator/internal/types"
)

/*
 * Evaluation context construction.
 *
 * The engine accepts two input shapes that differ only in how views are
 * built:
 *
 *   - validated: an *intake.Intake whose invariants already hold. The full
 *     view is its complete dump; the provided view drops nulls, empty
 *     collections and fields still equal to their default.
 *   - raw: an untyped payload from an in-progress draft. The full view is
 *     the payload as-is; the provided view is the payload pruned of nulls,
 *     empty objects and empty lists.
 *
 * Both shapes add the location profile under the "location_profile" key:
 * the complete dump in the full view, only non-default values in the
 * provided view.
 */

// Source is an evaluation input. Construct it with FromValidated or FromRaw.
type Source interface {
	views(profile *types.LocationProfile) (*views, error)
}

type views struct {
	ctx       *Context
	defaults  map[string]any // intake data checked for defaults, without profile
	mallAreas []intake.MallArea
}

type validatedSource struct {
	in *intake.Intake
}

type rawSource struct {
	payload map[string]any
}

// FromValidated wraps an intake that passed construction-time validation.
func FromValidated(in *intake.Intake) Source {
	return validatedSource{in: in}
}

// FromRaw wraps an untyped intake payload. A nil payload is treated as empty.
func FromRaw(payload map[string]any) Source {
	if payload == nil {
		payload = map[string]any{}
	}
	return rawSource{payload: payload}
}

func (s validatedSource) views(profile *types.LocationProfile) (*views, error) {
	data, err := s.in.Data()
	if err != nil {
		return nil, err
	}
	full, err := ProfileData(profile)
	if err != nil {
		return nil, err
	}

	provided, _ := Prune(data).(map[string]any)
	if provided == nil {
		provided = map[string]any{}
	}
	if provided["intake_version"] == string(intake.DefaultVersion) {
		delete(provided, "intake_version")
	}
	provided[types.ProfileContextKey] = profileProvided(full)

	fullView := make(map[string]any, len(data)+1)
	for k, v := range data {
		fullView[k] = v
	}
	fullView[types.ProfileContextKey] = full

	return &views{
		ctx:       &Context{Full: fullView, Provided: provided},
		defaults:  data,
		mallAreas: s.in.MallAreas,
	}, nil
}

func (s rawSource) views(profile *types.LocationProfile) (*views, error) {
	full, err := ProfileData(profile)
	if err != nil {
		return nil, err
	}

	fullView := make(map[string]any, len(s.payload)+1)
	for k, v := range s.payload {
		fullView[k] = v
	}
	fullView[types.ProfileContextKey] = full

	merged := make(map[string]any, len(s.payload)+1)
	for k, v := range s.payload {
		merged[k] = v
	}
	merged[types.ProfileContextKey] = profileProvided(full)
	provided, _ := Prune(merged).(map[string]any)
	if provided == nil {
		provided = map[string]any{}
	}

	return &views{
		ctx:       &Context{Full: fullView, Provided: provided},
		defaults:  s.payload,
		mallAreas: mallAreasFromPayload(s.payload["mall_areas"]),
	}, nil
}

// mallAreasFromPayload keeps the recognized mall tags of a raw list in order.
func mallAreasFromPayload(raw any) []intake.MallArea {
	items, ok := raw.([]any)
	if !ok {
		if strs, isStrings := raw.([]string); isStrings {
			items = Normalize(strs).([]any)
		}
	}
	out := make([]intake.MallArea, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if area := intake.MallArea(s); area.Valid() {
			out = append(out, area)
		}
	}
	return out
}

// ProfileData returns the complete dump of profile as nested maps, with
// unset collections rendered empty.
func ProfileData(profile *types.LocationProfile) (map[string]any, error) {
	p := *profile
	if p.MatchRules == nil {
		p.MatchRules = []types.ProfileMatch{}
	}
	if p.DefaultValues == nil {
		p.DefaultValues = types.DefaultValues{}
	}
	if p.MallAreaDefaults == nil {
		p.MallAreaDefaults = map[string][]types.RankedDefault{}
	}
	if p.VisibleFields == nil {
		p.VisibleFields = []string{}
	}
	if p.RequiredFields == nil {
		p.RequiredFields = []string{}
	}

	raw, err := json.Marshal(&p)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal profile %q", profile.ProfileID)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrapf(err, "unmarshal profile %q", profile.ProfileID)
	}
	return out, nil
}

// profileProvided strips default-valued profile entries: false visibility
// flags and zero restriction ranks, then prunes empties.
func profileProvided(full map[string]any) map[string]any {
	c, _ := Normalize(full).(map[string]any)

	if flags, ok := c["visibility_flags"].(map[string]any); ok {
		for k, v := range flags {
			if b, isBool := v.(bool); isBool && !b {
				delete(flags, k)
			}
		}
	}
	if mall, ok := c["mall_area_defaults"].(map[string]any); ok {
		for _, list := range mall {
			items, _ := list.([]any)
			for _, item := range items {
				if rd, isMap := item.(map[string]any); isMap && rd["restriction_rank"] == float64(0) {
					delete(rd, "restriction_rank")
				}
			}
		}
	}

	pruned, _ := Prune(c).(map[string]any)
	if pruned == nil {
		return map[string]any{}
	}
	return pruned
}

// Prune removes nulls, empty objects and empty lists, recursively. An input
// that prunes to nothing is returned as an empty container of its kind.
func Prune(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, elem := range n {
			cleaned := Prune(elem)
			if isEmpty(cleaned) {
				continue
			}
			out[k] = cleaned
		}
		return out
	case []any:
		out := make([]any, 0, len(n))
		for _, elem := range n {
			cleaned := Prune(elem)
			if isEmpty(cleaned) {
				continue
			}
			out = append(out, cleaned)
		}
		return out
	case []string:
		return Prune(Normalize(n))
	default:
		return v
	}
}

func isEmpty(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(n) == 0
	case []any:
		return len(n) == 0
	default:
		return false
	}
}
