// internal/rules/defaults.go
package rules

import (
	"github.com/solatis/estimator/internal/intake"
	"github.com/solatis/estimator/internal/types"
)

/*
 * Defaults merging.
 *
 * Two layers contribute defaults for fields the intake leaves absent:
 *
 *   1. profile default_values, in declaration order, source = profile_id
 *   2. mall-area overrides for the intake's mall tags, source = profile_id:mall
 *
 * Within layer 2 the highest restriction_rank wins per field; equal ranks
 * keep the first entry seen (tag order, then list order). Layer 2 never
 * emits a field layer 1 already emitted, so every field appears at most once.
 * Absence is always checked against the original view, never against
 * defaults applied earlier in the same pass.
 */

// AppliedDefaults computes the defaults to apply to view for profile.
func AppliedDefaults(view map[string]any, mallAreas []intake.MallArea, profile *types.LocationProfile) []types.AppliedDefault {
	applied := make([]types.AppliedDefault, 0, len(profile.DefaultValues))
	emitted := make(map[string]struct{}, len(profile.DefaultValues))

	for _, dv := range profile.DefaultValues {
		if _, seen := emitted[dv.Field]; seen {
			continue
		}
		if _, ok := ResolvePath(view, dv.Field); ok {
			continue
		}
		applied = append(applied, types.AppliedDefault{
			Field:  dv.Field,
			Value:  dv.Value,
			Source: profile.ProfileID,
		})
		emitted[dv.Field] = struct{}{}
	}

	mallSource := profile.ProfileID + types.MallSourceSuffix
	for _, rd := range CollectMallDefaults(mallAreas, profile) {
		if _, seen := emitted[rd.Field]; seen {
			continue
		}
		if _, ok := ResolvePath(view, rd.Field); ok {
			continue
		}
		applied = append(applied, types.AppliedDefault{
			Field:  rd.Field,
			Value:  rd.Value,
			Source: mallSource,
		})
		emitted[rd.Field] = struct{}{}
	}

	return applied
}

// CollectMallDefaults gathers the profile's ranked defaults for the given
// tags and keeps one winner per field, in first-appearance order.
func CollectMallDefaults(mallAreas []intake.MallArea, profile *types.LocationProfile) []types.RankedDefault {
	var order []string
	winners := make(map[string]types.RankedDefault)

	for _, area := range mallAreas {
		for _, rd := range profile.MallAreaDefaults[string(area)] {
			existing, ok := winners[rd.Field]
			if !ok {
				order = append(order, rd.Field)
				winners[rd.Field] = rd
				continue
			}
			if rd.RestrictionRank > existing.RestrictionRank {
				winners[rd.Field] = rd
			}
		}
	}

	out := make([]types.RankedDefault, 0, len(order))
	for _, field := range order {
		out = append(out, winners[field])
	}
	return out
}
