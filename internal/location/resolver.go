// Package location selects the location profile that applies to a place.
package location

import (
	"github.com/solatis/estimator/internal/intake"
	"github.com/solatis/estimator/internal/types"
)

// Resolver maps places to profile ids. Profiles are consulted in the order
// given; the first matching profile wins. Safe for concurrent use.
type Resolver struct {
	profiles []types.LocationProfile
	byID     map[string]int
}

// NewResolver indexes profiles by id, keeping declaration order for matching.
// Later duplicates are ignored by Get; the catalog rejects them at load.
func NewResolver(profiles []types.LocationProfile) *Resolver {
	r := &Resolver{
		profiles: profiles,
		byID:     make(map[string]int, len(profiles)),
	}
	for i := range profiles {
		if _, dup := r.byID[profiles[i].ProfileID]; !dup {
			r.byID[profiles[i].ProfileID] = i
		}
	}
	return r
}

// Resolve returns the id of the profile for place. A nil place, or a place
// no profile matches, resolves to the global default. The global profile is
// never matched by place.
func (r *Resolver) Resolve(place *intake.SelectedPlace) string {
	if place == nil {
		return types.GlobalProfileID
	}
	for i := range r.profiles {
		p := &r.profiles[i]
		if p.ProfileID == types.GlobalProfileID {
			continue
		}
		for _, rule := range p.MatchRules {
			if Matches(rule, place) {
				return p.ProfileID
			}
		}
	}
	return types.GlobalProfileID
}

// Get looks up a profile by id.
func (r *Resolver) Get(profileID string) (*types.LocationProfile, bool) {
	i, ok := r.byID[profileID]
	if !ok {
		return nil, false
	}
	return &r.profiles[i], true
}

// Profiles returns the loaded profiles in declaration order.
func (r *Resolver) Profiles() []types.LocationProfile {
	return r.profiles
}

// Matches reports whether every populated field of rule equals the place's
// value. Comparison is exact and case-sensitive; an empty rule matches all.
func Matches(rule types.ProfileMatch, place *intake.SelectedPlace) bool {
	if rule.CountryISO2 != nil && *rule.CountryISO2 != place.CountryISO2 {
		return false
	}
	if rule.AdminLevel1 != nil && (place.AdminLevel1 == nil || *rule.AdminLevel1 != *place.AdminLevel1) {
		return false
	}
	if rule.City != nil && *rule.City != place.City {
		return false
	}
	return true
}
