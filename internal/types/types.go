// Package types provides domain models shared across estimator components.
//
// Configuration documents (location profiles, rules) and engine results are
// declared here so that the catalog loader, the rules engine and the transport
// layer agree on one wire shape without importing each other.
package types

// GlobalProfileID is the reserved fallback location profile. It is selected
// when no place is given or no profile matches, and is never place-matched.
const GlobalProfileID = "global_default_v1"

// IntakePrefix may qualify any rule field path; it is stripped before lookup.
const IntakePrefix = "intake."

// ProfileContextKey is the context key holding the evaluated location profile.
const ProfileContextKey = "location_profile"

// MallSourceSuffix marks applied defaults sourced from mall-area overrides.
const MallSourceSuffix = ":mall"

// Resource limits enforced when loading rules and profiles configuration.
// The rules schema carries the same in-list bound.
const (
	// MaxPathDepth bounds the number of segments in a field path.
	// Intake paths are at most three levels deep; 16 leaves headroom for
	// location_profile lookups without allowing runaway traversal.
	MaxPathDepth = 16

	// MaxInOperatorValues limits the literal list of an in condition.
	MaxInOperatorValues = 64

	// MaxGroupDepth bounds nesting of all/any groups, counting a rule's
	// top-level group.
	MaxGroupDepth = 8
)
