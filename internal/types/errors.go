package types

import "github.com/rotisserie/eris"

// Sentinel errors for estimator operations.
var (
	// ErrInvalidDocument indicates a profiles or rules document failed shape validation.
	ErrInvalidDocument = eris.New("invalid configuration document")

	// ErrEmptyGroup indicates a rule group with neither all nor any branches.
	ErrEmptyGroup = eris.New("rule group must include all or any conditions")

	// ErrAmbiguousGroup indicates a rule group populating both all and any.
	ErrAmbiguousGroup = eris.New("rule group must not include both all and any")

	// ErrUnsupportedOperator indicates an unknown condition operator.
	ErrUnsupportedOperator = eris.New("unsupported operation")

	// ErrInvalidInValue indicates an in condition whose value is not a list.
	ErrInvalidInValue = eris.New("in operator requires a list value")

	// ErrTooManyInValues indicates an in condition listing more than MaxInOperatorValues values.
	ErrTooManyInValues = eris.New("in operator value list exceeds maximum length")

	// ErrGroupTooDeep indicates all/any groups nested beyond MaxGroupDepth.
	ErrGroupTooDeep = eris.New("rule groups exceed maximum nesting depth")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = eris.New("field path exceeds maximum depth")

	// ErrEmptyPath indicates a condition without a field path.
	ErrEmptyPath = eris.New("field path is empty")

	// ErrDuplicateProfile indicates two profiles sharing a profile_id.
	ErrDuplicateProfile = eris.New("duplicate profile_id")

	// ErrMissingGlobalProfile indicates the reserved fallback profile is not configured.
	ErrMissingGlobalProfile = eris.New("global default profile is not configured")

	// ErrProfileNotFound indicates a profile id with no loaded profile.
	ErrProfileNotFound = eris.New("location profile not found")

	// ErrInvalidIntake indicates an intake failed construction-time validation.
	ErrInvalidIntake = eris.New("invalid intake")

	// ErrProjectNotFound indicates a project id unknown to the tenant.
	ErrProjectNotFound = eris.New("project not found")

	// ErrInvalidStatus indicates an unknown snapshot status.
	ErrInvalidStatus = eris.New("invalid snapshot status")
)
