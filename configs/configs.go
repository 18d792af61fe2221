package configs

import "embed"

// Default location profiles and rules shipped with the binary. Operators
// override them with catalog.profiles_path and catalog.rules_path.
//
//go:embed location_profiles.yaml rules_v1_1.json
var Defaults embed.FS

const (
	ProfilesFile = "location_profiles.yaml"
	RulesFile    = "rules_v1_1.json"
)
