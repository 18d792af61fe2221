package types

// AppliedDefault is a value filled in because the caller did not supply it.
// Source is the profile id, or profile id + MallSourceSuffix for mall-area defaults.
type AppliedDefault struct {
	Field  string `json:"field"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// RulesOutput is the result of one rules engine evaluation.
// Field lists are sorted and de-duplicated.
type RulesOutput struct {
	VisibleFields   []string         `json:"visible_fields"`
	RequiredFields  []string         `json:"required_fields"`
	AppliedDefaults []AppliedDefault `json:"applied_defaults"`
}
