package types

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// ProfileMatch selects a profile for a place. Nil fields are wildcards.
type ProfileMatch struct {
	CountryISO2 *string `json:"country_iso2"`
	AdminLevel1 *string `json:"admin_level_1"`
	City        *string `json:"city"`
}

// RankedDefault is a mall-area default; higher RestrictionRank wins on conflict.
type RankedDefault struct {
	Field           string `json:"field"`
	Value           any    `json:"value"`
	RestrictionRank int    `json:"restriction_rank"`
}

// VisibilityFlags toggle optional intake sections for a profile.
type VisibilityFlags struct {
	TimeWindows bool `json:"time_windows"`
	NoiseDust   bool `json:"noise_dust"`
	Protection  bool `json:"protection"`
}

// DefaultValue is one field path default of a profile.
type DefaultValue struct {
	Field string
	Value any
}

// DefaultValues is a JSON object of field path -> value that keeps
// declaration order, so applied defaults come out in document order.
type DefaultValues []DefaultValue

// LocationProfile is a policy bundle selected by geography.
type LocationProfile struct {
	ProfileID        string                     `json:"profile_id"`
	MatchRules       []ProfileMatch             `json:"match_rules"`
	DefaultValues    DefaultValues              `json:"default_values"`
	MallAreaDefaults map[string][]RankedDefault `json:"mall_area_defaults"`
	VisibilityFlags  VisibilityFlags            `json:"visibility_flags"`
	VisibleFields    []string                   `json:"visible_fields"`
	RequiredFields   []string                   `json:"required_fields"`
}

// ProfilesDocument is the top-level location profiles configuration.
type ProfilesDocument struct {
	Profiles []LocationProfile `json:"profiles"`
}

// Get returns the default for field, if declared.
func (d DefaultValues) Get(field string) (any, bool) {
	for _, dv := range d {
		if dv.Field == field {
			return dv.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the defaults as an object in declaration order.
func (d DefaultValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dv := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(dv.Field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(dv.Value)
		if err != nil {
			return nil, eris.Wrapf(err, "marshal default %q", dv.Field)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object token by token to preserve key order.
// A repeated key keeps its first position and takes the last value,
// matching how ordered maps behave in the configuration tooling.
func (d *DefaultValues) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "decode default_values")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return eris.New("default_values must be an object")
	}

	out := DefaultValues{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "decode default_values key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return eris.New("default_values key must be a string")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return eris.Wrapf(err, "decode default_values[%q]", key)
		}
		if i, seen := index[key]; seen {
			out[i].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, DefaultValue{Field: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "decode default_values")
	}

	*d = out
	return nil
}
