// Package intake models the v1.1 project intake: the structured description
// of a construction job submitted by a user.
//
// An Intake is constructed once with Parse or ParseJSON, which rejects unknown
// fields and enforces every cross-field invariant, and is treated as immutable
// afterwards. Optional scalars are pointers: nil means "not provided".
package intake

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/internal/types"
)

// SelectedPlace is the place the user picked, manually or from a map provider.
type SelectedPlace struct {
	LocationID           string      `json:"location_id"`
	CountryISO2          string      `json:"country_iso2"`
	AdminLevel1          *string     `json:"admin_level_1"`
	City                 string      `json:"city"`
	AddressLine          *string     `json:"address_line"`
	Lat                  *float64    `json:"lat"`
	Lon                  *float64    `json:"lon"`
	Source               PlaceSource `json:"source"`
	ConfidenceObjectType *float64    `json:"confidence_object_type"`
}

// TimeInterval is a same-day window with End strictly after Start.
type TimeInterval struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

type TimeWindows struct {
	WorkTimeStart         *ClockTime     `json:"work_time_start"`
	WorkTimeEnd           *ClockTime     `json:"work_time_end"`
	WorkBlackoutIntervals []TimeInterval `json:"work_blackout_intervals"`
	WorkAllowedWeekends   *bool          `json:"work_allowed_weekends"`
	WorkAllowedHolidays   *bool          `json:"work_allowed_holidays"`
}

type AccessLogistics struct {
	VehicleAccessAllowed              *bool      `json:"vehicle_access_allowed"`
	UnloadingDistanceM                *float64   `json:"unloading_distance_m"`
	FreightElevatorAvailable          *bool      `json:"freight_elevator_available"`
	FreightElevatorTimeStart          *ClockTime `json:"freight_elevator_time_start"`
	FreightElevatorTimeEnd            *ClockTime `json:"freight_elevator_time_end"`
	FreightElevatorProtectionRequired *bool      `json:"freight_elevator_protection_required"`
	WorkFloor                         *int       `json:"work_floor"`
	VehicleMaxHeightM                 *float64   `json:"vehicle_max_height_m"`
	VehicleMaxWeightT                 *float64   `json:"vehicle_max_weight_t"`
	MachineryAccessAllowed            *bool      `json:"machinery_access_allowed"`
	AccessPassRequired                *bool      `json:"access_pass_required"`
	AccessLeadTimeDays                *int       `json:"access_lead_time_days"`
}

type WorkAtHeight struct {
	HeightAbove1_8m      *bool                 `json:"height_above_1_8m"`
	WorkHeightM          *float64              `json:"work_height_m"`
	HeightAbove5m        *bool                 `json:"height_above_5m"`
	HeightAbove10m       *bool                 `json:"height_above_10m"`
	HeightWorkConditions []HeightWorkCondition `json:"height_work_conditions"`
	HeightAccessMethod   *HeightAccessMethod   `json:"height_access_method"`
	HeightSafetyRequired *bool                 `json:"height_safety_required"`
}

type NoiseDustProtection struct {
	NoiseRestrictionEnabled *bool              `json:"noise_restriction_enabled"`
	NoiseBlackoutIntervals  []TimeInterval     `json:"noise_blackout_intervals"`
	DustControlRequired     *bool              `json:"dust_control_required"`
	ProtectionRequiredFor   []ProtectionTarget `json:"protection_required_for"`
}

type CleanupWaste struct {
	CleanupEndOfShiftRequired  *bool    `json:"cleanup_end_of_shift_required"`
	CleanupCommonAreasRequired *bool    `json:"cleanup_common_areas_required"`
	TrashDownMethod            *string  `json:"trash_down_method"`
	TrashDownMethodsAdditional []string `json:"trash_down_methods_additional"`
	TrashOriginFloor           *int     `json:"trash_origin_floor"`
	TrashTargetLevel           *int     `json:"trash_target_level"`
	TrashTransferDistanceM     *float64 `json:"trash_transfer_distance_m"`
	TrashContainerRequired     *bool    `json:"trash_container_required"`
	TrashContainerVolumeM3     *float64 `json:"trash_container_volume_m3"`
	TrashContainerCount        *int     `json:"trash_container_count"`
	TrashContainerDistanceM    *float64 `json:"trash_container_distance_m"`
	TrashRemovalMode           *string  `json:"trash_removal_mode"`
}

// CostResponsibility assigns a payer per cost line; third-party work only.
type CostResponsibility struct {
	PayerMaterials       *Payer `json:"payer_materials"`
	PayerConsumables     *Payer `json:"payer_consumables"`
	PayerEquipmentRental *Payer `json:"payer_equipment_rental"`
	PayerHeightAccess    *Payer `json:"payer_height_access"`
	PayerLogistics       *Payer `json:"payer_logistics"`
	PayerCleanup         *Payer `json:"payer_cleanup"`
	PayerTrashDown       *Payer `json:"payer_trash_down"`
	PayerContainer       *Payer `json:"payer_container"`
	PayerTrashRemoval    *Payer `json:"payer_trash_removal"`
}

// Intake is a validated v1.1 project intake.
type Intake struct {
	IntakeVersion           Version               `json:"intake_version"`
	SelectedPlace           *SelectedPlace        `json:"selected_place"`
	LocationProfileID       string                `json:"location_profile_id"`
	WorkType                WorkType              `json:"work_type"`
	WorkFor                 WorkFor               `json:"work_for"`
	ClientType              *ClientType           `json:"client_type"`
	WorkClass               WorkClass             `json:"work_class"`
	WorkLocation            WorkLocation          `json:"work_location"`
	ObjectCategory          *ObjectCategory       `json:"object_category"`
	CommercialObjectType    *CommercialObjectType `json:"commercial_object_type"`
	MallAreas               []MallArea            `json:"mall_areas"`
	TimeWindows             TimeWindows           `json:"time_windows"`
	AccessLogistics         *AccessLogistics      `json:"access_logistics"`
	WorkAtHeight            WorkAtHeight          `json:"work_at_height"`
	NoiseDustProtection     NoiseDustProtection   `json:"noise_dust_protection"`
	CleanupWaste            CleanupWaste          `json:"cleanup_waste"`
	CostResponsibility      *CostResponsibility   `json:"cost_responsibility"`
	NonFormalizedConditions *string               `json:"non_formalized_conditions"`
}

// DefaultVersion is assumed when a payload omits intake_version.
const DefaultVersion = VersionV11

// Parse builds an Intake from an untyped payload and validates it.
func Parse(payload map[string]any) (*Intake, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "marshal intake payload")
	}
	return ParseJSON(data)
}

// ParseJSON decodes an intake rejecting unknown fields, then validates it.
func ParseJSON(data []byte) (*Intake, error) {
	in := &Intake{}
	if err := types.DecodeStrict(data, in); err != nil {
		return nil, invalid(err.Error())
	}
	if in.IntakeVersion == "" {
		in.IntakeVersion = DefaultVersion
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Data returns the full nested representation: every field present, unset
// optionals as nil and unset collections as empty lists.
func (in *Intake) Data() (map[string]any, error) {
	normalized := in.normalized()
	raw, err := json.Marshal(&normalized)
	if err != nil {
		return nil, eris.Wrap(err, "marshal intake")
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "unmarshal intake")
	}
	return out, nil
}

// normalized returns a copy whose nil collections are empty, so the
// flattened form distinguishes "empty list" from "not provided" the same way
// for hand-built and decoded intakes.
func (in *Intake) normalized() Intake {
	out := *in
	if out.IntakeVersion == "" {
		out.IntakeVersion = DefaultVersion
	}
	if out.MallAreas == nil {
		out.MallAreas = []MallArea{}
	}
	if out.TimeWindows.WorkBlackoutIntervals == nil {
		out.TimeWindows.WorkBlackoutIntervals = []TimeInterval{}
	}
	if out.WorkAtHeight.HeightWorkConditions == nil {
		out.WorkAtHeight.HeightWorkConditions = []HeightWorkCondition{}
	}
	if out.NoiseDustProtection.NoiseBlackoutIntervals == nil {
		out.NoiseDustProtection.NoiseBlackoutIntervals = []TimeInterval{}
	}
	if out.NoiseDustProtection.ProtectionRequiredFor == nil {
		out.NoiseDustProtection.ProtectionRequiredFor = []ProtectionTarget{}
	}
	if out.CleanupWaste.TrashDownMethodsAdditional == nil {
		out.CleanupWaste.TrashDownMethodsAdditional = []string{}
	}
	return out
}

// placeKeys must all be present before a raw selected_place is used.
var placeKeys = []string{"location_id", "country_iso2", "city", "source"}

// ParsePlace decodes a raw selected_place from a draft payload. A value that
// is not an object, or lacks any of location_id, country_iso2, city and
// source, is treated as absent and returns nil without error.
func ParsePlace(raw any) (*SelectedPlace, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, nil
	}
	for _, k := range placeKeys {
		if _, ok := m[k]; !ok {
			return nil, nil
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "marshal selected_place")
	}
	p := &SelectedPlace{}
	if err := types.DecodeStrict(data, p); err != nil {
		return nil, invalid("selected_place: " + err.Error())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Data returns the place with every field present.
func (p *SelectedPlace) Data() (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, eris.Wrap(err, "marshal selected_place")
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "unmarshal selected_place")
	}
	return out, nil
}
