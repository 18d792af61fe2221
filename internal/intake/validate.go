package intake

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/internal/types"
)

func invalid(msg string) error {
	return eris.Wrap(types.ErrInvalidIntake, msg)
}

// Validate enforces field ranges, enum membership and the cross-field
// invariants. It stops at the first violation.
func (in *Intake) Validate() error {
	if err := in.validateFields(); err != nil {
		return err
	}
	if err := in.validateCore(); err != nil {
		return err
	}
	if err := in.validateAccessLogistics(); err != nil {
		return err
	}
	if err := in.validateHeight(); err != nil {
		return err
	}
	return in.validateCostResponsibility()
}

func (in *Intake) validateFields() error {
	if in.IntakeVersion != "" && !in.IntakeVersion.Valid() {
		return invalid("unknown intake_version " + string(in.IntakeVersion))
	}
	if in.LocationProfileID == "" {
		return invalid("location_profile_id is required")
	}
	if in.SelectedPlace != nil {
		if err := in.SelectedPlace.Validate(); err != nil {
			return err
		}
	}
	if !in.WorkType.Valid() {
		return invalid("unknown work_type " + string(in.WorkType))
	}
	if !in.WorkFor.Valid() {
		return invalid("unknown work_for " + string(in.WorkFor))
	}
	if in.ClientType != nil && !in.ClientType.Valid() {
		return invalid("unknown client_type " + string(*in.ClientType))
	}
	if !in.WorkClass.Valid() {
		return invalid("unknown work_class " + string(in.WorkClass))
	}
	if !in.WorkLocation.Valid() {
		return invalid("unknown work_location " + string(in.WorkLocation))
	}
	if in.ObjectCategory != nil && !in.ObjectCategory.Valid() {
		return invalid("unknown object_category " + string(*in.ObjectCategory))
	}
	if in.CommercialObjectType != nil && !in.CommercialObjectType.Valid() {
		return invalid("unknown commercial_object_type " + string(*in.CommercialObjectType))
	}
	for _, area := range in.MallAreas {
		if !area.Valid() {
			return invalid("unknown mall_areas entry " + string(area))
		}
	}
	if err := in.TimeWindows.validate(); err != nil {
		return err
	}
	if in.AccessLogistics == nil {
		return invalid("access_logistics is required")
	}
	if err := in.AccessLogistics.validate(); err != nil {
		return err
	}
	if err := in.WorkAtHeight.validate(); err != nil {
		return err
	}
	if err := in.NoiseDustProtection.validate(); err != nil {
		return err
	}
	if err := in.CleanupWaste.validate(); err != nil {
		return err
	}
	if in.CostResponsibility != nil {
		return in.CostResponsibility.validate()
	}
	return nil
}

// Validate checks the place on its own; intakes call it during Validate.
func (p *SelectedPlace) Validate() error {
	if _, err := uuid.Parse(p.LocationID); err != nil {
		return invalid("selected_place.location_id must be a UUID")
	}
	if len(p.CountryISO2) != 2 {
		return invalid("selected_place.country_iso2 must be two characters")
	}
	if p.City == "" {
		return invalid("selected_place.city is required")
	}
	if !p.Source.Valid() {
		return invalid("unknown selected_place.source " + string(p.Source))
	}
	if p.ConfidenceObjectType != nil && (*p.ConfidenceObjectType < 0 || *p.ConfidenceObjectType > 1) {
		return invalid("selected_place.confidence_object_type must be between 0 and 1")
	}
	return nil
}

func (t TimeInterval) validate() error {
	if !t.Start.Before(t.End) {
		return invalid("Time interval end must be after start")
	}
	return nil
}

func validateIntervals(intervals []TimeInterval) error {
	for _, iv := range intervals {
		if err := iv.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t *TimeWindows) validate() error {
	if err := validateIntervals(t.WorkBlackoutIntervals); err != nil {
		return err
	}
	if t.WorkTimeStart != nil && t.WorkTimeEnd != nil && !t.WorkTimeStart.Before(*t.WorkTimeEnd) {
		return invalid("work_time_end must be after work_time_start")
	}
	return nil
}

func (a *AccessLogistics) validate() error {
	if a.VehicleAccessAllowed == nil {
		return invalid("access_logistics.vehicle_access_allowed is required")
	}
	if a.UnloadingDistanceM == nil {
		return invalid("access_logistics.unloading_distance_m is required")
	}
	if *a.UnloadingDistanceM < 0 {
		return invalid("access_logistics.unloading_distance_m must be >= 0")
	}
	if a.VehicleMaxHeightM != nil && *a.VehicleMaxHeightM <= 0 {
		return invalid("access_logistics.vehicle_max_height_m must be > 0")
	}
	if a.VehicleMaxWeightT != nil && *a.VehicleMaxWeightT <= 0 {
		return invalid("access_logistics.vehicle_max_weight_t must be > 0")
	}
	if a.AccessLeadTimeDays != nil && *a.AccessLeadTimeDays < 0 {
		return invalid("access_logistics.access_lead_time_days must be >= 0")
	}
	return nil
}

func (w *WorkAtHeight) validate() error {
	if w.WorkHeightM != nil && *w.WorkHeightM <= 0 {
		return invalid("work_at_height.work_height_m must be > 0")
	}
	for _, c := range w.HeightWorkConditions {
		if !c.Valid() {
			return invalid("unknown work_at_height.height_work_conditions entry " + string(c))
		}
	}
	if w.HeightAccessMethod != nil && !w.HeightAccessMethod.Valid() {
		return invalid("unknown work_at_height.height_access_method " + string(*w.HeightAccessMethod))
	}
	return nil
}

func (n *NoiseDustProtection) validate() error {
	if err := validateIntervals(n.NoiseBlackoutIntervals); err != nil {
		return err
	}
	for _, p := range n.ProtectionRequiredFor {
		if !p.Valid() {
			return invalid("unknown noise_dust_protection.protection_required_for entry " + string(p))
		}
	}
	return nil
}

func (c *CleanupWaste) validate() error {
	nonNegative := []struct {
		name  string
		value *float64
	}{
		{"trash_transfer_distance_m", c.TrashTransferDistanceM},
		{"trash_container_distance_m", c.TrashContainerDistanceM},
	}
	for _, f := range nonNegative {
		if f.value != nil && *f.value < 0 {
			return invalid("cleanup_waste." + f.name + " must be >= 0")
		}
	}
	if c.TrashContainerVolumeM3 != nil && *c.TrashContainerVolumeM3 <= 0 {
		return invalid("cleanup_waste.trash_container_volume_m3 must be > 0")
	}
	if c.TrashContainerCount != nil && *c.TrashContainerCount < 0 {
		return invalid("cleanup_waste.trash_container_count must be >= 0")
	}
	return nil
}

func (c *CostResponsibility) validate() error {
	for _, p := range c.payers() {
		if p != nil && !p.Valid() {
			return invalid("unknown cost_responsibility payer " + string(*p))
		}
	}
	return nil
}

func (c *CostResponsibility) payers() []*Payer {
	return []*Payer{
		c.PayerMaterials, c.PayerConsumables, c.PayerEquipmentRental,
		c.PayerHeightAccess, c.PayerLogistics, c.PayerCleanup,
		c.PayerTrashDown, c.PayerContainer, c.PayerTrashRemoval,
	}
}

func (in *Intake) validateCore() error {
	if in.WorkFor == WorkForSelf && in.ClientType != nil {
		return invalid("client_type must not be set when work_for=self")
	}
	if in.WorkFor == WorkForThirdParty && in.ClientType == nil {
		return invalid("client_type must be set when work_for=third_party")
	}
	if !in.isCategory(ObjectCommercial) {
		if in.CommercialObjectType != nil {
			return invalid("commercial_object_type requires object_category=commercial")
		}
		if len(in.MallAreas) > 0 {
			return invalid("mall_areas requires object_category=commercial")
		}
	}
	return nil
}

func (in *Intake) validateAccessLogistics() error {
	al := in.AccessLogistics
	switch in.WorkLocation {
	case WorkInside:
		if al.FreightElevatorAvailable == nil || al.FreightElevatorTimeStart == nil ||
			al.FreightElevatorTimeEnd == nil || al.FreightElevatorProtectionRequired == nil ||
			al.WorkFloor == nil {
			return invalid("inside work requires freight elevator and work floor fields")
		}
	case WorkOutside:
		if al.VehicleMaxHeightM == nil {
			return invalid("outside work requires vehicle_max_height_m")
		}
		if al.VehicleMaxWeightT == nil {
			return invalid("outside work requires vehicle_max_weight_t")
		}
	}
	if in.isCategory(ObjectCommercial) || in.isCategory(ObjectIndustrial) {
		if al.AccessPassRequired == nil {
			return invalid("access_pass_required is required for commercial/industrial")
		}
		if al.AccessLeadTimeDays == nil {
			return invalid("access_lead_time_days is required for commercial/industrial")
		}
	}
	return nil
}

func (in *Intake) validateHeight() error {
	h := in.WorkAtHeight
	details := []bool{
		h.WorkHeightM != nil,
		h.HeightAbove5m != nil,
		h.HeightAbove10m != nil,
		h.HeightAccessMethod != nil,
		h.HeightSafetyRequired != nil,
	}
	if h.HeightAbove1_8m != nil && *h.HeightAbove1_8m {
		for _, set := range details {
			if !set {
				return invalid("height details required when height_above_1_8m is true")
			}
		}
		return nil
	}
	for _, set := range details {
		if set {
			return invalid("height details require height_above_1_8m to be true")
		}
	}
	return nil
}

func (in *Intake) validateCostResponsibility() error {
	if in.WorkFor == WorkForSelf && in.CostResponsibility != nil {
		return invalid("cost_responsibility is only valid for third_party work")
	}
	return nil
}

func (in *Intake) isCategory(c ObjectCategory) bool {
	return in.ObjectCategory != nil && *in.ObjectCategory == c
}
