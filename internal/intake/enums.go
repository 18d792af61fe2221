package intake

// Enumerations accepted by the v1.1 intake. Each type validates itself so
// decoding can reject unknown values before invariants run.

type Version string

const (
	VersionV10 Version = "v1.0"
	VersionV11 Version = "v1.1"
)

func (v Version) Valid() bool { return v == VersionV10 || v == VersionV11 }

type PlaceSource string

const (
	PlaceSourceManual      PlaceSource = "manual"
	PlaceSourceMapProvider PlaceSource = "map_provider"
)

func (s PlaceSource) Valid() bool { return s == PlaceSourceManual || s == PlaceSourceMapProvider }

type WorkType string

const (
	WorkTypeConstruction WorkType = "construction"
	WorkTypeRepair       WorkType = "repair"
)

func (w WorkType) Valid() bool { return w == WorkTypeConstruction || w == WorkTypeRepair }

type WorkFor string

const (
	WorkForSelf       WorkFor = "self"
	WorkForThirdParty WorkFor = "third_party"
)

func (w WorkFor) Valid() bool { return w == WorkForSelf || w == WorkForThirdParty }

type ClientType string

const (
	ClientPrivatePerson ClientType = "private_person"
	ClientCompany       ClientType = "company"
	ClientGovernment    ClientType = "government"
)

func (c ClientType) Valid() bool {
	switch c {
	case ClientPrivatePerson, ClientCompany, ClientGovernment:
		return true
	}
	return false
}

type WorkClass string

const (
	WorkClassEconomy  WorkClass = "economy"
	WorkClassComfort  WorkClass = "comfort"
	WorkClassBusiness WorkClass = "business"
	WorkClassPremium  WorkClass = "premium"
)

func (w WorkClass) Valid() bool {
	switch w {
	case WorkClassEconomy, WorkClassComfort, WorkClassBusiness, WorkClassPremium:
		return true
	}
	return false
}

type WorkLocation string

const (
	WorkInside  WorkLocation = "inside"
	WorkOutside WorkLocation = "outside"
)

func (w WorkLocation) Valid() bool { return w == WorkInside || w == WorkOutside }

type ObjectCategory string

const (
	ObjectResidential ObjectCategory = "residential"
	ObjectCommercial  ObjectCategory = "commercial"
	ObjectIndustrial  ObjectCategory = "industrial"
	ObjectOther       ObjectCategory = "other"
)

func (o ObjectCategory) Valid() bool {
	switch o {
	case ObjectResidential, ObjectCommercial, ObjectIndustrial, ObjectOther:
		return true
	}
	return false
}

type CommercialObjectType string

const (
	CommercialMall                CommercialObjectType = "mall"
	CommercialStandalone          CommercialObjectType = "standalone_commercial"
	CommercialResidentialBuilding CommercialObjectType = "residential_building_commercial"
)

func (c CommercialObjectType) Valid() bool {
	switch c {
	case CommercialMall, CommercialStandalone, CommercialResidentialBuilding:
		return true
	}
	return false
}

// MallArea tags a retail-area type; profiles key mall defaults by it.
type MallArea string

const (
	MallTenantUnit  MallArea = "tenant_unit"
	MallCommonAreas MallArea = "common_areas"
)

func (m MallArea) Valid() bool { return m == MallTenantUnit || m == MallCommonAreas }

// MallAreas lists every known mall area tag.
func MallAreas() []MallArea { return []MallArea{MallTenantUnit, MallCommonAreas} }

type HeightWorkCondition string

const (
	HeightOnFacade         HeightWorkCondition = "on_facade"
	HeightAboveOpenings    HeightWorkCondition = "above_openings"
	HeightAboveActiveZones HeightWorkCondition = "above_active_zones"
)

func (h HeightWorkCondition) Valid() bool {
	switch h {
	case HeightOnFacade, HeightAboveOpenings, HeightAboveActiveZones:
		return true
	}
	return false
}

type HeightAccessMethod string

const (
	AccessLadder   HeightAccessMethod = "ladder"
	AccessScaffold HeightAccessMethod = "scaffold"
	AccessTower    HeightAccessMethod = "tower"
	AccessLift     HeightAccessMethod = "lift"
	AccessCrane    HeightAccessMethod = "crane"
	AccessRope     HeightAccessMethod = "rope"
)

func (h HeightAccessMethod) Valid() bool {
	switch h {
	case AccessLadder, AccessScaffold, AccessTower, AccessLift, AccessCrane, AccessRope:
		return true
	}
	return false
}

type ProtectionTarget string

const (
	ProtectFloor       ProtectionTarget = "floor"
	ProtectWalls       ProtectionTarget = "walls"
	ProtectWindows     ProtectionTarget = "windows"
	ProtectCommonAreas ProtectionTarget = "common_areas"
)

func (p ProtectionTarget) Valid() bool {
	switch p {
	case ProtectFloor, ProtectWalls, ProtectWindows, ProtectCommonAreas:
		return true
	}
	return false
}

type Payer string

const (
	PayerCustomer   Payer = "customer"
	PayerContractor Payer = "contractor"
	PayerIncluded   Payer = "included"
	PayerSeparate   Payer = "separate"
)

func (p Payer) Valid() bool {
	switch p {
	case PayerCustomer, PayerContractor, PayerIncluded, PayerSeparate:
		return true
	}
	return false
}
