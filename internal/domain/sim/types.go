package sim

import "time"

type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type SocialClass int

const (
	ClassLaborer SocialClass = iota
	ClassArtisan
	ClassMerchant
	ClassPatrician
	ClassVisitor
)

func (c SocialClass) String() string {
	switch c {
	case ClassLaborer:
		return "laborer"
	case ClassArtisan:
		return "artisan"
	case ClassMerchant:
		return "merchant"
	case ClassPatrician:
		return "patrician"
	case ClassVisitor:
		return "visitor"
	}
	return "unknown"
}

type Citizen struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Class          SocialClass `json:"class"`
	Position       *Position   `json:"position,omitempty"`
	Ducats         float64     `json:"ducats"`
	CarryCapacity  float64     `json:"carry_capacity"`
	LastMealAt     time.Time   `json:"last_meal_at"`
	HomeBuildingID string      `json:"home_building_id,omitempty"`
	WorkBuildingID string      `json:"work_building_id,omitempty"`
	ArrivedAt      *time.Time  `json:"arrived_at,omitempty"`
	DepartsAt      *time.Time  `json:"departs_at,omitempty"`
	Version        int64       `json:"version"`
}

func (c Citizen) IsVisitor() bool {
	return c.Class == ClassVisitor
}

func (c Citizen) DepartureDue(now time.Time) bool {
	return c.DepartsAt != nil && !now.Before(*c.DepartsAt)
}

type Building struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Name              string    `json:"name,omitempty"`
	Tier              int       `json:"tier"`
	Position          Position  `json:"position"`
	OwnerID           string    `json:"owner_id,omitempty"`
	OperatorID        string    `json:"operator_id,omitempty"`
	OccupantID        string    `json:"occupant_id,omitempty"`
	StorageCapacity   float64   `json:"storage_capacity"`
	UnderConstruction bool      `json:"under_construction,omitempty"`
	ConstructionLeft  float64   `json:"construction_left,omitempty"`
	LastCheckedAt     time.Time `json:"last_checked_at"`
	Version           int64     `json:"version"`
}

type StackLocation string

const (
	StackCarried StackLocation = "carried"
	StackStored  StackLocation = "stored"
)

type ResourceStack struct {
	ID           string        `json:"id"`
	ResourceType string        `json:"resource_type"`
	Amount       float64       `json:"amount"`
	OwnerID      string        `json:"owner_id"`
	Location     StackLocation `json:"location"`
	BuildingID   string        `json:"building_id,omitempty"`
	Version      int64         `json:"version"`
}

type ContractType string

const (
	ContractPublicSell      ContractType = "public_sell"
	ContractStorageLease    ContractType = "storage_lease"
	ContractRecurrentSupply ContractType = "recurrent_supply"
	ContractLogistics       ContractType = "logistics_request"
	ContractBuildingListing ContractType = "building_listing"
	ContractBid             ContractType = "bid"
)

type Contract struct {
	ID               string       `json:"id"`
	Type             ContractType `json:"type"`
	ResourceType     string       `json:"resource_type,omitempty"`
	TargetAmount     float64      `json:"target_amount"`
	RemainingAmount  float64      `json:"remaining_amount"`
	PricePerUnit     float64      `json:"price_per_unit"`
	SellerID         string       `json:"seller_id,omitempty"`
	BuyerID          string       `json:"buyer_id,omitempty"`
	SellerBuildingID string       `json:"seller_building_id,omitempty"`
	BuyerBuildingID  string       `json:"buyer_building_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	EndAt            time.Time    `json:"end_at"`
	Version          int64        `json:"version"`
}

func (c Contract) ActiveAt(t time.Time) bool {
	if t.Before(c.CreatedAt) {
		return false
	}
	if !c.EndAt.IsZero() && t.After(c.EndAt) {
		return false
	}
	return true
}

type Route struct {
	Points          []Position `json:"points"`
	DurationSeconds int        `json:"duration_seconds"`
}

type StratagemType string

const (
	StratagemUndercut        StratagemType = "undercut"
	StratagemNightAmbush     StratagemType = "night_ambush"
	StratagemCoordinatePrice StratagemType = "coordinate_price"
	StratagemHoardResource   StratagemType = "hoard_resource"
)

type StratagemStatus string

const (
	StratagemActive   StratagemStatus = "active"
	StratagemExecuted StratagemStatus = "executed"
	StratagemFailed   StratagemStatus = "failed"
	StratagemExpired  StratagemStatus = "expired"
)

type Stratagem struct {
	ID               string          `json:"id"`
	Type             StratagemType   `json:"type"`
	ExecutedBy       string          `json:"executed_by"`
	TargetCitizenID  string          `json:"target_citizen_id,omitempty"`
	TargetBuildingID string          `json:"target_building_id,omitempty"`
	ResourceType     string          `json:"resource_type,omitempty"`
	Variant          string          `json:"variant,omitempty"`
	Status           StratagemStatus `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	ExpiresAt        time.Time       `json:"expires_at"`
	Version          int64           `json:"version"`
}

func (s Stratagem) ExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}
