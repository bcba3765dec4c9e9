package gormrepo

import "time"

type citizenModel struct {
	ID             string `gorm:"primaryKey"`
	Name           string
	Class          int
	Lat            *float64
	Lng            *float64
	Ducats         float64
	CarryCapacity  float64
	LastMealAt     time.Time
	HomeBuildingID string `gorm:"index"`
	WorkBuildingID string `gorm:"index"`
	ArrivedAt      *time.Time
	DepartsAt      *time.Time
	Eligible       bool `gorm:"index"`
	Version        int64
}

func (citizenModel) TableName() string { return "citizens" }

type activityModel struct {
	ID   string `gorm:"primaryKey"`
	Type string
	// The partial unique index is the one-open-activity invariant's
	// backstop: a second open row for the same citizen fails the insert
	// even when two read-committed transactions pass the open-check.
	CitizenID      string `gorm:"index;uniqueIndex:ux_activities_open_citizen,where:status IN ('created','in_progress')"`
	FromBuildingID string
	ToBuildingID   string
	RouteJSON      []byte `gorm:"column:route_json"`
	Status         string `gorm:"index"`
	CreatedAt      time.Time
	StartAt        time.Time
	EndAt          time.Time
	Priority       int
	PayloadJSON    []byte `gorm:"column:payload_json"`
}

func (activityModel) TableName() string { return "activities" }

type contractModel struct {
	ID               string `gorm:"primaryKey"`
	Type             string `gorm:"index"`
	ResourceType     string `gorm:"index"`
	TargetAmount     float64
	RemainingAmount  float64
	PricePerUnit     float64
	SellerID         string `gorm:"index"`
	BuyerID          string `gorm:"index"`
	SellerBuildingID string
	BuyerBuildingID  string
	CreatedAt        time.Time
	// Nil means open-ended; a zero time.Time would be stored as 0001-01-01
	// and fail every end_at window predicate.
	EndAt   *time.Time
	Version int64
}

func (contractModel) TableName() string { return "contracts" }

type stackModel struct {
	ID           string `gorm:"primaryKey"`
	ResourceType string `gorm:"index"`
	Amount       float64
	OwnerID      string `gorm:"index"`
	Location     string
	BuildingID   string `gorm:"index"`
	Version      int64
}

func (stackModel) TableName() string { return "resource_stacks" }

type buildingModel struct {
	ID                string `gorm:"primaryKey"`
	Type              string `gorm:"index"`
	Name              string
	Tier              int
	Lat               float64
	Lng               float64
	OwnerID           string `gorm:"index"`
	OperatorID        string `gorm:"index"`
	OccupantID        string `gorm:"index"`
	StorageCapacity   float64
	UnderConstruction bool
	ConstructionLeft  float64
	LastCheckedAt     time.Time
	Version           int64
}

func (buildingModel) TableName() string { return "buildings" }

type stratagemModel struct {
	ID               string `gorm:"primaryKey"`
	Type             string `gorm:"index"`
	ExecutedBy       string `gorm:"index"`
	TargetCitizenID  string
	TargetBuildingID string
	ResourceType     string
	Variant          string
	Status           string `gorm:"index"`
	CreatedAt        time.Time
	ExpiresAt        time.Time
	Version          int64
}

func (stratagemModel) TableName() string { return "stratagems" }
