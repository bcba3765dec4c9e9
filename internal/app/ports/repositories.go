package ports

import (
	"context"
	"time"

	"rialto/internal/domain/sim"
)

type CitizenRepository interface {
	GetByID(ctx context.Context, citizenID string) (sim.Citizen, error)
	ListEligible(ctx context.Context) ([]sim.Citizen, error)
	SavePosition(ctx context.Context, citizenID string, pos sim.Position) error
}

type ActivityRepository interface {
	Create(ctx context.Context, activity sim.Activity) error
	GetByID(ctx context.Context, activityID string) (sim.Activity, error)
	FindOpenByCitizen(ctx context.Context, citizenID string) (*sim.Activity, error)
	UpdateStatus(ctx context.Context, activityID string, status sim.ActivityStatus, at time.Time) error
}

type ContractRepository interface {
	Create(ctx context.Context, contract sim.Contract) error
	GetByID(ctx context.Context, contractID string) (sim.Contract, error)
	// FindStorageLease returns the buyer's active storage lease for the
	// resource, or ErrNotFound.
	FindStorageLease(ctx context.Context, buyerID, resourceType string, at time.Time) (sim.Contract, error)
	// FindRecurrentSupply returns the buyer's active standing supply
	// contract for the resource, or ErrNotFound.
	FindRecurrentSupply(ctx context.Context, buyerID, resourceType string, at time.Time) (sim.Contract, error)
	// ListPublicSellByResource returns active public sale contracts for
	// the resource ordered ascending by unit price.
	ListPublicSellByResource(ctx context.Context, resourceType string, at time.Time) ([]sim.Contract, error)
	// ListActiveBySeller filters by contract type and seller; an empty
	// sellerID matches any seller.
	ListActiveBySeller(ctx context.Context, sellerID string, contractType sim.ContractType, at time.Time) ([]sim.Contract, error)
	// ReserveQuantity decrements a contract's remaining amount with an
	// optimistic version check; returns ErrConflict on a lost race.
	ReserveQuantity(ctx context.Context, contractID string, amount float64, expectedVersion int64) error
}

type StackRepository interface {
	ListCarriedByCitizen(ctx context.Context, citizenID string) ([]sim.ResourceStack, error)
	ListByBuilding(ctx context.Context, buildingID string) ([]sim.ResourceStack, error)
	// AmountAt reports how much of one resource a building currently holds,
	// optionally restricted to a given owner ("" for anyone).
	AmountAt(ctx context.Context, buildingID, resourceType, ownerID string) (float64, error)
	// DepositCarried moves every carried stack of the citizen into the
	// building in one atomic operation and returns the moved stacks.
	DepositCarried(ctx context.Context, citizenID, buildingID string) ([]sim.ResourceStack, error)
}

type BuildingRepository interface {
	GetByID(ctx context.Context, buildingID string) (sim.Building, error)
	ListByType(ctx context.Context, buildingType string) ([]sim.Building, error)
	ListByOperator(ctx context.Context, operatorID string) ([]sim.Building, error)
	ListUnderConstruction(ctx context.Context) ([]sim.Building, error)
}

type StratagemRepository interface {
	Create(ctx context.Context, stratagem sim.Stratagem) error
	ListActive(ctx context.Context, at time.Time) ([]sim.Stratagem, error)
	UpdateStatus(ctx context.Context, stratagemID string, status sim.StratagemStatus) error
}
