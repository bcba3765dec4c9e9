package acquire

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type SourceKind string

const (
	SourceStorageLease SourceKind = "storage_lease"
	SourceRecurrent    SourceKind = "recurrent_supply"
	SourceMarket       SourceKind = "market"
	SourceGeneric      SourceKind = "generic"
)

type Demand struct {
	Buyer         sim.Citizen
	BuyerBuilding *sim.Building
	ResourceType  string
	Amount        float64
}

// Plan is a priced, path-validated supply plan. Amount never exceeds
// min(needed, seller stock, buyer affordable).
type Plan struct {
	Source           SourceKind
	SourceBuildingID string
	ContractID       string
	Amount           float64
	UnitPrice        float64
	Route            sim.Route
}

// Resolver walks the supply cascade: dedicated storage lease, standing
// supply contract, open market ascending by price, then a bounded generic
// fetch. The first viable, reachable candidate wins.
type Resolver struct {
	Contracts ports.ContractRepository
	Stacks    ports.StackRepository
	Buildings ports.BuildingRepository
	Path      ports.Pathfinder
	Cooldowns *FetchCooldowns
	Metrics   ConflictRecorder
	Tuning    sim.Tuning
	Log       *slog.Logger
	Now       func() time.Time
}

// ConflictRecorder counts reservation races lost to another buyer.
type ConflictRecorder interface {
	RecordConflict()
}

// Acquire returns nil when no source is viable, including the generic
// fallback (which requires a reachable public source building).
func (r *Resolver) Acquire(ctx context.Context, d Demand) (*Plan, error) {
	if d.ResourceType == "" || d.Amount < r.Tuning.MinTradeAmount {
		return nil, nil
	}
	now := r.now()

	if plan, err := r.fromStorageLease(ctx, d, now); err != nil {
		return nil, err
	} else if plan != nil {
		return plan, nil
	}
	if plan, err := r.fromRecurrentSupply(ctx, d, now); err != nil {
		return nil, err
	} else if plan != nil {
		return plan, nil
	}
	if plan, err := r.fromOpenMarket(ctx, d, now); err != nil {
		return nil, err
	} else if plan != nil {
		return plan, nil
	}
	return r.genericFetch(ctx, d)
}

func (r *Resolver) fromStorageLease(ctx context.Context, d Demand, now time.Time) (*Plan, error) {
	lease, err := r.Contracts.FindStorageLease(ctx, d.Buyer.ID, d.ResourceType, now)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lease.SellerBuildingID == "" || r.Cooldowns.Excluded(lease.ID, now) {
		return nil, nil
	}
	held, err := r.Stacks.AmountAt(ctx, lease.SellerBuildingID, d.ResourceType, d.Buyer.ID)
	if err != nil {
		return nil, err
	}
	amount := r.clamp(minFloat(d.Amount, held, lease.TargetAmount))
	if amount < r.Tuning.MinTradeAmount {
		return nil, nil
	}
	route, ok := r.routeTo(ctx, d, lease.SellerBuildingID)
	if !ok {
		return nil, nil
	}
	return &Plan{
		Source:           SourceStorageLease,
		SourceBuildingID: lease.SellerBuildingID,
		ContractID:       lease.ID,
		Amount:           amount,
		UnitPrice:        0,
		Route:            route,
	}, nil
}

func (r *Resolver) fromRecurrentSupply(ctx context.Context, d Demand, now time.Time) (*Plan, error) {
	contract, err := r.Contracts.FindRecurrentSupply(ctx, d.Buyer.ID, d.ResourceType, now)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if contract.SellerBuildingID == "" || r.Cooldowns.Excluded(contract.ID, now) {
		return nil, nil
	}
	stock, err := r.Stacks.AmountAt(ctx, contract.SellerBuildingID, d.ResourceType, "")
	if err != nil {
		return nil, err
	}
	amount := r.clamp(minFloat(d.Amount, contract.RemainingAmount, stock))
	if amount < r.Tuning.MinTradeAmount {
		return nil, nil
	}
	route, ok := r.routeTo(ctx, d, contract.SellerBuildingID)
	if !ok {
		return nil, nil
	}
	if err := r.reserve(ctx, contract, amount); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			r.recordConflict()
			return nil, nil
		}
		return nil, err
	}
	return &Plan{
		Source:           SourceRecurrent,
		SourceBuildingID: contract.SellerBuildingID,
		ContractID:       contract.ID,
		Amount:           amount,
		UnitPrice:        contract.PricePerUnit,
		Route:            route,
	}, nil
}

func (r *Resolver) fromOpenMarket(ctx context.Context, d Demand, now time.Time) (*Plan, error) {
	contracts, err := r.Contracts.ListPublicSellByResource(ctx, d.ResourceType, now)
	if err != nil {
		return nil, err
	}
	for _, contract := range contracts {
		if contract.SellerBuildingID == "" || contract.PricePerUnit <= 0 {
			continue
		}
		if r.Cooldowns.Excluded(contract.ID, now) {
			continue
		}
		affordable := d.Buyer.Ducats / contract.PricePerUnit
		stock, err := r.Stacks.AmountAt(ctx, contract.SellerBuildingID, d.ResourceType, "")
		if err != nil {
			return nil, err
		}
		amount := r.clamp(minFloat(d.Amount, contract.RemainingAmount, affordable, stock))
		if amount < r.Tuning.MinTradeAmount {
			continue
		}
		route, ok := r.routeTo(ctx, d, contract.SellerBuildingID)
		if !ok {
			continue
		}
		if err := r.reserve(ctx, contract, amount); err != nil {
			if errors.Is(err, ports.ErrConflict) {
				// Lost the race on this contract; the next-cheapest
				// candidate takes over.
				r.recordConflict()
				continue
			}
			return nil, err
		}
		return &Plan{
			Source:           SourceMarket,
			SourceBuildingID: contract.SellerBuildingID,
			ContractID:       contract.ID,
			Amount:           amount,
			UnitPrice:        contract.PricePerUnit,
			Route:            route,
		}, nil
	}
	return nil, nil
}

func (r *Resolver) genericFetch(ctx context.Context, d Demand) (*Plan, error) {
	amount := r.clamp(minFloat(d.Amount, r.Tuning.GenericFetchCap))
	if amount < r.Tuning.MinTradeAmount {
		return nil, nil
	}
	docks, err := r.Buildings.ListByType(ctx, r.Tuning.DockType)
	if err != nil {
		return nil, err
	}
	from, ok := buyerPosition(d)
	if !ok {
		return nil, nil
	}
	nearest := sim.NearestBuilding(from, docks)
	if nearest == nil {
		return nil, nil
	}
	route, err := r.Path.FindPath(ctx, from, nearest.Position)
	if err != nil {
		return nil, nil
	}
	return &Plan{
		Source:           SourceGeneric,
		SourceBuildingID: nearest.ID,
		Amount:           amount,
		Route:            route,
	}, nil
}

func (r *Resolver) recordConflict() {
	if r.Metrics != nil {
		r.Metrics.RecordConflict()
	}
}

func (r *Resolver) reserve(ctx context.Context, contract sim.Contract, amount float64) error {
	return r.Contracts.ReserveQuantity(ctx, contract.ID, amount, contract.Version)
}

func (r *Resolver) routeTo(ctx context.Context, d Demand, buildingID string) (sim.Route, bool) {
	from, ok := buyerPosition(d)
	if !ok {
		return sim.Route{}, false
	}
	target, err := r.Buildings.GetByID(ctx, buildingID)
	if err != nil {
		r.log().Warn("acquire: source building missing", "building_id", buildingID, "err", err)
		return sim.Route{}, false
	}
	route, err := r.Path.FindPath(ctx, from, target.Position)
	if err != nil {
		return sim.Route{}, false
	}
	return route, true
}

func buyerPosition(d Demand) (sim.Position, bool) {
	if d.Buyer.Position != nil {
		return *d.Buyer.Position, true
	}
	if d.BuyerBuilding != nil {
		return d.BuyerBuilding.Position, true
	}
	return sim.Position{}, false
}

func (r *Resolver) clamp(x float64) float64 {
	return sim.RoundAmount(x, r.Tuning.AmountDecimals)
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func minFloat(first float64, rest ...float64) float64 {
	out := first
	for _, v := range rest {
		if v < out {
			out = v
		}
	}
	return out
}
