package decision

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"rialto/internal/app/acquire"
	"rialto/internal/app/activity"
	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

// Deps is the orchestrator's full dependency set, shared by every
// handler.
type Deps struct {
	Citizens  ports.CitizenRepository
	Store     activity.Store
	Contracts ports.ContractRepository
	Stacks    ports.StackRepository
	Buildings ports.BuildingRepository
	Path      ports.Pathfinder
	Locations ports.LocationResolver
	Ledger    ports.Ledger
	Notify    ports.Notifier
	Acquire   *acquire.Resolver
	Metrics   ports.DecisionMetrics
	Tuning    sim.Tuning
	Log       *slog.Logger
	Now       func() time.Time
	Rand      *rand.Rand

	// randMu serializes draws: Decide runs on several tick workers at
	// once and *rand.Rand is not safe for concurrent use.
	randMu sync.Mutex
}

func (d *Deps) intn(n int) int {
	d.randMu.Lock()
	defer d.randMu.Unlock()
	return d.Rand.Intn(n)
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

// DecisionContext is the immutable per-citizen view every handler
// receives. Derived flags are computed once per decision.
type DecisionContext struct {
	Now         time.Time
	Citizen     sim.Citizen
	Position    *sim.Position
	DayPart     sim.DayPart
	Hungry      bool
	Starving    bool
	Carried     []sim.ResourceStack
	CarriedLoad float64
	Home        *sim.Building
	Work        *sim.Building
}

func (dc *DecisionContext) At(b *sim.Building, tolerance float64) bool {
	if b == nil || dc.Position == nil {
		return false
	}
	return sim.SamePlace(*dc.Position, b.Position, tolerance)
}

func (dc *DecisionContext) CarriedFood(tuning sim.Tuning) *sim.ResourceStack {
	for i := range dc.Carried {
		if tuning.IsFood(dc.Carried[i].ResourceType) && dc.Carried[i].Amount >= tuning.MinTradeAmount {
			return &dc.Carried[i]
		}
	}
	return nil
}

func (d *Deps) buildContext(ctx context.Context, citizen sim.Citizen) (*DecisionContext, error) {
	now := d.now()

	if citizen.Position == nil && d.Locations != nil {
		pos, err := d.Locations.AssignPosition(ctx, citizen)
		if err != nil {
			d.log().Warn("decision: position assignment failed", "citizen_id", citizen.ID, "err", err)
		} else {
			citizen.Position = &pos
			if err := d.Citizens.SavePosition(ctx, citizen.ID, pos); err != nil {
				d.log().Warn("decision: save position failed", "citizen_id", citizen.ID, "err", err)
			}
		}
	}

	carried, err := d.Stacks.ListCarriedByCitizen(ctx, citizen.ID)
	if err != nil {
		return nil, err
	}
	var load float64
	for _, s := range carried {
		load += s.Amount
	}

	dc := &DecisionContext{
		Now:         now,
		Citizen:     citizen,
		Position:    citizen.Position,
		DayPart:     d.Tuning.ScheduleFor(citizen.Class).PartAt(now.Hour()),
		Hungry:      hungerAge(citizen, now) >= d.Tuning.HungryAfter,
		Starving:    hungerAge(citizen, now) >= d.Tuning.StarvingAfter,
		Carried:     carried,
		CarriedLoad: load,
	}
	dc.Home = d.loadBuilding(ctx, citizen.HomeBuildingID, citizen.ID)
	dc.Work = d.loadBuilding(ctx, citizen.WorkBuildingID, citizen.ID)
	return dc, nil
}

func hungerAge(c sim.Citizen, now time.Time) time.Duration {
	if c.LastMealAt.IsZero() {
		return 1000 * time.Hour
	}
	return now.Sub(c.LastMealAt)
}

func (d *Deps) loadBuilding(ctx context.Context, buildingID, citizenID string) *sim.Building {
	if buildingID == "" {
		return nil
	}
	b, err := d.Buildings.GetByID(ctx, buildingID)
	if err != nil {
		d.log().Warn("decision: referenced building missing", "citizen_id", citizenID, "building_id", buildingID, "err", err)
		return nil
	}
	return &b
}
