package decision

import (
	"context"
	"errors"
	"fmt"

	"rialto/internal/app/activity"
	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type Decision struct {
	Activity sim.Activity `json:"activity"`
	Handler  HandlerKind  `json:"handler"`
	Busy     bool         `json:"busy"`
}

// Orchestrator walks the tiered handler chain once per citizen per tick
// and persists the first activity produced. It never returns an empty
// decision: idle is the universal fallback.
type Orchestrator struct {
	deps *Deps
	regs []Registration
}

func NewOrchestrator(deps *Deps) *Orchestrator {
	return &Orchestrator{deps: deps, regs: registry(deps)}
}

// Decide is idempotent: a citizen with an open activity gets it back
// unchanged and no new activity is created.
func (o *Orchestrator) Decide(ctx context.Context, citizenID string) (Decision, error) {
	open, err := o.deps.Store.FindOpenForCitizen(ctx, citizenID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: find open activity: %w", ports.ErrStoreUnavailable, err)
	}
	if open != nil {
		return Decision{Activity: *open, Busy: true}, nil
	}

	citizen, err := o.deps.Citizens.GetByID(ctx, citizenID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("%w: load citizen: %w", ports.ErrStoreUnavailable, err)
	}

	dc, err := o.deps.buildContext(ctx, citizen)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: build decision context: %w", ports.ErrStoreUnavailable, err)
	}

	for _, tier := range []Tier{TierCritical, TierLeisure, TierWork, TierManagement, TierFallback} {
		if !o.tierOpen(tier, dc) {
			continue
		}
		regs := o.tierRegistrations(tier)
		if tier == TierLeisure {
			regs = o.leisureOrder(regs)
		}
		for _, reg := range regs {
			act := o.try(ctx, reg, dc)
			if act == nil {
				continue
			}
			return o.persist(ctx, reg.Handler.Kind(), *act)
		}
	}

	// Every handler declined, including the idle handler. Still end the
	// tick with a visible idle activity.
	idle := sim.NewIdle(citizenID, dc.Now, o.deps.Tuning.IdleDuration, "no viable behavior")
	return o.persist(ctx, KindIdle, idle)
}

func (o *Orchestrator) persist(ctx context.Context, kind HandlerKind, act sim.Activity) (Decision, error) {
	created, err := o.deps.Store.Create(ctx, act)
	if err != nil {
		if errors.Is(err, activity.ErrCitizenBusy) {
			// Another scheduler won the race; treat as busy no-op.
			if open, findErr := o.deps.Store.FindOpenForCitizen(ctx, act.CitizenID); findErr == nil && open != nil {
				return Decision{Activity: *open, Busy: true}, nil
			}
			return Decision{Busy: true}, nil
		}
		return Decision{}, fmt.Errorf("%w: create activity: %w", ports.ErrStoreUnavailable, err)
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordDecision(string(kind))
		if kind == KindIdle {
			o.deps.Metrics.RecordFallback()
		}
	}
	o.deps.log().Debug("decision: scheduled", "citizen_id", act.CitizenID, "handler", kind, "activity_type", created.Type)
	return Decision{Activity: created, Handler: kind}, nil
}

func (o *Orchestrator) tierOpen(tier Tier, dc *DecisionContext) bool {
	switch tier {
	case TierLeisure:
		return dc.DayPart == sim.PartLeisure
	case TierWork:
		return dc.DayPart == sim.PartWork
	}
	return true
}

func (o *Orchestrator) tierRegistrations(tier Tier) []Registration {
	out := make([]Registration, 0, 9)
	for _, reg := range o.regs {
		if reg.Tier == tier {
			out = append(out, reg)
		}
	}
	return out
}

// leisureOrder picks one weighted-random candidate to try first; the
// unweighted registrations (personal shopping) keep their place as the
// tier's fallback.
func (o *Orchestrator) leisureOrder(regs []Registration) []Registration {
	weighted := make([]Registration, 0, len(regs))
	rest := make([]Registration, 0, len(regs))
	total := 0
	for _, reg := range regs {
		if reg.Weight > 0 {
			weighted = append(weighted, reg)
			total += reg.Weight
		} else {
			rest = append(rest, reg)
		}
	}
	if len(weighted) == 0 || o.deps.Rand == nil {
		return regs
	}
	pick := o.deps.intn(total)
	for _, reg := range weighted {
		pick -= reg.Weight
		if pick < 0 {
			return append([]Registration{reg}, rest...)
		}
	}
	return regs
}

// try runs one handler with the boundary guards: panics and errors are
// logged and converted to a decline so one bad handler never blocks the
// chain.
func (o *Orchestrator) try(ctx context.Context, reg Registration, dc *DecisionContext) (act *sim.Activity) {
	defer func() {
		if rec := recover(); rec != nil {
			o.deps.log().Error("decision: handler panicked", "handler", reg.Handler.Kind(), "citizen_id", dc.Citizen.ID, "panic", rec)
			if o.deps.Metrics != nil {
				o.deps.Metrics.RecordHandlerFailure(string(reg.Handler.Kind()))
			}
			act = nil
		}
	}()
	act, err := reg.Handler.Decide(ctx, dc)
	if err != nil {
		o.deps.log().Warn("decision: handler failed", "handler", reg.Handler.Kind(), "citizen_id", dc.Citizen.ID, "err", err)
		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordHandlerFailure(string(reg.Handler.Kind()))
		}
		return nil
	}
	if act != nil && act.Priority == 0 {
		act.Priority = int(reg.Tier)*10 + reg.Priority
	}
	return act
}
