package decision

import (
	"context"

	"rialto/internal/domain/sim"
)

type restInWindowHandler struct{ d *Deps }

func (h restInWindowHandler) Kind() HandlerKind { return KindRestInWindow }

func (h restInWindowHandler) Decide(_ context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.DayPart != sim.PartRest {
		return nil, nil
	}
	until := h.d.restEnd(dc)
	at := ""
	if dc.Home != nil && dc.At(dc.Home, h.d.Tuning.ArrivalTolerance) {
		at = dc.Home.ID
	}
	act := h.d.stationary(dc, sim.ActivityRest, at, until.Sub(dc.Now), nil)
	act.EndAt = until
	return act, nil
}

type depositInventoryHandler struct{ d *Deps }

func (h depositInventoryHandler) Kind() HandlerKind { return KindDepositInventory }

func (h depositInventoryHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.CarriedLoad < h.d.Tuning.MinTradeAmount {
		return nil, nil
	}
	for _, target := range []*sim.Building{dc.Work, dc.Home} {
		if target == nil || !dc.At(target, h.d.Tuning.ArrivalTolerance) {
			continue
		}
		if _, err := h.d.Stacks.DepositCarried(ctx, dc.Citizen.ID, target.ID); err != nil {
			return nil, err
		}
		dc.Carried = nil
		dc.CarriedLoad = 0
		return nil, nil
	}
	return nil, nil
}

type idleHandler struct{ d *Deps }

func (h idleHandler) Kind() HandlerKind { return KindIdle }

func (h idleHandler) Decide(_ context.Context, dc *DecisionContext) (*sim.Activity, error) {
	idle := sim.NewIdle(dc.Citizen.ID, dc.Now, h.d.Tuning.IdleDuration, "nothing pressing to do")
	return &idle, nil
}
