package decision

import (
	"context"
	"errors"
	"time"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

// route wraps the pathfinding collaborator; any failure means "cannot
// reach" and the caller declines.
func (d *Deps) route(ctx context.Context, from, to sim.Position) (*sim.Route, bool) {
	r, err := d.Path.FindPath(ctx, from, to)
	if err != nil {
		return nil, false
	}
	return &r, true
}

func (d *Deps) travelTo(ctx context.Context, dc *DecisionContext, typ sim.ActivityType, target sim.Building, payload sim.Payload) *sim.Activity {
	if dc.Position == nil {
		return nil
	}
	route, ok := d.route(ctx, *dc.Position, target.Position)
	if !ok {
		return nil
	}
	end := dc.Now.Add(time.Duration(route.DurationSeconds) * time.Second)
	return &sim.Activity{
		Type:         typ,
		CitizenID:    dc.Citizen.ID,
		ToBuildingID: target.ID,
		Route:        route,
		Status:       sim.ActivityCreated,
		CreatedAt:    dc.Now,
		StartAt:      dc.Now,
		EndAt:        end,
		Payload:      payload,
	}
}

func (d *Deps) stationary(dc *DecisionContext, typ sim.ActivityType, at string, duration time.Duration, payload sim.Payload) *sim.Activity {
	return &sim.Activity{
		Type:           typ,
		CitizenID:      dc.Citizen.ID,
		FromBuildingID: at,
		ToBuildingID:   at,
		Status:         sim.ActivityCreated,
		CreatedAt:      dc.Now,
		StartAt:        dc.Now,
		EndAt:          dc.Now.Add(duration),
		Payload:        payload,
	}
}

// chargeFunds debits the price before the activity is scheduled. An
// insufficient balance is a decline, not an error: the citizen gets a
// notice and the chain moves on.
func (d *Deps) chargeFunds(ctx context.Context, dc *DecisionContext, total float64, what, buildingID string) (bool, error) {
	total = sim.RoundAmount(total, d.Tuning.AmountDecimals)
	if total <= 0 {
		return true, nil
	}
	err := d.Ledger.AdjustBalance(ctx, dc.Citizen.ID, -total, what+" at "+buildingID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ports.ErrInsufficientFunds) {
		d.Notify.Notify(dc.Citizen.ID, "insufficient_funds", "cannot cover "+what, map[string]any{
			"building_id": buildingID,
			"amount":      total,
		})
		return false, nil
	}
	return false, err
}

// restEnd is the end of a rest activity: the start of the next day, but
// never more than one full sleep away.
func (d *Deps) restEnd(dc *DecisionContext) time.Time {
	until := d.Tuning.ScheduleFor(dc.Citizen.Class).NextDayStart(dc.Now)
	if d.Tuning.RestDuration > 0 && until.Sub(dc.Now) > d.Tuning.RestDuration {
		until = dc.Now.Add(d.Tuning.RestDuration)
	}
	return until
}

// cheapestFoodOffer finds the venue's lowest-priced active food sale, or
// nil when it sells none.
func (d *Deps) cheapestFoodOffer(ctx context.Context, venue sim.Building, at time.Time) (*sim.Contract, error) {
	if venue.OperatorID == "" {
		return nil, nil
	}
	contracts, err := d.Contracts.ListActiveBySeller(ctx, venue.OperatorID, sim.ContractPublicSell, at)
	if err != nil {
		return nil, err
	}
	var best *sim.Contract
	for i := range contracts {
		c := contracts[i]
		if c.SellerBuildingID != venue.ID || !d.Tuning.IsFood(c.ResourceType) {
			continue
		}
		if c.RemainingAmount < d.Tuning.MinTradeAmount || c.PricePerUnit <= 0 {
			continue
		}
		if best == nil || c.PricePerUnit < best.PricePerUnit {
			best = &contracts[i]
		}
	}
	return best, nil
}

func (d *Deps) buildingsOfTypes(ctx context.Context, types []string) ([]sim.Building, error) {
	out := make([]sim.Building, 0, 16)
	for _, t := range types {
		buildings, err := d.Buildings.ListByType(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, buildings...)
	}
	return out, nil
}

func routeDuration(r sim.Route) time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

func minPositive(a, b float64) float64 {
	if b > 0 && b < a {
		return b
	}
	return a
}

func classTier(c sim.SocialClass) int {
	return int(c)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
