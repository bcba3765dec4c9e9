package decision

import (
	"context"
	"math"

	"rialto/internal/domain/sim"
)

// Leisure handlers only run inside the class's leisure window; the
// orchestrator picks one weighted-random candidate first, then falls back
// to personal shopping.

type attendTheaterHandler struct{ d *Deps }

func (h attendTheaterHandler) Kind() HandlerKind { return KindAttendTheater }

func (h attendTheaterHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	return h.d.visitVenue(ctx, dc, h.d.Tuning.TheaterTypes, sim.ActivityAttendTheater, 1)
}

type prayHandler struct{ d *Deps }

func (h prayHandler) Kind() HandlerKind { return KindPray }

func (h prayHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	return h.d.visitVenue(ctx, dc, h.d.Tuning.ChurchTypes, sim.ActivityPray, 0)
}

type promenadeHandler struct{ d *Deps }

func (h promenadeHandler) Kind() HandlerKind { return KindPromenade }

func (h promenadeHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Position == nil {
		return nil, nil
	}
	return h.d.stationary(dc, sim.ActivityPromenade, "", h.d.Tuning.LeisureDuration, nil), nil
}

type drinkAtTavernHandler struct{ d *Deps }

func (h drinkAtTavernHandler) Kind() HandlerKind { return KindDrinkAtTavern }

func (h drinkAtTavernHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	return h.d.visitVenue(ctx, dc, h.d.Tuning.TavernTypes, sim.ActivityDrinkAtTavern, 2)
}

type personalShoppingHandler struct{ d *Deps }

func (h personalShoppingHandler) Kind() HandlerKind { return KindPersonalShopping }

func (h personalShoppingHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Citizen.Ducats <= 0 || dc.Position == nil {
		return nil, nil
	}
	stalls, err := h.d.buildingsOfTypes(ctx, h.d.Tuning.RetailFoodTypes)
	if err != nil {
		return nil, err
	}
	stall := sim.NearestBuilding(*dc.Position, stalls)
	if stall == nil {
		return nil, nil
	}
	payload := sim.VenuePayload{VenueBuildingID: stall.ID}
	if dc.At(stall, h.d.Tuning.ArrivalTolerance) {
		return h.d.stationary(dc, sim.ActivityShopping, stall.ID, h.d.Tuning.LeisureDuration, payload), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityShopping, *stall, payload), nil
}

// visitVenue handles the shared leisure shape: require funds for the
// entry fee, find the nearest venue of the given types, travel or stay.
func (d *Deps) visitVenue(ctx context.Context, dc *DecisionContext, types []string, typ sim.ActivityType, entryFee float64) (*sim.Activity, error) {
	if dc.Position == nil || dc.Citizen.Ducats < entryFee {
		return nil, nil
	}
	venues, err := d.buildingsOfTypes(ctx, types)
	if err != nil {
		return nil, err
	}
	var nearest *sim.Building
	best := math.MaxFloat64
	for i := range venues {
		dist := sim.DistanceMeters(*dc.Position, venues[i].Position)
		if dist < best {
			best = dist
			nearest = &venues[i]
		}
	}
	if nearest == nil {
		return nil, nil
	}
	payload := sim.VenuePayload{VenueBuildingID: nearest.ID, UnitPrice: entryFee}
	if dc.At(nearest, d.Tuning.ArrivalTolerance) {
		ok, err := d.chargeFunds(ctx, dc, entryFee, "entry fee", nearest.ID)
		if err != nil || !ok {
			return nil, err
		}
		return d.stationary(dc, typ, nearest.ID, d.Tuning.LeisureDuration, payload), nil
	}
	act := d.travelTo(ctx, dc, typ, *nearest, payload)
	if act == nil {
		return nil, nil
	}
	act.EndAt = act.EndAt.Add(d.Tuning.LeisureDuration)
	return act, nil
}
