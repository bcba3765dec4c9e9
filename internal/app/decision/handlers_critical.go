package decision

import (
	"context"
	"math"

	"rialto/internal/domain/sim"
)

type leaveCityHandler struct{ d *Deps }

func (h leaveCityHandler) Kind() HandlerKind { return KindLeaveCity }

func (h leaveCityHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if !dc.Citizen.IsVisitor() || !dc.Citizen.DepartureDue(dc.Now) {
		return nil, nil
	}
	if dc.Position == nil {
		return nil, nil
	}
	docks, err := h.d.Buildings.ListByType(ctx, h.d.Tuning.DockType)
	if err != nil {
		return nil, err
	}
	dock := sim.NearestBuilding(*dc.Position, docks)
	if dock == nil {
		return nil, nil
	}
	if dc.At(dock, h.d.Tuning.ArrivalTolerance) {
		return h.d.stationary(dc, sim.ActivityLeaveCity, dock.ID, h.d.Tuning.IdleDuration, nil), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityGotoLocation, *dock, nil), nil
}

type eatFromInventoryHandler struct{ d *Deps }

func (h eatFromInventoryHandler) Kind() HandlerKind { return KindEatFromInventory }

func (h eatFromInventoryHandler) Decide(_ context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if !dc.Hungry {
		return nil, nil
	}
	stack := dc.CarriedFood(h.d.Tuning)
	if stack == nil {
		return nil, nil
	}
	amount := math.Min(stack.Amount, 1)
	payload := sim.ManifestPayload{
		Items:  []sim.ResourceAmount{{ResourceType: stack.ResourceType, Amount: amount}},
		Source: "inventory",
	}
	return h.d.stationary(dc, sim.ActivityEat, "", h.d.Tuning.MealDuration, payload), nil
}

type eatAtHomeHandler struct{ d *Deps }

func (h eatAtHomeHandler) Kind() HandlerKind { return KindEatAtHome }

func (h eatAtHomeHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if !dc.Hungry || dc.Home == nil {
		return nil, nil
	}
	var food *sim.ResourceAmount
	for _, res := range h.d.Tuning.FoodResources {
		held, err := h.d.Stacks.AmountAt(ctx, dc.Home.ID, res, dc.Citizen.ID)
		if err != nil {
			return nil, err
		}
		if held >= h.d.Tuning.MinTradeAmount {
			food = &sim.ResourceAmount{ResourceType: res, Amount: math.Min(held, 1)}
			break
		}
	}
	if food == nil {
		return nil, nil
	}
	payload := sim.ManifestPayload{Items: []sim.ResourceAmount{*food}, Source: "home"}
	if dc.At(dc.Home, h.d.Tuning.ArrivalTolerance) {
		return h.d.stationary(dc, sim.ActivityEat, dc.Home.ID, h.d.Tuning.MealDuration, payload), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityGotoHome, *dc.Home, payload), nil
}

type emergencyFishingHandler struct{ d *Deps }

func (h emergencyFishingHandler) Kind() HandlerKind { return KindEmergencyFishing }

func (h emergencyFishingHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if !dc.Starving || dc.Home == nil || dc.Home.Type != h.d.Tuning.FishermanHomeType {
		return nil, nil
	}
	if dc.Position == nil {
		return nil, nil
	}
	docks, err := h.d.Buildings.ListByType(ctx, h.d.Tuning.DockType)
	if err != nil {
		return nil, err
	}
	dock := sim.NearestBuilding(*dc.Position, docks)
	if dock == nil {
		return nil, nil
	}
	if dc.At(dock, h.d.Tuning.ArrivalTolerance) {
		return h.d.stationary(dc, sim.ActivityEmergencyFishing, dock.ID, h.d.Tuning.WorkShiftDuration, nil), nil
	}
	act := h.d.travelTo(ctx, dc, sim.ActivityEmergencyFishing, *dock, nil)
	if act == nil {
		return nil, nil
	}
	act.EndAt = act.EndAt.Add(h.d.Tuning.WorkShiftDuration)
	return act, nil
}

type shopForFoodHandler struct{ d *Deps }

func (h shopForFoodHandler) Kind() HandlerKind { return KindShopForFood }

func (h shopForFoodHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if !dc.Hungry || dc.Home == nil || dc.Citizen.Ducats <= 0 || dc.Position == nil {
		return nil, nil
	}
	venues, err := h.d.buildingsOfTypes(ctx, h.d.Tuning.RetailFoodTypes)
	if err != nil {
		return nil, err
	}

	var (
		bestVenue    *sim.Building
		bestContract *sim.Contract
		bestMismatch = math.MaxInt32
		bestScore    = math.MaxFloat64
	)
	for i := range venues {
		venue := venues[i]
		offer, err := h.d.cheapestFoodOffer(ctx, venue, dc.Now)
		if err != nil {
			return nil, err
		}
		if offer == nil || offer.PricePerUnit > dc.Citizen.Ducats {
			continue
		}
		mismatch := absInt(venue.Tier - classTier(dc.Citizen.Class))
		score := offer.PricePerUnit * sim.DistanceMeters(*dc.Position, venue.Position)
		if mismatch < bestMismatch || (mismatch == bestMismatch && score < bestScore) {
			bestMismatch = mismatch
			bestScore = score
			bestVenue = &venues[i]
			bestContract = offer
		}
	}
	if bestVenue == nil || bestContract == nil {
		return nil, nil
	}

	affordable := dc.Citizen.Ducats / bestContract.PricePerUnit
	amount := sim.RoundAmount(math.Min(math.Min(h.d.Tuning.FoodShopAmount, bestContract.RemainingAmount), affordable), h.d.Tuning.AmountDecimals)
	if amount < h.d.Tuning.MinTradeAmount {
		return nil, nil
	}
	ok, err := h.d.chargeFunds(ctx, dc, bestContract.PricePerUnit*amount, "food purchase", bestVenue.ID)
	if err != nil || !ok {
		return nil, err
	}
	payload := sim.VenuePayload{
		VenueBuildingID: bestVenue.ID,
		ResourceType:    bestContract.ResourceType,
		UnitPrice:       bestContract.PricePerUnit,
		Amount:          amount,
	}
	act := h.d.travelTo(ctx, dc, sim.ActivityShopForFood, *bestVenue, payload)
	if act == nil {
		return nil, nil
	}
	act.EndAt = act.EndAt.Add(h.d.Tuning.MealDuration)
	return act, nil
}

type eatAtVenueHandler struct{ d *Deps }

func (h eatAtVenueHandler) Kind() HandlerKind { return KindEatAtVenue }

func (h eatAtVenueHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if !dc.Hungry || dc.Citizen.Ducats <= 0 || dc.Position == nil {
		return nil, nil
	}
	venues, err := h.d.buildingsOfTypes(ctx, h.d.Tuning.TavernTypes)
	if err != nil {
		return nil, err
	}

	var (
		bestVenue    *sim.Building
		bestContract *sim.Contract
		bestDist     = math.MaxFloat64
	)
	for i := range venues {
		offer, err := h.d.cheapestFoodOffer(ctx, venues[i], dc.Now)
		if err != nil {
			return nil, err
		}
		if offer == nil || offer.PricePerUnit > dc.Citizen.Ducats {
			continue
		}
		d := sim.DistanceMeters(*dc.Position, venues[i].Position)
		if d < bestDist {
			bestDist = d
			bestVenue = &venues[i]
			bestContract = offer
		}
	}
	if bestVenue == nil || bestContract == nil {
		return nil, nil
	}
	payload := sim.VenuePayload{
		VenueBuildingID: bestVenue.ID,
		ResourceType:    bestContract.ResourceType,
		UnitPrice:       bestContract.PricePerUnit,
		Amount:          1,
	}
	if dc.At(bestVenue, h.d.Tuning.ArrivalTolerance) {
		ok, err := h.d.chargeFunds(ctx, dc, bestContract.PricePerUnit, "venue meal", bestVenue.ID)
		if err != nil || !ok {
			return nil, err
		}
		return h.d.stationary(dc, sim.ActivityEatAtVenue, bestVenue.ID, h.d.Tuning.MealDuration, payload), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityTravelToVenue, *bestVenue, payload), nil
}

type depositFullInventoryHandler struct{ d *Deps }

func (h depositFullInventoryHandler) Kind() HandlerKind { return KindDepositFullInventory }

func (h depositFullInventoryHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Citizen.CarryCapacity <= 0 {
		return nil, nil
	}
	if dc.CarriedLoad/dc.Citizen.CarryCapacity < h.d.Tuning.DepositLoadRatio {
		return nil, nil
	}
	target := dc.Work
	if target == nil {
		target = dc.Home
	}
	if target == nil {
		return nil, nil
	}
	if dc.At(target, h.d.Tuning.ArrivalTolerance) {
		// Deposit on the spot and let the chain continue: unloading is
		// not a scheduled activity.
		if _, err := h.d.Stacks.DepositCarried(ctx, dc.Citizen.ID, target.ID); err != nil {
			return nil, err
		}
		dc.Carried = nil
		dc.CarriedLoad = 0
		return nil, nil
	}
	typ := sim.ActivityGotoWork
	if target == dc.Home {
		typ = sim.ActivityGotoHome
	}
	return h.d.travelTo(ctx, dc, typ, *target, nil), nil
}

type checkManagedBusinessHandler struct{ d *Deps }

func (h checkManagedBusinessHandler) Kind() HandlerKind { return KindCheckManagedBusiness }

func (h checkManagedBusinessHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	managed, err := h.d.Buildings.ListByOperator(ctx, dc.Citizen.ID)
	if err != nil {
		return nil, err
	}
	for i := range managed {
		b := managed[i]
		if !b.LastCheckedAt.IsZero() && dc.Now.Sub(b.LastCheckedAt) < h.d.Tuning.BusinessCheckEvery {
			continue
		}
		if dc.At(&b, h.d.Tuning.ArrivalTolerance) {
			return h.d.stationary(dc, sim.ActivityCheckBusiness, b.ID, h.d.Tuning.IdleDuration, nil), nil
		}
		if act := h.d.travelTo(ctx, dc, sim.ActivityCheckBusiness, b, nil); act != nil {
			return act, nil
		}
	}
	return nil, nil
}

type nightShelterHandler struct{ d *Deps }

func (h nightShelterHandler) Kind() HandlerKind { return KindNightShelter }

func (h nightShelterHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.DayPart != sim.PartRest {
		return nil, nil
	}
	until := h.d.restEnd(dc)

	// Visitors have no household here, but one lodged at an inn recorded
	// as their home returns to it.
	if dc.Home != nil && (!dc.Citizen.IsVisitor() || h.d.Tuning.IsLodging(*dc.Home)) {
		if dc.At(dc.Home, h.d.Tuning.ArrivalTolerance) {
			act := h.d.stationary(dc, sim.ActivityRest, dc.Home.ID, until.Sub(dc.Now), nil)
			act.EndAt = until
			return act, nil
		}
		return h.d.travelTo(ctx, dc, sim.ActivityGotoHome, *dc.Home, nil), nil
	}

	if dc.Position == nil {
		return nil, nil
	}
	lodgings, err := h.d.buildingsOfTypes(ctx, h.d.Tuning.LodgingTypes)
	if err != nil {
		return nil, err
	}
	inn := sim.NearestBuilding(*dc.Position, lodgings)
	if inn == nil {
		return nil, nil
	}
	if dc.At(inn, h.d.Tuning.ArrivalTolerance) {
		act := h.d.stationary(dc, sim.ActivityRest, inn.ID, until.Sub(dc.Now), nil)
		act.EndAt = until
		return act, nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityTravelToVenue, *inn, sim.VenuePayload{VenueBuildingID: inn.ID}), nil
}
