package decision

import (
	"context"

	"rialto/internal/app/acquire"
	"rialto/internal/domain/sim"
)

type constructionWorkHandler struct{ d *Deps }

func (h constructionWorkHandler) Kind() HandlerKind { return KindConstructionWork }

func (h constructionWorkHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	var site *sim.Building
	if dc.Work != nil && dc.Work.UnderConstruction {
		site = dc.Work
	} else {
		managed, err := h.d.Buildings.ListByOperator(ctx, dc.Citizen.ID)
		if err != nil {
			return nil, err
		}
		for i := range managed {
			if managed[i].UnderConstruction {
				site = &managed[i]
				break
			}
		}
	}
	// Laborers without a site of their own hire on at the nearest city
	// construction project.
	if site == nil && dc.Citizen.Class == sim.ClassLaborer && dc.Position != nil {
		sites, err := h.d.Buildings.ListUnderConstruction(ctx)
		if err != nil {
			return nil, err
		}
		site = sim.NearestBuilding(*dc.Position, sites)
	}
	if site == nil {
		return nil, nil
	}
	if dc.At(site, h.d.Tuning.ArrivalTolerance) {
		return h.d.stationary(dc, sim.ActivityConstruction, site.ID, h.d.Tuning.WorkShiftDuration, nil), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityGotoWork, *site, nil), nil
}

type productionAndRestockHandler struct{ d *Deps }

func (h productionAndRestockHandler) Kind() HandlerKind { return KindProductionAndRestock }

func (h productionAndRestockHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Work == nil || dc.Work.UnderConstruction {
		return nil, nil
	}
	recipe, ok := h.d.Tuning.Recipes[dc.Work.Type]
	if !ok {
		return nil, nil
	}
	if !dc.At(dc.Work, h.d.Tuning.ArrivalTolerance) {
		return h.d.travelTo(ctx, dc, sim.ActivityGotoWork, *dc.Work, nil), nil
	}

	// Inputs on hand mean a production shift; otherwise restock the first
	// missing input through the acquisition cascade.
	for _, input := range recipe.Inputs {
		held, err := h.d.Stacks.AmountAt(ctx, dc.Work.ID, input.ResourceType, "")
		if err != nil {
			return nil, err
		}
		if held >= input.Amount {
			continue
		}
		plan, err := h.d.Acquire.Acquire(ctx, acquire.Demand{
			Buyer:         dc.Citizen,
			BuyerBuilding: dc.Work,
			ResourceType:  input.ResourceType,
			Amount:        input.Amount - held,
		})
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, nil
		}
		return h.fetchActivity(dc, plan, input.ResourceType), nil
	}

	payload := sim.ManifestPayload{
		Items:  []sim.ResourceAmount{recipe.Output},
		Source: "production",
	}
	return h.d.stationary(dc, sim.ActivityProduction, dc.Work.ID, h.d.Tuning.WorkShiftDuration, payload), nil
}

func (h productionAndRestockHandler) fetchActivity(dc *DecisionContext, plan *acquire.Plan, resource string) *sim.Activity {
	act := &sim.Activity{
		Type:           sim.ActivityFetchResource,
		CitizenID:      dc.Citizen.ID,
		FromBuildingID: plan.SourceBuildingID,
		ToBuildingID:   dc.Work.ID,
		Route:          &plan.Route,
		Status:         sim.ActivityCreated,
		CreatedAt:      dc.Now,
		StartAt:        dc.Now,
		EndAt:          dc.Now.Add(routeDuration(plan.Route)),
		Payload: sim.ManifestPayload{
			Items:      []sim.ResourceAmount{{ResourceType: resource, Amount: plan.Amount}},
			ContractID: plan.ContractID,
			Source:     string(plan.Source),
			UnitPrice:  plan.UnitPrice,
		},
	}
	return act
}

type fishingWorkHandler struct{ d *Deps }

func (h fishingWorkHandler) Kind() HandlerKind { return KindFishingWork }

func (h fishingWorkHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Home == nil || dc.Home.Type != h.d.Tuning.FishermanHomeType || dc.Position == nil {
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
		return h.d.stationary(dc, sim.ActivityFishing, dock.ID, h.d.Tuning.WorkShiftDuration, nil), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityGotoLocation, *dock, nil), nil
}

type porterWorkHandler struct{ d *Deps }

func (h porterWorkHandler) Kind() HandlerKind { return KindPorterWork }

func (h porterWorkHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Citizen.Class != sim.ClassLaborer || dc.Position == nil {
		return nil, nil
	}
	requests, err := h.d.Contracts.ListActiveBySeller(ctx, "", sim.ContractLogistics, dc.Now)
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		if req.SellerBuildingID == "" || req.BuyerBuildingID == "" {
			continue
		}
		pickup, err := h.d.Buildings.GetByID(ctx, req.SellerBuildingID)
		if err != nil {
			h.d.log().Warn("decision: logistics pickup building missing", "contract_id", req.ID, "building_id", req.SellerBuildingID, "err", err)
			continue
		}
		dropoff, err := h.d.Buildings.GetByID(ctx, req.BuyerBuildingID)
		if err != nil {
			h.d.log().Warn("decision: logistics dropoff building missing", "contract_id", req.ID, "building_id", req.BuyerBuildingID, "err", err)
			continue
		}
		toPickup, ok := h.d.route(ctx, *dc.Position, pickup.Position)
		if !ok {
			continue
		}
		haul, ok := h.d.route(ctx, pickup.Position, dropoff.Position)
		if !ok {
			continue
		}
		amount := sim.RoundAmount(minPositive(req.RemainingAmount, dc.Citizen.CarryCapacity), h.d.Tuning.AmountDecimals)
		if amount < h.d.Tuning.MinTradeAmount {
			continue
		}
		route := sim.Route{
			Points:          append(append([]sim.Position{}, toPickup.Points...), haul.Points...),
			DurationSeconds: toPickup.DurationSeconds + haul.DurationSeconds,
		}
		return &sim.Activity{
			Type:           sim.ActivityPorterHaul,
			CitizenID:      dc.Citizen.ID,
			FromBuildingID: pickup.ID,
			ToBuildingID:   dropoff.ID,
			Route:          &route,
			Status:         sim.ActivityCreated,
			CreatedAt:      dc.Now,
			StartAt:        dc.Now,
			EndAt:          dc.Now.Add(routeDuration(route)),
			Payload: sim.ManifestPayload{
				Items:      []sim.ResourceAmount{{ResourceType: req.ResourceType, Amount: amount}},
				ContractID: req.ID,
				UnitPrice:  req.PricePerUnit,
			},
		}, nil
	}
	return nil, nil
}

type frontierTradingHandler struct{ d *Deps }

func (h frontierTradingHandler) Kind() HandlerKind { return KindFrontierTrading }

func (h frontierTradingHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Citizen.Class != sim.ClassMerchant || dc.Position == nil {
		return nil, nil
	}
	var cargo []sim.ResourceAmount
	for _, stack := range dc.Carried {
		if stack.Amount >= h.d.Tuning.MinTradeAmount {
			cargo = append(cargo, sim.ResourceAmount{ResourceType: stack.ResourceType, Amount: stack.Amount})
		}
	}
	if len(cargo) == 0 {
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
	payload := sim.ManifestPayload{Items: cargo, Source: "frontier"}
	if dc.At(dock, h.d.Tuning.ArrivalTolerance) {
		return h.d.stationary(dc, sim.ActivityFrontierTrade, dock.ID, h.d.Tuning.WorkShiftDuration, payload), nil
	}
	return h.d.travelTo(ctx, dc, sim.ActivityGotoLocation, *dock, nil), nil
}
