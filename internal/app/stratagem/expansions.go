package stratagem

import (
	"context"
	"time"

	"rialto/internal/app/acquire"
	"rialto/internal/domain/sim"
)

const undercutDiscount = 0.9

// expandUndercut relists the executor's public sales of the stratagem's
// resource below the cheapest competitor.
func (s *Scheduler) expandUndercut(ctx context.Context, st sim.Stratagem, executor sim.Citizen, now time.Time) (*sim.Activity, error) {
	own, err := s.Contracts.ListActiveBySeller(ctx, executor.ID, sim.ContractPublicSell, now)
	if err != nil {
		return nil, err
	}
	market, err := s.Contracts.ListPublicSellByResource(ctx, st.ResourceType, now)
	if err != nil {
		return nil, err
	}
	var floor float64
	for _, c := range market {
		if c.SellerID == executor.ID || c.PricePerUnit <= 0 {
			continue
		}
		if floor == 0 || c.PricePerUnit < floor {
			floor = c.PricePerUnit
		}
	}
	if floor == 0 {
		// No competitor to undercut.
		return nil, nil
	}
	target := sim.RoundAmount(floor*undercutDiscount, s.Tuning.AmountDecimals)

	var ids []string
	var prices []float64
	for _, c := range own {
		if c.ResourceType != st.ResourceType || c.PricePerUnit <= target {
			continue
		}
		ids = append(ids, c.ID)
		prices = append(prices, target)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	act := s.stationary(st, executor, sim.ActivityAdjustPrices, s.Tuning.IdleDuration, now)
	act.Payload = sim.PriceChangePayload{ContractIDs: ids, NewPrices: prices}
	return act, nil
}

// expandNightAmbush only moves at night: travel to the target building,
// then lie in wait.
func (s *Scheduler) expandNightAmbush(ctx context.Context, st sim.Stratagem, executor sim.Citizen, now time.Time) (*sim.Activity, error) {
	hour := now.Hour()
	if hour >= 6 && hour < 22 {
		return nil, nil
	}
	if st.TargetBuildingID == "" || executor.Position == nil {
		return nil, nil
	}
	spot, err := s.Buildings.GetByID(ctx, st.TargetBuildingID)
	if err != nil {
		return nil, err
	}
	ref := sim.StratagemPayload{StratagemID: st.ID, Type: st.Type}
	if sim.SamePlace(*executor.Position, spot.Position, s.Tuning.ArrivalTolerance) {
		ref.Step = "strike"
		act := s.stationary(st, executor, sim.ActivityAmbush, s.Tuning.IdleDuration, now)
		act.FromBuildingID = spot.ID
		act.ToBuildingID = spot.ID
		act.Payload = ref
		return act, nil
	}
	route, err := s.Path.FindPath(ctx, *executor.Position, spot.Position)
	if err != nil {
		return nil, nil
	}
	ref.Step = "approach"
	return &sim.Activity{
		Type:         sim.ActivityGotoLocation,
		CitizenID:    executor.ID,
		ToBuildingID: spot.ID,
		Route:        &route,
		Status:       sim.ActivityCreated,
		CreatedAt:    now,
		StartAt:      now,
		EndAt:        now.Add(time.Duration(route.DurationSeconds) * time.Second),
		Payload:      ref,
	}, nil
}

// expandCoordinatePrice sends the executor to negotiate with the named
// competitor.
func (s *Scheduler) expandCoordinatePrice(ctx context.Context, st sim.Stratagem, executor sim.Citizen, now time.Time) (*sim.Activity, error) {
	if st.TargetCitizenID == "" {
		return nil, nil
	}
	target, err := s.Citizens.GetByID(ctx, st.TargetCitizenID)
	if err != nil {
		return nil, err
	}
	act := s.stationary(st, executor, sim.ActivityNegotiatePrice, s.Tuning.LeisureDuration, now)
	act.Payload = sim.TargetCitizenPayload{TargetCitizenID: target.ID, ResourceType: st.ResourceType}
	return act, nil
}

// expandHoard periodically pulls more of one resource into the target
// storage building through the acquisition cascade.
func (s *Scheduler) expandHoard(ctx context.Context, st sim.Stratagem, executor sim.Citizen, now time.Time) (*sim.Activity, error) {
	if st.ResourceType == "" || st.TargetBuildingID == "" {
		return nil, nil
	}
	depot, err := s.Buildings.GetByID(ctx, st.TargetBuildingID)
	if err != nil {
		return nil, err
	}
	plan, err := s.Acquire.Acquire(ctx, acquire.Demand{
		Buyer:         executor,
		BuyerBuilding: &depot,
		ResourceType:  st.ResourceType,
		Amount:        s.Tuning.GenericFetchCap,
	})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	return &sim.Activity{
		Type:           sim.ActivityFetchResource,
		CitizenID:      executor.ID,
		FromBuildingID: plan.SourceBuildingID,
		ToBuildingID:   depot.ID,
		Route:          &plan.Route,
		Status:         sim.ActivityCreated,
		CreatedAt:      now,
		StartAt:        now,
		EndAt:          now.Add(time.Duration(plan.Route.DurationSeconds) * time.Second),
		Payload: sim.ManifestPayload{
			Items:      []sim.ResourceAmount{{ResourceType: st.ResourceType, Amount: plan.Amount}},
			ContractID: plan.ContractID,
			Source:     string(plan.Source),
			UnitPrice:  plan.UnitPrice,
		},
	}, nil
}

func (s *Scheduler) stationary(st sim.Stratagem, executor sim.Citizen, typ sim.ActivityType, d time.Duration, now time.Time) *sim.Activity {
	return &sim.Activity{
		Type:      typ,
		CitizenID: executor.ID,
		Status:    sim.ActivityCreated,
		CreatedAt: now,
		StartAt:   now,
		EndAt:     now.Add(d),
		Payload:   sim.StratagemPayload{StratagemID: st.ID, Type: st.Type},
	}
}
