package decision

import (
	"context"

	"rialto/internal/domain/sim"
)

type initiateProjectHandler struct{ d *Deps }

func (h initiateProjectHandler) Kind() HandlerKind { return KindInitiateProject }

func (h initiateProjectHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	if dc.Citizen.Class < sim.ClassMerchant || dc.Citizen.Class == sim.ClassVisitor {
		return nil, nil
	}
	if dc.Citizen.Ducats < h.d.Tuning.ProjectBudgetMin || dc.Position == nil {
		return nil, nil
	}
	managed, err := h.d.Buildings.ListByOperator(ctx, dc.Citizen.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range managed {
		if b.UnderConstruction {
			// One project at a time.
			return nil, nil
		}
	}
	payload := sim.ProjectPayload{
		BuildingType: h.d.Tuning.WarehouseType,
		Position:     *dc.Position,
		Budget:       h.d.Tuning.ProjectBudgetMin,
	}
	return h.d.stationary(dc, sim.ActivityStartProject, "", h.d.Tuning.IdleDuration, payload), nil
}

type warehouseSecurityHandler struct{ d *Deps }

func (h warehouseSecurityHandler) Kind() HandlerKind { return KindWarehouseSecurity }

func (h warehouseSecurityHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	managed, err := h.d.Buildings.ListByOperator(ctx, dc.Citizen.ID)
	if err != nil {
		return nil, err
	}
	for i := range managed {
		b := managed[i]
		if b.Type != h.d.Tuning.WarehouseType || b.UnderConstruction {
			continue
		}
		stored, err := h.d.Stacks.ListByBuilding(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if len(stored) == 0 {
			continue
		}
		if dc.At(&b, h.d.Tuning.ArrivalTolerance) {
			return h.d.stationary(dc, sim.ActivitySecureWarehouse, b.ID, h.d.Tuning.WorkShiftDuration, nil), nil
		}
		if act := h.d.travelTo(ctx, dc, sim.ActivityGotoLocation, b, nil); act != nil {
			return act, nil
		}
	}
	return nil, nil
}

type manageStorageOffersHandler struct{ d *Deps }

func (h manageStorageOffersHandler) Kind() HandlerKind { return KindManageStorageOffer }

func (h manageStorageOffersHandler) Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error) {
	managed, err := h.d.Buildings.ListByOperator(ctx, dc.Citizen.ID)
	if err != nil {
		return nil, err
	}
	offers, err := h.d.Contracts.ListActiveBySeller(ctx, dc.Citizen.ID, sim.ContractStorageLease, dc.Now)
	if err != nil {
		return nil, err
	}
	for i := range managed {
		b := managed[i]
		if b.Type != h.d.Tuning.WarehouseType || b.UnderConstruction || b.StorageCapacity <= 0 {
			continue
		}
		var leased float64
		active := 0
		for _, offer := range offers {
			if offer.SellerBuildingID == b.ID {
				leased += offer.TargetAmount
				active++
			}
		}
		spare := b.StorageCapacity - leased
		if active >= h.d.Tuning.MaxStorageOffers || spare < h.d.Tuning.MinTradeAmount {
			continue
		}
		payload := sim.VenuePayload{
			VenueBuildingID: b.ID,
			ResourceType:    "storage",
			UnitPrice:       h.d.Tuning.StorageOfferRate,
			Amount:          sim.RoundAmount(spare, h.d.Tuning.AmountDecimals),
		}
		return h.d.stationary(dc, sim.ActivityManageOffers, b.ID, h.d.Tuning.IdleDuration, payload), nil
	}
	return nil, nil
}
