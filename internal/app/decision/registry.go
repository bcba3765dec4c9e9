package decision

import (
	"context"

	"rialto/internal/domain/sim"
)

type HandlerKind string

const (
	KindLeaveCity            HandlerKind = "leave_city"
	KindEatFromInventory     HandlerKind = "eat_from_inventory"
	KindEatAtHome            HandlerKind = "eat_at_home"
	KindEmergencyFishing     HandlerKind = "emergency_fishing"
	KindShopForFood          HandlerKind = "shop_for_food"
	KindEatAtVenue           HandlerKind = "eat_at_venue"
	KindDepositFullInventory HandlerKind = "deposit_full_inventory"
	KindCheckManagedBusiness HandlerKind = "check_managed_business"
	KindNightShelter         HandlerKind = "night_shelter"

	KindAttendTheater    HandlerKind = "attend_theater"
	KindPray             HandlerKind = "pray"
	KindPromenade        HandlerKind = "promenade"
	KindDrinkAtTavern    HandlerKind = "drink_at_tavern"
	KindPersonalShopping HandlerKind = "personal_shopping"

	KindConstructionWork     HandlerKind = "construction_work"
	KindProductionAndRestock HandlerKind = "production_and_restock"
	KindFishingWork          HandlerKind = "fishing_work"
	KindPorterWork           HandlerKind = "porter_work"
	KindFrontierTrading      HandlerKind = "frontier_trading"

	KindInitiateProject    HandlerKind = "initiate_building_project"
	KindWarehouseSecurity  HandlerKind = "warehouse_security"
	KindManageStorageOffer HandlerKind = "manage_storage_offers"

	KindRestInWindow     HandlerKind = "rest_in_window"
	KindDepositInventory HandlerKind = "deposit_inventory"
	KindIdle             HandlerKind = "idle"
)

type Tier int

const (
	TierCritical Tier = iota + 1
	TierLeisure
	TierWork
	TierManagement
	TierFallback
)

// Handler is one predicate+action unit. Decide returns (nil, nil) to
// decline; any error is caught at the handler boundary and treated as a
// decline.
type Handler interface {
	Kind() HandlerKind
	Decide(ctx context.Context, dc *DecisionContext) (*sim.Activity, error)
}

type Registration struct {
	Tier     Tier
	Priority int
	// Weight participates in the leisure tier's weighted-random pick;
	// zero elsewhere.
	Weight  int
	Handler Handler
}

// registry returns the full chain in strict tier then priority order.
func registry(d *Deps) []Registration {
	return []Registration{
		{Tier: TierCritical, Priority: 1, Handler: leaveCityHandler{d}},
		{Tier: TierCritical, Priority: 2, Handler: eatFromInventoryHandler{d}},
		{Tier: TierCritical, Priority: 3, Handler: eatAtHomeHandler{d}},
		{Tier: TierCritical, Priority: 4, Handler: emergencyFishingHandler{d}},
		{Tier: TierCritical, Priority: 5, Handler: shopForFoodHandler{d}},
		{Tier: TierCritical, Priority: 6, Handler: eatAtVenueHandler{d}},
		{Tier: TierCritical, Priority: 7, Handler: depositFullInventoryHandler{d}},
		{Tier: TierCritical, Priority: 8, Handler: checkManagedBusinessHandler{d}},
		{Tier: TierCritical, Priority: 9, Handler: nightShelterHandler{d}},

		{Tier: TierLeisure, Priority: 1, Weight: 3, Handler: attendTheaterHandler{d}},
		{Tier: TierLeisure, Priority: 2, Weight: 2, Handler: prayHandler{d}},
		{Tier: TierLeisure, Priority: 3, Weight: 3, Handler: promenadeHandler{d}},
		{Tier: TierLeisure, Priority: 4, Weight: 4, Handler: drinkAtTavernHandler{d}},
		{Tier: TierLeisure, Priority: 5, Handler: personalShoppingHandler{d}},

		{Tier: TierWork, Priority: 1, Handler: constructionWorkHandler{d}},
		{Tier: TierWork, Priority: 2, Handler: productionAndRestockHandler{d}},
		{Tier: TierWork, Priority: 3, Handler: fishingWorkHandler{d}},
		{Tier: TierWork, Priority: 4, Handler: porterWorkHandler{d}},
		{Tier: TierWork, Priority: 5, Handler: frontierTradingHandler{d}},

		{Tier: TierManagement, Priority: 1, Handler: initiateProjectHandler{d}},
		{Tier: TierManagement, Priority: 2, Handler: warehouseSecurityHandler{d}},
		{Tier: TierManagement, Priority: 3, Handler: manageStorageOffersHandler{d}},

		{Tier: TierFallback, Priority: 1, Handler: restInWindowHandler{d}},
		{Tier: TierFallback, Priority: 2, Handler: depositInventoryHandler{d}},
		{Tier: TierFallback, Priority: 3, Handler: idleHandler{d}},
	}
}
