package sim

import "time"

type ActivityStatus string

const (
	ActivityCreated    ActivityStatus = "created"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityConcluded  ActivityStatus = "concluded"
	ActivityFailed     ActivityStatus = "failed"
)

func (s ActivityStatus) Open() bool {
	return s == ActivityCreated || s == ActivityInProgress
}

func (s ActivityStatus) Terminal() bool {
	return s == ActivityConcluded || s == ActivityFailed
}

// CanAdvance reports whether the lifecycle permits moving to next.
// created -> in_progress -> concluded|failed; created may also fail directly.
func (s ActivityStatus) CanAdvance(next ActivityStatus) bool {
	switch s {
	case ActivityCreated:
		return next == ActivityInProgress || next == ActivityFailed
	case ActivityInProgress:
		return next == ActivityConcluded || next == ActivityFailed
	}
	return false
}

type ActivityType string

const (
	ActivityIdle             ActivityType = "idle"
	ActivityRest             ActivityType = "rest"
	ActivityGotoLocation     ActivityType = "goto_location"
	ActivityGotoHome         ActivityType = "goto_home"
	ActivityGotoWork         ActivityType = "goto_work"
	ActivityLeaveCity        ActivityType = "leave_city"
	ActivityEat              ActivityType = "eat"
	ActivityEatAtVenue       ActivityType = "eat_at_venue"
	ActivityTravelToVenue    ActivityType = "travel_to_venue"
	ActivityShopForFood      ActivityType = "shop_for_food"
	ActivityEmergencyFishing ActivityType = "emergency_fishing"
	ActivityFishing          ActivityType = "fishing"
	ActivityDepositInventory ActivityType = "deposit_inventory"
	ActivityCheckBusiness    ActivityType = "check_business"
	ActivityConstruction     ActivityType = "construction"
	ActivityProduction       ActivityType = "production"
	ActivityFetchResource    ActivityType = "fetch_resource"
	ActivityDeliverResource  ActivityType = "deliver_resource"
	ActivityPorterHaul       ActivityType = "porter_haul"
	ActivityFrontierTrade    ActivityType = "frontier_trade"
	ActivitySecureWarehouse  ActivityType = "secure_warehouse"
	ActivityManageOffers     ActivityType = "manage_offers"
	ActivityStartProject     ActivityType = "start_project"
	ActivityAttendTheater    ActivityType = "attend_theater"
	ActivityPray             ActivityType = "pray"
	ActivityPromenade        ActivityType = "promenade"
	ActivityDrinkAtTavern    ActivityType = "drink_at_tavern"
	ActivityShopping         ActivityType = "shopping"
	ActivityAdjustPrices     ActivityType = "adjust_prices"
	ActivityAmbush           ActivityType = "ambush"
	ActivityNegotiatePrice   ActivityType = "negotiate_price"
)

type Activity struct {
	ID             string         `json:"id"`
	Type           ActivityType   `json:"type"`
	CitizenID      string         `json:"citizen_id"`
	FromBuildingID string         `json:"from_building_id,omitempty"`
	ToBuildingID   string         `json:"to_building_id,omitempty"`
	Route          *Route         `json:"route,omitempty"`
	Status         ActivityStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	StartAt        time.Time      `json:"start_at"`
	EndAt          time.Time      `json:"end_at"`
	Priority       int            `json:"priority"`
	Payload        Payload        `json:"payload,omitempty"`
}

func (a Activity) Open() bool {
	return a.Status.Open()
}

// NewIdle builds the universal fallback activity. End time is always
// strictly after start by the given duration.
func NewIdle(citizenID string, now time.Time, d time.Duration, reason string) Activity {
	if d <= 0 {
		d = time.Minute
	}
	return Activity{
		Type:      ActivityIdle,
		CitizenID: citizenID,
		Status:    ActivityCreated,
		CreatedAt: now,
		StartAt:   now,
		EndAt:     now.Add(d),
		Priority:  1,
		Payload:   IdlePayload{Reason: reason},
	}
}
