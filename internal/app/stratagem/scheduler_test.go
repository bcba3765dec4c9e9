package stratagem

import (
	"context"
	"errors"
	"testing"
	"time"

	memrepo "rialto/internal/adapter/repo/memory"
	"rialto/internal/app/acquire"
	"rialto/internal/app/activity"
	"rialto/internal/domain/sim"
)

var testNow = time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)

type stubPath struct{}

func (stubPath) FindPath(_ context.Context, from, to sim.Position) (sim.Route, error) {
	seconds := int(sim.DistanceMeters(from, to) / 1.4)
	if seconds < 1 {
		seconds = 1
	}
	return sim.Route{Points: []sim.Position{from, to}, DurationSeconds: seconds}, nil
}

type schedulerFixture struct {
	scheduler *Scheduler
	store     *memrepo.Store
}

func newSchedulerFixture(now time.Time) schedulerFixture {
	store := memrepo.NewStore()
	tuning := sim.DefaultTuning()
	nowFn := func() time.Time { return now }
	actStore := activity.Store{
		Tx:         memrepo.NewTxManager(),
		Activities: memrepo.NewActivityRepo(store),
		Now:        nowFn,
	}
	return schedulerFixture{
		scheduler: &Scheduler{
			Citizens:   memrepo.NewCitizenRepo(store),
			Stratagems: memrepo.NewStratagemRepo(store),
			Contracts:  memrepo.NewContractRepo(store),
			Buildings:  memrepo.NewBuildingRepo(store),
			Store:      actStore,
			Acquire: &acquire.Resolver{
				Contracts: memrepo.NewContractRepo(store),
				Stacks:    memrepo.NewStackRepo(store),
				Buildings: memrepo.NewBuildingRepo(store),
				Path:      stubPath{},
				Cooldowns: acquire.NewFetchCooldowns(tuning.FetchCooldown),
				Tuning:    tuning,
				Now:       nowFn,
			},
			Path:   stubPath{},
			Tuning: tuning,
			Now:    nowFn,
		},
		store: store,
	}
}

var merchantPos = sim.Position{Lat: 45.4380, Lng: 12.3359}

func seedExecutor(store *memrepo.Store, id string) {
	store.SeedCitizen(sim.Citizen{
		ID: id, Class: sim.ClassMerchant, Position: &merchantPos,
		Ducats: 500, CarryCapacity: 20, LastMealAt: testNow.Add(-time.Hour),
	})
}

func TestScheduler_ExpiredStratagemIsClosed(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	f.store.SeedStratagem(sim.Stratagem{
		ID: "str-1", Type: sim.StratagemUndercut, ExecutedBy: "merc-1",
		ResourceType: "wine", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-48 * time.Hour), ExpiresAt: testNow.Add(-time.Hour),
	})

	st, _ := f.store.Stratagem("str-1")
	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 0 {
		t.Fatalf("expired stratagem must not spawn activities, got %d", len(acts))
	}
	updated, _ := f.store.Stratagem("str-1")
	if updated.Status != sim.StratagemExpired {
		t.Fatalf("expected expired status, got %s", updated.Status)
	}
}

func TestScheduler_BusyExecutorSkipped(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemCoordinatePrice, ExecutedBy: "merc-1",
		TargetCitizenID: "merc-2", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)
	f.store.SeedCitizen(sim.Citizen{ID: "merc-2", Class: sim.ClassMerchant})

	if _, err := f.scheduler.Store.Create(context.Background(), sim.Activity{
		Type: sim.ActivityRest, CitizenID: "merc-1",
	}); err != nil {
		t.Fatal(err)
	}

	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 0 {
		t.Fatalf("busy executor must spawn nothing, got %d", len(acts))
	}
}

func TestScheduler_NoDuplicateStepWhileStratagemActivityOpen(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	f.store.SeedCitizen(sim.Citizen{ID: "merc-2", Class: sim.ClassMerchant})
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemCoordinatePrice, ExecutedBy: "merc-1",
		TargetCitizenID: "merc-2", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)

	first, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one spawned step, got %d", len(first))
	}
	if first[0].Type != sim.ActivityNegotiatePrice {
		t.Fatalf("expected negotiate_price, got %s", first[0].Type)
	}

	second, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Fatalf("open step must suppress a second expansion, got %d", len(second))
	}
}

func TestScheduler_UndercutPricesBelowCompetition(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	// Competitor sells wine at 2.0; executor's own offer sits at 2.4.
	f.store.SeedContract(sim.Contract{
		ID: "rival", Type: sim.ContractPublicSell, ResourceType: "wine",
		SellerID: "rival-1", SellerBuildingID: "stall-r",
		RemainingAmount: 20, PricePerUnit: 2.0, CreatedAt: testNow.Add(-time.Hour),
	})
	f.store.SeedContract(sim.Contract{
		ID: "own", Type: sim.ContractPublicSell, ResourceType: "wine",
		SellerID: "merc-1", SellerBuildingID: "stall-m",
		RemainingAmount: 20, PricePerUnit: 2.4, CreatedAt: testNow.Add(-time.Hour),
	})
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemUndercut, ExecutedBy: "merc-1",
		ResourceType: "wine", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)

	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 || acts[0].Type != sim.ActivityAdjustPrices {
		t.Fatalf("expected one adjust_prices activity, got %+v", acts)
	}
	p, ok := acts[0].Payload.(sim.PriceChangePayload)
	if !ok || len(p.ContractIDs) != 1 || p.ContractIDs[0] != "own" {
		t.Fatalf("unexpected price change payload %#v", acts[0].Payload)
	}
	if p.NewPrices[0] != 1.8 {
		t.Fatalf("expected 10%% below the 2.0 floor, got %v", p.NewPrices[0])
	}
}

func TestScheduler_UndercutWithoutCompetitorsIdles(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemUndercut, ExecutedBy: "merc-1",
		ResourceType: "wine", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)

	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 0 {
		t.Fatalf("no competitor means nothing to undercut, got %+v", acts)
	}
}

func TestScheduler_NightAmbushWaitsForDark(t *testing.T) {
	noon := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(noon)
	seedExecutor(f.store, "merc-1")
	f.store.SeedBuilding(sim.Building{ID: "target", Type: "warehouse", Position: merchantPos})
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemNightAmbush, ExecutedBy: "merc-1",
		TargetBuildingID: "target", Status: sim.StratagemActive,
		CreatedAt: noon.Add(-time.Hour), ExpiresAt: noon.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)

	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 0 {
		t.Fatalf("ambush must not move at noon, got %+v", acts)
	}
}

func TestScheduler_NightAmbushStrikesOnSite(t *testing.T) {
	f := newSchedulerFixture(testNow) // 23:00
	seedExecutor(f.store, "merc-1")
	f.store.SeedBuilding(sim.Building{ID: "target", Type: "warehouse", Position: merchantPos})
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemNightAmbush, ExecutedBy: "merc-1",
		TargetBuildingID: "target", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)

	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 || acts[0].Type != sim.ActivityAmbush {
		t.Fatalf("expected ambush on site, got %+v", acts)
	}
	p, ok := acts[0].Payload.(sim.StratagemPayload)
	if !ok || p.Step != "strike" || p.StratagemID != "str-1" {
		t.Fatalf("unexpected ambush payload %#v", acts[0].Payload)
	}
}

func TestScheduler_HoardFetchesIntoDepot(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	f.store.SeedBuilding(sim.Building{ID: "depot", Type: "warehouse", Position: merchantPos})
	f.store.SeedBuilding(sim.Building{
		ID: "stall", Type: "market_stall",
		Position: sim.Position{Lat: 45.4390, Lng: 12.3370},
	})
	f.store.SeedStack(sim.ResourceStack{
		ID: "s1", ResourceType: "grain", Amount: 50, OwnerID: "seller",
		Location: sim.StackStored, BuildingID: "stall",
	})
	f.store.SeedContract(sim.Contract{
		ID: "sell-1", Type: sim.ContractPublicSell, ResourceType: "grain",
		SellerID: "seller", SellerBuildingID: "stall",
		RemainingAmount: 50, PricePerUnit: 1.0, CreatedAt: testNow.Add(-time.Hour),
	})
	st := sim.Stratagem{
		ID: "str-1", Type: sim.StratagemHoardResource, ExecutedBy: "merc-1",
		ResourceType: "grain", TargetBuildingID: "depot", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	f.store.SeedStratagem(st)

	acts, err := f.scheduler.Tick(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 || acts[0].Type != sim.ActivityFetchResource {
		t.Fatalf("expected a fetch into the depot, got %+v", acts)
	}
	if acts[0].ToBuildingID != "depot" || acts[0].FromBuildingID != "stall" {
		t.Fatalf("fetch endpoints wrong: %s -> %s", acts[0].FromBuildingID, acts[0].ToBuildingID)
	}
}

func TestScheduler_TickAllSurvivesBadStratagem(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	f.store.SeedCitizen(sim.Citizen{ID: "merc-2", Class: sim.ClassMerchant})
	f.store.SeedStratagem(sim.Stratagem{
		ID: "bad", Type: sim.StratagemType("sabotage"), ExecutedBy: "merc-1",
		Status: sim.StratagemActive, CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	})
	f.store.SeedStratagem(sim.Stratagem{
		ID: "good", Type: sim.StratagemCoordinatePrice, ExecutedBy: "merc-2",
		TargetCitizenID: "merc-1", Status: sim.StratagemActive,
		CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	})

	acts, err := f.scheduler.TickAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 {
		t.Fatalf("the well-formed stratagem should still expand, got %d", len(acts))
	}
	if acts[0].CitizenID != "merc-2" {
		t.Fatalf("expected merc-2's step, got %s", acts[0].CitizenID)
	}
}

func TestScheduler_UnknownTypeErrors(t *testing.T) {
	f := newSchedulerFixture(testNow)
	seedExecutor(f.store, "merc-1")
	st := sim.Stratagem{
		ID: "bad", Type: sim.StratagemType("sabotage"), ExecutedBy: "merc-1",
		Status: sim.StratagemActive, CreatedAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(24 * time.Hour),
	}
	_, err := f.scheduler.Tick(context.Background(), st)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
