package acquire

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	memrepo "rialto/internal/adapter/repo/memory"
	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

type stubPath struct {
	unreachable map[sim.Position]bool
}

func (p stubPath) FindPath(_ context.Context, from, to sim.Position) (sim.Route, error) {
	if p.unreachable[to] {
		return sim.Route{}, ports.ErrUnreachable
	}
	return sim.Route{Points: []sim.Position{from, to}, DurationSeconds: 300}, nil
}

type resolverFixture struct {
	resolver *Resolver
	store    *memrepo.Store
}

func newResolverFixture(t *testing.T) resolverFixture {
	t.Helper()
	store := memrepo.NewStore()
	tuning := sim.DefaultTuning()
	return resolverFixture{
		resolver: &Resolver{
			Contracts: memrepo.NewContractRepo(store),
			Stacks:    memrepo.NewStackRepo(store),
			Buildings: memrepo.NewBuildingRepo(store),
			Path:      stubPath{},
			Cooldowns: NewFetchCooldowns(tuning.FetchCooldown),
			Tuning:    tuning,
			Now:       func() time.Time { return testNow },
		},
		store: store,
	}
}

func testBuyer(ducats float64) sim.Citizen {
	return sim.Citizen{
		ID:       "buyer-1",
		Ducats:   ducats,
		Position: &sim.Position{Lat: 45.4380, Lng: 12.3359},
	}
}

func seedSource(store *memrepo.Store, id string, lat, lng float64) {
	store.SeedBuilding(sim.Building{ID: id, Type: "warehouse", Position: sim.Position{Lat: lat, Lng: lng}})
}

func seedStock(store *memrepo.Store, id, buildingID, resource, owner string, amount float64) {
	store.SeedStack(sim.ResourceStack{
		ID:           id,
		ResourceType: resource,
		Amount:       amount,
		OwnerID:      owner,
		Location:     sim.StackStored,
		BuildingID:   buildingID,
	})
}

func TestResolver_StorageLeaseWinsCascade(t *testing.T) {
	f := newResolverFixture(t)
	seedSource(f.store, "depot", 45.4390, 12.3370)
	seedSource(f.store, "market", 45.4400, 12.3380)
	seedStock(f.store, "s1", "depot", "grain", "buyer-1", 8)
	seedStock(f.store, "s2", "market", "grain", "seller-2", 50)

	f.store.SeedContract(sim.Contract{
		ID: "lease-1", Type: sim.ContractStorageLease,
		BuyerID: "buyer-1", ResourceType: "grain",
		TargetAmount: 20, SellerBuildingID: "depot",
		CreatedAt: testNow.Add(-time.Hour),
	})
	f.store.SeedContract(sim.Contract{
		ID: "sell-1", Type: sim.ContractPublicSell,
		SellerID: "seller-2", ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 1.5, SellerBuildingID: "market",
		CreatedAt: testNow.Add(-time.Hour),
	})

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan == nil || plan.Source != SourceStorageLease {
		t.Fatalf("expected storage lease plan, got %+v", plan)
	}
	if plan.Amount != 5 {
		t.Fatalf("expected full demand from own stock, got %v", plan.Amount)
	}
	if plan.UnitPrice != 0 {
		t.Fatalf("own stored goods cost nothing per unit, got %v", plan.UnitPrice)
	}
}

func TestResolver_LeaseAmountBoundedByHeldStock(t *testing.T) {
	f := newResolverFixture(t)
	seedSource(f.store, "depot", 45.4390, 12.3370)
	seedStock(f.store, "s1", "depot", "grain", "buyer-1", 2)
	// Someone else's grain in the same depot must not count.
	seedStock(f.store, "s2", "depot", "grain", "other", 40)

	f.store.SeedContract(sim.Contract{
		ID: "lease-1", Type: sim.ContractStorageLease,
		BuyerID: "buyer-1", ResourceType: "grain",
		TargetAmount: 20, SellerBuildingID: "depot",
		CreatedAt: testNow.Add(-time.Hour),
	})

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan == nil || plan.Amount != 2 {
		t.Fatalf("expected plan bounded to own 2 units, got %+v", plan)
	}
}

func TestResolver_OpenMarketPicksCheapestViable(t *testing.T) {
	f := newResolverFixture(t)
	seedSource(f.store, "stall-a", 45.4390, 12.3370)
	seedSource(f.store, "stall-b", 45.4400, 12.3380)
	seedStock(f.store, "s1", "stall-a", "grain", "seller-a", 0) // cheapest has no stock
	seedStock(f.store, "s2", "stall-b", "grain", "seller-b", 30)

	f.store.SeedContract(sim.Contract{
		ID: "cheap", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 1.0, SellerBuildingID: "stall-a",
		CreatedAt: testNow.Add(-time.Hour),
	})
	f.store.SeedContract(sim.Contract{
		ID: "dear", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 2.0, SellerBuildingID: "stall-b",
		CreatedAt: testNow.Add(-time.Hour),
	})

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan == nil || plan.ContractID != "dear" {
		t.Fatalf("stockless cheapest should be skipped, got %+v", plan)
	}
	if plan.UnitPrice != 2.0 {
		t.Fatalf("expected next candidate's price, got %v", plan.UnitPrice)
	}

	// Reservation must have decremented the winning contract.
	c, _ := f.store.Contract("dear")
	if c.RemainingAmount != 45 {
		t.Fatalf("expected remaining 45 after reservation, got %v", c.RemainingAmount)
	}
}

func TestResolver_MarketAmountBoundedByFunds(t *testing.T) {
	f := newResolverFixture(t)
	seedSource(f.store, "stall", 45.4390, 12.3370)
	seedStock(f.store, "s1", "stall", "wine", "seller", 100)

	f.store.SeedContract(sim.Contract{
		ID: "sell-1", Type: sim.ContractPublicSell, ResourceType: "wine",
		RemainingAmount: 100, PricePerUnit: 4.0, SellerBuildingID: "stall",
		CreatedAt: testNow.Add(-time.Hour),
	})

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(10), ResourceType: "wine", Amount: 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	// 10 ducats at 4 per unit affords 2.5 units.
	if plan == nil || math.Abs(plan.Amount-2.5) > 1e-9 {
		t.Fatalf("expected amount clamped to affordable 2.5, got %+v", plan)
	}
}

type countingConflicts struct {
	n int
}

func (c *countingConflicts) RecordConflict() { c.n++ }

func TestResolver_ConflictFallsToNextCandidate(t *testing.T) {
	f := newResolverFixture(t)
	conflicts := &countingConflicts{}
	f.resolver.Metrics = conflicts
	seedSource(f.store, "stall-a", 45.4390, 12.3370)
	seedSource(f.store, "stall-b", 45.4400, 12.3380)
	seedStock(f.store, "s1", "stall-a", "grain", "seller-a", 30)
	seedStock(f.store, "s2", "stall-b", "grain", "seller-b", 30)

	// Stale version simulates a reservation raced away after listing.
	f.store.SeedContract(sim.Contract{
		ID: "cheap", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 1.0, SellerBuildingID: "stall-a",
		CreatedAt: testNow.Add(-time.Hour),
	})
	f.resolver.Contracts = raceContractRepo{
		ContractRepo: memrepo.NewContractRepo(f.store),
		conflictID:   "cheap",
	}
	f.store.SeedContract(sim.Contract{
		ID: "dear", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 2.0, SellerBuildingID: "stall-b",
		CreatedAt: testNow.Add(-time.Hour),
	})

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan == nil || plan.ContractID != "dear" {
		t.Fatalf("conflict on cheapest should fall through, got %+v", plan)
	}
	if conflicts.n != 1 {
		t.Fatalf("expected one recorded conflict, got %d", conflicts.n)
	}
}

type raceContractRepo struct {
	memrepo.ContractRepo
	conflictID string
}

func (r raceContractRepo) ReserveQuantity(ctx context.Context, contractID string, amount float64, expectedVersion int64) error {
	if contractID == r.conflictID {
		return ports.ErrConflict
	}
	return r.ContractRepo.ReserveQuantity(ctx, contractID, amount, expectedVersion)
}

func TestResolver_CooldownExcludesSource(t *testing.T) {
	f := newResolverFixture(t)
	seedSource(f.store, "stall", 45.4390, 12.3370)
	seedStock(f.store, "s1", "stall", "grain", "seller", 30)

	f.store.SeedContract(sim.Contract{
		ID: "sell-1", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 1.0, SellerBuildingID: "stall",
		CreatedAt: testNow.Add(-time.Hour),
	})
	f.resolver.Cooldowns.RecordFailure("sell-1", testNow.Add(-time.Minute))

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan != nil && plan.ContractID == "sell-1" {
		t.Fatalf("cooled-down contract must be skipped, got %+v", plan)
	}

	// After the window expires the source is usable again.
	f.resolver.Now = func() time.Time { return testNow.Add(f.resolver.Tuning.FetchCooldown + time.Minute) }
	plan, err = f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan == nil || plan.ContractID != "sell-1" {
		t.Fatalf("expired cooldown should readmit the contract, got %+v", plan)
	}
}

func TestResolver_GenericFetchCappedAndNeedsDock(t *testing.T) {
	f := newResolverFixture(t)

	// No contracts and no docks: no plan at all.
	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "timber", Amount: 50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan != nil {
		t.Fatalf("expected no plan without any source, got %+v", plan)
	}

	f.store.SeedBuilding(sim.Building{
		ID: "dock-1", Type: f.resolver.Tuning.DockType,
		Position: sim.Position{Lat: 45.4390, Lng: 12.3370},
	})
	plan, err = f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "timber", Amount: 50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan == nil || plan.Source != SourceGeneric {
		t.Fatalf("expected generic fetch, got %+v", plan)
	}
	if plan.Amount != f.resolver.Tuning.GenericFetchCap {
		t.Fatalf("generic fetch must be capped at %v, got %v", f.resolver.Tuning.GenericFetchCap, plan.Amount)
	}
	if plan.SourceBuildingID != "dock-1" {
		t.Fatalf("expected the dock as source, got %s", plan.SourceBuildingID)
	}
}

func TestResolver_UnreachableSourceDeclined(t *testing.T) {
	f := newResolverFixture(t)
	stallPos := sim.Position{Lat: 45.4390, Lng: 12.3370}
	f.store.SeedBuilding(sim.Building{ID: "stall", Type: "warehouse", Position: stallPos})
	seedStock(f.store, "s1", "stall", "grain", "seller", 30)
	f.store.SeedContract(sim.Contract{
		ID: "sell-1", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 50, PricePerUnit: 1.0, SellerBuildingID: "stall",
		CreatedAt: testNow.Add(-time.Hour),
	})
	f.resolver.Path = stubPath{unreachable: map[sim.Position]bool{stallPos: true}}

	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan != nil {
		t.Fatalf("unreachable source should yield no plan, got %+v", plan)
	}
}

func TestResolver_BelowMinimumTradeIgnored(t *testing.T) {
	f := newResolverFixture(t)
	plan, err := f.resolver.Acquire(context.Background(), Demand{
		Buyer: testBuyer(100), ResourceType: "grain", Amount: 0.05,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan != nil {
		t.Fatalf("sub-minimum demand should produce nothing, got %+v", plan)
	}
}

func TestResolver_ConcurrentBuyersNeverOverAllocate(t *testing.T) {
	f := newResolverFixture(t)
	seedSource(f.store, "stall", 45.4390, 12.3370)
	seedStock(f.store, "s1", "stall", "grain", "seller", 100)
	f.store.SeedContract(sim.Contract{
		ID: "sell-1", Type: sim.ContractPublicSell, ResourceType: "grain",
		RemainingAmount: 10, PricePerUnit: 1.0, SellerBuildingID: "stall",
		CreatedAt: testNow.Add(-time.Hour),
	})

	const buyers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted float64
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plan, err := f.resolver.Acquire(context.Background(), Demand{
				Buyer: testBuyer(100), ResourceType: "grain", Amount: 4,
			})
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if plan != nil && plan.Source == SourceMarket {
				mu.Lock()
				granted += plan.Amount
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	c, _ := f.store.Contract("sell-1")
	if c.RemainingAmount < 0 {
		t.Fatalf("contract over-allocated: remaining %v", c.RemainingAmount)
	}
	if granted > 10+1e-9 {
		t.Fatalf("granted %v exceeds initial remaining 10", granted)
	}
}

func TestFetchCooldowns_WindowExpiry(t *testing.T) {
	c := NewFetchCooldowns(15 * time.Minute)
	c.RecordFailure("con-1", testNow)

	if !c.Excluded("con-1", testNow.Add(14*time.Minute)) {
		t.Fatal("contract should be excluded within the window")
	}
	if c.Excluded("con-1", testNow.Add(15*time.Minute)) {
		t.Fatal("contract should be readmitted at the window boundary")
	}
	if c.Excluded("con-2", testNow) {
		t.Fatal("unknown contract should never be excluded")
	}
}

func TestFetchCooldowns_RecordActivityFailure(t *testing.T) {
	c := NewFetchCooldowns(15 * time.Minute)

	c.RecordActivityFailure(sim.Activity{
		Type:    sim.ActivityFetchResource,
		Payload: sim.ManifestPayload{ContractID: "con-1"},
	}, testNow)
	if !c.Excluded("con-1", testNow) {
		t.Fatal("failed fetch should cool down its contract")
	}

	// Failures outside the fetch flow leave the cooldown table alone.
	c.RecordActivityFailure(sim.Activity{
		Type:    sim.ActivityProduction,
		Payload: sim.ManifestPayload{ContractID: "con-2"},
	}, testNow)
	if c.Excluded("con-2", testNow) {
		t.Fatal("non-fetch failure must not cool down a contract")
	}

	c.RecordActivityFailure(sim.Activity{Type: sim.ActivityFetchResource}, testNow)
	if c.Excluded("", testNow) {
		t.Fatal("fetch without a contract must be ignored")
	}
}
