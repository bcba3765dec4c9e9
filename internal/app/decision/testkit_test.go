package decision

import (
	"context"
	"sync"
	"time"

	memrepo "rialto/internal/adapter/repo/memory"
	"rialto/internal/app/acquire"
	"rialto/internal/app/activity"
	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) // work window for every class

type stubPath struct {
	unreachable map[sim.Position]bool
}

func (p stubPath) FindPath(_ context.Context, from, to sim.Position) (sim.Route, error) {
	if p.unreachable[to] {
		return sim.Route{}, ports.ErrUnreachable
	}
	seconds := int(sim.DistanceMeters(from, to) / 1.4)
	if seconds < 1 {
		seconds = 1
	}
	return sim.Route{Points: []sim.Position{from, to}, DurationSeconds: seconds}, nil
}

type ledgerCall struct {
	citizenID string
	delta     float64
	reason    string
}

type stubLedger struct {
	mu    sync.Mutex
	err   error
	calls []ledgerCall
}

func (l *stubLedger) AdjustBalance(_ context.Context, citizenID string, delta float64, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.calls = append(l.calls, ledgerCall{citizenID: citizenID, delta: delta, reason: reason})
	return nil
}

type stubNotice struct {
	citizenID string
	kind      string
}

type stubNotifier struct {
	mu      sync.Mutex
	notices []stubNotice
}

func (n *stubNotifier) Notify(citizenID, kind, _ string, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, stubNotice{citizenID: citizenID, kind: kind})
}

type stubMetrics struct {
	mu        sync.Mutex
	decisions map[string]int
	fallbacks int
	failures  map[string]int
	conflicts int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{decisions: map[string]int{}, failures: map[string]int{}}
}

func (m *stubMetrics) RecordDecision(handler string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[handler]++
}

func (m *stubMetrics) RecordFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *stubMetrics) RecordHandlerFailure(handler string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[handler]++
}

func (m *stubMetrics) RecordConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

type testFixture struct {
	deps    *Deps
	store   *memrepo.Store
	metrics *stubMetrics
	ledger  *stubLedger
	notify  *stubNotifier
}

func newFixture() testFixture {
	store := memrepo.NewStore()
	tuning := sim.DefaultTuning()
	now := func() time.Time { return testNow }

	actStore := activity.Store{
		Tx:         memrepo.NewTxManager(),
		Activities: memrepo.NewActivityRepo(store),
		Now:        now,
	}
	metrics := newStubMetrics()
	ledger := &stubLedger{}
	notify := &stubNotifier{}
	deps := &Deps{
		Citizens:  memrepo.NewCitizenRepo(store),
		Store:     actStore,
		Contracts: memrepo.NewContractRepo(store),
		Stacks:    memrepo.NewStackRepo(store),
		Buildings: memrepo.NewBuildingRepo(store),
		Path:      stubPath{},
		Ledger:    ledger,
		Notify:    notify,
		Acquire: &acquire.Resolver{
			Contracts: memrepo.NewContractRepo(store),
			Stacks:    memrepo.NewStackRepo(store),
			Buildings: memrepo.NewBuildingRepo(store),
			Path:      stubPath{},
			Cooldowns: acquire.NewFetchCooldowns(tuning.FetchCooldown),
			Tuning:    tuning,
			Now:       now,
		},
		Metrics: metrics,
		Tuning:  tuning,
		Now:     now,
	}
	return testFixture{deps: deps, store: store, metrics: metrics, ledger: ledger, notify: notify}
}

var (
	piazzaPos = sim.Position{Lat: 45.4380, Lng: 12.3359}
	remotePos = sim.Position{Lat: 45.4340, Lng: 12.3388} // roughly half a kilometer off
)

func fedCitizen(id string) sim.Citizen {
	return sim.Citizen{
		ID:            id,
		Class:         sim.ClassLaborer,
		Position:      &piazzaPos,
		Ducats:        50,
		CarryCapacity: 10,
		LastMealAt:    testNow.Add(-time.Hour),
	}
}

func hungryCitizen(id string) sim.Citizen {
	c := fedCitizen(id)
	c.LastMealAt = testNow.Add(-13 * time.Hour)
	return c
}

func seedTavernWithFood(store *memrepo.Store, id string, pos sim.Position) {
	store.SeedBuilding(sim.Building{
		ID: id, Type: "tavern", OperatorID: "keeper-" + id, Position: pos,
	})
	store.SeedContract(sim.Contract{
		ID:               "offer-" + id,
		Type:             sim.ContractPublicSell,
		ResourceType:     "fish",
		RemainingAmount:  20,
		PricePerUnit:     1.5,
		SellerID:         "keeper-" + id,
		SellerBuildingID: id,
		CreatedAt:        testNow.Add(-time.Hour),
	})
}
