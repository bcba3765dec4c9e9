package memory

import (
	"sync"

	"rialto/internal/domain/sim"
)

// Store is the shared backing map set for every in-memory repository.
// The TxManager serializes mutating passes with the store mutex, which is
// enough for tests and single-process runs.
type Store struct {
	mu         sync.Mutex
	citizens   map[string]sim.Citizen
	activities map[string]sim.Activity
	contracts  map[string]sim.Contract
	stacks     map[string]sim.ResourceStack
	buildings  map[string]sim.Building
	stratagems map[string]sim.Stratagem
}

func NewStore() *Store {
	return &Store{
		citizens:   map[string]sim.Citizen{},
		activities: map[string]sim.Activity{},
		contracts:  map[string]sim.Contract{},
		stacks:     map[string]sim.ResourceStack{},
		buildings:  map[string]sim.Building{},
		stratagems: map[string]sim.Stratagem{},
	}
}

func (s *Store) SeedCitizen(c sim.Citizen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.citizens[c.ID] = c
}

func (s *Store) SeedBuilding(b sim.Building) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildings[b.ID] = b
}

func (s *Store) SeedContract(c sim.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[c.ID] = c
}

func (s *Store) SeedStack(st sim.ResourceStack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[st.ID] = st
}

func (s *Store) SeedStratagem(st sim.Stratagem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stratagems[st.ID] = st
}

func (s *Store) Contract(id string) (sim.Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	return c, ok
}

func (s *Store) Stratagem(id string) (sim.Stratagem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stratagems[id]
	return st, ok
}

func (s *Store) Activity(id string) (sim.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	return a, ok
}
