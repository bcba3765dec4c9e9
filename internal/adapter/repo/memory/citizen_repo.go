package memory

import (
	"context"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type CitizenRepo struct {
	store *Store
}

func NewCitizenRepo(store *Store) CitizenRepo {
	return CitizenRepo{store: store}
}

func (r CitizenRepo) GetByID(_ context.Context, citizenID string) (sim.Citizen, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.citizens[citizenID]
	if !ok {
		return sim.Citizen{}, ports.ErrNotFound
	}
	return c, nil
}

func (r CitizenRepo) ListEligible(_ context.Context) ([]sim.Citizen, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.Citizen, 0, len(r.store.citizens))
	for _, c := range r.store.citizens {
		out = append(out, c)
	}
	return out, nil
}

func (r CitizenRepo) SavePosition(_ context.Context, citizenID string, pos sim.Position) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.citizens[citizenID]
	if !ok {
		return ports.ErrNotFound
	}
	c.Position = &pos
	c.Version++
	r.store.citizens[citizenID] = c
	return nil
}
