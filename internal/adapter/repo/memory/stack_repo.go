package memory

import (
	"context"

	"rialto/internal/domain/sim"
)

type StackRepo struct {
	store *Store
}

func NewStackRepo(store *Store) StackRepo {
	return StackRepo{store: store}
}

func (r StackRepo) ListCarriedByCitizen(_ context.Context, citizenID string) ([]sim.ResourceStack, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.ResourceStack, 0, 4)
	for _, s := range r.store.stacks {
		if s.OwnerID == citizenID && s.Location == sim.StackCarried {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r StackRepo) ListByBuilding(_ context.Context, buildingID string) ([]sim.ResourceStack, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.ResourceStack, 0, 4)
	for _, s := range r.store.stacks {
		if s.BuildingID == buildingID && s.Location == sim.StackStored {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r StackRepo) AmountAt(_ context.Context, buildingID, resourceType, ownerID string) (float64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var total float64
	for _, s := range r.store.stacks {
		if s.BuildingID != buildingID || s.Location != sim.StackStored || s.ResourceType != resourceType {
			continue
		}
		if ownerID != "" && s.OwnerID != ownerID {
			continue
		}
		total += s.Amount
	}
	return total, nil
}

func (r StackRepo) DepositCarried(_ context.Context, citizenID, buildingID string) ([]sim.ResourceStack, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	moved := make([]sim.ResourceStack, 0, 4)
	for id, s := range r.store.stacks {
		if s.OwnerID != citizenID || s.Location != sim.StackCarried {
			continue
		}
		s.Location = sim.StackStored
		s.BuildingID = buildingID
		s.Version++
		r.store.stacks[id] = s
		moved = append(moved, s)
	}
	return moved, nil
}
