package memory

import (
	"context"
	"time"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type ActivityRepo struct {
	store *Store
}

func NewActivityRepo(store *Store) ActivityRepo {
	return ActivityRepo{store: store}
}

func (r ActivityRepo) Create(_ context.Context, a sim.Activity) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.activities[a.ID]; exists {
		return ports.ErrConflict
	}
	r.store.activities[a.ID] = a
	return nil
}

func (r ActivityRepo) GetByID(_ context.Context, activityID string) (sim.Activity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.activities[activityID]
	if !ok {
		return sim.Activity{}, ports.ErrNotFound
	}
	return a, nil
}

func (r ActivityRepo) FindOpenByCitizen(_ context.Context, citizenID string) (*sim.Activity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.activities {
		if a.CitizenID == citizenID && a.Open() {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (r ActivityRepo) UpdateStatus(_ context.Context, activityID string, status sim.ActivityStatus, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.activities[activityID]
	if !ok {
		return ports.ErrNotFound
	}
	a.Status = status
	switch status {
	case sim.ActivityInProgress:
		a.StartAt = at
	case sim.ActivityConcluded, sim.ActivityFailed:
		if at.After(a.EndAt) {
			a.EndAt = at
		}
	}
	r.store.activities[activityID] = a
	return nil
}
