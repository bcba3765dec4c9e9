package memory

import (
	"context"
	"sort"
	"time"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type StratagemRepo struct {
	store *Store
}

func NewStratagemRepo(store *Store) StratagemRepo {
	return StratagemRepo{store: store}
}

func (r StratagemRepo) Create(_ context.Context, st sim.Stratagem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.stratagems[st.ID]; exists {
		return ports.ErrConflict
	}
	r.store.stratagems[st.ID] = st
	return nil
}

func (r StratagemRepo) ListActive(_ context.Context, at time.Time) ([]sim.Stratagem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.Stratagem, 0, 8)
	for _, st := range r.store.stratagems {
		if st.Status == sim.StratagemActive {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r StratagemRepo) UpdateStatus(_ context.Context, stratagemID string, status sim.StratagemStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	st, ok := r.store.stratagems[stratagemID]
	if !ok {
		return ports.ErrNotFound
	}
	st.Status = status
	st.Version++
	r.store.stratagems[stratagemID] = st
	return nil
}
