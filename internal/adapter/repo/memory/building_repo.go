package memory

import (
	"context"
	"sort"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type BuildingRepo struct {
	store *Store
}

func NewBuildingRepo(store *Store) BuildingRepo {
	return BuildingRepo{store: store}
}

func (r BuildingRepo) GetByID(_ context.Context, buildingID string) (sim.Building, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.buildings[buildingID]
	if !ok {
		return sim.Building{}, ports.ErrNotFound
	}
	return b, nil
}

func (r BuildingRepo) ListByType(_ context.Context, buildingType string) ([]sim.Building, error) {
	return r.list(func(b sim.Building) bool { return b.Type == buildingType })
}

func (r BuildingRepo) ListByOperator(_ context.Context, operatorID string) ([]sim.Building, error) {
	return r.list(func(b sim.Building) bool { return b.OperatorID == operatorID })
}

func (r BuildingRepo) ListUnderConstruction(_ context.Context) ([]sim.Building, error) {
	return r.list(func(b sim.Building) bool { return b.UnderConstruction })
}

func (r BuildingRepo) list(match func(sim.Building) bool) ([]sim.Building, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.Building, 0, 8)
	for _, b := range r.store.buildings {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
