package locations

import (
	"context"
	"errors"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

// Resolver places citizens with no recorded position: at home when one
// exists, otherwise at their workplace, otherwise at the fallback spawn
// point.
type Resolver struct {
	Buildings ports.BuildingRepository
	Spawn     sim.Position
}

func NewResolver(buildings ports.BuildingRepository, spawn sim.Position) *Resolver {
	return &Resolver{Buildings: buildings, Spawn: spawn}
}

func (r *Resolver) AssignPosition(ctx context.Context, citizen sim.Citizen) (sim.Position, error) {
	for _, id := range []string{citizen.HomeBuildingID, citizen.WorkBuildingID} {
		if id == "" {
			continue
		}
		b, err := r.Buildings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				continue
			}
			return sim.Position{}, err
		}
		return b.Position, nil
	}
	return r.Spawn, nil
}
