package locations

import (
	"context"
	"testing"

	memrepo "rialto/internal/adapter/repo/memory"
	"rialto/internal/domain/sim"
)

var spawnPos = sim.Position{Lat: 45.4371, Lng: 12.3326}

func TestAssignPosition_HomeWins(t *testing.T) {
	store := memrepo.NewStore()
	store.SeedBuilding(sim.Building{ID: "home-1", Type: "house", Position: sim.Position{Lat: 45.44, Lng: 12.33}})
	store.SeedBuilding(sim.Building{ID: "work-1", Type: "workshop", Position: sim.Position{Lat: 45.43, Lng: 12.34}})
	r := NewResolver(memrepo.NewBuildingRepo(store), spawnPos)

	pos, err := r.AssignPosition(context.Background(), sim.Citizen{ID: "cit-1", HomeBuildingID: "home-1", WorkBuildingID: "work-1"})
	if err != nil {
		t.Fatalf("assign position: %v", err)
	}
	if pos.Lat != 45.44 {
		t.Fatalf("placed at %+v, want home", pos)
	}
}

func TestAssignPosition_MissingHomeFallsToWork(t *testing.T) {
	store := memrepo.NewStore()
	store.SeedBuilding(sim.Building{ID: "work-1", Type: "workshop", Position: sim.Position{Lat: 45.43, Lng: 12.34}})
	r := NewResolver(memrepo.NewBuildingRepo(store), spawnPos)

	pos, err := r.AssignPosition(context.Background(), sim.Citizen{ID: "cit-1", HomeBuildingID: "razed", WorkBuildingID: "work-1"})
	if err != nil {
		t.Fatalf("assign position: %v", err)
	}
	if pos.Lat != 45.43 {
		t.Fatalf("placed at %+v, want workplace", pos)
	}
}

func TestAssignPosition_SpawnAsLastResort(t *testing.T) {
	r := NewResolver(memrepo.NewBuildingRepo(memrepo.NewStore()), spawnPos)

	pos, err := r.AssignPosition(context.Background(), sim.Citizen{ID: "cit-1"})
	if err != nil {
		t.Fatalf("assign position: %v", err)
	}
	if pos != spawnPos {
		t.Fatalf("placed at %+v, want spawn", pos)
	}
}
