package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type BuildingRepo struct {
	db *gorm.DB
}

func NewBuildingRepo(db *gorm.DB) BuildingRepo {
	return BuildingRepo{db: db}
}

func (r BuildingRepo) GetByID(ctx context.Context, buildingID string) (sim.Building, error) {
	var m buildingModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", buildingID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sim.Building{}, ports.ErrNotFound
		}
		return sim.Building{}, err
	}
	return buildingFromModel(m), nil
}

func (r BuildingRepo) ListByType(ctx context.Context, buildingType string) ([]sim.Building, error) {
	return r.list(ctx, "type = ?", buildingType)
}

func (r BuildingRepo) ListByOperator(ctx context.Context, operatorID string) ([]sim.Building, error) {
	return r.list(ctx, "operator_id = ?", operatorID)
}

func (r BuildingRepo) ListUnderConstruction(ctx context.Context) ([]sim.Building, error) {
	return r.list(ctx, "under_construction = ?", true)
}

func (r BuildingRepo) list(ctx context.Context, query string, args ...any) ([]sim.Building, error) {
	var models []buildingModel
	if err := getDBFromCtx(ctx, r.db).Where(query, args...).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]sim.Building, 0, len(models))
	for _, m := range models {
		out = append(out, buildingFromModel(m))
	}
	return out, nil
}

func buildingFromModel(m buildingModel) sim.Building {
	return sim.Building{
		ID:                m.ID,
		Type:              m.Type,
		Name:              m.Name,
		Tier:              m.Tier,
		Position:          sim.Position{Lat: m.Lat, Lng: m.Lng},
		OwnerID:           m.OwnerID,
		OperatorID:        m.OperatorID,
		OccupantID:        m.OccupantID,
		StorageCapacity:   m.StorageCapacity,
		UnderConstruction: m.UnderConstruction,
		ConstructionLeft:  m.ConstructionLeft,
		LastCheckedAt:     m.LastCheckedAt,
		Version:           m.Version,
	}
}
