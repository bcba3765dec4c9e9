package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"rialto/internal/domain/sim"
)

type StackRepo struct {
	db *gorm.DB
}

func NewStackRepo(db *gorm.DB) StackRepo {
	return StackRepo{db: db}
}

func (r StackRepo) ListCarriedByCitizen(ctx context.Context, citizenID string) ([]sim.ResourceStack, error) {
	var models []stackModel
	err := getDBFromCtx(ctx, r.db).
		Where("owner_id = ? AND location = ?", citizenID, string(sim.StackCarried)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return stacksFromModels(models), nil
}

func (r StackRepo) ListByBuilding(ctx context.Context, buildingID string) ([]sim.ResourceStack, error) {
	var models []stackModel
	err := getDBFromCtx(ctx, r.db).
		Where("building_id = ? AND location = ?", buildingID, string(sim.StackStored)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return stacksFromModels(models), nil
}

func (r StackRepo) AmountAt(ctx context.Context, buildingID, resourceType, ownerID string) (float64, error) {
	q := getDBFromCtx(ctx, r.db).Model(&stackModel{}).
		Where("building_id = ? AND location = ? AND resource_type = ?", buildingID, string(sim.StackStored), resourceType)
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var total *float64
	if err := q.Select("SUM(amount)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// DepositCarried relocates every carried stack in one UPDATE; the
// enclosing transaction keeps the transfer atomic.
func (r StackRepo) DepositCarried(ctx context.Context, citizenID, buildingID string) ([]sim.ResourceStack, error) {
	db := getDBFromCtx(ctx, r.db)
	res := db.Model(&stackModel{}).
		Where("owner_id = ? AND location = ?", citizenID, string(sim.StackCarried)).
		Updates(map[string]any{
			"location":    string(sim.StackStored),
			"building_id": buildingID,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	var models []stackModel
	err := db.Where("owner_id = ? AND building_id = ? AND location = ?", citizenID, buildingID, string(sim.StackStored)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return stacksFromModels(models), nil
}

func stacksFromModels(models []stackModel) []sim.ResourceStack {
	out := make([]sim.ResourceStack, 0, len(models))
	for _, m := range models {
		out = append(out, sim.ResourceStack{
			ID:           m.ID,
			ResourceType: m.ResourceType,
			Amount:       m.Amount,
			OwnerID:      m.OwnerID,
			Location:     sim.StackLocation(m.Location),
			BuildingID:   m.BuildingID,
			Version:      m.Version,
		})
	}
	return out
}
