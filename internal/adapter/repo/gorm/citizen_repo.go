package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type CitizenRepo struct {
	db *gorm.DB
}

func NewCitizenRepo(db *gorm.DB) CitizenRepo {
	return CitizenRepo{db: db}
}

func (r CitizenRepo) GetByID(ctx context.Context, citizenID string) (sim.Citizen, error) {
	var m citizenModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", citizenID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sim.Citizen{}, ports.ErrNotFound
		}
		return sim.Citizen{}, err
	}
	return citizenFromModel(m), nil
}

func (r CitizenRepo) ListEligible(ctx context.Context) ([]sim.Citizen, error) {
	var models []citizenModel
	if err := getDBFromCtx(ctx, r.db).Where("eligible = ?", true).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]sim.Citizen, 0, len(models))
	for _, m := range models {
		out = append(out, citizenFromModel(m))
	}
	return out, nil
}

func (r CitizenRepo) SavePosition(ctx context.Context, citizenID string, pos sim.Position) error {
	res := getDBFromCtx(ctx, r.db).Model(&citizenModel{}).
		Where("id = ?", citizenID).
		Updates(map[string]any{"lat": pos.Lat, "lng": pos.Lng})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SeedCitizen inserts a citizen row; used by bootstrap and tooling, not
// by the engine.
func (r CitizenRepo) SeedCitizen(ctx context.Context, c sim.Citizen) error {
	m := citizenToModel(c)
	m.Eligible = true
	return getDBFromCtx(ctx, r.db).Create(&m).Error
}

func citizenFromModel(m citizenModel) sim.Citizen {
	c := sim.Citizen{
		ID:             m.ID,
		Name:           m.Name,
		Class:          sim.SocialClass(m.Class),
		Ducats:         m.Ducats,
		CarryCapacity:  m.CarryCapacity,
		LastMealAt:     m.LastMealAt,
		HomeBuildingID: m.HomeBuildingID,
		WorkBuildingID: m.WorkBuildingID,
		ArrivedAt:      m.ArrivedAt,
		DepartsAt:      m.DepartsAt,
		Version:        m.Version,
	}
	if m.Lat != nil && m.Lng != nil {
		c.Position = &sim.Position{Lat: *m.Lat, Lng: *m.Lng}
	}
	return c
}

func citizenToModel(c sim.Citizen) citizenModel {
	m := citizenModel{
		ID:             c.ID,
		Name:           c.Name,
		Class:          int(c.Class),
		Ducats:         c.Ducats,
		CarryCapacity:  c.CarryCapacity,
		LastMealAt:     c.LastMealAt,
		HomeBuildingID: c.HomeBuildingID,
		WorkBuildingID: c.WorkBuildingID,
		ArrivedAt:      c.ArrivedAt,
		DepartsAt:      c.DepartsAt,
		Version:        c.Version,
	}
	if c.Position != nil {
		lat, lng := c.Position.Lat, c.Position.Lng
		m.Lat, m.Lng = &lat, &lng
	}
	return m
}
