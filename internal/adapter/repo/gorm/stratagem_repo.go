package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type StratagemRepo struct {
	db *gorm.DB
}

func NewStratagemRepo(db *gorm.DB) StratagemRepo {
	return StratagemRepo{db: db}
}

func (r StratagemRepo) Create(ctx context.Context, st sim.Stratagem) error {
	m := stratagemModel{
		ID:               st.ID,
		Type:             string(st.Type),
		ExecutedBy:       st.ExecutedBy,
		TargetCitizenID:  st.TargetCitizenID,
		TargetBuildingID: st.TargetBuildingID,
		ResourceType:     st.ResourceType,
		Variant:          st.Variant,
		Status:           string(st.Status),
		CreatedAt:        st.CreatedAt,
		ExpiresAt:        st.ExpiresAt,
		Version:          st.Version,
	}
	return getDBFromCtx(ctx, r.db).Create(&m).Error
}

func (r StratagemRepo) ListActive(ctx context.Context, _ time.Time) ([]sim.Stratagem, error) {
	var models []stratagemModel
	err := getDBFromCtx(ctx, r.db).
		Where("status = ?", string(sim.StratagemActive)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]sim.Stratagem, 0, len(models))
	for _, m := range models {
		out = append(out, sim.Stratagem{
			ID:               m.ID,
			Type:             sim.StratagemType(m.Type),
			ExecutedBy:       m.ExecutedBy,
			TargetCitizenID:  m.TargetCitizenID,
			TargetBuildingID: m.TargetBuildingID,
			ResourceType:     m.ResourceType,
			Variant:          m.Variant,
			Status:           sim.StratagemStatus(m.Status),
			CreatedAt:        m.CreatedAt,
			ExpiresAt:        m.ExpiresAt,
			Version:          m.Version,
		})
	}
	return out, nil
}

func (r StratagemRepo) UpdateStatus(ctx context.Context, stratagemID string, status sim.StratagemStatus) error {
	res := getDBFromCtx(ctx, r.db).Model(&stratagemModel{}).
		Where("id = ?", stratagemID).
		Updates(map[string]any{"status": string(status), "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}
