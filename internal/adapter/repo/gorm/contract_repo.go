package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type ContractRepo struct {
	db *gorm.DB
}

func NewContractRepo(db *gorm.DB) ContractRepo {
	return ContractRepo{db: db}
}

func (r ContractRepo) Create(ctx context.Context, c sim.Contract) error {
	m := contractToModel(c)
	return getDBFromCtx(ctx, r.db).Create(&m).Error
}

func (r ContractRepo) GetByID(ctx context.Context, contractID string) (sim.Contract, error) {
	var m contractModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", contractID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sim.Contract{}, ports.ErrNotFound
		}
		return sim.Contract{}, err
	}
	return contractFromModel(m), nil
}

func (r ContractRepo) FindStorageLease(ctx context.Context, buyerID, resourceType string, at time.Time) (sim.Contract, error) {
	return r.findOne(ctx, at, "type = ? AND buyer_id = ? AND resource_type = ?", string(sim.ContractStorageLease), buyerID, resourceType)
}

func (r ContractRepo) FindRecurrentSupply(ctx context.Context, buyerID, resourceType string, at time.Time) (sim.Contract, error) {
	return r.findOne(ctx, at, "type = ? AND buyer_id = ? AND resource_type = ?", string(sim.ContractRecurrentSupply), buyerID, resourceType)
}

func (r ContractRepo) findOne(ctx context.Context, at time.Time, query string, args ...any) (sim.Contract, error) {
	var m contractModel
	err := getDBFromCtx(ctx, r.db).
		Where(query, args...).
		Where("created_at <= ? AND (end_at IS NULL OR end_at >= ?)", at, at).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sim.Contract{}, ports.ErrNotFound
	}
	if err != nil {
		return sim.Contract{}, err
	}
	return contractFromModel(m), nil
}

func (r ContractRepo) ListPublicSellByResource(ctx context.Context, resourceType string, at time.Time) ([]sim.Contract, error) {
	var models []contractModel
	err := getDBFromCtx(ctx, r.db).
		Where("type = ? AND resource_type = ?", string(sim.ContractPublicSell), resourceType).
		Where("created_at <= ? AND (end_at IS NULL OR end_at >= ?)", at, at).
		Order("price_per_unit ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return contractsFromModels(models), nil
}

func (r ContractRepo) ListActiveBySeller(ctx context.Context, sellerID string, contractType sim.ContractType, at time.Time) ([]sim.Contract, error) {
	q := getDBFromCtx(ctx, r.db).
		Where("type = ?", string(contractType)).
		Where("created_at <= ? AND (end_at IS NULL OR end_at >= ?)", at, at)
	if sellerID != "" {
		q = q.Where("seller_id = ?", sellerID)
	}
	var models []contractModel
	if err := q.Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return contractsFromModels(models), nil
}

// ReserveQuantity is the optimistic decrement: the version guard plus the
// remaining-amount guard run in one UPDATE, so a lost race or an
// oversubscribed contract both come back as ErrConflict.
func (r ContractRepo) ReserveQuantity(ctx context.Context, contractID string, amount float64, expectedVersion int64) error {
	res := getDBFromCtx(ctx, r.db).Model(&contractModel{}).
		Where("id = ? AND version = ? AND remaining_amount >= ?", contractID, expectedVersion, amount).
		Updates(map[string]any{
			"remaining_amount": gorm.Expr("remaining_amount - ?", amount),
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func contractsFromModels(models []contractModel) []sim.Contract {
	out := make([]sim.Contract, 0, len(models))
	for _, m := range models {
		out = append(out, contractFromModel(m))
	}
	return out
}

func contractFromModel(m contractModel) sim.Contract {
	var endAt time.Time
	if m.EndAt != nil {
		endAt = *m.EndAt
	}
	return sim.Contract{
		ID:               m.ID,
		Type:             sim.ContractType(m.Type),
		ResourceType:     m.ResourceType,
		TargetAmount:     m.TargetAmount,
		RemainingAmount:  m.RemainingAmount,
		PricePerUnit:     m.PricePerUnit,
		SellerID:         m.SellerID,
		BuyerID:          m.BuyerID,
		SellerBuildingID: m.SellerBuildingID,
		BuyerBuildingID:  m.BuyerBuildingID,
		CreatedAt:        m.CreatedAt,
		EndAt:            endAt,
		Version:          m.Version,
	}
}

func contractToModel(c sim.Contract) contractModel {
	var endAt *time.Time
	if !c.EndAt.IsZero() {
		t := c.EndAt
		endAt = &t
	}
	return contractModel{
		ID:               c.ID,
		Type:             string(c.Type),
		ResourceType:     c.ResourceType,
		TargetAmount:     c.TargetAmount,
		RemainingAmount:  c.RemainingAmount,
		PricePerUnit:     c.PricePerUnit,
		SellerID:         c.SellerID,
		BuyerID:          c.BuyerID,
		SellerBuildingID: c.SellerBuildingID,
		BuyerBuildingID:  c.BuyerBuildingID,
		CreatedAt:        c.CreatedAt,
		EndAt:            endAt,
		Version:          c.Version,
	}
}
