package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type ActivityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepo {
	return ActivityRepo{db: db}
}

func (r ActivityRepo) Create(ctx context.Context, a sim.Activity) error {
	m, err := activityToModel(a)
	if err != nil {
		return err
	}
	if err := getDBFromCtx(ctx, r.db).Create(&m).Error; err != nil {
		// Unique violation on the open-activity index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r ActivityRepo) GetByID(ctx context.Context, activityID string) (sim.Activity, error) {
	var m activityModel
	if err := getDBFromCtx(ctx, r.db).Where("id = ?", activityID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sim.Activity{}, ports.ErrNotFound
		}
		return sim.Activity{}, err
	}
	return activityFromModel(m)
}

func (r ActivityRepo) FindOpenByCitizen(ctx context.Context, citizenID string) (*sim.Activity, error) {
	var m activityModel
	err := getDBFromCtx(ctx, r.db).
		Where("citizen_id = ? AND status IN ?", citizenID, []string{string(sim.ActivityCreated), string(sim.ActivityInProgress)}).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a, err := activityFromModel(m)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r ActivityRepo) UpdateStatus(ctx context.Context, activityID string, status sim.ActivityStatus, at time.Time) error {
	updates := map[string]any{"status": string(status)}
	switch status {
	case sim.ActivityInProgress:
		updates["start_at"] = at
	case sim.ActivityConcluded, sim.ActivityFailed:
		updates["end_at"] = at
	}
	res := getDBFromCtx(ctx, r.db).Model(&activityModel{}).Where("id = ?", activityID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func activityToModel(a sim.Activity) (activityModel, error) {
	payload, err := sim.EncodePayload(a.Payload)
	if err != nil {
		return activityModel{}, fmt.Errorf("activity %s: %w", a.ID, err)
	}
	var route []byte
	if a.Route != nil {
		route, err = json.Marshal(a.Route)
		if err != nil {
			return activityModel{}, fmt.Errorf("activity %s route: %w", a.ID, err)
		}
	}
	return activityModel{
		ID:             a.ID,
		Type:           string(a.Type),
		CitizenID:      a.CitizenID,
		FromBuildingID: a.FromBuildingID,
		ToBuildingID:   a.ToBuildingID,
		RouteJSON:      route,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		StartAt:        a.StartAt,
		EndAt:          a.EndAt,
		Priority:       a.Priority,
		PayloadJSON:    payload,
	}, nil
}

func activityFromModel(m activityModel) (sim.Activity, error) {
	payload, err := sim.DecodePayload(m.PayloadJSON)
	if err != nil {
		return sim.Activity{}, fmt.Errorf("activity %s: %w", m.ID, err)
	}
	var route *sim.Route
	if len(m.RouteJSON) > 0 {
		route = &sim.Route{}
		if err := json.Unmarshal(m.RouteJSON, route); err != nil {
			return sim.Activity{}, fmt.Errorf("activity %s route: %w", m.ID, err)
		}
	}
	return sim.Activity{
		ID:             m.ID,
		Type:           sim.ActivityType(m.Type),
		CitizenID:      m.CitizenID,
		FromBuildingID: m.FromBuildingID,
		ToBuildingID:   m.ToBuildingID,
		Route:          route,
		Status:         sim.ActivityStatus(m.Status),
		CreatedAt:      m.CreatedAt,
		StartAt:        m.StartAt,
		EndAt:          m.EndAt,
		Priority:       m.Priority,
		Payload:        payload,
	}, nil
}
