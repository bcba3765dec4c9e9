package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

var (
	ErrCitizenBusy       = errors.New("citizen has an open activity")
	ErrInvalidTransition = errors.New("invalid activity status transition")
)

// Store owns the activity lifecycle. Create enforces the one-open-activity
// invariant: the open-check and the insert run inside one transaction so
// concurrent schedulers cannot double-book a citizen.
type Store struct {
	Tx         ports.TxManager
	Activities ports.ActivityRepository
	Now        func() time.Time
	// OnFailed runs after an activity advances to failed, outside the
	// transaction. Used to feed acquisition cooldowns.
	OnFailed func(ctx context.Context, act sim.Activity)
}

func (s Store) Create(ctx context.Context, a sim.Activity) (sim.Activity, error) {
	if a.CitizenID == "" {
		return sim.Activity{}, fmt.Errorf("create activity: missing citizen id")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = sim.ActivityCreated
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	err := s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		open, err := s.Activities.FindOpenByCitizen(txCtx, a.CitizenID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrCitizenBusy
		}
		return s.Activities.Create(txCtx, a)
	})
	if err != nil {
		// A concurrent scheduler can slip between the open-check and the
		// insert; the store's uniqueness guard rejects the second insert
		// and it surfaces the same way as the in-tx check.
		if errors.Is(err, ports.ErrConflict) {
			return sim.Activity{}, ErrCitizenBusy
		}
		return sim.Activity{}, err
	}
	return a, nil
}

func (s Store) FindOpenForCitizen(ctx context.Context, citizenID string) (*sim.Activity, error) {
	return s.Activities.FindOpenByCitizen(ctx, citizenID)
}

func (s Store) Advance(ctx context.Context, activityID string, next sim.ActivityStatus) error {
	var current sim.Activity
	err := s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		current, err = s.Activities.GetByID(txCtx, activityID)
		if err != nil {
			return err
		}
		if !current.Status.CanAdvance(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}
		return s.Activities.UpdateStatus(txCtx, activityID, next, s.now())
	})
	if err != nil {
		return err
	}
	if next == sim.ActivityFailed && s.OnFailed != nil {
		current.Status = next
		s.OnFailed(ctx, current)
	}
	return nil
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
