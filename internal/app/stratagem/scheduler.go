package stratagem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rialto/internal/app/acquire"
	"rialto/internal/app/activity"
	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

var ErrUnknownType = errors.New("unknown stratagem type")

// Scheduler expands long-lived stratagems into activities at a lower
// cadence than the per-tick orchestrator. A stratagem whose executor
// already has an open activity for it produces nothing this pass.
type Scheduler struct {
	Citizens   ports.CitizenRepository
	Stratagems ports.StratagemRepository
	Contracts  ports.ContractRepository
	Buildings  ports.BuildingRepository
	Store      activity.Store
	Acquire    *acquire.Resolver
	Path       ports.Pathfinder
	Tuning     sim.Tuning
	Log        *slog.Logger
	Now        func() time.Time
}

// Tick evaluates one stratagem and returns the activities created on its
// behalf (zero or more). The stratagem itself usually stays active.
func (s *Scheduler) Tick(ctx context.Context, st sim.Stratagem) ([]sim.Activity, error) {
	now := s.now()
	if st.Status != sim.StratagemActive {
		return nil, nil
	}
	if st.ExpiredAt(now) {
		if err := s.Stratagems.UpdateStatus(ctx, st.ID, sim.StratagemExpired); err != nil {
			return nil, err
		}
		return nil, nil
	}

	open, err := s.Store.FindOpenForCitizen(ctx, st.ExecutedBy)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if ref, ok := open.Payload.(sim.StratagemPayload); ok && ref.StratagemID == st.ID {
			return nil, nil
		}
		// Executor is busy with something else; wait for a free slot.
		return nil, nil
	}

	executor, err := s.Citizens.GetByID(ctx, st.ExecutedBy)
	if err != nil {
		return nil, err
	}

	var act *sim.Activity
	switch st.Type {
	case sim.StratagemUndercut:
		act, err = s.expandUndercut(ctx, st, executor, now)
	case sim.StratagemNightAmbush:
		act, err = s.expandNightAmbush(ctx, st, executor, now)
	case sim.StratagemCoordinatePrice:
		act, err = s.expandCoordinatePrice(ctx, st, executor, now)
	case sim.StratagemHoardResource:
		act, err = s.expandHoard(ctx, st, executor, now)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, st.Type)
	}
	if err != nil {
		return nil, err
	}
	if act == nil {
		return nil, nil
	}

	created, err := s.Store.Create(ctx, *act)
	if err != nil {
		if errors.Is(err, activity.ErrCitizenBusy) {
			return nil, nil
		}
		return nil, err
	}
	return []sim.Activity{created}, nil
}

// TickAll runs one scheduling pass over every active stratagem. Expansion
// errors are logged per stratagem and do not stop the pass.
func (s *Scheduler) TickAll(ctx context.Context) ([]sim.Activity, error) {
	active, err := s.Stratagems.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	var out []sim.Activity
	for _, st := range active {
		acts, err := s.Tick(ctx, st)
		if err != nil {
			s.log().Warn("stratagem: tick failed", "stratagem_id", st.ID, "type", st.Type, "err", err)
			continue
		}
		out = append(out, acts...)
	}
	return out, nil
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
