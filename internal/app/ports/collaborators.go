package ports

import (
	"context"

	"rialto/internal/domain/sim"
)

// Pathfinder is the external routing collaborator. A failed or absent
// route comes back as ErrUnreachable; callers treat it as "cannot reach"
// and never retry within one decision.
type Pathfinder interface {
	FindPath(ctx context.Context, from, to sim.Position) (sim.Route, error)
}

// LocationResolver assigns a position to a citizen whose location is
// unknown.
type LocationResolver interface {
	AssignPosition(ctx context.Context, citizen sim.Citizen) (sim.Position, error)
}

// Ledger adjusts a citizen's balance. Insufficient funds surface as
// ErrInsufficientFunds, not as a generic failure.
type Ledger interface {
	AdjustBalance(ctx context.Context, citizenID string, delta float64, reason string) error
}

// Notifier is fire-and-forget; implementations must not block decisions.
type Notifier interface {
	Notify(citizenID, kind, message string, details map[string]any)
}

type DecisionMetrics interface {
	RecordDecision(handler string)
	RecordFallback()
	RecordHandlerFailure(handler string)
	RecordConflict()
}
