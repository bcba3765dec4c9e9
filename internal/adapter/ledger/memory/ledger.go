package memory

import (
	"context"
	"fmt"
	"sync"

	"rialto/internal/app/ports"
)

// Ledger keeps per-citizen balances in process. Debits past zero fail
// with ErrInsufficientFunds and leave the balance untouched.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]float64
}

func NewLedger() *Ledger {
	return &Ledger{balances: map[string]float64{}}
}

func (l *Ledger) Seed(citizenID string, balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[citizenID] = balance
}

func (l *Ledger) Balance(citizenID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[citizenID]
}

func (l *Ledger) AdjustBalance(_ context.Context, citizenID string, delta float64, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.balances[citizenID] + delta
	if next < 0 {
		return fmt.Errorf("adjust balance for %s (%s): %w", citizenID, reason, ports.ErrInsufficientFunds)
	}
	l.balances[citizenID] = next
	return nil
}
