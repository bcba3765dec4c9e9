package acquire

import (
	"sync"
	"time"

	"rialto/internal/domain/sim"
)

// FetchCooldowns remembers contracts whose fetches recently failed so the
// resolver stops hammering them for a while.
type FetchCooldowns struct {
	mu       sync.Mutex
	failedAt map[string]time.Time
	window   time.Duration
}

func NewFetchCooldowns(window time.Duration) *FetchCooldowns {
	return &FetchCooldowns{
		failedAt: map[string]time.Time{},
		window:   window,
	}
}

func (c *FetchCooldowns) RecordFailure(contractID string, now time.Time) {
	if contractID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedAt[contractID] = now
}

// RecordActivityFailure inspects a failed activity and cools down the
// contract it was fetching against, if any.
func (c *FetchCooldowns) RecordActivityFailure(act sim.Activity, now time.Time) {
	if act.Type != sim.ActivityFetchResource {
		return
	}
	m, ok := act.Payload.(sim.ManifestPayload)
	if !ok {
		return
	}
	c.RecordFailure(m.ContractID, now)
}

func (c *FetchCooldowns) Excluded(contractID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.failedAt[contractID]
	if !ok {
		return false
	}
	if now.Sub(at) >= c.window {
		delete(c.failedAt, contractID)
		return false
	}
	return true
}
