package memory

import (
	"context"
	"sync"
)

// TxManager serializes logical transactions. Repositories take the store
// mutex per operation, so a transaction body stays atomic with respect to
// every other transaction.
type TxManager struct {
	mu sync.Mutex
}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (t *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
