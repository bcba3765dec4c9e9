package memory

import (
	"context"
	"sort"
	"time"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type ContractRepo struct {
	store *Store
}

func NewContractRepo(store *Store) ContractRepo {
	return ContractRepo{store: store}
}

func (r ContractRepo) Create(_ context.Context, c sim.Contract) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.contracts[c.ID]; exists {
		return ports.ErrConflict
	}
	r.store.contracts[c.ID] = c
	return nil
}

func (r ContractRepo) GetByID(_ context.Context, contractID string) (sim.Contract, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.contracts[contractID]
	if !ok {
		return sim.Contract{}, ports.ErrNotFound
	}
	return c, nil
}

func (r ContractRepo) FindStorageLease(_ context.Context, buyerID, resourceType string, at time.Time) (sim.Contract, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.contracts {
		if c.Type == sim.ContractStorageLease && c.BuyerID == buyerID && c.ResourceType == resourceType && c.ActiveAt(at) {
			return c, nil
		}
	}
	return sim.Contract{}, ports.ErrNotFound
}

func (r ContractRepo) FindRecurrentSupply(_ context.Context, buyerID, resourceType string, at time.Time) (sim.Contract, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.contracts {
		if c.Type == sim.ContractRecurrentSupply && c.BuyerID == buyerID && c.ResourceType == resourceType && c.ActiveAt(at) {
			return c, nil
		}
	}
	return sim.Contract{}, ports.ErrNotFound
}

func (r ContractRepo) ListPublicSellByResource(_ context.Context, resourceType string, at time.Time) ([]sim.Contract, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.Contract, 0, 8)
	for _, c := range r.store.contracts {
		if c.Type == sim.ContractPublicSell && c.ResourceType == resourceType && c.ActiveAt(at) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PricePerUnit < out[j].PricePerUnit })
	return out, nil
}

func (r ContractRepo) ListActiveBySeller(_ context.Context, sellerID string, contractType sim.ContractType, at time.Time) ([]sim.Contract, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]sim.Contract, 0, 8)
	for _, c := range r.store.contracts {
		if c.Type != contractType || !c.ActiveAt(at) {
			continue
		}
		if sellerID != "" && c.SellerID != sellerID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r ContractRepo) ReserveQuantity(_ context.Context, contractID string, amount float64, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.contracts[contractID]
	if !ok {
		return ports.ErrNotFound
	}
	if c.Version != expectedVersion || c.RemainingAmount < amount {
		return ports.ErrConflict
	}
	c.RemainingAmount -= amount
	c.Version++
	r.store.contracts[contractID] = c
	return nil
}
