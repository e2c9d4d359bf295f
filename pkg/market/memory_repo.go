package market

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"nftmarket/pkg/layout"
)

type assetKey struct {
	contract common.Address
	id       uint64
}

// memoryStore keeps items in id order (items[id-1]) with secondary indices
// maintained on commit, so views never scan the full item list.
type memoryStore struct {
	mu sync.RWMutex

	initialized bool
	state       MarketState
	layout      layout.Layout

	items         []MarketItem
	active        []uint64
	activeByAsset map[assetKey][]uint64
	bySeller      map[common.Address][]uint64
	byBuyer       map[common.Address][]uint64
	balances      map[common.Address]*big.Int
}

// NewMemoryStore returns an empty process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{
		activeByAsset: make(map[assetKey][]uint64),
		bySeller:      make(map[common.Address][]uint64),
		byBuyer:       make(map[common.Address][]uint64),
		balances:      make(map[common.Address]*big.Int),
	}
}

// Begin holds the write lock until the transaction ends.
func (s *memoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &memoryTx{
		s:        s,
		updated:  make(map[uint64]MarketItem),
		balances: make(map[common.Address]*big.Int),
	}, nil
}

func (s *memoryStore) State(_ context.Context) (MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return MarketState{}, ErrNotInitialized
	}
	return s.state.clone(), nil
}

func (s *memoryStore) Layout(_ context.Context) (layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout, nil
}

func (s *memoryStore) GetItem(_ context.Context, id uint64) (MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || id > uint64(len(s.items)) {
		return MarketItem{}, ErrNotFound
	}
	return cloneItem(s.items[id-1]), nil
}

func (s *memoryStore) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInt(s.balances[account]), nil
}

func (s *memoryStore) ListActive(_ context.Context, offset, limit int) ([]MarketItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.active, offset, limit), len(s.active), nil
}

func (s *memoryStore) ListBySeller(_ context.Context, seller common.Address, offset, limit int) ([]MarketItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySeller[seller]
	return s.collect(ids, offset, limit), len(ids), nil
}

func (s *memoryStore) ListByBuyer(_ context.Context, buyer common.Address, offset, limit int) ([]MarketItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byBuyer[buyer]
	return s.collect(ids, offset, limit), len(ids), nil
}

func (s *memoryStore) collect(ids []uint64, offset, limit int) []MarketItem {
	ids = window(ids, offset, limit)
	out := make([]MarketItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneItem(s.items[id-1]))
	}
	return out
}

func window(ids []uint64, offset, limit int) []uint64 {
	if offset < 0 || offset >= len(ids) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(ids) || end < offset {
		end = len(ids)
	}
	return ids[offset:end]
}

func (s *memoryStore) apply(t *memoryTx) {
	if t.state != nil {
		s.state = t.state.clone()
		s.initialized = true
	}
	if t.layout != nil {
		s.layout = *t.layout
	}

	updated := make([]uint64, 0, len(t.updated))
	for id := range t.updated {
		updated = append(updated, id)
	}
	slices.Sort(updated)
	for _, id := range updated {
		prev := s.items[id-1]
		next := t.updated[id]
		s.items[id-1] = next
		if prev.State == StateCreated && next.State != StateCreated {
			s.deactivate(next)
		}
		if !prev.Sold() && next.Sold() {
			s.byBuyer[next.Buyer] = insertSorted(s.byBuyer[next.Buyer], id)
		}
	}

	// new ids are always the largest so far, so plain appends keep order
	for _, item := range t.inserted {
		s.items = append(s.items, item)
		s.bySeller[item.Seller] = append(s.bySeller[item.Seller], item.ID)
		if item.State == StateCreated {
			key := assetKey{item.AssetContract, item.AssetID}
			s.active = append(s.active, item.ID)
			s.activeByAsset[key] = append(s.activeByAsset[key], item.ID)
		}
		if item.Sold() {
			s.byBuyer[item.Buyer] = insertSorted(s.byBuyer[item.Buyer], item.ID)
		}
	}

	for account, amount := range t.balances {
		if amount.Sign() == 0 {
			delete(s.balances, account)
			continue
		}
		s.balances[account] = amount
	}
}

func (s *memoryStore) deactivate(item MarketItem) {
	s.active = removeSorted(s.active, item.ID)
	key := assetKey{item.AssetContract, item.AssetID}
	ids := removeSorted(s.activeByAsset[key], item.ID)
	if len(ids) == 0 {
		delete(s.activeByAsset, key)
		return
	}
	s.activeByAsset[key] = ids
}

func insertSorted(ids []uint64, id uint64) []uint64 {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeSorted(ids []uint64, id uint64) []uint64 {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

// memoryTx buffers writes over the locked store and applies them on Commit.
type memoryTx struct {
	s    *memoryStore
	done bool

	state    *MarketState
	layout   *layout.Layout
	inserted []MarketItem
	updated  map[uint64]MarketItem
	balances map[common.Address]*big.Int
}

func (t *memoryTx) State(_ context.Context) (MarketState, error) {
	if t.state != nil {
		return t.state.clone(), nil
	}
	if !t.s.initialized {
		return MarketState{}, ErrNotInitialized
	}
	return t.s.state.clone(), nil
}

func (t *memoryTx) Layout(_ context.Context) (layout.Layout, error) {
	if t.layout != nil {
		return *t.layout, nil
	}
	return t.s.layout, nil
}

func (t *memoryTx) GetItem(_ context.Context, id uint64) (MarketItem, error) {
	item, ok := t.lookup(id)
	if !ok {
		return MarketItem{}, ErrNotFound
	}
	return cloneItem(item), nil
}

func (t *memoryTx) lookup(id uint64) (MarketItem, bool) {
	base := uint64(len(t.s.items))
	switch {
	case id == 0:
		return MarketItem{}, false
	case id <= base:
		if item, ok := t.updated[id]; ok {
			return item, true
		}
		return t.s.items[id-1], true
	case id-base <= uint64(len(t.inserted)):
		return t.inserted[id-base-1], true
	default:
		return MarketItem{}, false
	}
}

func (t *memoryTx) FindActiveItem(_ context.Context, contract common.Address, assetID uint64) (MarketItem, error) {
	for _, id := range t.s.activeByAsset[assetKey{contract, assetID}] {
		if item, _ := t.lookup(id); item.State == StateCreated {
			return cloneItem(item), nil
		}
	}
	for _, item := range t.inserted {
		if item.AssetContract == contract && item.AssetID == assetID && item.State == StateCreated {
			return cloneItem(item), nil
		}
	}
	return MarketItem{}, ErrNotListed
}

func (t *memoryTx) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	if v, ok := t.balances[account]; ok {
		return cloneInt(v), nil
	}
	return cloneInt(t.s.balances[account]), nil
}

func (t *memoryTx) PutState(_ context.Context, state MarketState) error {
	st := state.clone()
	t.state = &st
	return nil
}

func (t *memoryTx) PutLayout(_ context.Context, l layout.Layout) error {
	cp := layout.Layout{Version: l.Version, Fields: slices.Clone(l.Fields)}
	t.layout = &cp
	return nil
}

func (t *memoryTx) InsertItem(_ context.Context, item MarketItem) error {
	next := uint64(len(t.s.items)+len(t.inserted)) + 1
	if item.ID != next {
		return fmt.Errorf("insert item %d: next id is %d", item.ID, next)
	}
	t.inserted = append(t.inserted, cloneItem(item))
	return nil
}

func (t *memoryTx) UpdateItem(_ context.Context, item MarketItem) error {
	base := uint64(len(t.s.items))
	if _, ok := t.lookup(item.ID); !ok {
		return ErrNotFound
	}
	if item.ID > base {
		t.inserted[item.ID-base-1] = cloneItem(item)
		return nil
	}
	t.updated[item.ID] = cloneItem(item)
	return nil
}

func (t *memoryTx) SetBalance(_ context.Context, account common.Address, amount *big.Int) error {
	t.balances[account] = cloneInt(amount)
	return nil
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("memory tx already closed")
	}
	t.done = true
	t.s.apply(t)
	t.s.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}
