package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/units"
)

var (
	marketAddr = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	tokenAddr  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	ownerAddr  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob        = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	carol      = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	dave       = common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")

	listingFee     = units.MustParseEther("0.025")
	startBalance   = units.MustParseEther("100")
	errTransferOff = errors.New("transfer disabled")
)

// fakeRegistry is a minimal ERC-721 ledger.
type fakeRegistry struct {
	mu           sync.Mutex
	owners       map[uint64]common.Address
	approvals    map[uint64]common.Address
	failTransfer error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		owners:    make(map[uint64]common.Address),
		approvals: make(map[uint64]common.Address),
	}
}

func (r *fakeRegistry) mint(to common.Address, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[id] = to
	delete(r.approvals, id)
}

func (r *fakeRegistry) OwnerOf(_ context.Context, id uint64) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %d", ErrUnknownAsset, id)
	}
	return owner, nil
}

func (r *fakeRegistry) GetApproved(_ context.Context, id uint64) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[id]; !ok {
		return common.Address{}, fmt.Errorf("%w: %d", ErrUnknownAsset, id)
	}
	return r.approvals[id], nil
}

func (r *fakeRegistry) Approve(_ context.Context, caller, operator common.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[id] != caller {
		return errors.New("approve caller is not owner")
	}
	r.approvals[id] = operator
	return nil
}

func (r *fakeRegistry) TransferFrom(_ context.Context, caller, from, to common.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTransfer != nil {
		return r.failTransfer
	}
	if r.owners[id] != from {
		return errors.New("transfer from incorrect owner")
	}
	if caller != from && r.approvals[id] != caller {
		return errors.New("transfer caller is not owner nor approved")
	}
	r.owners[id] = to
	delete(r.approvals, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventKind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	engine *Engine
	store  Store
	token  *fakeRegistry
	events *recordingPublisher
}

func newFixture(t *testing.T, version int) *fixture {
	t.Helper()
	return newFixtureWithStore(t, NewMemoryStore(), version)
}

func newFixtureWithStore(t *testing.T, store Store, version int) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store:  store,
		token:  newFakeRegistry(),
		events: &recordingPublisher{},
	}
	f.engine = NewEngine(f.store, Registries{tokenAddr: f.token}, marketAddr, WithPublisher(f.events))
	require.NoError(t, f.engine.Initialize(ctx, ownerAddr, listingFee, version))

	for _, a := range []common.Address{alice, bob, carol} {
		_, err := f.engine.Deposit(ctx, a, startBalance)
		require.NoError(t, err)
	}
	return f
}

// list mints id to seller, approves the market and lists it.
func (f *fixture) list(t *testing.T, seller common.Address, id uint64, price string) MarketItem {
	t.Helper()
	ctx := context.Background()

	f.token.mint(seller, id)
	require.NoError(t, f.token.Approve(ctx, seller, marketAddr, id))
	item, err := f.engine.CreateMarketItem(ctx, Call{Sender: seller, Value: listingFee}, tokenAddr, id, units.MustParseEther(price))
	require.NoError(t, err)
	return item
}

func (f *fixture) buy(t *testing.T, buyer common.Address, id uint64) MarketItem {
	t.Helper()
	ctx := context.Background()

	listed, err := f.store.GetItem(ctx, f.activeItemID(t, id))
	require.NoError(t, err)
	item, err := f.engine.BuyMarketItem(ctx, Call{Sender: buyer, Value: listed.Price}, tokenAddr, id)
	require.NoError(t, err)
	return item
}

func (f *fixture) activeItemID(t *testing.T, assetID uint64) uint64 {
	t.Helper()
	page, err := f.engine.FetchActiveItems(context.Background(), 1, 1000)
	require.NoError(t, err)
	for _, it := range page.Items {
		if it.AssetContract == tokenAddr && it.AssetID == assetID {
			return it.ID
		}
	}
	t.Fatalf("asset %d is not listed", assetID)
	return 0
}

func (f *fixture) balance(t *testing.T, a common.Address) *big.Int {
	t.Helper()
	b, err := f.engine.BalanceOf(context.Background(), a)
	require.NoError(t, err)
	return b
}

func sub(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }
func add(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }
