package market

import (
	"context"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/testhelpers"
	"nftmarket/pkg/units"
)

func TestPostgresStore_Lifecycle(t *testing.T) {
	pool := testhelpers.SetupPool(t)
	f := newFixtureWithStore(t, NewPostgresStore(pool), 1)
	ctx := context.Background()

	for asset := uint64(1); asset <= 5; asset++ {
		f.list(t, alice, asset, "1")
	}
	f.list(t, bob, 6, "2.5")
	f.buy(t, carol, 2)
	_, err := f.engine.DeleteMarketItem(ctx, alice, 3)
	require.NoError(t, err)

	active, err := f.engine.FetchActiveItems(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 4, active.TotalCount)
	require.Equal(t, []uint64{1, 4, 5, 6}, ids(active.Items))

	page, err := f.engine.FetchActiveItems(ctx, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{6}, ids(page.Items))

	_, err = f.engine.FetchActiveItems(ctx, 3, 3)
	require.ErrorIs(t, err, ErrOutOfBounds)

	created, err := f.engine.FetchMyCreatedItems(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 5, created.TotalCount)

	purchased, err := f.engine.FetchMyPurchasedItems(ctx, carol, 1, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, ids(purchased.Items))
	require.Equal(t, carol, purchased.Items[0].Buyer)

	item, err := f.engine.GetItem(ctx, 6)
	require.NoError(t, err)
	require.Equal(t, 0, item.Price.Cmp(units.MustParseEther("2.5")))

	require.Equal(t, 0, f.balance(t, ownerAddr).Cmp(new(big.Int).Mul(listingFee, big.NewInt(6))))

	require.NoError(t, f.engine.Upgrade(ctx, ownerAddr, 2))
	after, err := f.engine.FetchMyCreatedItems(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Equal(t, created, after)

	info, err := f.engine.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, info.LogicVersion)
	require.Equal(t, uint64(6), info.ItemCount)
}

func TestPostgresStore_RollbackOnStaleTransfer(t *testing.T) {
	pool := testhelpers.SetupPool(t)
	f := newFixtureWithStore(t, NewPostgresStore(pool), 1)
	ctx := context.Background()

	f.list(t, alice, 1, "1")
	f.token.failTransfer = errTransferOff
	before := f.balance(t, bob)

	_, err := f.engine.BuyMarketItem(ctx, Call{Sender: bob, Value: units.MustParseEther("1")}, tokenAddr, 1)
	require.ErrorIs(t, err, ErrStaleListing)
	require.Equal(t, 0, f.balance(t, bob).Cmp(before))

	item, err := f.engine.GetItem(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, StateCreated, item.State)
}

func TestPostgresStore_ConcurrentEnginesStayOrdered(t *testing.T) {
	pool := testhelpers.SetupPool(t)
	f := newFixtureWithStore(t, NewPostgresStore(pool), 1)
	ctx := context.Background()

	// a second engine over the same database, as a second server process would be
	other := NewEngine(NewPostgresStore(pool), Registries{tokenAddr: f.token}, marketAddr)

	for asset := uint64(1); asset <= 10; asset++ {
		f.token.mint(alice, asset)
		require.NoError(t, f.token.Approve(ctx, alice, marketAddr, asset))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for asset := uint64(1); asset <= 10; asset++ {
		engine := f.engine
		if asset%2 == 0 {
			engine = other
		}
		wg.Add(1)
		go func(e *Engine, asset uint64) {
			defer wg.Done()
			_, err := e.CreateMarketItem(ctx, Call{Sender: alice, Value: listingFee}, tokenAddr, asset, big.NewInt(1))
			errs <- err
		}(engine, asset)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := f.engine.GetItemCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(10), count)

	active, err := f.engine.FetchActiveItems(ctx, 1, 20)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids(active.Items))
}

func TestPostgresStore_HugePageSize(t *testing.T) {
	pool := testhelpers.SetupPool(t)
	f := newFixtureWithStore(t, NewPostgresStore(pool), 1)
	ctx := context.Background()

	f.list(t, alice, 1, "1")
	f.list(t, alice, 2, "1")

	page, err := f.engine.FetchActiveItems(ctx, 1, math.MaxInt)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalCount)
	require.Equal(t, []uint64{1, 2}, ids(page.Items))

	created, err := f.engine.FetchMyCreatedItems(ctx, alice, 1, 1<<40)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, ids(created.Items))
}

func TestPostgresStore_ZeroAddressHasNoPurchases(t *testing.T) {
	pool := testhelpers.SetupPool(t)
	f := newFixtureWithStore(t, NewPostgresStore(pool), 1)
	ctx := context.Background()

	f.list(t, alice, 1, "1")
	f.list(t, alice, 2, "1")
	f.buy(t, carol, 2)

	unsold, err := f.engine.FetchMyPurchasedItems(ctx, common.Address{}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 0, unsold.TotalCount)
	require.Empty(t, unsold.Items)

	purchased, err := f.engine.FetchMyPurchasedItems(ctx, carol, 1, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, ids(purchased.Items))
}

func ids(items []MarketItem) []uint64 {
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
