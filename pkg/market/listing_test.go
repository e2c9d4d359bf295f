package market

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/units"
)

func TestCreateMarketItem_Success(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	item := f.list(t, alice, 1, "1")

	require.Equal(t, uint64(1), item.ID)
	require.Equal(t, tokenAddr, item.AssetContract)
	require.Equal(t, uint64(1), item.AssetID)
	require.Equal(t, alice, item.Seller)
	require.Equal(t, common.Address{}, item.Buyer)
	require.Equal(t, 0, item.Price.Cmp(units.MustParseEther("1")))
	require.Equal(t, StateCreated, item.State)

	require.Equal(t, 0, f.balance(t, alice).Cmp(sub(startBalance, listingFee)))
	require.Equal(t, 0, f.balance(t, ownerAddr).Cmp(listingFee))

	count, err := f.engine.GetItemCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	require.Equal(t, []EventKind{EventItemCreated}, f.events.kinds())
	require.Equal(t, item.ID, f.events.events[0].Item.ID)

	owner, err := f.token.OwnerOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, alice, owner, "asset is not escrowed")
}

func TestCreateMarketItem_Rejections(t *testing.T) {
	ctx := context.Background()
	otherContract := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	tests := []struct {
		name     string
		setup    func(f *fixture)
		call     Call
		contract common.Address
		price    *big.Int
		want     error
		kind     Kind
	}{
		{
			name:  "zero price",
			setup: func(f *fixture) { f.token.mint(alice, 1); _ = f.token.Approve(ctx, alice, marketAddr, 1) },
			call:  Call{Sender: alice, Value: listingFee},
			price: new(big.Int),
			want:  ErrInvalidPrice,
			kind:  KindInvalidInput,
		},
		{
			name:  "not the asset owner",
			setup: func(f *fixture) { f.token.mint(bob, 1); _ = f.token.Approve(ctx, bob, marketAddr, 1) },
			call:  Call{Sender: alice, Value: listingFee},
			want:  ErrNotAssetOwner,
			kind:  KindNotOwner,
		},
		{
			name:  "not approved",
			setup: func(f *fixture) { f.token.mint(alice, 1) },
			call:  Call{Sender: alice, Value: listingFee},
			want:  ErrApprovalRequired,
			kind:  KindApprovalRequired,
		},
		{
			name:  "approved to someone else",
			setup: func(f *fixture) { f.token.mint(alice, 1); _ = f.token.Approve(ctx, alice, bob, 1) },
			call:  Call{Sender: alice, Value: listingFee},
			want:  ErrApprovalRequired,
			kind:  KindApprovalRequired,
		},
		{
			name:  "fee too low",
			setup: func(f *fixture) { f.token.mint(alice, 1); _ = f.token.Approve(ctx, alice, marketAddr, 1) },
			call:  Call{Sender: alice, Value: units.MustParseEther("0.02")},
			want:  ErrInvalidFeeAmount,
			kind:  KindInvalidFeeAmount,
		},
		{
			name:  "fee too high",
			setup: func(f *fixture) { f.token.mint(alice, 1); _ = f.token.Approve(ctx, alice, marketAddr, 1) },
			call:  Call{Sender: alice, Value: units.MustParseEther("1")},
			want:  ErrInvalidFeeAmount,
			kind:  KindInvalidFeeAmount,
		},
		{
			name:  "no funds",
			setup: func(f *fixture) { f.token.mint(dave, 1); _ = f.token.Approve(ctx, dave, marketAddr, 1) },
			call:  Call{Sender: dave, Value: listingFee},
			want:  ErrInsufficientFunds,
			kind:  KindInsufficientFunds,
		},
		{
			name:     "unknown contract",
			setup:    func(f *fixture) {},
			call:     Call{Sender: alice, Value: listingFee},
			contract: otherContract,
			want:     ErrUnknownContract,
			kind:     KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1)
			tt.setup(f)
			contract := tt.contract
			if contract == (common.Address{}) {
				contract = tokenAddr
			}
			price := tt.price
			if price == nil {
				price = units.MustParseEther("1")
			}
			before := f.balance(t, tt.call.Sender)

			_, err := f.engine.CreateMarketItem(ctx, tt.call, contract, 1, price)

			require.ErrorIs(t, err, tt.want)
			require.Equal(t, tt.kind, KindOf(err))

			count, err := f.engine.GetItemCount(ctx)
			require.NoError(t, err)
			require.Zero(t, count)
			require.Equal(t, 0, f.balance(t, tt.call.Sender).Cmp(before))
			require.Zero(t, f.balance(t, ownerAddr).Sign())
			require.Empty(t, f.events.kinds())
		})
	}
}

func TestCreateMarketItem_IDsStrictlyIncrease(t *testing.T) {
	f := newFixture(t, 1)

	var last uint64
	for asset := uint64(10); asset < 20; asset++ {
		item := f.list(t, bob, asset, "0.5")
		require.Greater(t, item.ID, last)
		require.Equal(t, last+1, item.ID)
		last = item.ID
	}

	_, err := f.engine.DeleteMarketItem(context.Background(), bob, 10)
	require.NoError(t, err)
	item := f.list(t, bob, 42, "0.5")
	require.Equal(t, uint64(11), item.ID, "ids are never reused")
}

func TestCreateMarketItem_UsesCurrentFee(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	newFee := units.MustParseEther("0.05")

	require.NoError(t, f.engine.SetListingFee(ctx, ownerAddr, newFee))
	f.token.mint(alice, 1)
	require.NoError(t, f.token.Approve(ctx, alice, marketAddr, 1))

	_, err := f.engine.CreateMarketItem(ctx, Call{Sender: alice, Value: listingFee}, tokenAddr, 1, big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidFeeAmount)

	_, err = f.engine.CreateMarketItem(ctx, Call{Sender: alice, Value: newFee}, tokenAddr, 1, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, 0, f.balance(t, ownerAddr).Cmp(newFee))
}

func TestCreateMarketItem_ZeroFee(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	require.NoError(t, f.engine.SetListingFee(ctx, ownerAddr, new(big.Int)))
	f.token.mint(dave, 1)
	require.NoError(t, f.token.Approve(ctx, dave, marketAddr, 1))

	item, err := f.engine.CreateMarketItem(ctx, Call{Sender: dave}, tokenAddr, 1, big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, uint64(1), item.ID)
}

func TestCreateMarketItem_NotInitialized(t *testing.T) {
	token := newFakeRegistry()
	engine := NewEngine(NewMemoryStore(), Registries{tokenAddr: token}, marketAddr)
	token.mint(alice, 1)
	require.NoError(t, token.Approve(context.Background(), alice, marketAddr, 1))

	_, err := engine.CreateMarketItem(context.Background(), Call{Sender: alice}, tokenAddr, 1, big.NewInt(1))
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Equal(t, KindInternal, KindOf(err))
}
