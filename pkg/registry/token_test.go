package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/market"
)

var (
	tokenAddr  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	marketAddr = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	alice      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob        = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func TestToken_MintSequentialIDs(t *testing.T) {
	token := NewToken(tokenAddr, "BadgeToken", "BADGE")
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		id, err := token.MintTo(ctx, alice)
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
	require.Equal(t, 3, token.BalanceOf(alice))
	require.Equal(t, uint64(3), token.TotalSupply())

	_, err := token.MintTo(ctx, common.Address{})
	require.ErrorIs(t, err, ErrZeroAddress)
}

func TestToken_UnknownAsset(t *testing.T) {
	token := NewToken(tokenAddr, "BadgeToken", "BADGE")
	ctx := context.Background()

	_, err := token.OwnerOf(ctx, 1)
	require.ErrorIs(t, err, market.ErrUnknownAsset)
	_, err = token.GetApproved(ctx, 1)
	require.ErrorIs(t, err, market.ErrUnknownAsset)
}

func TestToken_ApproveAndTransfer(t *testing.T) {
	token := NewToken(tokenAddr, "BadgeToken", "BADGE")
	ctx := context.Background()
	id, err := token.MintTo(ctx, alice)
	require.NoError(t, err)

	require.ErrorIs(t, token.Approve(ctx, bob, marketAddr, id), ErrNotOwnerNorApproved)
	require.ErrorIs(t, token.Approve(ctx, alice, alice, id), ErrApproveToOwner)
	require.NoError(t, token.Approve(ctx, alice, marketAddr, id))

	approved, err := token.GetApproved(ctx, id)
	require.NoError(t, err)
	require.Equal(t, marketAddr, approved)

	require.ErrorIs(t, token.TransferFrom(ctx, bob, alice, bob, id), ErrNotOwnerNorApproved)
	require.ErrorIs(t, token.TransferFrom(ctx, marketAddr, bob, bob, id), ErrTransferFromNotOwner)

	require.NoError(t, token.TransferFrom(ctx, marketAddr, alice, bob, id))
	owner, err := token.OwnerOf(ctx, id)
	require.NoError(t, err)
	require.Equal(t, bob, owner)

	approved, err = token.GetApproved(ctx, id)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, approved, "transfer clears approval")
	require.Zero(t, token.BalanceOf(alice))
	require.Equal(t, 1, token.BalanceOf(bob))
}

func TestToken_RevokeApproval(t *testing.T) {
	token := NewToken(tokenAddr, "BadgeToken", "BADGE")
	ctx := context.Background()
	id, err := token.MintTo(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, token.Approve(ctx, alice, marketAddr, id))
	require.NoError(t, token.Approve(ctx, alice, common.Address{}, id))

	require.ErrorIs(t, token.TransferFrom(ctx, marketAddr, alice, bob, id), ErrNotOwnerNorApproved)
}
