package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Service interface {
	CreateMarketItem(ctx context.Context, call Call, assetContract common.Address, assetID uint64, price *big.Int) (MarketItem, error)
	BuyMarketItem(ctx context.Context, call Call, assetContract common.Address, assetID uint64) (MarketItem, error)
	DeleteMarketItem(ctx context.Context, caller common.Address, id uint64) (MarketItem, error)

	GetItem(ctx context.Context, id uint64) (MarketItem, error)
	GetItemCount(ctx context.Context) (uint64, error)
	FetchActiveItems(ctx context.Context, page, size int) (Page, error)
	FetchMyCreatedItems(ctx context.Context, caller common.Address, page, size int) (Page, error)
	FetchMyPurchasedItems(ctx context.Context, caller common.Address, page, size int) (Page, error)

	GetListingFee(ctx context.Context) (*big.Int, error)
	MarketOwner(ctx context.Context) (common.Address, error)
	FeesCollected(ctx context.Context) (*big.Int, error)
	Info(ctx context.Context) (MarketInfo, error)
	SetListingFee(ctx context.Context, caller common.Address, amount *big.Int) error
	ChangeOwner(ctx context.Context, caller, newOwner common.Address) error
	Upgrade(ctx context.Context, caller common.Address, version int) error

	Deposit(ctx context.Context, account common.Address, amount *big.Int) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}
