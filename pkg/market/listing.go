package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// CreateMarketItem lists an asset the caller owns and has approved to the
// market. The call must carry exactly the listing fee, which goes to the
// market owner.
func (e *Engine) CreateMarketItem(ctx context.Context, call Call, assetContract common.Address, assetID uint64, price *big.Int) (MarketItem, error) {
	if price == nil || price.Sign() <= 0 {
		return MarketItem{}, ErrInvalidPrice
	}
	reg, err := e.registries.Registry(assetContract)
	if err != nil {
		return MarketItem{}, err
	}

	var created MarketItem
	err = e.execute(ctx, "create market item", func(ctx context.Context, x *execution) error {
		owner, err := reg.OwnerOf(ctx, assetID)
		if err != nil {
			return fmt.Errorf("owner of asset %d: %w", assetID, err)
		}
		if owner != call.Sender {
			return ErrNotAssetOwner
		}

		approved, err := reg.GetApproved(ctx, assetID)
		if err != nil {
			return fmt.Errorf("approval of asset %d: %w", assetID, err)
		}
		if approved != e.address {
			return ErrApprovalRequired
		}

		fee := x.state.ListingFee
		if call.value().Cmp(fee) != 0 {
			return fmt.Errorf("%w: sent %s wei, fee is %s wei", ErrInvalidFeeAmount, call.value(), fee)
		}
		if err := x.collect(ctx, call); err != nil {
			return err
		}
		if err := x.credit(ctx, x.state.Owner, fee); err != nil {
			return err
		}
		if x.logic.tracksFees() {
			x.state.FeesCollected = new(big.Int).Add(cloneInt(x.state.FeesCollected), fee)
		}

		x.state.ItemCount++
		item := MarketItem{
			ID:            x.state.ItemCount,
			AssetContract: assetContract,
			AssetID:       assetID,
			Seller:        call.Sender,
			Price:         cloneInt(price),
			State:         StateCreated,
		}
		if err := x.tx.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert item %d: %w", item.ID, err)
		}
		if err := x.putState(ctx); err != nil {
			return err
		}

		x.emit(EventItemCreated, item)
		created = item
		return nil
	})
	if err != nil {
		return MarketItem{}, err
	}

	zap.L().With(
		zap.Uint64("itemId", created.ID),
		zap.String("seller", created.Seller.Hex()),
		zap.Uint64("assetId", created.AssetID),
		zap.String("price", created.Price.String()),
	).Info("Market item created")
	return created, nil
}
