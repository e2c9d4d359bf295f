package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// BuyMarketItem settles the active listing of an asset. The call must carry
// exactly the item price. The price moves to the seller and the asset to the
// caller together, or not at all.
func (e *Engine) BuyMarketItem(ctx context.Context, call Call, assetContract common.Address, assetID uint64) (MarketItem, error) {
	var sold MarketItem
	err := e.execute(ctx, "buy market item", func(ctx context.Context, x *execution) error {
		item, err := x.tx.FindActiveItem(ctx, assetContract, assetID)
		if err != nil {
			return err
		}
		if call.value().Cmp(item.Price) != 0 {
			return fmt.Errorf("%w: sent %s wei, price is %s wei", ErrInvalidPaymentAmount, call.value(), item.Price)
		}

		reg, err := e.registries.Registry(assetContract)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStaleListing, err)
		}
		if err := e.checkExecutable(ctx, reg, item); err != nil {
			return err
		}

		if err := x.collect(ctx, call); err != nil {
			return err
		}
		if err := x.credit(ctx, item.Seller, item.Price); err != nil {
			return err
		}

		item.Buyer = call.Sender
		item.State = StateReleased
		if err := x.tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}

		// Last fallible step: nothing after it may fail short of the commit.
		if err := reg.TransferFrom(ctx, e.address, item.Seller, call.Sender, assetID); err != nil {
			return fmt.Errorf("%w: %w", ErrStaleListing, err)
		}

		x.emit(EventItemSold, item)
		sold = item
		return nil
	})
	if err != nil {
		return MarketItem{}, err
	}

	zap.L().With(
		zap.Uint64("itemId", sold.ID),
		zap.String("seller", sold.Seller.Hex()),
		zap.String("buyer", sold.Buyer.Hex()),
		zap.String("price", sold.Price.String()),
	).Info("Market item sold")
	return sold, nil
}

// checkExecutable confirms the registry still lets the market move the asset
// from the seller.
func (e *Engine) checkExecutable(ctx context.Context, reg AssetRegistry, item MarketItem) error {
	owner, err := reg.OwnerOf(ctx, item.AssetID)
	if err != nil {
		if errors.Is(err, ErrUnknownAsset) {
			return fmt.Errorf("%w: %w", ErrStaleListing, err)
		}
		return fmt.Errorf("owner of asset %d: %w", item.AssetID, err)
	}
	if owner != item.Seller {
		return fmt.Errorf("%w: seller no longer owns asset %d", ErrStaleListing, item.AssetID)
	}

	approved, err := reg.GetApproved(ctx, item.AssetID)
	if err != nil {
		return fmt.Errorf("approval of asset %d: %w", item.AssetID, err)
	}
	if approved != e.address {
		return fmt.Errorf("%w: asset %d is no longer approved to market", ErrStaleListing, item.AssetID)
	}
	return nil
}
