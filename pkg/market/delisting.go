package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DeleteMarketItem withdraws a listing. Only the seller may do so, only while
// the item is active and the asset is still approved to the market. The
// listing fee is not refunded.
func (e *Engine) DeleteMarketItem(ctx context.Context, caller common.Address, id uint64) (MarketItem, error) {
	var deleted MarketItem
	err := e.execute(ctx, "delete market item", func(ctx context.Context, x *execution) error {
		item, err := x.tx.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if item.Seller != caller {
			return ErrNotSeller
		}
		if item.State.Terminal() {
			return fmt.Errorf("%w: item %d is %s", ErrAlreadyFinalized, id, item.State)
		}

		reg, err := e.registries.Registry(item.AssetContract)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStaleApproval, err)
		}
		approved, err := reg.GetApproved(ctx, item.AssetID)
		if err != nil {
			if errors.Is(err, ErrUnknownAsset) {
				return fmt.Errorf("%w: %w", ErrStaleApproval, err)
			}
			return fmt.Errorf("approval of asset %d: %w", item.AssetID, err)
		}
		if approved != e.address {
			return ErrStaleApproval
		}

		item.State = StateDeleted
		if err := x.tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}

		x.emit(EventItemDeleted, item)
		deleted = item
		return nil
	})
	if err != nil {
		return MarketItem{}, err
	}

	zap.L().With(zap.Uint64("itemId", deleted.ID), zap.String("seller", deleted.Seller.Hex())).Info("Market item deleted")
	return deleted, nil
}
