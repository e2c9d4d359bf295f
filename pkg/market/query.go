package market

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// Queries read committed state and never take the writer lock.

func (e *Engine) GetItem(ctx context.Context, id uint64) (MarketItem, error) {
	return e.store.GetItem(ctx, id)
}

func (e *Engine) GetItemCount(ctx context.Context) (uint64, error) {
	state, err := e.store.State(ctx)
	if err != nil {
		return 0, err
	}
	return state.ItemCount, nil
}

func (e *Engine) FetchActiveItems(ctx context.Context, page, size int) (Page, error) {
	return fetchPage(page, size, func(offset, limit int) ([]MarketItem, int, error) {
		return e.store.ListActive(ctx, offset, limit)
	})
}

// FetchMyCreatedItems pages through every listing the caller ever created,
// whatever its state.
func (e *Engine) FetchMyCreatedItems(ctx context.Context, caller common.Address, page, size int) (Page, error) {
	return fetchPage(page, size, func(offset, limit int) ([]MarketItem, int, error) {
		return e.store.ListBySeller(ctx, caller, offset, limit)
	})
}

func (e *Engine) FetchMyPurchasedItems(ctx context.Context, caller common.Address, page, size int) (Page, error) {
	return fetchPage(page, size, func(offset, limit int) ([]MarketItem, int, error) {
		return e.store.ListByBuyer(ctx, caller, offset, limit)
	})
}

// pageOffset returns the zero-based start of a 1-based page, saturating
// instead of overflowing.
func pageOffset(page, size int) (int, error) {
	if page < 1 || size < 1 {
		return 0, ErrInvalidPage
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt, nil
	}
	return (page - 1) * size, nil
}

func fetchPage(page, size int, list func(offset, limit int) ([]MarketItem, int, error)) (Page, error) {
	offset, err := pageOffset(page, size)
	if err != nil {
		return Page{}, err
	}

	items, total, err := list(offset, size)
	if err != nil {
		return Page{}, fmt.Errorf("list items: %w", err)
	}
	if total > 0 && offset >= total {
		return Page{}, fmt.Errorf("%w: page %d of size %d, %d items", ErrOutOfBounds, page, size, total)
	}
	if items == nil {
		items = []MarketItem{}
	}

	return Page{Items: items, TotalCount: total}, nil
}
