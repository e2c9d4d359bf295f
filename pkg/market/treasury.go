package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nftmarket/pkg/layout"
	"nftmarket/pkg/units"
)

func (e *Engine) GetListingFee(ctx context.Context) (*big.Int, error) {
	state, err := e.store.State(ctx)
	if err != nil {
		return nil, err
	}
	return state.ListingFee, nil
}

func (e *Engine) MarketOwner(ctx context.Context) (common.Address, error) {
	state, err := e.store.State(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return state.Owner, nil
}

// FeesCollected is the running total of listing fees. Only logic versions
// that persist the counter can answer.
func (e *Engine) FeesCollected(ctx context.Context) (*big.Int, error) {
	lg, err := e.currentLogic(ctx)
	if err != nil {
		return nil, err
	}
	if !lg.tracksFees() {
		return nil, fmt.Errorf("%w: fees collected needs logic version 2, storage is at %d", ErrNotSupported, lg.version())
	}
	state, err := e.store.State(ctx)
	if err != nil {
		return nil, err
	}
	return state.FeesCollected, nil
}

func (e *Engine) Info(ctx context.Context) (MarketInfo, error) {
	lg, err := e.currentLogic(ctx)
	if err != nil {
		return MarketInfo{}, err
	}
	state, err := e.store.State(ctx)
	if err != nil {
		return MarketInfo{}, err
	}

	info := MarketInfo{
		Address:       e.address,
		Owner:         state.Owner,
		ListingFee:    units.FormatEther(state.ListingFee),
		ListingFeeWei: state.ListingFee.String(),
		ItemCount:     state.ItemCount,
		LogicVersion:  lg.version(),
	}
	if lg.tracksFees() {
		info.FeesCollected = units.FormatEther(state.FeesCollected)
	}
	return info, nil
}

func (e *Engine) currentLogic(ctx context.Context) (logic, error) {
	stored, err := e.store.Layout(ctx)
	if err != nil {
		return logic{}, err
	}
	if stored.IsZero() {
		return logic{}, ErrNotInitialized
	}
	return loadLogic(stored)
}

func (e *Engine) SetListingFee(ctx context.Context, caller common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	err := e.execute(ctx, "set listing fee", func(ctx context.Context, x *execution) error {
		if caller != x.state.Owner {
			return ErrNotMarketOwner
		}
		x.state.ListingFee = cloneInt(amount)
		return x.putState(ctx)
	})
	if err != nil {
		return err
	}

	zap.L().With(zap.String("listingFee", amount.String())).Info("Listing fee changed")
	return nil
}

func (e *Engine) ChangeOwner(ctx context.Context, caller, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return ErrInvalidOwner
	}

	var previous common.Address
	err := e.execute(ctx, "change owner", func(ctx context.Context, x *execution) error {
		if caller != x.state.Owner {
			return ErrNotMarketOwner
		}
		previous = x.state.Owner
		x.state.Owner = newOwner
		return x.putState(ctx)
	})
	if err != nil {
		return err
	}

	zap.L().With(zap.String("from", previous.Hex()), zap.String("to", newOwner.Hex())).Info("Market owner changed")
	return nil
}

// Upgrade swaps the running logic for version in place. The new layout must
// keep every stored field where it is; items, counter, owner and fee are not
// touched.
func (e *Engine) Upgrade(ctx context.Context, caller common.Address, version int) error {
	next, err := LogicLayout(version)
	if err != nil {
		return err
	}

	var from int
	err = e.execute(ctx, "upgrade logic", func(ctx context.Context, x *execution) error {
		if caller != x.state.Owner {
			return ErrNotMarketOwner
		}
		if err := layout.CheckCompatible(x.logic.layout, next); err != nil {
			return fmt.Errorf("%w: %w", ErrIncompatibleLayout, err)
		}
		from = x.logic.version()
		if err := x.tx.PutLayout(ctx, next); err != nil {
			return fmt.Errorf("write layout: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().With(zap.Int("from", from), zap.Int("to", version)).Info("Market logic upgraded")
	return nil
}

// Deposit credits native value to account and returns the new balance.
func (e *Engine) Deposit(ctx context.Context, account common.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var balance *big.Int
	err := e.execute(ctx, "deposit", func(ctx context.Context, x *execution) error {
		if err := x.credit(ctx, account, amount); err != nil {
			return err
		}
		b, err := x.tx.BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (e *Engine) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return e.store.BalanceOf(ctx, account)
}
