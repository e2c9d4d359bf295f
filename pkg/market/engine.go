package market

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher receives events after the call that produced them has committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publishers = append(e.publishers, p)
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine is the marketplace. Every mutating call runs through execute, which
// serializes callers and wraps the call in one store transaction.
type Engine struct {
	mu         sync.Mutex
	store      Store
	registries RegistryResolver
	address    common.Address
	publishers []Publisher
	now        func() time.Time
}

var _ Service = (*Engine)(nil)

// NewEngine returns an engine that acts as address towards asset registries:
// sellers approve address, and transfers are performed as address.
func NewEngine(store Store, registries RegistryResolver, address common.Address, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		registries: registries,
		address:    address,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Address() common.Address {
	return e.address
}

// Initialize records the fee schedule and the layout of the given logic
// version on empty storage. Storage that is already initialized is kept as
// is, as long as this build knows its logic.
func (e *Engine) Initialize(ctx context.Context, owner common.Address, listingFee *big.Int, version int) error {
	if owner == (common.Address{}) {
		return ErrInvalidOwner
	}
	if listingFee == nil || listingFee.Sign() < 0 {
		return ErrInvalidAmount
	}
	l, err := LogicLayout(version)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored, err := tx.Layout(ctx)
	if err != nil {
		return fmt.Errorf("read layout: %w", err)
	}
	if !stored.IsZero() {
		lg, err := loadLogic(stored)
		if err != nil {
			return err
		}
		zap.L().With(zap.Int("logicVersion", lg.version())).Info("Market storage already initialized")
		return nil
	}

	state := MarketState{
		Owner:         owner,
		ListingFee:    cloneInt(listingFee),
		FeesCollected: new(big.Int),
	}
	if err := tx.PutState(ctx, state); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := tx.PutLayout(ctx, l); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	zap.L().With(
		zap.String("owner", owner.Hex()),
		zap.String("listingFee", listingFee.String()),
		zap.Int("logicVersion", version),
	).Info("Market storage initialized")
	return nil
}

// execution is the state visible to one call: the open transaction, the logic
// bound to the stored layout and a working copy of the singleton record.
type execution struct {
	tx     Tx
	logic  logic
	state  MarketState
	events []Event
	now    time.Time
}

func (e *Engine) execute(ctx context.Context, op string, fn func(ctx context.Context, x *execution) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored, err := tx.Layout(ctx)
	if err != nil {
		return fmt.Errorf("%s: read layout: %w", op, err)
	}
	if stored.IsZero() {
		return ErrNotInitialized
	}
	lg, err := loadLogic(stored)
	if err != nil {
		return err
	}
	state, err := tx.State(ctx)
	if err != nil {
		return fmt.Errorf("%s: read state: %w", op, err)
	}

	x := &execution{tx: tx, logic: lg, state: state, now: e.now()}
	if err := fn(ctx, x); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		zap.L().With(zap.String("op", op), zap.Error(err)).Error("Market commit failed")
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	e.publish(ctx, x.events)
	return nil
}

func (e *Engine) publish(ctx context.Context, events []Event) {
	if len(events) == 0 || len(e.publishers) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, ev := range events {
		for _, p := range e.publishers {
			if err := p.Publish(ctx, ev); err != nil {
				zap.L().With(
					zap.String("kind", string(ev.Kind)),
					zap.Uint64("itemId", ev.Item.ID),
					zap.Error(err),
				).Warn("Failed to publish market event")
			}
		}
	}
}

func (x *execution) putState(ctx context.Context) error {
	if err := x.tx.PutState(ctx, x.state); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// collect debits the value attached to call from the sender's balance.
func (x *execution) collect(ctx context.Context, call Call) error {
	value := call.value()
	if value.Sign() == 0 {
		return nil
	}
	balance, err := x.tx.BalanceOf(ctx, call.Sender)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: %s has %s wei, call carries %s", ErrInsufficientFunds, call.Sender.Hex(), balance, value)
	}
	return x.tx.SetBalance(ctx, call.Sender, balance.Sub(balance, value))
}

func (x *execution) credit(ctx context.Context, account common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := x.tx.BalanceOf(ctx, account)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	return x.tx.SetBalance(ctx, account, balance.Add(balance, amount))
}

func (x *execution) emit(kind EventKind, item MarketItem) {
	x.events = append(x.events, Event{
		ID:   uuid.New(),
		Kind: kind,
		Item: cloneItem(item),
		At:   x.now,
	})
}
