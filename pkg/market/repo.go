package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nftmarket/pkg/layout"
)

// Tx is one all-or-nothing unit of work against market storage. Writes are
// invisible to other readers until Commit; Rollback discards them.
type Tx interface {
	State(ctx context.Context) (MarketState, error)
	Layout(ctx context.Context) (layout.Layout, error)
	GetItem(ctx context.Context, id uint64) (MarketItem, error)
	// FindActiveItem returns the lowest-id item in state Created for the asset.
	FindActiveItem(ctx context.Context, contract common.Address, assetID uint64) (MarketItem, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)

	PutState(ctx context.Context, state MarketState) error
	PutLayout(ctx context.Context, l layout.Layout) error
	InsertItem(ctx context.Context, item MarketItem) error
	UpdateItem(ctx context.Context, item MarketItem) error
	SetBalance(ctx context.Context, account common.Address, amount *big.Int) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the persistent market storage. Begin serializes writers; the read
// methods observe committed state only.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	State(ctx context.Context) (MarketState, error)
	Layout(ctx context.Context) (layout.Layout, error)
	GetItem(ctx context.Context, id uint64) (MarketItem, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	ListActive(ctx context.Context, offset, limit int) ([]MarketItem, int, error)
	ListBySeller(ctx context.Context, seller common.Address, offset, limit int) ([]MarketItem, int, error)
	ListByBuyer(ctx context.Context, buyer common.Address, offset, limit int) ([]MarketItem, int, error)
}

// marketLockKey is the advisory lock that totally orders writers across
// processes sharing one database.
const marketLockKey int64 = 0x4e46544d4b54

const itemColumns = `id, asset_contract, asset_id::text, seller, buyer, price::text, state`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type postgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin market tx: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, marketLockKey); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("lock market: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

func (s *postgresStore) State(ctx context.Context) (MarketState, error) {
	return readState(ctx, s.pool)
}

func (s *postgresStore) Layout(ctx context.Context) (layout.Layout, error) {
	return readLayout(ctx, s.pool)
}

func (s *postgresStore) GetItem(ctx context.Context, id uint64) (MarketItem, error) {
	return readItem(ctx, s.pool, id)
}

func (s *postgresStore) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return readBalance(ctx, s.pool, account)
}

func (s *postgresStore) ListActive(ctx context.Context, offset, limit int) ([]MarketItem, int, error) {
	return s.list(ctx, "state = $1", []any{int16(StateCreated)}, offset, limit)
}

func (s *postgresStore) ListBySeller(ctx context.Context, seller common.Address, offset, limit int) ([]MarketItem, int, error) {
	return s.list(ctx, "seller = $1", []any{seller.Hex()}, offset, limit)
}

func (s *postgresStore) ListByBuyer(ctx context.Context, buyer common.Address, offset, limit int) ([]MarketItem, int, error) {
	// Unsold rows carry the zero address as buyer.
	return s.list(ctx, "buyer = $1 AND state = $2", []any{buyer.Hex(), int16(StateReleased)}, offset, limit)
}

// list reads the total and the window inside one snapshot so both agree.
func (s *postgresStore) list(ctx context.Context, where string, args []any, offset, limit int) ([]MarketItem, int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM market_items WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || offset >= total {
		return []MarketItem{}, total, nil
	}

	query := fmt.Sprintf(`SELECT %s
              FROM market_items
              WHERE %s
              ORDER BY id
              LIMIT $%d OFFSET $%d`, itemColumns, where, len(args)+1, len(args)+2)

	pageArgs := make([]any, 0, len(args)+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, limit, offset)

	rows, err := tx.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]MarketItem, 0, min(limit, total-offset))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) State(ctx context.Context) (MarketState, error) {
	return readState(ctx, t.tx)
}

func (t *postgresTx) Layout(ctx context.Context) (layout.Layout, error) {
	return readLayout(ctx, t.tx)
}

func (t *postgresTx) GetItem(ctx context.Context, id uint64) (MarketItem, error) {
	return readItem(ctx, t.tx, id)
}

func (t *postgresTx) FindActiveItem(ctx context.Context, contract common.Address, assetID uint64) (MarketItem, error) {
	query := `SELECT ` + itemColumns + `
              FROM market_items
              WHERE asset_contract = $1 AND asset_id = $2 AND state = $3
              ORDER BY id
              LIMIT 1`

	item, err := scanItem(t.tx.QueryRow(ctx, query, contract.Hex(), strconv.FormatUint(assetID, 10), int16(StateCreated)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarketItem{}, ErrNotListed
		}
		return MarketItem{}, err
	}
	return item, nil
}

func (t *postgresTx) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return readBalance(ctx, t.tx, account)
}

func (t *postgresTx) PutState(ctx context.Context, state MarketState) error {
	query := `INSERT INTO market_state (singleton, owner, listing_fee, item_count, fees_collected)
              VALUES (TRUE, $1, $2, $3, $4)
              ON CONFLICT (singleton) DO UPDATE
              SET owner = EXCLUDED.owner,
                  listing_fee = EXCLUDED.listing_fee,
                  item_count = EXCLUDED.item_count,
                  fees_collected = EXCLUDED.fees_collected`

	_, err := t.tx.Exec(ctx, query,
		state.Owner.Hex(),
		cloneInt(state.ListingFee).String(),
		int64(state.ItemCount),
		cloneInt(state.FeesCollected).String(),
	)
	return err
}

func (t *postgresTx) PutLayout(ctx context.Context, l layout.Layout) error {
	if _, err := t.tx.Exec(ctx, `INSERT INTO market_logic (singleton, version)
              VALUES (TRUE, $1)
              ON CONFLICT (singleton) DO UPDATE SET version = EXCLUDED.version`, l.Version); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM market_layout`); err != nil {
		return err
	}
	for _, f := range l.Fields {
		if _, err := t.tx.Exec(ctx, `INSERT INTO market_layout (slot, name, type) VALUES ($1, $2, $3)`, f.Slot, f.Name, f.Type); err != nil {
			return err
		}
	}
	return nil
}

func (t *postgresTx) InsertItem(ctx context.Context, item MarketItem) error {
	query := `INSERT INTO market_items (id, asset_contract, asset_id, seller, buyer, price, state)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := t.tx.Exec(ctx, query,
		int64(item.ID),
		item.AssetContract.Hex(),
		strconv.FormatUint(item.AssetID, 10),
		item.Seller.Hex(),
		item.Buyer.Hex(),
		cloneInt(item.Price).String(),
		int16(item.State),
	)
	return err
}

func (t *postgresTx) UpdateItem(ctx context.Context, item MarketItem) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE market_items SET buyer = $1, state = $2 WHERE id = $3`,
		item.Buyer.Hex(), int16(item.State), int64(item.ID))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) SetBalance(ctx context.Context, account common.Address, amount *big.Int) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO market_balances (address, balance)
              VALUES ($1, $2)
              ON CONFLICT (address) DO UPDATE SET balance = EXCLUDED.balance`,
		account.Hex(), cloneInt(amount).String())
	return err
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func readState(ctx context.Context, q querier) (MarketState, error) {
	var (
		owner, fee, collected string
		count                 int64
	)
	err := q.QueryRow(ctx, `SELECT owner, listing_fee::text, item_count, fees_collected::text
              FROM market_state WHERE singleton`).Scan(&owner, &fee, &count, &collected)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarketState{}, ErrNotInitialized
		}
		return MarketState{}, err
	}

	listingFee, err := parseAmount(fee)
	if err != nil {
		return MarketState{}, err
	}
	feesCollected, err := parseAmount(collected)
	if err != nil {
		return MarketState{}, err
	}

	return MarketState{
		Owner:         common.HexToAddress(owner),
		ListingFee:    listingFee,
		ItemCount:     uint64(count),
		FeesCollected: feesCollected,
	}, nil
}

func readLayout(ctx context.Context, q querier) (layout.Layout, error) {
	var version int
	err := q.QueryRow(ctx, `SELECT version FROM market_logic WHERE singleton`).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return layout.Layout{}, nil
		}
		return layout.Layout{}, err
	}

	rows, err := q.Query(ctx, `SELECT slot, name, type FROM market_layout ORDER BY slot`)
	if err != nil {
		return layout.Layout{}, err
	}
	defer rows.Close()

	l := layout.Layout{Version: version}
	for rows.Next() {
		var f layout.Field
		if err := rows.Scan(&f.Slot, &f.Name, &f.Type); err != nil {
			return layout.Layout{}, err
		}
		l.Fields = append(l.Fields, f)
	}
	return l, rows.Err()
}

func readItem(ctx context.Context, q querier, id uint64) (MarketItem, error) {
	if id == 0 || id > uint64(1<<63-1) {
		return MarketItem{}, ErrNotFound
	}
	item, err := scanItem(q.QueryRow(ctx, `SELECT `+itemColumns+` FROM market_items WHERE id = $1`, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarketItem{}, ErrNotFound
		}
		return MarketItem{}, err
	}
	return item, nil
}

func readBalance(ctx context.Context, q querier, account common.Address) (*big.Int, error) {
	var balance string
	err := q.QueryRow(ctx, `SELECT balance::text FROM market_balances WHERE address = $1`, account.Hex()).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return parseAmount(balance)
}

func scanItem(row rowScanner) (MarketItem, error) {
	var (
		id                              int64
		contract, assetID, seller, buyer string
		price                           string
		state                           int16
	)
	if err := row.Scan(&id, &contract, &assetID, &seller, &buyer, &price, &state); err != nil {
		return MarketItem{}, err
	}

	asset, err := strconv.ParseUint(assetID, 10, 64)
	if err != nil {
		return MarketItem{}, fmt.Errorf("item %d asset id: %w", id, err)
	}
	amount, err := parseAmount(price)
	if err != nil {
		return MarketItem{}, fmt.Errorf("item %d price: %w", id, err)
	}

	return MarketItem{
		ID:            uint64(id),
		AssetContract: common.HexToAddress(contract),
		AssetID:       asset,
		Seller:        common.HexToAddress(seller),
		Buyer:         common.HexToAddress(buyer),
		Price:         amount,
		State:         State(state),
	}, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", s)
	}
	return v, nil
}
