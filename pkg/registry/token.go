// Package registry is an in-process ERC-721 style token used as the asset
// registry in development and tests. Ids are minted sequentially from 1 and
// an approval is cleared whenever the token moves.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"nftmarket/pkg/market"
)

var (
	ErrZeroAddress          = errors.New("address must not be zero")
	ErrApproveToOwner       = errors.New("approval to current owner")
	ErrNotOwnerNorApproved  = errors.New("caller is not token owner nor approved")
	ErrTransferFromNotOwner = errors.New("transfer from incorrect owner")
)

type Token struct {
	address common.Address
	name    string
	symbol  string

	mu        sync.RWMutex
	lastID    uint64
	owners    map[uint64]common.Address
	approvals map[uint64]common.Address
	balances  map[common.Address]int
}

var _ market.AssetRegistry = (*Token)(nil)

func NewToken(address common.Address, name, symbol string) *Token {
	return &Token{
		address:   address,
		name:      name,
		symbol:    symbol,
		owners:    make(map[uint64]common.Address),
		approvals: make(map[uint64]common.Address),
		balances:  make(map[common.Address]int),
	}
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }

// MintTo creates the next token for to and returns its id.
func (t *Token) MintTo(_ context.Context, to common.Address) (uint64, error) {
	if to == (common.Address{}) {
		return 0, ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastID++
	t.owners[t.lastID] = to
	t.balances[to]++
	return t.lastID, nil
}

func (t *Token) OwnerOf(_ context.Context, assetID uint64) (common.Address, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ownerOf(assetID)
}

func (t *Token) ownerOf(assetID uint64) (common.Address, error) {
	owner, ok := t.owners[assetID]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: token %d", market.ErrUnknownAsset, assetID)
	}
	return owner, nil
}

func (t *Token) GetApproved(_ context.Context, assetID uint64) (common.Address, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, err := t.ownerOf(assetID); err != nil {
		return common.Address{}, err
	}
	return t.approvals[assetID], nil
}

// Approve sets the single operator allowed to move assetID. Passing the zero
// address revokes the approval.
func (t *Token) Approve(_ context.Context, caller, operator common.Address, assetID uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	owner, err := t.ownerOf(assetID)
	if err != nil {
		return err
	}
	if operator == owner {
		return ErrApproveToOwner
	}
	if caller != owner {
		return ErrNotOwnerNorApproved
	}
	if operator == (common.Address{}) {
		delete(t.approvals, assetID)
		return nil
	}
	t.approvals[assetID] = operator
	return nil
}

func (t *Token) TransferFrom(_ context.Context, caller, from, to common.Address, assetID uint64) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	owner, err := t.ownerOf(assetID)
	if err != nil {
		return err
	}
	if caller != owner && t.approvals[assetID] != caller {
		return ErrNotOwnerNorApproved
	}
	if owner != from {
		return ErrTransferFromNotOwner
	}

	delete(t.approvals, assetID)
	t.balances[from]--
	if t.balances[from] == 0 {
		delete(t.balances, from)
	}
	t.balances[to]++
	t.owners[assetID] = to
	return nil
}

func (t *Token) BalanceOf(owner common.Address) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balances[owner]
}

func (t *Token) TotalSupply() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastID
}
