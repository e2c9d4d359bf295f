package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetRegistry is the capability surface the market consumes from an
// external ERC-721 style registry. Implementations should return an error
// matching ErrUnknownAsset for ids they never minted.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, assetID uint64) (common.Address, error)
	GetApproved(ctx context.Context, assetID uint64) (common.Address, error)
	// Approve is invoked by sellers, never by the market itself.
	Approve(ctx context.Context, caller, operator common.Address, assetID uint64) error
	// TransferFrom must fail when from is not the current owner or caller is
	// neither from nor the approved operator.
	TransferFrom(ctx context.Context, caller, from, to common.Address, assetID uint64) error
}

// RegistryResolver finds the registry for an asset contract address.
type RegistryResolver interface {
	Registry(contract common.Address) (AssetRegistry, error)
}

// Registries is a static contract address -> registry table.
type Registries map[common.Address]AssetRegistry

func (r Registries) Registry(contract common.Address) (AssetRegistry, error) {
	reg, ok := r[contract]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, contract.Hex())
	}
	return reg, nil
}
