package market

import "errors"

var (
	ErrNotFound             = errors.New("market item not found")
	ErrNotAssetOwner        = errors.New("caller does not own the asset")
	ErrNotSeller            = errors.New("only the seller can delete the item")
	ErrNotMarketOwner       = errors.New("only the market owner can do this")
	ErrApprovalRequired     = errors.New("asset must be approved to market")
	ErrStaleApproval        = errors.New("asset is no longer approved to market")
	ErrStaleListing         = errors.New("listing is no longer executable")
	ErrInvalidFeeAmount     = errors.New("value must equal the listing fee")
	ErrInvalidPaymentAmount = errors.New("value must equal the item price")
	ErrInvalidPrice         = errors.New("price must be at least 1 wei")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidOwner         = errors.New("owner must not be the zero address")
	ErrAlreadyFinalized     = errors.New("market item is already sold or deleted")
	ErrOutOfBounds          = errors.New("out of bounds of items")
	ErrInvalidPage          = errors.New("page number and page size must be at least 1")
	ErrNotListed            = errors.New("asset is not listed")
	ErrInsufficientFunds    = errors.New("insufficient balance for call value")
	ErrUnknownAsset         = errors.New("unknown asset")
	ErrUnknownContract      = errors.New("unknown asset contract")
	ErrUnknownVersion       = errors.New("unknown logic version")
	ErrIncompatibleLayout   = errors.New("storage layout is incompatible with this logic")
	ErrNotSupported         = errors.New("not supported by the current logic version")
	ErrNotInitialized       = errors.New("market storage is not initialized")
)

// Kind is the stable reason code of a failed call.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindNotOwner             Kind = "NOT_OWNER"
	KindApprovalRequired     Kind = "APPROVAL_REQUIRED"
	KindStaleApproval        Kind = "STALE_APPROVAL"
	KindStaleListing         Kind = "STALE_LISTING"
	KindInvalidFeeAmount     Kind = "INVALID_FEE_AMOUNT"
	KindInvalidPaymentAmount Kind = "INVALID_PAYMENT_AMOUNT"
	KindAlreadyFinalized     Kind = "ALREADY_FINALIZED"
	KindOutOfBounds          Kind = "OUT_OF_BOUNDS"
	KindNotListed            Kind = "NOT_LISTED"
	KindInsufficientFunds    Kind = "INSUFFICIENT_FUNDS"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindUpgrade              Kind = "UPGRADE_REJECTED"
	KindInternal             Kind = "INTERNAL"
)

// kinds is ordered: the first sentinel matched by errors.Is wins, so a
// transfer failure joined onto ErrStaleListing is reported as a stale listing.
var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrStaleListing, KindStaleListing},
	{ErrNotFound, KindNotFound},
	{ErrUnknownAsset, KindNotFound},
	{ErrUnknownContract, KindNotFound},
	{ErrNotAssetOwner, KindNotOwner},
	{ErrNotSeller, KindNotOwner},
	{ErrNotMarketOwner, KindNotOwner},
	{ErrApprovalRequired, KindApprovalRequired},
	{ErrStaleApproval, KindStaleApproval},
	{ErrInvalidFeeAmount, KindInvalidFeeAmount},
	{ErrInvalidPaymentAmount, KindInvalidPaymentAmount},
	{ErrAlreadyFinalized, KindAlreadyFinalized},
	{ErrOutOfBounds, KindOutOfBounds},
	{ErrNotListed, KindNotListed},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInvalidPrice, KindInvalidInput},
	{ErrInvalidAmount, KindInvalidInput},
	{ErrInvalidOwner, KindInvalidInput},
	{ErrInvalidPage, KindInvalidInput},
	{ErrUnknownVersion, KindUpgrade},
	{ErrIncompatibleLayout, KindUpgrade},
	{ErrNotSupported, KindUpgrade},
}

// KindOf classifies err. Errors that match no sentinel are internal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
