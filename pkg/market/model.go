package market

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"nftmarket/pkg/units"
)

// State is the lifecycle position of a market item. Created is the only
// initial state; Released and Deleted are terminal.
type State uint8

const (
	StateCreated State = iota
	StateReleased
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReleased:
		return "released"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateReleased || s == StateDeleted
}

// MarketItem is one listing. Records are never removed, only transitioned.
type MarketItem struct {
	ID            uint64
	AssetContract common.Address
	AssetID       uint64
	Seller        common.Address
	Buyer         common.Address
	Price         *big.Int
	State         State
}

// Sold reports whether a buyer has been recorded.
func (i MarketItem) Sold() bool {
	return i.Buyer != (common.Address{})
}

type itemJSON struct {
	ID            uint64         `json:"id"`
	AssetContract common.Address `json:"assetContract"`
	AssetID       uint64         `json:"assetId"`
	Seller        common.Address `json:"seller"`
	Buyer         common.Address `json:"buyer"`
	Price         string         `json:"price"`
	PriceEther    string         `json:"priceEther"`
	State         State          `json:"state"`
	StateName     string         `json:"stateName"`
}

// MarshalJSON renders the price as a decimal wei string so that values above
// 2^53 survive JavaScript clients.
func (i MarketItem) MarshalJSON() ([]byte, error) {
	price := i.Price
	if price == nil {
		price = new(big.Int)
	}
	return json.Marshal(itemJSON{
		ID:            i.ID,
		AssetContract: i.AssetContract,
		AssetID:       i.AssetID,
		Seller:        i.Seller,
		Buyer:         i.Buyer,
		Price:         price.String(),
		PriceEther:    units.FormatEther(price),
		State:         i.State,
		StateName:     i.State.String(),
	})
}

func (i *MarketItem) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	price, ok := new(big.Int).SetString(raw.Price, 10)
	if !ok {
		return fmt.Errorf("invalid price %q", raw.Price)
	}
	*i = MarketItem{
		ID:            raw.ID,
		AssetContract: raw.AssetContract,
		AssetID:       raw.AssetID,
		Seller:        raw.Seller,
		Buyer:         raw.Buyer,
		Price:         price,
		State:         raw.State,
	}
	return nil
}

// Call carries the implicit context of an invocation: who sends it and how
// much native value is attached.
type Call struct {
	Sender common.Address
	Value  *big.Int
}

func (c Call) value() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// Page is one window of a query view.
type Page struct {
	Items      []MarketItem `json:"pageItems"`
	TotalCount int          `json:"pageTotalCount"`
}

// MarketState is the persisted singleton record: fee schedule, owner and
// item counter. FeesCollected is only maintained by logic versions whose
// layout declares it.
type MarketState struct {
	Owner         common.Address
	ListingFee    *big.Int
	ItemCount     uint64
	FeesCollected *big.Int
}

func (s MarketState) clone() MarketState {
	out := s
	out.ListingFee = cloneInt(s.ListingFee)
	out.FeesCollected = cloneInt(s.FeesCollected)
	return out
}

// MarketInfo is the read model of the fee treasury and logic version.
type MarketInfo struct {
	Address       common.Address `json:"address"`
	Owner         common.Address `json:"owner"`
	ListingFee    string         `json:"listingFee"`
	ListingFeeWei string         `json:"listingFeeWei"`
	ItemCount     uint64         `json:"itemCount"`
	LogicVersion  int            `json:"logicVersion"`
	FeesCollected string         `json:"feesCollected,omitempty"`
}

type EventKind string

const (
	EventItemCreated EventKind = "MarketItemCreated"
	EventItemSold    EventKind = "MarketItemSold"
	EventItemDeleted EventKind = "MarketItemDeleted"
)

// Event is emitted after a mutating call commits.
type Event struct {
	ID   uuid.UUID  `json:"id"`
	Kind EventKind  `json:"kind"`
	Item MarketItem `json:"item"`
	At   time.Time  `json:"at"`
}

// Involves reports whether addr is the seller or buyer of the event's item.
func (e Event) Involves(addr common.Address) bool {
	return e.Item.Seller == addr || (e.Item.Sold() && e.Item.Buyer == addr)
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func cloneItem(i MarketItem) MarketItem {
	i.Price = cloneInt(i.Price)
	return i
}
