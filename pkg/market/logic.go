package market

import (
	"fmt"

	"nftmarket/pkg/layout"
)

const fieldFeesCollected = "feesCollected"

var (
	logicV1 = layout.Layout{}.Extend(1,
		layout.Field{Name: "owner", Type: "address"},
		layout.Field{Name: "listingFee", Type: "uint256"},
		layout.Field{Name: "itemCounter", Type: "uint256"},
		layout.Field{Name: "items", Type: "mapping(uint256=>MarketItem)"},
		layout.Field{Name: "balances", Type: "mapping(address=>uint256)"},
	)
	logicV2 = logicV1.Extend(2,
		layout.Field{Name: fieldFeesCollected, Type: "uint256"},
	)

	logicVersions = map[int]layout.Layout{
		1: logicV1,
		2: logicV2,
	}
)

// LatestLogicVersion is the newest logic this binary can run.
const LatestLogicVersion = 2

// LogicLayout returns the storage layout declared by a logic version.
func LogicLayout(version int) (layout.Layout, error) {
	l, ok := logicVersions[version]
	if !ok {
		return layout.Layout{}, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	return l, nil
}

// logic is the behaviour selected by the layout recorded in storage.
type logic struct {
	layout layout.Layout
}

func (l logic) version() int {
	return l.layout.Version
}

func (l logic) tracksFees() bool {
	return l.layout.Has(fieldFeesCollected)
}

// loadLogic binds the layout found in storage to logic known by this binary.
// Storage written by a newer or diverging logic is refused.
func loadLogic(stored layout.Layout) (logic, error) {
	known, err := LogicLayout(stored.Version)
	if err != nil {
		return logic{}, fmt.Errorf("%w: storage is at %v", ErrIncompatibleLayout, err)
	}
	if !known.Equal(stored) {
		return logic{}, fmt.Errorf("%w: stored layout of version %d differs from this build", ErrIncompatibleLayout, stored.Version)
	}
	return logic{layout: known}, nil
}
