package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseLayout() Layout {
	return Layout{}.Extend(1,
		Field{Name: "owner", Type: "address"},
		Field{Name: "listingFee", Type: "uint256"},
		Field{Name: "itemCounter", Type: "uint256"},
	)
}

func TestExtend_AssignsDenseSlots(t *testing.T) {
	l := baseLayout().Extend(2, Field{Name: "feesCollected", Type: "uint256"})

	require.Equal(t, 2, l.Version)
	require.Len(t, l.Fields, 4)
	for i, f := range l.Fields {
		require.Equal(t, i, f.Slot)
	}
	require.True(t, l.Has("feesCollected"))
	require.NoError(t, l.Validate())
}

func TestCheckCompatible_AppendOnly(t *testing.T) {
	prev := baseLayout()
	next := prev.Extend(2, Field{Name: "feesCollected", Type: "uint256"})

	require.NoError(t, CheckCompatible(prev, next))
}

func TestCheckCompatible_Rejections(t *testing.T) {
	prev := baseLayout()

	reordered := Layout{Version: 2, Fields: []Field{
		{Slot: 0, Name: "listingFee", Type: "uint256"},
		{Slot: 1, Name: "owner", Type: "address"},
		{Slot: 2, Name: "itemCounter", Type: "uint256"},
	}}
	retyped := Layout{Version: 2, Fields: []Field{
		{Slot: 0, Name: "owner", Type: "address"},
		{Slot: 1, Name: "listingFee", Type: "uint128"},
		{Slot: 2, Name: "itemCounter", Type: "uint256"},
	}}
	removed := Layout{Version: 2, Fields: prev.Fields[:2]}
	sameVersion := prev.Extend(1, Field{Name: "extra", Type: "bool"})

	tests := []struct {
		name string
		next Layout
		want error
	}{
		{"reordered", reordered, ErrIncompatible},
		{"retyped", retyped, ErrIncompatible},
		{"removed", removed, ErrIncompatible},
		{"same version", sameVersion, ErrNotNewer},
		{"downgrade", Layout{Version: 1, Fields: prev.Fields}, ErrNotNewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, CheckCompatible(prev, tt.next), tt.want)
		})
	}
}

func TestValidate_InvalidLayouts(t *testing.T) {
	gap := Layout{Version: 1, Fields: []Field{{Slot: 0, Name: "a", Type: "x"}, {Slot: 2, Name: "b", Type: "x"}}}
	dup := Layout{Version: 1, Fields: []Field{{Slot: 0, Name: "a", Type: "x"}, {Slot: 1, Name: "a", Type: "x"}}}

	require.ErrorIs(t, gap.Validate(), ErrInvalidLayout)
	require.ErrorIs(t, dup.Validate(), ErrInvalidLayout)
	require.ErrorIs(t, Layout{}.Validate(), ErrInvalidLayout)
	require.True(t, Layout{}.IsZero())
}
