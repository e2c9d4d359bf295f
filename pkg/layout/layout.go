// Package layout describes the persisted storage layout of a marketplace logic
// version and decides whether one layout can safely replace another.
//
// A successor layout must keep every field of its predecessor at the same slot,
// with the same name and type, and may only append new fields after them.
package layout

import (
	"errors"
	"fmt"
)

var (
	ErrIncompatible  = errors.New("incompatible storage layout")
	ErrNotNewer      = errors.New("logic version must increase")
	ErrInvalidLayout = errors.New("invalid storage layout")
)

// Field is one persisted slot.
type Field struct {
	Slot int    `json:"slot"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (f Field) String() string {
	return fmt.Sprintf("%d:%s %s", f.Slot, f.Name, f.Type)
}

// Layout is the ordered field list owned by one logic version.
type Layout struct {
	Version int     `json:"version"`
	Fields  []Field `json:"fields"`
}

// IsZero reports whether the layout was never recorded.
func (l Layout) IsZero() bool {
	return l.Version == 0 && len(l.Fields) == 0
}

// Has reports whether a field with the given name is part of the layout.
func (l Layout) Has(name string) bool {
	for _, f := range l.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Equal reports whether both layouts describe the same version and slots.
func (l Layout) Equal(other Layout) bool {
	if l.Version != other.Version || len(l.Fields) != len(other.Fields) {
		return false
	}
	for i := range l.Fields {
		if l.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// Validate checks that slots are dense from zero and names are unique.
func (l Layout) Validate() error {
	if l.Version < 1 {
		return fmt.Errorf("%w: version %d", ErrInvalidLayout, l.Version)
	}
	seen := make(map[string]struct{}, len(l.Fields))
	for i, f := range l.Fields {
		if f.Slot != i {
			return fmt.Errorf("%w: field %q at position %d has slot %d", ErrInvalidLayout, f.Name, i, f.Slot)
		}
		if f.Name == "" || f.Type == "" {
			return fmt.Errorf("%w: slot %d has empty name or type", ErrInvalidLayout, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidLayout, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Extend returns a copy of l for version with the given fields appended.
func (l Layout) Extend(version int, fields ...Field) Layout {
	out := Layout{Version: version, Fields: make([]Field, 0, len(l.Fields)+len(fields))}
	out.Fields = append(out.Fields, l.Fields...)
	for _, f := range fields {
		f.Slot = len(out.Fields)
		out.Fields = append(out.Fields, f)
	}
	return out
}

// CheckCompatible returns nil when next may take over storage written by prev.
func CheckCompatible(prev, next Layout) error {
	if err := prev.Validate(); err != nil {
		return fmt.Errorf("current layout: %w", err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("next layout: %w", err)
	}
	if next.Version <= prev.Version {
		return fmt.Errorf("%w: %d -> %d", ErrNotNewer, prev.Version, next.Version)
	}
	if len(next.Fields) < len(prev.Fields) {
		missing := prev.Fields[len(next.Fields)]
		return fmt.Errorf("%w: field %s removed", ErrIncompatible, missing)
	}
	for i, f := range prev.Fields {
		if next.Fields[i] != f {
			return fmt.Errorf("%w: slot %d changed from %s to %s", ErrIncompatible, i, f, next.Fields[i])
		}
	}
	return nil
}
