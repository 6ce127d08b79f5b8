package caretaker

import (
	"errors"
	"fmt"
	"maps"
)

// MaxLegionSize is the largest number of creatures one legion may hold.
const MaxLegionSize = 7

var (
	// ErrLegionFull is returned when an addition would exceed [MaxLegionSize].
	ErrLegionFull = errors.New("caretaker: legion is full")

	// ErrNotInLegion is returned when removing more creatures than the legion
	// holds.
	ErrNotInLegion = errors.New("caretaker: creature not in legion")
)

// Legion is one stack of creatures on the masterboard. A Legion is owned by a
// single caller and is not safe for concurrent use.
type Legion struct {
	// Marker identifies the legion, e.g. "Rd01".
	Marker string

	// Hex is the label of the masterboard hex the legion occupies. It is
	// passed to special recruit rules.
	Hex string

	counts map[string]int
	size   int
}

// NewLegion returns a legion holding creatures.
func NewLegion(marker, hex string, creatures map[string]int) (*Legion, error) {
	l := &Legion{Marker: marker, Hex: hex, counts: make(map[string]int, len(creatures))}
	for name, n := range creatures {
		if n == 0 {
			continue
		}
		if err := l.Add(name, n); err != nil {
			return nil, fmt.Errorf("caretaker: new legion %q: %w", marker, err)
		}
	}
	return l, nil
}

// CountOf implements [recruit.LegionOracle].
func (l *Legion) CountOf(name string) int {
	return l.counts[name]
}

// Add puts n creatures of name into the legion.
func (l *Legion) Add(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if l.size+n > MaxLegionSize {
		return fmt.Errorf("%w: %d + %d exceeds %d", ErrLegionFull, l.size, n, MaxLegionSize)
	}
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[name] += n
	l.size += n
	return nil
}

// Remove takes n creatures of name out of the legion.
func (l *Legion) Remove(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	have := l.counts[name]
	if have < n {
		return fmt.Errorf("%w: %q has %d, want %d", ErrNotInLegion, name, have, n)
	}
	if have == n {
		delete(l.counts, name)
	} else {
		l.counts[name] = have - n
	}
	l.size -= n
	return nil
}

// Size returns the total number of creatures in the legion.
func (l *Legion) Size() int { return l.size }

// Creatures returns a copy of the legion contents.
func (l *Legion) Creatures() map[string]int {
	return maps.Clone(l.counts)
}
