// Package caretaker tracks how many counters of each creature type are still
// available and what a single legion holds.
//
// [Caretaker] is the [recruit.AvailabilityOracle] the recruit graph consults
// during traversal; [Legion] is the [recruit.LegionOracle] passed to
// best-recruit queries.
package caretaker

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// Compile-time interface checks.
var (
	_ recruit.AvailabilityOracle = (*Caretaker)(nil)
	_ recruit.LegionOracle       = (*Legion)(nil)
)

var (
	// ErrExhausted is returned by Take when fewer creatures remain than
	// requested.
	ErrExhausted = errors.New("caretaker: not enough creatures left")

	// ErrUnknownCreature is returned for creature names the catalog does not
	// know.
	ErrUnknownCreature = errors.New("caretaker: unknown creature")

	// ErrInvalidCount is returned for non-positive counts.
	ErrInvalidCount = errors.New("caretaker: count must be positive")
)

// Catalog is the part of a variant the caretaker needs: the box count of each
// creature type and its lord classification.
type Catalog interface {
	recruit.Classifier

	// Count returns the number of counters of name in the box.
	Count(name string) (int, bool)

	// Names lists every creature type.
	Names() []string
}

// Caretaker holds the live creature stock of one game. All methods are safe
// for concurrent use.
type Caretaker struct {
	catalog Catalog

	mu        sync.RWMutex
	remaining map[string]int
}

// New returns a caretaker with every creature at its full box count.
func New(catalog Catalog) *Caretaker {
	c := &Caretaker{catalog: catalog}
	c.Reset()
	return c
}

// RemainingCount implements [recruit.AvailabilityOracle]. Unknown creatures
// have nothing left.
func (c *Caretaker) RemainingCount(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remaining[name]
}

// IsLord implements [recruit.Classifier] by delegating to the catalog.
func (c *Caretaker) IsLord(name string) bool { return c.catalog.IsLord(name) }

// IsDemiLord implements [recruit.Classifier] by delegating to the catalog.
func (c *Caretaker) IsDemiLord(name string) bool { return c.catalog.IsDemiLord(name) }

// Take removes n creatures of name from the stock and returns how many are
// left. The stock is unchanged on error.
func (c *Caretaker) Take(name string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	left, ok := c.remaining[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCreature, name)
	}
	if left < n {
		return left, fmt.Errorf("%w: %q has %d, want %d", ErrExhausted, name, left, n)
	}
	c.remaining[name] = left - n
	return left - n, nil
}

// Return puts n creatures of name back. The stock never exceeds the box
// count; surplus counters are dropped. It returns how many are now left.
func (c *Caretaker) Return(name string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	limit, ok := c.catalog.Count(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCreature, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	left := min(c.remaining[name]+n, limit)
	c.remaining[name] = left
	return left, nil
}

// Set overrides the stock of name. n is clamped to [0, box count].
func (c *Caretaker) Set(name string, n int) error {
	limit, ok := c.catalog.Count(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCreature, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining[name] = max(0, min(n, limit))
	return nil
}

// Reset restores every creature to its full box count.
func (c *Caretaker) Reset() {
	names := c.catalog.Names()
	stock := make(map[string]int, len(names))
	for _, name := range names {
		n, _ := c.catalog.Count(name)
		stock[name] = n
	}

	c.mu.Lock()
	c.remaining = stock
	c.mu.Unlock()
}

// Snapshot returns a copy of the current stock.
func (c *Caretaker) Snapshot() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.remaining)
}
