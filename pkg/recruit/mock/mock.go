// Package mock provides map-backed test doubles for the collaborators of
// [recruit.Graph].
//
// Each double is configured through exported maps and records how often it
// was consulted, so tests can assert on oracle traffic. All doubles are safe
// for concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	stock := &mock.Availability{Remaining: map[string]int{"Ogre": 0}}
//	g := recruit.New(recruit.WithAvailability(stock))
//	// ...
//	if stock.Calls() == 0 {
//	    t.Error("expected the oracle to be consulted")
//	}
package mock

import (
	"fmt"
	"sync"

	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// Compile-time interface checks.
var (
	_ recruit.AvailabilityOracle  = (*Availability)(nil)
	_ recruit.LegionOracle        = (*Legion)(nil)
	_ recruit.CreatureCatalog     = (*Catalog)(nil)
	_ recruit.Classifier          = (*Catalog)(nil)
	_ recruit.SpecialRuleProvider = (*SpecialRules)(nil)
)

// ─────────────────────────────────────────────────────────────────────────────
// Availability
// ─────────────────────────────────────────────────────────────────────────────

// Availability is a configurable [recruit.AvailabilityOracle].
// Creatures missing from Remaining report Default.
type Availability struct {
	mu sync.Mutex

	// Remaining maps creature names to their stock.
	Remaining map[string]int

	// Default is returned for creatures missing from Remaining.
	Default int

	// Lords and DemiLords list the classified creature names.
	Lords     map[string]bool
	DemiLords map[string]bool

	calls int
}

// RemainingCount implements [recruit.AvailabilityOracle].
func (a *Availability) RemainingCount(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if n, ok := a.Remaining[name]; ok {
		return n
	}
	return a.Default
}

// IsLord implements [recruit.Classifier].
func (a *Availability) IsLord(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Lords[name]
}

// IsDemiLord implements [recruit.Classifier].
func (a *Availability) IsDemiLord(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.DemiLords[name]
}

// Set changes the stock of one creature.
func (a *Availability) Set(name string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Remaining == nil {
		a.Remaining = make(map[string]int)
	}
	a.Remaining[name] = n
}

// Calls returns how many times RemainingCount was invoked.
func (a *Availability) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// ─────────────────────────────────────────────────────────────────────────────
// Legion
// ─────────────────────────────────────────────────────────────────────────────

// Legion is a [recruit.LegionOracle] backed by a name → count map.
type Legion map[string]int

// CountOf implements [recruit.LegionOracle].
func (l Legion) CountOf(name string) int { return l[name] }

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

// Catalog is a [recruit.CreatureCatalog] and [recruit.Classifier].
type Catalog struct {
	Points    map[string]int
	Lords     map[string]bool
	DemiLords map[string]bool
}

// PointValue implements [recruit.CreatureCatalog].
func (c *Catalog) PointValue(name string) (int, bool) {
	p, ok := c.Points[name]
	return p, ok
}

// IsLord implements [recruit.Classifier].
func (c *Catalog) IsLord(name string) bool { return c.Lords[name] }

// IsDemiLord implements [recruit.Classifier].
func (c *Catalog) IsDemiLord(name string) bool { return c.DemiLords[name] }

// ─────────────────────────────────────────────────────────────────────────────
// SpecialRules
// ─────────────────────────────────────────────────────────────────────────────

// SpecialRules is a [recruit.SpecialRuleProvider] that answers from a fixed
// table keyed by rule name. Rules listed in Fail return an error.
type SpecialRules struct {
	mu sync.Mutex

	Needed map[string]int
	Fail   map[string]bool

	// LastHex is the hex label passed on the most recent call.
	LastHex string
}

// NumberOfRecruiterNeeded implements [recruit.SpecialRuleProvider].
func (s *SpecialRules) NumberOfRecruiterNeeded(rule, _, _ string, _ recruit.Terrain, hex string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastHex = hex
	if s.Fail[rule] {
		return 0, fmt.Errorf("mock: rule %q configured to fail", rule)
	}
	n, ok := s.Needed[rule]
	if !ok {
		return recruit.BigNum, nil
	}
	return n, nil
}
