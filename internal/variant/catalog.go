package variant

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// Compile-time interface checks.
var (
	_ recruit.CreatureCatalog     = (*Catalog)(nil)
	_ recruit.Classifier          = (*Catalog)(nil)
	_ recruit.SpecialRuleProvider = (*Rules)(nil)
)

// ErrUnknownRule is returned by [Rules] for rule names the variant does not
// declare.
var ErrUnknownRule = errors.New("variant: unknown special rule")

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

// Catalog is the read-only creature index of one variant. It serves point
// values and lord classification to [recruit.Graph] and initial counts to
// the caretaker. Safe for concurrent use.
type Catalog struct {
	byName map[string]CreatureDef
	names  []string
}

// NewCatalog indexes the creatures of f.
func NewCatalog(f *File) *Catalog {
	c := &Catalog{
		byName: make(map[string]CreatureDef, len(f.Creatures)),
		names:  make([]string, 0, len(f.Creatures)),
	}
	for _, def := range f.Creatures {
		if _, dup := c.byName[def.Name]; dup {
			continue
		}
		c.byName[def.Name] = def
		c.names = append(c.names, def.Name)
	}
	return c
}

// PointValue implements [recruit.CreatureCatalog].
func (c *Catalog) PointValue(name string) (int, bool) {
	def, ok := c.byName[name]
	return def.PointValue, ok
}

// IsLord implements [recruit.Classifier].
func (c *Catalog) IsLord(name string) bool { return c.byName[name].Lord }

// IsDemiLord implements [recruit.Classifier].
func (c *Catalog) IsDemiLord(name string) bool { return c.byName[name].DemiLord }

// Count returns the number of counters of name in the box.
func (c *Catalog) Count(name string) (int, bool) {
	def, ok := c.byName[name]
	return def.Count, ok
}

// Has reports whether name is a creature of the variant.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Names returns the creature names in file order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// ─────────────────────────────────────────────────────────────────────────────
// Rules
// ─────────────────────────────────────────────────────────────────────────────

// Rules serves the static special rules declared by a variant. A rule needs
// RecruitersNeeded recruiters for any of its recruits in any terrain, and
// cannot produce anything else.
type Rules struct {
	byName map[string]SpecialRuleDef
}

// NewRules indexes the special rules of f.
func NewRules(f *File) *Rules {
	r := &Rules{byName: make(map[string]SpecialRuleDef, len(f.SpecialRules))}
	for _, def := range f.SpecialRules {
		r.byName[def.Name] = def
	}
	return r
}

// NumberOfRecruiterNeeded implements [recruit.SpecialRuleProvider]. The
// recruiter, terrain and hex are not consulted by static rules.
func (r *Rules) NumberOfRecruiterNeeded(rule, _, target string, _ recruit.Terrain, _ string) (int, error) {
	def, ok := r.byName[rule]
	if !ok {
		return recruit.BigNum, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
	if !slices.Contains(def.Recruits, target) {
		return recruit.BigNum, nil
	}
	return def.RecruitersNeeded, nil
}

// PossibleRecruits returns every creature rule can produce.
func (r *Rules) PossibleRecruits(rule string) ([]string, error) {
	def, ok := r.byName[rule]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
	return slices.Clone(def.Recruits), nil
}
