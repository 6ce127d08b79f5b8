// Package variant defines the on-disk description of a game variant: its
// creatures, the per-terrain recruit lists and the special recruit rules.
//
// A variant file is loaded with [LoadFile] (or [LoadAll] for several files in
// parallel), checked with [Validate] and turned into a recruit graph with
// [Populate]. [Catalog] and [Rules] adapt the same file to the collaborator
// interfaces of [recruit.Graph].
package variant

// File is the top-level structure of a variant YAML file.
//
// Example:
//
//	variant:
//	  name: Default
//	creatures:
//	  - name: Centaur
//	    point_value: 12
//	    count: 25
//	terrains:
//	  - name: Plains
//	    recruits:
//	      - {name: Centaur, number: 0}
//	      - {name: Lion, number: 2}
type File struct {
	Variant      Meta             `yaml:"variant"       json:"variant"`
	Creatures    []CreatureDef    `yaml:"creatures"     json:"creatures"`
	Terrains     []TerrainDef     `yaml:"terrains"      json:"terrains"`
	SpecialRules []SpecialRuleDef `yaml:"special_rules" json:"special_rules,omitempty"`
}

// Meta holds top-level metadata for a variant.
type Meta struct {
	// Name identifies the variant. It is the key under which the variant is
	// stored and the value config refers to as the active variant.
	Name string `yaml:"name" json:"name"`

	// Description is a free-text summary.
	Description string `yaml:"description" json:"description,omitempty"`
}

// CreatureDef describes one creature type.
type CreatureDef struct {
	Name       string `yaml:"name"        json:"name"`
	PointValue int    `yaml:"point_value" json:"point_value"`

	// Count is the number of counters of this type in the box. It seeds the
	// caretaker's stock.
	Count int `yaml:"count" json:"count"`

	Lord     bool `yaml:"lord"      json:"lord,omitempty"`
	DemiLord bool `yaml:"demi_lord" json:"demi_lord,omitempty"`
}

// TerrainDef is the recruit list of one terrain, from the weakest recruiter
// to the strongest recruit.
type TerrainDef struct {
	Name string `yaml:"name" json:"name"`

	// RegularRecruit allows every creature in the list to recruit anything
	// listed before it with a single counter.
	RegularRecruit bool `yaml:"regular_recruit" json:"regular_recruit,omitempty"`

	Recruits []RecruitEntry `yaml:"recruits" json:"recruits"`
}

// RecruitEntry is one step in a terrain recruit list: Number creatures of the
// previous entry recruit one of Name. Name may be a recruiter keyword or a
// special rule name. A Number of 0 means the creature can be mustered for
// free; a negative Number marks an entry that recruits but cannot be
// recruited.
type RecruitEntry struct {
	Name   string `yaml:"name"   json:"name"`
	Number int    `yaml:"number" json:"number"`
}

// SpecialRuleDef describes a custom recruit rule referenced from a terrain
// list by its name, which must carry the "Special:" prefix.
type SpecialRuleDef struct {
	Name string `yaml:"name" json:"name"`

	// RecruitersNeeded is how many recruiters the rule asks for. Zero means
	// the recruits arrive without any recruiter, as with the Balrog.
	RecruitersNeeded int `yaml:"recruiters_needed" json:"recruiters_needed"`

	// Recruits lists every creature the rule can produce.
	Recruits []string `yaml:"recruits" json:"recruits"`
}

// Creature returns the definition named name.
func (f *File) Creature(name string) (CreatureDef, bool) {
	for _, c := range f.Creatures {
		if c.Name == name {
			return c, true
		}
	}
	return CreatureDef{}, false
}

// Rule returns the special rule named name.
func (f *File) Rule(name string) (SpecialRuleDef, bool) {
	for _, r := range f.SpecialRules {
		if r.Name == name {
			return r, true
		}
	}
	return SpecialRuleDef{}, false
}
