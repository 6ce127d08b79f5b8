// Package recruit implements the recruit graph: a directed, possibly cyclic
// multigraph over creature types where an edge reads "Number creatures of
// Source recruit one Destination in Terrain".
//
// The graph answers the questions AI heuristics and inspector panels ask
// about a variant's recruiting rules: how many recruiters a recruit needs,
// which terrains a stack of creatures can muster in, and which creatures are
// still reachable given live creature stock ([AvailabilityOracle]) and the
// contents of a particular legion ([LegionOracle]).
//
// A [Graph] is not safe for concurrent use. It is owned by one game session
// and rebuilt when a variant is loaded; callers that share one instance must
// serialise access themselves.
package recruit

import "strings"

// BigNum is the sentinel recruiter count. "99 creatures can muster one"
// means the recruit is not possible at all; it also stands in for unlimited
// stock when no availability oracle is attached.
const BigNum = 99

// Reserved recruiter names. They act as recruiter categories rather than
// concrete creatures.
const (
	KeywordAnything   = "Anything"
	KeywordAnyNonLord = "AnyNonLord"
	KeywordLord       = "Lord"
	KeywordDemiLord   = "DemiLord"

	// SpecialPrefix marks a recruiter whose rule is resolved by a
	// [SpecialRuleProvider], e.g. "Special:Balrog".
	SpecialPrefix = "Special:"
)

// Terrain identifies the masterboard terrain a recruit edge applies to.
type Terrain string

// RecruiterKind classifies a vertex name.
type RecruiterKind uint8

const (
	// RecruiterCreature is a concrete creature type.
	RecruiterCreature RecruiterKind = iota

	// RecruiterAnything matches any recruiter.
	RecruiterAnything

	// RecruiterAnyNonLord matches recruiters that are neither lords nor demi-lords.
	RecruiterAnyNonLord

	// RecruiterLord matches recruiters classified as lords.
	RecruiterLord

	// RecruiterDemiLord matches recruiters classified as demi-lords.
	RecruiterDemiLord

	// RecruiterSpecial delegates to a custom recruit rule.
	RecruiterSpecial
)

// String returns a human readable name for k.
func (k RecruiterKind) String() string {
	switch k {
	case RecruiterCreature:
		return "creature"
	case RecruiterAnything:
		return "anything"
	case RecruiterAnyNonLord:
		return "any-non-lord"
	case RecruiterLord:
		return "lord"
	case RecruiterDemiLord:
		return "demi-lord"
	case RecruiterSpecial:
		return "special"
	}
	return "unknown"
}

// Recruiter is a parsed vertex name.
type Recruiter struct {
	Kind RecruiterKind

	// Name is the original name, including the [SpecialPrefix] for
	// special recruiters.
	Name string
}

// ParseRecruiter classifies name. Anything that is not a reserved keyword
// and does not carry the [SpecialPrefix] is a concrete creature.
func ParseRecruiter(name string) Recruiter {
	switch name {
	case KeywordAnything:
		return Recruiter{Kind: RecruiterAnything, Name: name}
	case KeywordAnyNonLord:
		return Recruiter{Kind: RecruiterAnyNonLord, Name: name}
	case KeywordLord:
		return Recruiter{Kind: RecruiterLord, Name: name}
	case KeywordDemiLord:
		return Recruiter{Kind: RecruiterDemiLord, Name: name}
	}
	if strings.HasPrefix(name, SpecialPrefix) {
		return Recruiter{Kind: RecruiterSpecial, Name: name}
	}
	return Recruiter{Kind: RecruiterCreature, Name: name}
}

// IsConcrete reports whether r names an actual creature type.
func (r Recruiter) IsConcrete() bool {
	return r.Kind == RecruiterCreature
}

// IsKeyword reports whether name is one of the reserved recruiter names or
// carries the [SpecialPrefix].
func IsKeyword(name string) bool {
	return !ParseRecruiter(name).IsConcrete()
}

// Classifier reports the lord / demi-lord status of creature types.
// Implementations return false for names they do not know.
type Classifier interface {
	IsLord(name string) bool
	IsDemiLord(name string) bool
}

// AvailabilityOracle is the caretaker view of creature stock.
type AvailabilityOracle interface {
	Classifier

	// RemainingCount returns how many creatures of the named type can still
	// be obtained.
	RemainingCount(name string) int
}

// LegionOracle reports the contents of one legion.
type LegionOracle interface {
	// CountOf returns how many creatures of the named type the legion holds.
	CountOf(name string) int
}

// CreatureCatalog resolves creature point values.
type CreatureCatalog interface {
	// PointValue returns the point value of the named creature and whether
	// the creature is known.
	PointValue(name string) (int, bool)
}

// SpecialRuleProvider answers recruiter-count questions for recruiters
// named with the [SpecialPrefix].
type SpecialRuleProvider interface {
	NumberOfRecruiterNeeded(rule, recruiter, recruit string, terrain Terrain, hex string) (int, error)
}

// RecruitOption is one recruit possibility: NumberRequired creatures of
// StartCreature recruit one TargetCreature in Terrain.
type RecruitOption struct {
	Terrain        Terrain `json:"terrain"`
	StartCreature  string  `json:"start_creature"`
	TargetCreature string  `json:"target_creature"`
	NumberRequired int     `json:"number_required"`
}
