package recruit

import "log/slog"

// NumberOfRecruiterNeeded returns how many recruiter creatures are needed to
// recruit one recruit in terrain, or [BigNum] if recruiter cannot recruit it
// there at all.
//
// Incoming edges of recruit in terrain count when their source is recruiter
// itself, Anything, AnyNonLord (recruiter is neither lord nor demi-lord),
// Lord (recruiter is a lord) or DemiLord (recruiter is a demi-lord). Special
// sources are asked through the [SpecialRuleProvider]; hex is passed through
// to it unchanged. The smallest answer wins.
func (g *Graph) NumberOfRecruiterNeeded(recruiter, recruit string, terrain Terrain, hex string) int {
	source := g.lookup(recruiter)
	target := g.lookup(recruit)
	isLord, isDemiLord := g.classify(recruiter)

	minValue := BigNum
	for _, ei := range g.vertices[target].incoming {
		e := g.edges[ei]
		if e.terrain != terrain {
			continue
		}
		src := g.vertices[e.src].recruiter

		var matches bool
		switch src.Kind {
		case RecruiterAnything:
			matches = true
		case RecruiterAnyNonLord:
			matches = !isLord && !isDemiLord
		case RecruiterLord:
			matches = isLord
		case RecruiterDemiLord:
			matches = isDemiLord
		case RecruiterSpecial:
			if n := g.specialNeeded(src.Name, recruiter, recruit, terrain, hex); n < minValue {
				minValue = n
			}
		}
		if e.src == source {
			matches = true
		}
		if matches && e.number < minValue {
			minValue = e.number
		}
	}
	return minValue
}

// specialNeeded asks the special rule provider. A missing provider or a
// provider error yields BigNum.
func (g *Graph) specialNeeded(rule, recruiter, recruit string, terrain Terrain, hex string) int {
	if g.special == nil {
		slog.Debug("recruit graph: no special rule provider", "rule", rule)
		return BigNum
	}
	n, err := g.special.NumberOfRecruiterNeeded(rule, recruiter, recruit, terrain, hex)
	if err != nil {
		slog.Warn("recruit graph: special rule failed",
			"rule", rule,
			"recruiter", recruiter,
			"recruit", recruit,
			"terrain", terrain,
			"err", err,
		)
		return BigNum
	}
	return n
}

// AnonymousRecruitLegal reports whether recruit can be mustered in terrain
// without revealing any recruiter: either Anything or AnyNonLord needs zero
// creatures.
func (g *Graph) AnonymousRecruitLegal(recruit string, terrain Terrain, hex string) bool {
	if g.NumberOfRecruiterNeeded(KeywordAnything, recruit, terrain, hex) == 0 {
		return true
	}
	return g.NumberOfRecruiterNeeded(KeywordAnyNonLord, recruit, terrain, hex) == 0
}

// MaximumUsefulNumber returns the largest number of name required by any of
// its outgoing edges: holding more than that gains nothing for recruiting.
// Returns -1 when name recruits nothing, not even itself.
func (g *Graph) MaximumUsefulNumber(name string) int {
	mun := -1
	for _, ei := range g.vertices[g.lookup(name)].outgoing {
		if n := g.edges[ei].number; n > mun {
			mun = n
		}
	}
	return mun
}

// TerrainsWhereNumberRecruits returns, in edge insertion order, the terrain
// of every outgoing edge of name that requires exactly number creatures.
func (g *Graph) TerrainsWhereNumberRecruits(name string, number int) []Terrain {
	terrains := []Terrain{}
	for _, ei := range g.vertices[g.lookup(name)].outgoing {
		if e := g.edges[ei]; e.number == number {
			terrains = append(terrains, e.terrain)
		}
	}
	return terrains
}

// RecruitableBy lists everything name can recruit, one option per outgoing
// edge.
func (g *Graph) RecruitableBy(name string) []RecruitOption {
	return g.options(g.vertices[g.lookup(name)].outgoing)
}

// RecruitersOf lists everything that can recruit name, one option per
// incoming edge.
func (g *Graph) RecruitersOf(name string) []RecruitOption {
	return g.options(g.vertices[g.lookup(name)].incoming)
}

func (g *Graph) options(edges []int) []RecruitOption {
	opts := make([]RecruitOption, 0, len(edges))
	for _, ei := range edges {
		e := g.edges[ei]
		opts = append(opts, RecruitOption{
			Terrain:        e.terrain,
			StartCreature:  g.name(e.src),
			TargetCreature: g.name(e.dst),
			NumberRequired: e.number,
		})
	}
	return opts
}

// RecruitFromRecruiterTerrainNumber returns what number creatures of
// recruiter recruit in terrain. When several edges match, the one inserted
// last wins. The boolean is false when nothing matches.
func (g *Graph) RecruitFromRecruiterTerrainNumber(recruiter string, terrain Terrain, number int) (string, bool) {
	found := -1
	for _, ei := range g.vertices[g.lookup(recruiter)].outgoing {
		if e := g.edges[ei]; e.number == number && e.terrain == terrain {
			found = e.dst
		}
	}
	if found < 0 {
		return "", false
	}
	return g.name(found), true
}

// BestPossibleRecruitEver returns the highest valued creature reachable from
// start given current stock and the contents of legion (which may be nil).
// Ties go to the creature reached first; creatures without a known point
// value never win. Returns start when nothing scores higher.
func (g *Graph) BestPossibleRecruitEver(start string, legion LegionOracle) string {
	best := start
	maxVP := -1
	for _, v := range g.traverse(g.lookup(start), legion) {
		vp := -1
		if g.catalog != nil {
			if p, ok := g.catalog.PointValue(g.name(v)); ok {
				vp = p
			}
		}
		if vp > maxVP {
			maxVP = vp
			best = g.name(v)
		}
	}
	return best
}

// IsRecruitDistanceLessThan reports whether greater shows up among the first
// distance+1 creatures reached from lesser (lesser itself is step 0). Only
// global stock is considered.
//
// The bound keeps the answer meaningful: without it nearly every creature
// is reachable through a tower down-muster.
func (g *Graph) IsRecruitDistanceLessThan(lesser, greater string, distance int) bool {
	order := g.traverse(g.lookup(lesser), nil)
	for steps, v := range order {
		if steps >= distance+1 {
			break
		}
		if g.name(v) == greater {
			return true
		}
	}
	return false
}
