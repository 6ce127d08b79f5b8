package variant

import (
	"log/slog"

	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// TitanName is the creature that recruits but can never be recruited.
const TitanName = "Titan"

// Populate adds the recruit edges of every terrain in f to g. f should have
// passed [Validate]; entries referring to undeclared special rules are
// skipped with a warning.
//
// For each recruit list, walking from the first entry to the last:
//   - the previous entry, keywords included, recruits the current one with
//     the entry's number;
//   - the current entry recruits itself with one counter, or with none when
//     its number is 0;
//   - with regular_recruit it also recruits every earlier concrete entry the
//     same way;
//   - a special rule entry recruits each of the rule's creatures at
//     [recruit.BigNum], leaving the real count to the rule.
//
// The Titan and entries with a negative number never receive edges, but they
// still act as the recruiter of the next entry.
func Populate(g *recruit.Graph, f *File) {
	for _, t := range f.Terrains {
		populateTerrain(g, f, t)
	}
	slog.Debug("variant: graph populated",
		"variant", f.Variant.Name,
		"creatures", g.Len(),
		"edges", g.EdgeCount(),
	)
}

// NewGraph builds a populated graph for f, with the variant's [Catalog] as
// point-value catalog and classifier and its [Rules] as special rule
// provider. opts are applied after those defaults.
func NewGraph(f *File, opts ...recruit.Option) *recruit.Graph {
	cat := NewCatalog(f)
	base := []recruit.Option{
		recruit.WithCatalog(cat),
		recruit.WithClassifier(cat),
		recruit.WithSpecialRules(NewRules(f)),
	}
	g := recruit.New(append(base, opts...)...)
	Populate(g, f)
	return g
}

func populateTerrain(g *recruit.Graph, f *File, t TerrainDef) {
	terrain := recruit.Terrain(t.Name)
	prev := ""

	for i, tr := range t.Recruits {
		if recruitable(tr.Name) && tr.Number >= 0 {
			if prev != "" {
				g.AddEdge(prev, tr.Name, tr.Number, terrain)
			}
			for j := 0; j <= i; j++ {
				if j != i && !t.RegularRecruit {
					continue
				}
				below := t.Recruits[j]
				if !recruitable(below.Name) {
					continue
				}
				switch {
				case below.Number > 0:
					g.AddEdge(tr.Name, below.Name, 1, terrain)
				case below.Number == 0:
					g.AddEdge(tr.Name, below.Name, 0, terrain)
				}
			}
		}

		if recruit.ParseRecruiter(tr.Name).Kind == recruit.RecruiterSpecial {
			rule, ok := f.Rule(tr.Name)
			if !ok {
				slog.Warn("variant: terrain references undeclared special rule",
					"terrain", t.Name,
					"rule", tr.Name,
				)
			}
			for _, name := range rule.Recruits {
				g.AddEdge(tr.Name, name, recruit.BigNum, terrain)
			}
		}

		prev = tr.Name
	}
}

// recruitable reports whether name may be the destination of a recruit edge.
func recruitable(name string) bool {
	return name != "" && name != TitanName && recruit.ParseRecruiter(name).IsConcrete()
}
