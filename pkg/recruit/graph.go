package recruit

import "log/slog"

// vertex is one creature type. Edges are referenced by index into
// Graph.edges, in insertion order.
type vertex struct {
	recruiter Recruiter
	outgoing  []int
	incoming  []int
}

// edge is immutable once inserted. src and dst index Graph.vertices.
type edge struct {
	src     int
	dst     int
	number  int
	terrain Terrain
}

// Graph is the recruit graph. The zero value is not usable; create one with
// [New].
type Graph struct {
	vertices []vertex
	edges    []edge
	byName   map[string]int

	// edgeIndex suppresses logically equal edges.
	edgeIndex map[edge]int

	oracle     AvailabilityOracle
	classifier Classifier
	catalog    CreatureCatalog
	special    SpecialRuleProvider
}

// Option configures a [Graph].
type Option func(*Graph)

// WithAvailability attaches an availability oracle at construction time.
// Equivalent to calling [Graph.SetAvailabilityOracle].
func WithAvailability(o AvailabilityOracle) Option {
	return func(g *Graph) { g.oracle = o }
}

// WithClassifier sets the lord / demi-lord classifier used when no
// availability oracle is attached.
func WithClassifier(c Classifier) Option {
	return func(g *Graph) { g.classifier = c }
}

// WithCatalog sets the point-value catalog used by
// [Graph.BestPossibleRecruitEver].
func WithCatalog(c CreatureCatalog) Option {
	return func(g *Graph) { g.catalog = c }
}

// WithSpecialRules sets the provider consulted for "Special:" recruiters.
func WithSpecialRules(p SpecialRuleProvider) Option {
	return func(g *Graph) { g.special = p }
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		byName:    make(map[string]int),
		edgeIndex: make(map[edge]int),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// AddEdge records that number creatures of src recruit one dst in terrain.
// Vertices are created on first reference. number is not range-checked.
// Adding an edge equal to an existing one (same src, dst, number and
// terrain) is a no-op.
func (g *Graph) AddEdge(src, dst string, number int, terrain Terrain) {
	e := edge{
		src:     g.vertexFor(src),
		dst:     g.vertexFor(dst),
		number:  number,
		terrain: terrain,
	}
	if _, exists := g.edgeIndex[e]; exists {
		return
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.edgeIndex[e] = idx
	g.vertices[e.src].outgoing = append(g.vertices[e.src].outgoing, idx)
	g.vertices[e.dst].incoming = append(g.vertices[e.dst].incoming, idx)
}

// SetAvailabilityOracle replaces the stock source used for resource checks.
// A nil oracle detaches it.
func (g *Graph) SetAvailabilityOracle(o AvailabilityOracle) {
	g.oracle = o
}

// ClearOracle detaches the availability oracle; every creature then counts
// as [BigNum] remaining.
func (g *Graph) ClearOracle() {
	g.oracle = nil
}

// Oracle returns the attached availability oracle, or nil.
func (g *Graph) Oracle() AvailabilityOracle {
	return g.oracle
}

// Clear detaches the availability oracle and removes every vertex and edge.
// Catalog, classifier and special rules stay configured.
func (g *Graph) Clear() {
	g.oracle = nil
	g.vertices = nil
	g.edges = nil
	g.byName = make(map[string]int)
	g.edgeIndex = make(map[edge]int)
}

// Has reports whether name already has a vertex. Unlike the queries it never
// creates one.
func (g *Graph) Has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Names returns every vertex name in creation order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.vertices))
	for i, v := range g.vertices {
		names[i] = v.recruiter.Name
	}
	return names
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// vertexFor returns the index of the vertex for name, creating it if needed.
func (g *Graph) vertexFor(name string) int {
	if idx, ok := g.byName[name]; ok {
		return idx
	}
	idx := len(g.vertices)
	g.vertices = append(g.vertices, vertex{recruiter: ParseRecruiter(name)})
	g.byName[name] = idx
	return idx
}

// lookup returns the vertex index for a queried name. Queries reference
// creatures the same way AddEdge does, so an unknown name gets an empty
// vertex.
func (g *Graph) lookup(name string) int {
	if _, ok := g.byName[name]; !ok {
		slog.Debug("recruit graph: adding unreferenced creature", "creature", name)
	}
	return g.vertexFor(name)
}

func (g *Graph) name(v int) string {
	return g.vertices[v].recruiter.Name
}

// remaining is the current stock of vertex v.
func (g *Graph) remaining(v int) int {
	if g.oracle == nil {
		return BigNum
	}
	return g.oracle.RemainingCount(g.name(v))
}

// classify returns the lord / demi-lord status of a recruiter name. Names
// nobody can classify are neither.
func (g *Graph) classify(name string) (lord, demiLord bool) {
	var c Classifier
	switch {
	case g.oracle != nil:
		c = g.oracle
	case g.classifier != nil:
		c = g.classifier
	default:
		return false, false
	}
	if !ParseRecruiter(name).IsConcrete() {
		return false, false
	}
	return c.IsLord(name), c.IsDemiLord(name)
}
