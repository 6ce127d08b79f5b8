package recruit

import "log/slog"

// traverseFrame is one level of the explicit DFS stack: the vertex being
// expanded and the position of the next outgoing edge to examine.
type traverseFrame struct {
	v    int
	next int
}

// traverse walks the graph depth first from start and returns the reached
// vertices in pre-order, start first.
//
// An edge is followed only when its destination has not been visited, the
// source's remaining stock plus what legion already holds of it covers the
// edge's number, and at least one destination creature is still available.
// Recruiter keywords are walked like any other vertex.
//
// legion may be nil, in which case only global stock counts.
func (g *Graph) traverse(start int, legion LegionOracle) []int {
	visited := make([]bool, len(g.vertices))
	visited[start] = true
	order := []int{start}

	stack := []traverseFrame{{v: start}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		out := g.vertices[top.v].outgoing
		if top.next >= len(out) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := g.edges[out[top.next]]
		top.next++

		if visited[e.dst] {
			continue
		}

		already := 0
		if legion != nil {
			already = legion.CountOf(g.name(e.src))
		}
		srcLeft := g.remaining(e.src)
		dstLeft := g.remaining(e.dst)
		if srcLeft+already < e.number || dstLeft <= 0 {
			slog.Debug("recruit graph: ignoring edge, not enough creatures left",
				"src", g.name(e.src),
				"dst", g.name(e.dst),
				"number", e.number,
				"terrain", e.terrain,
				"already", already,
				"src_remaining", srcLeft,
				"dst_remaining", dstLeft,
			)
			continue
		}

		visited[e.dst] = true
		order = append(order, e.dst)
		stack = append(stack, traverseFrame{v: e.dst})
	}
	return order
}

// Reachable returns the names of every creature reachable from start under
// the current stock and legion contents, in traversal order. start is
// always the first element. legion may be nil.
func (g *Graph) Reachable(start string, legion LegionOracle) []string {
	order := g.traverse(g.lookup(start), legion)
	names := make([]string, len(order))
	for i, v := range order {
		names[i] = g.name(v)
	}
	return names
}
