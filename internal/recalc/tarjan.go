package recalc

// tarjanSCC computes the strongly connected components of g restricted to
// edges whose target is itself a formula node (dependencies on plain
// value cells are leaves and never participate in a cycle). Components
// are returned in dependency-first order: every cell a component depends
// on (directly or transitively, outside its own SCC) already appears in
// an earlier component, so evaluating components in this order gives a
// valid topological evaluation order.
//
// Grounded on the textbook Tarjan algorithm; implemented from first
// principles, recorded in DESIGN.md.
type tarjan struct {
	g       *graph
	index   map[cellKey]int
	low     map[cellKey]int
	onStack map[cellKey]bool
	stack   []cellKey
	counter int
	sccs    [][]cellKey
}

func stronglyConnectedComponents(g *graph) [][]cellKey {
	t := &tarjan{
		g:       g,
		index:   map[cellKey]int{},
		low:     map[cellKey]int{},
		onStack: map[cellKey]bool{},
	}

	for _, key := range g.order {
		if _, seen := t.index[key]; !seen {
			t.strongConnect(key)
		}
	}

	return t.sccs
}

func (t *tarjan) strongConnect(v cellKey) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++

	t.stack = append(t.stack, v)
	t.onStack[v] = true

	n := t.g.nodes[v]

	for _, w := range n.deps {
		if _, isFormula := t.g.nodes[w]; !isFormula {
			continue // value-only dependency, not part of the graph
		}

		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] != t.index[v] {
		return
	}

	var component []cellKey

	for {
		last := len(t.stack) - 1
		w := t.stack[last]
		t.stack = t.stack[:last]
		t.onStack[w] = false

		component = append(component, w)
		if w == v {
			break
		}
	}

	t.sccs = append(t.sccs, component)
}
