package coalesce

import "github.com/kentwait/coalesce/tables"

// Simplify reduces a table collection to the minimal history of the
// given sample node ids, preserving topology (GLOSSARY: "Simplify").
// This is a pragmatic subset of the full tskit simplify algorithm: it
// removes nodes and edges that have no path to any sample (dead
// branches left behind when lineages carrying no surviving ancestral
// material are discarded under SMC/SMC') and remaps surviving node ids
// to a dense range that keeps their original relative order. It does
// not remove unary nodes or merge the edges around them; census events,
// for example, create unary nodes, and Simplify keeps them.
func Simplify(t *tables.Collection, samples []int32) {
	reachable := make(map[int32]bool, len(t.Nodes))
	for _, s := range samples {
		reachable[s] = true
	}
	// Fixed-point reachability: a node is kept if it is a sample or is
	// the parent of a kept child over some edge.
	changed := true
	for changed {
		changed = false
		for _, e := range t.Edges {
			if reachable[e.Child] && !reachable[e.Parent] {
				reachable[e.Parent] = true
				changed = true
			}
		}
	}

	keepNode := make([]bool, len(t.Nodes))
	for id := range reachable {
		keepNode[id] = true
	}

	remap := make([]int32, len(t.Nodes))
	var newNodes []tables.Node
	for old, keep := range keepNode {
		if !keep {
			remap[old] = -1
			continue
		}
		remap[old] = int32(len(newNodes))
		newNodes = append(newNodes, t.Nodes[old])
	}

	var newEdges []tables.Edge
	for _, e := range t.Edges {
		if !keepNode[e.Parent] || !keepNode[e.Child] {
			continue
		}
		newEdges = append(newEdges, tables.Edge{
			Left: e.Left, Right: e.Right,
			Parent: remap[e.Parent], Child: remap[e.Child],
		})
	}

	var newMutations []tables.Mutation
	for _, m := range t.Mutations {
		if !keepNode[m.Node] {
			continue
		}
		nm := m
		nm.Node = remap[m.Node]
		newMutations = append(newMutations, nm)
	}

	t.Nodes = newNodes
	t.Edges = newEdges
	t.Mutations = newMutations
	t.SortEdges()
}
