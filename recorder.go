package coalesce

import "github.com/kentwait/coalesce/tables"

// edgeKey identifies a (parent, child) pair for the squash buffer.
type edgeKey struct {
	parent, child int32
}

// Recorder is component H: it appends nodes, edges and migrations to a
// tables.Collection, squashing adjacent edges that share a (parent,
// child) pair and touch at a shared boundary (spec.md §4.6), the same
// way msprime's segment_overlapper/edge buffer avoids emitting
// fragmented edges for what is really one continuous relation.
type Recorder struct {
	Tables *tables.Collection

	// last holds, per (parent, child), the index into Tables.Edges of
	// the most recently appended edge for that pair, so a touching next
	// edge can be extended in place instead of appended fresh.
	last map[edgeKey]int

	RecordMigrations bool
}

// NewRecorder creates a Recorder writing into the given table
// collection.
func NewRecorder(t *tables.Collection, recordMigrations bool) *Recorder {
	return &Recorder{Tables: t, last: make(map[edgeKey]int), RecordMigrations: recordMigrations}
}

// AddNode appends a node and returns its id.
func (r *Recorder) AddNode(flags uint32, time float64, population int32, individual int32) int32 {
	return r.Tables.AddNode(flags, time, population, individual, nil)
}

// AddEdge appends an edge, squashing it against the tail of the edge
// table for the same (parent, child) pair when the new edge's left
// boundary exactly touches the previous edge's right boundary (spec.md
// §4.5, §4.6, and invariant 4 of §8: the squasher must never produce two
// overlapping edges for the same pair).
func (r *Recorder) AddEdge(left, right float64, parent, child int32) {
	key := edgeKey{parent, child}
	if idx, ok := r.last[key]; ok {
		e := &r.Tables.Edges[idx]
		if e.Right == left {
			e.Right = right
			return
		}
	}
	r.Tables.AddEdge(left, right, parent, child)
	r.last[key] = len(r.Tables.Edges) - 1
}

// AddMigration appends a migration record if migration recording is
// enabled; otherwise it is a no-op (spec.md §3: "emitted only when
// migration recording is enabled").
func (r *Recorder) AddMigration(left, right float64, node, source, dest int32, time float64) {
	if !r.RecordMigrations {
		return
	}
	r.Tables.AddMigration(left, right, node, source, dest, time)
}

// Finalize sorts the edge table by (time[parent], parent, child, left)
// per spec.md §4.6 and, if samples is non-nil, runs a simplify pass
// against that sample list.
func (r *Recorder) Finalize(samples []int32) error {
	r.Tables.SortEdges()
	if err := r.Tables.CheckIntegrity(); err != nil {
		return NewLibraryError("recorder finalize", err)
	}
	if samples != nil {
		Simplify(r.Tables, samples)
	}
	return nil
}
