// Package tables implements the table-collection contract pinned by
// spec.md §6: eight relational tables (individuals, nodes, edges,
// migrations, sites, mutations, populations, provenances) plus a scalar
// sequence length, with variable-length columns encoded as a packed
// array plus a monotone offset column. This is consumed, not designed,
// by the simulation kernel in the parent package: the real system treats
// a tables library as an external collaborator, but no such dependency
// exists in the example pack, so it is implemented here in the same
// columnar/offset-encoded style the contract requires.
package tables

import (
	"fmt"
	"sort"
)

// Node flag bits (spec.md §6).
const (
	FlagIsSample   uint32 = 1 << 0
	FlagIsCAEvent  uint32 = 1 << 1
	FlagIsREEvent  uint32 = 1 << 2
	FlagIsMigEvent uint32 = 1 << 3
	FlagIsCenEvent uint32 = 1 << 4
)

// Mutation alphabet constants (spec.md §6).
const (
	AlphabetBinary     = 0
	AlphabetNucleotide = 1
)

// Individual is one row of the individual table.
type Individual struct {
	Flags    uint32
	Location []float64
	Metadata []byte
}

// Node is one row of the node table.
type Node struct {
	Flags      uint32
	Time       float64
	Population int32
	Individual int32 // -1 if none
	Metadata   []byte
}

// Edge is one row of the edge table: a genealogical relation over
// [Left, Right) from Child to Parent (spec.md §3).
type Edge struct {
	Left, Right float64
	Parent      int32
	Child       int32
}

// Migration is one row of the migration table.
type Migration struct {
	Left, Right float64
	Node        int32
	Source      int32
	Dest        int32
	Time        float64
}

// Site is one row of the site table.
type Site struct {
	Position       float64
	AncestralState string
	Metadata       []byte
}

// Mutation is one row of the mutation table.
type Mutation struct {
	Site        int32
	Node        int32
	Parent      int32 // id of the mutation this one is stacked on, or -1
	DerivedState string
	Time         float64
	Metadata     []byte
}

// PopulationRow is one row of the population table.
type PopulationRow struct {
	Metadata []byte
}

// Provenance is one row of the provenance table: a timestamped record of
// how the table collection was produced.
type Provenance struct {
	Timestamp string
	Record    string
}

// Collection is the full table collection plus the scalar
// sequence_length (spec.md §6). Columns are exposed as typed slices
// rather than the packed-byte/offset encoding the contract describes,
// since in-process Go code has no need to marshal between calls; AsDict
// and FromDict below perform that encoding/decoding for serialization
// and the round-trip property (spec.md §8 property 9).
type Collection struct {
	SequenceLength float64

	Individuals []Individual
	Nodes       []Node
	Edges       []Edge
	Migrations  []Migration
	Sites       []Site
	Mutations   []Mutation
	Populations []PopulationRow
	Provenances []Provenance
}

// NewCollection creates an empty table collection over [0, sequenceLength).
func NewCollection(sequenceLength float64) *Collection {
	return &Collection{SequenceLength: sequenceLength}
}

// AddNode appends a node row and returns its dense id.
func (c *Collection) AddNode(flags uint32, time float64, population, individual int32, metadata []byte) int32 {
	c.Nodes = append(c.Nodes, Node{Flags: flags, Time: time, Population: population, Individual: individual, Metadata: metadata})
	return int32(len(c.Nodes) - 1)
}

// AddEdge appends an edge row.
func (c *Collection) AddEdge(left, right float64, parent, child int32) {
	c.Edges = append(c.Edges, Edge{Left: left, Right: right, Parent: parent, Child: child})
}

// AddMigration appends a migration row.
func (c *Collection) AddMigration(left, right float64, node, source, dest int32, time float64) {
	c.Migrations = append(c.Migrations, Migration{Left: left, Right: right, Node: node, Source: source, Dest: dest, Time: time})
}

// AddPopulation appends a population row and returns its dense id.
func (c *Collection) AddPopulation(metadata []byte) int32 {
	c.Populations = append(c.Populations, PopulationRow{Metadata: metadata})
	return int32(len(c.Populations) - 1)
}

// AddProvenance appends a provenance row.
func (c *Collection) AddProvenance(timestamp, record string) {
	c.Provenances = append(c.Provenances, Provenance{Timestamp: timestamp, Record: record})
}

// FindOrAddSite returns the id of the site at position, creating one
// with the given ancestral state if none exists yet (spec.md §4.7: "a
// site is created if none exists there").
func (c *Collection) FindOrAddSite(position float64, ancestralState string) int32 {
	for i, s := range c.Sites {
		if s.Position == position {
			return int32(i)
		}
	}
	c.Sites = append(c.Sites, Site{Position: position, AncestralState: ancestralState})
	return int32(len(c.Sites) - 1)
}

// AddMutation appends a mutation row.
func (c *Collection) AddMutation(site, node, parent int32, derivedState string, time float64, metadata []byte) int32 {
	c.Mutations = append(c.Mutations, Mutation{Site: site, Node: node, Parent: parent, DerivedState: derivedState, Time: time, Metadata: metadata})
	return int32(len(c.Mutations) - 1)
}

// SortEdges sorts the edge table by (time[parent], parent, child, left),
// the order spec.md §4.6 requires on finalisation.
func (c *Collection) SortEdges() {
	sort.SliceStable(c.Edges, func(i, j int) bool {
		a, b := c.Edges[i], c.Edges[j]
		ta, tb := c.Nodes[a.Parent].Time, c.Nodes[b.Parent].Time
		if ta != tb {
			return ta < tb
		}
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		if a.Child != b.Child {
			return a.Child < b.Child
		}
		return a.Left < b.Left
	})
}

// CheckIntegrity validates the universal invariants of spec.md §8:
// edges satisfy time[parent] > time[child] and 0 <= left < right <=
// sequence_length, and no two edges sharing (parent, child) overlap.
func (c *Collection) CheckIntegrity() error {
	for i, e := range c.Edges {
		if e.Left < 0 || e.Left >= e.Right || e.Right > c.SequenceLength {
			return fmt.Errorf("edge %d has invalid interval [%f, %f)", i, e.Left, e.Right)
		}
		if int(e.Parent) >= len(c.Nodes) || int(e.Child) >= len(c.Nodes) {
			return fmt.Errorf("edge %d references an out-of-range node", i)
		}
		if c.Nodes[e.Parent].Time <= c.Nodes[e.Child].Time {
			return fmt.Errorf("edge %d violates parent.time > child.time", i)
		}
	}
	byPair := make(map[[2]int32][]Edge)
	for _, e := range c.Edges {
		key := [2]int32{e.Parent, e.Child}
		byPair[key] = append(byPair[key], e)
	}
	for pair, edges := range byPair {
		sort.Slice(edges, func(i, j int) bool { return edges[i].Left < edges[j].Left })
		for i := 1; i < len(edges); i++ {
			if edges[i].Left < edges[i-1].Right {
				return fmt.Errorf("overlapping edges for (parent=%d, child=%d)", pair[0], pair[1])
			}
		}
	}
	return nil
}

// Dict is the packed-column representation of AsDict/FromDict: each
// table is a mapping from column name to a flat array, with
// variable-length columns split into a data array plus a monotone
// offset column of length num_rows+1 (spec.md §6).
type Dict struct {
	SequenceLength float64

	Nodes struct {
		Flags      []uint32
		Time       []float64
		Population []int32
		Individual []int32
		Metadata   []byte
		MetadataOffset []uint32
	}
	Edges struct {
		Left, Right    []float64
		Parent, Child  []int32
	}
	Migrations struct {
		Left, Right []float64
		Node        []int32
		Source      []int32
		Dest        []int32
		Time        []float64
	}
	Sites struct {
		Position           []float64
		AncestralState     []byte
		AncestralStateOffset []uint32
		Metadata             []byte
		MetadataOffset       []uint32
	}
	Mutations struct {
		Site, Node, Parent   []int32
		DerivedState         []byte
		DerivedStateOffset   []uint32
		Time                 []float64
		Metadata             []byte
		MetadataOffset       []uint32
	}
	Populations struct {
		Metadata       []byte
		MetadataOffset []uint32
	}
}

// packStrings flattens a slice of strings into a data array plus a
// monotone offset column of length len(ss)+1, per spec.md §6's
// dictionary-encoding contract.
func packStrings(ss []string) ([]byte, []uint32) {
	offsets := make([]uint32, len(ss)+1)
	var data []byte
	for i, s := range ss {
		data = append(data, s...)
		offsets[i+1] = uint32(len(data))
	}
	return data, offsets
}

func unpackStrings(data []byte, offsets []uint32) []string {
	if len(offsets) == 0 {
		return nil
	}
	ss := make([]string, len(offsets)-1)
	for i := range ss {
		ss[i] = string(data[offsets[i]:offsets[i+1]])
	}
	return ss
}

// AsDict encodes the collection into its packed-column representation.
func (c *Collection) AsDict() *Dict {
	d := &Dict{SequenceLength: c.SequenceLength}

	d.Nodes.Flags = make([]uint32, len(c.Nodes))
	d.Nodes.Time = make([]float64, len(c.Nodes))
	d.Nodes.Population = make([]int32, len(c.Nodes))
	d.Nodes.Individual = make([]int32, len(c.Nodes))
	d.Nodes.MetadataOffset = make([]uint32, len(c.Nodes)+1)
	for i, n := range c.Nodes {
		d.Nodes.Flags[i] = n.Flags
		d.Nodes.Time[i] = n.Time
		d.Nodes.Population[i] = n.Population
		d.Nodes.Individual[i] = n.Individual
		d.Nodes.Metadata = append(d.Nodes.Metadata, n.Metadata...)
		d.Nodes.MetadataOffset[i+1] = uint32(len(d.Nodes.Metadata))
	}

	d.Edges.Left = make([]float64, len(c.Edges))
	d.Edges.Right = make([]float64, len(c.Edges))
	d.Edges.Parent = make([]int32, len(c.Edges))
	d.Edges.Child = make([]int32, len(c.Edges))
	for i, e := range c.Edges {
		d.Edges.Left[i], d.Edges.Right[i] = e.Left, e.Right
		d.Edges.Parent[i], d.Edges.Child[i] = e.Parent, e.Child
	}

	d.Migrations.Left = make([]float64, len(c.Migrations))
	d.Migrations.Right = make([]float64, len(c.Migrations))
	d.Migrations.Node = make([]int32, len(c.Migrations))
	d.Migrations.Source = make([]int32, len(c.Migrations))
	d.Migrations.Dest = make([]int32, len(c.Migrations))
	d.Migrations.Time = make([]float64, len(c.Migrations))
	for i, m := range c.Migrations {
		d.Migrations.Left[i], d.Migrations.Right[i] = m.Left, m.Right
		d.Migrations.Node[i] = m.Node
		d.Migrations.Source[i], d.Migrations.Dest[i] = m.Source, m.Dest
		d.Migrations.Time[i] = m.Time
	}

	d.Sites.Position = make([]float64, len(c.Sites))
	states := make([]string, len(c.Sites))
	siteMeta := make([]string, len(c.Sites))
	for i, s := range c.Sites {
		d.Sites.Position[i] = s.Position
		states[i] = s.AncestralState
		siteMeta[i] = string(s.Metadata)
	}
	d.Sites.AncestralState, d.Sites.AncestralStateOffset = packStrings(states)
	d.Sites.Metadata, d.Sites.MetadataOffset = packStrings(siteMeta)

	d.Mutations.Site = make([]int32, len(c.Mutations))
	d.Mutations.Node = make([]int32, len(c.Mutations))
	d.Mutations.Parent = make([]int32, len(c.Mutations))
	d.Mutations.Time = make([]float64, len(c.Mutations))
	derived := make([]string, len(c.Mutations))
	mutMeta := make([]string, len(c.Mutations))
	for i, m := range c.Mutations {
		d.Mutations.Site[i] = m.Site
		d.Mutations.Node[i] = m.Node
		d.Mutations.Parent[i] = m.Parent
		d.Mutations.Time[i] = m.Time
		derived[i] = m.DerivedState
		mutMeta[i] = string(m.Metadata)
	}
	d.Mutations.DerivedState, d.Mutations.DerivedStateOffset = packStrings(derived)
	d.Mutations.Metadata, d.Mutations.MetadataOffset = packStrings(mutMeta)

	d.Populations.MetadataOffset = make([]uint32, len(c.Populations)+1)
	for i, p := range c.Populations {
		d.Populations.Metadata = append(d.Populations.Metadata, p.Metadata...)
		d.Populations.MetadataOffset[i+1] = uint32(len(d.Populations.Metadata))
	}

	return d
}

// FromDict decodes a Dict back into a Collection. Round-tripping through
// AsDict/FromDict must reproduce the original collection byte-for-byte
// (spec.md §8 property 9); Individuals and Provenances, carrying no
// columnar encoding here, round-trip by direct copy.
func FromDict(d *Dict, individuals []Individual, provenances []Provenance) *Collection {
	c := &Collection{SequenceLength: d.SequenceLength}

	c.Nodes = make([]Node, len(d.Nodes.Flags))
	for i := range c.Nodes {
		c.Nodes[i] = Node{
			Flags:      d.Nodes.Flags[i],
			Time:       d.Nodes.Time[i],
			Population: d.Nodes.Population[i],
			Individual: d.Nodes.Individual[i],
			Metadata:   append([]byte(nil), d.Nodes.Metadata[d.Nodes.MetadataOffset[i]:d.Nodes.MetadataOffset[i+1]]...),
		}
	}

	c.Edges = make([]Edge, len(d.Edges.Left))
	for i := range c.Edges {
		c.Edges[i] = Edge{Left: d.Edges.Left[i], Right: d.Edges.Right[i], Parent: d.Edges.Parent[i], Child: d.Edges.Child[i]}
	}

	c.Migrations = make([]Migration, len(d.Migrations.Left))
	for i := range c.Migrations {
		c.Migrations[i] = Migration{
			Left: d.Migrations.Left[i], Right: d.Migrations.Right[i],
			Node: d.Migrations.Node[i], Source: d.Migrations.Source[i], Dest: d.Migrations.Dest[i],
			Time: d.Migrations.Time[i],
		}
	}

	states := unpackStrings(d.Sites.AncestralState, d.Sites.AncestralStateOffset)
	siteMeta := unpackStrings(d.Sites.Metadata, d.Sites.MetadataOffset)
	c.Sites = make([]Site, len(d.Sites.Position))
	for i := range c.Sites {
		c.Sites[i] = Site{Position: d.Sites.Position[i], AncestralState: states[i], Metadata: append([]byte(nil), siteMeta[i]...)}
	}

	derived := unpackStrings(d.Mutations.DerivedState, d.Mutations.DerivedStateOffset)
	mutMeta := unpackStrings(d.Mutations.Metadata, d.Mutations.MetadataOffset)
	c.Mutations = make([]Mutation, len(d.Mutations.Site))
	for i := range c.Mutations {
		c.Mutations[i] = Mutation{
			Site: d.Mutations.Site[i], Node: d.Mutations.Node[i], Parent: d.Mutations.Parent[i],
			DerivedState: derived[i], Time: d.Mutations.Time[i],
			Metadata: append([]byte(nil), mutMeta[i]...),
		}
	}

	c.Populations = make([]PopulationRow, 0)
	if n := len(d.Populations.MetadataOffset); n > 1 {
		c.Populations = make([]PopulationRow, n-1)
		for i := range c.Populations {
			c.Populations[i] = PopulationRow{
				Metadata: append([]byte(nil), d.Populations.Metadata[d.Populations.MetadataOffset[i]:d.Populations.MetadataOffset[i+1]]...),
			}
		}
	}

	c.Individuals = append([]Individual(nil), individuals...)
	c.Provenances = append([]Provenance(nil), provenances...)
	return c
}
