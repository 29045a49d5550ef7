package coalesce

import (
	"math"
	"sort"
)

// populationState records whether a population has held lineages.
// Supplemented from original_source/_msprimemodule.c (MSP_POP_STATE_*):
// AddLineage marks a population active. No scheduler code reads the
// state, and popPreviouslyActive is never assigned; a population with no
// lineages has zero coalescence and migration rates, so it never
// originates an event (see SPEC_FULL.md §4).
type populationState int

const (
	popInactive populationState = iota
	popActive
	popPreviouslyActive
)

// Population holds the demographic parameters of one population
// (spec.md §3): initial_size, growth_rate, and the start time of its
// current growth-rate epoch. Effective size at time t is
// initial_size * exp(-growth_rate*(t - StartTime)).
type Population struct {
	InitialSize float64
	GrowthRate  float64
	StartTime   float64
	state       populationState
}

// EffectiveSize returns N(t) per spec.md §3.
func (p *Population) EffectiveSize(t float64) float64 {
	return p.InitialSize * math.Exp(-p.GrowthRate*(t-p.StartTime))
}

// lineageSet is an ordered collection of lineages for one (population,
// label) pair, keyed by head-segment left position (spec.md §3). A plain
// sorted slice stands in for the spec's AVL tree: correctness only
// requires an ordered set with efficient membership test and arbitrary
// removal, and the simulator never needs worst-case logarithmic bounds
// to be bit-exact, just consistent ordering for reproducibility.
type lineageSet struct {
	lineages []*Lineage
}

func (s *lineageSet) insert(l *Lineage) {
	i := sort.Search(len(s.lineages), func(i int) bool { return s.lineages[i].Left() > l.Left() })
	s.lineages = append(s.lineages, nil)
	copy(s.lineages[i+1:], s.lineages[i:])
	s.lineages[i] = l
}

func (s *lineageSet) remove(l *Lineage) {
	for i, x := range s.lineages {
		if x == l {
			s.lineages = append(s.lineages[:i], s.lineages[i+1:]...)
			return
		}
	}
}

func (s *lineageSet) size() int { return len(s.lineages) }

// PopulationState is component D: the set of extant lineages per
// (population, label), backed by a segment arena and a global Fenwick
// tree keyed by segment id holding recombinable mass (spec.md §3).
type PopulationState struct {
	Populations []*Population
	numLabels   int
	sets        [][]*lineageSet // [population][label]
	arena       *segmentArena
	fenwick     *FenwickTree
	recombMap   *RecombinationMap
	geneConvMap *IntervalMap
}

// NewPopulationState builds the per-population lineage index over the
// given populations and number of coalescent-model labels (almost always
// 1; the sweep model uses 2 for beneficial/wild-type).
func NewPopulationState(pops []*Population, numLabels int, recombMap *RecombinationMap, geneConvMap *IntervalMap, blockSize, maxBlocks int) *PopulationState {
	sets := make([][]*lineageSet, len(pops))
	for i := range sets {
		sets[i] = make([]*lineageSet, numLabels)
		for j := range sets[i] {
			sets[i][j] = &lineageSet{}
		}
	}
	return &PopulationState{
		Populations: pops,
		numLabels:   numLabels,
		sets:        sets,
		arena:       newSegmentArena(blockSize, maxBlocks),
		fenwick:     NewFenwickTree(blockSize),
		recombMap:   recombMap,
		geneConvMap: geneConvMap,
	}
}

// AllocSegment draws a fresh segment from the arena, growing the Fenwick
// tree in step if the arena extended its block pool.
func (ps *PopulationState) AllocSegment(left, right float64, value, population, label int) (*Segment, error) {
	s, newCap, err := ps.arena.Alloc()
	if err != nil {
		return nil, err
	}
	if newCap > 0 {
		ps.fenwick.Grow(newCap)
	}
	s.Left, s.Right, s.Value, s.Population, s.Label = left, right, value, population, label
	return s, nil
}

// FreeSegment returns a segment to the arena and clears its Fenwick
// contribution.
func (ps *PopulationState) FreeSegment(s *Segment) {
	ps.fenwick.Remove(s.ID())
	ps.arena.Free(s)
}

// AddLineage inserts a lineage into the (population, label) index and
// (re)computes every segment's Fenwick contribution.
func (ps *PopulationState) AddLineage(l *Lineage, population, label int) {
	ps.sets[population][label].insert(l)
	ps.refreshFenwick(l)
	ps.Populations[population].state = popActive
}

// RemoveLineage deletes a lineage from the index without touching its
// segments (callers free or repurpose segments separately).
func (ps *PopulationState) RemoveLineage(l *Lineage, population, label int) {
	ps.sets[population][label].remove(l)
}

// refreshFenwick recomputes the recombinable mass of every segment in
// the chain. Called whenever a chain's segment boundaries change.
func (ps *PopulationState) refreshFenwick(l *Lineage) {
	for s := l.Head; s != nil; s = s.Next {
		mass := recombinableMass(ps.recombMap, s, s.Next == nil)
		ps.fenwick.Set(s.ID(), mass)
	}
}

// NumLineages returns the number of extant lineages in (population,
// label).
func (ps *PopulationState) NumLineages(population, label int) int {
	return ps.sets[population][label].size()
}

// TotalLineages sums NumLineages across every population for a label.
func (ps *PopulationState) TotalLineages(label int) int {
	total := 0
	for p := range ps.sets {
		total += ps.sets[p][label].size()
	}
	return total
}

// PickLineage returns a uniformly chosen lineage from (population,
// label), and its index in the set for O(1) removal by callers that
// already have the index.
func (ps *PopulationState) PickLineage(population, label int, rng *RNG) (*Lineage, int) {
	set := ps.sets[population][label]
	if len(set.lineages) == 0 {
		return nil, -1
	}
	i := rng.UniformInt(len(set.lineages))
	return set.lineages[i], i
}

// PickTwoDistinctLineages returns two distinct uniformly chosen lineages
// from (population, label), used by Hudson-style binary coalescence.
func (ps *PopulationState) PickTwoDistinctLineages(population, label int, rng *RNG) (*Lineage, *Lineage) {
	set := ps.sets[population][label]
	n := len(set.lineages)
	if n < 2 {
		return nil, nil
	}
	i := rng.UniformInt(n)
	j := rng.UniformInt(n - 1)
	if j >= i {
		j++
	}
	return set.lineages[i], set.lineages[j]
}

// RemoveAt removes the lineage at set index i in (population, label),
// shifting the tail down (O(n) in the set size).
func (ps *PopulationState) RemoveAt(population, label, i int) *Lineage {
	set := ps.sets[population][label]
	l := set.lineages[i]
	set.lineages = append(set.lineages[:i], set.lineages[i+1:]...)
	return l
}

// FenwickTotal returns the current total recombination-rate multiplier:
// the sum of every tracked segment's recombinable mass (spec.md §3, and
// the invariant checked in property 6 of spec.md §8).
func (ps *PopulationState) FenwickTotal() float64 {
	return ps.fenwick.Total()
}

// SampleSegmentByMass draws a segment proportional to its Fenwick-tracked
// recombinable mass, used by recombination and gene-conversion event
// application (spec.md §4.5).
func (ps *PopulationState) SampleSegmentByMass(rng *RNG) int {
	total := ps.fenwick.Total()
	if total <= 0 {
		return -1
	}
	target := rng.UniformFloat(0, total)
	return ps.fenwick.Find(target)
}

// SegmentByID recovers the *Segment owning a dense arena id, used to
// turn a Fenwick sampling hit back into the segment it names.
func (ps *PopulationState) SegmentByID(id int) *Segment {
	return ps.arena.segmentByID(id)
}

// LineageOf returns the lineage owning segment s and its (population,
// label), by scanning the index for the chain whose head reaches s.
// Used after a Fenwick hit to find which lineage must be split.
func (ps *PopulationState) LineageOf(s *Segment) (*Lineage, int) {
	set := ps.sets[s.Population][s.Label]
	for i, l := range set.lineages {
		for cur := l.Head; cur != nil; cur = cur.Next {
			if cur == s {
				return l, i
			}
		}
	}
	return nil, -1
}

// AllLineages iterates every lineage across every (population, label),
// used by invariant checks and census events.
func (ps *PopulationState) AllLineages(fn func(population, label int, l *Lineage)) {
	for p, perPop := range ps.sets {
		for lab, set := range perPop {
			for _, l := range set.lineages {
				fn(p, lab, l)
			}
		}
	}
}

// Fully coalesced reports whether every point of [0, L) now has a single
// ancestor: exactly one lineage remains across all populations/labels
// and that lineage has exactly one segment spanning [0, L).
func (ps *PopulationState) FullyCoalesced() bool {
	var only *Lineage
	count := 0
	ps.AllLineages(func(_, _ int, l *Lineage) {
		count++
		only = l
	})
	if count != 1 {
		return false
	}
	return only.NumSegments() == 1 && only.Head.Left == 0 && only.Head.Right == ps.recombMap.L()
}
