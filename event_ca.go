package coalesce

import (
	"sort"

	"github.com/kentwait/coalesce/tables"
)

// applyCoalescenceEvent asks the model to pick the colliding lineages
// for (population, label) and merges them into one.
func (sch *Scheduler) applyCoalescenceEvent(population, label int) error {
	lineages := sch.Model.SampleMerger(population, label, sch.PS, sch.RNG)
	if len(lineages) < 2 {
		return nil
	}
	return sch.mergeLineages(population, label, lineages)
}

// mergeLineages implements the common-ancestor event application
// (spec.md §4.5): walk every input chain in left-to-right order; on an
// elementary interval where two or more chains carry ancestral
// material, coalesce them into a single new node (created once, lazily,
// on the first such interval) and emit an edge per contributing child;
// on an interval carried by exactly one chain, pass its segment through
// unchanged with no new node. SMC/SMC' additionally drop or trap
// segments that have lost all ancestral material elsewhere in the
// population (MergeVariant).
func (sch *Scheduler) mergeLineages(population, label int, lineages []*Lineage) error {
	for _, l := range lineages {
		sch.PS.RemoveLineage(l, population, label)
	}

	breakpoints := collectBreakpoints(lineages)
	var newNodeID int32 = -1
	coalesced := false

	type mergedInterval struct {
		left, right float64
		value       int
		overlap     bool
	}
	var merged []mergedInterval

	for i := 0; i+1 < len(breakpoints); i++ {
		lo, hi := breakpoints[i], breakpoints[i+1]
		var contributors []*Segment
		for _, l := range lineages {
			if s := segmentCovering(l, lo); s != nil {
				contributors = append(contributors, s)
			}
		}
		switch len(contributors) {
		case 0:
			continue
		case 1:
			merged = append(merged, mergedInterval{lo, hi, contributors[0].Value, false})
		default:
			if newNodeID == -1 {
				newNodeID = sch.Recorder.AddNode(tables.FlagIsCAEvent, sch.Time, int32(population), -1)
				coalesced = true
			}
			for _, c := range contributors {
				sch.Recorder.AddEdge(lo, hi, newNodeID, int32(c.Value))
			}
			merged = append(merged, mergedInterval{lo, hi, int(newNodeID), true})
		}
	}

	if coalesced {
		sch.Counters.CAEvents++
	} else {
		sch.Counters.RejectedCAEvents++
	}

	// Free the segments of every input lineage now that the merged
	// intervals have been read off.
	for _, l := range lineages {
		for s := l.Head; s != nil; {
			next := s.Next
			sch.PS.FreeSegment(s)
			s = next
		}
	}

	if len(merged) == 0 {
		return nil
	}

	// Determine, per overlap interval, whether any *other* extant
	// lineage in (population, label) still carries material there; if
	// not, the interval has reached its whole-genome MRCA.
	fullyCoalesced := make([]bool, len(merged))
	for i, m := range merged {
		if !m.overlap {
			continue
		}
		fullyCoalesced[i] = !sch.anyOtherLineageCovers(population, label, m.left, m.right)
	}

	var kept []mergedInterval
	var trapped []bool
	for i, m := range merged {
		if m.overlap && fullyCoalesced[i] && sch.Model.MergeVariant() == MergeSMC {
			continue // dropped: no further use for this fully-coalesced material
		}
		kept = append(kept, m)
		trapped = append(trapped, m.overlap && fullyCoalesced[i] && sch.Model.MergeVariant() == MergeSMCPrime)
	}
	if len(kept) == 0 {
		return nil
	}

	// Coalesce adjacent kept intervals sharing the same value and
	// trapped status into single segments.
	var segs []*Segment
	var segTrapped []bool
	i := 0
	for i < len(kept) {
		j := i + 1
		for j < len(kept) && kept[j].value == kept[i].value && kept[j].left == kept[j-1].right && trapped[j] == trapped[i] {
			j++
		}
		seg, err := sch.PS.AllocSegment(kept[i].left, kept[j-1].right, kept[i].value, population, label)
		if err != nil {
			return err
		}
		segs = append(segs, seg)
		segTrapped = append(segTrapped, trapped[i])
		i = j
	}

	for k := 1; k < len(segs); k++ {
		segs[k-1].Next = segs[k]
		segs[k].Prev = segs[k-1]
	}
	newLineage := &Lineage{Head: segs[0]}
	sch.PS.AddLineage(newLineage, population, label)

	for k, s := range segs {
		if segTrapped[k] {
			sch.PS.fenwick.Set(s.ID(), 0)
		}
	}
	return nil
}

// collectBreakpoints returns the sorted, deduplicated set of every
// segment boundary across the given lineages, the elementary-interval
// partition the merge sweep walks.
func collectBreakpoints(lineages []*Lineage) []float64 {
	var pts []float64
	for _, l := range lineages {
		for s := l.Head; s != nil; s = s.Next {
			pts = append(pts, s.Left, s.Right)
		}
	}
	sort.Float64s(pts)
	out := pts[:0:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			out = append(out, p)
		}
	}
	return out
}

// segmentCovering returns the segment of l containing position x, or
// nil if l has no ancestral material there.
func segmentCovering(l *Lineage, x float64) *Segment {
	for s := l.Head; s != nil; s = s.Next {
		if s.Left <= x && x < s.Right {
			return s
		}
		if s.Left > x {
			break
		}
	}
	return nil
}

// anyOtherLineageCovers reports whether some extant lineage currently
// indexed under (population, label) carries ancestral material
// anywhere in [left, right), used to decide whether an overlap
// interval has reached its whole-genome MRCA (SMC/SMC' semantics).
func (sch *Scheduler) anyOtherLineageCovers(population, label int, left, right float64) bool {
	found := false
	set := sch.PS.sets[population][label]
	for _, l := range set.lineages {
		for s := l.Head; s != nil; s = s.Next {
			if s.Left < right && left < s.Right {
				found = true
				return found
			}
		}
	}
	return found
}
