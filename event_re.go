package coalesce

// applyRecombinationEvent implements recombination event application
// (spec.md §4.5): draw a segment proportional to Fenwick mass, draw a
// breakpoint in its internal range, and split the owning lineage's
// chain there into two new lineages in the same (population, label).
func (sch *Scheduler) applyRecombinationEvent() error {
	id := sch.PS.SampleSegmentByMass(sch.RNG)
	if id < 0 {
		return nil
	}
	seg := sch.PS.SegmentByID(id)
	lineage, _ := sch.PS.LineageOf(seg)
	if lineage == nil {
		return nil
	}
	position := sch.PS.recombMap.SampleBreakpointIn(sch.RNG, seg.Left, seg.Right)
	_, _, split, err := sch.splitAt(lineage, seg.Population, seg.Label, position)
	if split {
		sch.Counters.REEvents++
	}
	return err
}

// applyGeneConversionEvent implements gene-conversion application
// (spec.md §4.5): pick a start position proportional to mass, a tract
// length from a geometric distribution, and detach the enclosed
// segments into a fresh lineage by cutting twice (at the tract's start
// and end), leaving the flanks as separate lineages in the same
// (population, label).
func (sch *Scheduler) applyGeneConversionEvent() error {
	id := sch.PS.SampleSegmentByMass(sch.RNG)
	if id < 0 {
		return nil
	}
	seg := sch.PS.SegmentByID(id)
	lineage, _ := sch.PS.LineageOf(seg)
	if lineage == nil {
		return nil
	}
	start := sch.PS.recombMap.SampleBreakpointIn(sch.RNG, seg.Left, seg.Right)
	tract := float64(sch.RNG.Geometric(1 / sch.GeneConversionTrackLength))
	end := start + tract
	if end > sch.L {
		end = sch.L
	}

	_, right, split, err := sch.splitAt(lineage, seg.Population, seg.Label, start)
	if err != nil {
		return err
	}
	if split && right != nil && end < sch.L {
		if _, _, _, err := sch.splitAt(right, seg.Population, seg.Label, end); err != nil {
			return err
		}
	}
	sch.Counters.GCEvents++
	return nil
}

// splitAt splits the chain containing position into two lineages,
// re-registers both with the population index, and returns them (left,
// right). split reports whether a cut actually occurred; if position
// fell at or beyond the chain's bounds, l is returned unchanged as
// left, right is nil, split is false.
func (sch *Scheduler) splitAt(l *Lineage, population, label int, position float64) (left, right *Lineage, split bool, err error) {
	sch.PS.RemoveLineage(l, population, label)

	var cur *Segment
	for s := l.Head; s != nil; s = s.Next {
		if s.Left < position && position < s.Right {
			cur = s
			break
		}
		if s.Left >= position {
			break
		}
	}
	if cur != nil {
		rightSeg, allocErr := sch.PS.AllocSegment(position, cur.Right, cur.Value, population, label)
		if allocErr != nil {
			sch.PS.AddLineage(l, population, label)
			return l, nil, false, allocErr
		}
		rightSeg.Next = cur.Next
		if cur.Next != nil {
			cur.Next.Prev = rightSeg
		}
		cur.Right = position
		cur.Next = rightSeg
		rightSeg.Prev = cur
	}

	var splitPoint *Segment
	for s := l.Head; s != nil; s = s.Next {
		if s.Left >= position {
			splitPoint = s
			break
		}
	}

	if splitPoint == nil || splitPoint == l.Head {
		sch.PS.AddLineage(l, population, label)
		return l, nil, false, nil
	}

	before := splitPoint.Prev
	before.Next = nil
	splitPoint.Prev = nil

	leftLineage := &Lineage{Head: l.Head}
	rightLineage := &Lineage{Head: splitPoint}
	sch.PS.AddLineage(leftLineage, population, label)
	sch.PS.AddLineage(rightLineage, population, label)
	return leftLineage, rightLineage, true, nil
}
