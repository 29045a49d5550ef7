package coalesce

import "testing"

func newTestPopulationState(t *testing.T) *PopulationState {
	t.Helper()
	pops := []*Population{{InitialSize: 10}}
	recombMap, err := NewRecombinationMap([]float64{0, 10}, []float64{0.1}, false)
	if err != nil {
		t.Fatal(err)
	}
	geneConvMap, err := NewIntervalMap([]float64{0, 10}, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	return NewPopulationState(pops, 1, recombMap, geneConvMap, 16, 0)
}

// TestPopulationState_FenwickMatchesSegmentMasses checks spec.md §8
// property 6: the Fenwick tree's total must equal the sum of every
// internal segment's recombinable mass.
func TestPopulationState_FenwickMatchesSegmentMasses(t *testing.T) {
	ps := newTestPopulationState(t)
	s1, err := ps.AllocSegment(0, 4, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := ps.AllocSegment(4, 10, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	s1.Next = s2
	s2.Prev = s1
	l := &Lineage{Head: s1}
	ps.AddLineage(l, 0, 0)

	want := recombinableMass(ps.recombMap, s1, false) + recombinableMass(ps.recombMap, s2, true)
	if got := ps.FenwickTotal(); got != want {
		t.Errorf("expected Fenwick total %f to match summed segment masses, instead got %f", want, got)
	}
}

// TestPopulationState_SegmentInvariants checks spec.md §8 properties 1
// and 2 on a hand-built chain: adjacent segments never overlap, and
// every segment lies within [0, L).
func TestPopulationState_SegmentInvariants(t *testing.T) {
	ps := newTestPopulationState(t)
	s1, _ := ps.AllocSegment(0, 3, 0, 0, 0)
	s2, _ := ps.AllocSegment(3, 7, 0, 0, 0)
	s3, _ := ps.AllocSegment(7, 10, 0, 0, 0)
	s1.Next, s2.Prev = s2, s1
	s2.Next, s3.Prev = s3, s2

	for s := s1; s != nil; s = s.Next {
		if s.Left < 0 || s.Right > 10 || s.Left >= s.Right {
			t.Errorf("segment [%f, %f) violates the [0, L) invariant", s.Left, s.Right)
		}
		if s.Next != nil && s.Right > s.Next.Left {
			t.Errorf("segment [%f, %f) overlaps its successor [%f, %f)", s.Left, s.Right, s.Next.Left, s.Next.Right)
		}
	}
}

func TestPopulationState_PickTwoDistinctLineages(t *testing.T) {
	ps := newTestPopulationState(t)
	for i := 0; i < 4; i++ {
		seg, err := ps.AllocSegment(0, 10, i, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		ps.AddLineage(&Lineage{Head: seg}, 0, 0)
	}
	rng := NewRNG(2)
	for i := 0; i < 20; i++ {
		a, b := ps.PickTwoDistinctLineages(0, 0, rng)
		if a == nil || b == nil || a == b {
			t.Fatalf("expected two distinct lineages, instead got %v and %v", a, b)
		}
	}
}

func TestPopulationState_FullyCoalesced(t *testing.T) {
	ps := newTestPopulationState(t)
	seg, err := ps.AllocSegment(0, 10, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	ps.AddLineage(&Lineage{Head: seg}, 0, 0)
	if !ps.FullyCoalesced() {
		t.Error("expected a single lineage spanning [0, L) to report fully coalesced")
	}

	seg2, _ := ps.AllocSegment(0, 10, 1, 0, 0)
	ps.AddLineage(&Lineage{Head: seg2}, 0, 0)
	if ps.FullyCoalesced() {
		t.Error("expected two extant lineages to not be fully coalesced")
	}
}
