package coalesce

import "testing"

func TestSweepModel_FrequencyAtEndpoints(t *testing.T) {
	m, err := NewSweepModel(10, 0.5, 0.01, 0.99, 100, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.frequencyAt(0); got != m.EndFreq {
		t.Errorf("expected frequencyAt(0) to equal end_frequency %f, instead got %f", m.EndFreq, got)
	}
	far := m.frequencyAt(float64(len(m.trajectory)) * m.Dt * 10)
	if got := far; got != m.StartFreq {
		t.Errorf("expected frequencyAt() beyond the trajectory to clamp to start_frequency %f, instead got %f", m.StartFreq, got)
	}
}

func TestSweepModel_CoalescenceRateHigherInMinorityLabel(t *testing.T) {
	m, err := NewSweepModel(10, 0.5, 0.01, 0.99, 100, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	// At t=0, frequency is close to 0.99 (beneficial majority), so label 1
	// (wild-type, minority) should have a higher per-pair coalescence rate.
	rateBeneficial := m.CoalescenceRate(0, 4, 10, 0)
	rateWildType := m.CoalescenceRate(0, 4, 10, 1)
	if rateWildType <= rateBeneficial {
		t.Errorf("expected the minority wild-type label to coalesce faster near t=0, instead got beneficial=%f wildtype=%f", rateBeneficial, rateWildType)
	}
}

func TestSweepModel_NumLabelsIsTwo(t *testing.T) {
	m, err := NewSweepModel(10, 0.5, 0.01, 0.99, 100, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	if m.NumLabels() != 2 {
		t.Errorf("expected 2 labels (beneficial/wild-type), instead got %d", m.NumLabels())
	}
}

func TestSweepModel_SampleMergerPicksTwoDistinctLineages(t *testing.T) {
	pops := []*Population{{InitialSize: 10}}
	recombMap, _ := NewRecombinationMap([]float64{0, 1}, []float64{0}, false)
	geneConvMap, _ := NewIntervalMap([]float64{0, 1}, []float64{0})
	ps := NewPopulationState(pops, 2, recombMap, geneConvMap, 64, 0)
	for i := 0; i < 3; i++ {
		seg, err := ps.AllocSegment(0, 1, i, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		ps.AddLineage(&Lineage{Head: seg}, 0, 0)
	}

	m, err := NewSweepModel(10, 0.5, 0.01, 0.99, 100, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	rng := NewRNG(4)
	merger := m.SampleMerger(0, 0, ps, rng)
	if len(merger) != 2 || merger[0] == merger[1] {
		t.Fatalf("expected exactly two distinct lineages, instead got %v", merger)
	}
}
