package coalesce

import "testing"

func TestHudsonModel_CoalescenceRate(t *testing.T) {
	m := NewHudsonModel(1)
	if got := m.CoalescenceRate(0, 1, 1, 0); got != 0 {
		t.Errorf("expected zero rate with fewer than 2 lineages, instead got %f", got)
	}
	// k=3, N=1: 3*2/4 = 1.5
	if got := m.CoalescenceRate(0, 3, 1, 0); got != 1.5 {
		t.Errorf("expected rate 1.5 for k=3, N=1, instead got %f", got)
	}
}

func TestNewDiracModel_ValidatesParameters(t *testing.T) {
	if _, err := NewDiracModel(1, 0, 0.1); err == nil {
		t.Error("expected an error for psi == 0, instead got none")
	}
	if _, err := NewDiracModel(1, 1, 0.1); err == nil {
		t.Error("expected an error for psi == 1, instead got none")
	}
	if _, err := NewDiracModel(1, 0.5, -1); err == nil {
		t.Error("expected an error for c < 0, instead got none")
	}
	if _, err := NewDiracModel(1, 0.5, 0.1); err != nil {
		t.Errorf("expected valid parameters to construct a model, instead got: %v", err)
	}
}

func TestNewBetaModel_ValidatesParameters(t *testing.T) {
	if _, err := NewBetaModel(1, 1.0, 1.0); err == nil {
		t.Error("expected an error for alpha at the lower bound (must be > 1), instead got none")
	}
	if _, err := NewBetaModel(1, 2.0, 1.0); err == nil {
		t.Error("expected an error for alpha at the upper bound (must be < 2), instead got none")
	}
	if _, err := NewBetaModel(1, 1.5, 0); err == nil {
		t.Error("expected an error for truncation_point <= 0, instead got none")
	}
	if _, err := NewBetaModel(1, 1.5, 0.5); err != nil {
		t.Errorf("expected valid parameters to construct a model, instead got: %v", err)
	}
}

func TestNewSweepModel_ValidatesFrequencyBounds(t *testing.T) {
	if _, err := NewSweepModel(1, 0.5, 0, 0.9, 100, 0.01); err == nil {
		t.Error("expected an error for start_frequency == 0, instead got none")
	}
	if _, err := NewSweepModel(1, 0.5, 0.001, 1.0, 100, 0.01); err == nil {
		t.Error("expected an error for end_frequency == 1, instead got none")
	}
	m, err := NewSweepModel(1, 0.5, 0.001, 0.999, 100, 0.01)
	if err != nil {
		t.Fatalf("expected valid sweep parameters to construct a model, instead got: %v", err)
	}
	if m.NumLabels() != 2 {
		t.Errorf("expected the sweep model to use 2 labels (beneficial/wild-type), instead got %d", m.NumLabels())
	}
}

func TestDTWFModel_Kind(t *testing.T) {
	m := NewDTWFModel(10)
	if m.Kind() != KindDiscrete {
		t.Errorf("expected the dtwf model to report KindDiscrete, instead got %v", m.Kind())
	}
}

func TestDiracModel_SampleMergerReturnsAtLeastTwo(t *testing.T) {
	pops := []*Population{{InitialSize: 10}}
	recombMap, _ := NewRecombinationMap([]float64{0, 1}, []float64{0}, false)
	geneConvMap, _ := NewIntervalMap([]float64{0, 1}, []float64{0})
	ps := NewPopulationState(pops, 1, recombMap, geneConvMap, 64, 0)

	for i := 0; i < 5; i++ {
		seg, err := ps.AllocSegment(0, 1, i, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		ps.AddLineage(&Lineage{Head: seg}, 0, 0)
	}

	m, err := NewDiracModel(10, 0.5, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	rng := NewRNG(3)
	for i := 0; i < 20; i++ {
		merger := m.SampleMerger(0, 0, ps, rng)
		if len(merger) < 2 {
			t.Fatalf("expected a merger of at least 2 lineages, instead got %d", len(merger))
		}
	}
}
