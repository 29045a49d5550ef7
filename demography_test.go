package coalesce

import (
	"math"
	"testing"
)

func TestMigrationMatrix_DiagonalIgnored(t *testing.T) {
	m, err := NewMigrationMatrix([][]float64{{5, 0.1}, {0.2, -3}})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Rate(0, 0); got != 0 {
		t.Errorf("expected diagonal rate 0 regardless of input, instead got %f", got)
	}
	if got := m.Rate(0, 1); got != 0.1 {
		t.Errorf("expected rate[0][1] = 0.1, instead got %f", got)
	}
}

func TestMigrationMatrix_RejectsNegativeOffDiagonal(t *testing.T) {
	if _, err := NewMigrationMatrix([][]float64{{0, -0.1}, {0.2, 0}}); err == nil {
		t.Error("expected an error for a negative off-diagonal rate, instead got none")
	}
}

func TestMigrationMatrix_SetRate(t *testing.T) {
	m, err := NewMigrationMatrix([][]float64{{0, 0}, {0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	m.SetRate(0, 1, 0.5)
	if got := m.Rate(0, 1); got != 0.5 {
		t.Errorf("expected updated rate 0.5, instead got %f", got)
	}
}

// TestDemography_EventOrdering checks spec.md §5: events at the same
// time are totally ordered by insertion order into the queue.
func TestDemography_EventOrdering(t *testing.T) {
	mm, _ := NewMigrationMatrix([][]float64{{0}})
	d := NewDemography(mm)
	first := &DemographicEvent{Time: 5, Kind: EventCensus}
	second := &DemographicEvent{Time: 5, Kind: EventCensus}
	third := &DemographicEvent{Time: 1, Kind: EventCensus}
	d.AddEvent(first)
	d.AddEvent(second)
	d.AddEvent(third)

	if got := d.PopEvent(); got != third {
		t.Error("expected the earlier-time event to pop first")
	}
	if got := d.PopEvent(); got != first {
		t.Error("expected ties broken by insertion order (first inserted pops first)")
	}
	if got := d.PopEvent(); got != second {
		t.Error("expected the second same-time event to pop last")
	}
}

func TestDemography_NextEventTimeInfiniteWhenEmpty(t *testing.T) {
	mm, _ := NewMigrationMatrix([][]float64{{0}})
	d := NewDemography(mm)
	if got := d.NextEventTime(); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf for an empty queue, instead got %f", got)
	}
}

func TestPopulation_EffectiveSize(t *testing.T) {
	p := &Population{InitialSize: 100, GrowthRate: 0.1, StartTime: 0}
	if got := p.EffectiveSize(0); got != 100 {
		t.Errorf("expected effective size 100 at t=0, instead got %f", got)
	}
	expected := 100 * math.Exp(-0.1*10)
	if got := p.EffectiveSize(10); math.Abs(got-expected) > 1e-9 {
		t.Errorf("expected effective size %f at t=10, instead got %f", expected, got)
	}
}
