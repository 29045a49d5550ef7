package coalesce

import (
	"testing"

	"github.com/kentwait/coalesce/tables"
)

// TestRunPedigree_CoalescesAtSharedAncestor walks a tiny diamond
// pedigree (two samples whose lineages both pass through the same pair
// of parents) to the root and checks they coalesce rather than running
// out the max-events budget.
func TestRunPedigree_CoalescesAtSharedAncestor(t *testing.T) {
	ped, err := NewPedigree([]PedigreeIndividual{
		{ID: 0, Parents: nil, Time: 2, Ploidy: 2},
		{ID: 1, Parents: []int32{0}, Time: 1, Ploidy: 2},
		{ID: 2, Parents: []int32{1}, Time: 0, IsSample: true, Ploidy: 2},
		{ID: 3, Parents: []int32{1}, Time: 0, IsSample: true, Ploidy: 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	pops := []*Population{{InitialSize: 10}}
	recombMap, _ := NewRecombinationMap([]float64{0, 1}, []float64{0}, false)
	geneConvMap, _ := NewIntervalMap([]float64{0, 1}, []float64{0})
	ps := NewPopulationState(pops, 1, recombMap, geneConvMap, 64, 0)
	tc := tables.NewCollection(1)
	rec := NewRecorder(tc, false)
	rng := NewRNG(13)

	sampleIDs, err := SeedSamples(ps, rec, 1, []SampleSpec{
		{Population: 0, Time: 0},
		{Population: 0, Time: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	model := NewWFPedigreeModel(10, ped)
	mm, _ := NewMigrationMatrix([][]float64{{0}})
	demo := NewDemography(mm)
	sch := NewScheduler(ps, model, demo, rec, rng, 1, 0, 1e6, 1000)
	sch.SeedPedigreeLineages([]int32{2, 3})

	exit, err := sch.runPedigree(1000)
	if err != nil {
		t.Fatal(err)
	}
	if exit != ExitCoalesced {
		t.Errorf("expected the two samples to coalesce through their shared parents, instead got exit code %v", exit)
	}
	if len(sampleIDs) != 2 {
		t.Fatalf("expected 2 seeded samples, instead got %d", len(sampleIDs))
	}
}
