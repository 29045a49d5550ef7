package coalesce

// DTWFModel is the discrete Wright-Fisher model (spec.md §4.4): time
// advances in unit generations; each generation every lineage
// independently picks a parent population via the migration matrix,
// lineages sharing a parent coalesce pairwise, and recombination is
// resolved per-lineage from a Poisson number of crossovers.
type DTWFModel struct {
	refSize float64
}

// NewDTWFModel creates a dtwf model with the given reference_size.
func NewDTWFModel(refSize float64) *DTWFModel { return &DTWFModel{refSize: refSize} }

func (m *DTWFModel) Name() string              { return "dtwf" }
func (m *DTWFModel) Kind() ModelKind            { return KindDiscrete }
func (m *DTWFModel) ReferenceSize() float64     { return m.refSize }
func (m *DTWFModel) NumLabels() int             { return 1 }
func (m *DTWFModel) MergeVariant() MergeVariant { return MergeHudson }

// CoalescenceRate is unused by the scheduler's discrete-generation path
// but implemented for interface uniformity; spec.md §8 property 7
// states the marginal per-generation coalescence probability is 1/N,
// which the discrete advance step reproduces directly rather than via a
// continuous rate.
func (m *DTWFModel) CoalescenceRate(t float64, k int, N float64, label int) float64 {
	if k < 2 || N <= 0 {
		return 0
	}
	return float64(k*(k-1)) / (4 * N)
}

// SampleMerger is unused by the discrete path (AdvanceGeneration resolves
// shared-parent collisions directly) but required by the interface.
func (m *DTWFModel) SampleMerger(population, label int, ps *PopulationState, rng *RNG) []*Lineage {
	a, b := ps.PickTwoDistinctLineages(population, label, rng)
	if a == nil {
		return nil
	}
	return []*Lineage{a, b}
}

// WFPedigreeModel is the fixed-pedigree Wright-Fisher model (spec.md
// §4.4): lineages walk up a caller-supplied pedigree, with each
// ancestral chromosome picking one of the ploidy parental chromosomes
// uniformly at every individual (Mendelian segregation, with
// recombination applied along the way).
type WFPedigreeModel struct {
	refSize  float64
	Pedigree *Pedigree
}

// NewWFPedigreeModel creates a wf_ped model over the given pedigree.
func NewWFPedigreeModel(refSize float64, ped *Pedigree) *WFPedigreeModel {
	return &WFPedigreeModel{refSize: refSize, Pedigree: ped}
}

func (m *WFPedigreeModel) Name() string              { return "wf_ped" }
func (m *WFPedigreeModel) Kind() ModelKind            { return KindPedigree }
func (m *WFPedigreeModel) ReferenceSize() float64     { return m.refSize }
func (m *WFPedigreeModel) NumLabels() int             { return 1 }
func (m *WFPedigreeModel) MergeVariant() MergeVariant { return MergeHudson }

func (m *WFPedigreeModel) CoalescenceRate(t float64, k int, N float64, label int) float64 { return 0 }

func (m *WFPedigreeModel) SampleMerger(population, label int, ps *PopulationState, rng *RNG) []*Lineage {
	return nil
}
