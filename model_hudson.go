package coalesce

// HudsonModel is the classical continuous-time coalescent (spec.md
// §4.4): in a population with k extant lineages and effective size N(t),
// the coalescence rate is k*(k-1)/(4*N(t)); on event, two lineages are
// picked uniformly and merged.
type HudsonModel struct {
	refSize float64
}

// NewHudsonModel creates a Hudson model with the given reference_size
// (spec.md §6).
func NewHudsonModel(refSize float64) *HudsonModel { return &HudsonModel{refSize: refSize} }

func (m *HudsonModel) Name() string            { return "hudson" }
func (m *HudsonModel) Kind() ModelKind          { return KindContinuous }
func (m *HudsonModel) ReferenceSize() float64   { return m.refSize }
func (m *HudsonModel) NumLabels() int           { return 1 }
func (m *HudsonModel) MergeVariant() MergeVariant { return MergeHudson }

// CoalescenceRate implements spec.md §4.4's Hudson rate k(k-1)/(4N(t)).
func (m *HudsonModel) CoalescenceRate(t float64, k int, N float64, label int) float64 {
	if k < 2 || N <= 0 {
		return 0
	}
	return float64(k*(k-1)) / (4 * N)
}

// SampleMerger picks two lineages uniformly, per spec.md §4.4.
func (m *HudsonModel) SampleMerger(population, label int, ps *PopulationState, rng *RNG) []*Lineage {
	a, b := ps.PickTwoDistinctLineages(population, label, rng)
	if a == nil {
		return nil
	}
	return []*Lineage{a, b}
}

// SMCModel is the Hudson variant that drops, rather than retains,
// segments that overlap in time but leave no surviving descendant
// material after a merge (spec.md §4.4).
type SMCModel struct {
	HudsonModel
}

// NewSMCModel creates an SMC model with the given reference_size.
func NewSMCModel(refSize float64) *SMCModel { return &SMCModel{HudsonModel{refSize: refSize}} }

func (m *SMCModel) Name() string              { return "smc" }
func (m *SMCModel) MergeVariant() MergeVariant { return MergeSMC }

// SMCPrimeModel is the Hudson variant that retains such segments but
// never lets them re-coalesce as independent lineages (spec.md §4.4).
type SMCPrimeModel struct {
	HudsonModel
}

// NewSMCPrimeModel creates an SMC' model with the given reference_size.
func NewSMCPrimeModel(refSize float64) *SMCPrimeModel {
	return &SMCPrimeModel{HudsonModel{refSize: refSize}}
}

func (m *SMCPrimeModel) Name() string              { return "smc_prime" }
func (m *SMCPrimeModel) MergeVariant() MergeVariant { return MergeSMCPrime }
