package coalesce

// DiracModel is the Dirac Lambda-coalescent (spec.md §4.4): multiple-
// merger rate combines a Kingman-like (binary) component with a
// point-mass component at which a Binomial(k, psi) subset of lineages
// merges simultaneously, re-sampled each event.
type DiracModel struct {
	refSize float64
	Psi     float64
	C       float64
}

// NewDiracModel creates a Dirac model with parameters psi in (0,1) and
// c >= 0.
func NewDiracModel(refSize, psi, c float64) (*DiracModel, error) {
	if psi <= 0 || psi >= 1 {
		return nil, NewInputError("dirac model", errInvalid("psi %f must be in (0, 1)", psi))
	}
	if c < 0 {
		return nil, NewInputError("dirac model", errInvalid("c %f must be >= 0", c))
	}
	return &DiracModel{refSize: refSize, Psi: psi, C: c}, nil
}

func (m *DiracModel) Name() string              { return "dirac" }
func (m *DiracModel) Kind() ModelKind            { return KindContinuous }
func (m *DiracModel) ReferenceSize() float64     { return m.refSize }
func (m *DiracModel) NumLabels() int             { return 1 }
func (m *DiracModel) MergeVariant() MergeVariant { return MergeHudson }

// CoalescenceRate sums the Kingman-like binary rate with the point-mass
// multiple-merger rate's leading-order contribution, so the scheduler's
// shared exponential race treats both components as a single source;
// SampleMerger decides, conditional on firing, whether the event
// resolves as a binary or a multi-way merger.
func (m *DiracModel) CoalescenceRate(t float64, k int, N float64, label int) float64 {
	if k < 2 || N <= 0 {
		return 0
	}
	kingman := float64(k*(k-1)) / (4 * N)
	pointMass := m.C * float64(k)
	return kingman + pointMass
}

// SampleMerger decides, proportional to the two rate components, whether
// this event is a binary Kingman merge or a Binomial(k, psi) multi-way
// merger (spec.md §4.4).
func (m *DiracModel) SampleMerger(population, label int, ps *PopulationState, rng *RNG) []*Lineage {
	k := ps.NumLineages(population, label)
	if k < 2 {
		return nil
	}
	N := ps.Populations[population].EffectiveSize(0)
	kingman := float64(k*(k-1)) / (4 * N)
	pointMass := m.C * float64(k)
	if rng.Float64()*(kingman+pointMass) < pointMass {
		count := rng.Binomial(k, m.Psi)
		if count < 2 {
			count = 2
		}
		if count > k {
			count = k
		}
		return pickDistinctLineages(ps, population, label, count, rng)
	}
	a, b := ps.PickTwoDistinctLineages(population, label, rng)
	if a == nil {
		return nil
	}
	return []*Lineage{a, b}
}

// pickDistinctLineages draws count distinct lineages without replacement
// from (population, label) via a Fisher-Yates-style partial shuffle over
// index positions, used by the Dirac and Beta multiple-merger samplers.
func pickDistinctLineages(ps *PopulationState, population, label, count int, rng *RNG) []*Lineage {
	set := ps.sets[population][label]
	n := len(set.lineages)
	if count > n {
		count = n
	}
	idx := rng.Perm(n)[:count]
	out := make([]*Lineage, count)
	for i, j := range idx {
		out[i] = set.lineages[j]
	}
	return out
}
