package coalesce

import "math"

// SweepModel is the genic-selection sweep model (spec.md §4.4):
// lineages carry a "beneficial" (label 0) or "wild-type" (label 1)
// label and coalesce within label at rate k(k-1)/(4*N*x(t)) (resp.
// 1-x(t)) against a precomputed allele-frequency trajectory x(t).
// SeedSamples places every sample in label 0, and no code path assigns
// lineages to label 1 by Bernoulli draws or moves lineages between
// labels as the trajectory changes.
//
// Open question recorded in SPEC_FULL.md §5: the source leaves the
// trajectory's shape underspecified beyond its endpoints and (alpha,
// dt). This implementation precomputes a deterministic logistic path
// between start_frequency and end_frequency; the stochastic-diffusion
// alternative is not implemented.
type SweepModel struct {
	refSize float64

	Position      float64
	StartFreq     float64
	EndFreq       float64
	Alpha         float64
	Dt            float64

	// trajectory[i] is the beneficial-allele frequency at backward time
	// i*Dt, walking from the present (t=0, where frequency is EndFreq)
	// to the sweep's origin (frequency StartFreq).
	trajectory []float64
}

// NewSweepModel precomputes the deterministic logistic trajectory
// between start_frequency and end_frequency (spec.md §9's recorded
// decision) on a dt-spaced grid.
func NewSweepModel(refSize, position, startFreq, endFreq, alpha, dt float64) (*SweepModel, error) {
	if startFreq <= 0 || startFreq >= 1 {
		return nil, NewInputError("sweep model", errInvalid("start_frequency %f must be in (0,1)", startFreq))
	}
	if endFreq <= 0 || endFreq >= 1 {
		return nil, NewInputError("sweep model", errInvalid("end_frequency %f must be in (0,1)", endFreq))
	}
	if dt <= 0 {
		return nil, NewInputError("sweep model", errInvalid("dt %f must be positive", dt))
	}
	m := &SweepModel{refSize: refSize, Position: position, StartFreq: startFreq, EndFreq: endFreq, Alpha: alpha, Dt: dt}
	m.precomputeTrajectory()
	return m, nil
}

// logistic is the standard logistic allele-frequency path under genic
// selection with coefficient alpha, anchored so x(0) = EndFreq.
func (m *SweepModel) logistic(tauFromPresent float64) float64 {
	x0 := m.EndFreq
	odds := (1 - x0) / x0
	return 1 / (1 + odds*math.Exp(m.Alpha*tauFromPresent))
}

// precomputeTrajectory walks backward in steps of Dt from the present
// (tau=0, x=EndFreq) until x falls to or below StartFreq, matching
// spec.md §4.4's "deterministic ... trajectory ... is precomputed".
func (m *SweepModel) precomputeTrajectory() {
	var traj []float64
	tau := 0.0
	for i := 0; i < 1_000_000; i++ {
		x := m.logistic(tau)
		traj = append(traj, x)
		if x <= m.StartFreq {
			break
		}
		tau += m.Dt
	}
	m.trajectory = traj
}

// frequencyAt returns the beneficial-allele frequency at backward time t
// (t=0 is the present), clamping to the trajectory's precomputed range.
func (m *SweepModel) frequencyAt(t float64) float64 {
	i := int(t / m.Dt)
	if i < 0 {
		i = 0
	}
	if i >= len(m.trajectory) {
		return m.StartFreq
	}
	return m.trajectory[i]
}

func (m *SweepModel) Name() string            { return "sweep_genic_selection" }
func (m *SweepModel) Kind() ModelKind          { return KindSweep }
func (m *SweepModel) ReferenceSize() float64   { return m.refSize }
func (m *SweepModel) NumLabels() int           { return 2 }
func (m *SweepModel) MergeVariant() MergeVariant { return MergeHudson }

// CoalescenceRate implements spec.md §4.4's within-label sweep rate:
// k(k-1)/(4*N*x(t)) for the beneficial label (0), k(k-1)/(4*N*(1-x(t)))
// for the wild-type label (1).
func (m *SweepModel) CoalescenceRate(t float64, k int, N float64, label int) float64 {
	if k < 2 || N <= 0 {
		return 0
	}
	x := m.frequencyAt(t)
	freq := x
	if label == 1 {
		freq = 1 - x
	}
	if freq <= 0 {
		return 0
	}
	return float64(k*(k-1)) / (4 * N * freq)
}

func (m *SweepModel) SampleMerger(population, label int, ps *PopulationState, rng *RNG) []*Lineage {
	a, b := ps.PickTwoDistinctLineages(population, label, rng)
	if a == nil {
		return nil
	}
	return []*Lineage{a, b}
}
