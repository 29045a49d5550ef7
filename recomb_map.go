package coalesce

import (
	"math"
	"sort"
)

// RecombinationMap specialises IntervalMap to genetic distance: it maps
// physical coordinates to cumulative genetic distance and back, and
// supports sampling a breakpoint proportional to genetic mass (spec.md
// §4.1). When Discrete is set, breakpoints are snapped to integers, and
// the value at an integer position only counts if it is interior to the
// ancestral segment under consideration (handled by the caller; the map
// itself just rounds).
type RecombinationMap struct {
	rates    *IntervalMap
	cumGen   []float64 // cumulative genetic distance at each position breakpoint
	Discrete bool
}

// NewRecombinationMap builds a RecombinationMap from a physical-position
// array and a per-interval rate array, precomputing the cumulative
// genetic-distance array used to invert a sampled mass into a physical
// breakpoint.
func NewRecombinationMap(position, rate []float64, discrete bool) (*RecombinationMap, error) {
	im, err := NewIntervalMap(position, rate)
	if err != nil {
		return nil, err
	}
	cum := make([]float64, len(position))
	for i := 1; i < len(position); i++ {
		cum[i] = cum[i-1] + (position[i]-position[i-1])*rate[i-1]
	}
	return &RecombinationMap{rates: im, cumGen: cum, Discrete: discrete}, nil
}

// L returns the physical sequence length.
func (m *RecombinationMap) L() float64 { return m.rates.L() }

// TotalGeneticLength returns the cumulative genetic distance across the
// whole map.
func (m *RecombinationMap) TotalGeneticLength() float64 {
	return m.cumGen[len(m.cumGen)-1]
}

// PhysicalToGenetic converts a physical position to cumulative genetic
// distance.
func (m *RecombinationMap) PhysicalToGenetic(x float64) float64 {
	i := m.rates.segmentIndex(x)
	return m.cumGen[i] + (x-m.rates.position[i])*m.rates.value[i]
}

// GeneticToPhysical inverts cumulative genetic distance back to a
// physical position via the precomputed cumulative array.
func (m *RecombinationMap) GeneticToPhysical(g float64) float64 {
	i := sort.Search(len(m.cumGen), func(i int) bool { return m.cumGen[i] > g }) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(m.rates.value) {
		i = len(m.rates.value) - 1
	}
	rate := m.rates.value[i]
	if rate == 0 {
		return m.rates.position[i]
	}
	x := m.rates.position[i] + (g-m.cumGen[i])/rate
	if m.Discrete {
		x = math.Round(x)
	}
	return x
}

// SampleBreakpoint draws a uniform mass in [0, total genetic length) and
// inverts it to a physical breakpoint, per spec.md §4.1's "sampling a
// uniform mass and inverting it yields a breakpoint".
func (m *RecombinationMap) SampleBreakpoint(rng *RNG) float64 {
	total := m.TotalGeneticLength()
	if total <= 0 {
		return 0
	}
	g := rng.UniformFloat(0, total)
	return m.GeneticToPhysical(g)
}

// MassBetween returns the genetic-distance mass between two physical
// positions, used when sampling a breakpoint restricted to a single
// segment's internal range.
func (m *RecombinationMap) MassBetween(a, b float64) float64 {
	return m.PhysicalToGenetic(b) - m.PhysicalToGenetic(a)
}

// SampleBreakpointIn draws a breakpoint restricted to [left, right),
// proportional to mass, used once a segment has already been chosen by
// Fenwick weight and only its internal range needs a position (spec.md
// §4.5's recombination event application).
func (m *RecombinationMap) SampleBreakpointIn(rng *RNG, left, right float64) float64 {
	gLo := m.PhysicalToGenetic(left)
	gHi := m.PhysicalToGenetic(right)
	if gHi <= gLo {
		return left
	}
	g := rng.UniformFloat(gLo, gHi)
	x := m.GeneticToPhysical(g)
	nudge := 1.0
	if !m.Discrete {
		nudge = (right - left) * 1e-9
	}
	if x <= left {
		x = left + nudge
	}
	if x >= right {
		x = right - nudge
	}
	return x
}
