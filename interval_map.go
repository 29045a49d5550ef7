package coalesce

import (
	"fmt"
	"sort"
)

// IntervalMap represents a piecewise-constant function over [0, L),
// stored as two equal-length-plus-one sorted arrays following spec.md
// §4.1: position[0..n] and value[0..n-1], with position[0] = 0,
// position[n] = L, and every value non-negative.
type IntervalMap struct {
	position []float64
	value    []float64
}

// NewIntervalMap builds an IntervalMap from breakpoints and the values
// that hold on each of the resulting intervals. len(position) must equal
// len(value)+1, position must be strictly increasing starting at 0, and
// every value must be non-negative.
func NewIntervalMap(position, value []float64) (*IntervalMap, error) {
	if len(position) != len(value)+1 {
		return nil, NewInputError("interval map",
			errInvalid("position/value length mismatch: %d positions, %d values", len(position), len(value)))
	}
	if len(position) < 2 {
		return nil, NewInputError("interval map", errInvalid("need at least one interval"))
	}
	if position[0] != 0 {
		return nil, NewInputError("interval map", errInvalid("position[0] must be 0, got %f", position[0]))
	}
	for i := 1; i < len(position); i++ {
		if position[i] <= position[i-1] {
			return nil, NewInputError("interval map", errInvalid("position must be strictly increasing at index %d", i))
		}
	}
	for i, v := range value {
		if v < 0 {
			return nil, NewInputError("interval map", errInvalid("value[%d] = %f must be non-negative", i, v))
		}
	}
	m := &IntervalMap{
		position: append([]float64(nil), position...),
		value:    append([]float64(nil), value...),
	}
	return m, nil
}

// L returns the right endpoint of the map's domain.
func (m *IntervalMap) L() float64 { return m.position[len(m.position)-1] }

// ValueAt returns the piecewise-constant value at x via binary search.
// x must lie in [0, L).
func (m *IntervalMap) ValueAt(x float64) float64 {
	i := m.segmentIndex(x)
	return m.value[i]
}

// segmentIndex returns the index i such that position[i] <= x <
// position[i+1].
func (m *IntervalMap) segmentIndex(x float64) int {
	// sort.Search finds the first position strictly greater than x;
	// the containing segment is one before that.
	i := sort.Search(len(m.position), func(i int) bool { return m.position[i] > x })
	if i == 0 {
		i = 1
	}
	if i > len(m.value) {
		i = len(m.value)
	}
	return i - 1
}

// Integral returns the integral of the map's value over [a, b], via
// prefix sums over whole segments plus partial contributions from the
// segments containing a and b.
func (m *IntervalMap) Integral(a, b float64) float64 {
	if b <= a {
		return 0
	}
	ia := m.segmentIndex(a)
	ib := m.segmentIndex(b)
	if ia == ib {
		return (b - a) * m.value[ia]
	}
	total := (m.position[ia+1] - a) * m.value[ia]
	for i := ia + 1; i < ib; i++ {
		total += (m.position[i+1] - m.position[i]) * m.value[i]
	}
	total += (b - m.position[ib]) * m.value[ib]
	return total
}

// TotalMass returns the integral over the whole domain.
func (m *IntervalMap) TotalMass() float64 {
	return m.Integral(0, m.L())
}

// SampleWeightedPosition draws a position in [left, right) proportional
// to the map's value, used by the mutation generator to place a
// mutation within an edge's span weighted by its site-rate function.
func (m *IntervalMap) SampleWeightedPosition(rng *RNG, left, right float64) float64 {
	total := m.Integral(left, right)
	if total <= 0 {
		return rng.UniformFloat(left, right)
	}
	target := rng.UniformFloat(0, total)
	ia := m.segmentIndex(left)
	ib := m.segmentIndex(right)
	cum := 0.0
	for i := ia; i <= ib && i < len(m.value); i++ {
		segLeft := m.position[i]
		if segLeft < left {
			segLeft = left
		}
		segRight := m.position[i+1]
		if segRight > right {
			segRight = right
		}
		width := segRight - segLeft
		if width <= 0 {
			continue
		}
		mass := width * m.value[i]
		if cum+mass >= target {
			if m.value[i] <= 0 {
				return segLeft
			}
			return segLeft + (target-cum)/m.value[i]
		}
		cum += mass
	}
	return right
}

func errInvalid(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
