package coalesce

import (
	"math"
	"math/rand"

	"github.com/kentwait/randomvariate"
)

// RNG is the simulator's uniform random source. It owns its own
// *rand.Rand instance rather than reaching for the math/rand package
// functions directly, so that two simulators seeded identically never
// share state and a replicate is fully reproducible (spec.md §8 property
// 8). This mirrors the teacher's preference for explicit, instance-owned
// state over package-level globals everywhere except the one spot
// (evoepi_config.go's rand.Perm) where it reaches for the global source;
// we tighten that here because §5 requires the kernel to own all of its
// mutable state.
type RNG struct {
	src *rand.Rand
}

// NewRNG creates an RNG seeded deterministically.
func NewRNG(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform double in [0, 1).
func (r *RNG) Float64() float64 {
	return r.src.Float64()
}

// Exponential draws from an exponential distribution with the given
// rate. Returns +Inf if rate <= 0, matching the convention that a
// zero-rate event source never fires.
func (r *RNG) Exponential(rate float64) float64 {
	if rate <= 0 {
		return math.Inf(1)
	}
	return r.src.ExpFloat64() / rate
}

// Poisson draws a Poisson-distributed integer with the given mean, via
// the teacher's randomvariate helper library.
func (r *RNG) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	return randomvariate.Poisson(mean, r.src)
}

// Binomial draws a Binomial(n, p)-distributed integer via randomvariate.
func (r *RNG) Binomial(n int, p float64) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	return randomvariate.Binomial(float64(p), n, r.src)
}

// Geometric draws from a geometric distribution on {1, 2, 3, ...} with
// success probability p (used for gene-conversion tract lengths).
func (r *RNG) Geometric(p float64) int {
	if p >= 1 {
		return 1
	}
	if p <= 0 {
		p = math.SmallestNonzeroFloat64
	}
	u := r.src.Float64()
	return int(math.Ceil(math.Log(1-u) / math.Log(1-p)))
}

// UniformInt returns a uniform integer in [0, n).
func (r *RNG) UniformInt(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.Intn(n)
}

// UniformFloat returns a uniform double in [lo, hi).
func (r *RNG) UniformFloat(lo, hi float64) float64 {
	return lo + r.src.Float64()*(hi-lo)
}

// Perm returns a random permutation of [0, n), used by
// pickDistinctLineages to choose the lineages of a Dirac or Beta
// multiple merger.
func (r *RNG) Perm(n int) []int {
	return r.src.Perm(n)
}
