package coalesce

import (
	"fmt"
	"sort"

	"github.com/kentwait/coalesce/tables"
)

// SubstitutionModel is a finite-state substitution model conditioning a
// derived state on the allele the branch started with (spec.md §4.7).
// Mirrors the teacher's Mutator interface: a description plus a
// row-stochastic transition matrix over a fixed state alphabet.
type SubstitutionModel interface {
	Description() string
	States() []string
	TransitionProbs(state string) []float64
	Sample(state string, rng *RNG) string
}

type substitutionModel struct {
	desc   string
	states []string
	matrix [][]float64
}

func (m *substitutionModel) Description() string    { return m.desc }
func (m *substitutionModel) States() []string        { return m.states }
func (m *substitutionModel) TransitionProbs(state string) []float64 {
	for i, s := range m.states {
		if s == state {
			return m.matrix[i]
		}
	}
	return nil
}

// stateIndex returns the index of a state within the model's alphabet,
// or -1 if absent.
func (m *substitutionModel) stateIndex(state string) int {
	for i, s := range m.states {
		if s == state {
			return i
		}
	}
	return -1
}

// Sample draws a new state conditioned on the current one, via the
// transition row's cumulative distribution.
func (m *substitutionModel) Sample(state string, rng *RNG) string {
	i := m.stateIndex(state)
	if i < 0 {
		i = 0
	}
	row := m.matrix[i]
	u := rng.Float64()
	cum := 0.0
	for j, p := range row {
		cum += p
		if u < cum {
			return m.states[j]
		}
	}
	return m.states[len(m.states)-1]
}

// binaryStates and nucleotideStates are the two alphabets pinned by
// spec.md §6.
var (
	binaryStates     = []string{"0", "1"}
	nucleotideStates = []string{"A", "C", "G", "T"}
)

// NewUniformSubstitutionModel creates a substitution model that
// transitions uniformly among every other state in the given alphabet,
// the same shape as the teacher's NewUniformRateMutator.
func NewUniformSubstitutionModel(alphabet int) (SubstitutionModel, error) {
	states, err := alphabetStates(alphabet)
	if err != nil {
		return nil, err
	}
	n := len(states)
	matrix := make([][]float64, n)
	p := 1.0 / float64(n-1)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i != j {
				matrix[i][j] = p
			}
		}
	}
	return &substitutionModel{desc: "uniform", states: states, matrix: matrix}, nil
}

// NewRateMatrixSubstitutionModel creates a substitution model from an
// explicit row-stochastic transition matrix, validated the same way the
// teacher's NewRateMatrixMutator validates its rate matrix (square,
// rows sum to 1, zero diagonal).
func NewRateMatrixSubstitutionModel(alphabet int, matrix [][]float64) (SubstitutionModel, error) {
	states, err := alphabetStates(alphabet)
	if err != nil {
		return nil, err
	}
	if len(matrix) != len(states) {
		return nil, NewInputError("substitution model", errInvalid("matrix has %d rows, want %d", len(matrix), len(states)))
	}
	copied := make([][]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(states) {
			return nil, NewInputError("substitution model", errInvalid("row %d has %d entries, want %d", i, len(row), len(states)))
		}
		total := 0.0
		for j, p := range row {
			if i == j && p != 0 {
				return nil, NewInputError("substitution model", errInvalid("diagonal entry [%d][%d] must be 0", i, j))
			}
			total += p
		}
		if total < 0.999 || total > 1.001 {
			return nil, NewInputError("substitution model", fmt.Errorf("row %d must sum to 1.0, got %f", i, total))
		}
		copied[i] = append([]float64(nil), row...)
	}
	return &substitutionModel{desc: "rate_matrix", states: states, matrix: copied}, nil
}

func alphabetStates(alphabet int) ([]string, error) {
	switch alphabet {
	case tables.AlphabetBinary:
		return binaryStates, nil
	case tables.AlphabetNucleotide:
		return nucleotideStates, nil
	default:
		return nil, NewInputError("substitution model", errInvalid("unrecognized alphabet %d", alphabet))
	}
}

// MutationGenerator is component I: it overlays a Poisson process on
// the edges of a finalised table collection under a per-site rate
// function and a finite-state substitution model (spec.md §4.7).
type MutationGenerator struct {
	RateMap   *IntervalMap
	Model     SubstitutionModel
	Alphabet  int
	TimeStart float64
	TimeEnd   float64
	Keep      bool
}

// NewMutationGenerator validates and creates a mutation generator.
func NewMutationGenerator(rateMap *IntervalMap, model SubstitutionModel, alphabet int, timeStart, timeEnd float64, keep bool) (*MutationGenerator, error) {
	if timeEnd < timeStart {
		return nil, NewInputError("mutation generator", errInvalid("time_end %f must be >= time_start %f", timeEnd, timeStart))
	}
	return &MutationGenerator{RateMap: rateMap, Model: model, Alphabet: alphabet, TimeStart: timeStart, TimeEnd: timeEnd, Keep: keep}, nil
}

// ApplyMutations runs the scheduler's configured mutation generator, if
// any, against its own finalised table collection. Callers run this
// after Recorder.Finalize so branch lengths and edge ordering are
// settled; a nil Mutation makes this a no-op, letting callers invoke it
// unconditionally after every replicate.
func (sch *Scheduler) ApplyMutations() error {
	if sch.Mutation == nil {
		return nil
	}
	return sch.Mutation.Generate(sch.Recorder.Tables, sch.RNG)
}

// Generate overlays mutations onto t's edges. Edges are processed
// parent-time-descending so that, for any site, a child's pre-mutation
// state (its parent's post-mutation state) is always resolved before
// the child's own edge is processed (spec.md §4.7's "conditioned on the
// parent allele... along that edge").
func (g *MutationGenerator) Generate(t *tables.Collection, rng *RNG) error {
	if !g.Keep {
		t.Sites = nil
		t.Mutations = nil
	}

	ancestralState := binaryStates[0]
	if g.Alphabet == tables.AlphabetNucleotide {
		ancestralState = nucleotideStates[0]
	}

	stateAt := make(map[[2]int32]string) // (site, node) -> state
	for i, s := range t.Sites {
		stateAt[[2]int32{int32(i), -1}] = s.AncestralState
	}

	order := make([]int, len(t.Edges))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return t.Nodes[t.Edges[order[i]].Parent].Time > t.Nodes[t.Edges[order[j]].Parent].Time
	})

	for _, idx := range order {
		e := t.Edges[idx]
		parent := t.Nodes[e.Parent]
		child := t.Nodes[e.Child]
		if child.Time < g.TimeStart || parent.Time > g.TimeEnd {
			continue
		}
		branchLength := parent.Time - child.Time
		mean := branchLength * g.RateMap.Integral(e.Left, e.Right)
		n := rng.Poisson(mean)
		for i := 0; i < n; i++ {
			position := g.RateMap.SampleWeightedPosition(rng, e.Left, e.Right)
			siteID := t.FindOrAddSite(position, ancestralState)
			key := [2]int32{siteID, e.Parent}
			parentState, ok := stateAt[key]
			if !ok {
				parentState = t.Sites[siteID].AncestralState
			}
			derived := g.Model.Sample(parentState, rng)
			t.AddMutation(siteID, e.Child, -1, derived, child.Time, nil)
			stateAt[[2]int32{siteID, e.Child}] = derived
		}
	}
	return nil
}
