package coalesce

import "sort"

// Pedigree is a fixed family structure that the wf_ped model walks
// instead of sampling parents at random: each individual has a fixed
// set of parents, a generation time, and a ploidy (number of parental
// chromosome copies per parent).
type Pedigree struct {
	Individuals []PedigreeIndividual

	// byID indexes individuals by id for O(1) parent lookups during a
	// pedigree walk.
	byID map[int32]*PedigreeIndividual
}

// PedigreeIndividual is one node in a pedigree: its parents (by id,
// empty for founders), the generation time it lived at, whether it is
// a sampled tip, and its ploidy.
type PedigreeIndividual struct {
	ID       int32
	Parents  []int32
	Time     float64
	IsSample bool
	Ploidy   int
}

// NewPedigree builds a Pedigree from a flat list of individuals,
// indexing them by id and validating that every referenced parent
// exists and precedes its children in time.
func NewPedigree(individuals []PedigreeIndividual) (*Pedigree, error) {
	p := &Pedigree{
		Individuals: individuals,
		byID:        make(map[int32]*PedigreeIndividual, len(individuals)),
	}
	for i := range individuals {
		ind := &individuals[i]
		if _, exists := p.byID[ind.ID]; exists {
			return nil, NewInputError("pedigree", errInvalid("duplicate individual id %d", ind.ID))
		}
		p.byID[ind.ID] = ind
	}
	for _, ind := range individuals {
		for _, parentID := range ind.Parents {
			parent, ok := p.byID[parentID]
			if !ok {
				return nil, NewInputError("pedigree", errInvalid("individual %d references unknown parent %d", ind.ID, parentID))
			}
			if parent.Time <= ind.Time {
				return nil, NewInputError("pedigree", errInvalid("individual %d (time %f) is not older than child %d (time %f)", parentID, parent.Time, ind.ID, ind.Time))
			}
		}
	}
	return p, nil
}

// Individual returns the pedigree individual with the given id, or nil
// if it is not present.
func (p *Pedigree) Individual(id int32) *PedigreeIndividual {
	return p.byID[id]
}

// Samples returns the ids of all individuals flagged as samples,
// ordered by id for determinism.
func (p *Pedigree) Samples() []int32 {
	var ids []int32
	for id, ind := range p.byID {
		if ind.IsSample {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PickParent chooses one of an individual's parents uniformly,
// implementing the Mendelian segregation step of a pedigree walk
// (spec.md §4.4's wf_ped model). Founders (no parents) return -1.
func (p *Pedigree) PickParent(id int32, rng *RNG) int32 {
	ind := p.byID[id]
	if ind == nil || len(ind.Parents) == 0 {
		return -1
	}
	return ind.Parents[rng.UniformInt(len(ind.Parents))]
}
