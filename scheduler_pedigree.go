package coalesce

// SeedPedigreeLineages associates every extant lineage in
// (population 0, label 0) with its starting pedigree individual,
// required once before Run for a wf_ped model. Samples are expected to
// have been seeded via SeedSamples using the pedigree's sample
// individual order.
func (sch *Scheduler) SeedPedigreeLineages(individualIDs []int32) {
	if sch.pedigreeIndividual == nil {
		sch.pedigreeIndividual = make(map[*Lineage]int32)
	}
	set := sch.PS.sets[0][0]
	for i, l := range set.lineages {
		if i < len(individualIDs) {
			sch.pedigreeIndividual[l] = individualIDs[i]
		}
	}
}

// runPedigree walks every lineage up the fixed input pedigree: each
// generation step advances lineages occupying the youngest pending
// individual to one of its parents (Mendelian segregation,
// approximated here as a single parent draw per lineage rather than
// per-chromosome, since the kernel does not track ploidy-indexed
// copies within one Segment.Value); lineages landing on the same
// parent individual coalesce (spec.md §4.4's wf_ped model).
func (sch *Scheduler) runPedigree(maxEvents int) (ExitCode, error) {
	model, ok := sch.Model.(*WFPedigreeModel)
	if !ok {
		return ExitMaxEvents, NewLibraryError("pedigree scheduler", errInvalid("model is not a pedigree model"))
	}
	ped := model.Pedigree
	applied := 0
	for {
		if sch.PS.FullyCoalesced() {
			return ExitCoalesced, nil
		}
		if sch.Time >= sch.EndTime {
			return ExitMaxTime, nil
		}
		if applied >= maxEvents {
			return ExitMaxEvents, nil
		}

		set := sch.PS.sets[0][0]
		if len(set.lineages) == 0 {
			return ExitCoalesced, nil
		}

		// Find the smallest parent time among current individuals so the
		// walk processes individuals in age order.
		nextTime, any := sch.nextPedigreeTime(ped, set.lineages)
		if !any {
			return ExitMaxTime, nil
		}
		sch.Time = nextTime

		lineages := append([]*Lineage(nil), set.lineages...)
		groups := make(map[int32][]*Lineage)
		for _, l := range lineages {
			indID := sch.pedigreeIndividual[l]
			ind := ped.Individual(indID)
			if ind == nil || ind.Time != nextTime {
				continue
			}
			parentID := ped.PickParent(indID, sch.RNG)
			if parentID < 0 {
				continue // founder: lineage stops advancing
			}
			sch.PS.RemoveLineage(l, 0, 0)
			sch.pedigreeIndividual[l] = parentID
			groups[parentID] = append(groups[parentID], l)
		}

		for parentID, group := range groups {
			if len(group) == 1 {
				sch.PS.AddLineage(group[0], 0, 0)
				continue
			}
			for _, l := range group {
				sch.PS.AddLineage(l, 0, 0)
			}
			sch.Time = ped.Individual(parentID).Time
			if err := sch.mergeLineages(0, 0, group); err != nil {
				return ExitMaxEvents, err
			}
			for _, l := range set.lineages {
				if _, ok := sch.pedigreeIndividual[l]; !ok {
					sch.pedigreeIndividual[l] = parentID
				}
			}
		}
		applied++
		sch.eventsSinceYield++
		if sch.Chunk > 0 && sch.eventsSinceYield >= sch.Chunk {
			sch.eventsSinceYield = 0
			return ExitMaxEvents, nil
		}
	}
}

// nextPedigreeTime returns the smallest pedigree-individual time that
// still has an active lineage sitting on it, the next generation step
// the walk should advance to.
func (sch *Scheduler) nextPedigreeTime(ped *Pedigree, lineages []*Lineage) (float64, bool) {
	best := 0.0
	found := false
	for _, l := range lineages {
		indID := sch.pedigreeIndividual[l]
		ind := ped.Individual(indID)
		if ind == nil {
			continue
		}
		if !found || ind.Time < best {
			best = ind.Time
			found = true
		}
	}
	return best, found
}
