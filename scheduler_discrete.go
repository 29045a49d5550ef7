package coalesce

// runDiscrete drives the dtwf model: time advances in unit generations;
// each generation every lineage independently picks a parent population
// (weighted by the migration matrix) and a parent id within it; lineages
// sharing a parent coalesce; recombination is resolved per lineage by a
// Poisson number of crossovers (spec.md §4.4).
func (sch *Scheduler) runDiscrete(maxEvents int) (ExitCode, error) {
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

		for sch.Demography.NextEventTime() <= sch.Time {
			ev := sch.Demography.PopEvent()
			if err := sch.applyDemographicEvent(ev); err != nil {
				return ExitMaxEvents, err
			}
		}

		sch.Time++
		if err := sch.advanceGeneration(); err != nil {
			return ExitMaxEvents, err
		}
		applied++
		sch.eventsSinceYield++
		if sch.Chunk > 0 && sch.eventsSinceYield >= sch.Chunk {
			sch.eventsSinceYield = 0
			return ExitMaxEvents, nil
		}
	}
}

// discreteParent names the (population, parentID) an individual lineage
// drew this generation; lineages landing on the same pair coalesce.
type discreteParent struct {
	population int
	id         int
}

// advanceGeneration performs one dtwf generation: for every extant
// lineage, draws a destination population via the migration matrix and
// a uniform parent id within it, groups lineages by shared parent,
// merges each group, re-registers survivors under their new population,
// and applies per-lineage recombination.
func (sch *Scheduler) advanceGeneration() error {
	n := len(sch.PS.Populations)
	groups := make(map[discreteParent][]*Lineage)

	for p := 0; p < n; p++ {
		pop := sch.PS.Populations[p]
		N := int(pop.EffectiveSize(sch.Time))
		if N < 1 {
			N = 1
		}
		set := sch.PS.sets[p][0]
		lineages := append([]*Lineage(nil), set.lineages...)
		for _, l := range lineages {
			dest := sch.pickMigrationDestination(p)
			parentID := sch.RNG.UniformInt(N)
			key := discreteParent{population: dest, id: parentID}
			sch.PS.RemoveLineage(l, p, 0)
			groups[key] = append(groups[key], l)
		}
	}

	for key, group := range groups {
		for _, l := range group {
			for s := l.Head; s != nil; s = s.Next {
				s.Population = key.population
			}
		}
		if len(group) == 1 {
			sch.PS.AddLineage(group[0], key.population, 0)
			continue
		}
		// mergeLineages re-removes from (key.population, 0); these
		// lineages are not yet registered there, so register then let it
		// remove, keeping the index consistent for anyOtherLineageCovers.
		for _, l := range group {
			sch.PS.AddLineage(l, key.population, 0)
		}
		if err := sch.mergeLineages(key.population, 0, group); err != nil {
			return err
		}
	}

	if sch.RecombinationRate > 0 {
		if err := sch.applyDiscreteRecombination(); err != nil {
			return err
		}
	}
	return nil
}

// pickMigrationDestination draws a destination population for a
// lineage in source, weighted by the migration matrix row with the
// remainder mass assigned to staying in source.
func (sch *Scheduler) pickMigrationDestination(source int) int {
	n := len(sch.PS.Populations)
	total := 0.0
	rates := make([]float64, n)
	for q := 0; q < n; q++ {
		if q == source {
			continue
		}
		rates[q] = sch.Demography.Matrix.Rate(source, q)
		total += rates[q]
	}
	if total <= 0 {
		return source
	}
	if total > 1 {
		total = 1
	}
	u := sch.RNG.Float64()
	if u >= total {
		return source
	}
	target := u
	cum := 0.0
	for q := 0; q < n; q++ {
		if q == source {
			continue
		}
		cum += rates[q]
		if target < cum {
			return q
		}
	}
	return source
}

// applyDiscreteRecombination draws, per extant lineage, a Poisson
// number of crossovers with mean equal to its total genetic length and
// splits the chain at that many sampled positions.
func (sch *Scheduler) applyDiscreteRecombination() error {
	for p := range sch.PS.Populations {
		set := sch.PS.sets[p][0]
		lineages := append([]*Lineage(nil), set.lineages...)
		for _, l := range lineages {
			geneticLength := sch.PS.recombMap.MassBetween(l.Left(), l.Right())
			numCrossovers := sch.RNG.Poisson(geneticLength)
			for i := 0; i < numCrossovers; i++ {
				position := sch.PS.recombMap.SampleBreakpointIn(sch.RNG, l.Left(), l.Right())
				_, right, split, err := sch.splitAt(l, p, 0, position)
				if err != nil {
					return err
				}
				if split {
					sch.Counters.REEvents++
					l = right
					if l == nil {
						break
					}
				}
			}
		}
	}
	return nil
}
