package coalesce

import "github.com/kentwait/coalesce/tables"

// applyDemographicEvent dispatches one popped DemographicEvent to its
// handler (spec.md §4.5).
func (sch *Scheduler) applyDemographicEvent(ev *DemographicEvent) error {
	switch ev.Kind {
	case EventPopulationParametersChange:
		return sch.applyPopulationParametersChange(ev)
	case EventMigrationRateChange:
		return sch.applyMigrationRateChange(ev)
	case EventMassMigration:
		return sch.applyMassMigration(ev)
	case EventSimpleBottleneck:
		return sch.applySimpleBottleneck(ev)
	case EventInstantaneousBottleneck:
		return sch.applyInstantaneousBottleneck(ev)
	case EventCensus:
		return sch.applyCensusEvent(ev)
	default:
		return NewLibraryError("demographic event", errInvalid("unrecognized demographic event kind %q", ev.Kind))
	}
}

// applyPopulationParametersChange updates (initial_size, growth_rate)
// for one population, re-anchoring its growth epoch at the event time
// so EffectiveSize keeps using t relative to the latest change.
func (sch *Scheduler) applyPopulationParametersChange(ev *DemographicEvent) error {
	pop := sch.PS.Populations[ev.Population]
	if ev.InitialSize != nil {
		pop.InitialSize = *ev.InitialSize
	} else {
		pop.InitialSize = pop.EffectiveSize(ev.Time)
	}
	if ev.GrowthRate != nil {
		pop.GrowthRate = *ev.GrowthRate
	}
	pop.StartTime = ev.Time
	return nil
}

// applyMigrationRateChange updates one migration matrix entry.
func (sch *Scheduler) applyMigrationRateChange(ev *DemographicEvent) error {
	sch.Demography.Matrix.SetRate(ev.MatrixSrc, ev.MatrixDst, ev.MigrationRate)
	return nil
}

// applyMassMigration moves each lineage in source to dest independently
// with probability proportion (spec.md §4.5, S5).
func (sch *Scheduler) applyMassMigration(ev *DemographicEvent) error {
	for label := 0; label < sch.Model.NumLabels(); label++ {
		set := sch.PS.sets[ev.Source][label]
		var moving []*Lineage
		for _, l := range set.lineages {
			if sch.RNG.Float64() < ev.Proportion {
				moving = append(moving, l)
			}
		}
		for _, l := range moving {
			sch.PS.RemoveLineage(l, ev.Source, label)
			for s := l.Head; s != nil; s = s.Next {
				s.Population = ev.Dest
				sch.Recorder.AddMigration(s.Left, s.Right, int32(s.Value), int32(ev.Source), int32(ev.Dest), ev.Time)
			}
			sch.PS.AddLineage(l, ev.Dest, label)
		}
	}
	return nil
}

// applySimpleBottleneck merges every lineage in population with
// probability proportion into a single ancestor, resolved as one
// multi-way merge per label (spec.md §4.5).
func (sch *Scheduler) applySimpleBottleneck(ev *DemographicEvent) error {
	for label := 0; label < sch.Model.NumLabels(); label++ {
		set := sch.PS.sets[ev.Population][label]
		var participants []*Lineage
		for _, l := range set.lineages {
			if sch.RNG.Float64() < ev.Proportion {
				participants = append(participants, l)
			}
		}
		if len(participants) < 2 {
			continue
		}
		if err := sch.mergeLineages(ev.Population, label, participants); err != nil {
			return err
		}
	}
	return nil
}

// applyInstantaneousBottleneck approximates "strength generations of
// drift in zero time" by running int(strength) Kingman-style
// pairwise-merge rounds (at least one) at the current time, each round
// merging one uniformly chosen pair of lineages and stopping early once
// fewer than two lineages remain. This mirrors how a
// bottleneck of strength τ is classically modelled as τ extra
// generations of coalescence compressed into an instant.
func (sch *Scheduler) applyInstantaneousBottleneck(ev *DemographicEvent) error {
	for label := 0; label < sch.Model.NumLabels(); label++ {
		rounds := int(ev.Strength)
		if rounds < 1 {
			rounds = 1
		}
		for r := 0; r < rounds; r++ {
			set := sch.PS.sets[ev.Population][label]
			if len(set.lineages) < 2 {
				break
			}
			a, b := sch.PS.PickTwoDistinctLineages(ev.Population, label, sch.RNG)
			if a == nil {
				break
			}
			if err := sch.mergeLineages(ev.Population, label, []*Lineage{a, b}); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyCensusEvent snapshots every extant segment as a fresh node with
// the census flag set, preserving genealogy by emitting an edge from
// the census node to the segment's prior value and updating the
// segment's value to the new node (spec.md §4.5).
func (sch *Scheduler) applyCensusEvent(ev *DemographicEvent) error {
	var allSegments []*Segment
	sch.PS.AllLineages(func(_, _ int, l *Lineage) {
		for s := l.Head; s != nil; s = s.Next {
			allSegments = append(allSegments, s)
		}
	})
	for _, s := range allSegments {
		nodeID := sch.Recorder.AddNode(tables.FlagIsCenEvent, ev.Time, int32(s.Population), -1)
		sch.Recorder.AddEdge(s.Left, s.Right, nodeID, int32(s.Value))
		s.Value = int(nodeID)
	}
	return nil
}
