package coalesce

import "github.com/kentwait/coalesce/tables"

// applyMigrationEvent moves a uniformly chosen lineage from source to
// dest (spec.md §4.5), re-registering it under dest's index and
// optionally emitting a migration record for every segment it carries.
func (sch *Scheduler) applyMigrationEvent(source, dest int) error {
	numLabels := sch.Model.NumLabels()
	total := 0
	for label := 0; label < numLabels; label++ {
		total += sch.PS.NumLineages(source, label)
	}
	if total == 0 {
		return nil
	}
	target := sch.RNG.UniformInt(total)
	label := 0
	for label < numLabels-1 && target >= sch.PS.NumLineages(source, label) {
		target -= sch.PS.NumLineages(source, label)
		label++
	}
	l, idx := sch.PS.PickLineage(source, label, sch.RNG)
	_ = target
	if l == nil {
		return nil
	}
	sch.PS.RemoveAt(source, label, idx)
	for s := l.Head; s != nil; s = s.Next {
		s.Population = dest
		sch.Recorder.AddMigration(s.Left, s.Right, int32(s.Value), int32(source), int32(dest), sch.Time)
	}
	sch.PS.AddLineage(l, dest, label)
	sch.Counters.MigrationEvents[[2]int{source, dest}]++
	return nil
}

// migrationNodeFlags is unused directly (migration does not create a
// node) but documents the flag that would apply if the recorder ever
// needs to stamp a node at a migration boundary.
const migrationNodeFlags = tables.FlagIsMigEvent
