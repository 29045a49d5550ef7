package coalesce

import (
	"fmt"
	"math"
)

// MigrationMatrix is a row-major P x P matrix of non-negative migration
// rates; the diagonal is ignored (spec.md §6).
type MigrationMatrix struct {
	n   int
	row [][]float64
}

// NewMigrationMatrix validates and copies a row-major matrix.
func NewMigrationMatrix(m [][]float64) (*MigrationMatrix, error) {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return nil, NewInputError("migration matrix", fmt.Errorf("row %d has %d entries, want %d", i, len(row), n))
		}
		for j, v := range row {
			if i == j {
				continue
			}
			if v < 0 {
				return nil, NewInputError("migration matrix", fmt.Errorf("entry [%d][%d] = %f must be non-negative", i, j, v))
			}
		}
	}
	copied := make([][]float64, n)
	for i := range copied {
		copied[i] = append([]float64(nil), m[i]...)
	}
	return &MigrationMatrix{n: n, row: copied}, nil
}

// Rate returns the migration rate from population i to population j.
func (m *MigrationMatrix) Rate(i, j int) float64 {
	if i == j {
		return 0
	}
	return m.row[i][j]
}

// SetRate updates a single matrix entry (used by migration_rate_change
// events).
func (m *MigrationMatrix) SetRate(i, j int, rate float64) {
	if i == j {
		return
	}
	m.row[i][j] = rate
}

// N returns the number of populations the matrix covers.
func (m *MigrationMatrix) N() int { return m.n }

// DemographicEventKind names the recognised demographic event kinds
// (spec.md §6).
type DemographicEventKind string

const (
	EventPopulationParametersChange DemographicEventKind = "population_parameters_change"
	EventMigrationRateChange        DemographicEventKind = "migration_rate_change"
	EventMassMigration              DemographicEventKind = "mass_migration"
	EventSimpleBottleneck           DemographicEventKind = "simple_bottleneck"
	EventInstantaneousBottleneck    DemographicEventKind = "instantaneous_bottleneck"
	EventCensus                     DemographicEventKind = "census_event"
)

// DemographicEvent is a single deterministic event scheduled at a fixed
// time (spec.md §4.5, §6). Only the fields relevant to Kind are used.
type DemographicEvent struct {
	Time float64
	Kind DemographicEventKind

	Population  int
	InitialSize *float64
	GrowthRate  *float64

	MatrixSrc, MatrixDst int
	MigrationRate        float64

	Source, Dest int
	Proportion   float64

	Strength float64

	order int // insertion order, for stable tie-breaking at equal Time
}

// Demography owns the migration matrix and the time-ordered queue of
// demographic events (component G). Two events at exactly equal times
// are totally ordered by insertion order (spec.md §5).
type Demography struct {
	Matrix *MigrationMatrix
	events []*DemographicEvent
	cursor int
}

// NewDemography creates a Demography with the given matrix and an
// initially empty event queue.
func NewDemography(matrix *MigrationMatrix) *Demography {
	return &Demography{Matrix: matrix}
}

// AddEvent appends a demographic event to the queue and keeps it sorted
// by (time, insertion order).
func (d *Demography) AddEvent(ev *DemographicEvent) {
	ev.order = len(d.events)
	// Insertion sort is adequate: demographic event lists are small
	// relative to the stochastic event volume they interleave with.
	i := len(d.events)
	d.events = append(d.events, ev)
	for i > 0 && (d.events[i-1].Time > ev.Time ||
		(d.events[i-1].Time == ev.Time && d.events[i-1].order > ev.order)) {
		d.events[i-1], d.events[i] = d.events[i], d.events[i-1]
		i--
	}
}

// NextEventTime returns the time of the next pending demographic event,
// or +Inf if the queue is exhausted.
func (d *Demography) NextEventTime() float64 {
	if d.cursor >= len(d.events) {
		return math.Inf(1)
	}
	return d.events[d.cursor].Time
}

// PopEvent returns the next pending demographic event and advances the
// cursor. Callers must have already checked NextEventTime is finite.
func (d *Demography) PopEvent() *DemographicEvent {
	ev := d.events[d.cursor]
	d.cursor++
	return ev
}

// Reset rewinds the event cursor to the start.
func (d *Demography) Reset() {
	d.cursor = 0
}
