package coalesce

import (
	"math"

	"github.com/kentwait/coalesce/tables"
)

// ExitCode reports why Scheduler.Run stopped.
type ExitCode int

const (
	ExitCoalesced ExitCode = iota
	// ExitMaxEvents is spec.md §4.3's "MAX_EVENTS (yield)": returned both
	// when Run's own maxEvents budget is exhausted and when Chunk events
	// have been applied since the call began (spec.md §4.3 step 5 / §5's
	// "chunk bounds work between yields"). Either way the run is fully
	// resumable: state is left exactly as it would be mid-run, and a
	// subsequent Run call continues from the same clock and lineage
	// state.
	ExitMaxEvents
	ExitMaxTime
)

// Counters tallies the event kinds a run applies, the state the caller
// inspects after a run to judge mixing and rejection rates.
type Counters struct {
	CAEvents           int
	REEvents           int
	GCEvents           int
	RejectedCAEvents   int
	MultipleRecombEvents int
	MigrationEvents    map[[2]int]int
}

func newCounters(numPopulations int) *Counters {
	return &Counters{MigrationEvents: make(map[[2]int]int)}
}

// Scheduler is the event-driven simulation kernel: the clock-ordered
// dispatch of stochastic events (coalescence, recombination, gene
// conversion, migration) interleaved with the deterministic demographic
// queue. One call into Run owns all mutable state; nothing re-enters it.
type Scheduler struct {
	PS         *PopulationState
	Model      CoalescentModel
	Demography *Demography
	Recorder   *Recorder
	RNG        *RNG

	Time    float64
	EndTime float64
	Chunk   int

	RecombinationRate         float64
	GeneConversionRate        float64
	GeneConversionTrackLength float64

	L float64

	Counters *Counters

	// Mutation overlays derived alleles onto the finalised table
	// collection's edges (spec.md §4.7); nil when the [mutation] section
	// is absent or disabled.
	Mutation *MutationGenerator

	eventsSinceYield int

	// pedigreeIndividual tracks, for the wf_ped model only, which
	// pedigree individual each lineage currently occupies.
	pedigreeIndividual map[*Lineage]int32
}

// NewScheduler wires the components needed to drive a replicate forward
// in time, starting the clock at t0.
func NewScheduler(ps *PopulationState, model CoalescentModel, demo *Demography, rec *Recorder, rng *RNG, l, t0, endTime float64, chunk int) *Scheduler {
	return &Scheduler{
		PS:         ps,
		Model:      model,
		Demography: demo,
		Recorder:   rec,
		RNG:        rng,
		Time:       t0,
		EndTime:    endTime,
		Chunk:      chunk,
		L:          l,
		Counters:   newCounters(len(ps.Populations)),
	}
}

// Run drives the event loop per the main-loop algorithm: ask the model
// for the next stochastic waiting time, compare it against the next
// demographic event, apply whichever comes first, and repeat until the
// sample fully coalesces, end_time is reached, or maxEvents events have
// been applied since the call began (the host's yield budget).
func (sch *Scheduler) Run(maxEvents int) (ExitCode, error) {
	switch sch.Model.Kind() {
	case KindDiscrete:
		return sch.runDiscrete(maxEvents)
	case KindPedigree:
		return sch.runPedigree(maxEvents)
	default:
		return sch.runContinuous(maxEvents)
	}
}

// runContinuous drives Hudson/SMC/SMC'/Dirac/Beta/sweep models, all of
// which share the continuous-time exponential-race machinery.
func (sch *Scheduler) runContinuous(maxEvents int) (ExitCode, error) {
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

		delta, outcome := sch.nextStochasticEvent()
		tDemo := sch.Demography.NextEventTime()

		// Delta == 0 ties against a demographic event due now resolve in
		// favour of the demographic event (design note: preserves
		// reproducibility across ports).
		if sch.Time+delta >= tDemo {
			sch.Time = tDemo
			ev := sch.Demography.PopEvent()
			if err := sch.applyDemographicEvent(ev); err != nil {
				return ExitMaxEvents, err
			}
		} else {
			sch.Time += delta
			if err := sch.applyStochasticEvent(outcome); err != nil {
				return ExitMaxEvents, err
			}
		}
		applied++
		sch.eventsSinceYield++
		if sch.Chunk > 0 && sch.eventsSinceYield >= sch.Chunk && !sch.PS.FullyCoalesced() {
			sch.eventsSinceYield = 0
			return ExitMaxEvents, nil
		}
	}
}

// rateSource names one of the independent exponential clocks the
// continuous-time race draws from.
type rateSource struct {
	kind       EventKind
	population int
	label      int
	dest       int // for migration
	rate       float64
}

// nextStochasticEvent draws one exponential waiting time per rate
// source (coalescence per population/label, total recombination, total
// gene conversion, migration per ordered population pair) and returns
// the minimum, together with the decision record for that source
// (spec.md §4.3's "rate composition" note: independent exponentials
// with the minimum taken is one of the two acceptable compositions).
func (sch *Scheduler) nextStochasticEvent() (float64, EventOutcome) {
	best := math.Inf(1)
	var bestOutcome EventOutcome

	consider := func(delta float64, outcome EventOutcome) {
		if delta < best {
			best = delta
			bestOutcome = outcome
		}
	}

	for p, pop := range sch.PS.Populations {
		N := pop.EffectiveSize(sch.Time)
		for label := 0; label < sch.Model.NumLabels(); label++ {
			k := sch.PS.NumLineages(p, label)
			rate := sch.Model.CoalescenceRate(sch.Time, k, N, label)
			delta := sch.RNG.Exponential(rate)
			consider(delta, EventOutcome{Kind: EventCoalescence, Population: p, Label: label})
		}
	}

	if sch.RecombinationRate > 0 {
		rate := sch.PS.FenwickTotal() * sch.RecombinationRate
		delta := sch.RNG.Exponential(rate)
		consider(delta, EventOutcome{Kind: EventRecombination})
	}

	if sch.GeneConversionRate > 0 {
		rate := sch.PS.FenwickTotal() * sch.GeneConversionRate
		delta := sch.RNG.Exponential(rate)
		consider(delta, EventOutcome{Kind: EventGeneConversion})
	}

	n := len(sch.PS.Populations)
	for p := 0; p < n; p++ {
		kp := 0
		for label := 0; label < sch.Model.NumLabels(); label++ {
			kp += sch.PS.NumLineages(p, label)
		}
		if kp == 0 {
			continue
		}
		for q := 0; q < n; q++ {
			if q == p {
				continue
			}
			rate := float64(kp) * sch.Demography.Matrix.Rate(p, q)
			delta := sch.RNG.Exponential(rate)
			consider(delta, EventOutcome{Kind: EventMigration, Population: p, Dest: q})
		}
	}

	return best, bestOutcome
}

// applyStochasticEvent dispatches a drawn EventOutcome to its
// event-application routine and updates the matching counter.
func (sch *Scheduler) applyStochasticEvent(outcome EventOutcome) error {
	switch outcome.Kind {
	case EventCoalescence:
		return sch.applyCoalescenceEvent(outcome.Population, outcome.Label)
	case EventRecombination:
		return sch.applyRecombinationEvent()
	case EventGeneConversion:
		return sch.applyGeneConversionEvent()
	case EventMigration:
		return sch.applyMigrationEvent(outcome.Population, outcome.Dest)
	default:
		return nil
	}
}

// SeedSamples registers the initial sample lineages as nodes at
// their declared sampling times and seeds the population-state index,
// the step the caller performs once before Run.
func SeedSamples(ps *PopulationState, rec *Recorder, l float64, samples []SampleSpec) ([]int32, error) {
	ids := make([]int32, len(samples))
	for i, s := range samples {
		if s.Population < 0 || s.Population >= len(ps.Populations) {
			return nil, NewInputError("sample specification", errInvalid("population %d out of range", s.Population))
		}
		nodeID := rec.AddNode(tables.FlagIsSample, s.Time, int32(s.Population), -1)
		ids[i] = nodeID
		seg, err := ps.AllocSegment(0, l, int(nodeID), s.Population, 0)
		if err != nil {
			return nil, err
		}
		ps.AddLineage(&Lineage{Head: seg}, s.Population, 0)
	}
	return ids, nil
}

// SampleSpec is one entry of the ordered sample specification (spec.md
// §6): a population id and a sampling time.
type SampleSpec struct {
	Population int
	Time       float64
}
