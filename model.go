package coalesce

// ModelKind distinguishes the four families of coalescent model named in
// spec.md §4.4/§9: continuous-time and sweep models share the
// scheduler's rate composition and waiting-time machinery; discrete and
// pedigree models drive their own per-generation or per-step advance.
type ModelKind int

const (
	KindContinuous ModelKind = iota
	KindDiscrete
	KindSweep
	KindPedigree
)

// MergeVariant distinguishes how a common-ancestor event treats segments
// that, after an overlap is resolved, carry no surviving descendant
// material (spec.md §4.4: "SMC and SMC' are Hudson variants differing
// only in whether the two merged chains' overlapping segment handling
// omits or retains the segment that leaves no descendant material").
type MergeVariant int

const (
	MergeHudson MergeVariant = iota // retains non-overlapping segments unconditionally
	MergeSMC                        // discards segments that have lost all ancestral material
	MergeSMCPrime                   // retains them, but never lets them re-coalesce as distinct lineages
)

// CoalescentModel is the uniform plug-in contract of spec.md §9: "a
// capability {rate(t) -> double, sample_event(t, rng) -> EventOutcome,
// kind}". Continuous-time models (Hudson, SMC, SMC', Dirac, Beta, the
// genic-selection sweep) implement CoalescenceRate/SampleMerger and are
// driven by the scheduler's shared exponential-race loop; discrete
// models (dtwf, wf_ped) implement Kind() == KindDiscrete/KindPedigree
// and are driven by the scheduler's separate per-generation loop.
type CoalescentModel interface {
	// Name returns the model's §6 configuration name (e.g. "hudson").
	Name() string
	// Kind reports which scheduling strategy applies.
	Kind() ModelKind
	// ReferenceSize is the model's reference_size parameter (§6).
	ReferenceSize() float64
	// NumLabels returns how many coalescent-model labels this model
	// partitions lineages into (1 for every model except the sweep,
	// which uses 2: beneficial and wild-type).
	NumLabels() int
	// CoalescenceRate returns the instantaneous rate of a coalescence
	// event among k extant lineages of a given label in a population of
	// effective size N at time t (spec.md §4.4).
	CoalescenceRate(t float64, k int, N float64, label int) float64
	// SampleMerger picks which lineages coalesce in one CA event, given
	// the current lineage index for (population, label). Binary models
	// return exactly two; multiple-merger models (Dirac, Beta) may
	// return more.
	SampleMerger(population, label int, ps *PopulationState, rng *RNG) []*Lineage
	// MergeVariant reports the SMC/SMC'/Hudson segment-retention rule
	// (spec.md §4.4); models other than Hudson/SMC/SMC' return
	// MergeHudson.
	MergeVariant() MergeVariant
}

// EventKind enumerates the stochastic event types composed by the
// scheduler's continuous-time rate race (spec.md §4.3).
type EventKind int

const (
	EventNone EventKind = iota
	EventCoalescence
	EventRecombination
	EventGeneConversion
	EventMigration
)

// EventOutcome is the decision record spec.md §4.3 asks a model's
// sample_event callback to produce: which event fired and, for
// coalescence, which lineages are involved.
type EventOutcome struct {
	Kind       EventKind
	Population int
	Label      int
	Lineages   []*Lineage // populated for EventCoalescence
	Dest       int        // populated for EventMigration
}
