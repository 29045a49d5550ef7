package coalesce

import "testing"

func validSimConfig() *SimConfig {
	return &SimConfig{
		SimParams: &simParamsConfig{
			SequenceLength: 100,
			Samples:        []sampleConfig{{Population: 0, Time: 0}, {Population: 0, Time: 0}},
			EndTime:        100,
			Seed:           1,
		},
		Populations: []*populationConfig{{InitialSize: 10}},
		Model:       &modelConfig{Name: "hudson", ReferenceSize: 10},
	}
}

func TestSimConfig_Validate_Accepts(t *testing.T) {
	c := validSimConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("expected a well-formed configuration to validate, instead got: %v", err)
	}
	// Validate should have filled in defaults.
	if c.SimParams.Chunk != 10000 {
		t.Errorf("expected default chunk 10000, instead got %d", c.SimParams.Chunk)
	}
	if c.SimParams.BlockSize != 1024 {
		t.Errorf("expected default block_size 1024, instead got %d", c.SimParams.BlockSize)
	}
}

func TestSimConfig_Validate_RejectsMissingSimulationSection(t *testing.T) {
	c := validSimConfig()
	c.SimParams = nil
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a missing [simulation] section, instead got none")
	}
}

func TestSimConfig_Validate_RejectsZeroSequenceLength(t *testing.T) {
	c := validSimConfig()
	c.SimParams.SequenceLength = 0
	if err := c.Validate(); err == nil {
		t.Error("expected an error for sequence_length <= 0, instead got none")
	}
}

func TestSimConfig_Validate_RejectsSampleOutOfRange(t *testing.T) {
	c := validSimConfig()
	c.SimParams.Samples = append(c.SimParams.Samples, sampleConfig{Population: 5, Time: 0})
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a sample referencing an out-of-range population, instead got none")
	}
}

func TestSimConfig_Validate_RejectsUnrecognizedModel(t *testing.T) {
	c := validSimConfig()
	c.Model.Name = "not_a_model"
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an unrecognized model name, instead got none")
	}
}

func TestSimConfig_Validate_RejectsNegativeRecombinationRate(t *testing.T) {
	c := validSimConfig()
	c.SimParams.RecombinationRate = -1
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a negative recombination_rate, instead got none")
	}
}

func TestSimConfig_Validate_GeneConversionRequiresTrackLength(t *testing.T) {
	c := validSimConfig()
	c.SimParams.GeneConversionRate = 0.1
	c.SimParams.GeneConversionTrackLength = 0
	if err := c.Validate(); err == nil {
		t.Error("expected an error when gene_conversion_rate is set without a track length, instead got none")
	}
}

func TestSimConfig_NewScheduler(t *testing.T) {
	c := validSimConfig()
	sch, sampleIDs, err := c.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}
	if len(sampleIDs) != 2 {
		t.Errorf("expected 2 seeded sample ids, instead got %d", len(sampleIDs))
	}
	if sch.PS.NumLineages(0, 0) != 2 {
		t.Errorf("expected 2 lineages in population 0, instead got %d", sch.PS.NumLineages(0, 0))
	}
}

func TestSimConfig_NewScheduler_WiresMutationGenerator(t *testing.T) {
	c := validSimConfig()
	c.Mutation = &mutationConfig{Enabled: true, Rate: 10, Alphabet: "binary"}

	sch, sampleIDs, err := c.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}
	if sch.Mutation == nil {
		t.Fatal("expected [mutation] enabled=true to populate Scheduler.Mutation")
	}

	if _, err := sch.Run(100000); err != nil {
		t.Fatal(err)
	}
	if err := sch.Recorder.Finalize(sampleIDs); err != nil {
		t.Fatal(err)
	}
	if err := sch.ApplyMutations(); err != nil {
		t.Fatal(err)
	}
	if len(sch.Recorder.Tables.Mutations) == 0 {
		t.Error("expected a high mutation rate over a coalesced tree to place at least one mutation")
	}
}

func TestSimConfig_NewScheduler_MutationDisabledLeavesSchedulerUnset(t *testing.T) {
	c := validSimConfig()
	c.Mutation = &mutationConfig{Enabled: false, Rate: 10, Alphabet: "binary"}

	sch, _, err := c.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}
	if sch.Mutation != nil {
		t.Error("expected a disabled [mutation] section to leave Scheduler.Mutation nil")
	}
	if err := sch.ApplyMutations(); err != nil {
		t.Errorf("expected ApplyMutations to be a no-op with no mutation generator, instead got: %v", err)
	}
}

func TestSimConfig_Validate_LoggingDefaultsKindAndFrequency(t *testing.T) {
	c := validSimConfig()
	c.Logging = &loggingConfig{Path: "/tmp/replicate"}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Logging.Kind != "sqlite" {
		t.Errorf("expected default logging kind sqlite, instead got %q", c.Logging.Kind)
	}
	if c.Logging.Frequency != 1 {
		t.Errorf("expected default logging frequency 1, instead got %d", c.Logging.Frequency)
	}
}

func TestSimConfig_Validate_RejectsLoggingWithoutPath(t *testing.T) {
	c := validSimConfig()
	c.Logging = &loggingConfig{Kind: "csv"}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a [logging] section with no path, instead got none")
	}
}

func TestSimConfig_NewTableWriter_PicksImplementationByKind(t *testing.T) {
	c := validSimConfig()
	c.Logging = &loggingConfig{Path: "/tmp/replicate", Kind: "csv"}
	w, err := c.NewTableWriter()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := w.(*CSVTableWriter); !ok {
		t.Errorf("expected kind=csv to build a *CSVTableWriter, instead got %T", w)
	}

	c.Logging.Kind = "sqlite"
	w, err = c.NewTableWriter()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := w.(*SQLiteTableWriter); !ok {
		t.Errorf("expected kind=sqlite to build a *SQLiteTableWriter, instead got %T", w)
	}
}

func TestSimConfig_NewTableWriter_NoLoggingSectionIsNilWithNoError(t *testing.T) {
	c := validSimConfig()
	w, err := c.NewTableWriter()
	if err != nil {
		t.Fatal(err)
	}
	if w != nil {
		t.Errorf("expected a missing [logging] section to yield a nil writer, instead got %T", w)
	}
}

func TestDemoEventConfig_Validate_RejectsUnrecognizedKind(t *testing.T) {
	c := validSimConfig()
	c.DemoEvents = []*demoEventConfig{{Kind: "not_a_kind", Time: 1}}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an unrecognized demographic event kind, instead got none")
	}
}
