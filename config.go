package coalesce

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kentwait/coalesce/tables"
	"github.com/pkg/errors"
)

// Config is any top-level TOML configuration that can create a new
// simulator, mirroring the teacher's Config interface for EvoEpiConfig.
type Config interface {
	Validate() error
	NewScheduler() (*Scheduler, []int32, error)
}

// SimConfig is the root TOML table: simulation parameters, population
// and demographic configuration, the coalescent model, and mutation
// generation, read the way the teacher reads EvoEpiConfig.
type SimConfig struct {
	SimParams  *simParamsConfig    `toml:"simulation"`
	Populations []*populationConfig `toml:"population"`
	DemoEvents []*demoEventConfig  `toml:"demographic_event"`
	Model      *modelConfig        `toml:"model"`
	Mutation   *mutationConfig     `toml:"mutation"`
	Logging    *loggingConfig      `toml:"logging"`

	validated bool
}

type simParamsConfig struct {
	SequenceLength float64        `toml:"sequence_length"`
	Discrete       bool           `toml:"discrete"`
	RecombinationRate float64     `toml:"recombination_rate"`
	GeneConversionRate float64    `toml:"gene_conversion_rate"`
	GeneConversionTrackLength float64 `toml:"gene_conversion_track_length"`
	Samples        []sampleConfig `toml:"samples"`
	StartTime      float64        `toml:"start_time"`
	EndTime        float64        `toml:"end_time"`
	Chunk          int            `toml:"chunk"`
	Seed           int64          `toml:"seed"`
	BlockSize      int            `toml:"block_size"`
	MaxBlocks      int            `toml:"max_blocks"`
	RecordMigrations bool         `toml:"record_migrations"`
	Simplify       bool           `toml:"simplify"`
}

type sampleConfig struct {
	Population int     `toml:"population"`
	Time       float64 `toml:"time"`
}

type populationConfig struct {
	InitialSize float64 `toml:"initial_size"`
	GrowthRate  float64 `toml:"growth_rate"`
}

type demoEventConfig struct {
	Kind          string   `toml:"kind"`
	Time          float64  `toml:"time"`
	Population    int      `toml:"population"`
	InitialSize   *float64 `toml:"initial_size"`
	GrowthRate    *float64 `toml:"growth_rate"`
	MatrixSrc     int      `toml:"matrix_src"`
	MatrixDst     int      `toml:"matrix_dst"`
	MigrationRate float64  `toml:"migration_rate"`
	Source        int      `toml:"source"`
	Dest          int      `toml:"dest"`
	Proportion    float64  `toml:"proportion"`
	Strength      float64  `toml:"strength"`
}

type modelConfig struct {
	Name            string      `toml:"name"`
	ReferenceSize   float64     `toml:"reference_size"`
	Psi             float64     `toml:"psi"`
	C               float64     `toml:"c"`
	Alpha           float64     `toml:"alpha"`
	TruncationPoint float64     `toml:"truncation_point"`
	Position        float64     `toml:"position"`
	StartFrequency  float64     `toml:"start_frequency"`
	EndFrequency    float64     `toml:"end_frequency"`
	Dt              float64     `toml:"dt"`
	MigrationMatrix [][]float64 `toml:"migration_matrix"`
}

type mutationConfig struct {
	Enabled   bool    `toml:"enabled"`
	Rate      float64 `toml:"rate"`
	Alphabet  string  `toml:"alphabet"`
	TimeStart float64 `toml:"time_start"`
	TimeEnd   float64 `toml:"time_end"`
	Keep      bool    `toml:"keep"`
}

// loggingConfig is the [logging] section: where a replicate's tables
// are written, which TableWriter implementation to use, and how often
// to flush, mirroring the teacher's DataLogger configuration (LogPath,
// -logger flag, LogFreq) in evoepi_config.go.
type loggingConfig struct {
	Path      string `toml:"path"`
	Kind      string `toml:"kind"`
	Frequency int    `toml:"frequency"`
}

// LoadConfig parses a TOML configuration file the way the teacher's
// evoepi_config_loader.go loads EvoEpiConfig, then validates it.
func LoadConfig(path string) (*SimConfig, error) {
	var c SimConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, NewInputError("config", errors.Wrap(err, "decoding toml"))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every section of the configuration.
func (c *SimConfig) Validate() error {
	if c.SimParams == nil {
		return NewInputError("config", fmt.Errorf("missing [simulation] section"))
	}
	if err := c.SimParams.Validate(); err != nil {
		return err
	}
	if len(c.Populations) == 0 {
		return NewInputError("config", fmt.Errorf("at least one [[population]] is required"))
	}
	for i, p := range c.Populations {
		if err := p.Validate(i); err != nil {
			return err
		}
	}
	for _, s := range c.SimParams.Samples {
		if s.Population < 0 || s.Population >= len(c.Populations) {
			return NewInputError("sample specification", errInvalid("population %d out of range", s.Population))
		}
	}
	if c.Model == nil {
		return NewInputError("config", fmt.Errorf("missing [model] section"))
	}
	if err := c.Model.Validate(len(c.Populations)); err != nil {
		return err
	}
	for _, ev := range c.DemoEvents {
		if err := ev.Validate(len(c.Populations)); err != nil {
			return err
		}
	}
	if c.Mutation != nil && c.Mutation.Enabled {
		if err := c.Mutation.Validate(); err != nil {
			return err
		}
	}
	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}
	c.validated = true
	return nil
}

func (c *simParamsConfig) Validate() error {
	if c.SequenceLength <= 0 {
		return NewInputError("simulation", errInvalid("sequence_length %f must be > 0", c.SequenceLength))
	}
	if c.RecombinationRate < 0 {
		return NewInputError("simulation", errInvalid("recombination_rate %f must be >= 0", c.RecombinationRate))
	}
	if c.GeneConversionRate < 0 {
		return NewInputError("simulation", errInvalid("gene_conversion_rate %f must be >= 0", c.GeneConversionRate))
	}
	if c.GeneConversionRate > 0 && c.GeneConversionTrackLength <= 0 {
		return NewInputError("simulation", errInvalid("gene_conversion_track_length %f must be > 0 when gene_conversion_rate is set", c.GeneConversionTrackLength))
	}
	if len(c.Samples) < 1 {
		return NewInputError("simulation", fmt.Errorf("at least one sample is required"))
	}
	if c.EndTime <= c.StartTime {
		return NewInputError("simulation", errInvalid("end_time %f must be > start_time %f", c.EndTime, c.StartTime))
	}
	if c.Chunk <= 0 {
		c.Chunk = 10000
	}
	if c.BlockSize <= 0 {
		c.BlockSize = 1024
	}
	return nil
}

func (c *populationConfig) Validate(i int) error {
	if c.InitialSize <= 0 {
		return NewInputError("population", errInvalid("population %d initial_size %f must be > 0", i, c.InitialSize))
	}
	return nil
}

func (c *modelConfig) Validate(numPopulations int) error {
	err := checkKeyword("model", "name", strings.ToLower(c.Name),
		"hudson", "smc", "smc_prime", "dtwf", "wf_ped", "dirac", "beta", "sweep_genic_selection")
	if err != nil {
		return err
	}
	if c.ReferenceSize <= 0 && c.Name != "wf_ped" {
		return NewInputError("model", errInvalid("reference_size %f must be > 0", c.ReferenceSize))
	}
	if c.MigrationMatrix != nil {
		if _, err := NewMigrationMatrix(c.MigrationMatrix); err != nil {
			return err
		}
	}
	return nil
}

func (c *demoEventConfig) Validate(numPopulations int) error {
	return checkKeyword("demographic_event", "kind", c.Kind,
		string(EventPopulationParametersChange), string(EventMigrationRateChange),
		string(EventMassMigration), string(EventSimpleBottleneck),
		string(EventInstantaneousBottleneck), string(EventCensus))
}

func (c *mutationConfig) Validate() error {
	if err := checkKeyword("mutation", "alphabet", strings.ToLower(c.Alphabet), "binary", "nucleotide"); err != nil {
		return err
	}
	if c.Rate < 0 {
		return NewInputError("mutation", errInvalid("rate %f must be >= 0", c.Rate))
	}
	return nil
}

// mutationAlphabet maps the TOML alphabet keyword to the tables package's
// numeric alphabet constant.
func (c *mutationConfig) mutationAlphabet() int {
	if strings.ToLower(c.Alphabet) == "nucleotide" {
		return tables.AlphabetNucleotide
	}
	return tables.AlphabetBinary
}

func (c *loggingConfig) Validate() error {
	if c.Path == "" {
		return NewInputError("logging", fmt.Errorf("path must be set"))
	}
	if c.Kind == "" {
		c.Kind = "sqlite"
	}
	if err := checkKeyword("logging", "kind", strings.ToLower(c.Kind), "csv", "sqlite", "none"); err != nil {
		return err
	}
	if c.Frequency <= 0 {
		c.Frequency = 1
	}
	return nil
}

// SetLoggerKind overrides the [logging] section's writer kind, the
// knob cmd/coalesce-sim's -logger flag turns. Creating a [logging]
// section from only a kind makes little sense (there is no path to
// write to), so this is a no-op when the config carries none.
func (c *SimConfig) SetLoggerKind(kind string) {
	if c.Logging == nil {
		return
	}
	c.Logging.Kind = kind
}

// NewTableWriter builds the TableWriter named by the [logging] section,
// picking between the two persistence implementations the way the
// teacher's bin/contagion/main.go switches on -logger=csv|sqlite. A nil
// SimConfig.Logging or kind "none" yields a nil writer and no error.
func (c *SimConfig) NewTableWriter() (TableWriter, error) {
	if c.Logging == nil || strings.ToLower(c.Logging.Kind) == "none" {
		return nil, nil
	}
	switch strings.ToLower(c.Logging.Kind) {
	case "csv":
		return NewCSVTableWriter(c.Logging.Path), nil
	case "sqlite":
		return NewSQLiteTableWriter(c.Logging.Path), nil
	default:
		return nil, NewInputError("logging", errInvalid("kind %q is not a valid logger type (csv|sqlite|none)", c.Logging.Kind))
	}
}

// NewScheduler builds populations, demography, the coalescent model,
// the recorder and the scheduler from a validated configuration, and
// seeds the initial sample lineages. This mirrors the shape of the
// teacher's Config.NewSimulation factory method.
func (c *SimConfig) NewScheduler() (*Scheduler, []int32, error) {
	if !c.validated {
		if err := c.Validate(); err != nil {
			return nil, nil, err
		}
	}

	pops := make([]*Population, len(c.Populations))
	for i, p := range c.Populations {
		pops[i] = &Population{InitialSize: p.InitialSize, GrowthRate: p.GrowthRate, StartTime: c.SimParams.StartTime}
	}

	position := []float64{0, c.SimParams.SequenceLength}
	rate := []float64{c.SimParams.RecombinationRate}
	recombMap, err := NewRecombinationMap(position, rate, c.SimParams.Discrete)
	if err != nil {
		return nil, nil, err
	}
	geneConvMap, err := NewIntervalMap(position, []float64{c.SimParams.GeneConversionRate})
	if err != nil {
		return nil, nil, err
	}

	model, numLabels, err := c.Model.build(c.SimParams.SequenceLength)
	if err != nil {
		return nil, nil, err
	}

	ps := NewPopulationState(pops, numLabels, recombMap, geneConvMap, c.SimParams.BlockSize, c.SimParams.MaxBlocks)

	matrix := c.Model.MigrationMatrix
	if matrix == nil {
		matrix = make([][]float64, len(pops))
		for i := range matrix {
			matrix[i] = make([]float64, len(pops))
		}
	}
	mm, err := NewMigrationMatrix(matrix)
	if err != nil {
		return nil, nil, err
	}
	demo := NewDemography(mm)
	for _, ev := range c.DemoEvents {
		demo.AddEvent(&DemographicEvent{
			Time: ev.Time, Kind: DemographicEventKind(ev.Kind),
			Population: ev.Population, InitialSize: ev.InitialSize, GrowthRate: ev.GrowthRate,
			MatrixSrc: ev.MatrixSrc, MatrixDst: ev.MatrixDst, MigrationRate: ev.MigrationRate,
			Source: ev.Source, Dest: ev.Dest, Proportion: ev.Proportion, Strength: ev.Strength,
		})
	}

	tc := tables.NewCollection(c.SimParams.SequenceLength)
	rec := NewRecorder(tc, c.SimParams.RecordMigrations)
	rng := NewRNG(c.SimParams.Seed)

	samples := make([]SampleSpec, len(c.SimParams.Samples))
	for i, s := range c.SimParams.Samples {
		samples[i] = SampleSpec{Population: s.Population, Time: s.Time}
	}
	sampleIDs, err := SeedSamples(ps, rec, c.SimParams.SequenceLength, samples)
	if err != nil {
		return nil, nil, err
	}

	sch := NewScheduler(ps, model, demo, rec, rng, c.SimParams.SequenceLength, c.SimParams.StartTime, c.SimParams.EndTime, c.SimParams.Chunk)
	sch.RecombinationRate = c.SimParams.RecombinationRate
	sch.GeneConversionRate = c.SimParams.GeneConversionRate
	sch.GeneConversionTrackLength = c.SimParams.GeneConversionTrackLength

	if c.Mutation != nil && c.Mutation.Enabled {
		mutGen, err := c.buildMutationGenerator()
		if err != nil {
			return nil, nil, err
		}
		sch.Mutation = mutGen
	}
	return sch, sampleIDs, nil
}

// buildMutationGenerator constructs component I's MutationGenerator from
// the [mutation] section: a uniform substitution model over the
// configured alphabet and a rate map constant across the whole sequence.
func (c *SimConfig) buildMutationGenerator() (*MutationGenerator, error) {
	alphabet := c.Mutation.mutationAlphabet()
	model, err := NewUniformSubstitutionModel(alphabet)
	if err != nil {
		return nil, err
	}
	position := []float64{0, c.SimParams.SequenceLength}
	rateMap, err := NewIntervalMap(position, []float64{c.Mutation.Rate})
	if err != nil {
		return nil, err
	}
	timeEnd := c.Mutation.TimeEnd
	if timeEnd == 0 {
		timeEnd = math.Inf(1)
	}
	return NewMutationGenerator(rateMap, model, alphabet, c.Mutation.TimeStart, timeEnd, c.Mutation.Keep)
}

// build constructs the CoalescentModel named by the configuration.
func (c *modelConfig) build(sequenceLength float64) (CoalescentModel, int, error) {
	switch strings.ToLower(c.Name) {
	case "hudson":
		return NewHudsonModel(c.ReferenceSize), 1, nil
	case "smc":
		return NewSMCModel(c.ReferenceSize), 1, nil
	case "smc_prime":
		return NewSMCPrimeModel(c.ReferenceSize), 1, nil
	case "dtwf":
		return NewDTWFModel(c.ReferenceSize), 1, nil
	case "dirac":
		m, err := NewDiracModel(c.ReferenceSize, c.Psi, c.C)
		return m, 1, err
	case "beta":
		m, err := NewBetaModel(c.ReferenceSize, c.Alpha, c.TruncationPoint)
		return m, 1, err
	case "sweep_genic_selection":
		m, err := NewSweepModel(c.ReferenceSize, c.Position, c.StartFrequency, c.EndFrequency, c.Alpha, c.Dt)
		return m, 2, err
	case "wf_ped":
		return nil, 0, NewInputError("model", fmt.Errorf("wf_ped requires a pedigree; use NewWFPedigreeModel directly"))
	default:
		return nil, 0, NewInputError("model", fmt.Errorf("unrecognized model name %q", c.Name))
	}
}
