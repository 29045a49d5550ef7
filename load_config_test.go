package coalesce

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
[simulation]
sequence_length = 1.0
recombination_rate = 0.0
start_time = 0.0
end_time = 1e6
seed = 42
chunk = 100

[[simulation.samples]]
population = 0
time = 0.0

[[simulation.samples]]
population = 0
time = 0.0

[[population]]
initial_size = 10.0

[model]
name = "hudson"
reference_size = 10.0
`

func TestLoadConfig_ParsesAndRunsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	sch, sampleIDs, err := cfg.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}
	if len(sampleIDs) != 2 {
		t.Fatalf("expected 2 seeded samples from the TOML config, instead got %d", len(sampleIDs))
	}

	exit, err := sch.Run(10000)
	if err != nil {
		t.Fatal(err)
	}
	if exit != ExitCoalesced {
		t.Errorf("expected two samples with no recombination to coalesce, instead got exit code %v", exit)
	}
}

func TestLoadConfig_MissingFileReturnsInputError(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml")); err == nil {
		t.Error("expected an error for a missing config file, instead got none")
	}
}
