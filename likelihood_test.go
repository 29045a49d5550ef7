package coalesce

import (
	"math"
	"testing"

	"github.com/kentwait/coalesce/tables"
)

func TestLogLikelihoodHudson_RejectsNegativeRecombinationRate(t *testing.T) {
	tc := tables.NewCollection(1)
	if _, err := LogLikelihoodHudson(tc, 1, -0.1); err == nil {
		t.Error("expected an error for a negative recombination_rate, instead got none")
	}
}

func TestLogLikelihoodHudson_RejectsNonPositiveNe(t *testing.T) {
	tc := tables.NewCollection(1)
	if _, err := LogLikelihoodHudson(tc, 0, 0.1); err == nil {
		t.Error("expected an error for Ne <= 0, instead got none")
	}
}

func TestLogLikelihoodHudson_EmptyHistoryIsZero(t *testing.T) {
	tc := tables.NewCollection(1)
	tc.AddNode(tables.FlagIsSample, 0, 0, -1, nil)
	tc.AddNode(tables.FlagIsSample, 0, 0, -1, nil)
	ll, err := LogLikelihoodHudson(tc, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ll != 0 {
		t.Errorf("expected zero log-likelihood for a history with no CA/RE nodes, instead got %f", ll)
	}
}

func TestLogLikelihoodHudson_ComputesFiniteValue(t *testing.T) {
	tc, _ := simpleS1Tables()
	ll, err := LogLikelihoodHudson(tc, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		t.Errorf("expected a finite log-likelihood, instead got %f", ll)
	}
	if ll > 0 {
		t.Errorf("expected a non-positive log-likelihood, instead got %f", ll)
	}
}
