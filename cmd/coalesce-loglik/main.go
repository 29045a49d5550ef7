// Command coalesce-loglik scores a previously recorded replicate
// against a Hudson coalescent-with-recombination model, the
// single-purpose utility analogous to the teacher's bin/infection and
// bin/csv2sqlite binaries: load one input, validate, do the one thing
// this binary exists for.
package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	coalesce "github.com/kentwait/coalesce"
)

func main() {
	numCPUPtr := flag.Int("threads", runtime.NumCPU(), "number of CPU threads")
	nePtr := flag.Float64("ne", 1, "effective population size (Ne) to score under")
	recombRatePtr := flag.Float64("recombination-rate", 0, "per-site, per-generation recombination rate to score under")
	flag.Parse()

	runtime.GOMAXPROCS(*numCPUPtr)

	path := flag.Arg(0)
	if path == "" {
		log.Fatal("usage: coalesce-loglik [-ne N] [-recombination-rate R] <replicate.sqlite>")
	}

	t, err := coalesce.LoadSQLiteTables(path)
	if err != nil {
		log.Fatalf("error loading replicate from %s: %s", path, err)
	}

	logLik, err := coalesce.LogLikelihoodHudson(t, *nePtr, *recombRatePtr)
	if err != nil {
		log.Fatalf("error computing log-likelihood: %s", err)
	}
	fmt.Printf("%f\n", logLik)
}
