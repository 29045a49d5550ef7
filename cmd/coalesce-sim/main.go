// Command coalesce-sim runs a coalescent/ARG replicate from a TOML
// configuration file and writes its table collection to disk, the
// direct analogue of the teacher's bin/contagion binary: flag-parsed
// threads/logger/seed, a config load-and-validate step, then one run
// per replicate with per-replicate logging.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	coalesce "github.com/kentwait/coalesce"
)

func main() {
	numCPUPtr := flag.Int("threads", runtime.NumCPU(), "number of CPU threads")
	loggerType := flag.String("logger", "", "data logger type (csv|sqlite), overrides the config's [logging] kind when set")
	seedPtr := flag.Int64("seed", 0, "random seed, overrides the config's [simulation] seed when nonzero")
	flag.Parse()

	runtime.GOMAXPROCS(*numCPUPtr)

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: coalesce-sim [-threads N] [-logger csv|sqlite] [-seed N] <config.toml>")
	}

	conf, err := coalesce.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *loggerType != "" {
		conf.SetLoggerKind(*loggerType)
	}
	if *seedPtr != 0 {
		conf.SimParams.Seed = *seedPtr
	}

	start := time.Now()
	sch, sampleIDs, err := conf.NewScheduler()
	if err != nil {
		log.Fatalf("error building scheduler from configuration: %s", err)
	}

	// Each Run call is allowed to apply effectively unbounded events; the
	// yield that actually paces the loop is Scheduler.Chunk, threaded
	// from the config's [simulation] chunk field (spec.md §4.3 step 5 /
	// §5: "chunk bounds work between yields"). Every yield reports
	// ExitMaxEvents (spec.md §4.3's "MAX_EVENTS (yield)"); this loop is
	// where a host would check for cancellation before calling Run
	// again to resume from the same clock and lineage state.
	for {
		exit, err := sch.Run(math.MaxInt32)
		if err != nil {
			log.Fatalf("error running simulation: %s", err)
		}
		if exit == coalesce.ExitMaxEvents && !sch.PS.FullyCoalesced() {
			log.Printf("chunk boundary reached at time %f, continuing", sch.Time)
			continue
		}
		log.Printf("run finished with exit code %v after %s", exit, time.Since(start))
		break
	}

	if err := sch.Recorder.Finalize(sampleIDs); err != nil {
		log.Fatalf("error finalizing tables: %s", err)
	}
	if err := sch.ApplyMutations(); err != nil {
		log.Fatalf("error applying mutations: %s", err)
	}

	id := coalesce.RecordProvenance(sch.Recorder.Tables, "coalesce-sim", map[string]string{
		"config": configPath,
		"model":  conf.Model.Name,
	})
	log.Printf("recorded provenance %s", id)

	writer, err := conf.NewTableWriter()
	if err != nil {
		log.Fatalf("error building table writer: %s", err)
	}
	if writer == nil {
		log.Printf("no [logging] section configured, not persisting tables")
		return
	}
	if err := writer.Init(); err != nil {
		log.Fatalf("error initializing table writer: %s", err)
	}
	if err := writer.Write(sch.Recorder.Tables); err != nil {
		log.Fatalf("error writing tables: %s", err)
	}
	log.Printf("wrote replicate in %s", time.Since(start))
	fmt.Println(id)
}
