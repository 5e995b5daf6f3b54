package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"salespulse/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Stage dwell distribution: uniform, weibull")
	outDir := flag.String("out", "./.cache", "Output directory for the generated CSV")
	name := flag.String("name", "deals", "Output file name (without .csv)")
	count := flag.Int("count", 200, "Number of deals to generate")
	seed := flag.Int64("seed", 0, "Random seed (0 picks one from the clock)")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Seed:         *seed,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *outDir)

	rows := engine.Generate(cfg)
	path, err := engine.Save(*outDir, *name, rows)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Point DEALS_CSV at %s\n", path)
}
