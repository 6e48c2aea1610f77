// Command benchmark runs the Tomasim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv     Output results in CSV format (default: human-readable)
//	-json    Output results in JSON format
//	-config  Timing configuration file (JSON or YAML)
//	-dual    Force 2-wide issue and commit
//	-core    Run only the core subset (loop, matrix multiply, branches)
//	-bench   Comma-separated benchmark names
//	-j       Number of benchmarks run in parallel
//	-v       Log verbosity
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// Every benchmark is also run on the sequential reference emulator; a
// result is marked verified only when the final state matches.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/timing/latency"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	configPath := flag.String("config", "", "Timing configuration file (JSON or YAML)")
	dualIssue := flag.Bool("dual", false, "Force 2-wide issue and commit")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	names := flag.String("bench", "", "Comma-separated benchmark names")
	jobs := flag.Int("j", runtime.NumCPU(), "Number of benchmarks run in parallel")
	verbosity := flag.Int("v", 0, "Log verbosity")
	flag.Parse()

	// Configure harness
	config := benchmarks.DefaultConfig()
	if *configPath != "" {
		timing, err := latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		config.Timing = timing
	}
	config.EnableDualIssue = *dualIssue
	config.Parallelism = *jobs
	config.Verbose = *verbosity > 0
	config.Output = os.Stdout
	config.Logger = funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{Verbosity: *verbosity})

	// Select benchmarks
	selected := benchmarks.GetMicrobenchmarks()
	if *coreOnly {
		selected = benchmarks.GetCoreBenchmarks()
	}
	if *names != "" {
		selected = nil
		for _, name := range strings.Split(*names, ",") {
			b, ok := benchmarks.Lookup(strings.TrimSpace(name))
			if !ok {
				fmt.Fprintf(os.Stderr, "Unknown benchmark %q\n", name)
				os.Exit(1)
			}
			selected = append(selected, b)
		}
	}

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks(selected)

	// Print configuration
	if !*csvOutput && !*jsonOutput {
		fmt.Println("Tomasim Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("ROB size:    %d\n", config.Timing.ROBSize)
		fmt.Printf("CDB policy:  %s\n", config.Timing.CDBPolicy)
		fmt.Printf("Dual issue:  %v\n", config.EnableDualIssue)
		fmt.Println("")
	}

	// Run benchmarks
	results, err := harness.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmarks: %v\n", err)
		os.Exit(1)
	}

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Benchmarks:   %d\n", summary.TotalBenchmarks)
		fmt.Printf("Verified:     %d\n", summary.Verified)
		fmt.Printf("Cycles:       %d\n", summary.TotalCycles)
		fmt.Printf("Instructions: %d\n", summary.TotalInstructions)
		fmt.Printf("CPI:          %.3f\n", summary.AverageCPI)
	}

	if benchmarks.Summarize(results).Verified != len(results) {
		os.Exit(1)
	}
}
