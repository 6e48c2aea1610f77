// Package main provides a profiling wrapper for Tomasim to identify
// performance bottlenecks in the simulator itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
)

var (
	emulate    = flag.Bool("emu", false, "Profile the reference emulator instead of the timing model")
	configPath = flag.String("config", "", "Timing configuration file (JSON or YAML)")
	benchName  = flag.String("bench", "", "Profile a named microbenchmark instead of a file")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	repeat     = flag.Int("repeat", 100, "number of times the program is reset and rerun")
	maxCycles  = flag.Uint64("max-cycles", core.DefaultMaxCycles, "cycle limit per run (0 = unlimited)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && *benchName == "" {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "       profile [options] -bench <name>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	prog, name, err := loadProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded: %s (%d instructions)\n", name, prog.Len())

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	var cycles, instrCount uint64
	if *emulate {
		instrCount, err = runEmulationProfile(prog)
	} else {
		cycles, instrCount, err = runTimingProfile(prog)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Runs: %d\n", *repeat)
	fmt.Printf("Instructions committed: %d\n", instrCount)
	if cycles > 0 {
		fmt.Printf("Cycles simulated: %d\n", cycles)
	}
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
	if cycles > 0 {
		fmt.Printf("Cycles/second: %.0f\n", float64(cycles)/elapsed.Seconds())
	}
}

func loadProgram() (*insts.Program, string, error) {
	if *benchName != "" {
		b, ok := benchmarks.Lookup(*benchName)
		if !ok {
			return nil, "", fmt.Errorf("unknown benchmark %q", *benchName)
		}
		prog, err := b.Program()
		return prog, b.Name, err
	}

	path := flag.Arg(0)
	prog, err := loader.Load(path)
	return prog, path, err
}

// runEmulationProfile runs the program on the reference emulator.
func runEmulationProfile(prog *insts.Program) (uint64, error) {
	opts := []emu.EmulatorOption{}
	if *maxCycles > 0 {
		opts = append(opts, emu.WithMaxInstructions(*maxCycles))
	}

	emulator := emu.NewEmulator(opts...)
	if err := emulator.LoadProgram(prog); err != nil {
		return 0, err
	}

	var total uint64
	for i := 0; i < *repeat; i++ {
		emulator.Reset()
		if res := emulator.Run(); res.Err != nil {
			return total, res.Err
		}
		total += emulator.InstructionCount()
	}
	return total, nil
}

// runTimingProfile runs the program on the out-of-order engine.
func runTimingProfile(prog *insts.Program) (uint64, uint64, error) {
	timingConfig := latency.DefaultTimingConfig()
	if *configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			return 0, 0, err
		}
	}

	c, err := core.NewCore(timingConfig, core.WithMaxCycles(*maxCycles))
	if err != nil {
		return 0, 0, err
	}
	if err := c.LoadProgram(prog); err != nil {
		return 0, 0, err
	}

	var cycles, instrs uint64
	for i := 0; i < *repeat; i++ {
		c.Reset()
		m := c.Run()
		if err := c.Err(); err != nil {
			return cycles, instrs, err
		}
		cycles += m.CyclesElapsed
		instrs += m.InstructionsCommitted
	}
	return cycles, instrs, nil
}
