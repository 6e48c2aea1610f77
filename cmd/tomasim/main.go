// Package main provides the entry point for Tomasim, a cycle-accurate
// Tomasulo out-of-order core simulator.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// options holds the parsed command line.
type options struct {
	emulate    bool
	configPath string
	verbosity  int
	trace      bool
	dump       bool
	check      bool
	dualIssue  bool
	maxCycles  uint64
	jobs       int
	paths      []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("tomasim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.emulate, "emu", false, "Run the sequential reference emulator instead of the timing model")
	fs.StringVar(&opts.configPath, "config", "", "Path to timing configuration JSON or YAML file")
	fs.IntVar(&opts.verbosity, "v", 0, "Log verbosity (1: flushes and halts, 2: every cycle)")
	fs.BoolVar(&opts.trace, "trace", false, "Print issue, broadcast, commit, flush and stall events")
	fs.BoolVar(&opts.dump, "dump", false, "Print stations, reorder buffer and registers after every cycle")
	fs.BoolVar(&opts.check, "check", false, "Compare the final state with the reference emulator")
	fs.BoolVar(&opts.dualIssue, "dual", false, "Force 2-wide issue and commit")
	fs.Uint64Var(&opts.maxCycles, "max-cycles", core.DefaultMaxCycles, "Cycle limit per program (0 = unlimited)")
	fs.IntVar(&opts.jobs, "j", 1, "Number of programs simulated in parallel")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: tomasim [options] <program.asm|dir>...\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, errors.New("no program given")
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}

	paths, err := loader.Glob(fs.Args()...)
	if err != nil {
		return nil, err
	}
	opts.paths = paths
	return opts, nil
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
		} else {
			_, _ = fmt.Fprintln(w, args)
		}
	}, funcr.Options{Verbosity: verbosity})
}

// run simulates every program and returns the process exit code. Programs
// run on independent engines; their reports are printed in argument order.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 1
	}

	timingConfig := latency.DefaultTimingConfig()
	if opts.configPath != "" {
		timingConfig, err = latency.LoadConfig(opts.configPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
			return 1
		}
	}

	log := newLogger(stderr, opts.verbosity)
	outputs := make([]bytes.Buffer, len(opts.paths))
	failed := make([]bool, len(opts.paths))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(opts.jobs)
	for i, path := range opts.paths {
		i, path := i, path // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			logger := log.WithValues("program", path)
			if err := simulate(&outputs[i], path, opts, timingConfig, logger); err != nil {
				logger.Error(err, "simulation failed")
				_, _ = fmt.Fprintf(&outputs[i], "Error: %v\n", err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	code := 0
	for i := range outputs {
		_, _ = stdout.Write(outputs[i].Bytes())
		if failed[i] {
			code = 1
		}
	}
	return code
}

func simulate(
	w io.Writer,
	path string,
	opts *options,
	timingConfig *latency.TimingConfig,
	log logr.Logger,
) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	log.V(1).Info("loaded", "instructions", prog.Len(), "data", len(prog.Data))

	if opts.emulate {
		return runEmulation(w, path, prog, opts, timingConfig)
	}
	return runTiming(w, path, prog, opts, timingConfig, log)
}

// runEmulation runs the program on the sequential reference emulator.
func runEmulation(
	w io.Writer,
	path string,
	prog *insts.Program,
	opts *options,
	timingConfig *latency.TimingConfig,
) error {
	emulator := emu.NewEmulator(
		emu.WithMaxInstructions(opts.maxCycles),
		emu.WithMemoryWords(timingConfig.MemoryWords),
	)
	if err := emulator.LoadProgram(prog); err != nil {
		return err
	}
	result := emulator.Run()

	_, _ = fmt.Fprintf(w, "\nProgram: %s\n", path)
	_, _ = fmt.Fprintf(w, "Instructions executed: %d\n", emulator.InstructionCount())
	writeRegisters(w, emulator.RegFile())
	writeMemory(w, emulator.Memory())

	return result.Err
}

// runTiming runs the program on the out-of-order engine.
func runTiming(
	w io.Writer,
	path string,
	prog *insts.Program,
	opts *options,
	timingConfig *latency.TimingConfig,
	log logr.Logger,
) error {
	coreOpts := []core.Option{
		core.WithLogger(log),
		core.WithMaxCycles(opts.maxCycles),
	}
	if opts.dualIssue {
		coreOpts = append(coreOpts, core.WithEngineOptions(pipeline.WithDualIssue()))
	}

	c, err := core.NewCore(timingConfig, coreOpts...)
	if err != nil {
		return err
	}
	if opts.trace {
		c.Engine.AcceptHook(newTracer(w))
	}
	if err := c.LoadProgram(prog); err != nil {
		return err
	}

	var m core.Metrics
	if opts.dump {
		for !c.Halted() {
			if opts.maxCycles > 0 && c.Metrics().CyclesElapsed >= opts.maxCycles {
				return fmt.Errorf("%w after %d cycles", pipeline.ErrCycleLimit, opts.maxCycles)
			}
			writeDump(w, c.Step())
		}
		m = c.Metrics()
	} else {
		m = c.Run()
		if err := c.Err(); err != nil {
			return err
		}
	}

	writeReport(w, path, m, c.Engine.Stats())
	writeRegisters(w, c.Registers())
	writeMemory(w, c.Memory())

	if opts.check {
		if mismatch := benchmarks.Verify(benchmarks.Benchmark{}, prog, c.Registers(), c.Memory()); mismatch != "" {
			return fmt.Errorf("reference check failed: %s", mismatch)
		}
		_, _ = fmt.Fprintln(w, "Reference check: ok")
	}

	return nil
}

func writeReport(w io.Writer, path string, m core.Metrics, stats pipeline.Statistics) {
	totalCycles := m.CyclesElapsed
	if totalCycles == 0 {
		totalCycles = 1
	}
	pct := func(n uint64) float64 {
		return 100.0 * float64(n) / float64(totalCycles)
	}

	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Program: %s\n", path)
	_, _ = fmt.Fprintf(w, "Total Instructions: %d\n", m.InstructionsCommitted)
	_, _ = fmt.Fprintf(w, "Total Cycles: %d\n", m.CyclesElapsed)
	_, _ = fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())
	_, _ = fmt.Fprintf(w, "IPC: %.2f\n", m.IPC())
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Issue stalls:\n")
	_, _ = fmt.Fprintf(w, "  Station full: %4d cycles (%5.1f%%)\n", stats.StationStalls, pct(stats.StationStalls))
	_, _ = fmt.Fprintf(w, "  ROB full:     %4d cycles (%5.1f%%)\n", stats.ROBStalls, pct(stats.ROBStalls))
	_, _ = fmt.Fprintf(w, "  Branch:       %4d cycles (%5.1f%%)\n", stats.BranchStalls, pct(stats.BranchStalls))
	_, _ = fmt.Fprintf(w, "  Total:        %4d cycles (%5.1f%%)\n", m.StallCycles, pct(m.StallCycles))
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Speculation:\n")
	_, _ = fmt.Fprintf(w, "  Branches:       %d\n", stats.BranchPredictions)
	_, _ = fmt.Fprintf(w, "  Mispredictions: %d\n", m.Mispredictions)
	_, _ = fmt.Fprintf(w, "  Accuracy:       %.1f%%\n", m.BranchAccuracyPercent())
	_, _ = fmt.Fprintf(w, "  Flushes:        %d\n", m.Flushes)
	_, _ = fmt.Fprintf(w, "  Squashed:       %d\n", stats.Squashed)
}
