// Package benchmarks provides named programs and a harness that times them
// on the out-of-order engine and checks the results against the sequential
// reference emulator.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// Version is reported in JSON output.
const Version = "0.1.0"

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of committed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// IPC is instructions per cycle
	IPC float64 `json:"ipc"`

	// StallCycles is the number of cycles in which issue was blocked
	StallCycles uint64 `json:"stall_cycles"`

	// Per-cause stall counts
	StationStalls uint64 `json:"station_stalls"`
	ROBStalls     uint64 `json:"rob_stalls"`
	BranchStalls  uint64 `json:"branch_stalls"`

	// Flushes is the number of misprediction recoveries
	Flushes uint64 `json:"flushes"`

	// Squashed is the number of discarded reorder buffer entries
	Squashed uint64 `json:"squashed"`

	// Branch predictor stats
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent"`

	// Verified is true when the final registers and memory match the
	// reference emulator and the benchmark's expectations.
	Verified bool `json:"verified"`

	// Mismatch describes the first difference found, if any.
	Mismatch string `json:"mismatch,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly text of the program
	Source string

	// ExpectedRegs lists register values the program must end with
	ExpectedRegs map[insts.Reg]int64

	// ExpectedMemory lists memory words the program must end with
	ExpectedMemory map[int64]int64
}

// Program assembles the benchmark source.
func (b Benchmark) Program() (*insts.Program, error) {
	prog, err := insts.Parse(b.Source)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", b.Name, err)
	}
	return prog, nil
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Timing is the engine configuration; nil selects the defaults
	Timing *latency.TimingConfig

	// EnableDualIssue enables 2-wide issue and commit
	EnableDualIssue bool

	// MaxCycles bounds each run; zero selects core.DefaultMaxCycles
	MaxCycles uint64

	// Parallelism limits concurrent runs; zero or less runs one at a time
	Parallelism int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives per-benchmark progress
	Logger logr.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Timing:      latency.DefaultTimingConfig(),
		Parallelism: 1,
		Output:      os.Stdout,
		Logger:      logr.Discard(),
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 1
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results in the order they
// were added. A benchmark that fails to assemble or run is reported as
// unverified rather than aborting the others.
func (h *Harness) RunAll() []BenchmarkResult {
	results, _ := h.Run(context.Background())
	return results
}

// Run executes all benchmarks, up to Parallelism at a time. Each run gets
// its own engine. It returns early only when ctx is cancelled.
func (h *Harness) Run(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, len(h.benchmarks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Parallelism)

	for i, bench := range h.benchmarks {
		i, bench := i, bench // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = h.runBenchmark(bench)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	prog, err := bench.Program()
	if err != nil {
		result.Mismatch = err.Error()
		return result
	}

	opts := []core.Option{core.WithLogger(h.config.Logger.WithValues("benchmark", bench.Name))}
	if h.config.MaxCycles > 0 {
		opts = append(opts, core.WithMaxCycles(h.config.MaxCycles))
	}
	if h.config.EnableDualIssue {
		opts = append(opts, core.WithEngineOptions(pipeline.WithDualIssue()))
	}

	c, err := core.NewCore(h.config.Timing, opts...)
	if err != nil {
		result.Mismatch = err.Error()
		return result
	}
	if err := c.LoadProgram(prog); err != nil {
		result.Mismatch = err.Error()
		return result
	}

	// Run simulation and measure time
	start := time.Now()
	c.Run()
	result.WallTime = time.Since(start)

	stats := c.Engine.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.IPC = stats.IPC()
	result.StallCycles = stats.Stalls
	result.StationStalls = stats.StationStalls
	result.ROBStalls = stats.ROBStalls
	result.BranchStalls = stats.BranchStalls
	result.Flushes = stats.Flushes
	result.Squashed = stats.Squashed
	result.BranchPredictions = stats.BranchPredictions
	result.BranchCorrect = stats.BranchCorrect
	result.BranchMispredictions = stats.BranchMispredictions
	result.BranchAccuracyPercent = c.Metrics().BranchAccuracyPercent()

	if err := c.Err(); err != nil {
		result.Mismatch = err.Error()
		return result
	}

	result.Mismatch = Verify(bench, prog, c.Registers(), c.Memory())
	result.Verified = result.Mismatch == ""

	h.config.Logger.V(1).Info("benchmark done",
		"name", bench.Name,
		"cycles", result.SimulatedCycles,
		"verified", result.Verified)

	return result
}

// Verify compares the final state with the reference emulator and the
// benchmark's expectations. It returns "" when everything matches.
func Verify(bench Benchmark, prog *insts.Program, regs *emu.RegFile, memory *emu.Memory) string {
	ref := emu.NewEmulator(emu.WithMemoryWords(memory.Words()))
	if err := ref.LoadProgram(prog); err != nil {
		return err.Error()
	}
	if res := ref.Run(); res.Err != nil {
		return fmt.Sprintf("reference: %v", res.Err)
	}

	for r := insts.Reg(0); r < insts.NumRegs; r++ {
		if got, want := regs.ReadReg(r), ref.RegFile().ReadReg(r); got != want {
			return fmt.Sprintf("%s = %d, reference has %d", r, got, want)
		}
	}

	got, want := memory.NonZero(), ref.Memory().NonZero()
	for _, addr := range sortedKeys(want, got) {
		if got[addr] != want[addr] {
			return fmt.Sprintf("mem[%d] = %d, reference has %d", addr, got[addr], want[addr])
		}
	}

	for _, r := range sortedRegs(bench.ExpectedRegs) {
		if got := regs.ReadReg(r); got != bench.ExpectedRegs[r] {
			return fmt.Sprintf("%s = %d, expected %d", r, got, bench.ExpectedRegs[r])
		}
	}
	for _, addr := range sortedKeys(bench.ExpectedMemory) {
		if got := memory.Read(addr); got != bench.ExpectedMemory[addr] {
			return fmt.Sprintf("mem[%d] = %d, expected %d", addr, got, bench.ExpectedMemory[addr])
		}
	}

	return ""
}

func sortedKeys(maps ...map[int64]int64) []int64 {
	seen := map[int64]bool{}
	var keys []int64
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedRegs(m map[insts.Reg]int64) []insts.Reg {
	regs := make([]insts.Reg, 0, len(m))
	for r := range m {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
	return regs
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	_, _ = fmt.Fprintln(w, "=== Tomasim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		if r.Verified {
			_, _ = fmt.Fprintln(w, "  Verified: yes")
		} else {
			_, _ = fmt.Fprintf(w, "  Verified: NO (%s)\n", r.Mismatch)
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(w, "  IPC:                  %.3f\n", r.IPC)
		_, _ = fmt.Fprintf(w, "  Stall Cycles:         %d\n", r.StallCycles)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(w, "    Station Stalls:     %d\n", r.StationStalls)
			_, _ = fmt.Fprintf(w, "    ROB Stalls:         %d\n", r.ROBStalls)
			_, _ = fmt.Fprintf(w, "    Branch Stalls:      %d\n", r.BranchStalls)
		}
		_, _ = fmt.Fprintf(w, "  Flushes:              %d\n", r.Flushes)

		if r.BranchPredictions > 0 {
			_, _ = fmt.Fprintln(w, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(w, "  Predictions:     %d\n", r.BranchPredictions)
			_, _ = fmt.Fprintf(w, "  Correct:         %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(w, "  Mispredictions:  %d\n", r.BranchMispredictions)
			_, _ = fmt.Fprintf(w, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}

		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,ipc,stalls,station_stalls,rob_stalls,branch_stalls,flushes,mispredictions,accuracy_percent,verified")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%.3f,%d,%d,%d,%d,%d,%d,%.1f,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.IPC,
			r.StallCycles,
			r.StationStalls,
			r.ROBStalls,
			r.BranchStalls,
			r.Flushes,
			r.BranchMispredictions,
			r.BranchAccuracyPercent,
			r.Verified,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// RunID uniquely identifies the run so reports can be joined later
	RunID string `json:"run_id"`

	// Version of the simulator
	Version string `json:"version"`

	// Config is the timing configuration used
	Config *latency.TimingConfig `json:"config"`

	// DualIssue reports whether 2-wide issue was forced
	DualIssue bool `json:"dual_issue"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Verified is the number of benchmarks that matched the reference
	Verified int `json:"verified"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the aggregate cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
		if r.Verified {
			s.Verified++
		}
	}
	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	timing := h.config.Timing
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RunID:     xid.New().String(),
			Version:   Version,
			Config:    timing,
			DualIssue: h.config.EnableDualIssue,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
