// Package core provides the cycle-accurate Tomasulo core model.
// It wraps the pipeline engine to provide a high-level interface.
package core

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// DefaultMaxCycles bounds Run so a program that never halts still returns.
const DefaultMaxCycles = 1_000_000

// Metrics holds performance statistics for the core.
type Metrics struct {
	// CyclesElapsed is the total number of cycles simulated.
	CyclesElapsed uint64
	// InstructionsCommitted is the number of instructions retired.
	InstructionsCommitted uint64
	// StallCycles is the number of cycles in which issue was blocked.
	StallCycles uint64
	// BranchAccuracy is the fraction of correctly predicted branches.
	BranchAccuracy float64
	// Mispredictions is the number of mispredicted branches.
	Mispredictions uint64
	// Flushes is the number of misprediction recoveries.
	Flushes uint64
}

// IPC returns the committed instructions per cycle.
func (m Metrics) IPC() float64 {
	if m.CyclesElapsed == 0 {
		return 0
	}
	return float64(m.InstructionsCommitted) / float64(m.CyclesElapsed)
}

// BranchAccuracyPercent returns the branch accuracy as a percentage.
func (m Metrics) BranchAccuracyPercent() float64 {
	return m.BranchAccuracy * 100
}

// Option configures a Core.
type Option func(*Core)

// WithMaxCycles bounds Run. Zero removes the bound.
func WithMaxCycles(n uint64) Option {
	return func(c *Core) {
		c.maxCycles = n
	}
}

// WithLogger sets the logger of the underlying engine.
func WithLogger(log logr.Logger) Option {
	return func(c *Core) {
		c.engineOpts = append(c.engineOpts, pipeline.WithLogger(log))
	}
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...pipeline.EngineOption) Option {
	return func(c *Core) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// Core represents a cycle-accurate Tomasulo core.
type Core struct {
	// Engine is the underlying out-of-order engine.
	Engine *pipeline.Engine

	engineOpts []pipeline.EngineOption
	maxCycles  uint64
	err        error
}

// NewCore creates a core with the given timing configuration. A nil config
// selects the defaults.
func NewCore(config *latency.TimingConfig, opts ...Option) (*Core, error) {
	c := &Core{maxCycles: DefaultMaxCycles}
	for _, opt := range opts {
		opt(c)
	}

	engine, err := pipeline.NewEngine(config, c.engineOpts...)
	if err != nil {
		return nil, err
	}
	c.Engine = engine

	return c, nil
}

// LoadProgram validates and loads a program, resetting all state.
func (c *Core) LoadProgram(p *insts.Program) error {
	c.err = c.Engine.Load(p)
	return c.err
}

// Step executes one cycle.
func (c *Core) Step() pipeline.CycleReport {
	return c.Engine.Tick()
}

// Run executes the core until it halts or the cycle bound is reached, and
// returns the metrics. Err reports why a run stopped early.
func (c *Core) Run() Metrics {
	c.err = c.Engine.Run(c.maxCycles)
	return c.Metrics()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Engine.RunCycles(cycles)
}

// Err returns the error of the last LoadProgram or Run, or nil.
func (c *Core) Err() error {
	return c.err
}

// Reset restores the state right after the last LoadProgram.
func (c *Core) Reset() {
	c.Engine.Reset()
	c.err = c.Engine.LoadError()
}

// Halted returns true once HLT committed or the program ran out.
func (c *Core) Halted() bool {
	return c.Engine.Halted()
}

// Metrics returns performance statistics for the core.
func (c *Core) Metrics() Metrics {
	s := c.Engine.Stats()
	return Metrics{
		CyclesElapsed:         s.Cycles,
		InstructionsCommitted: s.Instructions,
		StallCycles:           s.Stalls,
		BranchAccuracy:        s.BranchAccuracy(),
		Mispredictions:        s.BranchMispredictions,
		Flushes:               s.Flushes,
	}
}

// Registers returns the architectural register file.
func (c *Core) Registers() *emu.RegFile {
	return c.Engine.RegFile()
}

// Memory returns the data memory.
func (c *Core) Memory() *emu.Memory {
	return c.Engine.Memory()
}
