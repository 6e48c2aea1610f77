package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
)

// ErrCycleLimit is returned by Run when the engine is still running after
// the allowed number of cycles.
var ErrCycleLimit = errors.New("cycle limit reached")

// ErrNotLoaded is returned by Run when no program has been loaded.
var ErrNotLoaded = errors.New("no program loaded")

// Hook positions fired by the engine. The hook item is the matching
// record type of the cycle report.
var (
	HookPosIssue     = &sim.HookPos{Name: "Issue"}
	HookPosBroadcast = &sim.HookPos{Name: "Broadcast"}
	HookPosCommit    = &sim.HookPos{Name: "Commit"}
	HookPosFlush     = &sim.HookPos{Name: "Flush"}
	HookPosStall     = &sim.HookPos{Name: "Stall"}
	HookPosHalt      = &sim.HookPos{Name: "Halt"}
)

// State is the overall state of the engine.
type State uint8

// Engine states.
const (
	// StateIdle means no program is loaded.
	StateIdle State = iota
	StateRunning
	StateHalted
	// StateError means the last load failed; Tick does nothing.
	StateError
)

var stateNames = [...]string{"idle", "running", "halted", "error"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Statistics holds engine performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions committed, HLT included.
	Instructions uint64
	// Issued is the number of instructions issued, flushed ones included.
	Issued uint64
	// Stalls is the number of cycles in which issue was blocked.
	Stalls uint64
	// StationStalls, ROBStalls and BranchStalls break Stalls down by
	// cause.
	StationStalls uint64
	ROBStalls     uint64
	BranchStalls  uint64
	// Broadcasts is the number of results sent on the common data bus.
	Broadcasts uint64
	// Flushes is the number of misprediction recoveries.
	Flushes uint64
	// Squashed is the number of reorder buffer entries discarded by flushes.
	Squashed uint64
	// BranchPredictions is the number of branches resolved at commit.
	BranchPredictions uint64
	// BranchCorrect is the number of correct branch predictions.
	BranchCorrect uint64
	// BranchMispredictions is the number of branch mispredictions.
	BranchMispredictions uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// IPC returns the committed instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// BranchAccuracy returns the fraction of correctly predicted branches.
// It is 1 when no branch has been resolved.
func (s Statistics) BranchAccuracy() float64 {
	if s.BranchPredictions == 0 {
		return 1
	}
	return float64(s.BranchCorrect) / float64(s.BranchPredictions)
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Flushes and halts are logged at V(1) and
// per-cycle activity at V(2).
func WithLogger(log logr.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithBranchPredictor sets the branch predictor configuration.
func WithBranchPredictor(config BranchPredictorConfig) EngineOption {
	return func(e *Engine) {
		e.predictorConfig = config
	}
}

// Engine is a Tomasulo out-of-order core with a reorder buffer and
// single-branch speculation. It owns every table it mutates; callers
// observe it through cycle reports.
//
// Each Tick runs the stages in the fixed order commit, write-result,
// execute, issue.
type Engine struct {
	*sim.HookableBase

	config *latency.TimingConfig
	table  *latency.Table
	log    logr.Logger

	// Architectural state
	program *insts.Program
	regFile *emu.RegFile
	memory  *emu.Memory

	// Tomasulo structures
	regStatus *RegisterStatusTable
	stations  *StationPool
	units     *UnitPool
	cdb       *CDB
	rob       *ReorderBuffer
	hazards   *HazardUnit

	// Branch prediction
	predictorConfig BranchPredictorConfig
	predictor       *BranchPredictor

	// Superscalar configuration
	superscalarConfig SuperscalarConfig

	// Execution state
	state      State
	loadErr    error
	fetch      int
	nextSeq    uint64
	haltIssued bool

	// Statistics
	stats Statistics

	// report collects the events of the cycle in progress.
	report CycleReport
}

// NewEngine creates an engine with the given timing configuration. A nil
// config selects the defaults.
func NewEngine(config *latency.TimingConfig, opts ...EngineOption) (*Engine, error) {
	if config == nil {
		config = latency.DefaultTimingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}
	config = config.Clone()

	counts := func(get func(insts.Class) int) map[insts.Class]int {
		m := make(map[insts.Class]int, len(insts.ExecClasses))
		for _, c := range insts.ExecClasses {
			m[c] = get(c)
		}
		return m
	}

	e := &Engine{
		HookableBase:    sim.NewHookableBase(),
		config:          config,
		table:           latency.NewTableWithConfig(config),
		log:             logr.Discard(),
		regFile:         &emu.RegFile{},
		memory:          emu.NewMemoryWithWords(config.MemoryWords),
		regStatus:       NewRegisterStatusTable(),
		stations:        NewStationPool(counts(config.Stations)),
		units:           NewUnitPool(counts(config.Units)),
		cdb:             NewCDB(config.CDBPolicy),
		rob:             NewReorderBuffer(config.ROBSize),
		predictorConfig: DefaultBranchPredictorConfig(),
		superscalarConfig: SuperscalarConfig{
			IssueWidth:  config.IssueWidth,
			CommitWidth: config.CommitWidth,
		},
	}
	e.hazards = NewHazardUnit(e.memory)

	for _, opt := range opts {
		opt(e)
	}

	e.predictor = NewBranchPredictor(e.predictorConfig)
	if e.superscalarConfig.IssueWidth <= 0 {
		e.superscalarConfig.IssueWidth = 1
	}
	if e.superscalarConfig.CommitWidth <= 0 {
		e.superscalarConfig.CommitWidth = 1
	}

	return e, nil
}

// Load validates a program and resets the engine to run it. On failure
// the engine enters StateError and keeps no program.
func (e *Engine) Load(p *insts.Program) error {
	if p == nil {
		p = insts.NewProgram()
	}
	if err := p.Validate(); err != nil {
		e.program = nil
		e.Reset()
		e.state = StateError
		e.loadErr = err
		return err
	}

	e.program = p.Clone()
	e.Reset()
	e.log.V(1).Info("program loaded", "instructions", e.program.Len(), "data", len(e.program.Data))
	return nil
}

// Reset restores the state right after the last successful Load: empty
// tables, zeroed registers, the initial memory image and a cleared
// predictor.
func (e *Engine) Reset() {
	e.regFile.Reset()
	e.memory.Reset()
	e.regStatus.Reset()
	e.stations.Reset()
	e.units.Reset()
	e.rob.Reset()
	e.predictor.Reset()

	e.fetch = 0
	e.nextSeq = 0
	e.haltIssued = false
	e.stats = Statistics{}
	e.report = CycleReport{}
	e.loadErr = nil

	if e.program == nil {
		e.state = StateIdle
		return
	}
	e.memory.Load(e.program.Data)
	e.state = StateRunning
}

// Tick advances the engine by exactly one cycle and returns the cycle's
// report. Outside StateRunning it only returns a snapshot.
func (e *Engine) Tick() CycleReport {
	if e.state != StateRunning {
		return e.Snapshot()
	}

	e.stats.Cycles++
	e.report = CycleReport{Cycle: e.stats.Cycles}

	e.commitStage()
	if e.state == StateRunning {
		e.writeResultStage()
		e.executeStage()
		e.issueStage()
		e.checkExhausted()
	}

	e.log.V(2).Info("cycle",
		"cycle", e.stats.Cycles,
		"issued", e.report.Issued,
		"broadcasts", len(e.report.Broadcasts),
		"committed", len(e.report.Committed),
		"stall", e.report.Stall.String(),
		"rob", e.rob.Len())

	return e.finishReport()
}

// Run ticks until the engine halts. A maxCycles of 0 means no limit.
func (e *Engine) Run(maxCycles uint64) error {
	switch e.state {
	case StateIdle:
		return ErrNotLoaded
	case StateError:
		return e.loadErr
	}

	for e.state == StateRunning {
		if maxCycles > 0 && e.stats.Cycles >= maxCycles {
			return fmt.Errorf("%w after %d cycles", ErrCycleLimit, e.stats.Cycles)
		}
		e.Tick()
	}
	return nil
}

// RunCycles executes at most the given number of cycles.
// Returns true if still running, false otherwise.
func (e *Engine) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && e.state == StateRunning; i++ {
		e.Tick()
	}
	return e.state == StateRunning
}

// checkExhausted halts the engine once the stream is consumed and every
// in-flight instruction has retired.
func (e *Engine) checkExhausted() {
	if e.state != StateRunning || e.haltIssued {
		return
	}
	if e.fetch >= e.program.Len() && e.rob.Empty() {
		e.halt("end of program")
	}
}

func (e *Engine) halt(reason string) {
	e.state = StateHalted
	e.log.V(1).Info("halted",
		"reason", reason,
		"cycle", e.stats.Cycles,
		"committed", e.stats.Instructions)
	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    HookPosHalt,
		Item:   reason,
		Detail: e.stats.Cycles,
	})
}

// State returns the overall engine state.
func (e *Engine) State() State {
	return e.state
}

// Halted returns true if the engine has halted.
func (e *Engine) Halted() bool {
	return e.state == StateHalted
}

// LoadError returns the error of the last failed Load, or nil.
func (e *Engine) LoadError() error {
	return e.loadErr
}

// Stats returns engine statistics.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// Fetch returns the index of the next instruction to issue.
func (e *Engine) Fetch() int {
	return e.fetch
}

// Program returns the loaded program, or nil.
func (e *Engine) Program() *insts.Program {
	return e.program
}

// RegFile returns the architectural register file.
func (e *Engine) RegFile() *emu.RegFile {
	return e.regFile
}

// Memory returns the data memory.
func (e *Engine) Memory() *emu.Memory {
	return e.memory
}

// Predictor returns the branch predictor.
func (e *Engine) Predictor() *BranchPredictor {
	return e.predictor
}

// Config returns a copy of the timing configuration.
func (e *Engine) Config() *latency.TimingConfig {
	return e.config.Clone()
}
