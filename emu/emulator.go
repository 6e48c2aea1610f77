package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tomasim/insts"
)

// ErrMaxInstructions is reported when the instruction limit is reached
// before the program halts.
var ErrMaxInstructions = errors.New("max instructions reached")

// ErrNoProgram is reported when stepping an emulator with no program.
var ErrNoProgram = errors.New("no program loaded")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once HLT executed or the PC left the program.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes a program sequentially, one instruction at a time,
// with no speculation. Its final state is the reference the timing
// engine must reproduce.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	program *insts.Program

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// Execution state
	halted           bool
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	memoryWords      uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithMemoryWords sets the data memory capacity in words.
func WithMemoryWords(words uint64) EmulatorOption {
	return func(e *Emulator) {
		e.memoryWords = words
	}
}

// NewEmulator creates a new emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.memory = NewMemoryWithWords(e.memoryWords)
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.branchUnit = NewBranchUnit(e.regFile)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Halted returns true once the program has finished.
func (e *Emulator) Halted() bool {
	return e.halted
}

// LoadProgram validates a program, resets the machine and seeds memory
// with the program's data image.
func (e *Emulator) LoadProgram(p *insts.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.program = p
	e.Reset()
	return nil
}

// Reset restores the state right after LoadProgram.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.memory.Reset()
	if e.program != nil {
		e.memory.Load(e.program.Data)
	}
	e.halted = false
	e.instructionCount = 0
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.program == nil {
		return StepResult{Err: ErrNoProgram}
	}
	if e.halted {
		return StepResult{Halted: true}
	}

	inst := e.program.At(e.regFile.PC)
	if inst == nil {
		e.halted = true
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("%w at index %d", ErrMaxInstructions, e.regFile.PC)}
	}

	e.execute(inst)
	e.instructionCount++

	return StepResult{Halted: e.halted}
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() StepResult {
	for {
		result := e.Step()
		if result.Halted || result.Err != nil {
			return result
		}
	}
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) {
	switch {
	case inst.IsHalt():
		e.halted = true
		return
	case inst.IsBranch():
		e.branchUnit.Execute(inst)
		return
	case inst.IsLoad():
		e.lsu.LD(inst)
	case inst.IsStore():
		e.lsu.SD(inst)
	default:
		e.alu.Execute(inst)
	}
	e.regFile.PC++
}
