package insts

import (
	"errors"
	"fmt"
)

// Structural errors reported when a program is rejected at load time.
var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrUnknownRegister = errors.New("unknown register")
	ErrUnresolvedLabel = errors.New("unresolved branch target")
	ErrDuplicateLabel  = errors.New("duplicate label")
	ErrOperandCount    = errors.New("malformed operand count")
	ErrBadImmediate    = errors.New("malformed immediate")
	ErrBadDirective    = errors.New("malformed directive")
)

// LoadError describes why a program was rejected.
type LoadError struct {
	// Line is the 1-based source line, or 0 when the program was not
	// assembled from text.
	Line int
	// Index is the instruction index, or -1 for errors outside an instruction.
	Index int
	// Text is the offending source text or token.
	Text string
	// Err is one of the structural sentinel errors.
	Err error
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
	case e.Index >= 0:
		return fmt.Sprintf("instruction %d: %q: %v", e.Index, e.Text, e.Err)
	default:
		return fmt.Sprintf("%q: %v", e.Text, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Program is a decoded instruction stream with its resolved labels and
// initial data memory image.
type Program struct {
	// Insts holds the instructions in program order.
	Insts []Instruction
	// Labels maps label names to instruction indices.
	Labels map[string]int
	// Data holds initial memory words keyed by address.
	Data map[int64]int64
}

// NewProgram builds a program from instructions whose branch targets are
// already resolved. Index fields are assigned from the slice order.
func NewProgram(instructions ...Instruction) *Program {
	p := &Program{
		Insts:  make([]Instruction, len(instructions)),
		Labels: map[string]int{},
		Data:   map[int64]int64{},
	}
	copy(p.Insts, instructions)
	for i := range p.Insts {
		p.Insts[i].Index = i
	}
	return p
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Insts)
}

// At returns the instruction at index, or nil when out of range.
func (p *Program) At(index int) *Instruction {
	if index < 0 || index >= len(p.Insts) {
		return nil
	}
	return &p.Insts[index]
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	c := &Program{
		Insts:  make([]Instruction, len(p.Insts)),
		Labels: make(map[string]int, len(p.Labels)),
		Data:   make(map[int64]int64, len(p.Data)),
	}
	copy(c.Insts, p.Insts)
	for k, v := range p.Labels {
		c.Labels[k] = v
	}
	for k, v := range p.Data {
		c.Data[k] = v
	}
	return c
}

// Validate checks the structural rules every loaded program must satisfy:
// known opcodes, known registers for every operand the format uses, and
// branch targets that resolve inside the program. A target equal to Len()
// is allowed and ends the instruction stream.
func (p *Program) Validate() error {
	for i := range p.Insts {
		inst := &p.Insts[i]
		if inst.Index != i {
			inst.Index = i
		}
		if err := p.validateInst(inst); err != nil {
			return &LoadError{Index: i, Text: inst.describe(), Err: err}
		}
	}
	return nil
}

func (p *Program) validateInst(inst *Instruction) error {
	if !inst.Op.Valid() {
		return ErrUnknownOpcode
	}

	var regs []Reg
	switch inst.Op.Format() {
	case FormatReg:
		regs = []Reg{inst.Rd, inst.Rs, inst.Rt}
	case FormatImm:
		regs = []Reg{inst.Rd, inst.Rs}
	case FormatMem:
		if inst.Op == OpSD {
			regs = []Reg{inst.Rt, inst.Rs}
		} else {
			regs = []Reg{inst.Rd, inst.Rs}
		}
	case FormatBranch:
		regs = []Reg{inst.Rs, inst.Rt}
	case FormatBranchZero:
		regs = []Reg{inst.Rs}
	}
	for _, r := range regs {
		if !r.Valid() {
			return ErrUnknownRegister
		}
	}

	if inst.IsBranch() {
		if inst.Target < 0 && inst.Label != "" {
			target, ok := p.Labels[inst.Label]
			if !ok {
				return ErrUnresolvedLabel
			}
			inst.Target = target
		}
		if inst.Target < 0 || inst.Target > len(p.Insts) {
			return ErrUnresolvedLabel
		}
	}

	return nil
}

func (i *Instruction) describe() string {
	if i.Text != "" {
		return i.Text
	}
	return i.String()
}
