// Package insts provides instruction definitions for the Tomasulo simulator.
//
// This package describes the decoded instruction stream consumed by the
// timing engine and the reference emulator. It supports:
//   - Integer arithmetic: ADD, SUB, MUL, DIV and the immediate forms ADDI, SUBI
//   - Memory access: LD and SD with a base register and signed offset
//   - Conditional branches: BEQ, BNE, BEQZ, BNEZ
//   - HLT, which stops the machine when it commits
//
// Usage:
//
//	prog, err := insts.Parse("ADDI R1, R0, 100\nHLT\n")
//	if err != nil {
//		return err
//	}
//	fmt.Println(prog.Insts[0]) // ADDI R1, R0, 100
package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Op represents an opcode.
type Op uint8

// Opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpADDI
	OpSUBI
	OpLD
	OpSD
	OpBEQ
	OpBNE
	OpBEQZ
	OpBNEZ
	OpHLT
)

// Format represents the operand layout of an instruction.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatReg            // rd, rs, rt
	FormatImm            // rd, rs, imm
	FormatMem            // reg, off(base)
	FormatBranch         // rs, rt, label
	FormatBranchZero     // rs, label
	FormatNone           // no operands
)

// Class identifies the functional-unit class that executes an instruction.
type Class uint8

// Functional-unit classes.
const (
	ClassNone Class = iota
	ClassAdd
	ClassMul
	ClassLoad
	ClassStore
	ClassBranch
)

// NumClasses is the number of classes that own reservation stations.
const NumClasses = int(ClassBranch) + 1

// ExecClasses lists the classes that own reservation stations and
// functional units, in a fixed order.
var ExecClasses = []Class{ClassAdd, ClassMul, ClassLoad, ClassStore, ClassBranch}

var classNames = [...]string{"NONE", "ADD", "MUL", "LOAD", "STORE", "BRANCH"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "Class(" + strconv.Itoa(int(c)) + ")"
}

type opInfo struct {
	name   string
	format Format
	class  Class
}

var opTable = [...]opInfo{
	OpUnknown: {"???", FormatUnknown, ClassNone},
	OpADD:     {"ADD", FormatReg, ClassAdd},
	OpSUB:     {"SUB", FormatReg, ClassAdd},
	OpMUL:     {"MUL", FormatReg, ClassMul},
	OpDIV:     {"DIV", FormatReg, ClassMul},
	OpADDI:    {"ADDI", FormatImm, ClassAdd},
	OpSUBI:    {"SUBI", FormatImm, ClassAdd},
	OpLD:      {"LD", FormatMem, ClassLoad},
	OpSD:      {"SD", FormatMem, ClassStore},
	OpBEQ:     {"BEQ", FormatBranch, ClassBranch},
	OpBNE:     {"BNE", FormatBranch, ClassBranch},
	OpBEQZ:    {"BEQZ", FormatBranchZero, ClassBranch},
	OpBNEZ:    {"BNEZ", FormatBranchZero, ClassBranch},
	OpHLT:     {"HLT", FormatNone, ClassNone},
}

// mnemonics maps assembler mnemonics to opcodes, including aliases.
var mnemonics = map[string]Op{
	"ADD": OpADD, "SUB": OpSUB, "MUL": OpMUL, "DIV": OpDIV,
	"ADDI": OpADDI, "SUBI": OpSUBI,
	"LD": OpLD, "LW": OpLD,
	"SD": OpSD, "SW": OpSD,
	"BEQ": OpBEQ, "BNE": OpBNE, "BEQZ": OpBEQZ, "BNEZ": OpBNEZ,
	"HLT": OpHLT, "HALT": OpHLT,
}

// LookupOp returns the opcode for a mnemonic. Lookup is case-insensitive.
func LookupOp(mnemonic string) (Op, bool) {
	op, ok := mnemonics[strings.ToUpper(mnemonic)]
	return op, ok
}

func (o Op) String() string {
	if int(o) < len(opTable) && o != OpUnknown {
		return opTable[o].name
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// Format returns the operand layout of the opcode.
func (o Op) Format() Format {
	if int(o) < len(opTable) {
		return opTable[o].format
	}
	return FormatUnknown
}

// Class returns the functional-unit class of the opcode.
func (o Op) Class() Class {
	if int(o) < len(opTable) {
		return opTable[o].class
	}
	return ClassNone
}

// Valid reports whether o is a known opcode.
func (o Op) Valid() bool {
	return o > OpUnknown && int(o) < len(opTable)
}

// Reg is an architectural integer register number.
type Reg uint8

// NumRegs is the number of architectural registers (R0-R31).
const NumRegs = 32

// NoReg marks an unused register operand.
const NoReg Reg = 0xFF

// ParseReg parses a register name such as "R7" or "r7".
func ParseReg(name string) (Reg, bool) {
	if len(name) < 2 || (name[0] != 'R' && name[0] != 'r') {
		return NoReg, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n >= NumRegs {
		return NoReg, false
	}
	return Reg(n), true
}

// Valid reports whether r names an architectural register.
func (r Reg) Valid() bool {
	return r < NumRegs
}

func (r Reg) String() string {
	if !r.Valid() {
		return "-"
	}
	return "R" + strconv.Itoa(int(r))
}

// Instruction represents a decoded instruction.
type Instruction struct {
	Op Op // Operation code

	// Register operands. For LD, Rd is the destination and Rs the base.
	// For SD, Rt holds the value to store and Rs the base.
	Rd Reg
	Rs Reg
	Rt Reg

	// Imm is the immediate operand or the signed memory offset.
	Imm int64

	// Branch fields
	Label  string // Target label as written in the source
	Target int    // Resolved target index, only meaningful for branches

	// Index is the position of the instruction in the program. It doubles
	// as the branch site identifier for prediction.
	Index int

	// Text is the source line the instruction was assembled from.
	Text string
}

// Class returns the functional-unit class that executes the instruction.
func (i *Instruction) Class() Class {
	return i.Op.Class()
}

// IsBranch returns true for conditional branches.
func (i *Instruction) IsBranch() bool {
	return i.Op.Class() == ClassBranch
}

// IsLoad returns true for loads.
func (i *Instruction) IsLoad() bool {
	return i.Op == OpLD
}

// IsStore returns true for stores.
func (i *Instruction) IsStore() bool {
	return i.Op == OpSD
}

// IsHalt returns true for HLT.
func (i *Instruction) IsHalt() bool {
	return i.Op == OpHLT
}

// WritesReg returns true if the instruction produces a register value.
func (i *Instruction) WritesReg() bool {
	switch i.Op.Format() {
	case FormatReg, FormatImm:
		return true
	case FormatMem:
		return i.Op == OpLD
	default:
		return false
	}
}

// Dest returns the destination register, or NoReg.
func (i *Instruction) Dest() Reg {
	if i.WritesReg() {
		return i.Rd
	}
	return NoReg
}

// Sources returns the first and second source registers. Unused operands
// are NoReg. For memory operations the first source is the base register.
func (i *Instruction) Sources() (Reg, Reg) {
	switch i.Op.Format() {
	case FormatReg, FormatBranch:
		return i.Rs, i.Rt
	case FormatImm, FormatBranchZero:
		return i.Rs, NoReg
	case FormatMem:
		if i.Op == OpSD {
			return i.Rs, i.Rt
		}
		return i.Rs, NoReg
	default:
		return NoReg, NoReg
	}
}

// FallThrough returns the index of the next sequential instruction.
func (i *Instruction) FallThrough() int {
	return i.Index + 1
}

func (i Instruction) String() string {
	switch i.Op.Format() {
	case FormatReg:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Rd, i.Rs, i.Rt)
	case FormatImm:
		return fmt.Sprintf("%s %s, %s, %d", i.Op, i.Rd, i.Rs, i.Imm)
	case FormatMem:
		reg := i.Rd
		if i.Op == OpSD {
			reg = i.Rt
		}
		return fmt.Sprintf("%s %s, %d(%s)", i.Op, reg, i.Imm, i.Rs)
	case FormatBranch:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Rs, i.Rt, i.targetString())
	case FormatBranchZero:
		return fmt.Sprintf("%s %s, %s", i.Op, i.Rs, i.targetString())
	case FormatNone:
		return i.Op.String()
	default:
		if i.Text != "" {
			return i.Text
		}
		return i.Op.String()
	}
}

func (i Instruction) targetString() string {
	if i.Label != "" {
		return i.Label
	}
	return "@" + strconv.Itoa(i.Target)
}
