package emu

import "github.com/sarchlab/tomasim/insts"

// Compute returns the result of an arithmetic opcode on two operands.
// Arithmetic is two's complement modulo 2^64: ADD, SUB and MUL wrap on
// overflow. DIV truncates toward zero, a zero divisor yields 0 and
// MinInt64 / -1 yields MinInt64.
func Compute(op insts.Op, a, b int64) int64 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return a + b
	case insts.OpSUB, insts.OpSUBI:
		return a - b
	case insts.OpMUL:
		return a * b
	case insts.OpDIV:
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return 0
	}
}

// EffectiveAddress returns base + offset with wraparound.
func EffectiveAddress(base, offset int64) int64 {
	return base + offset
}

// ALU implements the arithmetic instructions against a register file.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Execute performs an arithmetic instruction: Rd = Rs op (Rt | Imm).
func (a *ALU) Execute(inst *insts.Instruction) {
	op1 := a.regFile.ReadReg(inst.Rs)
	var op2 int64
	if inst.Op.Format() == insts.FormatImm {
		op2 = inst.Imm
	} else {
		op2 = a.regFile.ReadReg(inst.Rt)
	}
	a.regFile.WriteReg(inst.Rd, Compute(inst.Op, op1, op2))
}
