// Package emu provides functional emulation of the simulated instruction set.
// It holds the architectural state shared with the timing engine and a
// sequential reference interpreter.
package emu

import "github.com/sarchlab/tomasim/insts"

// RegFile represents the architectural register file.
// It contains 32 general-purpose registers (R0-R31) and the program
// counter, expressed as an instruction index.
type RegFile struct {
	// R holds general-purpose registers R0-R31.
	// R0 is an ordinary register; it only starts out as zero.
	R [insts.NumRegs]int64

	// PC is the index of the next instruction.
	PC int
}

// ReadReg reads a register value. Invalid registers (e.g., NoReg) return 0.
func (r *RegFile) ReadReg(reg insts.Reg) int64 {
	if !reg.Valid() {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to invalid registers are ignored.
func (r *RegFile) WriteReg(reg insts.Reg, value int64) {
	if !reg.Valid() {
		return
	}
	r.R[reg] = value
}

// Reset zeroes every register and the PC.
func (r *RegFile) Reset() {
	*r = RegFile{}
}
