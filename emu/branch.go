package emu

import "github.com/sarchlab/tomasim/insts"

// BranchTaken evaluates a conditional branch on its operand values.
// Single-operand forms compare against zero and ignore b.
func BranchTaken(op insts.Op, a, b int64) bool {
	switch op {
	case insts.OpBEQ:
		return a == b
	case insts.OpBNE:
		return a != b
	case insts.OpBEQZ:
		return a == 0
	case insts.OpBNEZ:
		return a != 0
	default:
		return false
	}
}

// NextIndex returns the successor of a branch given its outcome.
func NextIndex(inst *insts.Instruction, taken bool) int {
	if taken {
		return inst.Target
	}
	return inst.FallThrough()
}

// BranchUnit implements conditional branches against a register file.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Execute evaluates the branch and moves the PC to its successor.
// It returns whether the branch was taken.
func (b *BranchUnit) Execute(inst *insts.Instruction) bool {
	a := b.regFile.ReadReg(inst.Rs)
	v := b.regFile.ReadReg(inst.Rt)
	taken := BranchTaken(inst.Op, a, v)
	b.regFile.PC = NextIndex(inst, taken)
	return taken
}
