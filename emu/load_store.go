package emu

import "github.com/sarchlab/tomasim/insts"

// LoadStoreUnit implements load and store operations.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// LD performs a load: Rd = mem[Rs + offset]
func (lsu *LoadStoreUnit) LD(inst *insts.Instruction) {
	addr := EffectiveAddress(lsu.regFile.ReadReg(inst.Rs), inst.Imm)
	lsu.regFile.WriteReg(inst.Rd, lsu.memory.Read(addr))
}

// SD performs a store: mem[Rs + offset] = Rt
func (lsu *LoadStoreUnit) SD(inst *insts.Instruction) {
	addr := EffectiveAddress(lsu.regFile.ReadReg(inst.Rs), inst.Imm)
	lsu.memory.Write(addr, lsu.regFile.ReadReg(inst.Rt))
}
