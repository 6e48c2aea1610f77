// Package latency provides instruction timing and capacity configuration
// for the out-of-order core.
//
// Every instruction class executes with a fixed latency. The values and
// the structural capacities can be configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/tomasim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpADD, insts.OpSUB, insts.OpADDI, insts.OpSUBI:
		return t.config.AddLatency

	case insts.OpMUL:
		return t.config.MulLatency

	case insts.OpDIV:
		return t.config.DivLatency

	case insts.OpBEQ, insts.OpBNE, insts.OpBEQZ, insts.OpBNEZ:
		return t.config.BranchLatency

	case insts.OpLD:
		return t.config.LoadLatency

	case insts.OpSD:
		return t.config.StoreLatency

	default:
		return 1
	}
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsLoad() || inst.IsStore()
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsLoad()
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsStore()
}

// IsBranchOp returns true if the instruction is a branch operation.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsBranch()
}

// Stations returns the reservation station count of a class.
func (t *Table) Stations(class insts.Class) int {
	return t.config.Stations(class)
}

// Units returns the functional unit count of a class.
func (t *Table) Units(class insts.Class) int {
	return t.config.Units(class)
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
