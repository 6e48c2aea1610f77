// Package pipeline provides the Tomasulo out-of-order engine for timing
// simulation.
package pipeline

import (
	"strconv"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// Tag identifies an in-flight instruction. It is the index of the
// instruction's reorder buffer slot, so it is recycled once the
// instruction commits or is flushed.
type Tag int

// NoTag marks the absence of a producer.
const NoTag Tag = -1

func (t Tag) String() string {
	if t == NoTag {
		return "-"
	}
	return "#" + strconv.Itoa(int(t))
}

// Operand is a source value that is either ready or waiting for a tag.
type Operand struct {
	Ready bool
	Value int64
	Tag   Tag
}

// ReadyOperand returns an operand holding a concrete value.
func ReadyOperand(v int64) Operand {
	return Operand{Ready: true, Value: v, Tag: NoTag}
}

// PendingOperand returns an operand waiting for the producer tag.
func PendingOperand(tag Tag) Operand {
	return Operand{Tag: tag}
}

// RegisterStatus is the rename state of one architectural register.
//
// With Tag == NoTag the architectural register file holds the value.
// Otherwise Tag names the youngest issued producer; Pending is true until
// that producer broadcasts, after which Value holds its result. The tag
// stays bound after the broadcast so commit can tell whether the binding
// still refers to the committing instruction.
type RegisterStatus struct {
	Tag     Tag
	Pending bool
	Value   int64
}

// Free reports whether the register has no in-flight producer.
func (s RegisterStatus) Free() bool {
	return s.Tag == NoTag
}

// RegisterStatusTable maps architectural registers to their producers.
type RegisterStatusTable struct {
	entries [insts.NumRegs]RegisterStatus
}

// NewRegisterStatusTable creates a table with every register free.
func NewRegisterStatusTable() *RegisterStatusTable {
	t := &RegisterStatusTable{}
	t.Reset()
	return t
}

// Read resolves a source register. Unbound registers read the
// architectural value; NoReg reads as a ready zero.
func (t *RegisterStatusTable) Read(reg insts.Reg, arch *emu.RegFile) Operand {
	if !reg.Valid() {
		return ReadyOperand(0)
	}

	s := t.entries[reg]
	switch {
	case s.Free():
		return ReadyOperand(arch.ReadReg(reg))
	case s.Pending:
		return PendingOperand(s.Tag)
	default:
		return ReadyOperand(s.Value)
	}
}

// Bind renames reg to a new producer. A later bind overwrites an earlier
// one.
func (t *RegisterStatusTable) Bind(reg insts.Reg, tag Tag) {
	if !reg.Valid() {
		return
	}
	t.entries[reg] = RegisterStatus{Tag: tag, Pending: true}
}

// Resolve records a broadcast value on every register still bound to tag.
func (t *RegisterStatusTable) Resolve(tag Tag, value int64) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Tag == tag && e.Pending {
			e.Pending = false
			e.Value = value
		}
	}
}

// Release frees reg if its binding still names tag. It returns whether
// the binding was cleared.
func (t *RegisterStatusTable) Release(reg insts.Reg, tag Tag) bool {
	if !reg.Valid() || t.entries[reg].Tag != tag {
		return false
	}
	t.entries[reg] = RegisterStatus{Tag: NoTag}
	return true
}

// Rollback restores reg to a previously computed status.
func (t *RegisterStatusTable) Rollback(reg insts.Reg, prior RegisterStatus) {
	if !reg.Valid() {
		return
	}
	t.entries[reg] = prior
}

// Get returns the status of reg.
func (t *RegisterStatusTable) Get(reg insts.Reg) RegisterStatus {
	if !reg.Valid() {
		return RegisterStatus{Tag: NoTag}
	}
	return t.entries[reg]
}

// Snapshot returns a copy of every entry.
func (t *RegisterStatusTable) Snapshot() [insts.NumRegs]RegisterStatus {
	return t.entries
}

// Reset frees every register.
func (t *RegisterStatusTable) Reset() {
	for i := range t.entries {
		t.entries[i] = RegisterStatus{Tag: NoTag}
	}
}
