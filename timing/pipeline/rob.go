package pipeline

import (
	"errors"

	"github.com/sarchlab/tomasim/insts"
)

// ErrROBFull is returned when no reorder buffer slot is free.
var ErrROBFull = errors.New("reorder buffer full")

// ROBState is the lifecycle state of a reorder buffer entry.
type ROBState uint8

// Reorder buffer entry states.
const (
	ROBIssued ROBState = iota
	ROBExecuting
	ROBWriteResult
	ROBCommitted
	ROBFlushed
)

var robStateNames = [...]string{"issued", "executing", "write_result", "committed", "flushed"}

func (s ROBState) String() string {
	if int(s) < len(robStateNames) {
		return robStateNames[s]
	}
	return "unknown"
}

// ROBEntry is one in-flight instruction in program order.
type ROBEntry struct {
	Tag   Tag
	Seq   uint64
	Inst  *insts.Instruction
	State ROBState

	// Dest is the destination register, or NoReg for stores, branches
	// and HLT.
	Dest  insts.Reg
	Value int64

	// Store target, known once the store has broadcast.
	Address    int64
	StoreValue int64

	// Branch outcome and the prediction made at issue.
	Predicted bool
	Taken     bool

	Speculative bool
}

// Mispredicted reports whether a resolved branch went the other way.
func (e *ROBEntry) Mispredicted() bool {
	return e.Inst.IsBranch() && e.State == ROBWriteResult && e.Predicted != e.Taken
}

// ReorderBuffer is a ring of entries retired strictly in program order.
// An entry's tag is its slot index.
type ReorderBuffer struct {
	entries []ROBEntry
	head    int
	count   int
}

// NewReorderBuffer creates a reorder buffer with size slots.
func NewReorderBuffer(size int) *ReorderBuffer {
	if size <= 0 {
		size = 16
	}
	return &ReorderBuffer{entries: make([]ROBEntry, size)}
}

// Cap returns the number of slots.
func (r *ReorderBuffer) Cap() int {
	return len(r.entries)
}

// Len returns the number of live entries.
func (r *ReorderBuffer) Len() int {
	return r.count
}

// Full reports whether every slot is in use.
func (r *ReorderBuffer) Full() bool {
	return r.count == len(r.entries)
}

// Empty reports whether no entry is live.
func (r *ReorderBuffer) Empty() bool {
	return r.count == 0
}

func (r *ReorderBuffer) slot(i int) int {
	return (r.head + i) % len(r.entries)
}

// Allocate appends an instruction at the tail.
func (r *ReorderBuffer) Allocate(
	inst *insts.Instruction,
	seq uint64,
	predicted bool,
	speculative bool,
) (Tag, error) {
	if r.Full() {
		return NoTag, ErrROBFull
	}

	idx := r.slot(r.count)
	r.entries[idx] = ROBEntry{
		Tag:         Tag(idx),
		Seq:         seq,
		Inst:        inst,
		State:       ROBIssued,
		Dest:        inst.Dest(),
		Predicted:   predicted,
		Speculative: speculative,
	}
	r.count++

	return Tag(idx), nil
}

// Head returns the oldest entry, or nil when empty.
func (r *ReorderBuffer) Head() *ROBEntry {
	if r.count == 0 {
		return nil
	}
	return &r.entries[r.head]
}

// Entry returns the live entry with the given tag, or nil.
func (r *ReorderBuffer) Entry(tag Tag) *ROBEntry {
	if tag < 0 || int(tag) >= len(r.entries) {
		return nil
	}
	offset := (int(tag) - r.head + len(r.entries)) % len(r.entries)
	if offset >= r.count {
		return nil
	}
	return &r.entries[tag]
}

// At returns the i-th oldest live entry.
func (r *ReorderBuffer) At(i int) *ROBEntry {
	if i < 0 || i >= r.count {
		return nil
	}
	return &r.entries[r.slot(i)]
}

// Retire removes the head entry, marking it committed, and returns a copy.
func (r *ReorderBuffer) Retire() ROBEntry {
	e := r.entries[r.head]
	e.State = ROBCommitted
	r.entries[r.head] = ROBEntry{Tag: NoTag}
	r.head = r.slot(1)
	r.count--
	return e
}

// FlushAfter removes every entry younger than seq and returns their tags,
// youngest first. Entries at or before seq are untouched.
func (r *ReorderBuffer) FlushAfter(seq uint64) []Tag {
	var flushed []Tag
	for r.count > 0 {
		idx := r.slot(r.count - 1)
		if r.entries[idx].Seq <= seq {
			break
		}
		flushed = append(flushed, Tag(idx))
		r.entries[idx] = ROBEntry{Tag: NoTag, State: ROBFlushed}
		r.count--
	}
	return flushed
}

// Entries returns copies of the live entries, oldest first.
func (r *ReorderBuffer) Entries() []ROBEntry {
	out := make([]ROBEntry, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[r.slot(i)])
	}
	return out
}

// HasUnresolvedBranch reports whether a branch is waiting to commit.
func (r *ReorderBuffer) HasUnresolvedBranch() bool {
	for i := 0; i < r.count; i++ {
		if r.entries[r.slot(i)].Inst.IsBranch() {
			return true
		}
	}
	return false
}

// Reset empties the buffer.
func (r *ReorderBuffer) Reset() {
	for i := range r.entries {
		r.entries[i] = ROBEntry{Tag: NoTag}
	}
	r.head = 0
	r.count = 0
}
