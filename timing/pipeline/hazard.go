package pipeline

import "github.com/sarchlab/tomasim/emu"

// ForwardSource indicates where a load obtains its value.
type ForwardSource int

const (
	// ForwardNone means no older store matches; read memory.
	ForwardNone ForwardSource = iota
	// ForwardFromStore means an uncommitted older store supplies the value.
	ForwardFromStore
)

// ForwardingResult is the memory disambiguation decision for one load.
type ForwardingResult struct {
	Source ForwardSource
	// Tag is the forwarding store, or NoTag.
	Tag   Tag
	Value int64
}

// HazardUnit resolves memory hazards between loads and the stores still
// held in the reorder buffer. Register hazards are handled by renaming.
type HazardUnit struct {
	memory *emu.Memory
}

// NewHazardUnit creates a new memory hazard unit.
func NewHazardUnit(memory *emu.Memory) *HazardUnit {
	return &HazardUnit{memory: memory}
}

// LoadBlocked reports whether some store older than seq has not yet
// produced its address and value. Such a load may not start.
func (h *HazardUnit) LoadBlocked(seq uint64, rob *ReorderBuffer) bool {
	for i := 0; i < rob.Len(); i++ {
		e := rob.At(i)
		if e.Seq >= seq {
			break
		}
		if e.Inst.IsStore() && e.State != ROBWriteResult {
			return true
		}
	}
	return false
}

// DetectForwarding finds the youngest store older than seq that writes
// the same word as addr.
func (h *HazardUnit) DetectForwarding(seq uint64, addr int64, rob *ReorderBuffer) ForwardingResult {
	result := ForwardingResult{Source: ForwardNone, Tag: NoTag}
	slot := h.memory.Index(addr)

	for i := 0; i < rob.Len(); i++ {
		e := rob.At(i)
		if e.Seq >= seq {
			break
		}
		if !e.Inst.IsStore() || e.State != ROBWriteResult {
			continue
		}
		if h.memory.Index(e.Address) == slot {
			result = ForwardingResult{Source: ForwardFromStore, Tag: e.Tag, Value: e.StoreValue}
		}
	}

	return result
}

// LoadValue returns the value a load of addr observes.
func (h *HazardUnit) LoadValue(seq uint64, addr int64, rob *ReorderBuffer) (int64, ForwardingResult) {
	fwd := h.DetectForwarding(seq, addr, rob)
	if fwd.Source == ForwardFromStore {
		return fwd.Value, fwd
	}
	return h.memory.Read(addr), fwd
}
