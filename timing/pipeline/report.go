package pipeline

import "github.com/sarchlab/tomasim/insts"

// StallReason explains why issue was blocked in a cycle.
type StallReason uint8

// Stall reasons.
const (
	StallNone StallReason = iota
	// StallStation means every reservation station of the class is busy.
	StallStation
	// StallROB means the reorder buffer is full.
	StallROB
	// StallBranch means a branch is already in flight.
	StallBranch
)

var stallNames = [...]string{"none", "station", "rob", "branch"}

func (s StallReason) String() string {
	if int(s) < len(stallNames) {
		return stallNames[s]
	}
	return "unknown"
}

// IssueRecord describes one issued instruction.
type IssueRecord struct {
	Seq         uint64
	Tag         Tag
	Index       int
	Inst        *insts.Instruction
	Station     int
	Predicted   bool
	Speculative bool
}

// CommitRecord describes one retired instruction.
type CommitRecord struct {
	Seq   uint64
	Tag   Tag
	Index int
	Inst  *insts.Instruction

	// Dest and Value describe a register write. For stores Value is the
	// stored word.
	Dest  insts.Reg
	Value int64

	Store   bool
	Address int64

	Branch    bool
	Predicted bool
	Taken     bool

	Halt bool
}

// FlushRecord describes a misprediction recovery.
type FlushRecord struct {
	BranchSeq   uint64
	BranchIndex int
	// Redirect is the fetch position after the flush.
	Redirect int
	// Tags are the discarded reorder buffer entries, youngest first.
	Tags []Tag
	// Seqs are the sequence numbers of the discarded entries, in the
	// same order as Tags.
	Seqs []uint64
}

// MemoryWrite is a store made visible at commit.
type MemoryWrite struct {
	Address int64
	Value   int64
}

// CycleReport is an immutable snapshot of the engine after a cycle,
// together with the events of that cycle.
type CycleReport struct {
	Cycle uint64
	State State
	Fetch int

	// Events of the cycle.
	Issued        int
	IssuedRecords []IssueRecord
	Stall         StallReason
	Broadcasts    []Broadcast
	Committed     []CommitRecord
	Flush         *FlushRecord
	MemoryWrites  []MemoryWrite

	// Structure contents.
	Stations       []Station
	Units          []FunctionalUnit
	ROB            []ROBEntry
	Registers      [insts.NumRegs]int64
	RegisterStatus [insts.NumRegs]RegisterStatus
}

// DidCommit reports whether any instruction retired in the cycle.
func (r CycleReport) DidCommit() bool {
	return len(r.Committed) > 0
}

// DidFlush reports whether a misprediction was recovered in the cycle.
func (r CycleReport) DidFlush() bool {
	return r.Flush != nil
}

// Snapshot returns the current contents of the engine without events.
func (e *Engine) Snapshot() CycleReport {
	r := CycleReport{Cycle: e.stats.Cycles}
	e.fillState(&r)
	return r
}

func (e *Engine) finishReport() CycleReport {
	r := e.report
	e.fillState(&r)
	e.report = CycleReport{}
	return r
}

func (e *Engine) fillState(r *CycleReport) {
	r.State = e.state
	r.Fetch = e.fetch
	r.Stations = e.stations.Snapshot()
	r.Units = e.units.Snapshot()
	r.ROB = e.rob.Entries()
	r.Registers = e.regFile.R
	r.RegisterStatus = e.regStatus.Snapshot()
}
