package pipeline

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// commitStage retires up to CommitWidth entries from the reorder buffer
// head. A mispredicted branch flushes everything younger and ends the
// stage; a committed HLT halts the engine.
func (e *Engine) commitStage() {
	for n := 0; n < e.superscalarConfig.CommitWidth; n++ {
		head := e.rob.Head()
		if head == nil || head.State != ROBWriteResult {
			return
		}

		entry := e.rob.Retire()
		inst := entry.Inst
		rec := CommitRecord{
			Seq:   entry.Seq,
			Tag:   entry.Tag,
			Index: inst.Index,
			Inst:  inst,
			Dest:  entry.Dest,
			Value: entry.Value,
		}

		switch {
		case inst.IsHalt():
			rec.Halt = true

		case entry.Dest.Valid():
			// The architectural file always follows commit order. The
			// rename binding is only dropped when no younger producer
			// has claimed the register since.
			e.regFile.WriteReg(entry.Dest, entry.Value)
			e.regStatus.Release(entry.Dest, entry.Tag)

		case inst.IsStore():
			e.memory.Write(entry.Address, entry.StoreValue)
			rec.Store = true
			rec.Address = entry.Address
			rec.Value = entry.StoreValue
			e.report.MemoryWrites = append(e.report.MemoryWrites,
				MemoryWrite{Address: entry.Address, Value: entry.StoreValue})

		case inst.IsBranch():
			rec.Branch = true
			rec.Predicted = entry.Predicted
			rec.Taken = entry.Taken
			e.resolveBranch(&entry)
		}

		e.stats.Instructions++
		e.report.Committed = append(e.report.Committed, rec)
		e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosCommit, Item: rec, Detail: e.stats.Cycles})

		if rec.Halt {
			e.halt("HLT committed")
			return
		}
		if rec.Branch && rec.Predicted != rec.Taken {
			e.flush(&entry)
			return
		}
	}
}

// resolveBranch trains the predictor and scores the issue-time prediction.
func (e *Engine) resolveBranch(entry *ROBEntry) {
	e.predictor.Update(entry.Inst.Index, entry.Taken)
	e.predictor.Record(entry.Predicted, entry.Taken)

	e.stats.BranchPredictions++
	if entry.Predicted == entry.Taken {
		e.stats.BranchCorrect++
	} else {
		e.stats.BranchMispredictions++
	}
}

// flush discards every instruction younger than a mispredicted branch,
// restores the rename table and redirects fetch to the correct successor.
func (e *Engine) flush(branch *ROBEntry) {
	var seqs []uint64
	for i := e.rob.Len() - 1; i >= 0; i-- {
		if entry := e.rob.At(i); entry.Seq > branch.Seq {
			seqs = append(seqs, entry.Seq)
		}
	}
	tags := e.rob.FlushAfter(branch.Seq)
	for _, unit := range e.stations.FlushAfter(branch.Seq) {
		e.units.Release(unit)
	}
	e.rollbackRegisters(tags)

	e.fetch = emu.NextIndex(branch.Inst, branch.Taken)
	e.haltIssued = false

	e.stats.Flushes++
	e.stats.Squashed += uint64(len(tags))

	rec := &FlushRecord{
		BranchSeq:   branch.Seq,
		BranchIndex: branch.Inst.Index,
		Redirect:    e.fetch,
		Tags:        tags,
		Seqs:        seqs,
	}
	e.report.Flush = rec

	e.log.V(1).Info("flush",
		"cycle", e.stats.Cycles,
		"branch", branch.Inst.Index,
		"taken", branch.Taken,
		"squashed", len(tags),
		"redirect", e.fetch)
	e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosFlush, Item: *rec, Detail: e.stats.Cycles})
}

// rollbackRegisters rebinds every register that pointed at a flushed tag
// to its youngest surviving producer, or to the committed value if none
// survives.
func (e *Engine) rollbackRegisters(flushed []Tag) {
	if len(flushed) == 0 {
		return
	}
	gone := make(map[Tag]bool, len(flushed))
	for _, t := range flushed {
		gone[t] = true
	}

	var survivors [insts.NumRegs]RegisterStatus
	for i := range survivors {
		survivors[i] = RegisterStatus{Tag: NoTag}
	}
	for i := 0; i < e.rob.Len(); i++ {
		entry := e.rob.At(i)
		if !entry.Dest.Valid() {
			continue
		}
		survivors[entry.Dest] = RegisterStatus{
			Tag:     entry.Tag,
			Pending: entry.State != ROBWriteResult,
			Value:   entry.Value,
		}
	}

	for r := insts.Reg(0); r < insts.NumRegs; r++ {
		if gone[e.regStatus.Get(r).Tag] {
			e.regStatus.Rollback(r, survivors[r])
		}
	}
}

// writeResultStage broadcasts the winners of CDB arbitration.
func (e *Engine) writeResultStage() {
	done := e.stations.InState(StationDone)
	if len(done) == 0 {
		return
	}

	candidates := make([]Broadcast, 0, len(done))
	for _, id := range done {
		s := e.stations.Get(id)
		candidates = append(candidates, Broadcast{
			Tag:        s.Tag,
			Seq:        s.Seq,
			Class:      s.Class,
			Station:    id,
			Value:      s.Result,
			Taken:      s.Taken,
			Address:    s.Address,
			StoreValue: s.StoreValue,
		})
	}

	for _, b := range e.cdb.Arbitrate(candidates) {
		e.broadcast(b)
	}
}

func (e *Engine) broadcast(b Broadcast) {
	e.stations.Capture(b.Tag, b.Value)
	e.regStatus.Resolve(b.Tag, b.Value)

	if entry := e.rob.Entry(b.Tag); entry != nil {
		entry.State = ROBWriteResult
		entry.Value = b.Value
		entry.Taken = b.Taken
		entry.Address = b.Address
		entry.StoreValue = b.StoreValue
	}
	e.stations.Free(b.Station)

	e.stats.Broadcasts++
	e.report.Broadcasts = append(e.report.Broadcasts, b)
	e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosBroadcast, Item: b, Detail: e.stats.Cycles})
}

// executeStage counts down busy units, then starts ready entries on free
// units, oldest first. An entry started this cycle first counts down on
// the next one.
func (e *Engine) executeStage() {
	for _, id := range e.units.Advance() {
		s := e.stations.Get(id)
		s.State = StationDone
		s.Unit = -1
	}

	e.stations.Promote()

	for _, id := range e.stations.InState(StationReady) {
		s := e.stations.Get(id)
		if s.Inst.IsLoad() && e.hazards.LoadBlocked(s.Seq, e.rob) {
			continue
		}
		unit := e.units.FreeUnit(s.Class)
		if unit < 0 {
			continue
		}

		e.compute(s)
		e.units.Start(unit, id, s.Tag, e.table.GetLatency(s.Inst))
		s.State = StationExecuting
		s.Unit = unit
		if entry := e.rob.Entry(s.Tag); entry != nil {
			entry.State = ROBExecuting
		}
	}
}

// compute evaluates a station's operation from its captured operands.
func (e *Engine) compute(s *Station) {
	inst := s.Inst
	switch {
	case inst.IsLoad():
		s.Address = emu.EffectiveAddress(s.Vj, s.Imm)
		s.Result, _ = e.hazards.LoadValue(s.Seq, s.Address, e.rob)
	case inst.IsStore():
		s.Address = emu.EffectiveAddress(s.Vj, s.Imm)
		s.StoreValue = s.Vk
	case inst.IsBranch():
		s.Taken = emu.BranchTaken(inst.Op, s.Vj, s.Vk)
	default:
		s.Result = emu.Compute(inst.Op, s.Vj, s.Vk)
	}
}

// issueStage issues up to IssueWidth instructions in program order. The
// first blocked instruction ends the stage and counts one stall cycle.
func (e *Engine) issueStage() {
	for e.report.Issued < e.superscalarConfig.IssueWidth {
		if e.haltIssued || e.fetch >= e.program.Len() {
			return
		}

		inst := &e.program.Insts[e.fetch]
		if stall := e.issue(inst); stall != StallNone {
			e.recordStall(stall, inst)
			return
		}
		e.report.Issued++
	}
}

func (e *Engine) recordStall(stall StallReason, inst *insts.Instruction) {
	e.report.Stall = stall
	e.stats.Stalls++
	switch stall {
	case StallStation:
		e.stats.StationStalls++
	case StallROB:
		e.stats.ROBStalls++
	case StallBranch:
		e.stats.BranchStalls++
	}
	e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosStall, Item: stall, Detail: inst.Index})
}

// issue renames and dispatches one instruction, or reports why it cannot.
func (e *Engine) issue(inst *insts.Instruction) StallReason {
	speculative := e.rob.HasUnresolvedBranch()

	switch {
	case inst.IsBranch() && speculative:
		return StallBranch
	case e.rob.Full():
		return StallROB
	case !inst.IsHalt() && e.stations.FreeCount(inst.Class()) == 0:
		return StallStation
	}

	predicted := false
	if inst.IsBranch() {
		predicted = e.predictor.Predict(inst.Index)
	}

	seq := e.nextSeq
	tag, err := e.rob.Allocate(inst, seq, predicted, speculative)
	if err != nil {
		return StallROB
	}
	e.nextSeq++

	rec := IssueRecord{
		Seq:         seq,
		Tag:         tag,
		Index:       inst.Index,
		Inst:        inst,
		Station:     -1,
		Predicted:   predicted,
		Speculative: speculative,
	}

	if inst.IsHalt() {
		// HLT needs no station; it waits at write_result for commit.
		e.rob.Entry(tag).State = ROBWriteResult
		e.haltIssued = true
		e.fetch = inst.FallThrough()
	} else {
		j, k := e.operands(inst)
		id, err := e.stations.Issue(inst, tag, seq, speculative, j, k)
		if err != nil {
			panic(fmt.Sprintf("station vanished after free check: %v", err))
		}
		rec.Station = id

		if dest := inst.Dest(); dest.Valid() {
			e.regStatus.Bind(dest, tag)
		}

		e.fetch = inst.FallThrough()
		if inst.IsBranch() && predicted {
			e.fetch = inst.Target
		}
	}

	e.stats.Issued++
	e.report.IssuedRecords = append(e.report.IssuedRecords, rec)
	e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosIssue, Item: rec, Detail: e.stats.Cycles})

	return StallNone
}

// operands renames the source operands of inst. Operands must be read
// before the destination is bound so an instruction never waits on
// itself.
func (e *Engine) operands(inst *insts.Instruction) (Operand, Operand) {
	rj, rk := inst.Sources()
	j := e.regStatus.Read(rj, e.regFile)
	k := e.regStatus.Read(rk, e.regFile)
	if inst.Op.Format() == insts.FormatImm {
		k = ReadyOperand(inst.Imm)
	}
	return j, k
}
