package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// writeDump prints the structures of one cycle report.
func writeDump(w io.Writer, r pipeline.CycleReport) {
	_, _ = fmt.Fprintf(w, "=== Cycle %d (%s, fetch %d) ===\n", r.Cycle, r.State, r.Fetch)
	if r.Stall != pipeline.StallNone {
		_, _ = fmt.Fprintf(w, "stall: %s\n", r.Stall)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "RS\tClass\tState\tInst\tTag\tVj\tVk\tQj\tQk")
	for _, s := range r.Stations {
		if s.State == pipeline.StationEmpty {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			s.ID, s.Class, s.State, s.Inst, s.Tag, s.Vj, s.Vk, s.Qj, s.Qk)
	}
	_, _ = fmt.Fprintln(tw, "")

	_, _ = fmt.Fprintln(tw, "ROB\tSeq\tState\tInst\tDest\tValue\tSpec")
	for _, e := range r.ROB {
		spec := ""
		if e.Speculative {
			spec = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			e.Tag, e.Seq, e.State, e.Inst, e.Dest, e.Value, spec)
	}
	_ = tw.Flush()

	for reg, status := range r.RegisterStatus {
		if status.Free() {
			continue
		}
		state := "ready"
		if status.Pending {
			state = "pending"
		}
		_, _ = fmt.Fprintf(w, "%s -> %s (%s)\n", insts.Reg(reg), status.Tag, state)
	}
	_, _ = fmt.Fprintln(w, "")
}

// writeRegisters prints every non-zero architectural register.
func writeRegisters(w io.Writer, regs *emu.RegFile) {
	_, _ = fmt.Fprintln(w, "\nRegisters:")
	for r := insts.Reg(0); r < insts.NumRegs; r++ {
		if v := regs.ReadReg(r); v != 0 {
			_, _ = fmt.Fprintf(w, "  %-4s %d\n", r, v)
		}
	}
}

// writeMemory prints every non-zero memory word.
func writeMemory(w io.Writer, memory *emu.Memory) {
	words := memory.NonZero()
	if len(words) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Memory:")
	for addr := int64(0); addr < int64(memory.Words()); addr++ {
		if v, ok := words[addr]; ok {
			_, _ = fmt.Fprintf(w, "  [%d] %d\n", addr, v)
		}
	}
}
