package main

import (
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/timing/pipeline"
)

// tracer prints engine events as they happen.
type tracer struct {
	w io.Writer
}

func newTracer(w io.Writer) *tracer {
	return &tracer{w: w}
}

// Func implements sim.Hook.
func (t *tracer) Func(ctx sim.HookCtx) {
	var cycle uint64
	if e, ok := ctx.Domain.(*pipeline.Engine); ok {
		cycle = e.Stats().Cycles
	}

	switch item := ctx.Item.(type) {
	case pipeline.IssueRecord:
		spec := ""
		if item.Speculative {
			spec = " speculative"
		}
		_, _ = fmt.Fprintf(t.w, "[%4d] issue     %s seq=%d %s%s\n", cycle, item.Tag, item.Seq, item.Inst, spec)
	case pipeline.Broadcast:
		_, _ = fmt.Fprintf(t.w, "[%4d] broadcast %s %s value=%d\n", cycle, item.Tag, item.Class, item.Value)
	case pipeline.CommitRecord:
		_, _ = fmt.Fprintf(t.w, "[%4d] commit    %s seq=%d %s\n", cycle, item.Tag, item.Seq, item.Inst)
	case pipeline.FlushRecord:
		_, _ = fmt.Fprintf(t.w, "[%4d] flush     branch@%d squashed=%d redirect=%d\n",
			cycle, item.BranchIndex, len(item.Tags), item.Redirect)
	case pipeline.StallReason:
		_, _ = fmt.Fprintf(t.w, "[%4d] stall     %s at %v\n", cycle, item, ctx.Detail)
	case string:
		_, _ = fmt.Fprintf(t.w, "[%4d] halt      %s\n", cycle, item)
	}
}
