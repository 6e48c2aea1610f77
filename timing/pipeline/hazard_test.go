package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var (
		memory *emu.Memory
		rob    *pipeline.ReorderBuffer
		unit   *pipeline.HazardUnit
		store  *insts.Instruction
		add    *insts.Instruction
	)

	resolveStore := func(tag pipeline.Tag, addr, value int64) {
		e := rob.Entry(tag)
		e.State = pipeline.ROBWriteResult
		e.Address = addr
		e.StoreValue = value
	}

	BeforeEach(func() {
		memory = emu.NewMemory()
		memory.Write(8, 111)
		rob = pipeline.NewReorderBuffer(8)
		unit = pipeline.NewHazardUnit(memory)
		store = &insts.Instruction{Op: insts.OpSD, Rs: 0, Rt: 1}
		add = &insts.Instruction{Op: insts.OpADD, Rd: 1, Rs: 2, Rt: 3}
	})

	It("should block a load behind an unresolved older store", func() {
		_, _ = rob.Allocate(store, 0, false, false)
		Expect(unit.LoadBlocked(1, rob)).To(BeTrue())
	})

	It("should ignore younger stores", func() {
		_, _ = rob.Allocate(add, 0, false, false)
		_, _ = rob.Allocate(store, 2, false, false)
		Expect(unit.LoadBlocked(1, rob)).To(BeFalse())
	})

	It("should read memory when no store matches", func() {
		t, _ := rob.Allocate(store, 0, false, false)
		resolveStore(t, 16, 5)

		value, fwd := unit.LoadValue(1, 8, rob)

		Expect(fwd.Source).To(Equal(pipeline.ForwardNone))
		Expect(value).To(Equal(int64(111)))
	})

	It("should forward from the youngest older store to the same word", func() {
		a, _ := rob.Allocate(store, 0, false, false)
		b, _ := rob.Allocate(store, 1, false, false)
		c, _ := rob.Allocate(store, 3, false, false)
		resolveStore(a, 8, 1)
		resolveStore(b, 8+int64(memory.Words()), 2)
		resolveStore(c, 8, 3)

		Expect(unit.LoadBlocked(2, rob)).To(BeFalse())
		value, fwd := unit.LoadValue(2, 8, rob)

		Expect(fwd.Source).To(Equal(pipeline.ForwardFromStore))
		Expect(fwd.Tag).To(Equal(b))
		Expect(value).To(Equal(int64(2)))
	})
})
