package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("RegisterStatusTable", func() {
	var (
		table *pipeline.RegisterStatusTable
		arch  *emu.RegFile
	)

	BeforeEach(func() {
		table = pipeline.NewRegisterStatusTable()
		arch = &emu.RegFile{}
		arch.WriteReg(3, 10)
	})

	It("should read unbound registers from the register file", func() {
		Expect(table.Read(3, arch)).To(Equal(pipeline.ReadyOperand(10)))
		Expect(table.Get(3).Free()).To(BeTrue())
	})

	It("should read NoReg as a ready zero", func() {
		Expect(table.Read(insts.NoReg, arch)).To(Equal(pipeline.ReadyOperand(0)))
	})

	It("should return the producer tag while pending", func() {
		table.Bind(3, 5)
		Expect(table.Read(3, arch)).To(Equal(pipeline.PendingOperand(5)))
	})

	It("should let the later bind win", func() {
		table.Bind(3, 5)
		table.Bind(3, 6)
		Expect(table.Get(3).Tag).To(Equal(pipeline.Tag(6)))

		table.Resolve(5, 99)
		Expect(table.Read(3, arch).Ready).To(BeFalse())
	})

	It("should keep the tag after resolve and serve the value", func() {
		table.Bind(3, 5)
		table.Resolve(5, 42)

		Expect(table.Read(3, arch)).To(Equal(pipeline.ReadyOperand(42)))
		Expect(table.Get(3).Tag).To(Equal(pipeline.Tag(5)))
	})

	It("should release only a matching binding", func() {
		table.Bind(3, 6)

		Expect(table.Release(3, 5)).To(BeFalse())
		Expect(table.Get(3).Tag).To(Equal(pipeline.Tag(6)))

		Expect(table.Release(3, 6)).To(BeTrue())
		Expect(table.Get(3).Free()).To(BeTrue())
	})

	It("should roll back to a prior status", func() {
		table.Bind(3, 6)
		table.Rollback(3, pipeline.RegisterStatus{Tag: 2, Pending: true})
		Expect(table.Read(3, arch)).To(Equal(pipeline.PendingOperand(2)))

		table.Rollback(3, pipeline.RegisterStatus{Tag: pipeline.NoTag})
		Expect(table.Read(3, arch)).To(Equal(pipeline.ReadyOperand(10)))
	})

	It("should free everything on reset", func() {
		table.Bind(1, 1)
		table.Bind(2, 2)
		table.Reset()
		for _, s := range table.Snapshot() {
			Expect(s.Free()).To(BeTrue())
		}
	})
})
