package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("ReorderBuffer", func() {
	var (
		rob *pipeline.ReorderBuffer
		add *insts.Instruction
		br  *insts.Instruction
	)

	BeforeEach(func() {
		rob = pipeline.NewReorderBuffer(4)
		add = &insts.Instruction{Op: insts.OpADD, Rd: 1, Rs: 2, Rt: 3}
		br = &insts.Instruction{Op: insts.OpBNE, Rs: 1, Rt: 2, Target: 0}
	})

	It("should use slot indices as tags", func() {
		for i := 0; i < 4; i++ {
			tag, err := rob.Allocate(add, uint64(i), false, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(tag).To(Equal(pipeline.Tag(i)))
		}
		Expect(rob.Full()).To(BeTrue())
	})

	It("should refuse allocation when full", func() {
		for i := 0; i < 4; i++ {
			_, _ = rob.Allocate(add, uint64(i), false, false)
		}
		tag, err := rob.Allocate(add, 4, false, false)
		Expect(err).To(MatchError(pipeline.ErrROBFull))
		Expect(tag).To(Equal(pipeline.NoTag))
	})

	It("should record the destination and prediction", func() {
		tag, _ := rob.Allocate(add, 0, false, true)
		Expect(rob.Entry(tag).Dest).To(Equal(insts.Reg(1)))
		Expect(rob.Entry(tag).Speculative).To(BeTrue())

		tag, _ = rob.Allocate(br, 1, true, false)
		Expect(rob.Entry(tag).Dest).To(Equal(insts.NoReg))
		Expect(rob.Entry(tag).Predicted).To(BeTrue())
		Expect(rob.HasUnresolvedBranch()).To(BeTrue())
	})

	It("should retire in allocation order and wrap around", func() {
		for i := 0; i < 4; i++ {
			_, _ = rob.Allocate(add, uint64(i), false, false)
		}
		Expect(rob.Retire().Seq).To(Equal(uint64(0)))
		Expect(rob.Retire().Seq).To(Equal(uint64(1)))

		tag, err := rob.Allocate(add, 4, false, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(tag).To(Equal(pipeline.Tag(0)))

		var seqs []uint64
		for _, e := range rob.Entries() {
			seqs = append(seqs, e.Seq)
		}
		Expect(seqs).To(Equal([]uint64{2, 3, 4}))
		Expect(rob.Head().Seq).To(Equal(uint64(2)))
	})

	It("should not resolve tags of retired entries", func() {
		tag, _ := rob.Allocate(add, 0, false, false)
		rob.Retire()
		Expect(rob.Entry(tag)).To(BeNil())
		Expect(rob.Entry(pipeline.NoTag)).To(BeNil())
	})

	It("should flush only younger entries", func() {
		for i := 0; i < 4; i++ {
			_, _ = rob.Allocate(add, uint64(10+i), false, false)
		}

		flushed := rob.FlushAfter(11)

		Expect(flushed).To(Equal([]pipeline.Tag{3, 2}))
		Expect(rob.Len()).To(Equal(2))
		Expect(rob.At(1).Seq).To(Equal(uint64(11)))
		Expect(rob.FlushAfter(11)).To(BeEmpty())
	})

	It("should empty on reset", func() {
		_, _ = rob.Allocate(add, 0, false, false)
		rob.Reset()
		Expect(rob.Empty()).To(BeTrue())
		Expect(rob.Head()).To(BeNil())
	})
})
