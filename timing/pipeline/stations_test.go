package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("StationPool", func() {
	var (
		pool *pipeline.StationPool
		add  *insts.Instruction
		mul  *insts.Instruction
	)

	BeforeEach(func() {
		pool = pipeline.NewStationPool(map[insts.Class]int{
			insts.ClassAdd: 2,
			insts.ClassMul: 1,
		})
		add = &insts.Instruction{Op: insts.OpADD, Rd: 1, Rs: 2, Rt: 3}
		mul = &insts.Instruction{Op: insts.OpMUL, Rd: 4, Rs: 1, Rt: 3}
	})

	It("should group stations by class", func() {
		Expect(pool.Len()).To(Equal(3))
		Expect(pool.FreeCount(insts.ClassAdd)).To(Equal(2))
		Expect(pool.FreeCount(insts.ClassMul)).To(Equal(1))
		Expect(pool.FreeCount(insts.ClassLoad)).To(Equal(0))
	})

	It("should report no free station when the class is full", func() {
		_, err := pool.Issue(mul, 0, 0, false, pipeline.ReadyOperand(1), pipeline.ReadyOperand(2))
		Expect(err).NotTo(HaveOccurred())

		id, err := pool.Issue(mul, 1, 1, false, pipeline.ReadyOperand(1), pipeline.ReadyOperand(2))
		Expect(err).To(MatchError(pipeline.ErrNoFreeStation))
		Expect(id).To(Equal(-1))
		Expect(pool.FreeCount(insts.ClassAdd)).To(Equal(2))
	})

	It("should wait for pending operands and capture broadcasts", func() {
		id, err := pool.Issue(mul, 1, 1, false, pipeline.PendingOperand(0), pipeline.ReadyOperand(10))
		Expect(err).NotTo(HaveOccurred())

		s := pool.Get(id)
		Expect(s.State).To(Equal(pipeline.StationWaiting))
		Expect(s.Qj).To(Equal(pipeline.Tag(0)))
		Expect(s.Qk).To(Equal(pipeline.NoTag))

		pool.Promote()
		Expect(s.State).To(Equal(pipeline.StationWaiting))

		pool.Capture(0, 20)
		Expect(s.Vj).To(Equal(int64(20)))
		Expect(s.OperandsReady()).To(BeTrue())

		pool.Promote()
		Expect(s.State).To(Equal(pipeline.StationReady))
	})

	It("should list stations oldest first", func() {
		a, _ := pool.Issue(add, 3, 9, false, pipeline.ReadyOperand(0), pipeline.ReadyOperand(0))
		b, _ := pool.Issue(add, 1, 4, false, pipeline.ReadyOperand(0), pipeline.ReadyOperand(0))

		Expect(pool.InState(pipeline.StationWaiting)).To(Equal([]int{b, a}))
	})

	It("should flush younger stations and report their units", func() {
		old, _ := pool.Issue(add, 0, 5, false, pipeline.ReadyOperand(0), pipeline.ReadyOperand(0))
		young, _ := pool.Issue(add, 1, 7, true, pipeline.ReadyOperand(0), pipeline.ReadyOperand(0))
		pool.Get(young).State = pipeline.StationExecuting
		pool.Get(young).Unit = 1

		units := pool.FlushAfter(5)

		Expect(units).To(Equal([]int{1}))
		Expect(pool.Get(young).State).To(Equal(pipeline.StationEmpty))
		Expect(pool.Get(old).State).To(Equal(pipeline.StationWaiting))
	})
})

var _ = Describe("UnitPool", func() {
	var units *pipeline.UnitPool

	BeforeEach(func() {
		units = pipeline.NewUnitPool(map[insts.Class]int{insts.ClassMul: 1})
	})

	It("should count down and free finished units", func() {
		id := units.FreeUnit(insts.ClassMul)
		Expect(id).To(Equal(0))
		units.Start(id, 4, 2, 2)
		Expect(units.FreeUnit(insts.ClassMul)).To(Equal(-1))
		Expect(units.BusyCount(insts.ClassMul)).To(Equal(1))

		Expect(units.Advance()).To(BeEmpty())
		Expect(units.Advance()).To(Equal([]int{4}))
		Expect(units.FreeUnit(insts.ClassMul)).To(Equal(0))
	})

	It("should have no unit for a class without any", func() {
		Expect(units.FreeUnit(insts.ClassLoad)).To(Equal(-1))
	})
})
