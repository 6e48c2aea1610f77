package pipeline_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor(pipeline.DefaultBranchPredictorConfig())
	})

	Describe("Prediction", func() {
		It("should initially predict not taken (weak)", func() {
			Expect(bp.Counter(3)).To(Equal(uint8(1)))
			Expect(bp.Predict(3)).To(BeFalse())
		})

		It("should flip after one taken outcome", func() {
			bp.Update(3, true)
			Expect(bp.Counter(3)).To(Equal(uint8(2)))
			Expect(bp.Predict(3)).To(BeTrue())
		})

		It("should keep sites independent", func() {
			for i := 0; i < 4; i++ {
				bp.Update(3, true)
			}
			Expect(bp.Predict(3)).To(BeTrue())
			Expect(bp.Predict(4)).To(BeFalse())
		})

		It("should honor a custom initial counter", func() {
			bp = pipeline.NewBranchPredictor(pipeline.BranchPredictorConfig{InitialCounter: 9})
			Expect(bp.Counter(0)).To(Equal(pipeline.CounterMax))
		})
	})

	Describe("Saturation", func() {
		It("should clamp at 3 and 0", func() {
			for i := 0; i < 10; i++ {
				bp.Update(0, true)
			}
			Expect(bp.Counter(0)).To(Equal(uint8(3)))

			for i := 0; i < 10; i++ {
				bp.Update(0, false)
			}
			Expect(bp.Counter(0)).To(Equal(uint8(0)))
		})

		It("should stay in range and move by one per update", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 1000; i++ {
				site := rng.Intn(4)
				taken := rng.Intn(2) == 0
				before := int(bp.Counter(site))

				bp.Update(site, taken)

				after := int(bp.Counter(site))
				Expect(after).To(BeNumerically(">=", 0))
				Expect(after).To(BeNumerically("<=", 3))
				switch {
				case taken && before < 3:
					Expect(after).To(Equal(before + 1))
				case !taken && before > 0:
					Expect(after).To(Equal(before - 1))
				default:
					Expect(after).To(Equal(before))
				}
			}
		})
	})

	Describe("Statistics", func() {
		It("should report full accuracy with no branches", func() {
			Expect(bp.Stats().Accuracy()).To(Equal(1.0))
			Expect(bp.Stats().MispredictionRate()).To(Equal(0.0))
		})

		It("should score the issue-time prediction", func() {
			bp.Record(false, false)
			bp.Record(false, true)

			stats := bp.Stats()
			Expect(stats.Predictions).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.Accuracy()).To(Equal(0.5))
			Expect(stats.MispredictionRate()).To(Equal(50.0))
		})
	})

	Describe("Reset", func() {
		It("should clear counters and statistics", func() {
			bp.Update(1, true)
			bp.Record(true, true)

			bp.Reset()

			Expect(bp.Counter(1)).To(Equal(pipeline.CounterDefault))
			Expect(bp.Stats()).To(Equal(pipeline.BranchPredictorStats{}))
		})
	})
})
