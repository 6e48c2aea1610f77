package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("CDB", func() {
	candidates := []pipeline.Broadcast{
		{Tag: 3, Seq: 12, Class: insts.ClassMul},
		{Tag: 1, Seq: 10, Class: insts.ClassAdd},
		{Tag: 2, Seq: 11, Class: insts.ClassAdd},
		{Tag: 4, Seq: 13, Class: insts.ClassLoad},
	}

	It("should grant the single bus to the oldest result", func() {
		cdb := pipeline.NewCDB(latency.CDBSingle)

		winners := cdb.Arbitrate(candidates)

		Expect(winners).To(HaveLen(1))
		Expect(winners[0].Seq).To(Equal(uint64(10)))
	})

	It("should grant one result per class with the per-class policy", func() {
		cdb := pipeline.NewCDB(latency.CDBPerClass)

		winners := cdb.Arbitrate(candidates)

		var seqs []uint64
		for _, w := range winners {
			seqs = append(seqs, w.Seq)
		}
		Expect(seqs).To(Equal([]uint64{10, 12, 13}))
	})

	It("should fall back to the single policy", func() {
		Expect(pipeline.NewCDB("").Policy()).To(Equal(latency.CDBSingle))
	})

	It("should return nothing without candidates", func() {
		Expect(pipeline.NewCDB(latency.CDBSingle).Arbitrate(nil)).To(BeEmpty())
	})
})
