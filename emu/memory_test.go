package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
)

var _ = Describe("Memory", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory()
	})

	It("should read zero from untouched words", func() {
		Expect(m.Read(123)).To(Equal(int64(0)))
	})

	It("should round-trip negative values", func() {
		m.Write(8, -42)
		Expect(m.Read(8)).To(Equal(int64(-42)))
	})

	It("should wrap addresses modulo the capacity", func() {
		m.Write(-1, 7)
		Expect(m.Read(int64(m.Words()) - 1)).To(Equal(int64(7)))

		m.Write(int64(m.Words())+2, 9)
		Expect(m.Read(2)).To(Equal(int64(9)))
	})

	It("should round capacities up to the granule", func() {
		small := emu.NewMemoryWithWords(100)
		Expect(small.Words()).To(Equal(uint64(emu.MemoryWordGranule)))
	})

	It("should load an image and clear it on reset", func() {
		m.Load(map[int64]int64{1: 10, 2: 20})
		Expect(m.NonZero()).To(Equal(map[int64]int64{1: 10, 2: 20}))

		m.Reset()
		Expect(m.NonZero()).To(BeEmpty())
	})
})
