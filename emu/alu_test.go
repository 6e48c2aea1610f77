package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("ALU", func() {
	DescribeTable("Compute",
		func(op insts.Op, a, b, want int64) {
			Expect(emu.Compute(op, a, b)).To(Equal(want))
		},
		Entry("ADD", insts.OpADD, int64(3), int64(4), int64(7)),
		Entry("ADDI negative", insts.OpADDI, int64(3), int64(-4), int64(-1)),
		Entry("SUB", insts.OpSUB, int64(200), int64(10), int64(190)),
		Entry("SUBI", insts.OpSUBI, int64(1), int64(1), int64(0)),
		Entry("MUL", insts.OpMUL, int64(20), int64(10), int64(200)),
		Entry("DIV truncates toward zero", insts.OpDIV, int64(-7), int64(2), int64(-3)),
		Entry("DIV by zero", insts.OpDIV, int64(42), int64(0), int64(0)),
		Entry("ADD wraps", insts.OpADD, int64(math.MaxInt64), int64(1), int64(math.MinInt64)),
		Entry("SUB wraps", insts.OpSUB, int64(math.MinInt64), int64(1), int64(math.MaxInt64)),
		Entry("MUL wraps", insts.OpMUL, int64(math.MaxInt64), int64(2), int64(-2)),
		Entry("MinInt64 / -1", insts.OpDIV, int64(math.MinInt64), int64(-1), int64(math.MinInt64)),
	)

	It("should read the immediate for immediate forms", func() {
		regFile := &emu.RegFile{}
		alu := emu.NewALU(regFile)
		regFile.WriteReg(2, 5)
		regFile.WriteReg(3, 1000)

		alu.Execute(&insts.Instruction{Op: insts.OpADDI, Rd: 1, Rs: 2, Rt: 3, Imm: 7})

		Expect(regFile.ReadReg(1)).To(Equal(int64(12)))
	})
})
