package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Parser", func() {
	Describe("Arithmetic", func() {
		It("should parse ADD R4, R3, R3", func() {
			prog, err := insts.Parse("ADD R4, R3, R3\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(1))

			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(insts.Reg(4)))
			Expect(inst.Rs).To(Equal(insts.Reg(3)))
			Expect(inst.Rt).To(Equal(insts.Reg(3)))
			Expect(inst.Index).To(Equal(0))
		})

		It("should parse negative and hex immediates", func() {
			prog, err := insts.Parse("ADDI R1, R0, -5\nSUBI R2, R1, 0x10\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Imm).To(Equal(int64(-5)))
			Expect(prog.Insts[1].Op).To(Equal(insts.OpSUBI))
			Expect(prog.Insts[1].Imm).To(Equal(int64(16)))
		})
	})

	Describe("Memory", func() {
		It("should parse LD with an offset", func() {
			prog, err := insts.Parse("LD R2, 8(R3)")
			Expect(err).NotTo(HaveOccurred())

			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Rd).To(Equal(insts.Reg(2)))
			Expect(inst.Rs).To(Equal(insts.Reg(3)))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		It("should parse SW as SD with an implicit zero offset", func() {
			prog, err := insts.Parse("SW R5, (R6)")
			Expect(err).NotTo(HaveOccurred())

			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpSD))
			Expect(inst.Rt).To(Equal(insts.Reg(5)))
			Expect(inst.Rs).To(Equal(insts.Reg(6)))
			Expect(inst.Imm).To(Equal(int64(0)))
		})
	})

	Describe("Labels and branches", func() {
		It("should resolve forward and backward labels", func() {
			src := `
LOOP:	SUBI R1, R1, 1      # decrement
		BNEZ R1, LOOP
		BEQ  R1, R0, DONE
		ADDI R9, R0, 1
DONE:	HLT
`
			prog, err := insts.Parse(src)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(5))
			Expect(prog.Labels).To(HaveKeyWithValue("LOOP", 0))
			Expect(prog.Labels).To(HaveKeyWithValue("DONE", 4))
			Expect(prog.Insts[1].Target).To(Equal(0))
			Expect(prog.Insts[2].Target).To(Equal(4))
		})

		It("should allow a label on its own line", func() {
			prog, err := insts.Parse("BNEZ R1, END\nADDI R1, R0, 1\nEND:\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Target).To(Equal(2))
		})

		It("should keep the source text", func() {
			prog, err := insts.Parse("  L1: ADDI R9, R0, 999 ; tail\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Text).To(Equal("L1: ADDI R9, R0, 999 ; tail"))
		})
	})

	Describe("Data directives", func() {
		It("should seed consecutive memory words", func() {
			prog, err := insts.Parse(".word 16, 7, 8\nHLT\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Data).To(HaveKeyWithValue(int64(16), int64(7)))
			Expect(prog.Data).To(HaveKeyWithValue(int64(17), int64(8)))
			Expect(prog.Len()).To(Equal(1))
		})

		It("should reject unknown directives", func() {
			_, err := insts.Parse(".byte 1, 2")
			Expect(errors.Is(err, insts.ErrBadDirective)).To(BeTrue())
		})
	})

	Describe("Structural errors", func() {
		DescribeTable("should reject malformed programs",
			func(src string, want error, line int) {
				_, err := insts.Parse(src)
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, want)).To(BeTrue(), err.Error())

				var loadErr *insts.LoadError
				Expect(errors.As(err, &loadErr)).To(BeTrue())
				Expect(loadErr.Line).To(Equal(line))
			},
			Entry("unknown opcode", "ADDI R1, R0, 1\nFOO R1, R2\n", insts.ErrUnknownOpcode, 2),
			Entry("unknown register", "ADD R1, R2, R40\n", insts.ErrUnknownRegister, 1),
			Entry("float register", "ADD F1, R2, R3\n", insts.ErrUnknownRegister, 1),
			Entry("unresolved label", "BNE R1, R2, NOWHERE\nHLT\n", insts.ErrUnresolvedLabel, 1),
			Entry("duplicate label", "A: HLT\nA: HLT\n", insts.ErrDuplicateLabel, 2),
			Entry("too few operands", "ADD R1, R2\n", insts.ErrOperandCount, 1),
			Entry("operands on HLT", "HLT R1\n", insts.ErrOperandCount, 1),
			Entry("bad immediate", "ADDI R1, R0, ten\n", insts.ErrBadImmediate, 1),
		)
	})
})
