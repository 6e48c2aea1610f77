package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

func mustParse(src string) *insts.Program {
	prog, err := insts.Parse(src)
	Expect(err).NotTo(HaveOccurred())
	return prog
}

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).NotTo(BeNil())
			Expect(e.Memory().Words()).To(Equal(uint64(emu.DefaultMemoryWords)))
		})

		It("should honor WithMemoryWords", func() {
			e = emu.NewEmulator(emu.WithMemoryWords(1024))
			Expect(e.Memory().Words()).To(Equal(uint64(1024)))
		})
	})

	Describe("Step", func() {
		It("should fail without a program", func() {
			Expect(e.Step().Err).To(MatchError(emu.ErrNoProgram))
		})

		It("should advance the PC by one instruction", func() {
			Expect(e.LoadProgram(mustParse("ADDI R1, R0, 5\nHLT\n"))).To(Succeed())

			result := e.Step()

			Expect(result.Err).To(BeNil())
			Expect(result.Halted).To(BeFalse())
			Expect(e.RegFile().ReadReg(1)).To(Equal(int64(5)))
			Expect(e.RegFile().PC).To(Equal(1))
		})
	})

	Describe("Run", func() {
		It("should run the straight-line scenario", func() {
			src := `
	ADDI R1, R0, 100
	ADDI R2, R0, 100
	ADDI R3, R0, 10
	BNE  R1, R2, L1
	ADD  R4, R3, R3
	MUL  R5, R4, R3
	HLT
L1:	ADDI R9, R0, 999
`
			Expect(e.LoadProgram(mustParse(src))).To(Succeed())

			result := e.Run()

			Expect(result.Halted).To(BeTrue())
			Expect(e.RegFile().ReadReg(4)).To(Equal(int64(20)))
			Expect(e.RegFile().ReadReg(5)).To(Equal(int64(200)))
			Expect(e.RegFile().ReadReg(9)).To(Equal(int64(0)))
			Expect(e.InstructionCount()).To(Equal(uint64(7)))
		})

		It("should run a counted loop with memory traffic", func() {
			src := `
	.word 0, 3, 4, 5
	ADDI R1, R0, 3      # counter
	ADDI R2, R0, 0      # pointer
LOOP:	LD   R3, 0(R2)
	ADD  R4, R4, R3
	ADDI R2, R2, 1
	SUBI R1, R1, 1
	BNEZ R1, LOOP
	SD   R4, 100(R0)
	HLT
`
			Expect(e.LoadProgram(mustParse(src))).To(Succeed())

			Expect(e.Run().Halted).To(BeTrue())
			Expect(e.RegFile().ReadReg(4)).To(Equal(int64(12)))
			Expect(e.Memory().Read(100)).To(Equal(int64(12)))
		})

		It("should halt when execution runs off the end", func() {
			Expect(e.LoadProgram(mustParse("ADDI R1, R0, 1\n"))).To(Succeed())

			Expect(e.Run().Halted).To(BeTrue())
			Expect(e.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should stop at the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(10))
			Expect(e.LoadProgram(mustParse("L: BEQ R0, R0, L\n"))).To(Succeed())

			result := e.Run()

			Expect(errors.Is(result.Err, emu.ErrMaxInstructions)).To(BeTrue())
			Expect(e.InstructionCount()).To(Equal(uint64(10)))
		})
	})

	Describe("Reset", func() {
		It("should restore the loaded state", func() {
			Expect(e.LoadProgram(mustParse(".word 5, 1\nSD R0, 5(R0)\nADDI R1, R0, 1\nHLT\n"))).To(Succeed())
			e.Run()
			Expect(e.Memory().Read(5)).To(Equal(int64(0)))

			e.Reset()

			Expect(e.Halted()).To(BeFalse())
			Expect(e.RegFile().ReadReg(1)).To(Equal(int64(0)))
			Expect(e.Memory().Read(5)).To(Equal(int64(1)))
		})
	})
})
