package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Program", func() {
	It("should assign indices in NewProgram", func() {
		prog := insts.NewProgram(
			insts.Instruction{Op: insts.OpADDI, Rd: 1, Rs: 0, Imm: 1},
			insts.Instruction{Op: insts.OpHLT},
		)
		Expect(prog.Insts[0].Index).To(Equal(0))
		Expect(prog.Insts[1].Index).To(Equal(1))
		Expect(prog.Validate()).To(Succeed())
	})

	It("should reject an unknown opcode", func() {
		prog := insts.NewProgram(insts.Instruction{Op: insts.Op(200)})
		err := prog.Validate()
		Expect(errors.Is(err, insts.ErrUnknownOpcode)).To(BeTrue())
	})

	It("should reject a register outside R0-R31", func() {
		prog := insts.NewProgram(insts.Instruction{Op: insts.OpADD, Rd: 1, Rs: 2, Rt: 32})
		err := prog.Validate()
		Expect(errors.Is(err, insts.ErrUnknownRegister)).To(BeTrue())

		var loadErr *insts.LoadError
		Expect(errors.As(err, &loadErr)).To(BeTrue())
		Expect(loadErr.Index).To(Equal(0))
	})

	It("should resolve a branch label through the label table", func() {
		prog := insts.NewProgram(
			insts.Instruction{Op: insts.OpBNEZ, Rs: 1, Label: "END", Target: -1},
			insts.Instruction{Op: insts.OpHLT},
		)
		prog.Labels["END"] = 1
		Expect(prog.Validate()).To(Succeed())
		Expect(prog.Insts[0].Target).To(Equal(1))
	})

	It("should reject an out-of-range branch target", func() {
		prog := insts.NewProgram(insts.Instruction{Op: insts.OpBNEZ, Rs: 1, Target: 5})
		Expect(errors.Is(prog.Validate(), insts.ErrUnresolvedLabel)).To(BeTrue())
	})

	It("should allow a branch to the end of the stream", func() {
		prog := insts.NewProgram(insts.Instruction{Op: insts.OpBNEZ, Rs: 1, Target: 1})
		Expect(prog.Validate()).To(Succeed())
	})

	It("should deep-copy in Clone", func() {
		prog := insts.NewProgram(insts.Instruction{Op: insts.OpHLT})
		prog.Data[4] = 9
		c := prog.Clone()
		c.Insts[0].Op = insts.OpADD
		c.Data[4] = 1
		Expect(prog.Insts[0].Op).To(Equal(insts.OpHLT))
		Expect(prog.Data[int64(4)]).To(Equal(int64(9)))
	})

	It("should return nil from At when out of range", func() {
		prog := insts.NewProgram(insts.Instruction{Op: insts.OpHLT})
		Expect(prog.At(0)).NotTo(BeNil())
		Expect(prog.At(1)).To(BeNil())
		Expect(prog.At(-1)).To(BeNil())
	})
})
