package loader_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/loader"
)

var _ = Describe("Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeFile := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		It("should assemble a valid program", func() {
			path := writeFile("ok.asm", "ADDI R1, R0, 100\nHLT\n")

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(2))
			Expect(prog.Insts[0].Imm).To(Equal(int64(100)))
		})

		It("should report structural errors with the file name", func() {
			path := writeFile("bad.asm", "ADDI R1, R0, 1\nBNE R1, R0, MISSING\n")

			_, err := loader.Load(path)

			Expect(errors.Is(err, insts.ErrUnresolvedLabel)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("bad.asm"))
		})

		It("should fail on a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "nope.asm"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Glob", func() {
		It("should expand directories by extension", func() {
			writeFile("a.asm", "HLT\n")
			writeFile("b.s", "HLT\n")
			writeFile("notes.md", "ignore me")
			single := writeFile("c.txt", "HLT\n")

			paths, err := loader.Glob(tempDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveLen(3))

			paths, err = loader.Glob(single)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{single}))
		})
	})
})
