// Package loader reads assembly program files for the simulator.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sarchlab/tomasim/insts"
)

// Extensions lists the file extensions recognized as program sources.
var Extensions = []string{".asm", ".s", ".txt"}

// Load reads the program at path and returns it assembled and validated.
func Load(path string) (*insts.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return prog, nil
}

// LoadReader assembles a program from r.
func LoadReader(r io.Reader) (*insts.Program, error) {
	return insts.NewParser().Parse(r)
}

// Glob expands each argument into program paths. Directories contribute
// every file with a recognized extension; other arguments are used as is.
func Glob(args ...string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		for _, ext := range Extensions {
			matches, err := filepath.Glob(filepath.Join(arg, "*"+ext))
			if err != nil {
				return nil, err
			}
			paths = append(paths, matches...)
		}
	}
	return paths, nil
}
