// Package main provides a CLI tool that checks program files and timing
// configurations without simulating them.
//
// It prints the number of valid inputs on stdout and the details on
// stderr, so scripts can use the count directly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/latency"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: check <program.asm|config.yaml|config.json|dir>...\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	paths, err := loader.Glob(flag.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var valid, invalid int
	for _, path := range paths {
		if err := check(path); err != nil {
			invalid++
			fmt.Fprintf(os.Stderr, "  FAIL %s: %v\n", path, err)
			continue
		}
		valid++
		fmt.Fprintf(os.Stderr, "  ok   %s\n", path)
	}

	fmt.Printf("%d\n", valid)
	if invalid > 0 {
		os.Exit(1)
	}
}

func check(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		config, err := latency.LoadConfig(path)
		if err != nil {
			return err
		}
		return config.Validate()
	}

	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	if prog.Len() == 0 {
		return errors.New("no instructions")
	}
	return nil
}
