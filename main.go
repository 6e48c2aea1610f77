// Package main provides the entry point for Tomasim.
// Tomasim is a cycle-accurate Tomasulo out-of-order core simulator.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Tomasim - Tomasulo Out-of-Order Core Simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasim [options] <program.asm|dir>...")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -emu         Run the sequential reference emulator")
	fmt.Println("  -config      Timing configuration JSON or YAML file")
	fmt.Println("  -trace       Print engine events")
	fmt.Println("  -dump        Print stations, reorder buffer and registers every cycle")
	fmt.Println("  -check       Compare the final state with the reference emulator")
	fmt.Println("  -v           Log verbosity")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI,")
	fmt.Println("'go run ./cmd/benchmark' for the benchmark harness.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
