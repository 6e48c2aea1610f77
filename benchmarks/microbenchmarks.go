package benchmarks

import (
	"fmt"
	"strings"

	"github.com/sarchlab/tomasim/insts"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets a specific characteristic of the out-of-order core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		storeLoadForwarding(),
		branchTaken(),
		mixedOperations(),
		matrixMultiply2x2(),
		loopSimulation(),
		mispredictRecovery(),
		divisionLatency(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick
// validation: a loop, a matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

// Lookup returns the microbenchmark with the given name.
func Lookup(name string) (Benchmark, bool) {
	for _, b := range GetMicrobenchmarks() {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// 1. Arithmetic Sequential - independent adds spread over five registers
func arithmeticSequential() Benchmark {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		r := i%5 + 1
		fmt.Fprintf(&sb, "ADDI R%d, R%d, 1\n", r, r)
	}
	sb.WriteString("HLT\n")

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 ADDI over 5 registers - measures issue and CDB throughput",
		Source:      sb.String(),
		ExpectedRegs: map[insts.Reg]int64{
			1: 4, 2: 4, 3: 4, 4: 4, 5: 4,
		},
	}
}

// 2. Dependency Chain - every add waits on the previous broadcast
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDI (R1 = R1 + 1) - measures broadcast-to-start latency",
		Source:       buildDependencyChain(20),
		ExpectedRegs: map[insts.Reg]int64{1: 20},
	}
}

func buildDependencyChain(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("ADDI R1, R1, 1\n")
	}
	sb.WriteString("HLT\n")
	return sb.String()
}

// 3. Memory Sequential - stores then loads back and sums
func memorySequential() Benchmark {
	var sb strings.Builder
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&sb, "ADDI R1, R0, %d\n", i*10)
		fmt.Fprintf(&sb, "SD   R1, %d(R0)\n", 100+i)
	}
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&sb, "LD   R2, %d(R0)\n", 100+i)
		sb.WriteString("ADD  R3, R3, R2\n")
	}
	sb.WriteString("HLT\n")

	mem := map[int64]int64{}
	for i := 1; i <= 8; i++ {
		mem[int64(100+i)] = int64(i * 10)
	}

	return Benchmark{
		Name:           "memory_sequential",
		Description:    "8 stores then 8 dependent loads - measures load ordering behind stores",
		Source:         sb.String(),
		ExpectedRegs:   map[insts.Reg]int64{1: 80, 2: 80, 3: 360},
		ExpectedMemory: mem,
	}
}

// 4. Store-Load Forwarding - a load directly behind a store to the same word
func storeLoadForwarding() Benchmark {
	return Benchmark{
		Name:        "store_load_forwarding",
		Description: "load immediately after a store to the same address, repeated",
		Source: `
	ADDI R1, R0, 7
	SD   R1, 50(R0)
	LD   R2, 50(R0)
	ADDI R2, R2, 1
	SD   R2, 50(R0)
	LD   R3, 50(R0)
	ADDI R3, R3, 1
	SD   R3, 50(R0)
	LD   R4, 50(R0)
	HLT
`,
		ExpectedRegs:   map[insts.Reg]int64{2: 8, 3: 9, 4: 9},
		ExpectedMemory: map[int64]int64{50: 9},
	}
}

// 5. Branch Taken - five distinct always-taken forward branches
func branchTaken() Benchmark {
	var sb strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&sb, "BEQ  R0, R0, T%d\n", i)
		sb.WriteString("ADDI R9, R9, 1\n")
		fmt.Fprintf(&sb, "T%d: ADDI R1, R1, 1\n", i)
	}
	sb.WriteString("HLT\n")

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 cold taken branches - measures misprediction recovery",
		Source:       sb.String(),
		ExpectedRegs: map[insts.Reg]int64{1: 5, 9: 0},
	}
}

// 6. Mixed Operations - every class in flight at once
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "interleaved add, multiply, divide, load and store",
		Source: `
	.word 20, 6, 7
	ADDI R1, R0, 12
	LD   R2, 20(R0)
	MUL  R3, R1, R2
	LD   R4, 21(R0)
	DIV  R5, R3, R4
	SUB  R6, R3, R5
	SD   R6, 22(R0)
	ADD  R7, R5, R1
	HLT
`,
		ExpectedRegs:   map[insts.Reg]int64{3: 72, 5: 10, 6: 62, 7: 22},
		ExpectedMemory: map[int64]int64{20: 6, 21: 7, 22: 62},
	}
}

// 7. Matrix Multiply 2x2 - C = A * B with A at 0, B at 4 and C at 8
func matrixMultiply2x2() Benchmark {
	var sb strings.Builder
	sb.WriteString(".word 0, 1, 2, 3, 4\n")
	sb.WriteString(".word 4, 5, 6, 7, 8\n")
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			fmt.Fprintf(&sb, "LD  R1, %d(R0)\n", 2*i)
			fmt.Fprintf(&sb, "LD  R2, %d(R0)\n", 4+j)
			fmt.Fprintf(&sb, "LD  R3, %d(R0)\n", 2*i+1)
			fmt.Fprintf(&sb, "LD  R4, %d(R0)\n", 6+j)
			sb.WriteString("MUL R5, R1, R2\n")
			sb.WriteString("MUL R6, R3, R4\n")
			sb.WriteString("ADD R7, R5, R6\n")
			fmt.Fprintf(&sb, "SD  R7, %d(R0)\n", 8+2*i+j)
		}
	}
	sb.WriteString("HLT\n")

	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "unrolled 2x2 integer matrix multiply - measures load/multiply overlap",
		Source:      sb.String(),
		ExpectedMemory: map[int64]int64{
			0: 1, 1: 2, 2: 3, 3: 4,
			4: 5, 5: 6, 6: 7, 7: 8,
			8: 19, 9: 22, 10: 43, 11: 50,
		},
	}
}

// 8. Loop Simulation - a counted loop that trains the predictor
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "sum of 1..10 in a counted loop - measures predictor warm-up",
		Source: `
	ADDI R1, R0, 10
	ADDI R2, R0, 0
LOOP:	ADD  R2, R2, R1
	SUBI R1, R1, 1
	BNEZ R1, LOOP
	HLT
`,
		ExpectedRegs: map[insts.Reg]int64{1: 0, 2: 55},
	}
}

// 9. Mispredict Recovery - wrong-path work is discarded
func mispredictRecovery() Benchmark {
	return Benchmark{
		Name:        "mispredict_recovery",
		Description: "taken branch predicted not taken with a wrong-path write",
		Source: `
	ADDI R1, R0, 100
	ADDI R2, R0, 50
	ADDI R3, R0, 10
	MUL  R5, R3, R3
	BNE  R1, R2, L2
	SUB  R6, R0, R1
L2:	SUB  R7, R5, R3
	HLT
`,
		ExpectedRegs: map[insts.Reg]int64{5: 100, 6: 0, 7: 90},
	}
}

// 10. Division Latency - divides on the multiply class, including x/0
func divisionLatency() Benchmark {
	return Benchmark{
		Name:        "division_latency",
		Description: "dependent divides including division by zero",
		Source: `
	ADDI R1, R0, 1000
	ADDI R2, R0, 3
	DIV  R3, R1, R2
	DIV  R4, R3, R2
	DIV  R5, R4, R0
	ADDI R6, R0, -9
	DIV  R7, R6, R2
	HLT
`,
		ExpectedRegs: map[insts.Reg]int64{3: 333, 4: 111, 5: 0, 7: -3},
	}
}
