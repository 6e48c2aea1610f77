package insts

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Parser assembles program text into a Program.
//
// The accepted syntax is one instruction per line:
//
//	LOOP: ADDI R1, R1, -1   # comments start with '#' or ';'
//	      LD   R2, 8(R3)
//	      SD   R2, (R4)
//	      BNEZ R1, LOOP
//	      HLT
//	.word 16, 42            # memory[16] = 42
//
// Labels may share a line with an instruction or stand alone. Branch
// targets are resolved in a second pass once every label is known.
type Parser struct{}

// NewParser creates a new assembler.
func NewParser() *Parser {
	return &Parser{}
}

// Parse assembles src with a default parser.
func Parse(src string) (*Program, error) {
	return NewParser().Parse(strings.NewReader(src))
}

type pendingBranch struct {
	index int
	line  int
}

// Parse reads program text from r. The returned program has been validated.
func (ps *Parser) Parse(r io.Reader) (*Program, error) {
	prog := &Program{
		Labels: map[string]int{},
		Data:   map[int64]int64{},
	}
	var branches []pendingBranch

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := stripComment(raw)
		if line == "" {
			continue
		}

		line, err := ps.takeLabels(prog, line, lineNo)
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if err := ps.parseDirective(prog, line, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		inst, err := ps.parseInstruction(line, lineNo)
		if err != nil {
			return nil, err
		}
		inst.Index = len(prog.Insts)
		inst.Text = strings.TrimSpace(raw)
		if inst.IsBranch() {
			branches = append(branches, pendingBranch{index: inst.Index, line: lineNo})
		}
		prog.Insts = append(prog.Insts, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, b := range branches {
		inst := &prog.Insts[b.index]
		target, ok := prog.Labels[inst.Label]
		if !ok {
			return nil, &LoadError{Line: b.line, Index: b.index, Text: inst.Label, Err: ErrUnresolvedLabel}
		}
		inst.Target = target
	}

	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// takeLabels consumes any "name:" prefixes on a line.
func (ps *Parser) takeLabels(prog *Program, line string, lineNo int) (string, error) {
	for {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return line, nil
		}
		name := strings.TrimSpace(line[:colon])
		if !isIdent(name) {
			return "", &LoadError{Line: lineNo, Index: -1, Text: name, Err: ErrOperandCount}
		}
		if _, dup := prog.Labels[name]; dup {
			return "", &LoadError{Line: lineNo, Index: -1, Text: name, Err: ErrDuplicateLabel}
		}
		prog.Labels[name] = len(prog.Insts)
		line = strings.TrimSpace(line[colon+1:])
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')'
	})
}

func (ps *Parser) parseDirective(prog *Program, line string, lineNo int) error {
	tokens := tokenize(line)
	if strings.ToLower(tokens[0]) != ".word" || len(tokens) < 3 {
		return &LoadError{Line: lineNo, Index: -1, Text: line, Err: ErrBadDirective}
	}
	addr, err := parseImm(tokens[1])
	if err != nil {
		return &LoadError{Line: lineNo, Index: -1, Text: tokens[1], Err: ErrBadImmediate}
	}
	for i, tok := range tokens[2:] {
		v, err := parseImm(tok)
		if err != nil {
			return &LoadError{Line: lineNo, Index: -1, Text: tok, Err: ErrBadImmediate}
		}
		prog.Data[addr+int64(i)] = v
	}
	return nil
}

func (ps *Parser) parseInstruction(line string, lineNo int) (Instruction, error) {
	tokens := tokenize(line)
	inst := Instruction{Rd: NoReg, Rs: NoReg, Rt: NoReg, Target: -1}

	op, ok := LookupOp(tokens[0])
	if !ok {
		return inst, &LoadError{Line: lineNo, Index: -1, Text: tokens[0], Err: ErrUnknownOpcode}
	}
	inst.Op = op
	args := tokens[1:]

	fail := func(text string, err error) (Instruction, error) {
		return inst, &LoadError{Line: lineNo, Index: -1, Text: text, Err: err}
	}
	reg := func(tok string) (Reg, error) {
		r, ok := ParseReg(tok)
		if !ok {
			return NoReg, &LoadError{Line: lineNo, Index: -1, Text: tok, Err: ErrUnknownRegister}
		}
		return r, nil
	}

	var err error
	switch op.Format() {
	case FormatReg:
		if len(args) != 3 {
			return fail(line, ErrOperandCount)
		}
		if inst.Rd, err = reg(args[0]); err != nil {
			return inst, err
		}
		if inst.Rs, err = reg(args[1]); err != nil {
			return inst, err
		}
		if inst.Rt, err = reg(args[2]); err != nil {
			return inst, err
		}

	case FormatImm:
		if len(args) != 3 {
			return fail(line, ErrOperandCount)
		}
		if inst.Rd, err = reg(args[0]); err != nil {
			return inst, err
		}
		if inst.Rs, err = reg(args[1]); err != nil {
			return inst, err
		}
		if inst.Imm, err = parseImm(args[2]); err != nil {
			return fail(args[2], ErrBadImmediate)
		}

	case FormatMem:
		// reg, off(base) or reg, (base)
		if len(args) != 2 && len(args) != 3 {
			return fail(line, ErrOperandCount)
		}
		value, err := reg(args[0])
		if err != nil {
			return inst, err
		}
		baseTok := args[len(args)-1]
		if len(args) == 3 {
			if inst.Imm, err = parseImm(args[1]); err != nil {
				return fail(args[1], ErrBadImmediate)
			}
		}
		if inst.Rs, err = reg(baseTok); err != nil {
			return inst, err
		}
		if op == OpSD {
			inst.Rt = value
		} else {
			inst.Rd = value
		}

	case FormatBranch:
		if len(args) != 3 {
			return fail(line, ErrOperandCount)
		}
		if inst.Rs, err = reg(args[0]); err != nil {
			return inst, err
		}
		if inst.Rt, err = reg(args[1]); err != nil {
			return inst, err
		}
		inst.Label = args[2]

	case FormatBranchZero:
		if len(args) != 2 {
			return fail(line, ErrOperandCount)
		}
		if inst.Rs, err = reg(args[0]); err != nil {
			return inst, err
		}
		inst.Label = args[1]

	case FormatNone:
		if len(args) != 0 {
			return fail(line, ErrOperandCount)
		}
	}

	return inst, nil
}

func parseImm(tok string) (int64, error) {
	tok = strings.TrimPrefix(tok, "#")
	return strconv.ParseInt(tok, 0, 64)
}
