// Package asmtext parses a line oriented MIPS64 assembly dialect into
// statements for the assembler.
//
// The grammar is a small subset of the GNU assembler's: one instruction,
// label or directive per line, "#" and "//" comments, registers written
// "$4" or "$a0", and memory operands written "imm($reg)". The ".text"
// directive is accepted and ignored so that compiler output assembles
// unmodified, and ".word" emits one raw 32-bit value.
package asmtext

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse returns the statements in source, expanding the "nop" free pseudo
// instructions "move", "b" and "li". Any error is a *FormatError positioned
// at the offending token.
func Parse(source []byte) ([]Stmt, error) {
	p := &parser{labels: map[string]struct{}{}}
	line, col, err := lex(p.parse, source)
	if err == nil {
		// A final line without a trailing newline still reduces.
		err = p.reduce()
	}
	if err != nil {
		var fe *FormatError
		if !errors.As(err, &fe) {
			err = &FormatError{Line: line, Col: col, cause: err}
		}
		return nil, err
	}
	return p.stmts, nil
}

// lineToken is a token held until the newline that reduces its line.
type lineToken struct {
	tok  tokenType
	text string
	line uint32
	col  uint32
}

type parser struct {
	stmts []Stmt
	// labels are the names defined so far, to reject duplicates.
	labels map[string]struct{}
	// line are the tokens of the current line, reset on reduce.
	line []lineToken
}

// parse is a tokenParser. Statements never span lines, so tokens queue up
// until a newline reduces them.
func (p *parser) parse(tok tokenType, tokenBytes []byte, line, col uint32) error {
	if tok == tokenNewline {
		return p.reduce()
	}
	p.line = append(p.line, lineToken{tok: tok, text: string(tokenBytes), line: line, col: col})
	return nil
}

func (p *parser) reduce() error {
	toks := p.line
	p.line = p.line[:0]

	// Any number of labels can precede the statement.
	for len(toks) >= 2 && toks[0].tok == tokenID && toks[1].tok == tokenColon {
		name := toks[0].text
		if _, ok := p.labels[name]; ok {
			return &FormatError{Line: toks[0].line, Col: toks[0].col, cause: fmt.Errorf("duplicate label %q", name)}
		}
		p.labels[name] = struct{}{}
		p.stmts = append(p.stmts, &Label{Name: name, Line: toks[0].line, Col: toks[0].col})
		toks = toks[2:]
	}
	if len(toks) == 0 {
		return nil
	}

	head := toks[0]
	if head.tok != tokenID {
		return &FormatError{Line: head.line, Col: head.col, cause: unexpectedToken(head.tok, []byte(head.text))}
	}
	if strings.HasPrefix(head.text, ".") {
		return p.reduceDirective(head, toks[1:])
	}
	return p.reduceInst(head, toks[1:])
}

func (p *parser) reduceDirective(head lineToken, rest []lineToken) error {
	switch head.text {
	case ".text":
		if len(rest) != 0 {
			t := rest[0]
			return &FormatError{Line: t.line, Col: t.col, cause: unexpectedToken(t.tok, []byte(t.text))}
		}
		return nil
	case ".word":
		if len(rest) != 1 || rest[0].tok != tokenNumber {
			return &FormatError{Line: head.line, Col: head.col, cause: errors.New(".word expects one integer")}
		}
		v, err := parseImmediate(rest[0].text)
		if err != nil {
			return &FormatError{Line: rest[0].line, Col: rest[0].col, cause: err}
		}
		if v < math.MinInt32 || v > math.MaxUint32 {
			return &FormatError{Line: rest[0].line, Col: rest[0].col, cause: fmt.Errorf("word value %d out of 32-bit range", v)}
		}
		p.stmts = append(p.stmts, &Word{Value: uint32(v), Line: head.line, Col: head.col})
		return nil
	default:
		return &FormatError{Line: head.line, Col: head.col, cause: fmt.Errorf("unsupported directive %s", head.text)}
	}
}

func (p *parser) reduceInst(head lineToken, rest []lineToken) error {
	ops, err := parseOperands(rest)
	if err != nil {
		return err
	}

	switch head.text {
	case "move":
		if len(ops) != 2 || !isGPR(ops[0]) || !isGPR(ops[1]) {
			return shapeErr(head, "two registers")
		}
		p.emit(head, "or", ops[0], ops[1], RegOperand{Num: 0})
		return nil
	case "b":
		if len(ops) != 1 || !isSym(ops[0]) {
			return shapeErr(head, "a label")
		}
		p.emit(head, "beq", RegOperand{Num: 0}, RegOperand{Num: 0}, ops[0])
		return nil
	case "li":
		if len(ops) != 2 || !isGPR(ops[0]) || !isImm(ops[1]) {
			return shapeErr(head, "a register and an immediate")
		}
		return p.expandLoadImmediate(head, ops[0].(RegOperand), ops[1].(ImmOperand).Value)
	}

	shape, ok := instShapes[head.text]
	if !ok {
		return &FormatError{Line: head.line, Col: head.col, cause: fmt.Errorf("unrecognized instruction %q", head.text)}
	}
	if !matchShape(shape, ops) {
		return shapeErr(head, shape.String())
	}
	p.stmts = append(p.stmts, &Inst{Name: head.text, Operands: ops, Line: head.line, Col: head.col})
	return nil
}

func (p *parser) emit(head lineToken, name string, ops ...Operand) {
	p.stmts = append(p.stmts, &Inst{Name: name, Operands: ops, Line: head.line, Col: head.col})
}

// expandLoadImmediate lowers "li" to the shortest sequence for the value,
// which must fit in 32 bits. Like the hardware, values loaded with lui end
// up sign extended to 64 bits.
func (p *parser) expandLoadImmediate(head lineToken, dst RegOperand, v int64) error {
	if v < math.MinInt32 || v > math.MaxUint32 {
		return &FormatError{Line: head.line, Col: head.col, cause: fmt.Errorf("li value %d does not fit in 32 bits", v)}
	}
	zero := RegOperand{Num: 0}
	switch {
	case v >= math.MinInt16 && v <= math.MaxInt16:
		p.emit(head, "addiu", dst, zero, ImmOperand{Value: v})
	case v >= 0 && v <= math.MaxUint16:
		p.emit(head, "ori", dst, zero, ImmOperand{Value: v})
	default:
		hi := int64(uint32(v) >> 16)
		lo := int64(uint32(v) & 0xffff)
		p.emit(head, "lui", dst, ImmOperand{Value: hi})
		if lo != 0 {
			p.emit(head, "ori", dst, dst, ImmOperand{Value: lo})
		}
	}
	return nil
}

func shapeErr(head lineToken, want string) error {
	return &FormatError{Line: head.line, Col: head.col, cause: fmt.Errorf("%s expects %s", head.text, want)}
}

func parseOperands(toks []lineToken) ([]Operand, error) {
	var ops []Operand
	for len(toks) > 0 {
		var op Operand
		var err error
		op, toks, err = parseOperand(toks)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if len(toks) == 0 {
			break
		}
		if toks[0].tok != tokenComma {
			t := toks[0]
			return nil, &FormatError{Line: t.line, Col: t.col, cause: unexpectedToken(t.tok, []byte(t.text))}
		}
		comma := toks[0]
		toks = toks[1:]
		if len(toks) == 0 {
			return nil, &FormatError{Line: comma.line, Col: comma.col, cause: errors.New("expected an operand after ','")}
		}
	}
	return ops, nil
}

func parseOperand(toks []lineToken) (Operand, []lineToken, error) {
	t := toks[0]
	switch t.tok {
	case tokenRegister:
		r, err := parseRegister(t.text)
		if err != nil {
			return nil, nil, &FormatError{Line: t.line, Col: t.col, cause: err}
		}
		return r, toks[1:], nil
	case tokenNumber:
		v, err := parseImmediate(t.text)
		if err != nil {
			return nil, nil, &FormatError{Line: t.line, Col: t.col, cause: err}
		}
		if len(toks) > 1 && toks[1].tok == tokenLParen {
			return parseMem(v, t, toks[1:])
		}
		return ImmOperand{Value: v}, toks[1:], nil
	case tokenLParen:
		// A memory operand with the offset left out, e.g. "($sp)".
		return parseMem(0, t, toks)
	case tokenID:
		return SymOperand{Name: t.text}, toks[1:], nil
	default:
		return nil, nil, &FormatError{Line: t.line, Col: t.col, cause: unexpectedToken(t.tok, []byte(t.text))}
	}
}

// parseMem parses "($reg)" at toks[0], which is the opening parenthesis.
func parseMem(offset int64, at lineToken, toks []lineToken) (Operand, []lineToken, error) {
	if len(toks) < 3 || toks[1].tok != tokenRegister || toks[2].tok != tokenRParen {
		return nil, nil, &FormatError{Line: at.line, Col: at.col, cause: errors.New("expected ($reg) after memory offset")}
	}
	r, err := parseRegister(toks[1].text)
	if err != nil {
		return nil, nil, &FormatError{Line: toks[1].line, Col: toks[1].col, cause: err}
	}
	if r.FPU {
		return nil, nil, &FormatError{Line: toks[1].line, Col: toks[1].col, cause: fmt.Errorf("%s is not a general purpose register", toks[1].text)}
	}
	return MemOperand{Offset: offset, Base: r.Num}, toks[3:], nil
}

// gprNames are the o32/n64 ABI register names. "s8" is an alias of "fp".
var gprNames = map[string]uint8{
	"zero": 0, "at": 1,
	"v0": 2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25,
	"k0": 26, "k1": 27,
	"gp": 28, "sp": 29, "fp": 30, "s8": 30, "ra": 31,
}

func parseRegister(text string) (RegOperand, error) {
	name := text[1:] // strip '$'
	if num, ok := gprNames[name]; ok {
		return RegOperand{Num: num}, nil
	}
	// "$fp" is matched above, so a remaining 'f' prefix is floating point.
	if len(name) > 1 && name[0] == 'f' {
		if num, err := strconv.ParseUint(name[1:], 10, 8); err == nil && num <= 31 {
			return RegOperand{Num: uint8(num), FPU: true}, nil
		}
	} else if num, err := strconv.ParseUint(name, 10, 8); err == nil && num <= 31 {
		return RegOperand{Num: uint8(num)}, nil
	}
	return RegOperand{}, fmt.Errorf("unknown register %s", text)
}

func parseImmediate(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("immediate %s out of 64-bit range", text)
		}
		return 0, fmt.Errorf("invalid immediate %s", text)
	}
	return v, nil
}

func isGPR(op Operand) bool {
	r, ok := op.(RegOperand)
	return ok && !r.FPU
}

func isFPR(op Operand) bool {
	r, ok := op.(RegOperand)
	return ok && r.FPU
}

func isImm(op Operand) bool {
	_, ok := op.(ImmOperand)
	return ok
}

func isSym(op Operand) bool {
	_, ok := op.(SymOperand)
	return ok
}
