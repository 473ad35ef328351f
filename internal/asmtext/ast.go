package asmtext

import (
	"fmt"
	"strconv"
	"strings"
)

// Stmt is a statement parsed from assembly text: an instruction, a label or
// a data directive. The implementations are Inst, Label and Word.
type Stmt interface {
	fmt.Stringer
	// Pos returns the 1-based line and column of the statement in the source.
	Pos() (line, col uint32)
}

// Inst is a machine instruction with the mnemonic lower-cased as written.
//
// Pseudo instructions are expanded by the parser, so the mnemonic here is
// always a real instruction. For example, "move $v0, $a0" parses to an Inst
// with Name "or".
type Inst struct {
	// Name is the lower-case mnemonic, e.g. "daddiu".
	Name string
	// Operands are in source order.
	Operands []Operand
	Line     uint32
	Col      uint32
}

// Pos implements Stmt.Pos.
func (i *Inst) Pos() (line, col uint32) { return i.Line, i.Col }

// String reconstructs the canonical source text, e.g. "ld $ra, 8($sp)".
func (i *Inst) String() string {
	if len(i.Operands) == 0 {
		return i.Name
	}
	var sb strings.Builder
	sb.WriteString(i.Name)
	for idx, op := range i.Operands {
		if idx == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// Label names the position of the statement that follows it.
type Label struct {
	// Name is the label without the trailing colon, e.g. ".Lloop".
	Name string
	Line uint32
	Col  uint32
}

// Pos implements Stmt.Pos.
func (l *Label) Pos() (line, col uint32) { return l.Line, l.Col }

// String returns the definition form, e.g. ".Lloop:".
func (l *Label) String() string { return l.Name + ":" }

// Word is a ".word" directive emitting one raw 32-bit value.
type Word struct {
	Value uint32
	Line  uint32
	Col   uint32
}

// Pos implements Stmt.Pos.
func (w *Word) Pos() (line, col uint32) { return w.Line, w.Col }

// String returns the directive form, e.g. ".word 0xdeadbeef".
func (w *Word) String() string { return fmt.Sprintf(".word 0x%x", w.Value) }

// Operand is an instruction operand. The implementations are RegOperand,
// ImmOperand, MemOperand and SymOperand.
type Operand interface {
	fmt.Stringer
	operand()
}

// RegOperand is a register, e.g. "$a0" or "$f2".
type RegOperand struct {
	// Num is the hardware register number, 0 to 31.
	Num uint8
	// FPU is true for floating point registers.
	FPU bool
}

// ImmOperand is an integer immediate, e.g. "-16" or "0x7fff".
type ImmOperand struct {
	Value int64
}

// MemOperand is a base register with a signed offset, e.g. "8($sp)".
type MemOperand struct {
	Offset int64
	// Base is the hardware number of the base register, always general
	// purpose.
	Base uint8
}

// SymOperand is a reference to a label, e.g. the target of a branch.
type SymOperand struct {
	Name string
}

func (RegOperand) operand() {}
func (ImmOperand) operand() {}
func (MemOperand) operand() {}
func (SymOperand) operand() {}

// gprNamesByNum is index-coordinated with the hardware register numbers.
var gprNamesByNum = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// String returns the ABI name, e.g. "$a0" or "$f2".
func (r RegOperand) String() string {
	if r.FPU {
		return "$f" + strconv.Itoa(int(r.Num))
	}
	if int(r.Num) < len(gprNamesByNum) {
		return "$" + gprNamesByNum[r.Num]
	}
	return "$" + strconv.Itoa(int(r.Num))
}

func (i ImmOperand) String() string {
	return strconv.FormatInt(i.Value, 10)
}

func (m MemOperand) String() string {
	return strconv.FormatInt(m.Offset, 10) + "(" + RegOperand{Num: m.Base}.String() + ")"
}

func (s SymOperand) String() string { return s.Name }
