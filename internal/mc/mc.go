// Package mc turns parsed assembly statements into machine code by driving
// the MIPS64 assembler.
package mc

import (
	"fmt"

	"github.com/smeltlabs/smelt/internal/asm"
	"github.com/smeltlabs/smelt/internal/asm/mips64"
	"github.com/smeltlabs/smelt/internal/asmtext"
	"github.com/smeltlabs/smelt/isa"
)

// Config selects the target and output of one Emit call.
type Config struct {
	Endianness isa.Endianness
	Features   isa.Features
	// BaseAddress is the address the image is assembled for. Region jumps
	// encode absolute targets, so it matters beyond presentation.
	BaseAddress uint64
	// Listing records one ListingEntry per emitted word.
	Listing bool
}

// ListingEntry describes one emitted word.
type ListingEntry struct {
	// Offset is the byte offset of the word from the start of the image.
	Offset uint64
	// Word is the encoded instruction or data word.
	Word uint32
	// Source is the canonical text of the statement that produced the word.
	Source string
}

// Emit assembles stmts into a flat image. When cfg.Listing is set, the
// returned entries describe each emitted word in statement order.
//
// Labels may be referenced before they are defined. A label must be
// followed by an instruction or word somewhere in the file, since it
// resolves to the offset of whatever follows it.
func Emit(stmts []asmtext.Stmt, cfg Config) ([]byte, []ListingEntry, error) {
	a, err := newAssembler(cfg)
	if err != nil {
		return nil, nil, err
	}

	e := &emitter{a: a, labelNodes: map[string]asm.Node{}, pending: map[string][]asm.Node{}}
	for _, st := range stmts {
		if err = e.emit(st); err != nil {
			return nil, nil, err
		}
	}
	if err = e.finish(); err != nil {
		return nil, nil, err
	}

	code, err := a.Assemble()
	if err != nil {
		return nil, nil, err
	}

	var listing []ListingEntry
	if cfg.Listing {
		listing = e.listing(code, cfg)
	}
	return code, listing, nil
}

type emitter struct {
	a mips64.Assembler
	// labelNodes are the zero width markers anchoring each defined label.
	labelNodes map[string]asm.Node
	// pending are forward references waiting for their label, with
	// pendingOrder keeping the error for the first one deterministic.
	pending      map[string][]asm.Node
	pendingOrder []string
	// trailing are labels not yet followed by an instruction.
	trailing []string
	// slots are the word emitting statements in order, for the listing.
	slots []asmtext.Stmt
}

func (e *emitter) emit(st asmtext.Stmt) error {
	switch n := st.(type) {
	case *asmtext.Label:
		anchor := e.a.CompileStandAlone(mips64.LABEL)
		e.labelNodes[n.Name] = anchor
		for _, ref := range e.pending[n.Name] {
			ref.AssignJumpTarget(anchor)
		}
		delete(e.pending, n.Name)
		e.trailing = append(e.trailing, n.Name)
		return nil
	case *asmtext.Word:
		e.a.CompileRaw(n.Value)
		e.slots = append(e.slots, n)
		e.trailing = nil
		return nil
	case *asmtext.Inst:
		if err := e.inst(n); err != nil {
			return err
		}
		e.slots = append(e.slots, n)
		e.trailing = nil
		return nil
	default:
		return fmt.Errorf("unknown statement %T", st)
	}
}

func (e *emitter) finish() error {
	for _, name := range e.pendingOrder {
		if _, ok := e.pending[name]; ok {
			return fmt.Errorf("undefined label %q", name)
		}
	}
	if len(e.trailing) > 0 {
		return fmt.Errorf("label %q at end of file has no instruction to target", e.trailing[0])
	}
	return nil
}

// link resolves a jump or branch node against a label, deferring the
// assignment when the label is not defined yet.
func (e *emitter) link(node asm.Node, name string) {
	if anchor, ok := e.labelNodes[name]; ok {
		node.AssignJumpTarget(anchor)
		return
	}
	if _, ok := e.pending[name]; !ok {
		e.pendingOrder = append(e.pendingOrder, name)
	}
	e.pending[name] = append(e.pending[name], node)
}

func (e *emitter) listing(code []byte, cfg Config) []ListingEntry {
	order := cfg.Endianness.ByteOrder()
	entries := make([]ListingEntry, len(e.slots))
	for i, st := range e.slots {
		off := uint64(i) * 4
		entries[i] = ListingEntry{
			Offset: off,
			Word:   order.Uint32(code[off : off+4]),
			Source: st.String(),
		}
	}
	return entries
}

// inst lowers one instruction statement onto the assembler. Operand shapes
// were already validated by the parser, so type assertions are direct.
func (e *emitter) inst(n *asmtext.Inst) error {
	inst, ok := mips64.InstructionByName(n.Name)
	if !ok {
		return fmt.Errorf("unrecognized instruction %q", n.Name)
	}
	ops := n.Operands

	switch inst {
	case mips64.NOP, mips64.SYSCALL, mips64.BREAK, mips64.SYNC:
		e.a.CompileStandAlone(inst)

	case mips64.MTHI, mips64.MTLO:
		e.a.CompileRegisterToNone(inst, gpr(ops[0]))

	case mips64.MFHI, mips64.MFLO:
		e.a.CompileNoneToRegister(inst, gpr(ops[0]))

	case mips64.CLZ, mips64.CLO, mips64.DCLZ, mips64.DCLO,
		mips64.SEB, mips64.SEH, mips64.DSBH, mips64.DSHD:
		e.a.CompileRegisterToRegister(inst, gpr(ops[1]), gpr(ops[0]))

	case mips64.MTC1, mips64.DMTC1, mips64.CTC1:
		// Written "mtc1 $rt, $fs" with the data moving into the FPU.
		e.a.CompileRegisterToRegister(inst, gpr(ops[0]), fpr(ops[1]))

	case mips64.MFC1, mips64.DMFC1, mips64.CFC1:
		e.a.CompileRegisterToRegister(inst, fpr(ops[1]), gpr(ops[0]))

	case mips64.ADD, mips64.ADDU, mips64.SUB, mips64.SUBU,
		mips64.DADD, mips64.DADDU, mips64.DSUB, mips64.DSUBU,
		mips64.AND, mips64.OR, mips64.XOR, mips64.NOR,
		mips64.SLT, mips64.SLTU, mips64.MOVZ, mips64.MOVN, mips64.MUL,
		mips64.SLLV, mips64.SRLV, mips64.SRAV,
		mips64.DSLLV, mips64.DSRLV, mips64.DSRAV,
		mips64.ROTRV, mips64.DROTRV:
		e.a.CompileTwoRegistersToRegister(inst, gpr(ops[1]), gpr(ops[2]), gpr(ops[0]))

	case mips64.MULT, mips64.MULTU, mips64.DMULT, mips64.DMULTU,
		mips64.DIV, mips64.DIVU, mips64.DDIV, mips64.DDIVU,
		mips64.MADD, mips64.MADDU, mips64.MSUB, mips64.MSUBU:
		e.a.CompileTwoRegistersToNone(inst, gpr(ops[0]), gpr(ops[1]))

	case mips64.LUI:
		e.a.CompileConstToRegister(inst, imm(ops[1]), gpr(ops[0]))

	case mips64.ADDI, mips64.ADDIU, mips64.DADDI, mips64.DADDIU,
		mips64.SLTI, mips64.SLTIU, mips64.ANDI, mips64.ORI, mips64.XORI,
		mips64.SLL, mips64.SRL, mips64.SRA,
		mips64.DSLL, mips64.DSRL, mips64.DSRA,
		mips64.DSLL32, mips64.DSRL32, mips64.DSRA32,
		mips64.ROTR, mips64.DROTR, mips64.DROTR32:
		e.a.CompileRegisterAndConstToRegister(inst, gpr(ops[1]), imm(ops[2]), gpr(ops[0]))

	case mips64.DEXT, mips64.DINS:
		e.a.CompileTwoRegistersAndConstsToRegister(inst, gpr(ops[1]), imm(ops[2]), imm(ops[3]), gpr(ops[0]))

	case mips64.LB, mips64.LBU, mips64.LH, mips64.LHU,
		mips64.LW, mips64.LWU, mips64.LWL, mips64.LWR,
		mips64.LD, mips64.LDL, mips64.LDR, mips64.LL, mips64.LLD:
		base, off := mem(ops[1])
		e.a.CompileMemoryToRegister(inst, base, off, gpr(ops[0]))

	case mips64.LWC1, mips64.LDC1:
		base, off := mem(ops[1])
		e.a.CompileMemoryToRegister(inst, base, off, fpr(ops[0]))

	case mips64.SB, mips64.SH, mips64.SW, mips64.SWL, mips64.SWR,
		mips64.SD, mips64.SDL, mips64.SDR, mips64.SC, mips64.SCD:
		base, off := mem(ops[1])
		e.a.CompileRegisterToMemory(inst, gpr(ops[0]), base, off)

	case mips64.SWC1, mips64.SDC1:
		base, off := mem(ops[1])
		e.a.CompileRegisterToMemory(inst, fpr(ops[0]), base, off)

	case mips64.J, mips64.JAL:
		e.link(e.a.CompileJump(inst), sym(ops[0]))

	case mips64.JR:
		e.a.CompileJumpToRegister(inst, gpr(ops[0]))

	case mips64.JALR:
		if len(ops) == 1 {
			e.a.CompileJumpToRegister(inst, gpr(ops[0]))
		} else {
			e.a.CompileRegisterToRegister(inst, gpr(ops[1]), gpr(ops[0]))
		}

	case mips64.BLEZ, mips64.BGTZ, mips64.BLTZ, mips64.BGEZ,
		mips64.BLTZAL, mips64.BGEZAL:
		e.link(e.a.CompileBranch(inst, gpr(ops[0])), sym(ops[1]))

	case mips64.BEQ, mips64.BNE:
		e.link(e.a.CompileBranchWithRegisters(inst, gpr(ops[0]), gpr(ops[1])), sym(ops[2]))

	default:
		return fmt.Errorf("unrecognized instruction %q", n.Name)
	}
	return nil
}

func gpr(op asmtext.Operand) asm.Register {
	r, _ := mips64.GPR(int(op.(asmtext.RegOperand).Num))
	return r
}

func fpr(op asmtext.Operand) asm.Register {
	r, _ := mips64.FPR(int(op.(asmtext.RegOperand).Num))
	return r
}

func imm(op asmtext.Operand) asm.ConstantValue {
	return op.(asmtext.ImmOperand).Value
}

func sym(op asmtext.Operand) string {
	return op.(asmtext.SymOperand).Name
}

func mem(op asmtext.Operand) (base asm.Register, offset asm.ConstantValue) {
	m := op.(asmtext.MemOperand)
	base, _ = mips64.GPR(int(m.Base))
	return base, m.Offset
}
