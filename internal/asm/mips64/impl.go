package mips64

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/smeltlabs/smelt/internal/asm"
	"github.com/smeltlabs/smelt/isa"
)

// nodeImpl implements asm.Node for MIPS64.
type nodeImpl struct {
	instruction asm.Instruction

	offsetInBinary asm.NodeOffsetInBinary

	// jumpTarget holds the target node in the linked list for branch and
	// jump kind instructions.
	jumpTarget *nodeImpl
	// next holds the next node from this node in the assembled linked list.
	next *nodeImpl

	types               operandTypes
	srcReg, srcReg2     asm.Register
	dstReg              asm.Register
	srcConst, srcConst2 asm.ConstantValue
}

// AssignJumpTarget implements asm.Node.
func (n *nodeImpl) AssignJumpTarget(target asm.Node) {
	n.jumpTarget = target.(*nodeImpl)
}

// AssignSourceConstant implements asm.Node.
func (n *nodeImpl) AssignSourceConstant(value asm.ConstantValue) {
	n.srcConst = value
}

// OffsetInBinary implements asm.Node.
func (n *nodeImpl) OffsetInBinary() asm.NodeOffsetInBinary {
	return n.offsetInBinary
}

// String implements fmt.Stringer.
//
// The format is the canonical assembly the node stands for, e.g.
// "dadd $s0, $s1, $s2" or "ld $t0, 8($sp)", so that errors and listings read
// like the source that produced them. Branch targets render recursively in
// braces because they have no label name at this layer.
func (n *nodeImpl) String() (ret string) {
	instName := InstructionName(n.instruction)
	switch n.types {
	case operandTypesNoneToNone:
		ret = instName
	case operandTypesRegisterToNone:
		ret = fmt.Sprintf("%s %s", instName, RegisterName(n.srcReg))
	case operandTypesNoneToRegister:
		ret = fmt.Sprintf("%s %s", instName, RegisterName(n.dstReg))
	case operandTypesRegisterToRegister:
		switch n.instruction {
		case MTC1, DMTC1, CTC1:
			// Moves to coprocessor 1 still write the general purpose register
			// first even though it is the source.
			ret = fmt.Sprintf("%s %s, %s", instName, RegisterName(n.srcReg), RegisterName(n.dstReg))
		default:
			ret = fmt.Sprintf("%s %s, %s", instName, RegisterName(n.dstReg), RegisterName(n.srcReg))
		}
	case operandTypesTwoRegistersToRegister:
		ret = fmt.Sprintf("%s %s, %s, %s", instName, RegisterName(n.dstReg), RegisterName(n.srcReg), RegisterName(n.srcReg2))
	case operandTypesTwoRegistersToNone:
		ret = fmt.Sprintf("%s %s, %s", instName, RegisterName(n.srcReg), RegisterName(n.srcReg2))
	case operandTypesConstToRegister:
		ret = fmt.Sprintf("%s %s, %d", instName, RegisterName(n.dstReg), n.srcConst)
	case operandTypesRegisterAndConstToRegister:
		ret = fmt.Sprintf("%s %s, %s, %d", instName, RegisterName(n.dstReg), RegisterName(n.srcReg), n.srcConst)
	case operandTypesTwoRegistersAndConstsToRegister:
		ret = fmt.Sprintf("%s %s, %s, %d, %d", instName, RegisterName(n.dstReg), RegisterName(n.srcReg), n.srcConst, n.srcConst2)
	case operandTypesMemoryToRegister:
		ret = fmt.Sprintf("%s %s, %d(%s)", instName, RegisterName(n.dstReg), n.srcConst, RegisterName(n.srcReg))
	case operandTypesRegisterToMemory:
		ret = fmt.Sprintf("%s %s, %d(%s)", instName, RegisterName(n.srcReg), n.srcConst, RegisterName(n.dstReg))
	case operandTypesNoneToBranch:
		if n.jumpTarget == nil {
			ret = fmt.Sprintf("%s <unset>", instName)
		} else {
			ret = fmt.Sprintf("%s {%v}", instName, n.jumpTarget)
		}
	case operandTypesRegisterToBranch:
		if n.jumpTarget == nil {
			ret = fmt.Sprintf("%s %s, <unset>", instName, RegisterName(n.srcReg))
		} else {
			ret = fmt.Sprintf("%s %s, {%v}", instName, RegisterName(n.srcReg), n.jumpTarget)
		}
	case operandTypesTwoRegistersToBranch:
		if n.jumpTarget == nil {
			ret = fmt.Sprintf("%s %s, %s, <unset>", instName, RegisterName(n.srcReg), RegisterName(n.srcReg2))
		} else {
			ret = fmt.Sprintf("%s %s, %s, {%v}", instName, RegisterName(n.srcReg), RegisterName(n.srcReg2), n.jumpTarget)
		}
	case operandTypesJumpToRegister:
		ret = fmt.Sprintf("%s %s", instName, RegisterName(n.srcReg))
	case operandTypesRawWord:
		ret = fmt.Sprintf(".word 0x%08x", uint32(n.srcConst))
	}
	return
}

// operandType represents where an operand is placed for an instruction.
type operandType byte

const (
	operandTypeNone operandType = iota
	operandTypeRegister
	operandTypeTwoRegisters
	operandTypeConst
	operandTypeRegisterAndConst
	operandTypeTwoRegistersAndConsts
	operandTypeMemory
	operandTypeBranch
	operandTypeJumpToRegister
	operandTypeRawWord
)

// String implements fmt.Stringer.
func (o operandType) String() (ret string) {
	switch o {
	case operandTypeNone:
		ret = "none"
	case operandTypeRegister:
		ret = "register"
	case operandTypeTwoRegisters:
		ret = "two-registers"
	case operandTypeConst:
		ret = "const"
	case operandTypeRegisterAndConst:
		ret = "register-and-const"
	case operandTypeTwoRegistersAndConsts:
		ret = "two-registers-and-consts"
	case operandTypeMemory:
		ret = "memory"
	case operandTypeBranch:
		ret = "branch"
	case operandTypeJumpToRegister:
		ret = "jump-to-register"
	case operandTypeRawWord:
		ret = "raw-word"
	}
	return
}

// operandTypes represents the only combinations of operandTypes used here.
type operandTypes struct{ src, dst operandType }

var (
	operandTypesNoneToNone                      = operandTypes{operandTypeNone, operandTypeNone}
	operandTypesRegisterToNone                  = operandTypes{operandTypeRegister, operandTypeNone}
	operandTypesNoneToRegister                  = operandTypes{operandTypeNone, operandTypeRegister}
	operandTypesRegisterToRegister              = operandTypes{operandTypeRegister, operandTypeRegister}
	operandTypesTwoRegistersToRegister          = operandTypes{operandTypeTwoRegisters, operandTypeRegister}
	operandTypesTwoRegistersToNone              = operandTypes{operandTypeTwoRegisters, operandTypeNone}
	operandTypesConstToRegister                 = operandTypes{operandTypeConst, operandTypeRegister}
	operandTypesRegisterAndConstToRegister      = operandTypes{operandTypeRegisterAndConst, operandTypeRegister}
	operandTypesTwoRegistersAndConstsToRegister = operandTypes{operandTypeTwoRegistersAndConsts, operandTypeRegister}
	operandTypesMemoryToRegister                = operandTypes{operandTypeMemory, operandTypeRegister}
	operandTypesRegisterToMemory                = operandTypes{operandTypeRegister, operandTypeMemory}
	operandTypesNoneToBranch                    = operandTypes{operandTypeNone, operandTypeBranch}
	operandTypesRegisterToBranch                = operandTypes{operandTypeRegister, operandTypeBranch}
	operandTypesTwoRegistersToBranch            = operandTypes{operandTypeTwoRegisters, operandTypeBranch}
	operandTypesJumpToRegister                  = operandTypes{operandTypeJumpToRegister, operandTypeNone}
	operandTypesRawWord                         = operandTypes{operandTypeRawWord, operandTypeNone}
)

// String implements fmt.Stringer.
func (o operandTypes) String() string {
	return fmt.Sprintf("from:%s,to:%s", o.src, o.dst)
}

// AssemblerImpl implements Assembler.
type AssemblerImpl struct {
	asm.BaseAssemblerImpl
	root, current *nodeImpl
	buf           *asm.Buffer
	features      isa.Features
	// baseAddress is the address the first instruction word is assumed to be
	// loaded at. Only the 256MB region checks of j/jal care about it.
	baseAddress uint64
	nodeCount   int
}

var _ Assembler = (*AssemblerImpl)(nil)

// NewAssemblerImpl returns an assembler emitting words in the given byte
// order, validating against the given feature set.
func NewAssemblerImpl(order binary.ByteOrder, features isa.Features, baseAddress uint64) *AssemblerImpl {
	return &AssemblerImpl{buf: asm.NewBuffer(order), features: features, baseAddress: baseAddress}
}

// newNode creates a new node and appends it into the linked list.
func (a *AssemblerImpl) newNode(instruction asm.Instruction, types operandTypes) *nodeImpl {
	n := &nodeImpl{instruction: instruction, types: types}
	a.addNode(n)
	return n
}

// addNode appends the new node into the linked list.
func (a *AssemblerImpl) addNode(node *nodeImpl) {
	a.nodeCount++

	if a.root == nil {
		a.root = node
		a.current = node
	} else {
		parent := a.current
		parent.next = node
		a.current = node
	}

	for _, o := range a.SetBranchTargetOnNextNodes {
		origin := o.(*nodeImpl)
		origin.jumpTarget = node
	}
	a.SetBranchTargetOnNextNodes = nil
}

// Assemble implements asm.AssemblerBase.
func (a *AssemblerImpl) Assemble() ([]byte, error) {
	// Every node encodes to exactly one 4-byte word on MIPS.
	a.buf.Grow(a.nodeCount * 4)

	for n := a.root; n != nil; n = n.next {
		n.offsetInBinary = asm.NodeOffsetInBinary(a.buf.Len())
		if err := a.encodeNode(n); err != nil {
			return nil, err
		}
	}

	code := a.buf.Bytes()
	for _, cb := range a.OnGenerateCallbacks {
		if err := cb(code); err != nil {
			return nil, err
		}
	}
	return code, nil
}

// CompileStandAlone implements Assembler.
func (a *AssemblerImpl) CompileStandAlone(instruction asm.Instruction) asm.Node {
	return a.newNode(instruction, operandTypesNoneToNone)
}

// CompileRegisterToNone implements Assembler.
func (a *AssemblerImpl) CompileRegisterToNone(instruction asm.Instruction, src asm.Register) {
	n := a.newNode(instruction, operandTypesRegisterToNone)
	n.srcReg = src
}

// CompileNoneToRegister implements Assembler.
func (a *AssemblerImpl) CompileNoneToRegister(instruction asm.Instruction, dst asm.Register) {
	n := a.newNode(instruction, operandTypesNoneToRegister)
	n.dstReg = dst
}

// CompileRegisterToRegister implements Assembler.
func (a *AssemblerImpl) CompileRegisterToRegister(instruction asm.Instruction, src, dst asm.Register) {
	n := a.newNode(instruction, operandTypesRegisterToRegister)
	n.srcReg = src
	n.dstReg = dst
}

// CompileTwoRegistersToRegister implements Assembler.
func (a *AssemblerImpl) CompileTwoRegistersToRegister(instruction asm.Instruction, src1, src2, dst asm.Register) {
	n := a.newNode(instruction, operandTypesTwoRegistersToRegister)
	n.srcReg = src1
	n.srcReg2 = src2
	n.dstReg = dst
}

// CompileTwoRegistersToNone implements Assembler.
func (a *AssemblerImpl) CompileTwoRegistersToNone(instruction asm.Instruction, src1, src2 asm.Register) {
	n := a.newNode(instruction, operandTypesTwoRegistersToNone)
	n.srcReg = src1
	n.srcReg2 = src2
}

// CompileConstToRegister implements Assembler.
func (a *AssemblerImpl) CompileConstToRegister(instruction asm.Instruction, value asm.ConstantValue, dst asm.Register) asm.Node {
	n := a.newNode(instruction, operandTypesConstToRegister)
	n.srcConst = value
	n.dstReg = dst
	return n
}

// CompileRegisterAndConstToRegister implements Assembler.
func (a *AssemblerImpl) CompileRegisterAndConstToRegister(instruction asm.Instruction, src asm.Register, value asm.ConstantValue, dst asm.Register) {
	n := a.newNode(instruction, operandTypesRegisterAndConstToRegister)
	n.srcReg = src
	n.srcConst = value
	n.dstReg = dst
}

// CompileTwoRegistersAndConstsToRegister implements Assembler.
func (a *AssemblerImpl) CompileTwoRegistersAndConstsToRegister(instruction asm.Instruction, src asm.Register, pos, size asm.ConstantValue, dst asm.Register) {
	n := a.newNode(instruction, operandTypesTwoRegistersAndConstsToRegister)
	n.srcReg = src
	n.srcConst = pos
	n.srcConst2 = size
	n.dstReg = dst
}

// CompileMemoryToRegister implements Assembler.
func (a *AssemblerImpl) CompileMemoryToRegister(instruction asm.Instruction, base asm.Register, offset asm.ConstantValue, dst asm.Register) {
	n := a.newNode(instruction, operandTypesMemoryToRegister)
	n.srcReg = base
	n.srcConst = offset
	n.dstReg = dst
}

// CompileRegisterToMemory implements Assembler.
func (a *AssemblerImpl) CompileRegisterToMemory(instruction asm.Instruction, src asm.Register, base asm.Register, offset asm.ConstantValue) {
	n := a.newNode(instruction, operandTypesRegisterToMemory)
	n.srcReg = src
	n.dstReg = base
	n.srcConst = offset
}

// CompileJump implements Assembler.
func (a *AssemblerImpl) CompileJump(instruction asm.Instruction) asm.Node {
	return a.newNode(instruction, operandTypesNoneToBranch)
}

// CompileJumpToRegister implements Assembler.
func (a *AssemblerImpl) CompileJumpToRegister(instruction asm.Instruction, reg asm.Register) {
	n := a.newNode(instruction, operandTypesJumpToRegister)
	n.srcReg = reg
}

// CompileBranch implements Assembler.
func (a *AssemblerImpl) CompileBranch(instruction asm.Instruction, src asm.Register) asm.Node {
	n := a.newNode(instruction, operandTypesRegisterToBranch)
	n.srcReg = src
	return n
}

// CompileBranchWithRegisters implements Assembler.
func (a *AssemblerImpl) CompileBranchWithRegisters(instruction asm.Instruction, src1, src2 asm.Register) asm.Node {
	n := a.newNode(instruction, operandTypesTwoRegistersToBranch)
	n.srcReg = src1
	n.srcReg2 = src2
	return n
}

// CompileRaw implements Assembler.
func (a *AssemblerImpl) CompileRaw(word uint32) {
	n := a.newNode(WORD, operandTypesRawWord)
	n.srcConst = int64(word)
}

// encodeNode encodes the given node into the output buffer.
func (a *AssemblerImpl) encodeNode(n *nodeImpl) (err error) {
	switch n.types {
	case operandTypesNoneToNone:
		err = a.encodeNoneToNone(n)
	case operandTypesRegisterToNone:
		err = a.encodeRegisterToNone(n)
	case operandTypesNoneToRegister:
		err = a.encodeNoneToRegister(n)
	case operandTypesRegisterToRegister:
		err = a.encodeRegisterToRegister(n)
	case operandTypesTwoRegistersToRegister:
		err = a.encodeTwoRegistersToRegister(n)
	case operandTypesTwoRegistersToNone:
		err = a.encodeTwoRegistersToNone(n)
	case operandTypesConstToRegister:
		err = a.encodeConstToRegister(n)
	case operandTypesRegisterAndConstToRegister:
		err = a.encodeRegisterAndConstToRegister(n)
	case operandTypesTwoRegistersAndConstsToRegister:
		err = a.encodeTwoRegistersAndConstsToRegister(n)
	case operandTypesMemoryToRegister:
		err = a.encodeMemoryToRegister(n)
	case operandTypesRegisterToMemory:
		err = a.encodeRegisterToMemory(n)
	case operandTypesNoneToBranch:
		err = a.encodeJump(n)
	case operandTypesRegisterToBranch, operandTypesTwoRegistersToBranch:
		err = a.encodeRelativeBranch(n)
	case operandTypesJumpToRegister:
		err = a.encodeJumpToRegister(n)
	case operandTypesRawWord:
		a.buf.Append32(uint32(n.srcConst))
	default:
		err = fmt.Errorf("encoder undefined for [%s] operand type", n.types)
	}
	if err != nil {
		err = fmt.Errorf("%w: %s", err, n) // Ensure the error is debuggable by including the string value.
	}
	return
}

func errorEncodingUnsupported(n *nodeImpl) error {
	return fmt.Errorf("%s is unsupported for %s type", InstructionName(n.instruction), n.types)
}

// Instruction word formats, MIPS64 Architecture For Programmers Volume II.
//
// R-type: op(6) rs(5) rt(5) rd(5) sa(5) funct(6)
// I-type: op(6) rs(5) rt(5) imm(16)
// J-type: op(6) instr_index(26)

const (
	opSpecial  uint32 = 0x00
	opRegimm   uint32 = 0x01
	opJ        uint32 = 0x02
	opJAL      uint32 = 0x03
	opCop1     uint32 = 0x11
	opSpecial2 uint32 = 0x1c
	opSpecial3 uint32 = 0x1f
)

func typeR(op, rs, rt, rd, sa, funct uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func typeI(op, rs, rt uint32, imm uint16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(imm)
}

func typeJ(op, index uint32) uint32 {
	return op<<26 | index&0x03ff_ffff
}

// mips64r2Instructions holds the instructions which require
// isa.FeatureMIPS64R2.
var mips64r2Instructions = map[asm.Instruction]struct{}{
	ROTR: {}, ROTRV: {}, DROTR: {}, DROTR32: {}, DROTRV: {},
	SEB: {}, SEH: {}, DSBH: {}, DSHD: {}, DEXT: {}, DINS: {},
}

func (a *AssemblerImpl) maybeRequireFeature(inst asm.Instruction) error {
	if _, ok := mips64r2Instructions[inst]; !ok {
		return nil
	}
	if err := a.features.Require(isa.FeatureMIPS64R2); err != nil {
		return fmt.Errorf("%s: %w", InstructionName(inst), err)
	}
	return nil
}

func checkGPR(r asm.Register) error {
	if !IsGPR(r) {
		return fmt.Errorf("%s is not a general purpose register", RegisterName(r))
	}
	return nil
}

func checkFPR(r asm.Register) error {
	if !IsFPR(r) {
		return fmt.Errorf("%s is not a floating point register", RegisterName(r))
	}
	return nil
}

func checkGPRs(rs ...asm.Register) error {
	for _, r := range rs {
		if err := checkGPR(r); err != nil {
			return err
		}
	}
	return nil
}

func fitsInt16(v asm.ConstantValue) bool {
	return v >= -0x8000 && v <= 0x7fff
}

func fitsUint16(v asm.ConstantValue) bool {
	return v >= 0 && v <= 0xffff
}

func (a *AssemblerImpl) encodeNoneToNone(n *nodeImpl) error {
	var word uint32
	switch n.instruction {
	case LABEL:
		return nil // zero width, only an anchor for jump targets
	case NOP:
		word = 0 // sll $zero, $zero, 0
	case SYSCALL:
		word = typeR(opSpecial, 0, 0, 0, 0, 0b001100)
	case BREAK:
		word = typeR(opSpecial, 0, 0, 0, 0, 0b001101)
	case SYNC:
		word = typeR(opSpecial, 0, 0, 0, 0, 0b001111)
	default:
		return errorEncodingUnsupported(n)
	}
	a.buf.Append32(word)
	return nil
}

func (a *AssemblerImpl) encodeRegisterToNone(n *nodeImpl) error {
	var funct uint32
	switch n.instruction {
	case MTHI:
		funct = 0b010001
	case MTLO:
		funct = 0b010011
	default:
		return errorEncodingUnsupported(n)
	}
	if err := checkGPR(n.srcReg); err != nil {
		return err
	}
	a.buf.Append32(typeR(opSpecial, registerBits(n.srcReg), 0, 0, 0, funct))
	return nil
}

func (a *AssemblerImpl) encodeNoneToRegister(n *nodeImpl) error {
	var funct uint32
	switch n.instruction {
	case MFHI:
		funct = 0b010000
	case MFLO:
		funct = 0b010010
	default:
		return errorEncodingUnsupported(n)
	}
	if err := checkGPR(n.dstReg); err != nil {
		return err
	}
	a.buf.Append32(typeR(opSpecial, 0, 0, registerBits(n.dstReg), 0, funct))
	return nil
}

func (a *AssemblerImpl) encodeRegisterToRegister(n *nodeImpl) error {
	if err := a.maybeRequireFeature(n.instruction); err != nil {
		return err
	}

	src, dst := registerBits(n.srcReg), registerBits(n.dstReg)
	switch inst := n.instruction; inst {
	case CLZ, CLO, DCLZ, DCLO:
		// Pre-release 6 count instructions must duplicate rd into rt.
		var funct uint32
		switch inst {
		case CLZ:
			funct = 0b100000
		case CLO:
			funct = 0b100001
		case DCLZ:
			funct = 0b100100
		case DCLO:
			funct = 0b100101
		}
		if err := checkGPRs(n.srcReg, n.dstReg); err != nil {
			return err
		}
		a.buf.Append32(typeR(opSpecial2, src, dst, dst, 0, funct))
	case SEB, SEH, DSBH, DSHD:
		// BSHFL/DBSHFL: the operation selector lives in the sa field.
		var sa, funct uint32
		switch inst {
		case SEB:
			sa, funct = 0b10000, 0b100000
		case SEH:
			sa, funct = 0b11000, 0b100000
		case DSBH:
			sa, funct = 0b00010, 0b100100
		case DSHD:
			sa, funct = 0b00101, 0b100100
		}
		if err := checkGPRs(n.srcReg, n.dstReg); err != nil {
			return err
		}
		a.buf.Append32(typeR(opSpecial3, 0, src, dst, sa, funct))
	case JALR:
		if err := checkGPRs(n.srcReg, n.dstReg); err != nil {
			return err
		}
		a.buf.Append32(typeR(opSpecial, src, 0, dst, 0, 0b001001))
	case MFC1, DMFC1, CFC1:
		// Move from coprocessor 1: data flows fs -> rt.
		var sub uint32
		switch inst {
		case MFC1:
			sub = 0b00000
		case DMFC1:
			sub = 0b00001
		case CFC1:
			sub = 0b00010
		}
		if err := checkFPR(n.srcReg); err != nil {
			return err
		}
		if err := checkGPR(n.dstReg); err != nil {
			return err
		}
		a.buf.Append32(typeR(opCop1, sub, dst, src, 0, 0))
	case MTC1, DMTC1, CTC1:
		// Move to coprocessor 1: data flows rt -> fs.
		var sub uint32
		switch inst {
		case MTC1:
			sub = 0b00100
		case DMTC1:
			sub = 0b00101
		case CTC1:
			sub = 0b00110
		}
		if err := checkGPR(n.srcReg); err != nil {
			return err
		}
		if err := checkFPR(n.dstReg); err != nil {
			return err
		}
		a.buf.Append32(typeR(opCop1, sub, src, dst, 0, 0))
	default:
		return errorEncodingUnsupported(n)
	}
	return nil
}

func (a *AssemblerImpl) encodeTwoRegistersToRegister(n *nodeImpl) error {
	if err := a.maybeRequireFeature(n.instruction); err != nil {
		return err
	}
	if err := checkGPRs(n.srcReg, n.srcReg2, n.dstReg); err != nil {
		return err
	}

	src1, src2, dst := registerBits(n.srcReg), registerBits(n.srcReg2), registerBits(n.dstReg)
	switch inst := n.instruction; inst {
	case ADD, ADDU, SUB, SUBU, AND, OR, XOR, NOR, SLT, SLTU,
		DADD, DADDU, DSUB, DSUBU, MOVZ, MOVN:
		var funct uint32
		switch inst {
		case ADD:
			funct = 0b100000
		case ADDU:
			funct = 0b100001
		case SUB:
			funct = 0b100010
		case SUBU:
			funct = 0b100011
		case AND:
			funct = 0b100100
		case OR:
			funct = 0b100101
		case XOR:
			funct = 0b100110
		case NOR:
			funct = 0b100111
		case SLT:
			funct = 0b101010
		case SLTU:
			funct = 0b101011
		case DADD:
			funct = 0b101100
		case DADDU:
			funct = 0b101101
		case DSUB:
			funct = 0b101110
		case DSUBU:
			funct = 0b101111
		case MOVZ:
			funct = 0b001010
		case MOVN:
			funct = 0b001011
		}
		a.buf.Append32(typeR(opSpecial, src1, src2, dst, 0, funct))
	case SLLV, SRLV, SRAV, DSLLV, DSRLV, DSRAV, ROTRV, DROTRV:
		// Variable shifts read the value from rt and the amount from rs:
		// sllv rd, rt, rs. The rotates reuse the shift functs and set the
		// low bit of sa.
		var sa, funct uint32
		switch inst {
		case SLLV:
			funct = 0b000100
		case SRLV:
			funct = 0b000110
		case SRAV:
			funct = 0b000111
		case DSLLV:
			funct = 0b010100
		case DSRLV:
			funct = 0b010110
		case DSRAV:
			funct = 0b010111
		case ROTRV:
			sa, funct = 1, 0b000110
		case DROTRV:
			sa, funct = 1, 0b010110
		}
		a.buf.Append32(typeR(opSpecial, src2, src1, dst, sa, funct))
	case MUL:
		a.buf.Append32(typeR(opSpecial2, src1, src2, dst, 0, 0b000010))
	default:
		return errorEncodingUnsupported(n)
	}
	return nil
}

func (a *AssemblerImpl) encodeTwoRegistersToNone(n *nodeImpl) error {
	if err := checkGPRs(n.srcReg, n.srcReg2); err != nil {
		return err
	}

	var op, funct uint32
	switch n.instruction {
	case MULT:
		op, funct = opSpecial, 0b011000
	case MULTU:
		op, funct = opSpecial, 0b011001
	case DIV:
		op, funct = opSpecial, 0b011010
	case DIVU:
		op, funct = opSpecial, 0b011011
	case DMULT:
		op, funct = opSpecial, 0b011100
	case DMULTU:
		op, funct = opSpecial, 0b011101
	case DDIV:
		op, funct = opSpecial, 0b011110
	case DDIVU:
		op, funct = opSpecial, 0b011111
	case MADD:
		op, funct = opSpecial2, 0b000000
	case MADDU:
		op, funct = opSpecial2, 0b000001
	case MSUB:
		op, funct = opSpecial2, 0b000100
	case MSUBU:
		op, funct = opSpecial2, 0b000101
	default:
		return errorEncodingUnsupported(n)
	}
	a.buf.Append32(typeR(op, registerBits(n.srcReg), registerBits(n.srcReg2), 0, 0, funct))
	return nil
}

func (a *AssemblerImpl) encodeConstToRegister(n *nodeImpl) error {
	switch n.instruction {
	case LUI:
		if err := checkGPR(n.dstReg); err != nil {
			return err
		}
		if !fitsUint16(n.srcConst) {
			return fmt.Errorf("const %d out of 16-bit range for %s", n.srcConst, InstructionName(n.instruction))
		}
		a.buf.Append32(typeI(0b001111, 0, registerBits(n.dstReg), uint16(n.srcConst)))
	default:
		return errorEncodingUnsupported(n)
	}
	return nil
}

func (a *AssemblerImpl) encodeRegisterAndConstToRegister(n *nodeImpl) error {
	if err := a.maybeRequireFeature(n.instruction); err != nil {
		return err
	}
	if err := checkGPRs(n.srcReg, n.dstReg); err != nil {
		return err
	}

	src, dst := registerBits(n.srcReg), registerBits(n.dstReg)
	switch inst := n.instruction; inst {
	case ADDI, ADDIU, SLTI, SLTIU, DADDI, DADDIU:
		var op uint32
		switch inst {
		case ADDI:
			op = 0b001000
		case ADDIU:
			op = 0b001001
		case SLTI:
			op = 0b001010
		case SLTIU:
			op = 0b001011
		case DADDI:
			op = 0b011000
		case DADDIU:
			op = 0b011001
		}
		if !fitsInt16(n.srcConst) {
			return fmt.Errorf("const %d out of 16-bit signed range for %s", n.srcConst, InstructionName(inst))
		}
		a.buf.Append32(typeI(op, src, dst, uint16(n.srcConst)))
	case ANDI, ORI, XORI:
		var op uint32
		switch inst {
		case ANDI:
			op = 0b001100
		case ORI:
			op = 0b001101
		case XORI:
			op = 0b001110
		}
		if !fitsUint16(n.srcConst) {
			return fmt.Errorf("const %d out of 16-bit unsigned range for %s", n.srcConst, InstructionName(inst))
		}
		a.buf.Append32(typeI(op, src, dst, uint16(n.srcConst)))
	case SLL, SRL, SRA, ROTR, DSLL32, DSRL32, DSRA32, DROTR32:
		sa := n.srcConst
		if sa < 0 || sa > 31 {
			return fmt.Errorf("shift amount %d out of range [0, 31] for %s", sa, InstructionName(inst))
		}
		var rs, funct uint32
		switch inst {
		case SLL:
			funct = 0b000000
		case SRL:
			funct = 0b000010
		case SRA:
			funct = 0b000011
		case ROTR:
			rs, funct = 1, 0b000010
		case DSLL32:
			funct = 0b111100
		case DSRL32:
			funct = 0b111110
		case DSRA32:
			funct = 0b111111
		case DROTR32:
			rs, funct = 1, 0b111110
		}
		a.buf.Append32(typeR(opSpecial, rs, src, dst, uint32(sa), funct))
	case DSLL, DSRL, DSRA, DROTR:
		// Doubleword shifts by [32, 63] are silently promoted to the *32
		// form, the way the GNU assembler handles them.
		sa := n.srcConst
		if sa < 0 || sa > 63 {
			return fmt.Errorf("shift amount %d out of range [0, 63] for %s", sa, InstructionName(inst))
		}
		var rs, funct uint32
		switch inst {
		case DSLL:
			funct = 0b111000
		case DSRL:
			funct = 0b111010
		case DSRA:
			funct = 0b111011
		case DROTR:
			rs, funct = 1, 0b111010
		}
		if sa >= 32 {
			sa -= 32
			switch inst {
			case DSLL:
				funct = 0b111100
			case DSRL:
				funct = 0b111110
			case DSRA:
				funct = 0b111111
			case DROTR:
				funct = 0b111110
			}
		}
		a.buf.Append32(typeR(opSpecial, rs, src, dst, uint32(sa), funct))
	default:
		return errorEncodingUnsupported(n)
	}
	return nil
}

func (a *AssemblerImpl) encodeTwoRegistersAndConstsToRegister(n *nodeImpl) error {
	if err := a.maybeRequireFeature(n.instruction); err != nil {
		return err
	}
	if err := checkGPRs(n.srcReg, n.dstReg); err != nil {
		return err
	}

	pos, size := n.srcConst, n.srcConst2
	if pos < 0 || pos > 31 {
		return fmt.Errorf("position %d out of range [0, 31] for %s", pos, InstructionName(n.instruction))
	}

	src, dst := registerBits(n.srcReg), registerBits(n.dstReg)
	switch n.instruction {
	case DEXT:
		if size < 1 || size > 32 {
			return fmt.Errorf("size %d out of range [1, 32] for dext", size)
		}
		a.buf.Append32(typeR(opSpecial3, src, dst, uint32(size-1), uint32(pos), 0b000011))
	case DINS:
		if size < 1 || pos+size > 32 {
			return fmt.Errorf("size %d out of range [1, %d] for dins at position %d", size, 32-pos, pos)
		}
		a.buf.Append32(typeR(opSpecial3, src, dst, uint32(pos+size-1), uint32(pos), 0b000111))
	default:
		return errorEncodingUnsupported(n)
	}
	return nil
}

func (a *AssemblerImpl) encodeMemoryToRegister(n *nodeImpl) error {
	var op uint32
	fpr := false
	switch n.instruction {
	case LB:
		op = 0b100000
	case LH:
		op = 0b100001
	case LWL:
		op = 0b100010
	case LW:
		op = 0b100011
	case LBU:
		op = 0b100100
	case LHU:
		op = 0b100101
	case LWR:
		op = 0b100110
	case LWU:
		op = 0b100111
	case LDL:
		op = 0b011010
	case LDR:
		op = 0b011011
	case LL:
		op = 0b110000
	case LLD:
		op = 0b110100
	case LD:
		op = 0b110111
	case LWC1:
		op, fpr = 0b110001, true
	case LDC1:
		op, fpr = 0b110101, true
	default:
		return errorEncodingUnsupported(n)
	}
	if err := checkGPR(n.srcReg); err != nil {
		return err
	}
	if fpr {
		if err := checkFPR(n.dstReg); err != nil {
			return err
		}
	} else if err := checkGPR(n.dstReg); err != nil {
		return err
	}
	if !fitsInt16(n.srcConst) {
		return fmt.Errorf("offset %d out of 16-bit signed range for %s", n.srcConst, InstructionName(n.instruction))
	}
	a.buf.Append32(typeI(op, registerBits(n.srcReg), registerBits(n.dstReg), uint16(n.srcConst)))
	return nil
}

func (a *AssemblerImpl) encodeRegisterToMemory(n *nodeImpl) error {
	var op uint32
	fpr := false
	switch n.instruction {
	case SB:
		op = 0b101000
	case SH:
		op = 0b101001
	case SWL:
		op = 0b101010
	case SW:
		op = 0b101011
	case SDL:
		op = 0b101100
	case SDR:
		op = 0b101101
	case SWR:
		op = 0b101110
	case SC:
		op = 0b111000
	case SCD:
		op = 0b111100
	case SD:
		op = 0b111111
	case SWC1:
		op, fpr = 0b111001, true
	case SDC1:
		op, fpr = 0b111101, true
	default:
		return errorEncodingUnsupported(n)
	}
	if err := checkGPR(n.dstReg); err != nil {
		return err
	}
	if fpr {
		if err := checkFPR(n.srcReg); err != nil {
			return err
		}
	} else if err := checkGPR(n.srcReg); err != nil {
		return err
	}
	if !fitsInt16(n.srcConst) {
		return fmt.Errorf("offset %d out of 16-bit signed range for %s", n.srcConst, InstructionName(n.instruction))
	}
	a.buf.Append32(typeI(op, registerBits(n.dstReg), registerBits(n.srcReg), uint16(n.srcConst)))
	return nil
}

func (a *AssemblerImpl) encodeJumpToRegister(n *nodeImpl) error {
	if err := checkGPR(n.srcReg); err != nil {
		return err
	}
	switch n.instruction {
	case JR:
		a.buf.Append32(typeR(opSpecial, registerBits(n.srcReg), 0, 0, 0, 0b001000))
	case JALR:
		// The one-operand form links to $ra.
		a.buf.Append32(typeR(opSpecial, registerBits(n.srcReg), 0, 31, 0, 0b001001))
	default:
		return errorEncodingUnsupported(n)
	}
	return nil
}

// encodeJump encodes j/jal. The 26-bit instr_index can only address within
// the 256MB region of the delay slot, so the check must wait until the
// target's offset is final.
func (a *AssemblerImpl) encodeJump(n *nodeImpl) error {
	var op uint32
	switch n.instruction {
	case J:
		op = opJ
	case JAL:
		op = opJAL
	default:
		return errorEncodingUnsupported(n)
	}

	if n.jumpTarget == nil {
		return fmt.Errorf("jump target must be set for %s", InstructionName(n.instruction))
	}

	// At this point we don't yet know the target's offset, so emit a
	// placeholder word and patch it once all offsets are fixed.
	a.buf.Append32(0)

	order := a.buf.Order()
	a.AddOnGenerateCallBack(func(code []byte) error {
		delaySlot := a.baseAddress + n.offsetInBinary + 4
		target := a.baseAddress + n.jumpTarget.offsetInBinary
		if delaySlot>>28 != target>>28 {
			return fmt.Errorf("%s target 0x%x outside the 256MB region of 0x%x", InstructionName(n.instruction), target, delaySlot)
		}
		order.PutUint32(code[n.offsetInBinary:n.offsetInBinary+4], typeJ(op, uint32(target>>2)))
		return nil
	})
	return nil
}

// encodeRelativeBranch encodes the pc-relative conditional branches. The
// 16-bit offset is in words, relative to the delay slot.
func (a *AssemblerImpl) encodeRelativeBranch(n *nodeImpl) error {
	var op, rs, rt uint32
	switch n.instruction {
	case BEQ, BNE:
		if err := checkGPRs(n.srcReg, n.srcReg2); err != nil {
			return err
		}
		rs, rt = registerBits(n.srcReg), registerBits(n.srcReg2)
		if n.instruction == BEQ {
			op = 0b000100
		} else {
			op = 0b000101
		}
	case BLEZ, BGTZ:
		if err := checkGPR(n.srcReg); err != nil {
			return err
		}
		rs = registerBits(n.srcReg)
		if n.instruction == BLEZ {
			op = 0b000110
		} else {
			op = 0b000111
		}
	case BLTZ, BGEZ, BLTZAL, BGEZAL:
		if err := checkGPR(n.srcReg); err != nil {
			return err
		}
		op, rs = opRegimm, registerBits(n.srcReg)
		switch n.instruction {
		case BLTZ:
			rt = 0b00000
		case BGEZ:
			rt = 0b00001
		case BLTZAL:
			rt = 0b10000
		case BGEZAL:
			rt = 0b10001
		}
	default:
		return errorEncodingUnsupported(n)
	}

	if n.jumpTarget == nil {
		return fmt.Errorf("branch target must be set for %s", InstructionName(n.instruction))
	}

	a.buf.Append32(0) // placeholder, patched below.

	order := a.buf.Order()
	a.AddOnGenerateCallBack(func(code []byte) error {
		offset := int64(n.jumpTarget.offsetInBinary) - int64(n.offsetInBinary+4)
		if offset%4 != 0 {
			return errors.New("BUG: branch offset must be 4 bytes aligned")
		}
		words := offset / 4
		if words < -0x8000 || words > 0x7fff {
			return fmt.Errorf("branch offset %d out of the signed 18-bit range for %s", offset, InstructionName(n.instruction))
		}
		order.PutUint32(code[n.offsetInBinary:n.offsetInBinary+4], typeI(op, rs, rt, uint16(words)))
		return nil
	})
	return nil
}
