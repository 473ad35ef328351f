// Package mips64_debug cross-checks the homemade MIPS64 assembler against the
// Go toolchain's mips backend via golang-asm. The debug assembler runs every
// compilation through both and fails Assemble on the first byte difference.
//
// Only the instruction subset the toolchain knows is usable here, and the
// image base is fixed at zero because that is where golang-asm places code.
package mips64_debug

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/smeltlabs/smelt/internal/asm"
	"github.com/smeltlabs/smelt/internal/asm/mips64"
	"github.com/smeltlabs/smelt/isa"
)

// NewDebugAssembler can be used for ensuring that the homemade assembler
// produces exactly the same binary as the Go toolchain. Not selected by
// default; build with the debug_asm tag to route code generation through it.
func NewDebugAssembler(e isa.Endianness, features isa.Features) (mips64.Assembler, error) {
	goasm, err := newGolangAsmAssembler(e)
	if err != nil {
		return nil, err
	}
	a := mips64.NewAssemblerImpl(e.ByteOrder(), features, 0)
	return &testAssembler{a: a, goasm: goasm}, nil
}

// testAssembler implements mips64.Assembler by fanning every call out to the
// golang-asm backed assembler and the homemade one, then comparing the
// assembled binaries.
type testAssembler struct {
	goasm *assemblerGoAsmImpl
	a     mips64.Assembler
}

// testNode implements asm.Node for the usage with testAssembler.
type testNode struct {
	n     asm.Node
	goasm asm.Node
}

// String implements fmt.Stringer.
func (tn *testNode) String() string {
	return tn.n.String()
}

// AssignJumpTarget implements asm.Node.
func (tn *testNode) AssignJumpTarget(target asm.Node) {
	targetTestNode := target.(*testNode)
	tn.goasm.AssignJumpTarget(targetTestNode.goasm)
	tn.n.AssignJumpTarget(targetTestNode.n)
}

// AssignSourceConstant implements asm.Node.
func (tn *testNode) AssignSourceConstant(value asm.ConstantValue) {
	tn.goasm.AssignSourceConstant(value)
	tn.n.AssignSourceConstant(value)
}

// OffsetInBinary implements asm.Node.
func (tn *testNode) OffsetInBinary() asm.NodeOffsetInBinary {
	return tn.goasm.OffsetInBinary()
}

// Assemble implements asm.AssemblerBase.
func (ta *testAssembler) Assemble() ([]byte, error) {
	ret, err := ta.goasm.Assemble()
	if err != nil {
		return nil, err
	}

	a, err := ta.a.Assemble()
	if err != nil {
		return nil, fmt.Errorf("homemade assembler failed: %w", err)
	}

	if !bytes.Equal(ret, a) {
		expected := hex.EncodeToString(ret)
		actual := hex.EncodeToString(a)
		return nil, fmt.Errorf("expected (len=%d): %s\nactual(len=%d): %s", len(expected), expected, len(actual), actual)
	}
	return ret, nil
}

// SetJumpTargetOnNext implements asm.AssemblerBase.
func (ta *testAssembler) SetJumpTargetOnNext(nodes ...asm.Node) {
	for _, n := range nodes {
		targetTestNode := n.(*testNode)
		ta.goasm.SetJumpTargetOnNext(targetTestNode.goasm)
		ta.a.SetJumpTargetOnNext(targetTestNode.n)
	}
}

// AddOnGenerateCallBack implements asm.AssemblerBase.
func (ta *testAssembler) AddOnGenerateCallBack(cb func(code []byte) error) {
	ta.goasm.AddOnGenerateCallBack(cb)
	// Only the golang-asm side runs the callback so that it fires once.
	ta.a.AddOnGenerateCallBack(func([]byte) error { return nil })
}

// CompileStandAlone implements mips64.Assembler.
func (ta *testAssembler) CompileStandAlone(instruction asm.Instruction) asm.Node {
	ret := ta.goasm.CompileStandAlone(instruction)
	ret2 := ta.a.CompileStandAlone(instruction)
	return &testNode{goasm: ret, n: ret2}
}

// CompileRegisterToNone implements mips64.Assembler.
func (ta *testAssembler) CompileRegisterToNone(instruction asm.Instruction, src asm.Register) {
	ta.goasm.CompileRegisterToNone(instruction, src)
	ta.a.CompileRegisterToNone(instruction, src)
}

// CompileNoneToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileNoneToRegister(instruction asm.Instruction, dst asm.Register) {
	ta.goasm.CompileNoneToRegister(instruction, dst)
	ta.a.CompileNoneToRegister(instruction, dst)
}

// CompileRegisterToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileRegisterToRegister(instruction asm.Instruction, src, dst asm.Register) {
	ta.goasm.CompileRegisterToRegister(instruction, src, dst)
	ta.a.CompileRegisterToRegister(instruction, src, dst)
}

// CompileTwoRegistersToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileTwoRegistersToRegister(instruction asm.Instruction, src1, src2, dst asm.Register) {
	ta.goasm.CompileTwoRegistersToRegister(instruction, src1, src2, dst)
	ta.a.CompileTwoRegistersToRegister(instruction, src1, src2, dst)
}

// CompileTwoRegistersToNone implements mips64.Assembler.
func (ta *testAssembler) CompileTwoRegistersToNone(instruction asm.Instruction, src1, src2 asm.Register) {
	ta.goasm.CompileTwoRegistersToNone(instruction, src1, src2)
	ta.a.CompileTwoRegistersToNone(instruction, src1, src2)
}

// CompileConstToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileConstToRegister(instruction asm.Instruction, value asm.ConstantValue, dst asm.Register) asm.Node {
	ret := ta.goasm.CompileConstToRegister(instruction, value, dst)
	ret2 := ta.a.CompileConstToRegister(instruction, value, dst)
	return &testNode{goasm: ret, n: ret2}
}

// CompileRegisterAndConstToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileRegisterAndConstToRegister(instruction asm.Instruction, src asm.Register, value asm.ConstantValue, dst asm.Register) {
	ta.goasm.CompileRegisterAndConstToRegister(instruction, src, value, dst)
	ta.a.CompileRegisterAndConstToRegister(instruction, src, value, dst)
}

// CompileTwoRegistersAndConstsToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileTwoRegistersAndConstsToRegister(instruction asm.Instruction, src asm.Register, pos, size asm.ConstantValue, dst asm.Register) {
	ta.goasm.CompileTwoRegistersAndConstsToRegister(instruction, src, pos, size, dst)
	ta.a.CompileTwoRegistersAndConstsToRegister(instruction, src, pos, size, dst)
}

// CompileMemoryToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileMemoryToRegister(instruction asm.Instruction, base asm.Register, offset asm.ConstantValue, dst asm.Register) {
	ta.goasm.CompileMemoryToRegister(instruction, base, offset, dst)
	ta.a.CompileMemoryToRegister(instruction, base, offset, dst)
}

// CompileRegisterToMemory implements mips64.Assembler.
func (ta *testAssembler) CompileRegisterToMemory(instruction asm.Instruction, src asm.Register, base asm.Register, offset asm.ConstantValue) {
	ta.goasm.CompileRegisterToMemory(instruction, src, base, offset)
	ta.a.CompileRegisterToMemory(instruction, src, base, offset)
}

// CompileJump implements mips64.Assembler.
func (ta *testAssembler) CompileJump(instruction asm.Instruction) asm.Node {
	ret := ta.goasm.CompileJump(instruction)
	ret2 := ta.a.CompileJump(instruction)
	return &testNode{goasm: ret, n: ret2}
}

// CompileJumpToRegister implements mips64.Assembler.
func (ta *testAssembler) CompileJumpToRegister(instruction asm.Instruction, reg asm.Register) {
	ta.goasm.CompileJumpToRegister(instruction, reg)
	ta.a.CompileJumpToRegister(instruction, reg)
}

// CompileBranch implements mips64.Assembler.
func (ta *testAssembler) CompileBranch(instruction asm.Instruction, src asm.Register) asm.Node {
	ret := ta.goasm.CompileBranch(instruction, src)
	ret2 := ta.a.CompileBranch(instruction, src)
	return &testNode{goasm: ret, n: ret2}
}

// CompileBranchWithRegisters implements mips64.Assembler.
func (ta *testAssembler) CompileBranchWithRegisters(instruction asm.Instruction, src1, src2 asm.Register) asm.Node {
	ret := ta.goasm.CompileBranchWithRegisters(instruction, src1, src2)
	ret2 := ta.a.CompileBranchWithRegisters(instruction, src1, src2)
	return &testNode{goasm: ret, n: ret2}
}

// CompileRaw implements mips64.Assembler.
func (ta *testAssembler) CompileRaw(word uint32) {
	ta.goasm.CompileRaw(word)
	ta.a.CompileRaw(word)
}
