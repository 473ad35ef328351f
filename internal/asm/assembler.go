// Package asm holds the architecture-independent base of the assembler:
// register and instruction handles, the node linked-list contract and the
// word-oriented output buffer.
package asm

import "fmt"

// Register represents architecture-specific registers.
type Register int16

// NilRegister is the only architecture-independent register, and
// can be used to indicate that no register is specified.
const NilRegister Register = 0

// Instruction represents architecture-specific instructions.
type Instruction int16

// ConstantValue represents a constant operand, e.g. an immediate or a memory
// displacement.
type ConstantValue = int64

// NodeOffsetInBinary represents an offset of this node in the final binary.
type NodeOffsetInBinary = uint64

// Node is a node in the linked list of assembled operations.
type Node interface {
	fmt.Stringer

	// AssignJumpTarget assigns the given target node as the destination of
	// the jump-kind instruction for this node.
	AssignJumpTarget(target Node)

	// AssignSourceConstant assigns the given constant as the source operand
	// of the instruction for this node.
	AssignSourceConstant(value ConstantValue)

	// OffsetInBinary returns the offset of this node in the assembled binary.
	OffsetInBinary() NodeOffsetInBinary
}

// AssemblerBase is the common interface for assemblers among multiple architectures.
type AssemblerBase interface {
	// Assemble produces the final binary for the assembled operations.
	Assemble() ([]byte, error)

	// SetJumpTargetOnNext instructs the assembler that the next node must be
	// assigned to the given nodes' jump destination.
	SetJumpTargetOnNext(nodes ...Node)

	// AddOnGenerateCallBack adds a callback invoked with the final binary
	// after all node offsets are fixed. Branch fixups are implemented with
	// these callbacks.
	AddOnGenerateCallBack(cb func(code []byte) error)
}

// BaseAssemblerImpl includes code common to all architectures.
type BaseAssemblerImpl struct {
	// SetBranchTargetOnNextNodes holds branch kind instructions (j, beq, bne, etc.)
	// where we want to set the next coming instruction as the destination of these
	// branch instructions.
	SetBranchTargetOnNextNodes []Node

	// OnGenerateCallbacks holds the callbacks which are called after generating
	// the machine code.
	OnGenerateCallbacks []func(code []byte) error
}

// SetJumpTargetOnNext implements AssemblerBase.SetJumpTargetOnNext.
func (a *BaseAssemblerImpl) SetJumpTargetOnNext(nodes ...Node) {
	a.SetBranchTargetOnNextNodes = append(a.SetBranchTargetOnNextNodes, nodes...)
}

// AddOnGenerateCallBack implements AssemblerBase.AddOnGenerateCallBack.
func (a *BaseAssemblerImpl) AddOnGenerateCallBack(cb func([]byte) error) {
	a.OnGenerateCallbacks = append(a.OnGenerateCallbacks, cb)
}
