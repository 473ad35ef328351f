package mips64

import (
	"github.com/smeltlabs/smelt/internal/asm"
)

// Assembler is the interface for MIPS64 specific assembler.
type Assembler interface {
	asm.AssemblerBase

	// CompileStandAlone adds an instruction taking no operands
	// (nop, syscall, break, sync).
	CompileStandAlone(instruction asm.Instruction) asm.Node

	// CompileRegisterToNone adds an instruction whose only operand is the
	// source register `src` (mthi, mtlo).
	CompileRegisterToNone(instruction asm.Instruction, src asm.Register)

	// CompileNoneToRegister adds an instruction whose only operand is the
	// destination register `dst` (mfhi, mflo).
	CompileNoneToRegister(instruction asm.Instruction, dst asm.Register)

	// CompileRegisterToRegister adds an instruction with one source and one
	// destination register. This covers the two-operand forms: count
	// instructions (clz/clo/dclz/dclo dst, src), the Release 2 swaps and
	// sign extensions (seb/seh/dsbh/dshd dst, src), linking register jumps
	// (jalr dst, src) and the coprocessor 1 moves, whose source or
	// destination is a floating point register.
	CompileRegisterToRegister(instruction asm.Instruction, src, dst asm.Register)

	// CompileTwoRegistersToRegister adds an instruction where the source
	// operands are `src1` and `src2` in assembly order and the destination
	// is `dst`, e.g. dadd dst, src1, src2 or dsllv dst, src1(value),
	// src2(amount).
	CompileTwoRegistersToRegister(instruction asm.Instruction, src1, src2, dst asm.Register)

	// CompileTwoRegistersToNone adds an instruction with two source
	// registers and an implicit destination (the mult/div families reading
	// rs, rt into HI/LO).
	CompileTwoRegistersToNone(instruction asm.Instruction, src1, src2 asm.Register)

	// CompileConstToRegister adds an instruction whose source is the
	// constant `value` and destination the register `dst` (lui).
	CompileConstToRegister(instruction asm.Instruction, value asm.ConstantValue, dst asm.Register) asm.Node

	// CompileRegisterAndConstToRegister adds an instruction with a register
	// source, a constant and a register destination: the immediate
	// arithmetic/logic group (dst, src, imm) and the constant shifts
	// (dst, src, sa).
	CompileRegisterAndConstToRegister(instruction asm.Instruction, src asm.Register, value asm.ConstantValue, dst asm.Register)

	// CompileTwoRegistersAndConstsToRegister adds one of the bit field
	// instructions dext/dins: dst, src, pos, size.
	CompileTwoRegistersAndConstsToRegister(instruction asm.Instruction, src asm.Register, pos, size asm.ConstantValue, dst asm.Register)

	// CompileMemoryToRegister adds a load where the source is the memory
	// address `offset(base)` and destination the register `dst`. For lwc1
	// and ldc1 `dst` is a floating point register.
	CompileMemoryToRegister(instruction asm.Instruction, base asm.Register, offset asm.ConstantValue, dst asm.Register)

	// CompileRegisterToMemory adds a store where the source is the register
	// `src` and the destination the memory address `offset(base)`. For swc1
	// and sdc1 `src` is a floating point register.
	CompileRegisterToMemory(instruction asm.Instruction, src asm.Register, base asm.Register, offset asm.ConstantValue)

	// CompileJump adds a region jump (j, jal) and returns the node so the
	// caller can assign its target, usually via SetJumpTargetOnNext.
	CompileJump(instruction asm.Instruction) asm.Node

	// CompileJumpToRegister adds a register jump (jr, jalr with the implicit
	// $ra destination).
	CompileJumpToRegister(instruction asm.Instruction, reg asm.Register)

	// CompileBranch adds a pc-relative branch comparing against zero or
	// unconditional via beq $zero, $zero (blez, bgtz, bltz, bgez, bltzal,
	// bgezal take one register; beq/bne take two via
	// CompileBranchWithRegisters). The returned node's target must be
	// assigned before Assemble.
	CompileBranch(instruction asm.Instruction, src asm.Register) asm.Node

	// CompileBranchWithRegisters adds a two-register pc-relative branch
	// (beq, bne).
	CompileBranchWithRegisters(instruction asm.Instruction, src1, src2 asm.Register) asm.Node

	// CompileRaw adds one verbatim instruction word (.word).
	CompileRaw(word uint32)
}
