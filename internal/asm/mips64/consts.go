package mips64

import (
	"fmt"

	"github.com/smeltlabs/smelt/internal/asm"
)

// MIPS64 registers.
//
// The 32 general purpose registers keep their conventional $0..$31 numbering;
// names follow the o64 ABI.
const (
	// Integer registers.

	RegZero asm.Register = asm.NilRegister + 1 + iota
	RegAT
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegK0
	RegK1
	RegGP
	RegSP
	RegFP
	RegRA

	// Floating point registers.

	RegF0
	RegF1
	RegF2
	RegF3
	RegF4
	RegF5
	RegF6
	RegF7
	RegF8
	RegF9
	RegF10
	RegF11
	RegF12
	RegF13
	RegF14
	RegF15
	RegF16
	RegF17
	RegF18
	RegF19
	RegF20
	RegF21
	RegF22
	RegF23
	RegF24
	RegF25
	RegF26
	RegF27
	RegF28
	RegF29
	RegF30
	RegF31
)

// IsGPR returns true if the register is one of the 32 general purpose
// registers.
func IsGPR(r asm.Register) bool {
	return r >= RegZero && r <= RegRA
}

// IsFPR returns true if the register is one of the 32 floating point
// registers.
func IsFPR(r asm.Register) bool {
	return r >= RegF0 && r <= RegF31
}

// registerBits returns the 5-bit field value for the register.
func registerBits(r asm.Register) uint32 {
	if IsFPR(r) {
		return uint32(r-RegF0) & 31
	}
	return uint32(r-RegZero) & 31
}

// GPR returns the general purpose register for the given $0..$31 number.
func GPR(num int) (asm.Register, bool) {
	if num < 0 || num > 31 {
		return asm.NilRegister, false
	}
	return RegZero + asm.Register(num), true
}

// FPR returns the floating point register for the given $f0..$f31 number.
func FPR(num int) (asm.Register, bool) {
	if num < 0 || num > 31 {
		return asm.NilRegister, false
	}
	return RegF0 + asm.Register(num), true
}

var gprNames = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

// RegisterName returns the ABI name of the register, e.g. "$sp".
func RegisterName(r asm.Register) string {
	switch {
	case IsGPR(r):
		return gprNames[r-RegZero]
	case IsFPR(r):
		return fmt.Sprintf("$f%d", r-RegF0)
	case r == asm.NilRegister:
		return "nil"
	}
	return fmt.Sprintf("register(%d)", r)
}

// MIPS64 instructions.
//
// The doubleword (64-bit) extension carries a leading D, as in the
// architecture manuals: DADD is the 64-bit ADD and so on.
const (
	// NOP is sll $zero, $zero, 0, the canonical no-operation word.
	NOP asm.Instruction = iota
	SLL
	SRL
	SRA
	SLLV
	SRLV
	SRAV
	JR
	JALR
	SYSCALL
	BREAK
	SYNC
	MFHI
	MTHI
	MFLO
	MTLO
	MULT
	MULTU
	DIV
	DIVU
	ADD
	ADDU
	SUB
	SUBU
	AND
	OR
	XOR
	NOR
	SLT
	SLTU
	MOVZ
	MOVN
	MUL
	MADD
	MADDU
	MSUB
	MSUBU
	CLZ
	CLO
	J
	JAL
	BEQ
	BNE
	BLEZ
	BGTZ
	BLTZ
	BGEZ
	BLTZAL
	BGEZAL
	ADDI
	ADDIU
	SLTI
	SLTIU
	ANDI
	ORI
	XORI
	LUI
	LB
	LH
	LWL
	LW
	LBU
	LHU
	LWR
	SB
	SH
	SWL
	SW
	SWR
	LL
	SC
	MFC1
	MTC1
	CFC1
	CTC1
	LWC1
	LDC1
	SWC1
	SDC1

	// MIPS64 doubleword extension.

	DADD
	DADDU
	DSUB
	DSUBU
	DADDI
	DADDIU
	DSLLV
	DSRLV
	DSRAV
	DMULT
	DMULTU
	DDIV
	DDIVU
	DSLL
	DSRL
	DSRA
	DSLL32
	DSRL32
	DSRA32
	DCLZ
	DCLO
	LD
	SD
	LLD
	SCD
	LWU
	LDL
	LDR
	SDL
	SDR
	DMFC1
	DMTC1

	// MIPS64 Release 2 additions, gated on isa.FeatureMIPS64R2.

	ROTR
	ROTRV
	DROTR
	DROTR32
	DROTRV
	SEB
	SEH
	DSBH
	DSHD
	DEXT
	DINS

	// WORD emits its constant operand verbatim as one instruction word. It
	// backs the .word directive and has no mnemonic of its own.
	WORD

	// LABEL is a zero width marker that emits nothing. Branches and jumps can
	// target it, which resolves to the offset of whatever instruction follows.
	LABEL

	instructionEnd
)

var instructionNames = [instructionEnd]string{
	NOP:     "nop",
	SLL:     "sll",
	SRL:     "srl",
	SRA:     "sra",
	SLLV:    "sllv",
	SRLV:    "srlv",
	SRAV:    "srav",
	JR:      "jr",
	JALR:    "jalr",
	SYSCALL: "syscall",
	BREAK:   "break",
	SYNC:    "sync",
	MFHI:    "mfhi",
	MTHI:    "mthi",
	MFLO:    "mflo",
	MTLO:    "mtlo",
	MULT:    "mult",
	MULTU:   "multu",
	DIV:     "div",
	DIVU:    "divu",
	ADD:     "add",
	ADDU:    "addu",
	SUB:     "sub",
	SUBU:    "subu",
	AND:     "and",
	OR:      "or",
	XOR:     "xor",
	NOR:     "nor",
	SLT:     "slt",
	SLTU:    "sltu",
	MOVZ:    "movz",
	MOVN:    "movn",
	MUL:     "mul",
	MADD:    "madd",
	MADDU:   "maddu",
	MSUB:    "msub",
	MSUBU:   "msubu",
	CLZ:     "clz",
	CLO:     "clo",
	J:       "j",
	JAL:     "jal",
	BEQ:     "beq",
	BNE:     "bne",
	BLEZ:    "blez",
	BGTZ:    "bgtz",
	BLTZ:    "bltz",
	BGEZ:    "bgez",
	BLTZAL:  "bltzal",
	BGEZAL:  "bgezal",
	ADDI:    "addi",
	ADDIU:   "addiu",
	SLTI:    "slti",
	SLTIU:   "sltiu",
	ANDI:    "andi",
	ORI:     "ori",
	XORI:    "xori",
	LUI:     "lui",
	LB:      "lb",
	LH:      "lh",
	LWL:     "lwl",
	LW:      "lw",
	LBU:     "lbu",
	LHU:     "lhu",
	LWR:     "lwr",
	SB:      "sb",
	SH:      "sh",
	SWL:     "swl",
	SW:      "sw",
	SWR:     "swr",
	LL:      "ll",
	SC:      "sc",
	MFC1:    "mfc1",
	MTC1:    "mtc1",
	CFC1:    "cfc1",
	CTC1:    "ctc1",
	LWC1:    "lwc1",
	LDC1:    "ldc1",
	SWC1:    "swc1",
	SDC1:    "sdc1",
	DADD:    "dadd",
	DADDU:   "daddu",
	DSUB:    "dsub",
	DSUBU:   "dsubu",
	DADDI:   "daddi",
	DADDIU:  "daddiu",
	DSLLV:   "dsllv",
	DSRLV:   "dsrlv",
	DSRAV:   "dsrav",
	DMULT:   "dmult",
	DMULTU:  "dmultu",
	DDIV:    "ddiv",
	DDIVU:   "ddivu",
	DSLL:    "dsll",
	DSRL:    "dsrl",
	DSRA:    "dsra",
	DSLL32:  "dsll32",
	DSRL32:  "dsrl32",
	DSRA32:  "dsra32",
	DCLZ:    "dclz",
	DCLO:    "dclo",
	LD:      "ld",
	SD:      "sd",
	LLD:     "lld",
	SCD:     "scd",
	LWU:     "lwu",
	LDL:     "ldl",
	LDR:     "ldr",
	SDL:     "sdl",
	SDR:     "sdr",
	DMFC1:   "dmfc1",
	DMTC1:   "dmtc1",
	ROTR:    "rotr",
	ROTRV:   "rotrv",
	DROTR:   "drotr",
	DROTR32: "drotr32",
	DROTRV:  "drotrv",
	SEB:     "seb",
	SEH:     "seh",
	DSBH:    "dsbh",
	DSHD:    "dshd",
	DEXT:    "dext",
	DINS:    "dins",
	WORD:    ".word",
	LABEL:   "label",
}

// InstructionName returns the mnemonic of the instruction.
func InstructionName(inst asm.Instruction) string {
	if inst >= 0 && inst < instructionEnd {
		return instructionNames[inst]
	}
	return fmt.Sprintf("instruction(%d)", inst)
}

var instructionByName = map[string]asm.Instruction{}

func init() {
	for i, name := range instructionNames {
		instructionByName[name] = asm.Instruction(i)
	}
	// Not instructions of their own in the textual language.
	delete(instructionByName, ".word")
	delete(instructionByName, "label")
}

// InstructionByName returns the instruction for a lowercase mnemonic.
func InstructionByName(name string) (asm.Instruction, bool) {
	inst, ok := instructionByName[name]
	return inst, ok
}
