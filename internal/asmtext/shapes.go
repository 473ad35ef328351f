package asmtext

// instShape is the operand shape an instruction requires. Shapes with the
// same operand kinds are still distinct when the assembler lowers them
// differently, e.g. shapeRegReg counts bits while shapeMulDiv writes HI/LO.
type instShape byte

const (
	shapeNone instShape = iota
	// shapeSrcReg reads one register, e.g. "mthi $t0".
	shapeSrcReg
	// shapeDstReg writes one register, e.g. "mfhi $t0".
	shapeDstReg
	// shapeRegReg is "dst, src", e.g. "clz $t0, $a0".
	shapeRegReg
	// shapeRegRegReg is "dst, src1, src2", e.g. "addu $v0, $a0, $a1".
	shapeRegRegReg
	// shapeMulDiv is "src1, src2" writing HI/LO, e.g. "mult $a0, $a1".
	shapeMulDiv
	// shapeGPRFPR is "gpr, fpr" in either direction, e.g. "mtc1 $t0, $f2".
	shapeGPRFPR
	// shapeLoadImm is "dst, imm", e.g. "lui $t0, 0x1234".
	shapeLoadImm
	// shapeRegRegImm is "dst, src, imm", e.g. "daddiu $sp, $sp, -16".
	shapeRegRegImm
	// shapeBitField is "dst, src, pos, size", e.g. "dext $t0, $a0, 8, 16".
	shapeBitField
	// shapeMem is "gpr, imm($reg)", e.g. "ld $ra, 8($sp)".
	shapeMem
	// shapeMemFPR is "fpr, imm($reg)", e.g. "ldc1 $f2, 16($sp)".
	shapeMemFPR
	// shapeJump is "label", e.g. "jal main".
	shapeJump
	// shapeJumpReg is "src", e.g. "jr $ra".
	shapeJumpReg
	// shapeCallReg is "src" or "dst, src", e.g. "jalr $t9".
	shapeCallReg
	// shapeBranchZero is "src, label", e.g. "bgez $a0, .Ldone".
	shapeBranchZero
	// shapeBranchCmp is "src1, src2, label", e.g. "bne $v0, $zero, .Lloop".
	shapeBranchCmp
)

// String describes the shape for error messages, e.g. "lw expects a
// register and a memory operand".
func (s instShape) String() string {
	switch s {
	case shapeNone:
		return "no operands"
	case shapeSrcReg, shapeDstReg, shapeJumpReg:
		return "one register"
	case shapeRegReg, shapeMulDiv:
		return "two registers"
	case shapeRegRegReg:
		return "three registers"
	case shapeGPRFPR:
		return "a general purpose register and a floating point register"
	case shapeLoadImm:
		return "a register and an immediate"
	case shapeRegRegImm:
		return "two registers and an immediate"
	case shapeBitField:
		return "two registers and two immediates"
	case shapeMem, shapeMemFPR:
		return "a register and a memory operand"
	case shapeJump:
		return "a label"
	case shapeCallReg:
		return "one or two registers"
	case shapeBranchZero:
		return "a register and a label"
	case shapeBranchCmp:
		return "two registers and a label"
	}
	return "unknown operands"
}

func matchShape(s instShape, ops []Operand) bool {
	switch s {
	case shapeNone:
		return len(ops) == 0
	case shapeSrcReg, shapeDstReg, shapeJumpReg:
		return len(ops) == 1 && isGPR(ops[0])
	case shapeRegReg, shapeMulDiv:
		return len(ops) == 2 && isGPR(ops[0]) && isGPR(ops[1])
	case shapeRegRegReg:
		return len(ops) == 3 && isGPR(ops[0]) && isGPR(ops[1]) && isGPR(ops[2])
	case shapeGPRFPR:
		return len(ops) == 2 && isGPR(ops[0]) && isFPR(ops[1])
	case shapeLoadImm:
		return len(ops) == 2 && isGPR(ops[0]) && isImm(ops[1])
	case shapeRegRegImm:
		return len(ops) == 3 && isGPR(ops[0]) && isGPR(ops[1]) && isImm(ops[2])
	case shapeBitField:
		return len(ops) == 4 && isGPR(ops[0]) && isGPR(ops[1]) && isImm(ops[2]) && isImm(ops[3])
	case shapeMem:
		return len(ops) == 2 && isGPR(ops[0]) && isMem(ops[1])
	case shapeMemFPR:
		return len(ops) == 2 && isFPR(ops[0]) && isMem(ops[1])
	case shapeJump:
		return len(ops) == 1 && isSym(ops[0])
	case shapeCallReg:
		if len(ops) == 1 {
			return isGPR(ops[0])
		}
		return len(ops) == 2 && isGPR(ops[0]) && isGPR(ops[1])
	case shapeBranchZero:
		return len(ops) == 2 && isGPR(ops[0]) && isSym(ops[1])
	case shapeBranchCmp:
		return len(ops) == 3 && isGPR(ops[0]) && isGPR(ops[1]) && isSym(ops[2])
	}
	return false
}

func isMem(op Operand) bool {
	_, ok := op.(MemOperand)
	return ok
}

// instShapes maps each mnemonic to its operand shape. Pseudo instructions
// are not here since the parser expands them before lookup.
var instShapes = map[string]instShape{
	"nop":     shapeNone,
	"syscall": shapeNone,
	"break":   shapeNone,
	"sync":    shapeNone,

	"mthi": shapeSrcReg,
	"mtlo": shapeSrcReg,
	"mfhi": shapeDstReg,
	"mflo": shapeDstReg,

	"clz":  shapeRegReg,
	"clo":  shapeRegReg,
	"dclz": shapeRegReg,
	"dclo": shapeRegReg,
	"seb":  shapeRegReg,
	"seh":  shapeRegReg,
	"dsbh": shapeRegReg,
	"dshd": shapeRegReg,

	"add":    shapeRegRegReg,
	"addu":   shapeRegRegReg,
	"sub":    shapeRegRegReg,
	"subu":   shapeRegRegReg,
	"dadd":   shapeRegRegReg,
	"daddu":  shapeRegRegReg,
	"dsub":   shapeRegRegReg,
	"dsubu":  shapeRegRegReg,
	"and":    shapeRegRegReg,
	"or":     shapeRegRegReg,
	"xor":    shapeRegRegReg,
	"nor":    shapeRegRegReg,
	"slt":    shapeRegRegReg,
	"sltu":   shapeRegRegReg,
	"movz":   shapeRegRegReg,
	"movn":   shapeRegRegReg,
	"mul":    shapeRegRegReg,
	"sllv":   shapeRegRegReg,
	"srlv":   shapeRegRegReg,
	"srav":   shapeRegRegReg,
	"dsllv":  shapeRegRegReg,
	"dsrlv":  shapeRegRegReg,
	"dsrav":  shapeRegRegReg,
	"rotrv":  shapeRegRegReg,
	"drotrv": shapeRegRegReg,

	"mult":   shapeMulDiv,
	"multu":  shapeMulDiv,
	"div":    shapeMulDiv,
	"divu":   shapeMulDiv,
	"dmult":  shapeMulDiv,
	"dmultu": shapeMulDiv,
	"ddiv":   shapeMulDiv,
	"ddivu":  shapeMulDiv,
	"madd":   shapeMulDiv,
	"maddu":  shapeMulDiv,
	"msub":   shapeMulDiv,
	"msubu":  shapeMulDiv,

	"mfc1":  shapeGPRFPR,
	"mtc1":  shapeGPRFPR,
	"dmfc1": shapeGPRFPR,
	"dmtc1": shapeGPRFPR,
	"cfc1":  shapeGPRFPR,
	"ctc1":  shapeGPRFPR,

	"lui": shapeLoadImm,

	"addi":    shapeRegRegImm,
	"addiu":   shapeRegRegImm,
	"daddi":   shapeRegRegImm,
	"daddiu":  shapeRegRegImm,
	"slti":    shapeRegRegImm,
	"sltiu":   shapeRegRegImm,
	"andi":    shapeRegRegImm,
	"ori":     shapeRegRegImm,
	"xori":    shapeRegRegImm,
	"sll":     shapeRegRegImm,
	"srl":     shapeRegRegImm,
	"sra":     shapeRegRegImm,
	"dsll":    shapeRegRegImm,
	"dsrl":    shapeRegRegImm,
	"dsra":    shapeRegRegImm,
	"dsll32":  shapeRegRegImm,
	"dsrl32":  shapeRegRegImm,
	"dsra32":  shapeRegRegImm,
	"rotr":    shapeRegRegImm,
	"drotr":   shapeRegRegImm,
	"drotr32": shapeRegRegImm,

	"dext": shapeBitField,
	"dins": shapeBitField,

	"lb":  shapeMem,
	"lbu": shapeMem,
	"lh":  shapeMem,
	"lhu": shapeMem,
	"lw":  shapeMem,
	"lwu": shapeMem,
	"lwl": shapeMem,
	"lwr": shapeMem,
	"ld":  shapeMem,
	"ldl": shapeMem,
	"ldr": shapeMem,
	"ll":  shapeMem,
	"lld": shapeMem,
	"sb":  shapeMem,
	"sh":  shapeMem,
	"sw":  shapeMem,
	"swl": shapeMem,
	"swr": shapeMem,
	"sd":  shapeMem,
	"sdl": shapeMem,
	"sdr": shapeMem,
	"sc":  shapeMem,
	"scd": shapeMem,

	"lwc1": shapeMemFPR,
	"ldc1": shapeMemFPR,
	"swc1": shapeMemFPR,
	"sdc1": shapeMemFPR,

	"j":   shapeJump,
	"jal": shapeJump,

	"jr":   shapeJumpReg,
	"jalr": shapeCallReg,

	"blez":   shapeBranchZero,
	"bgtz":   shapeBranchZero,
	"bltz":   shapeBranchZero,
	"bgez":   shapeBranchZero,
	"bltzal": shapeBranchZero,
	"bgezal": shapeBranchZero,

	"beq": shapeBranchCmp,
	"bne": shapeBranchCmp,
}
