package mips64_debug

import (
	"fmt"

	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/mips"

	"github.com/smeltlabs/smelt/internal/asm"
	"github.com/smeltlabs/smelt/internal/asm/golang_asm"
	"github.com/smeltlabs/smelt/internal/asm/mips64"
	"github.com/smeltlabs/smelt/isa"
)

// assemblerGoAsmImpl implements mips64.Assembler via the golang-asm library,
// reusing the Go toolchain's mips backend as a second, independent encoder.
//
// The toolchain spells things its own way: 64-bit operations carry the V
// suffix (ADDVU is daddu), slt is SGT with the comparison flipped at the
// mnemonic level only, and the doubleword shifts fold the *32 forms into
// shift amounts of [32, 64). The mappings below account for all of that.
// Instructions the toolchain backend never had (the release 2 bit-field and
// byte-swap groups, special2 mul/madd variants, coprocessor moves) are
// absent from the table and panic when requested; the homemade assembler is
// the source of truth for those.
type assemblerGoAsmImpl struct {
	*golang_asm.GolangAsmBaseAssembler
}

var _ mips64.Assembler = (*assemblerGoAsmImpl)(nil)

func newGolangAsmAssembler(e isa.Endianness) (*assemblerGoAsmImpl, error) {
	arch := isa.ArchMIPS64
	if e == isa.LittleEndian {
		arch = isa.ArchMIPS64LE
	}
	b, err := golang_asm.NewGolangAsmBaseAssembler(arch)
	if err != nil {
		return nil, err
	}
	return &assemblerGoAsmImpl{b}, nil
}

var castAsGolangAsmInstruction = map[asm.Instruction]obj.As{
	mips64.NOP:     mips.ANOOP,
	mips64.SYSCALL: mips.ASYSCALL,
	mips64.BREAK:   mips.ABREAK,
	mips64.SYNC:    mips.ASYNC,
	mips64.ADD:     mips.AADD,
	mips64.ADDU:    mips.AADDU,
	mips64.SUB:     mips.ASUB,
	mips64.SUBU:    mips.ASUBU,
	mips64.DADD:    mips.AADDV,
	mips64.DADDU:   mips.AADDVU,
	mips64.DSUB:    mips.ASUBV,
	mips64.DSUBU:   mips.ASUBVU,
	mips64.AND:     mips.AAND,
	mips64.OR:      mips.AOR,
	mips64.XOR:     mips.AXOR,
	mips64.NOR:     mips.ANOR,
	mips64.SLT:     mips.ASGT,
	mips64.SLTU:    mips.ASGTU,
	mips64.MOVZ:    mips.ACMOVZ,
	mips64.MOVN:    mips.ACMOVN,
	mips64.MULT:    mips.AMUL,
	mips64.MULTU:   mips.AMULU,
	mips64.DMULT:   mips.AMULV,
	mips64.DMULTU:  mips.AMULVU,
	mips64.DIV:     mips.ADIV,
	mips64.DIVU:    mips.ADIVU,
	mips64.DDIV:    mips.ADIVV,
	mips64.DDIVU:   mips.ADIVVU,
	mips64.MADD:    mips.AMADD,
	mips64.MSUB:    mips.AMSUB,
	mips64.CLZ:     mips.ACLZ,
	mips64.CLO:     mips.ACLO,
	mips64.SLL:     mips.ASLL,
	mips64.SRL:     mips.ASRL,
	mips64.SRA:     mips.ASRA,
	mips64.SLLV:    mips.ASLL,
	mips64.SRLV:    mips.ASRL,
	mips64.SRAV:    mips.ASRA,
	mips64.DSLL:    mips.ASLLV,
	mips64.DSRL:    mips.ASRLV,
	mips64.DSRA:    mips.ASRAV,
	mips64.DSLLV:   mips.ASLLV,
	mips64.DSRLV:   mips.ASRLV,
	mips64.DSRAV:   mips.ASRAV,
	mips64.DSLL32:  mips.ASLLV,
	mips64.DSRL32:  mips.ASRLV,
	mips64.DSRA32:  mips.ASRAV,
	mips64.ADDI:    mips.AADD,
	mips64.ADDIU:   mips.AADDU,
	mips64.DADDI:   mips.AADDV,
	mips64.DADDIU:  mips.AADDVU,
	mips64.SLTI:    mips.ASGT,
	mips64.SLTIU:   mips.ASGTU,
	mips64.ANDI:    mips.AAND,
	mips64.ORI:     mips.AOR,
	mips64.XORI:    mips.AXOR,
	mips64.LUI:     mips.ALUI,
	mips64.LB:      mips.AMOVB,
	mips64.LBU:     mips.AMOVBU,
	mips64.LH:      mips.AMOVH,
	mips64.LHU:     mips.AMOVHU,
	mips64.LW:      mips.AMOVW,
	mips64.LWU:     mips.AMOVWU,
	mips64.LD:      mips.AMOVV,
	mips64.LWL:     mips.AMOVWL,
	mips64.LWR:     mips.AMOVWR,
	mips64.LDL:     mips.AMOVVL,
	mips64.LDR:     mips.AMOVVR,
	mips64.LL:      mips.ALL,
	mips64.LLD:     mips.ALLV,
	mips64.LWC1:    mips.AMOVF,
	mips64.LDC1:    mips.AMOVD,
	mips64.SB:      mips.AMOVB,
	mips64.SH:      mips.AMOVH,
	mips64.SW:      mips.AMOVW,
	mips64.SD:      mips.AMOVV,
	mips64.SWL:     mips.AMOVWL,
	mips64.SWR:     mips.AMOVWR,
	mips64.SDL:     mips.AMOVVL,
	mips64.SDR:     mips.AMOVVR,
	mips64.SC:      mips.ASC,
	mips64.SCD:     mips.ASCV,
	mips64.SWC1:    mips.AMOVF,
	mips64.SDC1:    mips.AMOVD,
	mips64.BEQ:     mips.ABEQ,
	mips64.BNE:     mips.ABNE,
	mips64.BLEZ:    mips.ABLEZ,
	mips64.BGTZ:    mips.ABGTZ,
	mips64.BLTZ:    mips.ABLTZ,
	mips64.BGEZ:    mips.ABGEZ,
	mips64.BLTZAL:  mips.ABLTZAL,
	mips64.BGEZAL:  mips.ABGEZAL,
	mips64.J:       obj.AJMP,
	mips64.JAL:     mips.AJAL,
	mips64.JR:      obj.AJMP,
	mips64.JALR:    mips.AJAL,
	mips64.WORD:    mips.AWORD,
	// obj.ANOP is the zero width pseudo instruction, matching LABEL.
	mips64.LABEL:   obj.ANOP,
}

func castAsGolangAsmRegister(r asm.Register) int16 {
	if mips64.IsFPR(r) {
		return int16(mips.REG_F0) + int16(r-mips64.RegF0)
	}
	return int16(mips.REG_R0) + int16(r-mips64.RegZero)
}

func castInstruction(instruction asm.Instruction) obj.As {
	as, ok := castAsGolangAsmInstruction[instruction]
	if !ok {
		panic(fmt.Sprintf("%s is not supported by the golang-asm backend", mips64.InstructionName(instruction)))
	}
	return as
}

// CompileStandAlone implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileStandAlone(instruction asm.Instruction) asm.Node {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	a.AddInstruction(p)
	return golang_asm.NewGolangAsmNode(p)
}

// CompileRegisterToNone implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileRegisterToNone(instruction asm.Instruction, src asm.Register) {
	var special int16
	switch instruction {
	case mips64.MTHI:
		special = int16(mips.REG_HI)
	case mips64.MTLO:
		special = int16(mips.REG_LO)
	default:
		panic(fmt.Sprintf("%s is not supported by the golang-asm backend", mips64.InstructionName(instruction)))
	}
	p := a.NewProg()
	p.As = mips.AMOVV
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = special
	a.AddInstruction(p)
}

// CompileNoneToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileNoneToRegister(instruction asm.Instruction, dst asm.Register) {
	var special int16
	switch instruction {
	case mips64.MFHI:
		special = int16(mips.REG_HI)
	case mips64.MFLO:
		special = int16(mips.REG_LO)
	default:
		panic(fmt.Sprintf("%s is not supported by the golang-asm backend", mips64.InstructionName(instruction)))
	}
	p := a.NewProg()
	p.As = mips.AMOVV
	p.From.Type = obj.TYPE_REG
	p.From.Reg = special
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister(dst)
	a.AddInstruction(p)
}

// CompileRegisterToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileRegisterToRegister(instruction asm.Instruction, src, dst asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister(dst)
	a.AddInstruction(p)
}

// CompileTwoRegistersToRegister implements mips64.Assembler.
//
// For the three-register forms the toolchain reads Prog.From as rt and
// Prog.Reg as rs, so the second source goes into From and the first into Reg.
// The register shift case reads them the other way around, which lands the
// shift amount in rs and the value in rt, again as the hardware wants them.
func (a *assemblerGoAsmImpl) CompileTwoRegistersToRegister(instruction asm.Instruction, src1, src2, dst asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src2)
	p.Reg = castAsGolangAsmRegister(src1)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister(dst)
	a.AddInstruction(p)
}

// CompileTwoRegistersToNone implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileTwoRegistersToNone(instruction asm.Instruction, src1, src2 asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src2)
	p.Reg = castAsGolangAsmRegister(src1)
	a.AddInstruction(p)
}

// CompileConstToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileConstToRegister(instruction asm.Instruction, value asm.ConstantValue, dst asm.Register) asm.Node {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = value
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister(dst)
	a.AddInstruction(p)
	return golang_asm.NewGolangAsmNode(p)
}

// CompileRegisterAndConstToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileRegisterAndConstToRegister(instruction asm.Instruction, src asm.Register, value asm.ConstantValue, dst asm.Register) {
	switch instruction {
	case mips64.DSLL32, mips64.DSRL32, mips64.DSRA32:
		// The toolchain addresses these as doubleword shifts by [32, 64).
		value += 32
	}
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = value
	p.Reg = castAsGolangAsmRegister(src)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister(dst)
	a.AddInstruction(p)
}

// CompileTwoRegistersAndConstsToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileTwoRegistersAndConstsToRegister(instruction asm.Instruction, src asm.Register, pos, size asm.ConstantValue, dst asm.Register) {
	panic(fmt.Sprintf("%s is not supported by the golang-asm backend", mips64.InstructionName(instruction)))
}

// CompileMemoryToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileMemoryToRegister(instruction asm.Instruction, base asm.Register, offset asm.ConstantValue, dst asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = castAsGolangAsmRegister(base)
	p.From.Offset = offset
	p.To.Type = obj.TYPE_REG
	p.To.Reg = castAsGolangAsmRegister(dst)
	a.AddInstruction(p)
}

// CompileRegisterToMemory implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileRegisterToMemory(instruction asm.Instruction, src asm.Register, base asm.Register, offset asm.ConstantValue) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src)
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = castAsGolangAsmRegister(base)
	p.To.Offset = offset
	a.AddInstruction(p)
}

// CompileJump implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileJump(instruction asm.Instruction) asm.Node {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.To.Type = obj.TYPE_BRANCH
	a.AddInstruction(p)
	return golang_asm.NewGolangAsmNode(p)
}

// CompileJumpToRegister implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileJumpToRegister(instruction asm.Instruction, reg asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = castAsGolangAsmRegister(reg)
	a.AddInstruction(p)
}

// CompileBranch implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileBranch(instruction asm.Instruction, src asm.Register) asm.Node {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src)
	p.To.Type = obj.TYPE_BRANCH
	a.AddInstruction(p)
	return golang_asm.NewGolangAsmNode(p)
}

// CompileBranchWithRegisters implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileBranchWithRegisters(instruction asm.Instruction, src1, src2 asm.Register) asm.Node {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = obj.TYPE_REG
	p.From.Reg = castAsGolangAsmRegister(src1)
	p.Reg = castAsGolangAsmRegister(src2)
	p.To.Type = obj.TYPE_BRANCH
	a.AddInstruction(p)
	return golang_asm.NewGolangAsmNode(p)
}

// CompileRaw implements mips64.Assembler.
func (a *assemblerGoAsmImpl) CompileRaw(word uint32) {
	p := a.NewProg()
	p.As = mips.AWORD
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = int64(word)
	a.AddInstruction(p)
}
