package mips64

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smeltlabs/smelt/internal/asm"
	"github.com/smeltlabs/smelt/isa"
)

// word returns the big-endian bytes of the given instruction word, which is
// how the expected encodings below are written down.
func word(w uint32) []byte {
	ret := make([]byte, 4)
	binary.BigEndian.PutUint32(ret, w)
	return ret
}

func newTestAssembler() *AssemblerImpl {
	return NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R2, 0)
}

func TestAssemblerImpl_Assemble_byteOrder(t *testing.T) {
	compile := func(a *AssemblerImpl) {
		a.CompileTwoRegistersToRegister(DADDU, RegA1, RegA2, RegA0)
		a.CompileRegisterToMemory(SD, RegRA, RegSP, 0)
	}

	t.Run("big", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R1, 0)
		compile(a)
		actual, err := a.Assemble()
		require.NoError(t, err)
		require.Equal(t, []byte{
			0x00, 0xa6, 0x20, 0x2d, // daddu $a0, $a1, $a2
			0xff, 0xbf, 0x00, 0x00, // sd $ra, 0($sp)
		}, actual, hex.EncodeToString(actual))
	})
	t.Run("little", func(t *testing.T) {
		a := NewAssemblerImpl(binary.LittleEndian, isa.FeaturesMIPS64R1, 0)
		compile(a)
		actual, err := a.Assemble()
		require.NoError(t, err)
		require.Equal(t, []byte{
			0x2d, 0x20, 0xa6, 0x00,
			0x00, 0x00, 0xbf, 0xff,
		}, actual, hex.EncodeToString(actual))
	})
}

func TestAssemblerImpl_CompileStandAlone(t *testing.T) {
	tests := []struct {
		name string
		inst asm.Instruction
		exp  uint32
	}{
		{name: "nop", inst: NOP, exp: 0x00000000},
		{name: "syscall", inst: SYSCALL, exp: 0x0000000c},
		{name: "break", inst: BREAK, exp: 0x0000000d},
		{name: "sync", inst: SYNC, exp: 0x0000000f},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileStandAlone(tc.inst)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileStandAlone(DADD)
		_, err := a.Assemble()
		require.EqualError(t, err, "dadd is unsupported for from:none,to:none type: dadd")
	})
}

func TestAssemblerImpl_CompileRegisterToNone(t *testing.T) {
	tests := []struct {
		name string
		inst asm.Instruction
		src  asm.Register
		exp  uint32
	}{
		{name: "mthi", inst: MTHI, src: RegT0, exp: 0x01000011},
		{name: "mtlo", inst: MTLO, src: RegT0, exp: 0x01000013},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileRegisterToNone(tc.inst, tc.src)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("fpr", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileRegisterToNone(MTHI, RegF0)
		_, err := a.Assemble()
		require.EqualError(t, err, "$f0 is not a general purpose register: mthi $f0")
	})
}

func TestAssemblerImpl_CompileNoneToRegister(t *testing.T) {
	tests := []struct {
		name string
		inst asm.Instruction
		dst  asm.Register
		exp  uint32
	}{
		{name: "mfhi", inst: MFHI, dst: RegT0, exp: 0x00004010},
		{name: "mflo", inst: MFLO, dst: RegT0, exp: 0x00004012},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileNoneToRegister(tc.inst, tc.dst)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}
}

func TestAssemblerImpl_CompileRegisterToRegister(t *testing.T) {
	tests := []struct {
		name     string
		inst     asm.Instruction
		src, dst asm.Register
		exp      uint32
	}{
		{name: "clz", inst: CLZ, src: RegA0, dst: RegT0, exp: 0x70884020},
		{name: "clo", inst: CLO, src: RegA0, dst: RegT0, exp: 0x70884021},
		{name: "dclz", inst: DCLZ, src: RegA0, dst: RegT0, exp: 0x70884024},
		{name: "dclo", inst: DCLO, src: RegA0, dst: RegT0, exp: 0x70884025},
		{name: "seb", inst: SEB, src: RegT1, dst: RegT0, exp: 0x7c094420},
		{name: "seh", inst: SEH, src: RegT1, dst: RegT0, exp: 0x7c094620},
		{name: "dsbh", inst: DSBH, src: RegT1, dst: RegT0, exp: 0x7c0940a4},
		{name: "dshd", inst: DSHD, src: RegT1, dst: RegT0, exp: 0x7c094164},
		{name: "jalr", inst: JALR, src: RegT9, dst: RegT0, exp: 0x03204009},
		{name: "mfc1", inst: MFC1, src: RegF2, dst: RegT0, exp: 0x44081000},
		{name: "dmfc1", inst: DMFC1, src: RegF2, dst: RegT0, exp: 0x44281000},
		{name: "cfc1", inst: CFC1, src: RegF31, dst: RegT0, exp: 0x4448f800},
		{name: "mtc1", inst: MTC1, src: RegT0, dst: RegF2, exp: 0x44881000},
		{name: "dmtc1", inst: DMTC1, src: RegT0, dst: RegF2, exp: 0x44a81000},
		{name: "ctc1", inst: CTC1, src: RegT0, dst: RegF31, exp: 0x44c8f800},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileRegisterToRegister(tc.inst, tc.src, tc.dst)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("seb requires r2", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R1, 0)
		a.CompileRegisterToRegister(SEB, RegT1, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, `seb: feature "mips64r2" is disabled: seb $t0, $t1`)
	})
	t.Run("mfc1 requires fpr source", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileRegisterToRegister(MFC1, RegT1, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, "$t1 is not a floating point register: mfc1 $t0, $t1")
	})
	t.Run("mtc1 requires fpr destination", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileRegisterToRegister(MTC1, RegT0, RegT1)
		_, err := a.Assemble()
		require.EqualError(t, err, "$t1 is not a floating point register: mtc1 $t0, $t1")
	})
	t.Run("unsupported", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileRegisterToRegister(DADD, RegT1, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, "dadd is unsupported for from:register,to:register type: dadd $t0, $t1")
	})
}

func TestAssemblerImpl_CompileTwoRegistersToRegister(t *testing.T) {
	tests := []struct {
		name            string
		inst            asm.Instruction
		src1, src2, dst asm.Register
		exp             uint32
	}{
		{name: "add", inst: ADD, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a4020},
		{name: "addu", inst: ADDU, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a4021},
		{name: "sub", inst: SUB, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a4022},
		{name: "subu", inst: SUBU, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a4023},
		{name: "and", inst: AND, src1: RegV1, src2: RegA0, dst: RegV0, exp: 0x00641024},
		{name: "or", inst: OR, src1: RegT1, src2: RegZero, dst: RegT0, exp: 0x01204025},
		{name: "xor", inst: XOR, src1: RegS1, src2: RegS2, dst: RegS0, exp: 0x02328026},
		{name: "nor", inst: NOR, src1: RegS1, src2: RegS2, dst: RegS0, exp: 0x02328027},
		{name: "slt", inst: SLT, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a402a},
		{name: "sltu", inst: SLTU, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a402b},
		{name: "dadd", inst: DADD, src1: RegS1, src2: RegS2, dst: RegS0, exp: 0x0232802c},
		{name: "daddu", inst: DADDU, src1: RegA1, src2: RegA2, dst: RegA0, exp: 0x00a6202d},
		{name: "dsub", inst: DSUB, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a402e},
		{name: "dsubu", inst: DSUBU, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x012a402f},
		{name: "movz", inst: MOVZ, src1: RegA1, src2: RegA2, dst: RegA0, exp: 0x00a6200a},
		{name: "movn", inst: MOVN, src1: RegA1, src2: RegA2, dst: RegA0, exp: 0x00a6200b},
		{name: "mul", inst: MUL, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x712a4002},
		{name: "sllv", inst: SLLV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494004},
		{name: "srlv", inst: SRLV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494006},
		{name: "srav", inst: SRAV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494007},
		{name: "dsllv", inst: DSLLV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494014},
		{name: "dsrlv", inst: DSRLV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494016},
		{name: "dsrav", inst: DSRAV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494017},
		{name: "rotrv", inst: ROTRV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494046},
		{name: "drotrv", inst: DROTRV, src1: RegT1, src2: RegT2, dst: RegT0, exp: 0x01494056},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileTwoRegistersToRegister(tc.inst, tc.src1, tc.src2, tc.dst)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("rotrv requires r2", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R1, 0)
		a.CompileTwoRegistersToRegister(ROTRV, RegT1, RegT2, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, `rotrv: feature "mips64r2" is disabled: rotrv $t0, $t1, $t2`)
	})
}

func TestAssemblerImpl_CompileTwoRegistersToNone(t *testing.T) {
	tests := []struct {
		name       string
		inst       asm.Instruction
		src1, src2 asm.Register
		exp        uint32
	}{
		{name: "mult", inst: MULT, src1: RegA0, src2: RegA1, exp: 0x00850018},
		{name: "multu", inst: MULTU, src1: RegA0, src2: RegA1, exp: 0x00850019},
		{name: "div", inst: DIV, src1: RegA0, src2: RegA1, exp: 0x0085001a},
		{name: "divu", inst: DIVU, src1: RegA0, src2: RegA1, exp: 0x0085001b},
		{name: "dmult", inst: DMULT, src1: RegA0, src2: RegA1, exp: 0x0085001c},
		{name: "dmultu", inst: DMULTU, src1: RegA0, src2: RegA1, exp: 0x0085001d},
		{name: "ddiv", inst: DDIV, src1: RegA0, src2: RegA1, exp: 0x0085001e},
		{name: "ddivu", inst: DDIVU, src1: RegA0, src2: RegA1, exp: 0x0085001f},
		{name: "madd", inst: MADD, src1: RegA0, src2: RegA1, exp: 0x70850000},
		{name: "maddu", inst: MADDU, src1: RegA0, src2: RegA1, exp: 0x70850001},
		{name: "msub", inst: MSUB, src1: RegA0, src2: RegA1, exp: 0x70850004},
		{name: "msubu", inst: MSUBU, src1: RegA0, src2: RegA1, exp: 0x70850005},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileTwoRegistersToNone(tc.inst, tc.src1, tc.src2)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}
}

func TestAssemblerImpl_CompileConstToRegister(t *testing.T) {
	tests := []struct {
		name  string
		value asm.ConstantValue
		exp   uint32
	}{
		{name: "zero", value: 0, exp: 0x3c080000},
		{name: "mid", value: 0x1234, exp: 0x3c081234},
		{name: "max", value: 0xffff, exp: 0x3c08ffff},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileConstToRegister(LUI, tc.value, RegT0)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("out of range", func(t *testing.T) {
		for _, v := range []asm.ConstantValue{-1, 0x10000} {
			a := newTestAssembler()
			a.CompileConstToRegister(LUI, v, RegT0)
			_, err := a.Assemble()
			require.Error(t, err)
		}
	})
}

func TestAssemblerImpl_CompileRegisterAndConstToRegister(t *testing.T) {
	tests := []struct {
		name  string
		inst  asm.Instruction
		src   asm.Register
		value asm.ConstantValue
		dst   asm.Register
		exp   uint32
	}{
		{name: "addi", inst: ADDI, src: RegT1, value: 100, dst: RegT0, exp: 0x21280064},
		{name: "addiu", inst: ADDIU, src: RegT1, value: -1, dst: RegT0, exp: 0x2528ffff},
		{name: "slti", inst: SLTI, src: RegT1, value: 16, dst: RegT0, exp: 0x29280010},
		{name: "sltiu", inst: SLTIU, src: RegT1, value: 16, dst: RegT0, exp: 0x2d280010},
		{name: "daddi", inst: DADDI, src: RegT1, value: -32768, dst: RegT0, exp: 0x61288000},
		{name: "daddiu", inst: DADDIU, src: RegT1, value: 1, dst: RegT0, exp: 0x65280001},
		{name: "daddiu sp", inst: DADDIU, src: RegSP, value: -16, dst: RegSP, exp: 0x67bdfff0},
		{name: "andi", inst: ANDI, src: RegT1, value: 0xffff, dst: RegT0, exp: 0x3128ffff},
		{name: "ori", inst: ORI, src: RegT1, value: 0x8000, dst: RegT0, exp: 0x35288000},
		{name: "xori", inst: XORI, src: RegT1, value: 0xff, dst: RegT0, exp: 0x392800ff},
		{name: "sll", inst: SLL, src: RegT1, value: 4, dst: RegT0, exp: 0x00094100},
		{name: "srl", inst: SRL, src: RegT1, value: 4, dst: RegT0, exp: 0x00094102},
		{name: "sra", inst: SRA, src: RegT1, value: 4, dst: RegT0, exp: 0x00094103},
		{name: "rotr", inst: ROTR, src: RegT1, value: 4, dst: RegT0, exp: 0x00294102},
		{name: "dsll", inst: DSLL, src: RegT1, value: 4, dst: RegT0, exp: 0x00094138},
		{name: "dsrl", inst: DSRL, src: RegT1, value: 4, dst: RegT0, exp: 0x0009413a},
		{name: "dsra", inst: DSRA, src: RegT1, value: 4, dst: RegT0, exp: 0x0009413b},
		{name: "drotr", inst: DROTR, src: RegT1, value: 4, dst: RegT0, exp: 0x0029413a},
		// Shift amounts of 32 and above promote to the *32 encodings.
		{name: "dsll 36", inst: DSLL, src: RegT1, value: 36, dst: RegT0, exp: 0x0009413c},
		{name: "dsrl 36", inst: DSRL, src: RegT1, value: 36, dst: RegT0, exp: 0x0009413e},
		{name: "dsra 36", inst: DSRA, src: RegT1, value: 36, dst: RegT0, exp: 0x0009413f},
		{name: "drotr 36", inst: DROTR, src: RegT1, value: 36, dst: RegT0, exp: 0x0029413e},
		{name: "dsll32", inst: DSLL32, src: RegT1, value: 4, dst: RegT0, exp: 0x0009413c},
		{name: "dsrl32", inst: DSRL32, src: RegT1, value: 4, dst: RegT0, exp: 0x0009413e},
		{name: "dsra32", inst: DSRA32, src: RegT1, value: 4, dst: RegT0, exp: 0x0009413f},
		{name: "drotr32", inst: DROTR32, src: RegT1, value: 4, dst: RegT0, exp: 0x0029413e},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileRegisterAndConstToRegister(tc.inst, tc.src, tc.value, tc.dst)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("errors", func(t *testing.T) {
		errTests := []struct {
			inst   asm.Instruction
			value  asm.ConstantValue
			expErr string
		}{
			{inst: ADDI, value: -32769, expErr: "const -32769 out of 16-bit signed range for addi: addi $t0, $t1, -32769"},
			{inst: ADDI, value: 32768, expErr: "const 32768 out of 16-bit signed range for addi: addi $t0, $t1, 32768"},
			{inst: ANDI, value: -1, expErr: "const -1 out of 16-bit unsigned range for andi: andi $t0, $t1, -1"},
			{inst: ANDI, value: 0x10000, expErr: "const 65536 out of 16-bit unsigned range for andi: andi $t0, $t1, 65536"},
			{inst: SLL, value: 32, expErr: "shift amount 32 out of range [0, 31] for sll: sll $t0, $t1, 32"},
			{inst: DSLL, value: 64, expErr: "shift amount 64 out of range [0, 63] for dsll: dsll $t0, $t1, 64"},
			{inst: DSLL32, value: 32, expErr: "shift amount 32 out of range [0, 31] for dsll32: dsll32 $t0, $t1, 32"},
		}
		for _, tc := range errTests {
			a := newTestAssembler()
			a.CompileRegisterAndConstToRegister(tc.inst, RegT1, tc.value, RegT0)
			_, err := a.Assemble()
			require.EqualError(t, err, tc.expErr)
		}
	})

	t.Run("rotr requires r2", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R1, 0)
		a.CompileRegisterAndConstToRegister(ROTR, RegT1, 4, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, `rotr: feature "mips64r2" is disabled: rotr $t0, $t1, 4`)
	})
}

func TestAssemblerImpl_CompileTwoRegistersAndConstsToRegister(t *testing.T) {
	tests := []struct {
		name      string
		inst      asm.Instruction
		pos, size asm.ConstantValue
		exp       uint32
	}{
		{name: "dext", inst: DEXT, pos: 4, size: 16, exp: 0x7d287903},
		{name: "dext full word", inst: DEXT, pos: 0, size: 32, exp: 0x7d28f803},
		{name: "dins", inst: DINS, pos: 4, size: 16, exp: 0x7d289907},
		{name: "dins low byte", inst: DINS, pos: 0, size: 8, exp: 0x7d283807},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileTwoRegistersAndConstsToRegister(tc.inst, RegT1, tc.pos, tc.size, RegT0)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("errors", func(t *testing.T) {
		errTests := []struct {
			inst      asm.Instruction
			pos, size asm.ConstantValue
			expErr    string
		}{
			{inst: DEXT, pos: 32, size: 4, expErr: "position 32 out of range [0, 31] for dext: dext $t0, $t1, 32, 4"},
			{inst: DEXT, pos: 0, size: 0, expErr: "size 0 out of range [1, 32] for dext: dext $t0, $t1, 0, 0"},
			{inst: DEXT, pos: 0, size: 33, expErr: "size 33 out of range [1, 32] for dext: dext $t0, $t1, 0, 33"},
			{inst: DINS, pos: 4, size: 30, expErr: "size 30 out of range [1, 28] for dins at position 4: dins $t0, $t1, 4, 30"},
		}
		for _, tc := range errTests {
			a := newTestAssembler()
			a.CompileTwoRegistersAndConstsToRegister(tc.inst, RegT1, tc.pos, tc.size, RegT0)
			_, err := a.Assemble()
			require.EqualError(t, err, tc.expErr)
		}
	})

	t.Run("dext requires r2", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R1, 0)
		a.CompileTwoRegistersAndConstsToRegister(DEXT, RegT1, 4, 16, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, `dext: feature "mips64r2" is disabled: dext $t0, $t1, 4, 16`)
	})
}

func TestAssemblerImpl_CompileMemoryToRegister(t *testing.T) {
	tests := []struct {
		name   string
		inst   asm.Instruction
		base   asm.Register
		offset asm.ConstantValue
		dst    asm.Register
		exp    uint32
	}{
		{name: "lb", inst: LB, base: RegSP, offset: -4, dst: RegT0, exp: 0x83a8fffc},
		{name: "lbu", inst: LBU, base: RegSP, offset: -4, dst: RegT0, exp: 0x93a8fffc},
		{name: "lh", inst: LH, base: RegSP, offset: -4, dst: RegT0, exp: 0x87a8fffc},
		{name: "lhu", inst: LHU, base: RegSP, offset: -4, dst: RegT0, exp: 0x97a8fffc},
		{name: "lw", inst: LW, base: RegSP, offset: -4, dst: RegT0, exp: 0x8fa8fffc},
		{name: "lwu", inst: LWU, base: RegSP, offset: -4, dst: RegT0, exp: 0x9fa8fffc},
		{name: "ld", inst: LD, base: RegSP, offset: 8, dst: RegT0, exp: 0xdfa80008},
		{name: "ld ra", inst: LD, base: RegSP, offset: 8, dst: RegRA, exp: 0xdfbf0008},
		{name: "lwl", inst: LWL, base: RegA1, offset: 3, dst: RegT0, exp: 0x88a80003},
		{name: "lwr", inst: LWR, base: RegA1, offset: 3, dst: RegT0, exp: 0x98a80003},
		{name: "ldl", inst: LDL, base: RegA1, offset: 7, dst: RegT0, exp: 0x68a80007},
		{name: "ldr", inst: LDR, base: RegA1, offset: 7, dst: RegT0, exp: 0x6ca80007},
		{name: "ll", inst: LL, base: RegA0, offset: 0, dst: RegT0, exp: 0xc0880000},
		{name: "lld", inst: LLD, base: RegA0, offset: 0, dst: RegT0, exp: 0xd0880000},
		{name: "lwc1", inst: LWC1, base: RegSP, offset: 8, dst: RegF2, exp: 0xc7a20008},
		{name: "ldc1", inst: LDC1, base: RegSP, offset: 8, dst: RegF2, exp: 0xd7a20008},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileMemoryToRegister(tc.inst, tc.base, tc.offset, tc.dst)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}

	t.Run("offset out of range", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileMemoryToRegister(LD, RegSP, 32768, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, "offset 32768 out of 16-bit signed range for ld: ld $t0, 32768($sp)")
	})
	t.Run("lwc1 requires fpr destination", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileMemoryToRegister(LWC1, RegSP, 8, RegT0)
		_, err := a.Assemble()
		require.EqualError(t, err, "$t0 is not a floating point register: lwc1 $t0, 8($sp)")
	})
}

func TestAssemblerImpl_CompileRegisterToMemory(t *testing.T) {
	tests := []struct {
		name   string
		inst   asm.Instruction
		src    asm.Register
		base   asm.Register
		offset asm.ConstantValue
		exp    uint32
	}{
		{name: "sb", inst: SB, src: RegT0, base: RegSP, offset: -4, exp: 0xa3a8fffc},
		{name: "sh", inst: SH, src: RegT0, base: RegSP, offset: -4, exp: 0xa7a8fffc},
		{name: "sw", inst: SW, src: RegT0, base: RegSP, offset: -4, exp: 0xafa8fffc},
		{name: "sd", inst: SD, src: RegT0, base: RegSP, offset: -4, exp: 0xffa8fffc},
		{name: "sd ra", inst: SD, src: RegRA, base: RegSP, offset: 0, exp: 0xffbf0000},
		{name: "swl", inst: SWL, src: RegT0, base: RegA1, offset: 3, exp: 0xa8a80003},
		{name: "swr", inst: SWR, src: RegT0, base: RegA1, offset: 3, exp: 0xb8a80003},
		{name: "sdl", inst: SDL, src: RegT0, base: RegA1, offset: 7, exp: 0xb0a80007},
		{name: "sdr", inst: SDR, src: RegT0, base: RegA1, offset: 7, exp: 0xb4a80007},
		{name: "sc", inst: SC, src: RegT0, base: RegA0, offset: 0, exp: 0xe0880000},
		{name: "scd", inst: SCD, src: RegT0, base: RegA0, offset: 0, exp: 0xf0880000},
		{name: "swc1", inst: SWC1, src: RegF2, base: RegSP, offset: 8, exp: 0xe7a20008},
		{name: "sdc1", inst: SDC1, src: RegF2, base: RegSP, offset: 8, exp: 0xf7a20008},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			a.CompileRegisterToMemory(tc.inst, tc.src, tc.base, tc.offset)
			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual, hex.EncodeToString(actual))
		})
	}
}

func TestAssemblerImpl_CompileJumpToRegister(t *testing.T) {
	t.Run("jr", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileJumpToRegister(JR, RegRA)
		actual, err := a.Assemble()
		require.NoError(t, err)
		require.Equal(t, word(0x03e00008), actual, hex.EncodeToString(actual))
	})
	t.Run("jalr", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileJumpToRegister(JALR, RegT9)
		actual, err := a.Assemble()
		require.NoError(t, err)
		require.Equal(t, word(0x0320f809), actual, hex.EncodeToString(actual))
	})
}

func TestAssemblerImpl_CompileJump(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		for _, inst := range []asm.Instruction{J, JAL} {
			a := newTestAssembler()
			jmp := a.CompileJump(inst)
			a.CompileStandAlone(NOP)
			target := a.CompileStandAlone(NOP)
			jmp.AssignJumpTarget(target)

			actual, err := a.Assemble()
			require.NoError(t, err)

			exp := uint32(0x08000002) // j 0x8
			if inst == JAL {
				exp = 0x0c000002
			}
			require.Equal(t, word(exp), actual[:4], hex.EncodeToString(actual))
		}
	})
	t.Run("base address changes only the region", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R2, 0x10000000)
		jmp := a.CompileJump(J)
		a.CompileStandAlone(NOP)
		target := a.CompileStandAlone(NOP)
		jmp.AssignJumpTarget(target)

		actual, err := a.Assemble()
		require.NoError(t, err)
		require.Equal(t, word(0x08000002), actual[:4], hex.EncodeToString(actual))
	})
	t.Run("out of region", func(t *testing.T) {
		a := NewAssemblerImpl(binary.BigEndian, isa.FeaturesMIPS64R2, 0x0ffffff8)
		jmp := a.CompileJump(J)
		a.CompileStandAlone(NOP)
		target := a.CompileStandAlone(NOP)
		jmp.AssignJumpTarget(target)

		_, err := a.Assemble()
		require.EqualError(t, err, "j target 0x10000000 outside the 256MB region of 0xffffffc")
	})
	t.Run("unset target", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileJump(J)
		_, err := a.Assemble()
		require.EqualError(t, err, "jump target must be set for j: j <unset>")
	})
}

func TestAssemblerImpl_CompileBranch(t *testing.T) {
	tests := []struct {
		name string
		inst asm.Instruction
		exp  uint32 // branch at 0, target at 8.
	}{
		{name: "blez", inst: BLEZ, exp: 0x18800001},
		{name: "bgtz", inst: BGTZ, exp: 0x1c800001},
		{name: "bltz", inst: BLTZ, exp: 0x04800001},
		{name: "bgez", inst: BGEZ, exp: 0x04810001},
		{name: "bltzal", inst: BLTZAL, exp: 0x04900001},
		{name: "bgezal", inst: BGEZAL, exp: 0x04910001},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler()
			br := a.CompileBranch(tc.inst, RegA0)
			a.CompileStandAlone(NOP)
			target := a.CompileStandAlone(NOP)
			br.AssignJumpTarget(target)

			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual[:4], hex.EncodeToString(actual))
		})
	}

	t.Run("backward", func(t *testing.T) {
		a := newTestAssembler()
		target := a.CompileStandAlone(NOP)
		a.CompileStandAlone(NOP)
		br := a.CompileBranch(BLTZ, RegA0)
		br.AssignJumpTarget(target)

		actual, err := a.Assemble()
		require.NoError(t, err)
		// Branch at 8, target at 0: -12 bytes from the delay slot.
		require.Equal(t, word(0x0480fffd), actual[8:], hex.EncodeToString(actual))
	})
	t.Run("out of range", func(t *testing.T) {
		a := newTestAssembler()
		br := a.CompileBranch(BLTZ, RegA0)
		for i := 0; i < 32768; i++ {
			a.CompileStandAlone(NOP)
		}
		target := a.CompileStandAlone(NOP)
		br.AssignJumpTarget(target)

		_, err := a.Assemble()
		require.EqualError(t, err, "branch offset 131072 out of the signed 18-bit range for bltz")
	})
	t.Run("unset target", func(t *testing.T) {
		a := newTestAssembler()
		a.CompileBranch(BLTZ, RegA0)
		_, err := a.Assemble()
		require.EqualError(t, err, "branch target must be set for bltz: bltz $a0, <unset>")
	})
}

func TestAssemblerImpl_CompileBranchWithRegisters(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		for _, tc := range []struct {
			inst asm.Instruction
			exp  uint32
		}{
			{inst: BEQ, exp: 0x10850001},
			{inst: BNE, exp: 0x14850001},
		} {
			a := newTestAssembler()
			br := a.CompileBranchWithRegisters(tc.inst, RegA0, RegA1)
			a.CompileStandAlone(NOP)
			target := a.CompileStandAlone(NOP)
			br.AssignJumpTarget(target)

			actual, err := a.Assemble()
			require.NoError(t, err)
			require.Equal(t, word(tc.exp), actual[:4], hex.EncodeToString(actual))
		}
	})
	t.Run("bne backward loop", func(t *testing.T) {
		a := newTestAssembler()
		target := a.CompileStandAlone(NOP)
		br := a.CompileBranchWithRegisters(BNE, RegV0, RegZero)
		br.AssignJumpTarget(target)

		actual, err := a.Assemble()
		require.NoError(t, err)
		// Branch at 4, target at 0: -8 bytes from the delay slot.
		require.Equal(t, word(0x1440fffe), actual[4:], hex.EncodeToString(actual))
	})
}

func TestAssemblerImpl_SetJumpTargetOnNext(t *testing.T) {
	a := newTestAssembler()
	br := a.CompileBranchWithRegisters(BEQ, RegZero, RegZero)
	a.SetJumpTargetOnNext(br)
	a.CompileStandAlone(NOP)

	actual, err := a.Assemble()
	require.NoError(t, err)
	// Target is the next instruction: 0 bytes from the delay slot.
	require.Equal(t, word(0x10000000), actual[:4], hex.EncodeToString(actual))
}

func TestAssemblerImpl_labelMarker(t *testing.T) {
	a := newTestAssembler()
	br := a.CompileBranchWithRegisters(BNE, RegV0, RegZero)
	a.CompileStandAlone(NOP)
	target := a.CompileStandAlone(LABEL)
	br.AssignJumpTarget(target)
	a.CompileRegisterAndConstToRegister(ADDIU, RegZero, 1, RegV0)

	actual, err := a.Assemble()
	require.NoError(t, err)
	// The marker emits no bytes, so the branch resolves to the addiu that
	// follows it.
	expected := append(word(0x14400001), word(0x00000000)...)
	expected = append(expected, word(0x24020001)...)
	require.Equal(t, expected, actual, hex.EncodeToString(actual))
}

func TestAssemblerImpl_CompileRaw(t *testing.T) {
	a := newTestAssembler()
	a.CompileRaw(0xdeadbeef)
	actual, err := a.Assemble()
	require.NoError(t, err)
	require.Equal(t, word(0xdeadbeef), actual, hex.EncodeToString(actual))
}

func TestNodeImpl_String(t *testing.T) {
	tests := []struct {
		in  *nodeImpl
		exp string
	}{
		{in: &nodeImpl{instruction: NOP, types: operandTypesNoneToNone}, exp: "nop"},
		{in: &nodeImpl{instruction: MTHI, types: operandTypesRegisterToNone, srcReg: RegT0}, exp: "mthi $t0"},
		{in: &nodeImpl{instruction: MFLO, types: operandTypesNoneToRegister, dstReg: RegV0}, exp: "mflo $v0"},
		{in: &nodeImpl{instruction: SEB, types: operandTypesRegisterToRegister, srcReg: RegT1, dstReg: RegT0}, exp: "seb $t0, $t1"},
		{in: &nodeImpl{instruction: MTC1, types: operandTypesRegisterToRegister, srcReg: RegT0, dstReg: RegF2}, exp: "mtc1 $t0, $f2"},
		{in: &nodeImpl{instruction: DADD, types: operandTypesTwoRegistersToRegister, srcReg: RegS1, srcReg2: RegS2, dstReg: RegS0}, exp: "dadd $s0, $s1, $s2"},
		{in: &nodeImpl{instruction: DMULT, types: operandTypesTwoRegistersToNone, srcReg: RegA0, srcReg2: RegA1}, exp: "dmult $a0, $a1"},
		{in: &nodeImpl{instruction: LUI, types: operandTypesConstToRegister, srcConst: 0x1234, dstReg: RegT0}, exp: "lui $t0, 4660"},
		{in: &nodeImpl{instruction: DADDIU, types: operandTypesRegisterAndConstToRegister, srcReg: RegSP, srcConst: -16, dstReg: RegSP}, exp: "daddiu $sp, $sp, -16"},
		{in: &nodeImpl{instruction: DEXT, types: operandTypesTwoRegistersAndConstsToRegister, srcReg: RegT1, srcConst: 4, srcConst2: 16, dstReg: RegT0}, exp: "dext $t0, $t1, 4, 16"},
		{in: &nodeImpl{instruction: LD, types: operandTypesMemoryToRegister, srcReg: RegSP, srcConst: 8, dstReg: RegT0}, exp: "ld $t0, 8($sp)"},
		{in: &nodeImpl{instruction: SD, types: operandTypesRegisterToMemory, srcReg: RegRA, srcConst: 0, dstReg: RegSP}, exp: "sd $ra, 0($sp)"},
		{in: &nodeImpl{instruction: JR, types: operandTypesJumpToRegister, srcReg: RegRA}, exp: "jr $ra"},
		{in: &nodeImpl{instruction: J, types: operandTypesNoneToBranch}, exp: "j <unset>"},
		{
			in: &nodeImpl{
				instruction: BEQ, types: operandTypesTwoRegistersToBranch, srcReg: RegA0, srcReg2: RegA1,
				jumpTarget: &nodeImpl{instruction: NOP, types: operandTypesNoneToNone},
			},
			exp: "beq $a0, $a1, {nop}",
		},
		{in: &nodeImpl{instruction: WORD, types: operandTypesRawWord, srcConst: 0xdeadbeef}, exp: ".word 0xdeadbeef"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.exp, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.in.String())
		})
	}
}
