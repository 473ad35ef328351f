package asmtext

// tokenType is the closed set of lexical tokens in the assembly text format.
type tokenType byte

const (
	tokenInvalid tokenType = iota

	// tokenID is a mnemonic, directive, or label name: a letter, '_' or '.'
	// followed by zero or more idChar characters.
	//
	// For example, 'daddiu', '.word' and '.Lloop' are all IDs:
	//		.Lloop:
	//		daddiu $a0, $a0, -1
	//		.word 0xdeadbeef
	tokenID

	// tokenRegister is a '$'-prefixed register name, numeric or symbolic,
	// ex. '$4', '$a0', '$f12'.
	tokenRegister

	// tokenNumber is an integer literal with an optional sign, in decimal,
	// '0x' or '0b' notation, ex. '16', '-0x8000', '0b101'.
	tokenNumber

	// tokenComma separates operands: ','
	tokenComma

	// tokenColon ends a label definition: ':'
	tokenColon

	// tokenLParen opens the base register of a memory operand: '('
	tokenLParen

	// tokenRParen closes the base register of a memory operand: ')'
	tokenRParen

	// tokenNewline ends a statement. The lexer reports it so the parser can
	// stay line oriented.
	tokenNewline
)

// tokenNames is index-coordinated with tokenType
var tokenNames = [...]string{
	"invalid",
	"identifier",
	"register",
	"number",
	"','",
	"':'",
	"'('",
	"')'",
	"newline",
}

// String returns the string name of this token.
func (t tokenType) String() string {
	return tokenNames[t]
}

// constants below help format a somewhat readable lookup table that eases identification of tokens.
const (
	// xx is an invalid token start byte
	xx = tokenInvalid
	// xi is the start of a tokenID
	xi = tokenID
	// rg is the start of a tokenRegister ('$')
	rg = tokenRegister
	// nm is the start of a tokenNumber (a digit or a sign)
	nm = tokenNumber
	// cm is a tokenComma (',')
	cm = tokenComma
	// cl is a tokenColon (':')
	cl = tokenColon
	// lp is a tokenLParen ('(')
	lp = tokenLParen
	// rp is a tokenRParen (')')
	rp = tokenRParen
)

// firstTokenByte is information about the first byte in a token. All expected
// token starts are ASCII, but we switch to avoid a range check.
var firstTokenByte = [256]tokenType{
	//   1   2   3   4   5   6   7   8   9   A   B   C   D   E   F
	xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, // 0x00-0x0F
	xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, // 0x10-0x1F
	xx, xx, xx, xx, rg, xx, xx, xx, lp, rp, xx, nm, cm, nm, xi, xx, // 0x20-0x2F
	nm, nm, nm, nm, nm, nm, nm, nm, nm, nm, cl, xx, xx, xx, xx, xx, // 0x30-0x3F
	xx, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, // 0x40-0x4F
	xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xx, xx, xx, xx, xi, // 0x50-0x5F
	xx, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, // 0x60-0x6F
	xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xi, xx, xx, xx, xx, xx, // 0x70-0x7F
}

// idChar is a byte that may continue an identifier, register, or number
// token once one has started.
var idChar = buildIdChars()

func buildIdChars() (result [256]bool) {
	for i := 0; i < 128; i++ {
		result[i] = _idChar(byte(i))
	}
	return
}

func _idChar(ch byte) bool {
	switch ch {
	case '_', '.':
		return true
	}
	switch {
	case ch >= '0' && ch <= '9':
		fallthrough
	case ch >= 'a' && ch <= 'z':
		fallthrough
	case ch >= 'A' && ch <= 'Z':
		return true
	}
	return false
}
