package asmtext

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleAsm = `# sum of the first n integers
.text
sum:
	move	$v0, $zero
.Lloop:
	daddu	$v0, $v0, $a0
	daddiu	$a0, $a0, -1
	bne	$a0, $zero, .Lloop
	jr	$ra
`

// TestLex_Example is intentionally verbose to catch line/column/position bugs
func TestLex_Example(t *testing.T) {
	require.Equal(t, []*token{
		{tokenNewline, 1, 30, "\n"},
		{tokenID, 2, 1, ".text"},
		{tokenNewline, 2, 6, "\n"},
		{tokenID, 3, 1, "sum"},
		{tokenColon, 3, 4, ":"},
		{tokenNewline, 3, 5, "\n"},
		{tokenID, 4, 2, "move"},
		{tokenRegister, 4, 7, "$v0"},
		{tokenComma, 4, 10, ","},
		{tokenRegister, 4, 12, "$zero"},
		{tokenNewline, 4, 17, "\n"},
		{tokenID, 5, 1, ".Lloop"},
		{tokenColon, 5, 7, ":"},
		{tokenNewline, 5, 8, "\n"},
		{tokenID, 6, 2, "daddu"},
		{tokenRegister, 6, 8, "$v0"},
		{tokenComma, 6, 11, ","},
		{tokenRegister, 6, 13, "$v0"},
		{tokenComma, 6, 16, ","},
		{tokenRegister, 6, 18, "$a0"},
		{tokenNewline, 6, 21, "\n"},
		{tokenID, 7, 2, "daddiu"},
		{tokenRegister, 7, 9, "$a0"},
		{tokenComma, 7, 12, ","},
		{tokenRegister, 7, 14, "$a0"},
		{tokenComma, 7, 17, ","},
		{tokenNumber, 7, 19, "-1"},
		{tokenNewline, 7, 21, "\n"},
		{tokenID, 8, 2, "bne"},
		{tokenRegister, 8, 6, "$a0"},
		{tokenComma, 8, 9, ","},
		{tokenRegister, 8, 11, "$zero"},
		{tokenComma, 8, 16, ","},
		{tokenID, 8, 18, ".Lloop"},
		{tokenNewline, 8, 24, "\n"},
		{tokenID, 9, 2, "jr"},
		{tokenRegister, 9, 5, "$ra"},
		{tokenNewline, 9, 8, "\n"},
	}, lexTokens(t, exampleAsm))
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []*token
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name:  "only white space characters",
			input: " \t\r",
		},
		{
			name:     "only newline",
			input:    "\n",
			expected: []*token{{tokenNewline, 1, 1, "\n"}},
		},
		{
			name:  "only line comment - EOF",
			input: "# TODO",
		},
		{
			name:     "only line comment - EOL before EOF",
			input:    "# TODO\n",
			expected: []*token{{tokenNewline, 1, 7, "\n"}},
		},
		{
			name:  "only unicode line comment - EOF",
			input: "# брэд-ЛГТМ",
		},
		{
			name:  "only slash line comment - EOF",
			input: "// TODO",
		},
		{
			name:  "after line comment",
			input: "# TODO\na",
			expected: []*token{
				{tokenNewline, 1, 7, "\n"},
				{tokenID, 2, 1, "a"},
			},
		},
		{
			name:  "after slash line comment",
			input: "// TODO\na",
			expected: []*token{
				{tokenNewline, 1, 8, "\n"},
				{tokenID, 2, 1, "a"},
			},
		},
		{
			name:  "comment after instruction",
			input: "nop # delay slot",
			expected: []*token{
				{tokenID, 1, 1, "nop"},
			},
		},
		{
			name:     "shortest ID - EOL",
			input:    "a\n",
			expected: []*token{{tokenID, 1, 1, "a"}, {tokenNewline, 1, 2, "\n"}},
		},
		{
			name:     "shortest ID - EOF",
			input:    "a",
			expected: []*token{{tokenID, 1, 1, "a"}},
		},
		{
			name:  "after white space characters - EOL",
			input: " \t\na",
			expected: []*token{
				{tokenNewline, 1, 3, "\n"},
				{tokenID, 2, 1, "a"},
			},
		},
		{
			name:  "after white space characters - Windows EOL",
			input: " \t\r\na",
			expected: []*token{
				{tokenNewline, 1, 4, "\n"},
				{tokenID, 2, 1, "a"},
			},
		},
		{
			name:     "ID with dot and underscore",
			input:    ".L_done",
			expected: []*token{{tokenID, 1, 1, ".L_done"}},
		},
		{
			name:     "label definition",
			input:    "loop:",
			expected: []*token{{tokenID, 1, 1, "loop"}, {tokenColon, 1, 5, ":"}},
		},
		{
			name:     "symbolic register",
			input:    "$a0",
			expected: []*token{{tokenRegister, 1, 1, "$a0"}},
		},
		{
			name:     "numeric register",
			input:    "$4",
			expected: []*token{{tokenRegister, 1, 1, "$4"}},
		},
		{
			name:     "floating point register",
			input:    "$f12",
			expected: []*token{{tokenRegister, 1, 1, "$f12"}},
		},
		{
			name:     "decimal number",
			input:    "123",
			expected: []*token{{tokenNumber, 1, 1, "123"}},
		},
		{
			name:     "negative number",
			input:    "-16",
			expected: []*token{{tokenNumber, 1, 1, "-16"}},
		},
		{
			name:     "explicitly positive number",
			input:    "+16",
			expected: []*token{{tokenNumber, 1, 1, "+16"}},
		},
		{
			name:     "hex number",
			input:    "0x7fff",
			expected: []*token{{tokenNumber, 1, 1, "0x7fff"}},
		},
		{
			name:     "negative hex number",
			input:    "-0x8000",
			expected: []*token{{tokenNumber, 1, 1, "-0x8000"}},
		},
		{
			name:     "binary number",
			input:    "0b101",
			expected: []*token{{tokenNumber, 1, 1, "0b101"}},
		},
		{
			name:  "memory operand",
			input: "8($sp)",
			expected: []*token{
				{tokenNumber, 1, 1, "8"},
				{tokenLParen, 1, 2, "("},
				{tokenRegister, 1, 3, "$sp"},
				{tokenRParen, 1, 6, ")"},
			},
		},
		{
			name:  "negative memory operand",
			input: "-16($29)",
			expected: []*token{
				{tokenNumber, 1, 1, "-16"},
				{tokenLParen, 1, 4, "("},
				{tokenRegister, 1, 5, "$29"},
				{tokenRParen, 1, 8, ")"},
			},
		},
		{
			name:  "operands without spaces",
			input: "or $v0,$a0,$zero",
			expected: []*token{
				{tokenID, 1, 1, "or"},
				{tokenRegister, 1, 4, "$v0"},
				{tokenComma, 1, 7, ","},
				{tokenRegister, 1, 8, "$a0"},
				{tokenComma, 1, 11, ","},
				{tokenRegister, 1, 12, "$zero"},
			},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, lexTokens(t, tc.input))
		})
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name                      string
		parser                    tokenParser
		input                     []byte
		expectedLine, expectedCol uint32
		expectedErr               string
	}{
		{
			name:         "half slash comment",
			input:        []byte("/ TODO"),
			expectedLine: 1,
			expectedCol:  1,
			expectedErr:  "unexpected character /",
		},
		{
			name:         "0x80 in line comment",
			input:        []byte("# \200"),
			expectedLine: 1,
			expectedCol:  3,
			expectedErr:  "found an invalid byte in comment: 0x80",
		},
		{
			name:         "0x80 in line comment unicode",
			input:        []byte("# 私\200"),
			expectedLine: 1,
			expectedCol:  4,
			expectedErr:  "found an invalid byte in comment: 0x80",
		},
		{
			name:         "dangling unicode",
			input:        []byte(" 私"),
			expectedLine: 1,
			expectedCol:  2,
			expectedErr:  "expected an ASCII character, not 私",
		},
		{
			name:         "unexpected character",
			input:        []byte("a;b"),
			expectedLine: 1,
			expectedCol:  2,
			expectedErr:  "unexpected character ;",
		},
		{
			name:         "sign without digit",
			input:        []byte("-"),
			expectedLine: 1,
			expectedCol:  1,
			expectedErr:  "expected a digit after -",
		},
		{
			name:         "sign before letter",
			input:        []byte("+x"),
			expectedLine: 1,
			expectedCol:  1,
			expectedErr:  "expected a digit after +",
		},
		{
			name:         "parser error: ID",
			input:        []byte(" daddiu $sp"),
			parser:       (&errorOnTokenParser{tokenID}).parse,
			expectedLine: 1,
			expectedCol:  2,
			expectedErr:  "unexpected identifier: daddiu",
		},
		{
			name:         "parser error: register",
			input:        []byte(" daddiu $sp"),
			parser:       (&errorOnTokenParser{tokenRegister}).parse,
			expectedLine: 1,
			expectedCol:  9,
			expectedErr:  "unexpected register: $sp",
		},
		{
			name:         "parser error: newline",
			input:        []byte("a\nb"),
			parser:       (&errorOnTokenParser{tokenNewline}).parse,
			expectedLine: 1,
			expectedCol:  2,
			expectedErr:  "unexpected newline",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			parser := tc.parser
			if parser == nil {
				parser = parseNoop
			}
			line, col, err := lex(parser, tc.input)
			require.Equal(t, tc.expectedLine, line)
			require.Equal(t, tc.expectedCol, col)
			require.EqualError(t, err, tc.expectedErr)
		})
	}
}

func lexTokens(t *testing.T, input string) []*token {
	p := &collectTokenParser{}
	line, col, err := lex(p.parse, []byte(input))
	require.NoError(t, err, "%d:%d: %s", line, col, err)
	return p.tokens
}

type errorOnTokenParser struct{ tok tokenType }

func (e *errorOnTokenParser) parse(tok tokenType, tokenBytes []byte, _, _ uint32) error {
	if tok != e.tok {
		return nil
	}
	return unexpectedToken(tok, tokenBytes)
}

type collectTokenParser struct{ tokens []*token }

func (c *collectTokenParser) parse(tok tokenType, tokenBytes []byte, line, col uint32) error {
	c.tokens = append(c.tokens, &token{tokenType: tok, line: line, col: col, token: string(tokenBytes)})
	return nil
}

type noopTokenParser struct{}

func (n *noopTokenParser) parse(_ tokenType, _ []byte, _, _ uint32) error {
	return nil
}

var parseNoop = (&noopTokenParser{}).parse

type token struct {
	tokenType
	line, col uint32
	token     string
}

// String helps format to allow copy/pasting of expected values
func (t *token) String() string {
	return fmt.Sprintf("{%s, %d, %d, %q}", t.tokenType, t.line, t.col, t.token)
}
