package asmtext

import "fmt"

// FormatError is any error lexing or parsing the assembly text, positioned
// at a source line and column.
type FormatError struct {
	// Line is the source line number of the error or EOF, 1-based.
	Line uint32
	// Col is the UTF-8 column number of the error or EOF, 1-based.
	Col   uint32
	cause error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%d:%d: %v", e.Line, e.Col, e.cause)
}

func (e *FormatError) Unwrap() error {
	return e.cause
}

func unexpectedToken(tok tokenType, tokenBytes []byte) error {
	switch tok {
	case tokenComma, tokenColon, tokenLParen, tokenRParen, tokenNewline:
		return fmt.Errorf("unexpected %s", tok)
	default:
		return fmt.Errorf("unexpected %s: %s", tok, tokenBytes)
	}
}
