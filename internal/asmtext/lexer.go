package asmtext

import (
	"fmt"
	"unicode/utf8"
)

// tokenParser consumes one token.
//
// * tok is the token type
// * tokenBytes are the bytes representing the token. Do not modify this.
// * line is the source line number determined by '\n' characters.
// * col is the UTF-8 column number.
//
// Returning an error will short-circuit any future invocations.
//
// Note: Do not include the line and column number in a parsing error as the
// caller attaches them.
type tokenParser func(tok tokenType, tokenBytes []byte, line, col uint32) error

var constantNewline = []byte{'\n'}

// lex invokes the parser function for each token of the given source. This
// function returns when the source is exhausted or an error occurs.
//
// Comments run from '#' or "//" to the end of the line. A tokenNewline is
// reported for every '\n' so the parser can delimit statements.
//
// Here's a description of the return values:
// * line is the source line number of the error or EOF
// * col is the UTF-8 column number of the error or EOF
// * err is an error invoking the parser or an unexpected character.
func lex(parser tokenParser, source []byte) (line, col uint32, err error) {
	// i is the source index to begin reading, inclusive.
	i := 0
	// end is the source index to stop reading, exclusive.
	end := len(source)
	line = 1
	col = 1

	for ; i < end; i, col = i+1, col+1 {
		b1 := source[i]

		if b1 == '\n' {
			if err = parser(tokenNewline, constantNewline, line, col); err != nil {
				return line, col, err
			}
			line++
			col = 0  // for loop will + 1
			continue // next line
		}

		if b1 == ' ' || b1 == '\t' || b1 == '\r' { // fast path ASCII whitespace
			continue // next whitespace
		}

		if b1 == '#' || b1 == '/' {
			peek := i + 1
			if b1 == '/' {
				if peek == end || source[peek] != '/' {
					return line, col, fmt.Errorf("unexpected character %s", string(b1))
				}
				peek++ // continue after "//"
				col++
			}

		LineComment:
			for peek < end {
				peeked := source[peek]
				if peeked == '\n' {
					break LineComment // EOL bookkeeping will proceed on the next iteration
				}

				col++
				s := utf8Size[peeked] // While unlikely, it is possible the byte peeked is invalid unicode
				if s == 0 {
					return line, col, fmt.Errorf("found an invalid byte in comment: 0x%x", peeked)
				}
				peek = peek + s
			}

			// -1 because for loop will + 1: This optimizes speed of tokenization over comments.
			i = peek - 1 // at the '\n'
			continue     // end of comment
		}

		tok := firstTokenByte[b1]
		// Track positions passed to the parser
		b := i        // the start position of the token (fixed)
		peek := i + 1 // when finished scanning, this becomes end (the position after the token).
		c := col      // the start column of the token (fixed)

		switch tok {
		case tokenComma, tokenColon, tokenLParen, tokenRParen: // min/max 1 byte
		case tokenID, tokenRegister, tokenNumber: // min 1 byte; end with zero or more idChar
			if (b1 == '+' || b1 == '-') && (peek == end || source[peek] < '0' || source[peek] > '9') {
				return line, col, fmt.Errorf("expected a digit after %s", string(b1))
			}
			// Start after the first character and run until the end. Note all allowed characters are single byte.
		IdChars:
			for ; peek < end; peek++ {
				if !idChar[source[peek]] {
					break IdChars // end of this token (or malformed, which the parser will notice)
				}
				col++
			}
			i = peek - 1
		default:
			if b1 > 0x7F { // non-ASCII
				r, _ := utf8.DecodeRune(source[i:])
				return line, col, fmt.Errorf("expected an ASCII character, not %s", string(r))
			}
			return line, col, fmt.Errorf("unexpected character %s", string(b1))
		}

		if err = parser(tok, source[b:peek], line, c); err != nil {
			return line, c, err
		}
	}
	return line, col, nil
}

// utf8Size returns the size of the UTF-8 rune based on its first byte, or zero.
//
// Note: We don't validate the subsequent bytes make a well-formed UTF-8 rune
// intentionally for performance and to keep lexing allocation free. Meanwhile,
// the impact is that we might skip over malformed bytes.
var utf8Size = [256]int{
	// 1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x00-0x0F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x10-0x1F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x20-0x2F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x30-0x3F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x40-0x4F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x50-0x5F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x60-0x6F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x70-0x7F
	// 1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x80-0x8F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x90-0x9F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0xA0-0xAF
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0xB0-0xBF
	0, 0, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xC0-0xCF
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xD0-0xDF
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // 0xE0-0xEF
	4, 4, 4, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0xF0-0xFF
}
