package asm

import "encoding/binary"

// Buffer accumulates fixed-width instruction words in a configured byte
// order. One word is one instruction on the architectures this assembler
// targets, so offsets handed out by assemblers are always multiples of 4.
type Buffer struct {
	order binary.ByteOrder
	data  []byte
}

// NewBuffer returns an empty buffer emitting words in the given byte order.
func NewBuffer(order binary.ByteOrder) *Buffer {
	return &Buffer{order: order}
}

// Order returns the byte order words are stored in. Fixup callbacks use this
// to patch placeholder words consistently with the initial emission.
func (b *Buffer) Order() binary.ByteOrder {
	return b.order
}

// Append32 appends one instruction word.
func (b *Buffer) Append32(w uint32) {
	var word [4]byte
	b.order.PutUint32(word[:], w)
	b.data = append(b.data, word[:]...)
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the encoded binary. The slice aliases the buffer's storage.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Grow reserves capacity for n additional bytes.
func (b *Buffer) Grow(n int) {
	if rem := cap(b.data) - len(b.data); rem < n {
		grown := make([]byte, len(b.data), len(b.data)+n)
		copy(grown, b.data)
		b.data = grown
	}
}

// Truncate discards all but the first n bytes. It panics when n is out of
// range, like bytes.Buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.data) {
		panic("asm.Buffer: truncation out of range")
	}
	b.data = b.data[:n]
}
