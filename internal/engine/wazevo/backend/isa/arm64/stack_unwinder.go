package arm64

// StackUnwinder is a function to unwind the stack.
// The implementation must be aligned with the ABI/Calling convention as in
func StackUnwinder(sp, bottom *byte) {
	panic("not implemented yet")
}
