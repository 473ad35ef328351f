//go:build debug_asm

package mc

import (
	"errors"

	"github.com/smeltlabs/smelt/internal/asm/mips64"
	"github.com/smeltlabs/smelt/internal/asm/mips64_debug"
)

// newAssembler returns the assembler that cross-checks the homemade encoder
// against golang-asm and is used when the "debug_asm" flag is on. The
// toolchain assembles at address zero, so other bases cannot be verified.
func newAssembler(cfg Config) (mips64.Assembler, error) {
	if cfg.BaseAddress != 0 {
		return nil, errors.New("the debug assembler requires base address 0")
	}
	return mips64_debug.NewDebugAssembler(cfg.Endianness, cfg.Features)
}
