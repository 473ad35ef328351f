//go:build !debug_asm

package mc

import (
	"github.com/smeltlabs/smelt/internal/asm/mips64"
)

// newAssembler returns the homemade assembler and is used by default.
func newAssembler(cfg Config) (mips64.Assembler, error) {
	return mips64.NewAssemblerImpl(cfg.Endianness.ByteOrder(), cfg.Features, cfg.BaseAddress), nil
}
