package amd64

import (
	"github.com/smeltlabs/smelt/internal/engine/wazevo/ssa"
	"github.com/smeltlabs/smelt/internal/engine/wazevo/wazevoapi"
)

// CompileGoFunctionTrampoline implements backend.Machine.
func (m *machine) CompileGoFunctionTrampoline(exitCode wazevoapi.ExitCode, sig *ssa.Signature, needModuleContextPtr bool) []byte {
	// TODO
	ud2 := m.allocateInstr().asUD2()
	m.encodeWithoutRelResolution(ud2)
	return m.c.Buf()
}
