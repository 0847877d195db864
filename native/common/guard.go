package common

import "errors"

// ErrModulePaused is returned when a mutating entry point is invoked while its
// module's pause switch is engaged.
var ErrModulePaused = errors.New("module paused")

// Module identifiers used with the pause switches.
const (
	ModuleLedger    = "ledger"
	ModuleLending   = "lending"
	ModuleEscrow    = "escrow"
	ModulePaymaster = "paymaster"
)

// PauseView exposes the current pause switches to the native engines.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view or empty module
// name disables the check. Exit-style operations (gas withdrawal, loan
// repayment, escrow release/cancel) deliberately skip this guard so users can
// unwind positions during an emergency pause.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
