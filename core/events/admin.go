package events

import (
	"strings"

	"hnxzledger/core/types"
)

const (
	// TypeParamUpdated indicates an authority changed a configuration scalar.
	TypeParamUpdated = "admin.param.updated"
	// TypeRoleUpdated indicates an authority granted or revoked a capability.
	TypeRoleUpdated = "admin.role.updated"
	// TypePauseUpdated indicates an authority toggled a module pause switch.
	TypePauseUpdated = "admin.pause.updated"
)

// ParamUpdated captures a configuration change. Values are rendered as strings
// so downstream consumers need no per-parameter decoding.
type ParamUpdated struct {
	Name  string
	Value string
}

// EventType satisfies the events.Event interface.
func (ParamUpdated) EventType() string { return TypeParamUpdated }

// Event renders the parameter payload.
func (e ParamUpdated) Event() *types.Event {
	return &types.Event{Type: TypeParamUpdated, Attributes: map[string]string{
		"name":  strings.TrimSpace(e.Name),
		"value": e.Value,
	}}
}

// RoleUpdated captures a capability grant or revocation.
type RoleUpdated struct {
	Role    string
	Account [20]byte
	Granted bool
}

// EventType satisfies the events.Event interface.
func (RoleUpdated) EventType() string { return TypeRoleUpdated }

// Event renders the role payload.
func (e RoleUpdated) Event() *types.Event {
	attrs := map[string]string{
		"role": strings.TrimSpace(e.Role),
	}
	if e.Granted {
		attrs["granted"] = "true"
	} else {
		attrs["granted"] = "false"
	}
	addrAttr(attrs, "account", e.Account)
	return &types.Event{Type: TypeRoleUpdated, Attributes: attrs}
}

// PauseUpdated captures a pause switch change for a module.
type PauseUpdated struct {
	Module string
	Paused bool
}

// EventType satisfies the events.Event interface.
func (PauseUpdated) EventType() string { return TypePauseUpdated }

// Event renders the pause payload.
func (e PauseUpdated) Event() *types.Event {
	attrs := map[string]string{
		"module": strings.TrimSpace(e.Module),
	}
	if e.Paused {
		attrs["paused"] = "true"
	} else {
		attrs["paused"] = "false"
	}
	return &types.Event{Type: TypePauseUpdated, Attributes: attrs}
}
