// Package hotkey maps global keyboard shortcuts to command tokens.
//
// The binding table and the Registry bookkeeping are platform independent;
// the native subpackage supplies Registrations backed by the OS.
package hotkey

import (
	"strings"

	"KeyPacer/control"
)

// Modifier is a platform-neutral modifier bitmask.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
)

func (m Modifier) String() string {
	var parts []string
	if m&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if m&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	return strings.Join(parts, "+")
}

// Key is a platform-neutral key identifier. Only the numeric keypad
// operators are bound.
type Key int

const (
	KeyNumpadSubtract Key = iota + 1
	KeyNumpadAdd
	KeyNumpadMultiply
	KeyNumpadDivide
)

func (k Key) String() string {
	switch k {
	case KeyNumpadSubtract:
		return "Num-"
	case KeyNumpadAdd:
		return "Num+"
	case KeyNumpadMultiply:
		return "Num*"
	case KeyNumpadDivide:
		return "Num/"
	}
	return "?"
}

// Binding ties one modifier+key combination to a command.
type Binding struct {
	Mods    Modifier
	Key     Key
	Command control.CommandType
}

func (b Binding) String() string {
	return b.Mods.String() + "+" + b.Key.String()
}

// DefaultBindings returns the shortcut table: the ten classic shortcuts in
// their original order, followed by the start shortcut.
func DefaultBindings() []Binding {
	return []Binding{
		{ModCtrl, KeyNumpadSubtract, control.CmdSlowDown},
		{ModCtrl, KeyNumpadAdd, control.CmdSpeedUp},
		{ModCtrl | ModShift, KeyNumpadSubtract, control.CmdStop},
		{ModCtrl | ModShift, KeyNumpadAdd, control.CmdSetSpeedUpFactor},
		{ModCtrl, KeyNumpadMultiply, control.CmdResetInterval},
		{ModCtrl, KeyNumpadDivide, control.CmdExit},
		{ModCtrl | ModAlt, KeyNumpadSubtract, control.CmdSetSlowDownFactor},
		{ModCtrl | ModAlt, KeyNumpadMultiply, control.CmdSetBaseInterval},
		{ModCtrl | ModShift, KeyNumpadMultiply, control.CmdResetAll},
		{ModCtrl | ModAlt, KeyNumpadDivide, control.CmdSetRoundBudget},
		{ModCtrl | ModAlt, KeyNumpadAdd, control.CmdStart},
	}
}
