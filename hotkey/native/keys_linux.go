package native

import gohotkey "golang.design/x/hotkey"

// X11 keysyms for the keypad operators. Mod1 is Alt on stock layouts.
const (
	modAlt = gohotkey.Mod1

	keyNumpadSubtract gohotkey.Key = 0xffad
	keyNumpadAdd      gohotkey.Key = 0xffab
	keyNumpadMultiply gohotkey.Key = 0xffaa
	keyNumpadDivide   gohotkey.Key = 0xffaf
)
