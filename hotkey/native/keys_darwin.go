package native

import gohotkey "golang.design/x/hotkey"

// Carbon kVK_ANSI_Keypad* codes.
const (
	modAlt = gohotkey.ModOption

	keyNumpadSubtract gohotkey.Key = 0x4E
	keyNumpadAdd      gohotkey.Key = 0x45
	keyNumpadMultiply gohotkey.Key = 0x43
	keyNumpadDivide   gohotkey.Key = 0x4B
)
