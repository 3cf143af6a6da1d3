package native

import gohotkey "golang.design/x/hotkey"

// Virtual-key codes.
const (
	modAlt = gohotkey.ModAlt

	keyNumpadSubtract gohotkey.Key = 0x6D
	keyNumpadAdd      gohotkey.Key = 0x6B
	keyNumpadMultiply gohotkey.Key = 0x6A
	keyNumpadDivide   gohotkey.Key = 0x6F
)
