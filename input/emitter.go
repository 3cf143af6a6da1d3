// Package input turns logical key names into synthetic key presses on the
// host. KeybdEmitter drives the real keyboard through keybd_event; DryRun
// only reports what would have been sent.
package input

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
	"go.uber.org/zap"
)

// ErrUnknownKey is returned for key names with no virtual-key mapping.
var ErrUnknownKey = errors.New("unknown key")

// DefaultKey is the key emitted when none is configured.
const DefaultKey = "pagedown"

// keyCodes maps the supported logical key names to keybd_event virtual keys.
var keyCodes = map[string]int{
	"pagedown": keybd_event.VK_PAGEDOWN,
	"pageup":   keybd_event.VK_PAGEUP,
	"space":    keybd_event.VK_SPACE,
	"up":       keybd_event.VK_UP,
	"down":     keybd_event.VK_DOWN,
	"left":     keybd_event.VK_LEFT,
	"right":    keybd_event.VK_RIGHT,
	"home":     keybd_event.VK_HOME,
	"end":      keybd_event.VK_END,
}

// NormalizeKey lower-cases and validates a key name.
func NormalizeKey(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if _, ok := keyCodes[key]; !ok {
		return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownKey, name, strings.Join(KeyNames(), ", "))
	}
	return key, nil
}

// KeyNames lists the supported key names in sorted order.
func KeyNames() []string {
	names := make([]string, 0, len(keyCodes))
	for name := range keyCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// keyBonding is the subset of keybd_event.KeyBonding the emitter drives.
type keyBonding interface {
	SetKeys(keys ...int)
	Press() error
	Release() error
}

// KeybdEmitter sends a press followed by a release through keybd_event.
type KeybdEmitter struct {
	mu sync.Mutex
	kb keyBonding
}

// linuxSettle is how long the uinput device needs before it accepts events.
const linuxSettle = 2 * time.Second

// NewKeybdEmitter creates the virtual keyboard. On Linux this needs write
// access to /dev/uinput.
func NewKeybdEmitter() (*KeybdEmitter, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	if runtime.GOOS == "linux" {
		time.Sleep(linuxSettle)
	}
	return &KeybdEmitter{kb: &kb}, nil
}

// Emit presses and then releases key as two separate events.
func (e *KeybdEmitter) Emit(key string) error {
	code, ok := keyCodes[key]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.kb.SetKeys(code)
	if err := e.kb.Press(); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	if err := e.kb.Release(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// DryRun logs each emit instead of touching the host keyboard.
type DryRun struct {
	log *zap.Logger
}

// NewDryRun creates an emitter that only logs.
func NewDryRun(log *zap.Logger) *DryRun {
	if log == nil {
		log = zap.NewNop()
	}
	return &DryRun{log: log}
}

func (d *DryRun) Emit(key string) error {
	if _, ok := keyCodes[key]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	d.log.Debug("Dry run: key press", zap.String("key", key))
	d.log.Debug("Dry run: key release", zap.String("key", key))
	return nil
}
