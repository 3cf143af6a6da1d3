// Package native backs hotkey bindings with OS-level global shortcuts.
//
// On macOS and Linux the event loop must run on the main thread; callers wrap
// their entry point with mainthread.Init.
package native

import (
	"sync"

	"KeyPacer/hotkey"

	gohotkey "golang.design/x/hotkey"
)

// Factory is a hotkey.Factory producing OS registrations.
func Factory(b hotkey.Binding) hotkey.Registration {
	return &registration{
		hk:      gohotkey.New(modifiers(b.Mods), keyCode(b.Key)),
		presses: make(chan struct{}),
	}
}

type registration struct {
	hk      *gohotkey.Hotkey
	presses chan struct{}

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

func (r *registration) Register() error {
	if err := r.hk.Register(); err != nil {
		return err
	}
	r.mu.Lock()
	r.quit = make(chan struct{})
	r.done = make(chan struct{})
	go r.forward(r.hk.Keydown(), r.quit, r.done)
	r.mu.Unlock()
	return nil
}

// forward relays library events so the registry sees a plain struct{} channel.
func (r *registration) forward(in <-chan gohotkey.Event, quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			select {
			case r.presses <- struct{}{}:
			case <-quit:
				return
			}
		}
	}
}

func (r *registration) Unregister() error {
	r.mu.Lock()
	quit, done := r.quit, r.done
	r.quit, r.done = nil, nil
	r.mu.Unlock()
	if quit == nil {
		return nil
	}
	close(quit)
	<-done
	return r.hk.Unregister()
}

func (r *registration) Keydown() <-chan struct{} { return r.presses }

func modifiers(m hotkey.Modifier) []gohotkey.Modifier {
	var mods []gohotkey.Modifier
	if m&hotkey.ModCtrl != 0 {
		mods = append(mods, gohotkey.ModCtrl)
	}
	if m&hotkey.ModShift != 0 {
		mods = append(mods, gohotkey.ModShift)
	}
	if m&hotkey.ModAlt != 0 {
		mods = append(mods, modAlt)
	}
	return mods
}

func keyCode(k hotkey.Key) gohotkey.Key {
	switch k {
	case hotkey.KeyNumpadSubtract:
		return keyNumpadSubtract
	case hotkey.KeyNumpadAdd:
		return keyNumpadAdd
	case hotkey.KeyNumpadMultiply:
		return keyNumpadMultiply
	case hotkey.KeyNumpadDivide:
		return keyNumpadDivide
	}
	return 0
}
