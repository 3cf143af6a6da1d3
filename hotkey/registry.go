package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"KeyPacer/control"

	"go.uber.org/zap"
)

// ErrNoneRegistered is returned by Start when not a single binding could be
// registered with the host.
var ErrNoneRegistered = errors.New("no hotkey could be registered")

// Source delivers command tokens from some external trigger. Start begins
// delivery; Release stops it and frees host resources. Release is idempotent.
type Source interface {
	Start(handler func(control.CommandType)) error
	Release() error
}

// Registration is one host-level shortcut. Keydown yields a value per press.
type Registration interface {
	Register() error
	Unregister() error
	Keydown() <-chan struct{}
}

// Factory builds the host registration for a binding.
type Factory func(Binding) Registration

type entry struct {
	reg  Registration
	quit chan struct{}
}

// Registry registers a table of bindings and forwards presses to a handler.
type Registry struct {
	bindings []Binding
	factory  Factory
	log      *zap.Logger

	mu     sync.Mutex
	active map[Binding]*entry
	wg     sync.WaitGroup
}

// NewRegistry creates a registry for bindings. Nothing is registered until Start.
func NewRegistry(bindings []Binding, factory Factory, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		bindings: bindings,
		factory:  factory,
		log:      log,
		active:   make(map[Binding]*entry),
	}
}

// Bindings returns the table this registry serves.
func (r *Registry) Bindings() []Binding {
	return append([]Binding(nil), r.bindings...)
}

// Start registers every binding. A binding the host refuses (for example
// because another program owns it) is logged and skipped.
func (r *Registry) Start(handler func(control.CommandType)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, b := range r.bindings {
		if _, ok := r.active[b]; ok {
			continue
		}
		reg := r.factory(b)
		if err := reg.Register(); err != nil {
			r.log.Warn("Hotkey registration failed", zap.Stringer("hotkey", b), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
			continue
		}
		e := &entry{reg: reg, quit: make(chan struct{})}
		r.active[b] = e
		r.wg.Add(1)
		go r.listen(b, e, handler)
		r.log.Debug("Hotkey registered", zap.Stringer("hotkey", b), zap.Stringer("command", b.Command))
	}

	if len(r.active) == 0 && len(r.bindings) > 0 {
		return fmt.Errorf("%w: %w", ErrNoneRegistered, errors.Join(errs...))
	}
	r.log.Info("Hotkeys registered", zap.Int("count", len(r.active)), zap.Int("failed", len(errs)))
	return nil
}

func (r *Registry) listen(b Binding, e *entry, handler func(control.CommandType)) {
	defer r.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case _, ok := <-e.reg.Keydown():
			if !ok {
				return
			}
			r.log.Debug("Hotkey pressed", zap.Stringer("hotkey", b))
			handler(b.Command)
		}
	}
}

// ReleaseBinding unregisters one binding. Releasing a binding that is not
// registered is not an error.
func (r *Registry) ReleaseBinding(b Binding) error {
	r.mu.Lock()
	e, ok := r.active[b]
	if ok {
		delete(r.active, b)
		close(e.quit)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if err := e.reg.Unregister(); err != nil {
		return fmt.Errorf("unregister %s: %w", b, err)
	}
	return nil
}

// Release unregisters every binding and waits for the listeners to exit.
// It must not be called from a handler, which runs on a listener goroutine.
func (r *Registry) Release() error {
	var errs []error
	for _, b := range r.bindings {
		if err := r.ReleaseBinding(b); err != nil {
			errs = append(errs, err)
		}
	}
	r.wg.Wait()
	return errors.Join(errs...)
}
