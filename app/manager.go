// Package app contains the AppManager, which coordinates the parameter store,
// the worker loop, the command sources and the exit lifecycle.
//
// Maintenance notes / tips:
//   - Concurrency model: every command, whatever its source (hotkey, tray,
//     HTTP), is funnelled through `cmdCh` into a single `commandLoop`
//     goroutine, so the Dispatcher never runs concurrently with itself. The
//     worker loop runs in its own goroutine and only reads the Store.
//   - `EnqueueCommand` blocks until the command loop accepts the command or
//     the manager shuts down. Commands are never dropped while running.
//   - Exit runs on the command loop: the worker is stopped and joined first,
//     then the run context is cancelled so blocked enqueuers return, then the
//     sources are released, and finally OnExit ends the host event loop.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"KeyPacer/control"
	"KeyPacer/hotkey"
	"KeyPacer/metrics"
	"KeyPacer/pacer"
	"KeyPacer/remote"

	"go.uber.org/zap"
)

// Cue is played when a run ends without an operator stop.
type Cue interface {
	Play()
}

type silentCue struct{}

func (silentCue) Play() {}

// Options configures an AppManager. Emitter and Prompter are required.
// Sources are started by Run and released on exit, in order. OnExit ends the
// host event loop, if any, and runs after the sources are released.
type Options struct {
	Params   pacer.Params
	Key      string
	Emitter  pacer.Emitter
	Prompter control.Prompter
	Recorder metrics.Recorder
	Cue      Cue
	Sources  []NamedSource
	OnExit   func()
	Log      *zap.Logger
}

// NamedSource labels a command source for logs and metrics.
type NamedSource struct {
	Name   string
	Source hotkey.Source
}

// AppManager is the main application struct, holding all state.
type AppManager struct {
	store      *pacer.Store
	loop       *pacer.Loop
	dispatcher *control.Dispatcher
	recorder   metrics.Recorder
	cue        Cue
	sources    []NamedSource
	onExit     func()
	log        *zap.Logger

	cmdCh     chan control.Command
	cmdCtx    context.Context
	cmdCancel context.CancelFunc
	loopDone  chan struct{}
	startOnce sync.Once
	exitOnce  sync.Once

	// promptCtx is cancelled when shutdown is requested; a pending prompt returns early.
	promptCtx    context.Context
	promptCancel context.CancelFunc
}

// NewAppManager creates a new application manager. Nothing runs until Run.
func NewAppManager(opts Options) *AppManager {
	a := &AppManager{
		recorder: opts.Recorder,
		cue:      opts.Cue,
		sources:  opts.Sources,
		onExit:   opts.OnExit,
		log:      opts.Log,
		cmdCh:    make(chan control.Command),
		loopDone: make(chan struct{}),
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.recorder == nil {
		a.recorder = metrics.NoopRecorder{}
	}
	if a.cue == nil {
		a.cue = silentCue{}
	}
	if a.onExit == nil {
		a.onExit = func() {}
	}
	a.cmdCtx, a.cmdCancel = context.WithCancel(context.Background())
	a.promptCtx, a.promptCancel = context.WithCancel(a.cmdCtx)

	a.store = pacer.NewStore(opts.Params, a.log)
	a.loop = pacer.NewLoop(a.store, opts.Emitter, opts.Key, a, a.log)
	a.dispatcher = control.NewDispatcher(a.store, a.loop, opts.Prompter, a.exit, a.log)
	return a
}

// Store exposes the live parameters.
func (a *AppManager) Store() *pacer.Store { return a.store }

// Loop exposes the worker loop.
func (a *AppManager) Loop() *pacer.Loop { return a.loop }

// Run starts the command loop and the sources, auto-starts the worker and
// blocks until an exit command has been handled or ctx is done.
func (a *AppManager) Run(ctx context.Context) error {
	a.startOnce.Do(func() { go a.commandLoop() })

	started := 0
	for _, s := range a.sources {
		if err := s.Source.Start(a.Handler(s.Name)); err != nil {
			a.log.Warn("Command source unavailable", zap.String("source", s.Name), zap.Error(err))
			continue
		}
		started++
	}
	if len(a.sources) > 0 && started == 0 {
		a.log.Warn("No command source is active; the program can only be stopped from the host")
	}

	if err := a.loop.Start(); err != nil {
		a.log.Warn("Initial start failed", zap.Error(err))
	}

	select {
	case <-a.cmdCtx.Done():
	case <-ctx.Done():
		a.Shutdown()
	}
	<-a.loopDone
	return nil
}

// Handler returns the callback a source uses to deliver commands.
func (a *AppManager) Handler(source string) func(control.CommandType) {
	return func(t control.CommandType) {
		a.EnqueueCommand(control.Command{Type: t, Source: source})
	}
}

// EnqueueCommand posts a command to the internal command loop. It blocks until
// the loop accepts it and reports false when the manager is shutting down.
func (a *AppManager) EnqueueCommand(cmd control.Command) bool {
	select {
	case a.cmdCh <- cmd:
		return true
	case <-a.cmdCtx.Done():
		a.log.Debug("Command ignored during shutdown", zap.Stringer("command", cmd.Type))
		return false
	}
}

func (a *AppManager) commandLoop() {
	defer close(a.loopDone)
	for {
		select {
		case <-a.cmdCtx.Done():
			return
		case cmd := <-a.cmdCh:
			err := a.handle(cmd)
			if cmd.Reply != nil {
				select {
				case cmd.Reply <- err:
				default:
				}
			}
		}
	}
}

func (a *AppManager) handle(cmd control.Command) error {
	a.log.Debug("Command received", zap.Stringer("command", cmd.Type), zap.String("source", cmd.Source))

	err := a.dispatcher.Dispatch(a.promptCtx, cmd.Type)
	switch {
	case err == nil:
		a.recorder.IncCommand(cmd.Type.String(), metrics.ResultOK)
	case errors.Is(err, pacer.ErrInvalidInput), errors.Is(err, pacer.ErrAlreadyRunning):
		a.recorder.IncCommand(cmd.Type.String(), metrics.ResultRejected)
	default:
		a.recorder.IncCommand(cmd.Type.String(), metrics.ResultError)
		if !errors.Is(err, context.Canceled) {
			a.log.Warn("Command failed", zap.Stringer("command", cmd.Type), zap.Error(err))
		}
	}
	return err
}

// exit is called by the dispatcher after the worker has been stopped.
func (a *AppManager) exit() {
	a.exitOnce.Do(func() {
		a.cmdCancel()
		for _, s := range a.sources {
			if err := s.Source.Release(); err != nil {
				a.log.Warn("Release failed", zap.String("source", s.Name), zap.Error(err))
			}
		}
		a.log.Info("Command sources released")
		a.onExit()
	})
}

// Shutdown requests an orderly exit, as if the exit command had been given.
func (a *AppManager) Shutdown() {
	a.startOnce.Do(func() { go a.commandLoop() })
	a.promptCancel()
	a.EnqueueCommand(control.Command{Type: control.CmdExit, Source: "shutdown"})
}

// Status reports the state served by the control endpoint.
func (a *AppManager) Status() remote.Status {
	p := a.store.Snapshot()
	return remote.Status{
		State:             a.loop.State().String(),
		Rounds:            a.loop.Rounds(),
		Key:               a.loop.Key(),
		BaseIntervalMs:    p.BaseInterval.Milliseconds(),
		CurrentIntervalMs: p.CurrentInterval.Milliseconds(),
		SlowDownFactor:    p.SlowDownFactor,
		SpeedUpFactor:     p.SpeedUpFactor,
		RoundBudget:       p.RoundBudget,
	}
}

// LoopStarted, RoundCompleted and LoopStopped implement pacer.Observer. They
// run on the worker goroutine.
func (a *AppManager) LoopStarted() {
	a.recorder.IncLoopStart()
}

// RoundCompleted records the round and the interval that preceded it.
func (a *AppManager) RoundCompleted(_ int, interval time.Duration) {
	a.recorder.IncRounds()
	a.recorder.SetInterval(interval)
}

// LoopStopped records the stop reason and plays the cue unless the operator stopped the run.
func (a *AppManager) LoopStopped(reason pacer.StopReason, _ int) {
	a.recorder.IncLoopStop(reason.String())
	if reason == pacer.StopEmitFailed {
		a.recorder.IncEmitFailures()
	}
	if reason != pacer.StopRequested {
		a.cue.Play()
	}
}
