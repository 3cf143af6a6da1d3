// Package pacer contains the domain logic of the key pacer: the live
// parameter Store and the Loop state machine that sleeps, emits a key and
// counts rounds.
//
// Maintenance notes:
//   - Store and Loop are touched by two goroutines (the application command
//     loop and the worker). Store guards its fields with an RWMutex; Loop guards
//     its lifecycle fields with its own mutex. Never hold both.
//   - Stop joins the worker. It must not be called from the worker goroutine,
//     which includes Observer callbacks; the budget check uses requestStop.
package pacer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning is returned by Start when a worker is already running.
	ErrAlreadyRunning = errors.New("loop is already running")
	// ErrEmitFailed wraps any failure of the emitter backend.
	ErrEmitFailed = errors.New("emit failed")
)

// LoopState defines the lifecycle states of the worker loop.
type LoopState int

const (
	StateIdle LoopState = iota
	StateRunning
	StateStopRequested
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop_requested"
	}
	return fmt.Sprintf("LoopState(%d)", int(s))
}

// StopReason records why a run ended.
type StopReason int

const (
	StopRequested StopReason = iota
	StopBudgetReached
	StopEmitFailed
)

func (r StopReason) String() string {
	switch r {
	case StopRequested:
		return "requested"
	case StopBudgetReached:
		return "budget_reached"
	case StopEmitFailed:
		return "emit_failed"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Emitter performs one press and release of a logical key on the host.
type Emitter interface {
	Emit(key string) error
}

// Observer is the interface the loop needs to report back to the application.
// Callbacks run on the worker goroutine.
type Observer interface {
	LoopStarted()
	RoundCompleted(round int, interval time.Duration)
	LoopStopped(reason StopReason, rounds int)
}

type nopObserver struct{}

func (nopObserver) LoopStarted()                      {}
func (nopObserver) RoundCompleted(int, time.Duration) {}
func (nopObserver) LoopStopped(StopReason, int)       {}

// Loop runs at most one worker that emits Key every Store.CurrentInterval.
type Loop struct {
	store   *Store
	emitter Emitter
	key     string
	obs     Observer
	log     *zap.Logger

	// lifecycle state - protect with mu
	mu     sync.Mutex
	state  LoopState
	cancel context.CancelFunc
	done   chan struct{}
	rounds int
}

// NewLoop creates an idle loop. obs and log may be nil.
func NewLoop(store *Store, emitter Emitter, key string, obs Observer, log *zap.Logger) *Loop {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{store: store, emitter: emitter, key: key, obs: obs, log: log}
}

// Key returns the logical key the loop emits.
func (l *Loop) Key() string {
	return l.key
}

// State returns the current lifecycle state.
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Rounds returns the rounds completed by the current run, or by the last run
// when idle.
func (l *Loop) Rounds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rounds
}

// Done returns a channel closed when the current worker exits. It is already
// closed when the loop is idle.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateIdle || l.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return l.done
}

// Start launches a fresh worker with its round counter at zero. A start
// issued while a stop is still unwinding waits for that worker to exit first.
func (l *Loop) Start() error {
	l.mu.Lock()
	for l.state == StateStopRequested {
		done := l.done
		l.mu.Unlock()
		<-done
		l.mu.Lock()
	}
	if l.state == StateRunning {
		rounds := l.rounds
		l.mu.Unlock()
		l.log.Info("Loop is already running", zap.Int("round", rounds))
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.state = StateRunning
	l.cancel = cancel
	l.done = done
	l.rounds = 0
	l.mu.Unlock()

	l.log.Info("Loop started",
		zap.String("key", l.key),
		zap.String("interval", FormatInterval(l.store.CurrentInterval())),
		zap.Int("round_budget", l.store.RoundBudget()))
	l.obs.LoopStarted()

	go l.run(ctx, done)
	return nil
}

// Stop asks the worker to exit and blocks until it has. No emit happens after
// Stop returns. Stopping an idle loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state == StateIdle {
		l.mu.Unlock()
		l.log.Debug("Loop already idle")
		return
	}
	l.requestStopLocked()
	done := l.done
	l.mu.Unlock()

	<-done
}

// requestStopLocked logs under mu so "Stopping loop" always precedes the
// worker's "Loop stopped".
func (l *Loop) requestStopLocked() {
	if l.state != StateRunning {
		return
	}
	l.state = StateStopRequested
	l.cancel()
	l.log.Info("Stopping loop")
}

func (l *Loop) requestStop() {
	l.mu.Lock()
	l.requestStopLocked()
	l.mu.Unlock()
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	reason := StopRequested
	rounds := 0
	defer func() { l.finish(done, reason, rounds) }()

	for {
		interval := l.store.CurrentInterval()
		if !sleep(ctx, interval) {
			return
		}

		if err := l.emit(); err != nil {
			l.log.Error("Emit failed, stopping loop", zap.String("key", l.key), zap.Error(err))
			reason = StopEmitFailed
			l.requestStop()
			return
		}

		rounds++
		l.mu.Lock()
		l.rounds = rounds
		l.mu.Unlock()

		l.log.Info("Key sent",
			zap.String("key", l.key),
			zap.String("interval", FormatInterval(interval)),
			zap.Int("round", rounds))
		l.obs.RoundCompleted(rounds, interval)

		if budget := l.store.RoundBudget(); rounds >= budget {
			l.log.Info("Round budget reached", zap.Int("round_budget", budget))
			reason = StopBudgetReached
			l.requestStop()
			return
		}
	}
}

func (l *Loop) finish(done chan struct{}, reason StopReason, rounds int) {
	l.log.Info("Loop stopped", zap.String("reason", reason.String()), zap.Int("rounds", rounds))
	l.obs.LoopStopped(reason, rounds)

	l.mu.Lock()
	l.state = StateIdle
	l.cancel = nil
	close(done)
	l.mu.Unlock()
}

// emit converts both returned errors and backend panics into ErrEmitFailed.
func (l *Loop) emit() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrEmitFailed, r)
		}
	}()
	if err := l.emitter.Emit(l.key); err != nil {
		return fmt.Errorf("%w: %w", ErrEmitFailed, err)
	}
	return nil
}

// sleep waits for d and reports whether the run should continue.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return ctx.Err() == nil
	}
}
