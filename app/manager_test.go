package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"KeyPacer/control"
	"KeyPacer/i18n"
	"KeyPacer/metrics"
	"KeyPacer/pacer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	i18n.SetLang("en")
	goleak.VerifyTestMain(m)
}

type countingEmitter struct {
	mu    sync.Mutex
	count int
}

func (e *countingEmitter) Emit(string) error {
	e.mu.Lock()
	e.count++
	e.mu.Unlock()
	return nil
}

func (e *countingEmitter) emitted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

type scriptedPrompter struct {
	mu      sync.Mutex
	answers []string
	alerts  []string
	block   bool
}

func (p *scriptedPrompter) Ask(ctx context.Context, _, _, _ string) (string, error) {
	p.mu.Lock()
	block := p.block
	var a string
	if len(p.answers) > 0 {
		a, p.answers = p.answers[0], p.answers[1:]
	}
	p.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return a, nil
}

func (p *scriptedPrompter) Alert(_, message string) {
	p.mu.Lock()
	p.alerts = append(p.alerts, message)
	p.mu.Unlock()
}

type fakeSource struct {
	mu       sync.Mutex
	handler  func(control.CommandType)
	releases int
	started  chan struct{}
}

func newFakeSource() *fakeSource { return &fakeSource{started: make(chan struct{})} }

func (s *fakeSource) Start(h func(control.CommandType)) error {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
	close(s.started)
	return nil
}

func (s *fakeSource) Release() error {
	s.mu.Lock()
	s.releases++
	s.mu.Unlock()
	return nil
}

func (s *fakeSource) press(t *testing.T, c control.CommandType) {
	t.Helper()
	select {
	case <-s.started:
	case <-time.After(time.Second):
		t.Fatal("source never started")
	}
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h(c)
}

func (s *fakeSource) released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

type fakeRecorder struct {
	mu       sync.Mutex
	rounds   int
	failures int
	starts   int
	stops    []string
	commands map[string]metrics.ResultLabel
}

func (r *fakeRecorder) IncRounds()                { r.do(func() { r.rounds++ }) }
func (r *fakeRecorder) IncEmitFailures()          { r.do(func() { r.failures++ }) }
func (r *fakeRecorder) IncLoopStart()             { r.do(func() { r.starts++ }) }
func (r *fakeRecorder) IncLoopStop(reason string) { r.do(func() { r.stops = append(r.stops, reason) }) }
func (r *fakeRecorder) SetInterval(time.Duration) {}

func (r *fakeRecorder) IncCommand(name string, result metrics.ResultLabel) {
	r.do(func() {
		if r.commands == nil {
			r.commands = map[string]metrics.ResultLabel{}
		}
		r.commands[name] = result
	})
}

func (r *fakeRecorder) do(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f()
}

type countingCue struct {
	mu    sync.Mutex
	plays int
}

func (c *countingCue) Play() {
	c.mu.Lock()
	c.plays++
	c.mu.Unlock()
}

func (c *countingCue) played() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays
}

type fixture struct {
	mgr      *AppManager
	emitter  *countingEmitter
	prompter *scriptedPrompter
	source   *fakeSource
	recorder *fakeRecorder
	cue      *countingCue
	logs     *observer.ObservedLogs
	exited   chan struct{}
	runErr   chan error
}

func start(t *testing.T, ctx context.Context, params pacer.Params, answers ...string) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		emitter:  &countingEmitter{},
		prompter: &scriptedPrompter{answers: answers},
		source:   newFakeSource(),
		recorder: &fakeRecorder{},
		cue:      &countingCue{},
		logs:     logs,
		exited:   make(chan struct{}),
		runErr:   make(chan error, 1),
	}
	f.mgr = NewAppManager(Options{
		Params:   params,
		Key:      "pagedown",
		Emitter:  f.emitter,
		Prompter: f.prompter,
		Recorder: f.recorder,
		Cue:      f.cue,
		Sources:  []NamedSource{{Name: "test", Source: f.source}},
		OnExit:   func() { close(f.exited) },
		Log:      zap.New(core),
	})
	go func() { f.runErr <- f.mgr.Run(ctx) }()
	return f
}

func (f *fixture) waitExit(t *testing.T) {
	t.Helper()
	select {
	case err := <-f.runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func slowParams() pacer.Params {
	p := pacer.DefaultParams()
	p.BaseInterval = time.Hour
	p.CurrentInterval = time.Hour
	return p
}

func TestRunAutoStartsAndExitOrder(t *testing.T) {
	f := start(t, context.Background(), slowParams())

	f.source.press(t, control.CmdSlowDown)
	assert.Eventually(t, func() bool {
		return f.mgr.Store().CurrentInterval() == 63*time.Minute
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return f.mgr.Loop().State() == pacer.StateRunning }, time.Second, 5*time.Millisecond)

	f.source.press(t, control.CmdExit)
	f.waitExit(t)
	<-f.exited

	assert.Equal(t, pacer.StateIdle, f.mgr.Loop().State())
	assert.Equal(t, 1, f.source.released())

	var order []string
	for _, e := range f.logs.All() {
		switch e.Message {
		case "Exiting program", "Loop stopped", "Command sources released":
			order = append(order, e.Message)
		}
	}
	assert.Equal(t, []string{"Exiting program", "Loop stopped", "Command sources released"}, order)
	f.recorder.do(func() { assert.Equal(t, []string{"requested"}, f.recorder.stops) })
	assert.Zero(t, f.cue.played(), "an operator stop is silent")

	assert.False(t, f.mgr.EnqueueCommand(control.Command{Type: control.CmdStart}))
}

func TestBudgetReachedPlaysCue(t *testing.T) {
	p := pacer.DefaultParams()
	p.BaseInterval = 2 * time.Millisecond
	p.CurrentInterval = 2 * time.Millisecond
	p.RoundBudget = 3
	f := start(t, context.Background(), p)

	assert.Eventually(t, func() bool { return f.cue.played() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return f.mgr.Loop().State() == pacer.StateIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, f.emitter.emitted())

	f.recorder.do(func() {
		assert.Equal(t, 3, f.recorder.rounds)
		assert.Equal(t, 1, f.recorder.starts)
		assert.Equal(t, []string{"budget_reached"}, f.recorder.stops)
	})

	st := f.mgr.Status()
	assert.Equal(t, "idle", st.State)
	assert.Equal(t, 3, st.Rounds)
	assert.Equal(t, "pagedown", st.Key)

	f.mgr.Shutdown()
	f.waitExit(t)
}

func TestCommandResultsAreRecorded(t *testing.T) {
	f := start(t, context.Background(), slowParams(), "0")

	reply := make(chan error, 1)
	require.True(t, f.mgr.EnqueueCommand(control.Command{Type: control.CmdSetRoundBudget, Reply: reply}))
	assert.ErrorIs(t, <-reply, pacer.ErrInvalidInput)

	reply = make(chan error, 1)
	require.True(t, f.mgr.EnqueueCommand(control.Command{Type: control.CmdStart, Reply: reply}))
	assert.ErrorIs(t, <-reply, pacer.ErrAlreadyRunning)

	reply = make(chan error, 1)
	require.True(t, f.mgr.EnqueueCommand(control.Command{Type: control.CmdResetInterval, Reply: reply}))
	assert.NoError(t, <-reply)

	f.recorder.do(func() {
		assert.Equal(t, metrics.ResultRejected, f.recorder.commands["set-round-budget"])
		assert.Equal(t, metrics.ResultRejected, f.recorder.commands["start"])
		assert.Equal(t, metrics.ResultOK, f.recorder.commands["reset-interval"])
	})
	assert.Equal(t, []string{"Rounds must be greater than zero."}, f.prompter.alerts)

	f.mgr.Shutdown()
	f.waitExit(t)
}

func TestShutdownInterruptsPendingPrompt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := start(t, ctx, slowParams())
	f.prompter.mu.Lock()
	f.prompter.block = true
	f.prompter.mu.Unlock()

	reply := make(chan error, 1)
	require.True(t, f.mgr.EnqueueCommand(control.Command{Type: control.CmdSetBaseInterval, Reply: reply}))
	select {
	case <-reply:
		t.Fatal("prompt should still be pending")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	f.waitExit(t)
	assert.ErrorIs(t, <-reply, context.Canceled)
	assert.Equal(t, pacer.StateIdle, f.mgr.Loop().State())
	assert.Equal(t, 1, f.source.released())
	assert.Equal(t, pacer.DefaultParams().RoundBudget, f.mgr.Store().RoundBudget())
}
