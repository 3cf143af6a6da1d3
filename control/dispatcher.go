package control

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"KeyPacer/i18n"
	"KeyPacer/pacer"

	"go.uber.org/zap"
)

// Prompter obtains a value from the operator and shows modal notices.
// Ask returns "" when the operator cancels or enters nothing.
type Prompter interface {
	Ask(ctx context.Context, title, prompt, current string) (string, error)
	Alert(title, message string)
}

// LoopController is the part of the worker loop the dispatcher drives.
type LoopController interface {
	Start() error
	Stop()
}

// Dispatcher maps command tokens to parameter, loop and lifecycle actions.
type Dispatcher struct {
	store  *pacer.Store
	loop   LoopController
	prompt Prompter
	exit   func()
	log    *zap.Logger
}

// NewDispatcher wires the dispatcher. exit is called after the loop has been
// stopped when CmdExit is handled; it must release the event sources and end
// the event loop.
func NewDispatcher(store *pacer.Store, loop LoopController, prompt Prompter, exit func(), log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if exit == nil {
		exit = func() {}
	}
	return &Dispatcher{store: store, loop: loop, prompt: prompt, exit: exit, log: log}
}

// Dispatch performs the action bound to t. It returns pacer.ErrInvalidInput
// when a prompted value was rejected and pacer.ErrAlreadyRunning for a
// redundant start; both leave state unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, t CommandType) error {
	switch t {
	case CmdSlowDown:
		d.store.AdjustInterval(true)
	case CmdSpeedUp:
		d.store.AdjustInterval(false)
	case CmdStop:
		d.loop.Stop()
	case CmdStart:
		return d.loop.Start()
	case CmdResetInterval:
		d.store.ResetInterval()
	case CmdResetAll:
		d.store.ResetAll()
	case CmdSetSlowDownFactor:
		return d.promptFactor(ctx, "Set Slow-Down Factor", "Please enter the new slow-down factor:",
			d.store.Snapshot().SlowDownFactor, d.store.SetSlowDownFactor)
	case CmdSetSpeedUpFactor:
		return d.promptFactor(ctx, "Set Speed-Up Factor", "Please enter the new speed-up factor:",
			d.store.Snapshot().SpeedUpFactor, d.store.SetSpeedUpFactor)
	case CmdSetBaseInterval:
		return d.promptCount(ctx, "Set Base Interval", "Please enter the new base interval (in milliseconds):", "Base interval",
			int(d.store.Snapshot().BaseInterval.Milliseconds()), d.store.SetBaseInterval)
	case CmdSetRoundBudget:
		return d.promptCount(ctx, "Set Rounds", "Please enter the new rounds:", "Rounds",
			d.store.Snapshot().RoundBudget, d.store.SetRoundBudget)
	case CmdExit:
		d.log.Info("Exiting program")
		d.loop.Stop()
		d.exit()
	default:
		return fmt.Errorf("unknown command %v", t)
	}
	return nil
}

func (d *Dispatcher) promptFactor(ctx context.Context, title, prompt string, current float64, apply func(float64) error) error {
	answer, err := d.ask(ctx, title, prompt, strconv.FormatFloat(current, 'g', -1, 64))
	if err != nil || answer == "" {
		return err
	}
	v, err := pacer.ParseFactor(answer)
	if err == nil {
		err = apply(v)
	}
	if err != nil {
		d.reject(err, "Multiplier", "Invalid input. Please enter a valid number.")
	}
	return err
}

func (d *Dispatcher) promptCount(ctx context.Context, title, prompt, subject string, current int, apply func(int) error) error {
	answer, err := d.ask(ctx, title, prompt, strconv.Itoa(current))
	if err != nil || answer == "" {
		return err
	}
	v, err := pacer.ParseCount(answer)
	if err == nil {
		err = apply(v)
	}
	if err != nil {
		d.reject(err, subject, "Invalid input. Please enter a valid integer.")
	}
	return err
}

func (d *Dispatcher) ask(ctx context.Context, title, prompt, current string) (string, error) {
	answer, err := d.prompt.Ask(ctx, i18n.T(title), i18n.T(prompt), current)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", title, err)
	}
	if answer == "" {
		d.log.Debug("Prompt cancelled", zap.String("title", title))
	}
	return answer, nil
}

// reject reports a refused value on the observation channel and as a modal notice.
func (d *Dispatcher) reject(err error, subject, notNumber string) {
	d.log.Warn("Invalid input", zap.Error(err))
	message := i18n.T(notNumber)
	switch {
	case errors.Is(err, pacer.ErrNotPositive):
		message = i18n.Tf("%s must be greater than zero.", i18n.T(subject))
	case errors.Is(err, pacer.ErrTooLarge):
		message = i18n.Tf("%s is too large.", i18n.T(subject))
	}
	d.prompt.Alert(i18n.T("Invalid Input"), message)
}
