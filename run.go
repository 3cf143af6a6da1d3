package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"KeyPacer/app"
	"KeyPacer/config"
	"KeyPacer/control"
	"KeyPacer/hotkey"
	"KeyPacer/hotkey/native"
	"KeyPacer/i18n"
	"KeyPacer/input"
	"KeyPacer/metrics"
	"KeyPacer/pacer"
	"KeyPacer/remote"
	"KeyPacer/ui"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.design/x/hotkey/mainthread"
)

func runPacer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.DryRun = true
	}

	logger, err := newLogger(cfg.Log, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	i18n.SetLang(cfg.Lang)
	logger.Info("Starting KeyPacer",
		zap.String("key", cfg.Key),
		zap.String("interval", pacer.FormatInterval(cfg.Params().BaseInterval)),
		zap.Int("rounds", cfg.Defaults.RoundBudget),
		zap.String("prompt", cfg.Prompt),
		zap.String("lang", i18n.GetLang()),
		zap.Bool("dry_run", cfg.DryRun),
	)

	emitter, err := newEmitter(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{
		Params:   cfg.Params(),
		Key:      cfg.Key,
		Emitter:  emitter,
		Recorder: metrics.NoopRecorder{},
		Log:      logger,
	}
	if cfg.Sound.Enabled {
		opts.Cue = newToneCue(cfg.Sound.FrequencyHz, cfg.SoundDuration(), logger)
	}
	if cfg.Hotkeys {
		registry := hotkey.NewRegistry(hotkey.DefaultBindings(), native.Factory, logger.Named("hotkey"))
		opts.Sources = append(opts.Sources, app.NamedSource{Name: "hotkey", Source: registry})
	}

	// The control endpoint needs the manager for /status, so it is bound late.
	var mgr *app.AppManager
	newManager := func(o app.Options) *app.AppManager {
		mgr = app.NewAppManager(o)
		return mgr
	}
	if cfg.Control.Listen != "" {
		reg := prom.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
		srv := remote.New(cfg.Control.Listen, func() remote.Status { return mgr.Status() },
			metrics.HTTPHandler(reg), logger.Named("remote"))
		opts.Sources = append(opts.Sources, app.NamedSource{Name: "http", Source: srv})
	}

	if cfg.Prompt == config.PromptDialog {
		return runWithDialogs(ctx, opts, newManager, logger)
	}

	opts.Prompter = ui.NewConsolePrompter(os.Stdin, os.Stderr)
	newManager(opts)
	if !cfg.Hotkeys {
		return mgr.Run(ctx)
	}
	// Global hotkeys need the main thread on macOS and Linux.
	mainthread.Init(func() { err = mgr.Run(ctx) })
	return err
}

// runWithDialogs hands the main thread to fyne. The tray menu keeps the event
// loop alive while no dialog is open.
func runWithDialogs(ctx context.Context, opts app.Options, newManager func(app.Options) *app.AppManager, logger *zap.Logger) error {
	fyneApp := fyneapp.NewWithID("io.keypacer")
	fyneApp.Settings().SetTheme(ui.NewTheme(ui.Accent))

	opts.Prompter = ui.NewDialogPrompter(fyneApp)
	opts.OnExit = func() { fyne.Do(fyneApp.Quit) }
	mgr := newManager(opts)

	menu := ui.TrayMenu("KeyPacer", func(t control.CommandType) {
		// Menu actions run on the fyne goroutine, which the prompts also need.
		go mgr.EnqueueCommand(control.Command{Type: t, Source: "tray"})
	})
	if !ui.InstallTray(fyneApp, menu) {
		logger.Warn("System tray unavailable; closing the last dialog will end the program")
	}

	runErr := make(chan error, 1)
	go func() { runErr <- mgr.Run(ctx) }()

	fyneApp.Run()
	mgr.Shutdown()
	return <-runErr
}

func newEmitter(cfg *config.Config, logger *zap.Logger) (pacer.Emitter, error) {
	if cfg.DryRun {
		return input.NewDryRun(logger.Named("dryrun")), nil
	}
	emitter, err := input.NewKeybdEmitter()
	if err != nil {
		return nil, fmt.Errorf("%w (use --dry-run on hosts without keyboard injection)", err)
	}
	return emitter, nil
}
