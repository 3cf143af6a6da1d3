package ui

import (
	"KeyPacer/control"
	"KeyPacer/i18n"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// TrayMenu builds the system tray menu. Each item hands its command to enqueue.
func TrayMenu(title string, enqueue func(control.CommandType)) *fyne.Menu {
	item := func(label string, cmd control.CommandType) *fyne.MenuItem {
		return fyne.NewMenuItem(i18n.T(label), func() { enqueue(cmd) })
	}

	exit := item("Exit", control.CmdExit)
	// Replaces the Quit entry fyne would append, so exit takes the normal path.
	exit.IsQuit = true

	return fyne.NewMenu(title,
		item("Start", control.CmdStart),
		item("Stop", control.CmdStop),
		fyne.NewMenuItemSeparator(),
		item("Slow Down", control.CmdSlowDown),
		item("Speed Up", control.CmdSpeedUp),
		item("Reset Interval", control.CmdResetInterval),
		item("Reset All", control.CmdResetAll),
		fyne.NewMenuItemSeparator(),
		exit,
	)
}

// InstallTray sets the tray menu when the driver supports one.
func InstallTray(app fyne.App, menu *fyne.Menu) bool {
	desk, ok := app.(desktop.App)
	if !ok {
		return false
	}
	desk.SetSystemTrayMenu(menu)
	return true
}
