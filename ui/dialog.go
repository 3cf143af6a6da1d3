package ui

import (
	"context"
	"strings"
	"sync"

	"KeyPacer/i18n"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

var promptSize = fyne.NewSize(380, 180)

// DialogPrompter shows modal fyne dialogs. The fyne app must be running; all
// widget work is marshalled onto its goroutine with fyne.Do.
type DialogPrompter struct {
	app fyne.App
}

// NewDialogPrompter creates a prompter that opens its dialogs in app.
func NewDialogPrompter(app fyne.App) *DialogPrompter {
	return &DialogPrompter{app: app}
}

// Ask opens a form dialog prefilled with current and blocks until the operator
// confirms, dismisses or closes it, or ctx is done.
func (d *DialogPrompter) Ask(ctx context.Context, title, prompt, current string) (string, error) {
	result := make(chan string, 1)
	var once sync.Once
	answer := func(s string) { once.Do(func() { result <- s }) }

	var host fyne.Window
	fyne.Do(func() {
		host = d.app.NewWindow(title)
		host.SetOnClosed(func() { answer("") })

		entry := widget.NewEntry()
		entry.SetText(current)
		items := []*widget.FormItem{widget.NewFormItem("", entry)}
		items[0].HintText = prompt

		form := dialog.NewForm(title, i18n.T("OK"), i18n.T("Cancel"), items, func(ok bool) {
			if ok {
				answer(strings.TrimSpace(entry.Text))
			} else {
				answer("")
			}
			host.Close()
		}, host)
		entry.OnSubmitted = func(string) { form.Submit() }

		host.Resize(promptSize)
		host.CenterOnScreen()
		host.Show()
		form.Resize(promptSize)
		form.Show()
		host.RequestFocus()
		host.Canvas().Focus(entry)
	})

	select {
	case s := <-result:
		return s, nil
	case <-ctx.Done():
		fyne.Do(func() {
			if host != nil {
				host.Close()
			}
		})
		return "", ctx.Err()
	}
}

// Alert shows an information dialog in its own window and returns immediately.
func (d *DialogPrompter) Alert(title, message string) {
	fyne.Do(func() {
		host := d.app.NewWindow(title)
		info := dialog.NewInformation(title, message, host)
		info.SetOnClosed(host.Close)
		host.Resize(promptSize)
		host.CenterOnScreen()
		host.Show()
		info.Show()
	})
}
