// Package tui implements the full screen terminal interface.
package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rusq/dlog"
	"github.com/rusq/osenv/v2"

	"github.com/rusq/wipemychannel/internal/bg"
	"github.com/rusq/wipemychannel/internal/discord"
	"github.com/rusq/wipemychannel/internal/wipe"
)

const (
	btnYes  = "Yes"
	btnNo   = "No"
	btnWipe = "Wipe"
	btnQuit = "Quit"

	// pages
	pgMain    = "main"
	pgConfirm = "confirm"

	shutdownTimeout = 5 * time.Second
)

type App struct {
	tva *tview.Application
	dc  wipe.Discorder
	me  discord.User
	log *dlog.Logger

	pages *tview.Pages
	view  views

	defaults wipe.Delays
	confirmC chan bool
	running  atomic.Bool
	stop     bg.StopFunc
}

type views struct {
	fmParams  *tview.Form
	mbConfirm *tview.Modal
	tvLog     *tview.TextView

	ifChannel  *tview.InputField
	ifMinDelay *tview.InputField
	ifMaxDelay *tview.InputField
}

// New creates the application for the user me.  defaults are the initial
// values of the delay fields.
func New(ctx context.Context, dc wipe.Discorder, me discord.User, defaults wipe.Delays) *App {
	app := &App{
		tva: tview.NewApplication(),
		dc:  dc,
		me:  me,

		pages: tview.NewPages(),
		view: views{
			fmParams:  tview.NewForm(),
			mbConfirm: tview.NewModal(),
			tvLog:     tview.NewTextView(),

			ifChannel:  tview.NewInputField(),
			ifMinDelay: tview.NewInputField(),
			ifMaxDelay: tview.NewInputField(),
		},
		defaults: defaults,
		confirmC: make(chan bool, 1),
	}

	app.initMain(ctx)
	app.initConfirm(ctx)

	app.tva.SetInputCapture(app.handleKeystrokes)

	app.log = dlog.New(app.view.tvLog, "", dlog.Flags(), osenv.Value("DEBUG", "") != "")

	return app
}

func (app *App) Run(ctx context.Context) error {
	app.logf("Logged in as %s (%s)", app.me.DisplayName(), app.me.ID)
	defer app.shutdown()
	if err := app.tva.SetRoot(app.pages, true).EnableMouse(false).Run(); err != nil {
		return err
	}
	return nil
}

// shutdown stops the running wipe, if any.
func (app *App) shutdown() {
	if app.stop == nil {
		return
	}
	errC := make(chan error, 1)
	go func() { errC <- app.stop() }()
	select {
	case err := <-errC:
		if err != nil {
			dlog.Printf("wipe error: %s", err)
		}
	case <-time.After(shutdownTimeout):
		dlog.Println("timed out waiting for the wipe to stop")
	}
}

func (app *App) logf(format string, a ...any) {
	app.log.Printf(format, a...)
}

func (app *App) error(err error) {
	app.log.Printf("ERROR: %s", err)
}

func (app *App) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(app.view.tvLog, format, a...)
}

func (app *App) handleKeystrokes(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlQ, tcell.KeyF10:
		app.tva.Stop()
	default:
		return event
	}
	return nil
}
