package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"
)

func (app *App) initConfirm(ctx context.Context) {
	app.pages.AddPage(pgConfirm, app.view.mbConfirm, false, false)
	app.view.mbConfirm.
		AddButtons([]string{btnYes, btnNo}).
		SetDoneFunc(app.handleConfirm).
		SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			if event.Key() == tcell.KeyESC {
				app.handleConfirm(-1, btnNo)
				return nil
			}
			return event
		})
}

func (app *App) handleConfirm(_ int, buttonLabel string) {
	app.pages.HidePage(pgConfirm)
	app.tva.SetFocus(app.view.fmParams)
	select {
	case app.confirmC <- buttonLabel == btnYes:
	default:
		// nobody is waiting for the answer.
	}
}

// confirm shows the confirmation dialog and waits for the answer.  It is
// called from the wipe goroutine.
func (app *App) confirm(ctx context.Context, question string) (bool, error) {
	// drain the stale answer, if any.
	select {
	case <-app.confirmC:
	default:
	}
	// queued asynchronously, the event loop may be gone already.
	go app.tva.QueueUpdateDraw(func() {
		app.view.mbConfirm.SetText(question)
		app.pages.ShowPage(pgConfirm)
		app.tva.SetFocus(app.view.mbConfirm)
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ok := <-app.confirmC:
		return ok, nil
	}
}
