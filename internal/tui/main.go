package tui

import (
	"context"
	"errors"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rusq/wipemychannel/internal/bg"
	"github.com/rusq/wipemychannel/internal/wipe"
)

const infoText = "Press [Ctrl+Q] or [F10] to quit, [Tab] to move between fields"

func (app *App) initMain(ctx context.Context) {
	app.view.ifChannel.
		SetLabel("Channel ID").
		SetFieldWidth(21).
		SetAcceptanceFunc(tview.InputFieldInteger)
	app.view.ifMinDelay.
		SetLabel("Min delay (ms)").
		SetFieldWidth(8).
		SetAcceptanceFunc(tview.InputFieldInteger).
		SetText(strconv.FormatInt(app.defaults.Min.Milliseconds(), 10))
	app.view.ifMaxDelay.
		SetLabel("Max delay (ms)").
		SetFieldWidth(8).
		SetAcceptanceFunc(tview.InputFieldInteger).
		SetText(strconv.FormatInt(app.defaults.Max.Milliseconds(), 10))

	app.view.fmParams.
		AddFormItem(app.view.ifChannel).
		AddFormItem(app.view.ifMinDelay).
		AddFormItem(app.view.ifMaxDelay).
		AddButton(btnWipe, func() { app.handleWipe(ctx) }).
		AddButton(btnQuit, app.tva.Stop).
		SetBorder(true).
		SetTitle("[ Channel ]")

	app.view.tvLog.
		SetWordWrap(true).
		SetScrollable(true).
		SetChangedFunc(func() { app.tva.Draw() }).
		SetBorder(true).
		SetTitle("[ Information ]")

	// main is the main screen, split in two parts.
	workspace := tview.NewFlex().
		AddItem(app.view.fmParams, 0, 30, true).
		AddItem(app.view.tvLog, 0, 70, false)

	// The bottom row is the help message
	info := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignCenter).
		SetTextColor(tcell.ColorRed).
		SetText(infoText)

	mainScreen := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(workspace, 0, 1, true).
		AddItem(info, 1, 1, false)

	app.pages.AddPage(pgMain, mainScreen, true, true)
}

// params returns the channel ID and delays entered in the form.
func (app *App) params() (snowflake.ID, wipe.Delays, error) {
	channelID, err := snowflake.Parse(app.view.ifChannel.GetText())
	if err != nil || channelID == 0 {
		return 0, wipe.Delays{}, errors.New("invalid channel ID")
	}
	minMs, err := strconv.Atoi(app.view.ifMinDelay.GetText())
	if err != nil {
		return 0, wipe.Delays{}, errors.New("invalid minimum delay")
	}
	maxMs, err := strconv.Atoi(app.view.ifMaxDelay.GetText())
	if err != nil {
		return 0, wipe.Delays{}, errors.New("invalid maximum delay")
	}
	delays, err := wipe.DelaysMs(minMs, maxMs)
	if err != nil {
		return 0, wipe.Delays{}, err
	}
	return channelID, delays, nil
}

func (app *App) handleWipe(ctx context.Context) {
	if app.running.Load() {
		app.logf("Please wait for the current operation to finish")
		return
	}
	channelID, delays, err := app.params()
	if err != nil {
		app.error(err)
		return
	}

	total := 0
	w, err := wipe.New(app.dc, app.me, delays, wipe.ConfirmFunc(app.confirm),
		wipe.WithLogger(app.log),
		wipe.WithProgress(func(n int) {
			total += n
			if total > 0 && total%1000 == 0 {
				app.printf("...%s", humanize.Comma(int64(total)))
			}
		}),
	)
	if err != nil {
		app.error(err)
		return
	}

	app.view.tvLog.Clear()
	app.logf("Scanning channel %s, please wait...", channelID)
	app.running.Store(true)
	// async run is needed so that the tvLog will keep updating.
	app.stop, _ = bg.Start(func(ctx context.Context) error {
		defer app.running.Store(false)
		res, err := w.Wipe(ctx, channelID)
		if err != nil {
			if !errors.Is(err, wipe.ErrCancelled) {
				app.error(err)
			}
			return nil
		}
		if res.Found > 0 {
			app.logf("%s of %s messages deleted in %s", humanize.Comma(int64(res.Deleted)), humanize.Comma(int64(res.Found)), channelID)
		}
		return nil
	}, bg.WithContext(ctx))
}
