// Package wipe finds the messages of the current user in the channel and
// deletes them, one by one, pausing for a random time before each deletion.
package wipe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/looplab/fsm"
	"github.com/rusq/dlog"
	"github.com/schollz/progressbar/v3"

	"github.com/rusq/wipemychannel/internal/discord"
)

// ErrCancelled is returned when the user declines the deletion.
var ErrCancelled = errors.New("operation cancelled")

// Discorder is the subset of the API client functions used for wiping.
type Discorder interface {
	SearchAllMessages(ctx context.Context, channelID, authorID snowflake.ID, cb func(n int)) ([]discord.Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) (int, error)
}

// forgetter is implemented by clients that cache search results.
type forgetter interface {
	Forget(channelID snowflake.ID) bool
}

// Confirmer asks the user to confirm the deletion.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc is an adapter to allow the use of ordinary functions as
// Confirmer.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

type Wiper struct {
	dc      Discorder
	me      discord.User
	delays  Delays
	confirm Confirmer

	log     *dlog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	onScan  func(n int)
	showBar bool

	fsm *fsm.FSM
}

// Result is the outcome of the wipe.
type Result struct {
	Found   int
	Deleted int
}

type Option func(w *Wiper)

// WithLogger sets the output for the status messages.
func WithLogger(l *dlog.Logger) Option {
	return func(w *Wiper) {
		if l == nil {
			return
		}
		w.log = l
	}
}

// WithProgress sets the function that is called with the number of scanned
// messages while fetching.
func WithProgress(fn func(n int)) Option {
	return func(w *Wiper) {
		w.onScan = fn
	}
}

// WithProgressBar enables the progress bar while fetching.
func WithProgressBar(enable bool) Option {
	return func(w *Wiper) {
		w.showBar = enable
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Wiper) {
		w.sleep = fn
	}
}

// New creates a new Wiper for the user me.  The delays must be valid.
func New(dc Discorder, me discord.User, delays Delays, c Confirmer, opts ...Option) (*Wiper, error) {
	if err := delays.Validate(); err != nil {
		return nil, err
	}
	w := &Wiper{
		dc:      dc,
		me:      me,
		delays:  delays,
		confirm: c,
		log:     dlog.New(os.Stderr, "", dlog.Flags(), false),
		sleep:   sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.fsm = w.initFSM()
	return w, nil
}

// Wipe deletes all messages of the user in the channel.  It returns
// ErrCancelled if the user has not confirmed the deletion.  Individual
// deletion failures are logged and do not stop the process.
func (w *Wiper) Wipe(ctx context.Context, channelID snowflake.ID) (Result, error) {
	if err := w.reset(ctx); err != nil {
		return Result{}, err
	}
	if err := w.event(ctx, evStart); err != nil {
		return Result{}, err
	}

	msgs := w.fetch(ctx, channelID)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(msgs) == 0 {
		w.log.Println("No self-messages found to delete.")
		return Result{}, w.event(ctx, evNothingToDo)
	}

	w.fsm.SetMetadata(metaChannel, channelID)
	w.fsm.SetMetadata(metaMessages, msgs)
	if err := w.event(ctx, evFetched); err != nil {
		return Result{}, err
	}

	res := Result{Found: len(msgs)}
	ok, err := w.confirm.Confirm(ctx, Estimate(len(msgs), w.delays)+" Confirm deletion?")
	if err != nil || !ok {
		if evErr := w.event(ctx, evCancelled); evErr != nil {
			w.log.Debugf("%s", evErr)
		}
		if err != nil {
			return res, fmt.Errorf("confirmation: %w", err)
		}
		w.log.Println("Operation cancelled.")
		return res, ErrCancelled
	}
	if err := w.event(ctx, evConfirmed); err != nil {
		return res, err
	}

	n, err := w.deleteAll(ctx)
	res.Deleted = n
	if err != nil {
		return res, err
	}
	if err := w.event(ctx, evDeleted); err != nil {
		return res, err
	}
	w.log.Println("All self-messages processed.")
	return res, nil
}

// fetch returns the messages of the user in the channel.  If the fetching
// fails midway, the error is logged and messages collected so far are
// returned.
func (w *Wiper) fetch(ctx context.Context, channelID snowflake.ID) []discord.Message {
	w.log.Println("Fetching messages...")

	// every run starts from the fresh history.
	if f, ok := w.dc.(forgetter); ok && f.Forget(channelID) {
		w.log.Debugf("dropped cached search results for %s", channelID)
	}

	cb := w.onScan
	if w.showBar {
		pb := progressbar.New(-1)
		pb.Describe(fmt.Sprintf("scanning %s", channelID))
		pb.RenderBlank()
		cb = func(n int) {
			pb.Add(n)
			if w.onScan != nil {
				w.onScan(n)
			}
		}
		defer func() {
			pb.Finish()
			fmt.Print("\r")
		}()
	}

	msgs, err := w.dc.SearchAllMessages(ctx, channelID, w.me.ID, cb)
	if err != nil {
		w.log.Printf("Error fetching messages: %s", err)
	}
	w.log.Debugf("found %d messages", len(msgs))
	return msgs
}

// deleteAll deletes the messages stored in the FSM metadata, in the order
// they were fetched.  It returns the number of deleted messages.
func (w *Wiper) deleteAll(ctx context.Context) (int, error) {
	channelID, err := metadata[snowflake.ID](w.fsm, metaChannel)
	if err != nil {
		return 0, fmt.Errorf("channel missing: %w", err)
	}
	msgs, err := metadata[[]discord.Message](w.fsm, metaMessages)
	if err != nil {
		return 0, fmt.Errorf("messages missing: %w", err)
	}

	deleted := 0
	for i, m := range msgs {
		if err := w.sleep(ctx, w.delays.Next()); err != nil {
			return deleted, err
		}
		if w.deleteMessage(ctx, channelID, m.ID) {
			deleted++
			w.log.Printf("Deleted message: %s [%d]", m.ID, i+1)
		}
	}
	return deleted, nil
}

// deleteMessage deletes a single message and returns true on success.  It
// logs the reason of a failure.
func (w *Wiper) deleteMessage(ctx context.Context, channelID, messageID snowflake.ID) bool {
	status, err := w.dc.DeleteMessage(ctx, channelID, messageID)
	if err != nil {
		if discord.IsSystemMessage(err) {
			w.log.Printf("Skipped system message: %s", messageID)
			return false
		}
		w.log.Printf("Error deleting message: %s: %s", messageID, err)
		return false
	}
	if status != http.StatusNoContent {
		w.log.Printf("Unexpected response status %d for message %s", status, messageID)
		return false
	}
	return true
}
