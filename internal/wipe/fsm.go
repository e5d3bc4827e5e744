package wipe

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

const (
	// events
	evStart       = "start"
	evFetched     = "fetched"
	evNothingToDo = "nothing_to_do"
	evConfirmed   = "confirmed"
	evCancelled   = "cancelled"
	evDeleted     = "deleted"
	evReset       = "reset"

	// states
	stIdle       = "idle"
	stFetching   = "fetching"
	stConfirming = "confirming"
	stDeleting   = "deleting"
	stDone       = "done"
	stNothing    = "nothing"
	stAborted    = "aborted"

	// metadata
	metaChannel  = "channel"
	metaMessages = "messages"
)

func (w *Wiper) initFSM() *fsm.FSM {
	return fsm.NewFSM(
		stIdle,
		fsm.Events{
			{Name: evStart, Src: []string{stIdle}, Dst: stFetching},
			{Name: evFetched, Src: []string{stFetching}, Dst: stConfirming},
			{Name: evNothingToDo, Src: []string{stFetching}, Dst: stNothing},
			{Name: evConfirmed, Src: []string{stConfirming}, Dst: stDeleting},
			{Name: evCancelled, Src: []string{stConfirming}, Dst: stAborted},
			{Name: evDeleted, Src: []string{stDeleting}, Dst: stDone},
			{Name: evReset, Src: []string{stFetching, stConfirming, stDeleting, stDone, stNothing, stAborted}, Dst: stIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				w.log.Debugf("*** transition: %q -> %q", e.Src, e.Dst)
			},
			"leave_" + stDeleting: w.cleanUp,
			"after_" + evCancelled: w.cleanUp,
			"after_" + evReset:     w.cleanUp,
		},
	)
}

func (w *Wiper) cleanUp(context.Context, *fsm.Event) {
	w.fsm.SetMetadata(metaChannel, nil)
	w.fsm.SetMetadata(metaMessages, nil)
}

// State returns the current state of the wiper.
func (w *Wiper) State() string {
	return w.fsm.Current()
}

// event sends an event to FSM.
func (w *Wiper) event(ctx context.Context, event string) error {
	if err := w.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%s: %w", event, err)
	}
	return nil
}

// reset returns the state machine to idle state, unless it's already there.
func (w *Wiper) reset(ctx context.Context) error {
	if w.fsm.Is(stIdle) {
		return nil
	}
	return w.event(ctx, evReset)
}

func metadata[T any](f *fsm.FSM, key string) (T, error) {
	var ret T
	val, ok := f.Metadata(key)
	if !ok || val == nil {
		return ret, fmt.Errorf("value of type %T not present in metadata", ret)
	}
	ret, ok = val.(T)
	if !ok {
		return ret, fmt.Errorf("invalid type (metadata: %T, want %T)", val, ret)
	}
	return ret, nil
}
