// Package bg runs a task in background, so that the caller can stop it and
// wait for its completion.
package bg

import (
	"context"
	"errors"
	"sync"
)

// Task is the function that runs in background.  It must return when the
// context is cancelled.
type Task func(ctx context.Context) error

// StopFunc cancels the task and waits until it returns.  It returns the task
// error, cancellation is not considered an error.
type StopFunc func() error

type startOptions struct {
	ctx context.Context
}

// Option for Start.
type Option interface {
	apply(o *startOptions)
}

type fnOption func(o *startOptions)

func (f fnOption) apply(o *startOptions) {
	f(o)
}

// WithContext sets base context for the task.
func WithContext(ctx context.Context) Option {
	return fnOption(func(o *startOptions) {
		o.ctx = ctx
	})
}

// Start runs the task in a goroutine.  done is closed once the task returns.
func Start(task Task, options ...Option) (stop StopFunc, done <-chan struct{}) {
	opt := &startOptions{
		ctx: context.Background(),
	}
	for _, o := range options {
		o.apply(opt)
	}

	ctx, cancel := context.WithCancel(opt.ctx)

	doneC := make(chan struct{})
	errC := make(chan error, 1)
	go func() {
		err := task(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		close(doneC)
		errC <- err
	}()

	var (
		once   sync.Once
		result error
	)
	stopFn := func() error {
		cancel()
		once.Do(func() { result = <-errC })
		return result
	}
	return stopFn, doneC
}
