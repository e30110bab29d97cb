// Package race combines concurrent attempts at the same value.
package race

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoResult is returned when every attempt failed.
var ErrNoResult = errors.New("race: no attempt succeeded")

// Attempt produces a value or an error. A malformed value must be reported
// as an error; the combinator treats every nil error as success.
type Attempt[T any] func(ctx context.Context) (T, error)

// Result is the winning value and the index of the attempt that produced it.
// Late is set when the value was chosen after the grace window elapsed.
type Result[T any] struct {
	Value T
	Index int
	Late  bool
}

type outcome[T any] struct {
	idx int
	val T
	err error
}

// FirstSuccessful runs every attempt concurrently.
//
// Within the grace window the first attempt to succeed wins. After the grace
// window it waits for the attempts to settle and returns the successful
// attempt with the lowest index, so attempts are listed in order of
// preference. The grace window is a soft deadline: attempts are never
// cancelled by the combinator and losers keep running to completion.
func FirstSuccessful[T any](ctx context.Context, grace time.Duration, attempts ...Attempt[T]) (Result[T], error) {
	var zero Result[T]
	if len(attempts) == 0 {
		return zero, ErrNoResult
	}

	// Buffered so late finishers never block once nobody is listening.
	ch := make(chan outcome[T], len(attempts))
	for i, attempt := range attempts {
		go func() {
			v, err := attempt(ctx)
			ch <- outcome[T]{idx: i, val: v, err: err}
		}()
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	settled := make([]*outcome[T], len(attempts))
	pending := len(attempts)
	expired := false

	for pending > 0 {
		select {
		case o := <-ch:
			pending--
			settled[o.idx] = &o
			if o.err == nil && !expired {
				return Result[T]{Value: o.val, Index: o.idx}, nil
			}
			if expired {
				if r, ok := preferred(settled); ok {
					return r, nil
				}
			}
		case <-timer.C:
			expired = true
			if r, ok := preferred(settled); ok {
				return r, nil
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	if r, ok := preferred(settled); ok {
		return r, nil
	}
	return zero, noResult(settled)
}

// preferred returns the lowest-index success once every attempt ahead of it
// has settled as a failure.
func preferred[T any](settled []*outcome[T]) (Result[T], bool) {
	for _, o := range settled {
		if o == nil {
			return Result[T]{}, false
		}
		if o.err == nil {
			return Result[T]{Value: o.val, Index: o.idx, Late: true}, true
		}
	}
	return Result[T]{}, false
}

func noResult[T any](settled []*outcome[T]) error {
	errs := []error{ErrNoResult}
	for _, o := range settled {
		if o != nil && o.err != nil {
			errs = append(errs, fmt.Errorf("attempt %d: %w", o.idx, o.err))
		}
	}
	return errors.Join(errs...)
}
