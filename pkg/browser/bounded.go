package browser

import (
	"context"
	"fmt"
	"time"
)

// boundSlack lets the driver's own timeout fire first; the guard only
// trips when the driver itself is stuck.
const boundSlack = 250 * time.Millisecond

// bounded runs fn and gives up after timeout+boundSlack or when ctx ends.
// A stuck fn is abandoned: its goroutine finishes whenever the driver
// returns and its result is dropped.
func bounded(ctx context.Context, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("driver panic: %v", r)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(timeout + boundSlack)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrDriverTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

type boundedResult[T any] struct {
	value T
	err   error
}

// boundedValue is bounded for driver calls that create something. When the
// caller gives up, a value that still arrives later is passed to discard.
func boundedValue[T any](ctx context.Context, timeout time.Duration, fn func() (T, error), discard func(T)) (T, error) {
	done := make(chan boundedResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- boundedResult[T]{err: fmt.Errorf("driver panic: %v", r)}
			}
		}()
		v, err := fn()
		done <- boundedResult[T]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout + boundSlack)
	defer timer.Stop()

	abandon := func(reason error) (T, error) {
		go func() {
			if r := <-done; r.err == nil && discard != nil {
				discard(r.value)
			}
		}()
		var zero T
		return zero, reason
	}

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return abandon(fmt.Errorf("%w after %v", ErrDriverTimeout, timeout))
	case <-ctx.Done():
		return abandon(ctx.Err())
	}
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
