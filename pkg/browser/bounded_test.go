package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBounded(t *testing.T) {
	t.Run("returns the call's error", func(t *testing.T) {
		want := errors.New("detached")
		assert.Same(t, want, bounded(context.Background(), time.Second, func() error { return want }))
	})

	t.Run("abandons a stuck call", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		err := bounded(context.Background(), 20*time.Millisecond, func() error {
			<-release
			return nil
		})
		assert.ErrorIs(t, err, ErrDriverTimeout)
		assert.Less(t, time.Since(start), 20*time.Millisecond+boundSlack+100*time.Millisecond)
	})

	t.Run("recovers a panicking driver", func(t *testing.T) {
		err := bounded(context.Background(), time.Second, func() error { panic("nil page") })
		assert.ErrorContains(t, err, "driver panic: nil page")
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		release := make(chan struct{})
		defer close(release)

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := bounded(ctx, time.Minute, func() error {
			<-release
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBoundedValue(t *testing.T) {
	t.Run("returns the value", func(t *testing.T) {
		v, err := boundedValue(context.Background(), time.Second, func() (int, error) { return 7, nil }, nil)
		assert.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("discards a value that arrives late", func(t *testing.T) {
		release := make(chan struct{})
		discarded := make(chan int, 1)

		v, err := boundedValue(context.Background(), 10*time.Millisecond, func() (int, error) {
			<-release
			return 42, nil
		}, func(v int) { discarded <- v })
		assert.ErrorIs(t, err, ErrDriverTimeout)
		assert.Zero(t, v)

		close(release)
		select {
		case got := <-discarded:
			assert.Equal(t, 42, got)
		case <-time.After(time.Second):
			t.Fatal("late value was never discarded")
		}
	})

	t.Run("recovers a panicking driver", func(t *testing.T) {
		_, err := boundedValue(context.Background(), time.Second, func() (string, error) { panic("gone") }, nil)
		assert.ErrorContains(t, err, "driver panic: gone")
	})
}

func TestSleep(t *testing.T) {
	assert.NoError(t, sleep(context.Background(), 0))
	assert.NoError(t, sleep(context.Background(), 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Minute), context.Canceled)
}
