/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storage/mock"
	"github.com/suparena/entityflow/transaction"
)

type recordingFlusher struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (f *recordingFlusher) SaveAll(ctx context.Context, conn storage.Connection, models []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, append([]string(nil), models...))
	return len(models), nil
}

func (f *recordingFlusher) get() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

func newQueue(t *testing.T) transaction.Queue {
	var q = transaction.NewFIFOQueue(mock.New())
	q.Start(context.Background())
	t.Cleanup(q.Quit)
	return q
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestThresholdTriggersFlush(t *testing.T) {
	var f = new(recordingFlusher)
	var flushed = make(chan [2]int, 1)
	var acc = New[string](f, newQueue(t),
		WithThreshold(3),
		WithIdleInterval(time.Hour),
		WithSuccess(func(submitted, saved int) { flushed <- [2]int{submitted, saved} }),
	)
	acc.Start(context.Background())
	defer acc.Quit()

	acc.AddAll([]string{"a", "b", "c"})
	assert.Equal(t, 3, acc.Len())
	acc.Add("d")

	assert.Equal(t, [2]int{4, 4}, receive(t, flushed))
	assert.Equal(t, [][]string{{"a", "b", "c", "d"}}, f.get())
	assert.Zero(t, acc.Len())
}

func TestIdleIntervalFlushesOnce(t *testing.T) {
	var f = new(recordingFlusher)
	var flushed = make(chan int, 8)
	var empty = make(chan struct{}, 8)
	var acc = New[string](f, newQueue(t),
		WithIdleInterval(20*time.Millisecond),
		WithSuccess(func(submitted, _ int) { flushed <- submitted }),
		WithEmptyFlush(func() { empty <- struct{}{} }),
	)
	acc.AddAll([]string{"a", "b"})
	acc.Start(context.Background())

	assert.Equal(t, 2, receive(t, flushed))
	// Later wakes find nothing to flush.
	receive(t, empty)
	receive(t, empty)
	acc.Quit()

	assert.Len(t, f.get(), 1)
	assert.Empty(t, flushed)
}

func TestPurgeFlushesImmediately(t *testing.T) {
	var f = new(recordingFlusher)
	var flushed = make(chan int, 1)
	var acc = New[string](f, newQueue(t),
		WithIdleInterval(time.Hour),
		WithSuccess(func(submitted, _ int) { flushed <- submitted }),
	)
	acc.Start(context.Background())
	defer acc.Quit()

	acc.Add("a")
	acc.Purge()
	assert.Equal(t, 1, receive(t, flushed))
}

func TestRemoveBufferedRecords(t *testing.T) {
	var f = new(recordingFlusher)
	var flushed = make(chan int, 1)
	var acc = New[string](f, newQueue(t),
		WithIdleInterval(time.Hour),
		WithSuccess(func(submitted, _ int) { flushed <- submitted }),
	)
	acc.AddAll([]string{"a", "b", "a", "c"})
	assert.True(t, acc.Remove("a"))
	assert.False(t, acc.Remove("z"))
	assert.Equal(t, 1, acc.RemoveAll([]string{"c", "y"}))
	assert.Equal(t, 2, acc.Len())

	acc.Start(context.Background())
	defer acc.Quit()
	acc.Purge()

	assert.Equal(t, 2, receive(t, flushed))
	assert.Equal(t, [][]string{{"b", "a"}}, f.get())
}

func TestFailedFlushReportsError(t *testing.T) {
	var boom = errors.New("disk full")
	var f = &recordingFlusher{err: boom}
	var failed = make(chan error, 1)
	var acc = New[string](f, newQueue(t),
		WithName("players"),
		WithIdleInterval(time.Hour),
		WithError(func(err error) { failed <- err }),
	)
	acc.Start(context.Background())
	defer acc.Quit()

	acc.Add("a")
	acc.Purge()
	assert.ErrorIs(t, receive(t, failed), boom)
}

func TestSubmitFailureReportsError(t *testing.T) {
	var q = transaction.NewFIFOQueue(mock.New())
	q.Quit()

	var failed = make(chan error, 1)
	var acc = New[string](new(recordingFlusher), q,
		WithIdleInterval(time.Hour),
		WithError(func(err error) { failed <- err }),
	)
	acc.Start(context.Background())
	defer acc.Quit()

	acc.Add("a")
	acc.Purge()
	require.Error(t, receive(t, failed))
}

func TestQuitLeavesBufferUnflushed(t *testing.T) {
	var f = new(recordingFlusher)
	var acc = New[string](f, newQueue(t), WithIdleInterval(time.Hour))

	acc.Quit()
	acc.Quit()
	acc.Start(context.Background())
	acc.Add("a")

	assert.Equal(t, 1, acc.Len())
	assert.Empty(t, f.get())
}
