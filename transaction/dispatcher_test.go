/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storage/mock"
)

func TestDispatcherRunsInPostOrder(t *testing.T) {
	var d = NewDispatcher()
	var got []int
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		d.Post(func() {
			defer wg.Done()
			got = append(got, i)
		})
	}
	wg.Wait()
	d.Close()

	for i, v := range got {
		require.Equal(t, i, v)
	}

	// After Close, posted functions run on the caller.
	var ran bool
	d.Post(func() { ran = true })
	assert.True(t, ran)
	d.Close()
}

func TestDispatcherCloseDrains(t *testing.T) {
	var d = NewDispatcher()
	var n int
	var block = make(chan struct{})

	d.Post(func() { <-block })
	for i := 0; i < 10; i++ {
		d.Post(func() { n++ })
	}
	close(block)
	d.Close()
	assert.Equal(t, 10, n)
}

func TestProcessModels(t *testing.T) {
	var ctx = context.Background()
	var seen []string
	var progress [][2]int

	var op = ProcessModels([]string{"a", "b", "c"},
		func(ctx context.Context, conn storage.Connection, model string) error {
			seen = append(seen, model)
			return nil
		},
		func(current, total int, model string) { progress = append(progress, [2]int{current, total}) })

	require.NoError(t, ExecuteSync(ctx, mock.New(), New(op)))
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	var boom = errors.New("boom")
	var failing = ProcessModels([]int{1, 2, 3}, func(_ context.Context, _ storage.Connection, model int) error {
		if model == 2 {
			return boom
		}
		return nil
	}, nil)

	var err = failing(ctx, mock.New())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "processing model 2 of 3")
}
