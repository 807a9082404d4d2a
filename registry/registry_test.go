/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storagemodels"
)

type player struct{ name string }
type team struct{ name string }

func TestRegisterAndLookup(t *testing.T) {
	var r = New()
	require.NoError(t, Put[*player](r, "Player", "players-table"))
	require.NoError(t, Put[*team](r, "Team", 42))

	entry, err := r.Lookup("Player")
	require.NoError(t, err)
	assert.Equal(t, "players-table", entry)

	entry, err = r.LookupType(reflect.TypeOf(&team{}))
	require.NoError(t, err)
	assert.Equal(t, 42, entry)

	s, err := Get[*player, string](r)
	require.NoError(t, err)
	assert.Equal(t, "players-table", s)

	_, err = Get[*player, int](r)
	assert.ErrorIs(t, err, sterrors.ErrInvalidInput)

	assert.Equal(t, []storagemodels.EntityType{"Player", "Team"}, r.EntityTypes())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	var r = New()
	require.NoError(t, Put[*player](r, "Player", 1))

	assert.ErrorIs(t, Put[*player](r, "Other", 2), sterrors.ErrInvalidInput)
	assert.ErrorIs(t, Put[*team](r, "Player", 3), sterrors.ErrInvalidInput)
	assert.ErrorIs(t, Put[*team](r, "", 4), sterrors.ErrInvalidInput)
}

func TestLookupMissing(t *testing.T) {
	var r = New()

	_, err := r.Lookup("Player")
	assert.ErrorIs(t, err, sterrors.ErrNotRegistered)
	_, err = Get[*player, int](r)
	assert.ErrorIs(t, err, sterrors.ErrNotRegistered)
}

func TestUnregister(t *testing.T) {
	var r = New()
	require.NoError(t, Put[*player](r, "Player", 1))

	assert.True(t, r.Unregister("Player"))
	assert.False(t, r.Unregister("Player"))

	_, err := Get[*player, int](r)
	assert.ErrorIs(t, err, sterrors.ErrNotRegistered)
	require.NoError(t, Put[*player](r, "Player", 2))
}

func TestConcurrentLookups(t *testing.T) {
	var r = New()
	require.NoError(t, Put[*player](r, "Player", 1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := r.Lookup("Player")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
