/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityflow"
	"github.com/suparena/entityflow/batch"
	"github.com/suparena/entityflow/config"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
	"github.com/suparena/entityflow/testmodels"
	"github.com/suparena/entityflow/transaction"
)

func open(t *testing.T, mutate func(*config.Config), opts ...entityflow.Option) *entityflow.Database {
	t.Helper()
	var cfg = config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	db, err := entityflow.Open(context.Background(), cfg, []string{testmodels.Schema}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func players(t *testing.T, db *entityflow.Database) *entityflow.Table[*testmodels.Player] {
	t.Helper()
	table, err := entityflow.Register[*testmodels.Player](db, testmodels.PlayerAdapter{})
	require.NoError(t, err)
	return table
}

func countRows(t *testing.T, db *entityflow.Database, table string) int64 {
	t.Helper()
	cur, err := db.Storage().RawQuery(context.Background(), "SELECT COUNT(*) FROM "+table)
	require.NoError(t, err)
	defer cur.Close()

	var n int64
	require.True(t, cur.Next())
	require.NoError(t, cur.Scan(&n))
	return n
}

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

type recorder struct {
	mu     sync.Mutex
	models []storagemodels.Change
	tables []storagemodels.Change
}

func (r *recorder) listener() notify.Listener {
	return notify.ListenerFuncs{
		Model: func(c storagemodels.Change) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.models = append(r.models, c)
		},
		Table: func(entityType storagemodels.EntityType, action storagemodels.Action) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.tables = append(r.tables, storagemodels.Change{EntityType: entityType, Action: action})
		},
	}
}

func (r *recorder) modelActions() []storagemodels.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storagemodels.Action
	for _, c := range r.models {
		out = append(out, c.Action)
	}
	return out
}

func TestSaveThroughQueue(t *testing.T) {
	var db = open(t, nil)
	var table = players(t, db)
	var seen = new(recorder)
	_, err := entityflow.Subscribe(db, seen.listener(), testmodels.PlayerType)
	require.NoError(t, err)
	db.Start(context.Background())

	var player = &testmodels.Player{Name: "ada", Rating: 1500}
	var done = make(chan struct{})
	_, err = table.SaveAsync(player,
		transaction.WithName("save-ada"),
		transaction.WithCompletion(func(*transaction.Transaction) { close(done) }),
	)
	require.NoError(t, err)
	wait(t, done)

	assert.NotZero(t, player.ID)
	cached, ok := table.Cached(player.ID)
	require.True(t, ok)
	assert.Same(t, player, cached)
	assert.EqualValues(t, 1, countRows(t, db, "players"))
	assert.Equal(t, []storagemodels.Action{storagemodels.ActionInsert, storagemodels.ActionChange}, seen.modelActions())

	done = make(chan struct{})
	_, err = table.DeleteAsync(player,
		transaction.WithCompletion(func(*transaction.Transaction) { close(done) }))
	require.NoError(t, err)
	wait(t, done)

	_, ok = table.Cached(int64(1))
	assert.False(t, ok)
	assert.Zero(t, player.ID)
	assert.Zero(t, countRows(t, db, "players"))
}

func TestDeleteMissingRowFails(t *testing.T) {
	var db = open(t, nil)
	var table = players(t, db)

	var failed error
	var tx = db.NewTransaction(func(ctx context.Context, conn storage.Connection) error {
		ok, err := table.Delete(ctx, conn, &testmodels.Player{ID: 42})
		if err == nil && !ok {
			err = sterrors.NewSaveFailedError(testmodels.PlayerType, storagemodels.ActionDelete)
		}
		return err
	}, transaction.WithError(func(_ *transaction.Transaction, err error) { failed = err }))

	assert.True(t, sterrors.IsSaveFailed(db.RunNow(context.Background(), tx)))
	assert.True(t, sterrors.IsSaveFailed(failed))
}

func TestSaveAllAsyncRollsBackOnFailure(t *testing.T) {
	var db = open(t, nil)
	var table = players(t, db)
	db.Start(context.Background())

	var failed = make(chan error, 1)
	var progressed []int
	_, err := table.SaveAllAsync(
		[]*testmodels.Player{{Name: "ada"}, {Name: "grace"}, {Name: "ada"}},
		func(current, total int, _ *testmodels.Player) { progressed = append(progressed, current) },
		transaction.WithError(func(_ *transaction.Transaction, err error) { failed <- err }),
	)
	require.NoError(t, err)

	select {
	case err = <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	assert.Contains(t, err.Error(), "processing model 3 of 3")
	assert.Equal(t, []int{1, 2}, progressed)
	assert.Zero(t, countRows(t, db, "players"))
	assert.Zero(t, table.Cache().Len())
}

func TestRegistration(t *testing.T) {
	var db = open(t, nil)
	var table = players(t, db)

	got, err := entityflow.TableOf[*testmodels.Player](db)
	require.NoError(t, err)
	assert.Same(t, table, got)

	byType, err := entityflow.TableFor(db, testmodels.PlayerType)
	require.NoError(t, err)
	assert.Same(t, table, byType)

	_, err = entityflow.Register[*testmodels.Player](db, testmodels.PlayerAdapter{})
	assert.ErrorIs(t, err, sterrors.ErrInvalidInput)

	_, err = entityflow.TableOf[*testmodels.RatingSystem](db)
	assert.ErrorIs(t, err, sterrors.ErrNotRegistered)
	_, err = entityflow.TableFor(db, testmodels.RatingSystemType)
	assert.ErrorIs(t, err, sterrors.ErrNotRegistered)
}

func TestDeleteCascadeEvictsChildren(t *testing.T) {
	var ctx = context.Background()
	var db = open(t, nil)
	records, err := entityflow.Register[*testmodels.RatingRecord](db, &testmodels.RatingRecordAdapter{})
	require.NoError(t, err)
	systems, err := entityflow.Register[*testmodels.RatingSystem](db, testmodels.RatingSystemAdapter{Records: records})
	require.NoError(t, err)

	var elo = &testmodels.RatingSystem{ID: "elo", Name: "Elo"}
	var record = &testmodels.RatingRecord{SystemID: "elo", PlayerID: 1, Score: 1500}
	require.NoError(t, db.RunNow(ctx, db.NewTransaction(func(ctx context.Context, conn storage.Connection) error {
		if _, err := systems.Save(ctx, conn, elo); err != nil {
			return err
		}
		_, err := records.Save(ctx, conn, record)
		return err
	})))
	require.Equal(t, 1, records.Cache().Len())

	var seen = new(recorder)
	_, err = entityflow.Subscribe(db, seen.listener(), testmodels.RatingRecordType)
	require.NoError(t, err)

	require.NoError(t, db.RunNow(ctx, db.NewTransaction(func(ctx context.Context, conn storage.Connection) error {
		_, err := systems.Delete(ctx, conn, elo)
		return err
	})))

	assert.EqualValues(t, 0, countRows(t, db, "rating_records"))
	assert.Zero(t, records.Cache().Len())
	_, ok := records.Cached(records.CacheKeyOf(record))
	assert.False(t, ok)
	assert.Equal(t, []storagemodels.Action{storagemodels.ActionDelete}, seen.modelActions())
}

func TestTableCacheSize(t *testing.T) {
	var db = open(t, func(c *config.Config) { c.Cache.Size = 2 })
	var bounded = players(t, db)
	systems, err := entityflow.Register[*testmodels.RatingSystem](db, testmodels.RatingSystemAdapter{},
		entityflow.WithTableCacheSize(0))
	require.NoError(t, err)

	require.NoError(t, db.RunNow(context.Background(), db.NewTransaction(func(ctx context.Context, conn storage.Connection) error {
		for _, name := range []string{"a", "b", "c"} {
			if _, err := bounded.Save(ctx, conn, &testmodels.Player{Name: name}); err != nil {
				return err
			}
		}
		for _, id := range []string{"elo", "glicko", "trueskill"} {
			if _, err := systems.Save(ctx, conn, &testmodels.RatingSystem{ID: id, Name: id}); err != nil {
				return err
			}
		}
		return nil
	})))

	assert.Equal(t, 2, bounded.Cache().Len())
	assert.Equal(t, 3, systems.Cache().Len())
}

func TestNotificationSuppressionInBatch(t *testing.T) {
	var ctx = context.Background()
	var db = open(t, nil)
	var table = players(t, db)
	var seen = new(recorder)
	_, err := entityflow.Subscribe(db, seen.listener(), testmodels.PlayerType)
	require.NoError(t, err)

	var player = &testmodels.Player{Name: "ada"}
	var run = func(op func(ctx context.Context, conn storage.Connection) error) error {
		return db.RunNow(ctx, db.NewTransaction(op))
	}

	require.NoError(t, db.InBatch(ctx, func() error {
		if err := run(func(ctx context.Context, conn storage.Connection) error {
			_, err := table.Insert(ctx, conn, player)
			return err
		}); err != nil {
			return err
		}
		player.Rating = 1600
		if err := run(func(ctx context.Context, conn storage.Connection) error {
			return table.UpdateOrFail(ctx, conn, player)
		}); err != nil {
			return err
		}
		return run(func(ctx context.Context, conn storage.Connection) error {
			_, err := table.Delete(ctx, conn, player)
			return err
		})
	}))

	assert.Empty(t, seen.models)
	assert.Equal(t, []storagemodels.Change{{EntityType: testmodels.PlayerType, Action: storagemodels.ActionChange}}, seen.tables)
}

func TestBatchEndsOnError(t *testing.T) {
	var db = open(t, nil)
	var seen = new(recorder)
	_, err := entityflow.Subscribe(db, seen.listener(), testmodels.PlayerType)
	require.NoError(t, err)

	var boom = errors.New("boom")
	var requested = storagemodels.Change{EntityType: testmodels.PlayerType, Action: storagemodels.ActionUpdate}
	assert.ErrorIs(t, db.InBatch(context.Background(), func() error { return boom }, requested), boom)

	// The suppression toggle was released.
	db.Notifier().NotifyTableChanged(context.Background(), testmodels.PlayerType, storagemodels.ActionInsert)
	assert.Equal(t, []storagemodels.Change{
		requested,
		{EntityType: testmodels.PlayerType, Action: storagemodels.ActionInsert},
	}, seen.tables)
}

func TestAccumulatorThroughDatabase(t *testing.T) {
	var db = open(t, func(c *config.Config) { c.Batch.Threshold = 2 })
	var table = players(t, db)
	db.Start(context.Background())

	var flushed = make(chan [2]int, 1)
	var acc = entityflow.NewAccumulator(table,
		batch.WithName("players"),
		batch.WithSuccess(func(submitted, saved int) { flushed <- [2]int{submitted, saved} }),
	)
	acc.Start(context.Background())
	defer acc.Quit()

	acc.AddAll([]*testmodels.Player{{Name: "ada"}, {Name: "grace"}, {Name: "ada"}})

	select {
	case got := <-flushed:
		assert.Equal(t, [2]int{3, 2}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	assert.EqualValues(t, 2, countRows(t, db, "players"))
	assert.Equal(t, 2, table.Cache().Len())
}

func TestPriorityQueueFromConfig(t *testing.T) {
	var db = open(t, func(c *config.Config) { c.Queue.Kind = config.QueuePriority })

	var mu sync.Mutex
	var order []string
	var done = make(chan struct{})
	var submit = func(name string, p transaction.Priority, opts ...transaction.Option) {
		opts = append(opts, transaction.WithName(name), transaction.WithPriority(p))
		_, err := db.Execute(func(context.Context, storage.Connection) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}, opts...)
		require.NoError(t, err)
	}
	submit("low", transaction.PriorityLow, transaction.WithCompletion(func(*transaction.Transaction) { close(done) }))
	submit("high", transaction.PriorityHigh)
	submit("normal", transaction.PriorityNormal)

	db.Start(context.Background())
	wait(t, done)
	assert.Equal(t, []string{"high", "normal", "low"}, order)
}

func TestCancelThroughDatabase(t *testing.T) {
	var db = open(t, nil)
	var ran bool
	var op = func(context.Context, storage.Connection) error { ran = true; return nil }

	a, err := db.Execute(op, transaction.WithName("sync"))
	require.NoError(t, err)
	_, err = db.Execute(op, transaction.WithName("sync"))
	require.NoError(t, err)
	b, err := db.Execute(op)
	require.NoError(t, err)

	assert.Equal(t, 2, db.CancelByName("sync"))
	assert.True(t, db.Cancel(b))
	assert.Equal(t, transaction.StateCancelled, a.State())
	assert.Zero(t, db.Queue().Len())

	require.NoError(t, db.Close())
	assert.False(t, ran)
	assert.ErrorIs(t, db.Submit(db.NewTransaction(op)), sterrors.ErrQueueStopped)
}

func TestBroadcastBackend(t *testing.T) {
	var db = open(t, func(c *config.Config) { c.Notify.Backend = config.BackendLocal })
	var table = players(t, db)
	var seen = new(recorder)
	_, err := entityflow.Subscribe(db, seen.listener(), testmodels.PlayerType)
	require.NoError(t, err)

	var player = &testmodels.Player{Name: "ada"}
	require.NoError(t, db.RunNow(context.Background(), db.NewTransaction(func(ctx context.Context, conn storage.Connection) error {
		_, err := table.Save(ctx, conn, player)
		return err
	})))

	seen.mu.Lock()
	defer seen.mu.Unlock()
	require.Len(t, seen.models, 2)
	assert.Nil(t, seen.models[0].Model)
	assert.Equal(t, storagemodels.ActionInsert, seen.models[0].Action)
	assert.Equal(t, []storagemodels.Condition{{Column: "id", Value: "1"}}, seen.models[0].Conditions)
}

func TestCloseRunsClosers(t *testing.T) {
	var closed int
	var db = open(t, nil, entityflow.WithCloser(func() error { closed++; return nil }))

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
	assert.Equal(t, 1, closed)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	var cfg = config.Default()
	cfg.Queue.Kind = "lifo"

	_, err := entityflow.Open(context.Background(), cfg, nil)
	assert.True(t, sterrors.IsValidationError(err))
}
