/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redisbus

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/storagemodels"
)

type fakeClient struct {
	failures  int
	published []string
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.failures > 0 {
		f.failures--
		return redis.NewIntResult(0, errors.New("connection reset"))
	}
	f.published = append(f.published, channel+" "+message.(string))
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	panic("not used")
}

func TestPublishRetries(t *testing.T) {
	var client = &fakeClient{failures: 2}
	var opts = DefaultOptions()
	opts.RetryBackoff = time.Millisecond
	var bus = NewWithClient(client, opts)

	require.NoError(t, bus.Publish(context.Background(), "entityflow.User", "payload"))
	assert.Equal(t, []string{"entityflow.User payload"}, client.published)
}

func TestPublishGivesUp(t *testing.T) {
	var client = &fakeClient{failures: 10}
	var opts = DefaultOptions()
	opts.MaxRetries = 1
	opts.RetryBackoff = time.Millisecond
	var bus = NewWithClient(client, opts)

	var err = bus.Publish(context.Background(), "entityflow.User", "payload")
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, client.published)
	assert.Equal(t, 8, client.failures)
}

// TestBroadcastOverRedis requires a reachable Redis at ENTITYFLOW_TEST_REDIS.
func TestBroadcastOverRedis(t *testing.T) {
	var addr = os.Getenv("ENTITYFLOW_TEST_REDIS")
	if testing.Short() || addr == "" {
		t.Skip("Skipping integration test")
	}
	var opts = DefaultOptions()
	opts.Address = addr

	var n = notify.NewBroadcastNotifier(New(opts))
	var got = make(chan storagemodels.Change, 1)
	var reg = n.NewRegistration()
	reg.SetListener(notify.ListenerFuncs{Model: func(c storagemodels.Change) { got <- c }})
	require.NoError(t, reg.Register("User"))
	defer reg.UnregisterAll()

	n.NotifyModelChanged(context.Background(), nil, "User",
		[]storagemodels.Condition{{Column: "id", Value: 9}}, storagemodels.ActionInsert)

	select {
	case c := <-got:
		assert.Equal(t, storagemodels.ActionInsert, c.Action)
		assert.Equal(t, []storagemodels.Condition{{Column: "id", Value: "9"}}, c.Conditions)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
