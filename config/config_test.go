/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sterrors "github.com/suparena/entityflow/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetEnv clears name for the duration of the test.
func unsetEnv(t *testing.T, name string) {
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func TestDefault(t *testing.T) {
	var cfg = Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 50, cfg.Batch.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Batch.IdleInterval)
	assert.Equal(t, QueueFIFO, cfg.Queue.Kind)
	assert.True(t, cfg.Queue.RunInTransaction)
	assert.False(t, cfg.Queue.CallbacksOnSameThread)
	assert.Zero(t, cfg.Cache.Size)
	assert.Equal(t, BackendDirect, cfg.Notify.Backend)
}

func TestLoadLayers(t *testing.T) {
	var path = writeFile(t, "entityflow.yaml", `
batch:
  threshold: 10
  idle_interval: 2s
queue:
  kind: priority
cache:
  size: 100
notify:
  backend: redis
  redis:
    address: redis:6379
`)
	var dotenv = writeFile(t, ".env", "ENTITYFLOW_REDIS_PASSWORD=from-dotenv\nENTITYFLOW_CACHE_SIZE=5\n")

	unsetEnv(t, "ENTITYFLOW_REDIS_PASSWORD")
	t.Setenv("ENTITYFLOW_CACHE_SIZE", "7")
	t.Setenv("ENTITYFLOW_QUEUE_CALLBACKS_ON_SAME_THREAD", "true")

	cfg, err := Load(path, dotenv)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Batch.Threshold)
	assert.Equal(t, 2*time.Second, cfg.Batch.IdleInterval)
	assert.Equal(t, QueuePriority, cfg.Queue.Kind)
	assert.True(t, cfg.Queue.RunInTransaction)
	assert.True(t, cfg.Queue.CallbacksOnSameThread)
	assert.Equal(t, "redis:6379", cfg.Notify.Redis.Address)
	assert.Equal(t, "from-dotenv", cfg.Notify.Redis.Password)
	// The process environment wins over .env.
	assert.Equal(t, 7, cfg.Cache.Size)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ENTITYFLOW_QUEUE_RUN_IN_TRANSACTION", "false")
	t.Setenv("ENTITYFLOW_NOTIFY_BACKEND", BackendDynamoDB)
	t.Setenv("ENTITYFLOW_DYNAMODB_TABLE", "changes")
	t.Setenv("ENTITYFLOW_DYNAMODB_POLL_INTERVAL", "250ms")
	t.Setenv("ENTITYFLOW_STORAGE_PATH", "file:test.db")
	t.Setenv("ENTITYFLOW_METRICS_ADDRESS", ":9191")
	unsetEnv(t, "ENTITYFLOW_BATCH_THRESHOLD")

	cfg, err := Load("", writeFile(t, ".env", ""))
	require.NoError(t, err)

	assert.False(t, cfg.Queue.RunInTransaction)
	assert.Equal(t, BackendDynamoDB, cfg.Notify.Backend)
	assert.Equal(t, "changes", cfg.Notify.DynamoDB.Table)
	assert.Equal(t, 250*time.Millisecond, cfg.Notify.DynamoDB.PollInterval)
	assert.Equal(t, "file:test.db", cfg.Storage.Path)
	assert.Equal(t, ":9191", cfg.Metrics.Address)
	// Unset variables keep the defaults.
	assert.Equal(t, 50, cfg.Batch.Threshold)
	assert.Equal(t, "us-east-1", cfg.Notify.DynamoDB.Region)
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("BadYAML", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "batch: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("BadEnvValue", func(t *testing.T) {
		t.Setenv("ENTITYFLOW_BATCH_THRESHOLD", "many")
		_, err := Load("")
		assert.True(t, sterrors.IsValidationError(err))
		assert.Contains(t, err.Error(), "batch.threshold")
	})
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		field  string
		mutate func(*Config)
	}{
		{"batch.threshold", func(c *Config) { c.Batch.Threshold = 0 }},
		{"batch.idle_interval", func(c *Config) { c.Batch.IdleInterval = -time.Second }},
		{"queue.kind", func(c *Config) { c.Queue.Kind = "lifo" }},
		{"cache.size", func(c *Config) { c.Cache.Size = -1 }},
		{"storage.path", func(c *Config) { c.Storage.Path = "" }},
		{"log.level", func(c *Config) { c.Log.Level = "chatty" }},
		{"notify.backend", func(c *Config) { c.Notify.Backend = "carrier-pigeon" }},
		{"notify.redis.address", func(c *Config) { c.Notify.Backend = BackendRedis; c.Notify.Redis.Address = "" }},
		{"notify.dynamodb.table", func(c *Config) { c.Notify.Backend = BackendDynamoDB }},
	} {
		t.Run(tc.field, func(t *testing.T) {
			var cfg = Default()
			tc.mutate(&cfg)

			var err = cfg.Validate()
			require.True(t, sterrors.IsValidationError(err))
			var verr *sterrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}
