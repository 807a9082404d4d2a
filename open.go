/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityflow

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/batch"
	"github.com/suparena/entityflow/config"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/notify/ddbjournal"
	"github.com/suparena/entityflow/notify/redisbus"
	"github.com/suparena/entityflow/storage/sqlite"
	"github.com/suparena/entityflow/storagemodels"
	"github.com/suparena/entityflow/transaction"
)

// Open opens the sqlite database and notifier backend described by cfg,
// executes bootstrapSQL, and returns a Database configured by cfg. Further
// opts are applied after those derived from cfg.
func Open(ctx context.Context, cfg config.Config, bootstrapSQL []string, opts ...Option) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, cfg.Storage.Path, bootstrapSQL...)
	if err != nil {
		return nil, err
	}
	notifier, closer, err := openNotifier(ctx, cfg.Notify)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var all = []Option{
		WithNotifier(notifier),
		WithCacheSize(cfg.Cache.Size),
		WithTransactionDefaults(
			transaction.WithRunInTransaction(cfg.Queue.RunInTransaction),
			transaction.WithCallbacksOnSameThread(cfg.Queue.CallbacksOnSameThread),
		),
		WithBatchDefaults(
			batch.WithThreshold(cfg.Batch.Threshold),
			batch.WithIdleInterval(cfg.Batch.IdleInterval),
		),
		WithQueueOptions(transaction.WithQueueName(cfg.Queue.Kind)),
	}
	if cfg.Queue.Kind == config.QueuePriority {
		all = append(all, WithPriorityQueue())
	}
	if closer != nil {
		all = append(all, WithCloser(closer))
	}

	log.WithFields(log.Fields{
		"storage": cfg.Storage.Path,
		"queue":   cfg.Queue.Kind,
		"notify":  cfg.Notify.Backend,
	}).Info("opened entityflow database")
	return New(store, append(all, opts...)...), nil
}

// openNotifier returns the notifier for cfg and the closer of its transport,
// if it has one.
func openNotifier(ctx context.Context, cfg config.Notify) (notify.Notifier, func() error, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return notify.NewBroadcastNotifier(notify.NewLocalBus()), nil, nil

	case config.BackendRedis:
		var opts = redisbus.DefaultOptions()
		opts.Address = cfg.Redis.Address
		opts.Password = cfg.Redis.Password
		opts.DB = cfg.Redis.DB

		var bus = redisbus.New(opts)
		return notify.NewBroadcastNotifier(bus), bus.Close, nil

	case config.BackendDynamoDB:
		client, err := ddbjournal.NewDynamoDBClient(ctx, cfg.DynamoDB.AccessKey, cfg.DynamoDB.SecretKey, cfg.DynamoDB.Region)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "opening change journal")
		}
		var journal = ddbjournal.New(client, cfg.DynamoDB.Table, storagemodels.WithPollInterval(cfg.DynamoDB.PollInterval))
		return notify.NewBroadcastNotifier(journal), nil, nil

	default:
		return notify.NewDirectNotifier(), nil, nil
	}
}
