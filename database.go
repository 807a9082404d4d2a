/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityflow

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/batch"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/registry"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
	"github.com/suparena/entityflow/transaction"
)

// Database is the context a set of tables is persisted through. It owns the
// storage, the change notifier, the default transaction queue and the table
// registry.
type Database struct {
	store    storage.Database
	notifier notify.Notifier
	queue    transaction.Queue
	registry *registry.Registry

	cacheSize int
	defaults  []transaction.Option
	batching  []batch.Option
	closers   []func() error

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Database.
type Option func(*settings)

type settings struct {
	notifier  notify.Notifier
	priority  bool
	queueOpts []transaction.QueueOption
	cacheSize int
	defaults  []transaction.Option
	batching  []batch.Option
	closers   []func() error
}

// WithNotifier sets the change notifier. The default is a DirectNotifier.
func WithNotifier(n notify.Notifier) Option {
	return func(s *settings) { s.notifier = n }
}

// WithPriorityQueue makes the default queue order units by priority instead
// of arrival.
func WithPriorityQueue() Option {
	return func(s *settings) { s.priority = true }
}

// WithQueueOptions configures the default queue.
func WithQueueOptions(opts ...transaction.QueueOption) Option {
	return func(s *settings) { s.queueOpts = append(s.queueOpts, opts...) }
}

// WithCacheSize bounds the model cache of every table registered afterwards.
// Zero leaves caches unbounded.
func WithCacheSize(n int) Option {
	return func(s *settings) { s.cacheSize = n }
}

// WithTransactionDefaults sets options applied to every unit built by
// NewTransaction, ahead of its own options.
func WithTransactionDefaults(opts ...transaction.Option) Option {
	return func(s *settings) { s.defaults = append(s.defaults, opts...) }
}

// WithBatchDefaults sets options applied to every accumulator built by
// NewAccumulator, ahead of its own options.
func WithBatchDefaults(opts ...batch.Option) Option {
	return func(s *settings) { s.batching = append(s.batching, opts...) }
}

// WithCloser registers fn to run when the Database closes, after the queue
// stopped and before the storage closes.
func WithCloser(fn func() error) Option {
	return func(s *settings) { s.closers = append(s.closers, fn) }
}

// New returns a Database persisting through store. Call Start to begin
// running submitted units.
func New(store storage.Database, opts ...Option) *Database {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewDirectNotifier()
	}

	var queue transaction.Queue
	if s.priority {
		queue = transaction.NewPriorityQueue(store, s.queueOpts...)
	} else {
		queue = transaction.NewFIFOQueue(store, s.queueOpts...)
	}

	return &Database{
		store:     store,
		notifier:  s.notifier,
		queue:     queue,
		registry:  registry.New(),
		cacheSize: s.cacheSize,
		defaults:  s.defaults,
		batching:  s.batching,
		closers:   s.closers,
	}
}

func (db *Database) Storage() storage.Database { return db.store }
func (db *Database) Notifier() notify.Notifier { return db.notifier }
func (db *Database) Queue() transaction.Queue { return db.queue }
func (db *Database) Registry() *registry.Registry { return db.registry }

// Start starts the default queue.
func (db *Database) Start(ctx context.Context) { db.queue.Start(ctx) }

// Close stops the default queue, runs registered closers and closes the
// storage. Units still queued are not run.
func (db *Database) Close() error {
	db.closeOnce.Do(func() {
		db.queue.Quit()

		for _, fn := range db.closers {
			if err := fn(); err != nil {
				log.WithField("err", err).Warn("closing entityflow resource")
				if db.closeErr == nil {
					db.closeErr = err
				}
			}
		}
		if err := db.store.Close(); err != nil && db.closeErr == nil {
			db.closeErr = errors.WithMessage(err, "closing storage")
		}
	})
	return db.closeErr
}

// NewTransaction builds a unit running op, with the Database's defaults.
func (db *Database) NewTransaction(op transaction.Operation, opts ...transaction.Option) *transaction.Transaction {
	var all = make([]transaction.Option, 0, len(db.defaults)+len(opts))
	all = append(all, db.defaults...)
	return transaction.New(op, append(all, opts...)...)
}

// Submit enqueues tx on the default queue.
func (db *Database) Submit(tx *transaction.Transaction) error {
	return db.queue.Add(tx)
}

// Execute builds a unit running op and enqueues it, returning its handle.
func (db *Database) Execute(op transaction.Operation, opts ...transaction.Option) (*transaction.Transaction, error) {
	var tx = db.NewTransaction(op, opts...)
	if err := db.Submit(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// RunNow executes tx on the calling goroutine, bypassing the queue.
func (db *Database) RunNow(ctx context.Context, tx *transaction.Transaction) error {
	return transaction.ExecuteSync(ctx, db.store, tx)
}

// Cancel removes tx from the default queue if it has not started.
func (db *Database) Cancel(tx *transaction.Transaction) bool { return db.queue.Cancel(tx) }

// CancelByName cancels every queued unit named name.
func (db *Database) CancelByName(name string) int { return db.queue.CancelByName(name) }

// InBatch runs fn with individual change notifications suppressed. When fn
// returns, changes are delivered, or if none are given, one table-level
// ActionChange per entity type touched while fn ran.
func (db *Database) InBatch(ctx context.Context, fn func() error, changes ...storagemodels.Change) error {
	db.notifier.BeginBatch()
	defer db.notifier.EndBatch(ctx, changes...)
	return fn()
}

// Subscribe registers listener for changes of entityTypes.
func Subscribe(db *Database, listener notify.Listener, entityTypes ...storagemodels.EntityType) (notify.Registration, error) {
	var reg = db.notifier.NewRegistration()
	reg.SetListener(listener)

	for _, t := range entityTypes {
		if err := reg.Register(t); err != nil {
			reg.UnregisterAll()
			return nil, errors.WithMessagef(err, "subscribing to %s", t)
		}
	}
	return reg, nil
}
