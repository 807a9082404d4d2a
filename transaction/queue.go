/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/metrics"
	"github.com/suparena/entityflow/storage"
)

// Queue runs submitted units of work, one at a time, on a dedicated worker.
type Queue interface {
	// Add enqueues tx. Adding a unit which is already queued is a no-op.
	Add(tx *Transaction) error
	// Cancel removes tx if it is still queued, and reports whether it did.
	// A running unit cannot be cancelled.
	Cancel(tx *Transaction) bool
	// CancelByName cancels every queued unit named name and returns how many
	// were cancelled.
	CancelByName(name string) int
	// Start starts the worker. Work added before Start waits for it.
	Start(ctx context.Context)
	// Quit stops the worker after the unit it is running, if any, and waits
	// for pending callbacks. Units still queued are not run; they fail with
	// ErrQueueStopped. Quit must not be called from a callback of the queue.
	// Cancelling the context passed to Start has the same effect, except
	// that pending callbacks are not waited for.
	Quit()
	// Len returns the number of queued units.
	Len() int
}

// QueueOption configures a queue.
type QueueOption func(*queue)

// WithQueueName names the queue in logs and metrics.
func WithQueueName(name string) QueueOption {
	return func(q *queue) { q.name = name }
}

// WithCallbackExecutor sets the context callbacks are delivered in, for units
// not running callbacks on the worker. By default each queue delivers through
// its own Dispatcher.
func WithCallbackExecutor(fn CallbackExecutor) QueueOption {
	return func(q *queue) { q.post = fn }
}

// WithEscalator sets the handler of failures without an Error callback. The
// default is PanicEscalator.
func WithEscalator(fn Escalator) QueueOption {
	return func(q *queue) { q.escalate = fn }
}

// store orders queued units.
type store interface {
	push(tx *Transaction)
	pop() *Transaction
	remove(tx *Transaction) bool
	items() []*Transaction
	len() int
}

// NewFIFOQueue returns a Queue running units in arrival order.
func NewFIFOQueue(db storage.Database, opts ...QueueOption) Queue {
	return newQueue(db, new(fifoStore), "fifo", opts)
}

// NewPriorityQueue returns a Queue running higher priorities first, and units
// of equal priority in arrival order.
func NewPriorityQueue(db storage.Database, opts ...QueueOption) Queue {
	return newQueue(db, new(priorityStore), "priority", opts)
}

type queue struct {
	name     string
	db       storage.Database
	post     CallbackExecutor
	escalate Escalator

	mu         sync.Mutex
	store      store
	queued     map[*Transaction]struct{}
	started    bool
	stopped    bool
	quitting   bool
	dispatcher *Dispatcher

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newQueue(db storage.Database, s store, name string, opts []QueueOption) *queue {
	var q = &queue{
		name:     name,
		db:       db,
		escalate: PanicEscalator,
		store:    s,
		queued:   make(map[*Transaction]struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.post == nil {
		q.dispatcher = NewDispatcher()
		q.post = q.dispatcher.Post
	}
	return q
}

func (q *queue) Add(tx *Transaction) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return sterrors.ErrQueueStopped
	} else if _, ok := q.queued[tx]; ok {
		return nil
	} else if !tx.transition(StateCreated, StateQueued) {
		return errors.WithMessagef(sterrors.ErrInvalidInput, "transaction %s is %s", tx, tx.State())
	}

	q.queued[tx] = struct{}{}
	q.store.push(tx)
	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(q.store.len()))

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *queue) Cancel(tx *Transaction) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancelLocked(tx)
}

func (q *queue) CancelByName(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var n int
	for _, tx := range q.store.items() {
		if tx.name == name && q.cancelLocked(tx) {
			n++
		}
	}
	return n
}

func (q *queue) cancelLocked(tx *Transaction) bool {
	if _, ok := q.queued[tx]; !ok || !tx.transition(StateQueued, StateCancelled) {
		return false
	}
	delete(q.queued, tx)
	q.store.remove(tx)

	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(q.store.len()))
	metrics.TransactionsTotal.WithLabelValues(q.name, metrics.Cancelled).Inc()
	return true
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.len()
}

func (q *queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.quitting || q.stopped {
		return
	}
	q.started = true
	go q.serve(ctx)
}

func (q *queue) Quit() {
	q.mu.Lock()
	if q.quitting {
		q.mu.Unlock()
		return
	}
	q.quitting = true
	close(q.quit)
	var started = q.started
	q.mu.Unlock()

	if started {
		<-q.done
	} else {
		q.stop()
	}
	if q.dispatcher != nil {
		q.dispatcher.Close()
	}
}

// stop refuses further units and fails those still queued.
func (q *queue) stop() {
	q.mu.Lock()
	q.stopped = true
	var abandoned []*Transaction
	for q.store.len() != 0 {
		var tx = q.store.pop()
		delete(q.queued, tx)
		if tx.transition(StateQueued, StateFailed) {
			abandoned = append(abandoned, tx)
		}
	}
	metrics.QueueDepth.WithLabelValues(q.name).Set(0)
	q.mu.Unlock()

	for _, tx := range abandoned {
		metrics.TransactionsTotal.WithLabelValues(q.name, metrics.Fail).Inc()
		if tx.onError == nil {
			log.WithFields(log.Fields{
				"queue":       q.name,
				"transaction": tx.String(),
			}).Warn("queue stopped before transaction ran")
		}
		deliver(tx, sterrors.ErrQueueStopped, q.post, func(*Transaction, error) {})
	}
}

// next pops the next unit and marks it Running. It returns nil if the queue
// is empty.
func (q *queue) next() *Transaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.store.len() != 0 {
		var tx = q.store.pop()
		delete(q.queued, tx)
		metrics.QueueDepth.WithLabelValues(q.name).Set(float64(q.store.len()))

		// A unit run with ExecuteSync in the meantime is skipped.
		if tx.transition(StateQueued, StateRunning) {
			return tx
		}
	}
	return nil
}

func (q *queue) serve(ctx context.Context) {
	defer close(q.done)
	defer q.stop()

	for {
		select {
		case <-q.quit:
			return
		case <-ctx.Done():
			return
		default:
		}

		var tx = q.next()
		if tx == nil {
			select {
			case <-q.wake:
			case <-q.quit:
				return
			case <-ctx.Done():
				return
			}
			continue
		}
		q.run(ctx, tx)
	}
}

func (q *queue) run(ctx context.Context, tx *Transaction) {
	var started = time.Now()
	var err = execute(ctx, q.db, tx, q.post, q.escalate)
	metrics.TransactionDurationSeconds.WithLabelValues(q.name).Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(q.name, metrics.Fail).Inc()
		log.WithFields(log.Fields{
			"queue":       q.name,
			"transaction": tx.String(),
			"err":         err,
		}).Debug("transaction failed")
	} else {
		metrics.TransactionsTotal.WithLabelValues(q.name, metrics.Ok).Inc()
	}
}
