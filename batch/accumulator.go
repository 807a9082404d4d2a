/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/metrics"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/transaction"
)

const (
	// DefaultThreshold is the buffer size beyond which a flush starts at once.
	DefaultThreshold = 50
	// DefaultIdleInterval is the longest a record waits in the buffer.
	DefaultIdleInterval = 30 * time.Second
)

// Flusher persists a batch of records and returns how many succeeded.
// executor.ModelSaver implements it.
type Flusher[T any] interface {
	SaveAll(ctx context.Context, conn storage.Connection, models []T) (int, error)
}

// Submitter runs units of work. transaction.Queue implements it.
type Submitter interface {
	Add(tx *transaction.Transaction) error
}

// Option configures an Accumulator.
type Option func(*settings)

type settings struct {
	name      string
	threshold int
	idle      time.Duration
	onSuccess func(submitted, saved int)
	onError   func(err error)
	onEmpty   func()
}

// WithName names the accumulator in logs, metrics and the units it submits.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithThreshold sets the buffer size beyond which a flush starts at once.
func WithThreshold(n int) Option {
	return func(s *settings) { s.threshold = n }
}

// WithIdleInterval sets how long the worker waits between flushes.
func WithIdleInterval(d time.Duration) Option {
	return func(s *settings) { s.idle = d }
}

// WithSuccess sets a callback receiving the size of each committed batch and
// the number of its records which were saved.
func WithSuccess(fn func(submitted, saved int)) Option {
	return func(s *settings) { s.onSuccess = fn }
}

// WithError sets a callback receiving the error of each failed batch.
func WithError(fn func(err error)) Option {
	return func(s *settings) { s.onError = fn }
}

// WithEmptyFlush sets a callback invoked when the worker wakes to an empty
// buffer.
func WithEmptyFlush(fn func()) Option {
	return func(s *settings) { s.onEmpty = fn }
}

// Accumulator buffers records and saves them in batches: as soon as the
// buffer grows beyond the threshold, on Purge, and otherwise after each idle
// interval. Each batch is saved by a single unit of work.
type Accumulator[T comparable] struct {
	settings
	flusher   Flusher[T]
	submitter Submitter

	mu      sync.Mutex
	buffer  []T
	started bool
	stopped bool

	signal chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

// New returns an Accumulator saving through flusher in units submitted to
// submitter. Call Start to begin flushing.
func New[T comparable](flusher Flusher[T], submitter Submitter, opts ...Option) *Accumulator[T] {
	var a = &Accumulator[T]{
		settings: settings{
			name:      "batch",
			threshold: DefaultThreshold,
			idle:      DefaultIdleInterval,
		},
		flusher:   flusher,
		submitter: submitter,
		signal:    make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&a.settings)
	}
	return a
}

// Add buffers model.
func (a *Accumulator[T]) Add(model T) {
	a.mu.Lock()
	a.buffer = append(a.buffer, model)
	var full = len(a.buffer) > a.threshold
	a.mu.Unlock()

	if full {
		a.Purge()
	}
}

// AddAll buffers models.
func (a *Accumulator[T]) AddAll(models []T) {
	a.mu.Lock()
	a.buffer = append(a.buffer, models...)
	var full = len(a.buffer) > a.threshold
	a.mu.Unlock()

	if full {
		a.Purge()
	}
}

// Remove drops one buffered occurrence of model, and reports whether there
// was one. Records already flushed are unaffected.
func (a *Accumulator[T]) Remove(model T) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, m := range a.buffer {
		if m == model {
			a.buffer = append(a.buffer[:i], a.buffer[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll drops one buffered occurrence of each of models, and returns how
// many were dropped.
func (a *Accumulator[T]) RemoveAll(models []T) int {
	var n int
	for _, m := range models {
		if a.Remove(m) {
			n++
		}
	}
	return n
}

// Len returns the number of buffered records.
func (a *Accumulator[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffer)
}

// Purge wakes the worker to flush immediately.
func (a *Accumulator[T]) Purge() {
	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// Start starts the worker.
func (a *Accumulator[T]) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started || a.stopped {
		return
	}
	a.started = true
	go a.serve(ctx)
}

// Quit stops the worker after its current iteration and waits for it to
// exit. Records still buffered are not flushed.
func (a *Accumulator[T]) Quit() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	close(a.quit)
	var started = a.started
	a.mu.Unlock()

	if started {
		<-a.done
	}
}

func (a *Accumulator[T]) serve(ctx context.Context) {
	defer close(a.done)

	var timer = time.NewTimer(a.idle)
	defer timer.Stop()

	for {
		select {
		case <-a.signal:
		case <-timer.C:
		case <-a.quit:
			return
		case <-ctx.Done():
			return
		}

		a.flush()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(a.idle)
	}
}

// flush swaps out the buffer and submits its contents as one unit of work.
func (a *Accumulator[T]) flush() {
	a.mu.Lock()
	var models = a.buffer
	a.buffer = nil
	a.mu.Unlock()

	if len(models) == 0 {
		if a.onEmpty != nil {
			a.onEmpty()
		}
		return
	}

	var saved int
	var tx = transaction.New(func(ctx context.Context, conn storage.Connection) (err error) {
		saved, err = a.flusher.SaveAll(ctx, conn, models)
		return err
	},
		transaction.WithName(a.name),
		transaction.WithSuccess(func(*transaction.Transaction) {
			metrics.BatchFlushesTotal.WithLabelValues(a.name, metrics.Ok).Inc()
			if a.onSuccess != nil {
				a.onSuccess(len(models), saved)
			}
		}),
		transaction.WithError(func(_ *transaction.Transaction, err error) {
			a.failed(len(models), err)
		}),
	)
	metrics.BatchFlushRecords.WithLabelValues(a.name).Observe(float64(len(models)))

	if err := a.submitter.Add(tx); err != nil {
		a.failed(len(models), err)
	}
}

func (a *Accumulator[T]) failed(records int, err error) {
	metrics.BatchFlushesTotal.WithLabelValues(a.name, metrics.Fail).Inc()
	log.WithFields(log.Fields{
		"batch":   a.name,
		"records": records,
		"err":     err,
	}).Warn("batch flush failed")

	if a.onError != nil {
		a.onError(err)
	}
}
