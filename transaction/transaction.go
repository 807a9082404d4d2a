/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/suparena/entityflow/storage"
)

// Priority orders units of work in a priority queue. Higher runs first.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
	// PriorityUI is reserved for work a user is actively waiting on.
	PriorityUI Priority = 5
)

// Operation is the work of a unit. conn is a storage transaction if the unit
// runs in one, and the database itself otherwise.
type Operation func(ctx context.Context, conn storage.Connection) error

// State of a unit of work.
type State int32

const (
	StateCreated State = iota
	StateQueued
	StateRunning
	StateSucceeded
	StateFailed
	StateCompleted
	StateCancelled
)

var stateNames = [...]string{"created", "queued", "running", "succeeded", "failed", "completed", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transaction is a unit of work: an Operation plus the callbacks to invoke
// when it finishes. Build one with New.
type Transaction struct {
	id       uuid.UUID
	name     string
	priority Priority
	op       Operation

	ready      func(*Transaction)
	success    func(*Transaction)
	onError    func(*Transaction, error)
	completion func(*Transaction)

	runInTransaction      bool
	callbacksOnSameThread bool

	state atomic.Int32
}

// Option configures a Transaction.
type Option func(*Transaction)

// New returns a unit of work running op, by default inside a storage
// transaction at PriorityNormal.
func New(op Operation, opts ...Option) *Transaction {
	var tx = &Transaction{
		id:               uuid.New(),
		priority:         PriorityNormal,
		op:               op,
		runInTransaction: true,
	}
	for _, opt := range opts {
		opt(tx)
	}
	return tx
}

// WithName names the unit so that it can be cancelled by name.
func WithName(name string) Option {
	return func(tx *Transaction) { tx.name = name }
}

// WithPriority sets the priority used by priority queues.
func WithPriority(p Priority) Option {
	return func(tx *Transaction) { tx.priority = p }
}

// WithReady sets a callback invoked on the worker just before the operation.
func WithReady(fn func(*Transaction)) Option {
	return func(tx *Transaction) { tx.ready = fn }
}

// WithSuccess sets the callback invoked when the operation committed.
func WithSuccess(fn func(*Transaction)) Option {
	return func(tx *Transaction) { tx.success = fn }
}

// WithError sets the callback receiving the operation's error. Without one,
// a failure is escalated.
func WithError(fn func(*Transaction, error)) Option {
	return func(tx *Transaction) { tx.onError = fn }
}

// WithCompletion sets the callback invoked exactly once after Success or Error.
func WithCompletion(fn func(*Transaction)) Option {
	return func(tx *Transaction) { tx.completion = fn }
}

// WithRunInTransaction controls whether the operation is wrapped in a storage
// transaction. Pure reads may turn it off.
func WithRunInTransaction(enabled bool) Option {
	return func(tx *Transaction) { tx.runInTransaction = enabled }
}

// WithCallbacksOnSameThread runs callbacks on the executing worker rather
// than through the queue's CallbackExecutor.
func WithCallbacksOnSameThread(enabled bool) Option {
	return func(tx *Transaction) { tx.callbacksOnSameThread = enabled }
}

// ID uniquely identifies the unit.
func (tx *Transaction) ID() uuid.UUID { return tx.id }

func (tx *Transaction) Name() string { return tx.name }

func (tx *Transaction) Priority() Priority { return tx.priority }

// State returns the current state of the unit.
func (tx *Transaction) State() State { return State(tx.state.Load()) }

func (tx *Transaction) String() string {
	if tx.name != "" {
		return tx.name
	}
	return tx.id.String()
}

func (tx *Transaction) transition(from, to State) bool {
	return tx.state.CompareAndSwap(int32(from), int32(to))
}

func (tx *Transaction) set(s State) { tx.state.Store(int32(s)) }
