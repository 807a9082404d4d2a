/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storage"
)

// CallbackExecutor runs fn in the callback context of a queue.
type CallbackExecutor func(fn func())

// Escalator receives failures of units which have no Error callback. The
// error is a FatalError wrapping the original cause.
type Escalator func(tx *Transaction, err error)

// PanicEscalator logs err and panics.
func PanicEscalator(tx *Transaction, err error) {
	log.WithFields(log.Fields{"transaction": tx.String(), "err": err}).Panic("unhandled transaction failure")
}

// ExecuteSync runs tx on the calling goroutine, bypassing any queue, and
// returns its error. Callbacks run inline. A failure of a unit without an
// Error callback is returned as a FatalError instead of being escalated.
func ExecuteSync(ctx context.Context, db storage.Database, tx *Transaction) error {
	if !tx.transition(StateCreated, StateRunning) && !tx.transition(StateQueued, StateRunning) {
		return errors.WithMessagef(sterrors.ErrInvalidInput, "transaction %s is %s", tx, tx.State())
	}

	var err = execute(ctx, db, tx, nil, func(*Transaction, error) {})
	if err != nil && tx.onError == nil {
		return sterrors.NewFatalError(tx.String(), err)
	}
	return err
}

// execute runs a unit which is already Running, and delivers its callbacks
// inline or through post.
func execute(ctx context.Context, db storage.Database, tx *Transaction, post CallbackExecutor, escalate Escalator) error {
	if tx.ready != nil {
		tx.ready(tx)
	}

	var err = perform(ctx, db, tx)
	if err == nil {
		tx.set(StateSucceeded)
	} else {
		tx.set(StateFailed)
	}

	deliver(tx, err, post, escalate)
	return err
}

// deliver calls Success or Error, then Completion, inline or through post.
func deliver(tx *Transaction, err error, post CallbackExecutor, escalate Escalator) {
	var finish = func() {
		defer func() {
			if tx.completion != nil {
				tx.completion(tx)
			}
			tx.set(StateCompleted)
		}()

		switch {
		case err == nil:
			if tx.success != nil {
				tx.success(tx)
			}
		case tx.onError != nil:
			tx.onError(tx, err)
		default:
			escalate(tx, sterrors.NewFatalError(tx.String(), err))
		}
	}

	if tx.callbacksOnSameThread || post == nil {
		finish()
	} else {
		post(finish)
	}
}

// perform runs the operation, within a storage transaction if requested.
// Side effects deferred with storage.AfterCommit become visible only after a
// successful commit.
func perform(ctx context.Context, db storage.Database, tx *Transaction) error {
	if !tx.runInTransaction {
		return protect(func() error { return tx.op(ctx, db) })
	}

	stx, err := db.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	ctx, hooks := storage.WithCommitHooks(ctx)

	if err = protect(func() error { return tx.op(ctx, stx) }); err != nil {
		hooks.Discard()
		if rerr := stx.Rollback(); rerr != nil {
			log.WithFields(log.Fields{"transaction": tx.String(), "err": rerr}).Warn("failed to roll back")
		}
		return err
	}
	if err = stx.Commit(); err != nil {
		hooks.Discard()
		return err
	}
	// The unit committed; a failing hook must not fail it.
	hooks.Run()
	return nil
}

// protect converts a panic of fn into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = errors.WithMessage(rerr, "operation panicked")
			} else {
				err = errors.Errorf("operation panicked: %v", r)
			}
		}
	}()
	return fn()
}
