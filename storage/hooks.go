/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storage

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type commitHooksKey struct{}

// CommitHooks collects side effects which must only become visible once the
// surrounding storage transaction has committed.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks returns a context carrying a fresh CommitHooks. Whoever
// begins the transaction must call Run after committing, or Discard after
// rolling back.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	var h = new(CommitHooks)
	return context.WithValue(ctx, commitHooksKey{}, h), h
}

// AfterCommit defers fn until the transaction carried by ctx commits. Without
// one, fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if h, ok := ctx.Value(commitHooksKey{}).(*CommitHooks); ok && h != nil {
		h.mu.Lock()
		h.fns = append(h.fns, fn)
		h.mu.Unlock()
		return
	}
	fn()
}

// Run calls deferred functions in registration order. A panicking function
// is logged and does not stop the ones after it.
func (h *CommitHooks) Run() {
	h.mu.Lock()
	var fns = h.fns
	h.fns = nil
	h.mu.Unlock()

	for i, fn := range fns {
		runHook(i, fn)
	}
}

func runHook(index int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"hook": index, "panic": r}).Error("commit hook panicked")
		}
	}()
	fn()
}

// Discard drops deferred functions.
func (h *CommitHooks) Discard() {
	h.mu.Lock()
	h.fns = nil
	h.mu.Unlock()
}

// Len returns the number of deferred functions.
func (h *CommitHooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fns)
}
