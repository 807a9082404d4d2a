/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"context"

	"github.com/suparena/entityflow/storagemodels"
)

// Listener receives the changes of the entity types its Registration is
// subscribed to. Listeners are invoked on the goroutine that committed the
// change and must not block; they may hand work off asynchronously.
type Listener interface {
	OnModelChanged(change storagemodels.Change)
	OnTableChanged(entityType storagemodels.EntityType, action storagemodels.Action)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Model func(change storagemodels.Change)
	Table func(entityType storagemodels.EntityType, action storagemodels.Action)
}

func (l ListenerFuncs) OnModelChanged(change storagemodels.Change) {
	if l.Model != nil {
		l.Model(change)
	}
}

func (l ListenerFuncs) OnTableChanged(entityType storagemodels.EntityType, action storagemodels.Action) {
	if l.Table != nil {
		l.Table(entityType, action)
	}
}

// Notifier fans changes out to registrations keyed by entity type.
type Notifier interface {
	// NotifyModelChanged announces that a row of entityType changed. It must only
	// be called after the change committed.
	NotifyModelChanged(ctx context.Context, model any, entityType storagemodels.EntityType, conditions []storagemodels.Condition, action storagemodels.Action)
	// NotifyTableChanged announces a change without row identity.
	NotifyTableChanged(ctx context.Context, entityType storagemodels.EntityType, action storagemodels.Action)
	// NewRegistration returns an empty, unsubscribed Registration.
	NewRegistration() Registration

	// BeginBatch suppresses delivery of individual notifications until the
	// matching EndBatch. Batches nest.
	BeginBatch()
	// EndBatch closes a batch. When the outermost batch closes, the provided
	// changes are delivered; if none are provided, a single table-level
	// ActionChange is delivered for each entity type touched during the batch.
	EndBatch(ctx context.Context, changes ...storagemodels.Change)
}

// Registration is a listener's live subscription to a set of entity types.
type Registration interface {
	Register(entityType storagemodels.EntityType) error
	Unregister(entityType storagemodels.EntityType)
	UnregisterAll()
	SetListener(listener Listener)
	// IsSubscribed reports whether any entity type is registered.
	IsSubscribed() bool
	IsSubscribedTo(entityType storagemodels.EntityType) bool
}
