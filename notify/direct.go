/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"context"
	"sync"

	"github.com/suparena/entityflow/metrics"
	"github.com/suparena/entityflow/storagemodels"
)

// DirectNotifier delivers changes to in-process listeners, synchronously, on
// the goroutine which committed them.
type DirectNotifier struct {
	gate

	mu            sync.RWMutex
	registrations map[storagemodels.EntityType]map[*directRegistration]struct{}
}

// NewDirectNotifier creates a DirectNotifier with no registrations.
func NewDirectNotifier() *DirectNotifier {
	return &DirectNotifier{
		registrations: make(map[storagemodels.EntityType]map[*directRegistration]struct{}),
	}
}

func (n *DirectNotifier) NotifyModelChanged(ctx context.Context, model any, entityType storagemodels.EntityType, conditions []storagemodels.Condition, action storagemodels.Action) {
	if n.suppress(entityType) {
		return
	}
	n.deliver(storagemodels.Change{EntityType: entityType, Action: action, Model: model, Conditions: conditions})
}

func (n *DirectNotifier) NotifyTableChanged(ctx context.Context, entityType storagemodels.EntityType, action storagemodels.Action) {
	if n.suppress(entityType) {
		return
	}
	n.deliver(storagemodels.Change{EntityType: entityType, Action: action})
}

func (n *DirectNotifier) BeginBatch() { n.begin() }

func (n *DirectNotifier) EndBatch(ctx context.Context, changes ...storagemodels.Change) {
	for _, c := range n.end(changes) {
		n.deliver(c)
	}
}

func (n *DirectNotifier) NewRegistration() Registration {
	return &directRegistration{
		notifier: n,
		types:    make(map[storagemodels.EntityType]struct{}),
	}
}

// Listeners returns the number of registrations subscribed to entityType.
func (n *DirectNotifier) Listeners(entityType storagemodels.EntityType) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.registrations[entityType])
}

func (n *DirectNotifier) deliver(change storagemodels.Change) {
	// Snapshot so listeners may (un)register while being notified.
	n.mu.RLock()
	var regs = make([]*directRegistration, 0, len(n.registrations[change.EntityType]))
	for r := range n.registrations[change.EntityType] {
		regs = append(regs, r)
	}
	n.mu.RUnlock()

	for _, r := range regs {
		r.dispatch(change)
	}
	metrics.NotificationsTotal.WithLabelValues(string(change.EntityType), change.Action.String()).Inc()
}

func (n *DirectNotifier) add(entityType storagemodels.EntityType, r *directRegistration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var set, ok = n.registrations[entityType]
	if !ok {
		set = make(map[*directRegistration]struct{})
		n.registrations[entityType] = set
	}
	set[r] = struct{}{}
}

func (n *DirectNotifier) remove(entityType storagemodels.EntityType, r *directRegistration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if set, ok := n.registrations[entityType]; ok {
		delete(set, r)
		if len(set) == 0 {
			delete(n.registrations, entityType)
		}
	}
}

type directRegistration struct {
	notifier *DirectNotifier

	mu       sync.Mutex
	listener Listener
	types    map[storagemodels.EntityType]struct{}
}

func (r *directRegistration) Register(entityType storagemodels.EntityType) error {
	r.mu.Lock()
	r.types[entityType] = struct{}{}
	r.mu.Unlock()

	r.notifier.add(entityType, r)
	return nil
}

func (r *directRegistration) Unregister(entityType storagemodels.EntityType) {
	r.mu.Lock()
	delete(r.types, entityType)
	r.mu.Unlock()

	r.notifier.remove(entityType, r)
}

func (r *directRegistration) UnregisterAll() {
	r.mu.Lock()
	var types = r.types
	r.types = make(map[storagemodels.EntityType]struct{})
	r.mu.Unlock()

	for t := range types {
		r.notifier.remove(t, r)
	}
}

func (r *directRegistration) SetListener(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = listener
}

func (r *directRegistration) IsSubscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.types) != 0
}

func (r *directRegistration) IsSubscribedTo(entityType storagemodels.EntityType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.types[entityType]
	return ok
}

func (r *directRegistration) dispatch(change storagemodels.Change) {
	r.mu.Lock()
	var l = r.listener
	r.mu.Unlock()

	if l == nil {
		return
	}
	if change.IsTableChange() {
		l.OnTableChanged(change.EntityType, change.Action)
	} else {
		l.OnModelChanged(change)
	}
}
