/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/metrics"
	"github.com/suparena/entityflow/storagemodels"
)

// Bus is an external broadcast channel carrying encoded change URIs.
type Bus interface {
	Publish(ctx context.Context, topic, payload string) error
	// Subscribe invokes handler for each payload published to topic until the
	// returned Subscription is closed. Handlers may run on a bus goroutine.
	Subscribe(ctx context.Context, topic string, handler func(payload string)) (Subscription, error)
}

// Subscription is an active Bus subscription.
type Subscription interface {
	Close() error
}

// BroadcastNotifier encodes each change as a URI and publishes it on a Bus, so
// observers outside this process can follow mutations. Publishing happens on
// the committing goroutine; a failed publish is logged and never fails the
// commit.
type BroadcastNotifier struct {
	gate
	bus Bus
}

// NewBroadcastNotifier creates a BroadcastNotifier publishing to bus.
func NewBroadcastNotifier(bus Bus) *BroadcastNotifier {
	return &BroadcastNotifier{bus: bus}
}

func (n *BroadcastNotifier) NotifyModelChanged(ctx context.Context, model any, entityType storagemodels.EntityType, conditions []storagemodels.Condition, action storagemodels.Action) {
	if n.suppress(entityType) {
		return
	}
	n.deliver(ctx, storagemodels.Change{EntityType: entityType, Action: action, Conditions: conditions})
}

func (n *BroadcastNotifier) NotifyTableChanged(ctx context.Context, entityType storagemodels.EntityType, action storagemodels.Action) {
	if n.suppress(entityType) {
		return
	}
	n.deliver(ctx, storagemodels.Change{EntityType: entityType, Action: action})
}

func (n *BroadcastNotifier) BeginBatch() { n.begin() }

func (n *BroadcastNotifier) EndBatch(ctx context.Context, changes ...storagemodels.Change) {
	for _, c := range n.end(changes) {
		n.deliver(ctx, c)
	}
}

func (n *BroadcastNotifier) NewRegistration() Registration {
	return &busRegistration{
		bus:  n.bus,
		subs: make(map[storagemodels.EntityType]Subscription),
	}
}

func (n *BroadcastNotifier) deliver(ctx context.Context, change storagemodels.Change) {
	var uri = EncodeURI(change)
	if err := n.bus.Publish(ctx, Topic(change.EntityType), uri); err != nil {
		log.WithFields(log.Fields{"err": err, "uri": uri}).Warn("failed to broadcast change")
		metrics.BroadcastFailuresTotal.WithLabelValues(string(change.EntityType)).Inc()
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(change.EntityType), change.Action.String()).Inc()
}

// busRegistration subscribes a listener to bus topics and decodes the change
// URIs it receives. Changes carry conditions but no Model.
type busRegistration struct {
	bus Bus

	mu       sync.Mutex
	listener Listener
	subs     map[storagemodels.EntityType]Subscription
}

func (r *busRegistration) Register(entityType storagemodels.EntityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[entityType]; ok {
		return nil
	}
	sub, err := r.bus.Subscribe(context.Background(), Topic(entityType), r.receive)
	if err != nil {
		return err
	}
	r.subs[entityType] = sub
	return nil
}

func (r *busRegistration) Unregister(entityType storagemodels.EntityType) {
	r.mu.Lock()
	var sub, ok = r.subs[entityType]
	delete(r.subs, entityType)
	r.mu.Unlock()

	if ok {
		closeSubscription(entityType, sub)
	}
}

func (r *busRegistration) UnregisterAll() {
	r.mu.Lock()
	var subs = r.subs
	r.subs = make(map[storagemodels.EntityType]Subscription)
	r.mu.Unlock()

	for entityType, sub := range subs {
		closeSubscription(entityType, sub)
	}
}

func (r *busRegistration) SetListener(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = listener
}

func (r *busRegistration) IsSubscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs) != 0
}

func (r *busRegistration) IsSubscribedTo(entityType storagemodels.EntityType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[entityType]
	return ok
}

func (r *busRegistration) receive(payload string) {
	change, err := DecodeURI(payload)
	if err != nil {
		log.WithFields(log.Fields{"err": err, "payload": payload}).Warn("discarding malformed change")
		return
	}

	r.mu.Lock()
	var l = r.listener
	_, subscribed := r.subs[change.EntityType]
	r.mu.Unlock()

	if l == nil || !subscribed {
		return
	}
	if change.IsTableChange() {
		l.OnTableChanged(change.EntityType, change.Action)
	} else {
		l.OnModelChanged(change)
	}
}

func closeSubscription(entityType storagemodels.EntityType, sub Subscription) {
	if err := sub.Close(); err != nil {
		log.WithFields(log.Fields{"err": err, "entity": entityType}).Warn("failed to close change subscription")
	}
}
