/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"context"
	"sync"
)

// LocalBus is an in-process Bus. Publish invokes every handler of the topic
// synchronously.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	topics map[string]map[int]func(string)
}

// NewLocalBus creates an empty LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{topics: make(map[string]map[int]func(string))}
}

func (b *LocalBus) Publish(ctx context.Context, topic, payload string) error {
	b.mu.RLock()
	var handlers = make([]func(string), 0, len(b.topics[topic]))
	for _, h := range b.topics[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, topic string, handler func(payload string)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	var id = b.nextID
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]func(string))
	}
	b.topics[topic][id] = handler

	return localSubscription(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.topics[topic], id)
	}), nil
}

type localSubscription func()

func (s localSubscription) Close() error {
	s()
	return nil
}
