/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"sync"

	"github.com/suparena/entityflow/storagemodels"
)

// gate is the suppression toggle shared by every Notifier backend. While depth
// is positive, notifications are recorded by entity type instead of delivered.
type gate struct {
	mu      sync.Mutex
	depth   int
	touched []storagemodels.EntityType
	seen    map[storagemodels.EntityType]struct{}

	requested []storagemodels.Change
}

func (g *gate) begin() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth == 0 {
		g.seen = make(map[storagemodels.EntityType]struct{})
		g.touched = nil
		g.requested = nil
	}
	g.depth++
}

// suppress returns true if the notification for entityType must not be
// delivered now.
func (g *gate) suppress(entityType storagemodels.EntityType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth == 0 {
		return false
	}
	if _, ok := g.seen[entityType]; !ok {
		g.seen[entityType] = struct{}{}
		g.touched = append(g.touched, entityType)
	}
	return true
}

// end closes one level, queueing changes requested by the caller. When the
// outermost batch closes it returns what must be delivered: every requested
// change, or if none were requested, one table-level ActionChange per entity
// type touched in first-touch order. Unbalanced calls are ignored.
func (g *gate) end(changes []storagemodels.Change) []storagemodels.Change {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth == 0 {
		return nil
	}
	g.requested = append(g.requested, changes...)
	g.depth--
	if g.depth != 0 {
		return nil
	}

	var out = g.requested
	if len(out) == 0 {
		for _, entityType := range g.touched {
			out = append(out, storagemodels.Change{EntityType: entityType, Action: storagemodels.ActionChange})
		}
	}
	g.touched, g.seen, g.requested = nil, nil, nil
	return out
}
