/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"fmt"
	"strings"

	"github.com/suparena/entityflow/storagemodels"
)

// KeyCombiner folds the primary-key values of a record, in column order, into
// a single comparable cache key. It must be pure and deterministic.
type KeyCombiner func(values ...any) any

// DefaultKeyCombiner joins the Go-syntax representation of each value, so
// "a,b" and ("a", "b") produce distinct keys.
func DefaultKeyCombiner(values ...any) any {
	var b strings.Builder
	for i, v := range values {
		if i != 0 {
			b.WriteByte(',')
		}
		if bs, ok := v.([]byte); ok {
			v = string(bs)
		}
		fmt.Fprintf(&b, "%#v", v)
	}
	return b.String()
}

// KeyOf derives the cache key of a record from its primary-key conditions.
// Single-key entities bypass combiner; composite keys always go through it
// (DefaultKeyCombiner if nil). KeyOf returns nil if there are no conditions.
func KeyOf(conditions []storagemodels.Condition, combiner KeyCombiner) any {
	switch len(conditions) {
	case 0:
		return nil
	case 1:
		if bs, ok := conditions[0].Value.([]byte); ok {
			return string(bs)
		}
		return conditions[0].Value
	}
	if combiner == nil {
		combiner = DefaultKeyCombiner
	}
	var values = make([]any, len(conditions))
	for i, c := range conditions {
		values[i] = c.Value
	}
	return combiner(values...)
}
