/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import (
	"context"

	"github.com/pkg/errors"
	"github.com/suparena/entityflow/storage"
)

// ProcessListener is told about each model after it was processed.
type ProcessListener[T any] func(current, total int, model T)

// ProcessModels returns an Operation applying fn to each of models in order.
// The first error stops processing and fails the unit. progress may be nil.
func ProcessModels[T any](models []T, fn func(ctx context.Context, conn storage.Connection, model T) error, progress ProcessListener[T]) Operation {
	return func(ctx context.Context, conn storage.Connection) error {
		for i, model := range models {
			if err := fn(ctx, conn, model); err != nil {
				return errors.WithMessagef(err, "processing model %d of %d", i+1, len(models))
			}
			if progress != nil {
				progress(i+1, len(models), model)
			}
		}
		return nil
	}
}
