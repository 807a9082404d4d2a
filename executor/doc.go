/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package executor performs persistence operations for one entity type.
//
// A ModelSaver binds records to compiled statements through the entity's
// adapter, and after each successful statement it updates the entity's cache
// and notifies observers. Failed records never reach the cache or the
// notifier.
//
// Basic usage:
//
//	saver := executor.New[*Player](PlayerAdapter{}, cache.New[*Player]("Player", 0), notifier)
//
//	outcome, err := saver.Save(ctx, tx, player)
//	if err != nil {
//		return err
//	}
//
// The batched variants (InsertAll, UpdateAll, DeleteAll, SaveAll) compile each
// statement once per call, skip records which fail, and return the number of
// records which succeeded.
package executor
