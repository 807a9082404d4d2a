/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package transaction schedules units of work against a storage.Database.
//
// A Transaction moves through the states
//
//	Created -> Queued -> Running -> Succeeded|Failed -> Completed
//
// and may move from Queued to Cancelled until a worker picks it up. Each
// Queue owns a single worker goroutine; NewFIFOQueue runs units in arrival
// order and NewPriorityQueue by descending Priority.
//
// Example:
//
//	q := transaction.NewPriorityQueue(db)
//	q.Start(ctx)
//	defer q.Quit()
//
//	tx := transaction.New(func(ctx context.Context, conn storage.Connection) error {
//		_, err := players.Save(ctx, conn, player)
//		return err
//	},
//		transaction.WithName("save-player"),
//		transaction.WithPriority(transaction.PriorityHigh),
//		transaction.WithError(func(tx *transaction.Transaction, err error) {
//			log.WithField("err", err).Error("save failed")
//		}),
//	)
//	if err := q.Add(tx); err != nil {
//		return err
//	}
//
// Success or Error, followed by Completion, is called exactly once for every
// unit which ran, and never for a cancelled unit.
package transaction
