/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package batch coalesces many small writes into few storage transactions.
//
// An Accumulator buffers records and hands them, swapped out as one batch, to
// a Flusher running inside a unit of work on a transaction Queue:
//
//	acc := batch.New[*testmodels.Player](players, queue,
//		batch.WithThreshold(100),
//		batch.WithIdleInterval(10*time.Second),
//		batch.WithSuccess(func(submitted, saved int) {
//			log.WithField("saved", saved).Debug("players flushed")
//		}),
//	)
//	acc.Start(ctx)
//	defer acc.Quit()
//
//	acc.Add(player)
package batch
