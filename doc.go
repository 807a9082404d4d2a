/*
Package entityflow is a single-process persistence runtime which decouples
what to persist from when and how it reaches durable storage.

A Database owns the storage, a change notifier, a default transaction queue
and the registry of tables. Writes are submitted as units of work, run on the
queue's worker inside a storage transaction, and only once that transaction
commits are model caches updated and observers notified.

Key Features:
  - Type-safe tables using Go generics, built from generated adapters
  - FIFO and priority transaction queues with cancellation of queued work
  - Batch accumulators coalescing many small writes into few transactions
  - Model caches keyed by primary key, consistent with committed writes
  - In-process and broadcast change notification (Redis, DynamoDB journal)
  - Semantic error types and Prometheus metrics

Basic Usage:

	cfg, err := config.Load("entityflow.yaml")
	if err != nil {
	    return err
	}
	db, err := entityflow.Open(ctx, cfg, []string{schema})
	if err != nil {
	    return err
	}
	defer db.Close()
	db.Start(ctx)

	players, err := entityflow.Register[*Player](db, PlayerAdapter{})
	if err != nil {
	    return err
	}
	reg, err := entityflow.Subscribe(db, listener, PlayerType)
	if err != nil {
	    return err
	}
	defer reg.UnregisterAll()

	_, err = players.SaveAsync(&Player{Name: "ada"},
	    transaction.WithError(func(tx *transaction.Transaction, err error) {
	        log.WithField("err", err).Error("saving player")
	    }))
*/
package entityflow
