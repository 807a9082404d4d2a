/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Keys for entityflow metrics.
const (
	Fail      = "fail"
	Ok        = "ok"
	Cancelled = "cancelled"
	Hit       = "hit"
	Miss      = "miss"
)

// Collectors for the transaction queues.
var (
	TransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entityflow_transactions_total",
		Help: "Cumulative number of units of work finished, by queue and outcome.",
	}, []string{"queue", "outcome"})
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "entityflow_queue_depth",
		Help: "Number of units of work waiting in a queue.",
	}, []string{"queue"})
	TransactionDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "entityflow_transaction_duration_seconds",
		Help:    "Time spent executing a unit of work, including its storage transaction.",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})
)

// Collectors for the batch accumulator.
var (
	BatchFlushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entityflow_batch_flushes_total",
		Help: "Cumulative number of batch flushes, by accumulator and outcome.",
	}, []string{"batch", "outcome"})
	BatchFlushRecords = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "entityflow_batch_flush_records",
		Help:    "Number of records submitted per batch flush.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"batch"})
)

// Collectors for the model cache and change notifier.
var (
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entityflow_cache_lookups_total",
		Help: "Cumulative number of model cache lookups, by entity and result.",
	}, []string{"entity", "result"})
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entityflow_notifications_total",
		Help: "Cumulative number of change notifications delivered, by entity and action.",
	}, []string{"entity", "action"})
	BroadcastFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entityflow_broadcast_failures_total",
		Help: "Cumulative number of change broadcasts which could not be published.",
	}, []string{"entity"})
)

// Collectors returns all entityflow collectors.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		TransactionsTotal,
		QueueDepth,
		TransactionDurationSeconds,
		BatchFlushesTotal,
		BatchFlushRecords,
		CacheLookupsTotal,
		NotificationsTotal,
		BroadcastFailuresTotal,
	}
}

// Register registers all entityflow collectors with r.
func Register(r prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
