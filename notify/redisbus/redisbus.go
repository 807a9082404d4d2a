/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package redisbus carries change notifications over Redis pub/sub.
package redisbus

import (
	"context"
	"crypto/tls"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/notify"
)

// Options configures the Redis connection.
type Options struct {
	// Redis server address.
	Address string
	// Password required when connecting to the Redis server.
	Password string
	// DB to connect to.
	DB int
	// TLS config.
	TLSConfig *tls.Config
	// MaxRetries of a failed publish.
	MaxRetries uint64
	// RetryBackoff is the base of the Fibonacci backoff between publish retries.
	RetryBackoff time.Duration
}

// DefaultOptions connects to a local Redis.
func DefaultOptions() Options {
	return Options{
		Address:      "localhost:6379",
		Password:     "", // no password set
		DB:           0,  // use default DB
		MaxRetries:   3,
		RetryBackoff: 10 * time.Millisecond,
	}
}

// Client is the subset of *redis.Client used by Bus.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Bus implements notify.Bus over Redis PUBLISH / SUBSCRIBE.
type Bus struct {
	client  Client
	options Options
	closer  io.Closer
}

var _ notify.Bus = (*Bus)(nil)

// New opens a Redis client with options and returns a Bus using it.
func New(options Options) *Bus {
	var client = redis.NewClient(&redis.Options{
		TLSConfig: options.TLSConfig,
		Addr:      options.Address,
		Password:  options.Password,
		DB:        options.DB,
	})
	var b = NewWithClient(client, options)
	b.closer = client
	return b
}

// NewWithClient returns a Bus using an existing client.
func NewWithClient(client Client, options Options) *Bus {
	return &Bus{client: client, options: options}
}

// Publish sends payload to topic, retrying transient failures.
func (b *Bus) Publish(ctx context.Context, topic, payload string) error {
	var backoff = retry.WithMaxRetries(b.options.MaxRetries, retry.NewFibonacci(b.retryBackoff()))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err = b.client.Publish(ctx, topic, payload).Err()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		log.WithFields(log.Fields{"err": err, "topic": topic}).Debug("retrying change publish")
		return retry.RetryableError(errors.WithMessagef(err, "publishing to %s", topic))
	})
}

// Subscribe starts a goroutine delivering each message on topic to handler.
// It returns once Redis confirmed the subscription.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func(payload string)) (notify.Subscription, error) {
	var pubsub = b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.WithMessagef(err, "subscribing to %s", topic)
	}

	var done = make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			handler(msg.Payload)
		}
	}()
	return &subscription{pubsub: pubsub, done: done}, nil
}

// Close closes the Redis client opened by New. A client passed to
// NewWithClient is left to its owner.
func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func (b *Bus) retryBackoff() time.Duration {
	if b.options.RetryBackoff <= 0 {
		return 10 * time.Millisecond
	}
	return b.options.RetryBackoff
}

type subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

// Close unsubscribes and waits for the delivery goroutine to exit.
func (s *subscription) Close() error {
	var err = s.pubsub.Close()
	<-s.done
	return err
}
