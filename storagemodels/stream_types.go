/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamMeta contains metadata about a message read from a change journal.
type StreamMeta struct {
	Index      int64     // Message index in stream (0-based)
	PageNumber int       // Journal page number (1-based)
	Timestamp  time.Time // When the message was retrieved
}

// StreamOptions configures how a journal subscription polls for new changes.
type StreamOptions struct {
	MaxRetries   int              // Retry attempts for transient errors (default: 3)
	RetryBackoff time.Duration    // Backoff between retries (default: 1s)
	PageSize     int32            // Items per journal page (default: 100)
	PollInterval time.Duration    // Delay between polls once caught up (default: 1s)
	ErrorHandler func(error) bool // Return true to continue, false to stop
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		MaxRetries:   3,
		RetryBackoff: time.Second,
		PageSize:     100,
		PollInterval: time.Second,
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) StreamOption {
	return func(opts *StreamOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) StreamOption {
	return func(opts *StreamOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithPageSize sets the journal page size
func WithPageSize(size int32) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithPollInterval sets the delay between polls once the stream is caught up.
func WithPollInterval(interval time.Duration) StreamOption {
	return func(opts *StreamOptions) {
		opts.PollInterval = interval
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}
