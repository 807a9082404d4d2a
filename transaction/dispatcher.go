/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package transaction

import "sync"

// Dispatcher is a fixed callback context: a single goroutine running posted
// functions in the order they were posted.
type Dispatcher struct {
	mu     sync.Mutex
	thunks []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewDispatcher starts a Dispatcher.
func NewDispatcher() *Dispatcher {
	var d = &Dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.serve()
	return d
}

// Post schedules fn. Functions posted after Close run on the caller.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		fn()
		return
	}
	d.thunks = append(d.thunks, fn)

	select {
	case d.wake <- struct{}{}:
	default:
	}
	d.mu.Unlock()
}

// Close runs everything already posted and stops the goroutine.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.wake)
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) serve() {
	defer close(d.done)

	for {
		_, ok := <-d.wake

		d.mu.Lock()
		var thunks = d.thunks
		d.thunks = nil
		d.mu.Unlock()

		for _, fn := range thunks {
			fn()
		}
		if !ok {
			return
		}
	}
}
