// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package sync

import (
	"sync"

	"github.com/pkg/errors"
)

// Closer is a one-time closeable barrier. It can be used to tie the lifetime
// of a resource (a socket, a transport handle) to a single Close call:
// registered handlers run exactly once, no matter how many goroutines race
// to close.
// The zero value is an open Closer.
type Closer struct {
	mutex    sync.Mutex
	onClosed []func()
	closed   chan struct{}
	once     sync.Once
}

func (c *Closer) initOnce() {
	c.once.Do(func() { c.closed = make(chan struct{}) })
}

// Closed returns a channel that is closed when the Closer is closed.
func (c *Closer) Closed() <-chan struct{} {
	c.initOnce()
	return c.closed
}

// IsClosed returns whether the Closer is closed.
func (c *Closer) IsClosed() bool {
	c.initOnce()
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Close closes the Closer and runs all registered handlers, in registration
// order. Returns an error if the Closer was already closed.
func (c *Closer) Close() error {
	c.initOnce()
	c.mutex.Lock()
	if c.IsClosed() {
		c.mutex.Unlock()
		return errors.New("already closed")
	}
	close(c.closed)
	handlers := c.onClosed
	c.onClosed = nil
	c.mutex.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

// OnClose registers a handler to be run when the Closer is closed. If the
// Closer is already closed, the handler is not run and false is returned.
func (c *Closer) OnClose(fn func()) bool {
	c.initOnce()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.IsClosed() {
		return false
	}
	c.onClosed = append(c.onClosed, fn)
	return true
}

// OnCloseAlways registers a handler like OnClose, but if the Closer is
// already closed, the handler is run immediately.
func (c *Closer) OnCloseAlways(fn func()) bool {
	c.initOnce()
	c.mutex.Lock()
	if c.IsClosed() {
		c.mutex.Unlock()
		fn()
		return false
	}
	c.onClosed = append(c.onClosed, fn)
	c.mutex.Unlock()
	return true
}
