// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package sync contains helper synchronization primitives used throughout
// go-walletmux.
package sync // import "walletmux.network/go-walletmux/pkg/sync"

import (
	"context"
	"sync"
)

// Mutex is a mutex that additionally supports prompted and context-aware
// locking. The zero value is an unlocked mutex.
type Mutex struct {
	locked chan struct{} // Capacity 1; holds a value while locked.
	once   sync.Once
}

// initOnce lazily initializes the internal channel, so that the zero value
// is usable.
func (m *Mutex) initOnce() {
	m.once.Do(func() { m.locked = make(chan struct{}, 1) })
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	m.initOnce()
	m.locked <- struct{}{}
}

// TryLock attempts to acquire the mutex without blocking.
// Returns whether the mutex was acquired.
func (m *Mutex) TryLock() bool {
	m.initOnce()
	select {
	case m.locked <- struct{}{}:
		return true
	default:
		return false
	}
}

// TryLockCtx attempts to acquire the mutex until the context is done.
// Returns whether the mutex was acquired. A nil or already cancelled context
// never acquires the mutex when it is locked.
func (m *Mutex) TryLockCtx(ctx context.Context) bool {
	m.initOnce()
	if ctx == nil {
		return m.TryLock()
	}
	select {
	case <-ctx.Done():
		// An already cancelled context must never acquire the mutex, so do
		// not enter the racing select below.
		return false
	default:
	}
	select {
	case m.locked <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unlock releases the mutex. Panics if the mutex was not locked.
func (m *Mutex) Unlock() {
	m.initOnce()
	select {
	case <-m.locked:
	default:
		panic("sync: unlock of unlocked Mutex")
	}
}
