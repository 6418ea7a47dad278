// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package db defines the storage port of go-walletmux: a string-keyed
// key/value store the orchestrator persists its session record through. The
// backing store is swappable; memorydb provides a non-persistent store for
// tests and ephemeral hosts, leveldb a persistent one.
package db // import "walletmux.network/go-walletmux/db"

import "github.com/pkg/errors"

// ErrNotFound is returned by read operations when the key does not exist.
var ErrNotFound = errors.New("db: key not found")

// Reader is the read half of a key/value store.
type Reader interface {
	// Has reports whether the key exists.
	Has(key string) (bool, error)
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) (string, error)
	// GetBytes returns the raw value stored under key, or ErrNotFound.
	GetBytes(key string) ([]byte, error)
}

// Writer is the write half of a key/value store.
type Writer interface {
	// Put stores a value under key, overwriting any previous value.
	Put(key, value string) error
	// PutBytes stores a raw value under key. The value must not be nil.
	PutBytes(key string, value []byte) error
	// Delete removes the key. Deleting a non-existent key is a no-op.
	Delete(key string) error
}

// Database is a complete key/value store.
type Database interface {
	Reader
	Writer

	// Clear removes all keys.
	Clear() error
	// Close releases the store's resources. The store is unusable
	// afterwards.
	Close() error
}
