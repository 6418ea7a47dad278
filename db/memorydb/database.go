// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package memorydb provides an in-memory, non-persistent implementation of
// the db.Database interface. It is the default store for test environments
// and hosts that do not want sessions to survive a restart.
package memorydb // import "walletmux.network/go-walletmux/db/memorydb"

import (
	"sync"

	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/db"
)

// Database is a thread-safe in-memory key/value store.
type Database struct {
	mutex sync.RWMutex
	data  map[string]string
}

var _ db.Database = (*Database)(nil)

// NewDatabase creates a new, empty in-memory database.
func NewDatabase() *Database {
	return &Database{data: make(map[string]string)}
}

// FromData creates an in-memory database prefilled with the given data. The
// map is copied.
func FromData(data map[string]string) *Database {
	d := NewDatabase()
	for k, v := range data {
		d.data[k] = v
	}
	return d
}

func (d *Database) Has(key string) (bool, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	_, ok := d.data[key]
	return ok, nil
}

func (d *Database) Get(key string) (string, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	value, ok := d.data[key]
	if !ok {
		return "", errors.WithMessage(db.ErrNotFound, key)
	}
	return value, nil
}

func (d *Database) GetBytes(key string) ([]byte, error) {
	value, err := d.Get(key)
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (d *Database) Put(key, value string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.data == nil {
		d.data = make(map[string]string)
	}
	d.data[key] = value
	return nil
}

func (d *Database) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("put of nil value")
	}
	return d.Put(key, string(value))
}

func (d *Database) Delete(key string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.data, key)
	return nil
}

func (d *Database) Clear() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.data = make(map[string]string)
	return nil
}

// Close is a no-op for the in-memory database.
func (d *Database) Close() error { return nil }
