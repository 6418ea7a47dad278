// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package leveldb provides a persistent implementation of the db.Database
// interface on top of goleveldb.
package leveldb // import "walletmux.network/go-walletmux/db/leveldb"

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"walletmux.network/go-walletmux/db"
)

// Database is a leveldb-backed key/value store.
type Database struct {
	ldb *leveldb.DB
}

var _ db.Database = (*Database)(nil)

// OpenDatabase opens (or creates) a leveldb database at the given path.
func OpenDatabase(path string) (*Database, error) {
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening leveldb")
	}
	return &Database{ldb: ldb}, nil
}

// NewMemDatabase creates a leveldb database backed by in-memory storage.
// It is mainly useful for testing the leveldb wrapper itself.
func NewMemDatabase() (*Database, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening in-memory leveldb")
	}
	return &Database{ldb: ldb}, nil
}

func (d *Database) Has(key string) (bool, error) {
	has, err := d.ldb.Has([]byte(key), nil)
	return has, errors.Wrap(err, "leveldb has")
}

func (d *Database) Get(key string) (string, error) {
	value, err := d.GetBytes(key)
	return string(value), err
}

func (d *Database) GetBytes(key string) ([]byte, error) {
	value, err := d.ldb.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.WithMessage(db.ErrNotFound, key)
	}
	return value, errors.Wrap(err, "leveldb get")
}

func (d *Database) Put(key, value string) error {
	return errors.Wrap(d.ldb.Put([]byte(key), []byte(value), nil), "leveldb put")
}

func (d *Database) PutBytes(key string, value []byte) error {
	if value == nil {
		return errors.New("put of nil value")
	}
	return d.Put(key, string(value))
}

func (d *Database) Delete(key string) error {
	return errors.Wrap(d.ldb.Delete([]byte(key), nil), "leveldb delete")
}

// Clear removes all keys by iterating over the full key range.
func (d *Database) Clear() error {
	it := d.ldb.NewIterator(&util.Range{}, nil)
	defer it.Release()
	for it.Next() {
		if err := d.ldb.Delete(it.Key(), nil); err != nil {
			return errors.Wrap(err, "leveldb clear")
		}
	}
	return errors.Wrap(it.Error(), "leveldb clear iterator")
}

func (d *Database) Close() error {
	return errors.Wrap(d.ldb.Close(), "closing leveldb")
}
