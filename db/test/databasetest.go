// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package test provides a generic conformance test for db.Database
// implementations.
package test // import "walletmux.network/go-walletmux/db/test"

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletmux.network/go-walletmux/db"
)

// GenericDatabaseTest runs the db.Database conformance suite against the
// given empty database.
func GenericDatabaseTest(t *testing.T, d db.Database) {
	t.Helper()

	t.Run("empty reads", func(t *testing.T) {
		has, err := d.Has("missing")
		require.NoError(t, err)
		assert.False(t, has)

		_, err = d.Get("missing")
		assert.True(t, errors.Is(err, db.ErrNotFound))
		_, err = d.GetBytes("missing")
		assert.True(t, errors.Is(err, db.ErrNotFound))
	})

	t.Run("put get roundtrip", func(t *testing.T) {
		require.NoError(t, d.Put("alpha", "1"))
		require.NoError(t, d.PutBytes("beta", []byte("2")))

		v, err := d.Get("alpha")
		require.NoError(t, err)
		assert.Equal(t, "1", v)

		b, err := d.GetBytes("beta")
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), b)

		has, err := d.Has("alpha")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("nil value rejected", func(t *testing.T) {
		err := d.PutBytes("gamma", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "value")
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, d.Put("alpha", "old"))
		require.NoError(t, d.Put("alpha", "new"))
		v, err := d.Get("alpha")
		require.NoError(t, err)
		assert.Equal(t, "new", v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, d.Delete("alpha"))
		has, err := d.Has("alpha")
		require.NoError(t, err)
		assert.False(t, has)

		assert.NoError(t, d.Delete("alpha"), "deleting a missing key is a no-op")
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, d.Put("a", "1"))
		require.NoError(t, d.Put("b", "2"))
		require.NoError(t, d.Clear())

		for _, key := range []string{"a", "b", "beta"} {
			has, err := d.Has(key)
			require.NoError(t, err)
			assert.Falsef(t, has, "key %q must be gone after Clear", key)
		}
	})
}
