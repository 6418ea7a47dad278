// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetwork_Equals(t *testing.T) {
	t.Parallel()

	a := Network{ID: "mainnet", Endpoint: "wss://node-a.example"}
	b := Network{ID: "mainnet", Endpoint: "wss://node-b.example", AltEndpoint: "https://rpc.example"}
	c := Network{ID: "testnet"}

	assert.True(t, a.Equals(b), "networks compare by id only")
	assert.False(t, a.Equals(c))
}

func TestAccount_Clone(t *testing.T) {
	t.Parallel()

	orig := Account{
		Address:   "rASDexample",
		PublicKey: []byte{1, 2, 3},
		Network:   Network{ID: "mainnet"},
	}
	clone := orig.Clone()
	clone.PublicKey[0] = 9

	assert.Equal(t, byte(1), orig.PublicKey[0], "clone must not share the key slice")
	assert.Equal(t, orig.Address, clone.Address)
}

func TestConnectOptions_PreferredNetwork(t *testing.T) {
	t.Parallel()

	def := &Network{ID: "mainnet"}
	devnet := &Network{ID: "devnet"}

	assert.Equal(t, def, (*ConnectOptions)(nil).PreferredNetwork(def))
	assert.Equal(t, def, (&ConnectOptions{}).PreferredNetwork(def))
	assert.Equal(t, devnet, (&ConnectOptions{Network: devnet}).PreferredNetwork(def))
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NotConnected: no session", NewError(NotConnected, "no session").Error())
	wrapped := WrapError(SignFailed, assert.AnError, "sign")
	assert.Contains(t, wrapped.Error(), "SignFailed: sign")
	assert.Contains(t, wrapped.Error(), assert.AnError.Error())
}
