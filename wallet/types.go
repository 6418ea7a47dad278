// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"encoding/hex"

	"walletmux.network/go-walletmux/approval"
)

// Network identifies a ledger network instance. Networks are value types,
// immutable once constructed, and compared by ID.
type Network struct {
	// ID is the network identifier, e.g. "mainnet".
	ID string `json:"id"`
	// Name is the human-readable network name.
	Name string `json:"displayName,omitempty"`
	// Endpoint is the primary node endpoint of the network.
	Endpoint string `json:"endpoint,omitempty"`
	// AltEndpoint is an optional secondary endpoint, e.g. a JSON-RPC
	// endpoint next to a websocket one.
	AltEndpoint string `json:"altEndpoint,omitempty"`
}

// Equals reports whether two networks identify the same network instance.
func (n Network) Equals(other Network) bool { return n.ID == other.ID }

func (n Network) String() string { return n.ID }

// Account is the connected identity. Adapters return fresh copies; once a
// connection is committed, the orchestrator owns its copy exclusively.
type Account struct {
	// Address is the account's ledger address.
	Address string `json:"address"`
	// PublicKey is the account's public key, if the backend exposes it.
	PublicKey []byte `json:"publicKey,omitempty"`
	// Network is the network the account lives on.
	Network Network `json:"network"`
}

func (a Account) String() string { return a.Address }

// PublicKeyHex returns the hex encoding of the account's public key, or the
// empty string if it is not known.
func (a Account) PublicKeyHex() string { return hex.EncodeToString(a.PublicKey) }

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	c := a
	if a.PublicKey != nil {
		c.PublicKey = append([]byte(nil), a.PublicKey...)
	}
	return c
}

// Transaction is a serialized, backend-specific transaction payload. The
// core never inspects it.
type Transaction []byte

// SubmissionResult is the result of signing and optionally submitting a
// transaction.
type SubmissionResult struct {
	// TxID is the transaction hash or identifier.
	TxID string `json:"txid"`
	// Raw is the signed transaction blob, if the backend returns it.
	Raw []byte `json:"raw,omitempty"`
}

// SignedMessage is the result of signing an arbitrary message.
type SignedMessage struct {
	Message   []byte `json:"message"`
	Signature []byte `json:"signature"`
	PublicKey []byte `json:"publicKey,omitempty"`
}

// ConnectOptions carries per-connect parameters from the caller to the
// adapter.
type ConnectOptions struct {
	// Network is the caller's network preference. If nil, the
	// orchestrator's default network is used.
	Network *Network
	// OnChallenge receives the challenge artifact of an out-of-band
	// approval flow (pairing URI, redirect URL, device prompt), so that a
	// UI layer can display it. Optional.
	OnChallenge func(approval.Challenge)
}

// PreferredNetwork returns the options' network preference, falling back to
// the given default. A nil receiver is allowed.
func (o *ConnectOptions) PreferredNetwork(fallback *Network) *Network {
	if o != nil && o.Network != nil {
		return o.Network
	}
	return fallback
}
