// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package wallet defines the capability contract between the connection
// orchestrator and pluggable wallet backends, the shared data model, and the
// error taxonomy every backend failure is classified into. Wallet backends
// can be browser-extension-like local providers, hardware devices, remote
// approval services or embedded wallets; they differ only in how they
// fulfill the Adapter contract internally.
package wallet // import "walletmux.network/go-walletmux/wallet"

import "context"

// Adapter is the minimal, backend-agnostic surface the orchestrator drives.
//
// Contract: once Connect resolves successfully, Account and Network must
// reflect that same session until Disconnect or a backend-initiated change
// event.
type Adapter interface {
	// ID returns the adapter's unique identifier within a registry.
	ID() string

	// IsAvailable is a non-blocking, side-effect-free probe of whether this
	// backend can currently be used. It must not panic and reports false on
	// any detection failure.
	IsAvailable() bool

	// Connect establishes one session and returns the connected account.
	// It may internally suspend on an out-of-band approval flow; the
	// challenge artifact is handed to opts.OnChallenge. opts may be nil.
	Connect(ctx context.Context, opts *ConnectOptions) (*Account, error)

	// Disconnect ends the session. It is idempotent: disconnecting while
	// not connected is a no-op, never an error.
	Disconnect() error

	// Account returns a copy of the connected account, or nil if not
	// connected.
	Account() *Account

	// Network returns the session's network. Fails with a NotConnected
	// error if no session exists.
	Network() (*Network, error)

	// SignAndSubmit signs the transaction and, if submit is set, submits
	// it to the network.
	SignAndSubmit(ctx context.Context, tx Transaction, submit bool) (*SubmissionResult, error)

	// SignMessage signs an arbitrary message. Backends that cannot sign
	// free-form messages fail with an UnsupportedMethod error.
	SignMessage(ctx context.Context, msg []byte) (*SignedMessage, error)
}
