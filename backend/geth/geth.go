// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package geth implements a wallet backend over the JSON-RPC interface of a
// local Ethereum node with unlocked accounts. The node itself is the
// approver, so operations resolve without an out-of-band flow; structured
// JSON-RPC errors flow unchanged into the error classifier.
package geth // import "walletmux.network/go-walletmux/backend/geth"

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/log"
	"walletmux.network/go-walletmux/wallet"
)

// DefaultID is the adapter id the node backend registers under.
const DefaultID = "geth"

// Default per-call timeouts. The probe must answer fast; a node that takes
// longer than probeTimeout for web3_clientVersion is not usable anyway.
const (
	probeTimeout       = 2 * time.Second
	defaultCallTimeout = 15 * time.Second
)

// Config configures the node backend.
type Config struct {
	// URL is the node's RPC endpoint. Required unless Client is set.
	URL string
	// Client overrides the RPC client, e.g. an in-process one in tests.
	Client *rpc.Client
	// ID overrides the adapter id. Defaults to DefaultID.
	ID string
	// Timeout bounds individual RPC calls. Defaults to 15s.
	Timeout time.Duration
}

// Adapter is the local-node wallet backend. It is safe for concurrent use.
// Nodes push no account events over plain RPC, so the adapter is not an
// event source.
type Adapter struct {
	id      string
	url     string
	timeout time.Duration
	log     log.Logger

	mu      sync.Mutex
	client  *rpc.Client
	owned   bool // whether Disconnect should close the client
	account *wallet.Account
}

var _ wallet.Adapter = (*Adapter)(nil)

// New creates a node backend for the given endpoint.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" && cfg.Client == nil {
		return nil, errors.New("geth backend needs an RPC URL or client")
	}
	a := &Adapter{
		id:      cfg.ID,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  cfg.Client,
	}
	if a.id == "" {
		a.id = DefaultID
	}
	if a.timeout <= 0 {
		a.timeout = defaultCallTimeout
	}
	a.log = log.WithField("adapter", a.id)
	return a, nil
}

func (a *Adapter) ID() string { return a.id }

// IsAvailable probes the node with web3_clientVersion under a short
// deadline.
func (a *Adapter) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	client, release, err := a.rpcClient(ctx)
	if err != nil {
		return false
	}
	defer release()
	var version string
	return client.CallContext(ctx, &version, "web3_clientVersion") == nil
}

// rpcClient returns the session client, or dials a temporary one. The
// release func closes a temporary client and is a no-op otherwise.
func (a *Adapter) rpcClient(ctx context.Context) (*rpc.Client, func(), error) {
	a.mu.Lock()
	if a.client != nil {
		client := a.client
		a.mu.Unlock()
		return client, func() {}, nil
	}
	a.mu.Unlock()

	client, err := rpc.DialContext(ctx, a.url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dialing node")
	}
	return client, client.Close, nil
}

// Connect verifies the node is reachable, takes its first unlocked account
// and reads the network id. A caller preference for a different network
// than the node's fails the connect.
func (a *Adapter) Connect(ctx context.Context, opts *wallet.ConnectOptions) (*wallet.Account, error) {
	a.mu.Lock()
	if a.account != nil {
		a.mu.Unlock()
		return nil, wallet.NewError(wallet.AlreadyConnected, "node session already open")
	}
	client, owned := a.client, false
	a.mu.Unlock()

	if client == nil {
		var err error
		client, err = rpc.DialContext(ctx, a.url)
		if err != nil {
			return nil, wallet.WrapError(wallet.WalletNotAvailable, err, "dialing node")
		}
		owned = true
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var addresses []string
	if err := client.CallContext(cctx, &addresses, "eth_accounts"); err != nil {
		if owned {
			client.Close()
		}
		return nil, err
	}
	if len(addresses) == 0 {
		if owned {
			client.Close()
		}
		return nil, wallet.NewError(wallet.ConnectionFailed, "node exposes no accounts")
	}

	var version string
	if err := client.CallContext(cctx, &version, "net_version"); err != nil {
		if owned {
			client.Close()
		}
		return nil, err
	}

	network := wallet.Network{ID: version, Endpoint: a.url}
	if requested := opts.PreferredNetwork(nil); requested != nil && !network.Equals(*requested) {
		if owned {
			client.Close()
		}
		return nil, wallet.NewError(wallet.NetworkMismatch,
			"node is on network "+version+", requested "+requested.ID)
	}

	acc := wallet.Account{Address: addresses[0], Network: network}
	a.mu.Lock()
	a.client = client
	a.owned = owned
	stored := acc.Clone()
	a.account = &stored
	a.mu.Unlock()

	a.log.WithField("address", acc.Address).Debug("node session open")
	result := acc.Clone()
	return &result, nil
}

// Disconnect closes the session client if the adapter dialed it. It is
// idempotent.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil
	}
	if a.owned && a.client != nil {
		a.client.Close()
		a.client = nil
	}
	a.owned = false
	a.account = nil
	a.log.Debug("node session closed")
	return nil
}

func (a *Adapter) Account() *wallet.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil
	}
	acc := a.account.Clone()
	return &acc
}

// Network reads the node's current network id.
func (a *Adapter) Network() (*wallet.Network, error) {
	a.mu.Lock()
	client, account := a.client, a.account
	a.mu.Unlock()
	if account == nil {
		return nil, wallet.NewError(wallet.NotConnected, "no node session")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var version string
	if err := client.CallContext(ctx, &version, "net_version"); err != nil {
		return nil, err
	}
	net := wallet.Network{ID: version, Endpoint: a.url}
	return &net, nil
}

// signedTx is the result shape of eth_signTransaction.
type signedTx struct {
	Raw hexutil.Bytes `json:"raw"`
}

// SignAndSubmit hands the JSON transaction object to the node. With submit
// set it goes through eth_sendTransaction and the transaction hash is
// returned; otherwise eth_signTransaction returns the raw signed blob.
func (a *Adapter) SignAndSubmit(ctx context.Context, tx wallet.Transaction, submit bool) (*wallet.SubmissionResult, error) {
	client, err := a.sessionClient()
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if submit {
		var hash string
		if err := client.CallContext(cctx, &hash, "eth_sendTransaction", json.RawMessage(tx)); err != nil {
			return nil, err
		}
		return &wallet.SubmissionResult{TxID: hash}, nil
	}

	var signed signedTx
	if err := client.CallContext(cctx, &signed, "eth_signTransaction", json.RawMessage(tx)); err != nil {
		return nil, err
	}
	return &wallet.SubmissionResult{Raw: signed.Raw}, nil
}

// SignMessage signs an arbitrary message via personal_sign.
func (a *Adapter) SignMessage(ctx context.Context, msg []byte) (*wallet.SignedMessage, error) {
	a.mu.Lock()
	if a.account == nil {
		a.mu.Unlock()
		return nil, wallet.NewError(wallet.NotConnected, "no node session")
	}
	client, address := a.client, a.account.Address
	a.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	var sig hexutil.Bytes
	if err := client.CallContext(cctx, &sig, "personal_sign", hexutil.Encode(msg), address); err != nil {
		return nil, err
	}
	return &wallet.SignedMessage{Message: msg, Signature: sig}, nil
}

func (a *Adapter) sessionClient() (*rpc.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil, wallet.NewError(wallet.NotConnected, "no node session")
	}
	return a.client, nil
}
