// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package client implements the connection orchestrator: the single
// authority over the "current connection" slot. It registers wallet
// adapters, enforces the single-active-connection invariant, persists and
// validates session state across restarts, re-emits adapter events, and
// surfaces every failure as a classified wallet error.
//
// A Client is created once by the host and passed to whatever needs it;
// there is no package-level instance.
package client // import "walletmux.network/go-walletmux/client"

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/db"
	"walletmux.network/go-walletmux/db/memorydb"
	"walletmux.network/go-walletmux/log"
	psync "walletmux.network/go-walletmux/pkg/sync"
	"walletmux.network/go-walletmux/wallet"
)

// defaultAutoConnectTimeout bounds the silent session restoration attempted
// during New.
const defaultAutoConnectTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	// Adapters is the set of wallet backends the client can connect to.
	// The registry is built once at construction and is immutable
	// afterwards. Required, and adapter ids must be unique and non-empty.
	Adapters []wallet.Adapter

	// DefaultNetwork is merged into connect options when the caller states
	// no network preference. Optional.
	DefaultNetwork *wallet.Network

	// AutoConnect attempts to silently restore the persisted session
	// during New. Restoration failures are reported through the error
	// event, not as a New error.
	AutoConnect bool

	// AutoConnectTimeout bounds the restoration attempt. Defaults to 30s.
	AutoConnectTimeout time.Duration

	// Storage is the store the session record is persisted through.
	// Defaults to a fresh in-memory store, in which case sessions do not
	// survive the process.
	Storage db.Database
}

// Client is the connection orchestrator. It is safe for concurrent use.
type Client struct {
	adapters map[string]wallet.Adapter // Immutable after construction.
	defaults *wallet.Network
	sessions *sessionStore
	bus      EventBus.Bus
	log      log.Logger

	// inflight serializes the connect/disconnect commit sequences. A
	// second concurrent Connect must never run a second commit sequence.
	inflight psync.Mutex

	mutex     sync.RWMutex // Protects the fields below.
	current   wallet.Adapter
	currentID string
	account   *wallet.Account
	pumpStop  chan struct{} // Stops the adapter event pump, if subscribed.
}

// New creates a connection orchestrator over the given adapters.
func New(opts Options) (*Client, error) {
	if len(opts.Adapters) == 0 {
		return nil, errors.New("client needs at least one adapter")
	}

	adapters := make(map[string]wallet.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		id := a.ID()
		if id == "" {
			return nil, errors.New("adapter with empty id")
		}
		if _, ok := adapters[id]; ok {
			return nil, errors.Errorf("duplicate adapter id %q", id)
		}
		adapters[id] = a
	}

	storage := opts.Storage
	if storage == nil {
		storage = memorydb.NewDatabase()
	}

	c := &Client{
		adapters: adapters,
		defaults: opts.DefaultNetwork,
		sessions: newSessionStore(storage),
		bus:      EventBus.New(),
		log:      log.WithField("component", "walletmux"),
	}

	if opts.AutoConnect {
		timeout := opts.AutoConnectTimeout
		if timeout <= 0 {
			timeout = defaultAutoConnectTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := c.Reconnect(ctx); err != nil {
			c.log.WithError(err).Warn("startup session restoration failed")
		}
	}

	return c, nil
}

// Connected reports whether a session is committed.
func (c *Client) Connected() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.current != nil
}

// Account returns a copy of the committed account, or nil.
func (c *Client) Account() *wallet.Account {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.account == nil {
		return nil
	}
	acc := c.account.Clone()
	return &acc
}

// CurrentAdapterID returns the committed adapter's id, or the empty string.
func (c *Client) CurrentAdapterID() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.currentID
}

// RegisteredAdapters returns the sorted ids of all registered adapters.
func (c *Client) RegisteredAdapters() []string {
	ids := make([]string, 0, len(c.adapters))
	for id := range c.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SignAndSubmit signs the transaction with the connected wallet and, if
// submit is set, submits it to the network.
func (c *Client) SignAndSubmit(ctx context.Context, tx wallet.Transaction, submit bool) (*wallet.SubmissionResult, error) {
	adapter := c.currentAdapter()
	if adapter == nil {
		return nil, c.fail(wallet.NotConnected, "no wallet connected")
	}
	res, err := adapter.SignAndSubmit(ctx, tx, submit)
	if err != nil {
		return nil, c.classified(wallet.OpSign, err)
	}
	return res, nil
}

// SignMessage signs an arbitrary message with the connected wallet.
func (c *Client) SignMessage(ctx context.Context, msg []byte) (*wallet.SignedMessage, error) {
	adapter := c.currentAdapter()
	if adapter == nil {
		return nil, c.fail(wallet.NotConnected, "no wallet connected")
	}
	signed, err := adapter.SignMessage(ctx, msg)
	if err != nil {
		return nil, c.classified(wallet.OpSignMessage, err)
	}
	return signed, nil
}

func (c *Client) currentAdapter() wallet.Adapter {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.current
}

// classified classifies an error, publishes it on the error topic and
// returns it.
func (c *Client) classified(op wallet.Op, err error) *wallet.Error {
	cerr := wallet.Classify(op, err)
	c.publishError(cerr)
	return cerr
}

// fail creates a classified error of the client's own making, publishes it
// on the error topic and returns it.
func (c *Client) fail(kind wallet.Kind, msg string) *wallet.Error {
	cerr := wallet.NewError(kind, msg)
	c.publishError(cerr)
	return cerr
}
