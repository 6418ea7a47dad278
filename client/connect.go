// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package client

import (
	"context"

	"walletmux.network/go-walletmux/wallet"
)

// Connect establishes a session through the adapter registered under
// adapterID. While a session is committed, connecting a different adapter
// fails with AlreadyConnected; connecting the same adapter again is a no-op
// returning the existing account. A second Connect arriving while one is
// still in flight is rejected instead of running a second commit sequence.
func (c *Client) Connect(ctx context.Context, adapterID string, opts *wallet.ConnectOptions) (*wallet.Account, error) {
	adapter, ok := c.adapters[adapterID]
	if !ok {
		return nil, c.fail(wallet.WalletNotFound, "no adapter registered under "+adapterID)
	}

	if !c.inflight.TryLock() {
		return nil, c.fail(wallet.AlreadyConnected, "another connect is in flight")
	}
	defer c.inflight.Unlock()

	c.mutex.RLock()
	currentID, account := c.currentID, c.account
	connected := c.current != nil
	c.mutex.RUnlock()

	if connected {
		if currentID == adapterID {
			acc := account.Clone()
			return &acc, nil
		}
		return nil, c.fail(wallet.AlreadyConnected, "connected to "+currentID)
	}

	if !adapter.IsAvailable() {
		return nil, c.fail(wallet.WalletNotAvailable, adapterID+" is not available")
	}

	merged := &wallet.ConnectOptions{Network: opts.PreferredNetwork(c.defaults)}
	if opts != nil {
		merged.OnChallenge = opts.OnChallenge
	}

	acc, err := adapter.Connect(ctx, merged)
	if err != nil {
		// The slot is left untouched; the classified cause propagates.
		return nil, c.classified(wallet.OpConnect, err)
	}
	if acc == nil {
		return nil, c.classified(wallet.OpConnect,
			wallet.NewError(wallet.ConnectionFailed, adapterID+" resolved without an account"))
	}

	committed := c.commit(adapterID, adapter, *acc)
	return &committed, nil
}

// commit runs the single ordered commit sequence: update the in-memory
// slot, write the session record, subscribe to adapter events if the
// capability is present, emit the connect event. The in-flight guard
// ensures no second commit or clear interleaves.
func (c *Client) commit(adapterID string, adapter wallet.Adapter, acc wallet.Account) wallet.Account {
	acc = acc.Clone()

	c.mutex.Lock()
	c.current = adapter
	c.currentID = adapterID
	stored := acc.Clone()
	c.account = &stored
	c.mutex.Unlock()

	if err := c.sessions.save(adapterID, acc); err != nil {
		// The session stays committed; only restoration after a restart is
		// affected.
		c.log.WithError(err).Warn("persisting session record failed")
		c.publishError(wallet.WrapError(wallet.UnknownError, err, "persisting session"))
	}

	if src, ok := adapter.(wallet.EventSource); ok {
		stop := make(chan struct{})
		c.mutex.Lock()
		c.pumpStop = stop
		c.mutex.Unlock()
		go c.pump(src.Events(), stop)
	}

	c.log.WithField("adapter", adapterID).WithField("address", acc.Address).Info("wallet connected")
	c.publishConnect(acc)
	return acc
}

// Disconnect ends the committed session. It is idempotent. Local state and
// the stored session record are cleared even if the adapter's disconnect
// fails, because local state must never outlive a backend session it no
// longer controls.
func (c *Client) Disconnect() error {
	c.inflight.Lock()
	defer c.inflight.Unlock()
	return c.clear()
}

// clear runs the ordered clear sequence under the in-flight guard.
func (c *Client) clear() error {
	c.mutex.Lock()
	if c.current == nil {
		c.mutex.Unlock()
		return nil
	}
	adapter, adapterID := c.current, c.currentID
	if c.pumpStop != nil {
		close(c.pumpStop)
		c.pumpStop = nil
	}
	c.current, c.currentID, c.account = nil, "", nil
	c.mutex.Unlock()

	err := adapter.Disconnect()

	if cerr := c.sessions.clear(); cerr != nil {
		c.log.WithError(cerr).Warn("clearing session record failed")
	}
	c.log.WithField("adapter", adapterID).Info("wallet disconnected")
	c.publishDisconnect()

	if err != nil {
		return c.classified(wallet.OpDisconnect, err)
	}
	return nil
}

// Reconnect attempts to re-establish the persisted session. It returns
// (nil, nil) if no trustworthy record exists. Reconnection re-runs the full
// backend authentication; the stored account only decides whether to
// attempt it. A record whose backend rejects or is unavailable is cleared,
// so a single bad record cannot cause an attempt on every restart.
func (c *Client) Reconnect(ctx context.Context) (*wallet.Account, error) {
	rec, err := c.sessions.load()
	if err != nil {
		return nil, c.classified(wallet.OpConnect, err)
	}
	if rec == nil {
		return nil, nil
	}

	acc, err := c.Connect(ctx, rec.AdapterID, nil)
	if err != nil {
		if cerr := c.sessions.clear(); cerr != nil {
			c.log.WithError(cerr).Warn("clearing failed session record failed")
		}
		return nil, err
	}
	return acc, nil
}
