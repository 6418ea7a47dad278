// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package client

import (
	"walletmux.network/go-walletmux/wallet"
)

// EventBus topics. Handlers subscribed to a topic are invoked synchronously
// and in subscription order, so two consecutive adapter events are observed
// by every handler in adapter order.
const (
	topicConnect        = "walletmux:connect"
	topicDisconnect     = "walletmux:disconnect"
	topicAccountChanged = "walletmux:accountChanged"
	topicNetworkChanged = "walletmux:networkChanged"
	topicError          = "walletmux:error"
)

// OnConnect registers fn to be called with a copy of the account whenever a
// session is committed.
func (c *Client) OnConnect(fn func(wallet.Account)) {
	if err := c.bus.Subscribe(topicConnect, fn); err != nil {
		c.log.WithError(err).Panic("subscribing connect handler")
	}
}

// OffConnect removes a handler previously registered with OnConnect.
func (c *Client) OffConnect(fn func(wallet.Account)) {
	_ = c.bus.Unsubscribe(topicConnect, fn)
}

// OnDisconnect registers fn to be called whenever the session is cleared,
// regardless of whether the client or the backend initiated it.
func (c *Client) OnDisconnect(fn func()) {
	if err := c.bus.Subscribe(topicDisconnect, fn); err != nil {
		c.log.WithError(err).Panic("subscribing disconnect handler")
	}
}

// OffDisconnect removes a handler previously registered with OnDisconnect.
func (c *Client) OffDisconnect(fn func()) {
	_ = c.bus.Unsubscribe(topicDisconnect, fn)
}

// OnAccountChanged registers fn to be called with the new active account
// when the connected backend switches accounts.
func (c *Client) OnAccountChanged(fn func(wallet.Account)) {
	if err := c.bus.Subscribe(topicAccountChanged, fn); err != nil {
		c.log.WithError(err).Panic("subscribing accountChanged handler")
	}
}

// OffAccountChanged removes a handler previously registered with
// OnAccountChanged.
func (c *Client) OffAccountChanged(fn func(wallet.Account)) {
	_ = c.bus.Unsubscribe(topicAccountChanged, fn)
}

// OnNetworkChanged registers fn to be called with the new network when the
// connected backend switches networks.
func (c *Client) OnNetworkChanged(fn func(wallet.Network)) {
	if err := c.bus.Subscribe(topicNetworkChanged, fn); err != nil {
		c.log.WithError(err).Panic("subscribing networkChanged handler")
	}
}

// OffNetworkChanged removes a handler previously registered with
// OnNetworkChanged.
func (c *Client) OffNetworkChanged(fn func(wallet.Network)) {
	_ = c.bus.Unsubscribe(topicNetworkChanged, fn)
}

// OnError registers fn to be called with every classified error the client
// produces, in addition to the error being returned from the failing call.
func (c *Client) OnError(fn func(*wallet.Error)) {
	if err := c.bus.Subscribe(topicError, fn); err != nil {
		c.log.WithError(err).Panic("subscribing error handler")
	}
}

// OffError removes a handler previously registered with OnError.
func (c *Client) OffError(fn func(*wallet.Error)) {
	_ = c.bus.Unsubscribe(topicError, fn)
}

func (c *Client) publishConnect(acc wallet.Account) {
	c.bus.Publish(topicConnect, acc.Clone())
}

func (c *Client) publishDisconnect() {
	c.bus.Publish(topicDisconnect)
}

func (c *Client) publishError(err *wallet.Error) {
	c.bus.Publish(topicError, err)
}

// pump forwards events of the connected adapter until the stop channel
// closes or the adapter closes its event channel. A single goroutine per
// session combined with synchronous publishing preserves the adapter's
// event order for every handler.
func (c *Client) pump(events <-chan wallet.Event, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleAdapterEvent(ev, stop)
		}
	}
}

func (c *Client) handleAdapterEvent(ev wallet.Event, stop <-chan struct{}) {
	switch ev.Type {
	case wallet.EventAccountChanged:
		if ev.Account == nil {
			c.log.Warn("accountChanged event without account, dropping")
			return
		}
		acc := ev.Account.Clone()
		c.mutex.Lock()
		// A stop racing the pump means the session was already cleared.
		select {
		case <-stop:
			c.mutex.Unlock()
			return
		default:
		}
		c.account = &acc
		c.mutex.Unlock()
		c.bus.Publish(topicAccountChanged, acc.Clone())

	case wallet.EventNetworkChanged:
		if ev.Network == nil {
			c.log.Warn("networkChanged event without network, dropping")
			return
		}
		net := *ev.Network
		c.mutex.Lock()
		select {
		case <-stop:
			c.mutex.Unlock()
			return
		default:
		}
		if c.account != nil {
			c.account.Network = net
		}
		c.mutex.Unlock()
		c.bus.Publish(topicNetworkChanged, net)

	case wallet.EventDisconnect:
		// Backend-initiated disconnect. Run the same clear sequence as
		// Disconnect so local state and the session record are dropped and
		// exactly one disconnect event reaches the handlers.
		c.inflight.Lock()
		defer c.inflight.Unlock()
		if err := c.clear(); err != nil {
			c.log.WithError(err).Warn("clearing session after backend disconnect")
		}

	default:
		c.log.WithField("type", string(ev.Type)).Warn("unknown adapter event, dropping")
	}
}
