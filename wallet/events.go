// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package wallet

// EventType enumerates backend-initiated session changes.
type EventType string

// The backend-initiated event types.
const (
	// EventDisconnect signals that the backend ended the session.
	EventDisconnect EventType = "disconnect"
	// EventAccountChanged signals that the backend switched to a different
	// account within the same session.
	EventAccountChanged EventType = "accountChanged"
	// EventNetworkChanged signals that the backend switched networks.
	EventNetworkChanged EventType = "networkChanged"
)

// Event is a single backend-initiated change.
type Event struct {
	Type    EventType
	Account *Account // Set for EventAccountChanged.
	Network *Network // Set for EventNetworkChanged.
}

// EventSource is the optional event emission capability of an adapter.
// Adapters that support live backend-initiated changes implement it;
// strictly request/response backends do not. The orchestrator checks for
// this narrower interface explicitly instead of probing method presence.
//
// The returned channel must deliver events in the order the backend raised
// them and must be closed when the adapter disconnects for good.
type EventSource interface {
	Events() <-chan Event
}
