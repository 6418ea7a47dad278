// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package client

import (
	"context"
	"sync"

	"walletmux.network/go-walletmux/wallet"
)

// mockAdapter is a scriptable in-memory adapter for orchestrator tests. It
// is deliberately not an EventSource; eventfulMock adds that capability.
type mockAdapter struct {
	id        string
	available bool
	account   wallet.Account

	connectErr    error
	disconnectErr error
	signErr       error
	connectGate   chan struct{} // if set, Connect blocks until it closes

	mu              sync.Mutex
	connected       bool
	connectCalls    int
	disconnectCalls int
	lastOpts        *wallet.ConnectOptions
}

func newMockAdapter(id string) *mockAdapter {
	return &mockAdapter{
		id:        id,
		available: true,
		account: wallet.Account{
			Address:   "rASDFmockaddress" + id,
			PublicKey: []byte{0xed, 0x01, 0x02},
			Network:   wallet.Network{ID: "testnet", Endpoint: "wss://test.example"},
		},
	}
}

func (m *mockAdapter) ID() string { return m.id }

func (m *mockAdapter) IsAvailable() bool { return m.available }

func (m *mockAdapter) Connect(_ context.Context, opts *wallet.ConnectOptions) (*wallet.Account, error) {
	m.mu.Lock()
	m.connectCalls++
	m.lastOpts = opts
	gate := m.connectGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	m.connected = true
	acc := m.account.Clone()
	if net := opts.PreferredNetwork(nil); net != nil {
		acc.Network = *net
	}
	return &acc, nil
}

func (m *mockAdapter) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalls++
	m.connected = false
	return m.disconnectErr
}

func (m *mockAdapter) Account() *wallet.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil
	}
	acc := m.account.Clone()
	return &acc
}

func (m *mockAdapter) Network() (*wallet.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, wallet.NewError(wallet.NotConnected, "mock not connected")
	}
	net := m.account.Network
	return &net, nil
}

func (m *mockAdapter) SignAndSubmit(context.Context, wallet.Transaction, bool) (*wallet.SubmissionResult, error) {
	if m.signErr != nil {
		return nil, m.signErr
	}
	return &wallet.SubmissionResult{TxID: "mock-txid"}, nil
}

func (m *mockAdapter) SignMessage(_ context.Context, msg []byte) (*wallet.SignedMessage, error) {
	if m.signErr != nil {
		return nil, m.signErr
	}
	return &wallet.SignedMessage{Message: msg, Signature: []byte("mock-sig")}, nil
}

func (m *mockAdapter) calls() (connects, disconnects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls, m.disconnectCalls
}

// eventfulMock is a mockAdapter that also exposes the event capability.
type eventfulMock struct {
	*mockAdapter
	events chan wallet.Event
}

func newEventfulMock(id string) *eventfulMock {
	return &eventfulMock{
		mockAdapter: newMockAdapter(id),
		events:      make(chan wallet.Event, 8),
	}
}

func (m *eventfulMock) Events() <-chan wallet.Event { return m.events }

// codedReason is a backend error carrying a structured reason code.
type codedReason struct {
	msg  string
	code int
}

func (e codedReason) Error() string   { return e.msg }
func (e codedReason) ReasonCode() int { return e.code }
