// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletmux.network/go-walletmux/db/memorydb"
	"walletmux.network/go-walletmux/wallet"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	assert.Error(t, err, "no adapters")

	_, err = New(Options{Adapters: []wallet.Adapter{newMockAdapter("")}})
	assert.Error(t, err, "empty adapter id")

	_, err = New(Options{Adapters: []wallet.Adapter{
		newMockAdapter("mock"), newMockAdapter("mock"),
	}})
	assert.Error(t, err, "duplicate adapter id")
}

func TestConnect(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	storage := memorydb.NewDatabase()
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, Storage: storage})
	require.NoError(t, err)
	require.False(t, c.Connected())

	acc, err := c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, mock.account.Address, acc.Address)
	assert.True(t, c.Connected())
	assert.Equal(t, "mock", c.CurrentAdapterID())

	// The returned account is the caller's copy.
	acc.PublicKey[0] = 0xff
	assert.NotEqual(t, acc.PublicKey[0], c.Account().PublicKey[0])

	// The session record is committed under the adapter's id.
	rec, err := newSessionStore(storage).load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "mock", rec.AdapterID)
	assert.Equal(t, mock.account.Address, rec.Account.Address)
}

func TestConnectUnknownAdapter(t *testing.T) {
	t.Parallel()

	c, err := New(Options{Adapters: []wallet.Adapter{newMockAdapter("mock")}})
	require.NoError(t, err)

	_, err = c.Connect(context.Background(), "nope", nil)
	assert.True(t, wallet.IsKind(err, wallet.WalletNotFound))
	assert.False(t, c.Connected())
}

func TestConnectUnavailable(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	mock.available = false
	c, err := New(Options{Adapters: []wallet.Adapter{mock}})
	require.NoError(t, err)

	_, err = c.Connect(context.Background(), "mock", nil)
	assert.True(t, wallet.IsKind(err, wallet.WalletNotAvailable))
}

func TestConnectSameAdapterIsNoOp(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	c, err := New(Options{Adapters: []wallet.Adapter{mock}})
	require.NoError(t, err)

	first, err := c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)
	second, err := c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)
	assert.Equal(t, first.Address, second.Address)

	connects, _ := mock.calls()
	assert.Equal(t, 1, connects, "no second backend connect")
}

func TestConnectOtherWhileConnected(t *testing.T) {
	t.Parallel()

	first := newMockAdapter("first")
	second := newMockAdapter("second")
	storage := memorydb.NewDatabase()
	c, err := New(Options{Adapters: []wallet.Adapter{first, second}, Storage: storage})
	require.NoError(t, err)

	_, err = c.Connect(context.Background(), "first", nil)
	require.NoError(t, err)

	_, err = c.Connect(context.Background(), "second", nil)
	assert.True(t, wallet.IsKind(err, wallet.AlreadyConnected))

	// The committed session is untouched.
	assert.Equal(t, "first", c.CurrentAdapterID())
	assert.Equal(t, first.account.Address, c.Account().Address)
	rec, err := newSessionStore(storage).load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "first", rec.AdapterID)
	connects, _ := second.calls()
	assert.Zero(t, connects)
}

func TestConnectWhileInFlight(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	gate := make(chan struct{})
	mock.connectGate = gate
	c, err := New(Options{Adapters: []wallet.Adapter{mock}})
	require.NoError(t, err)

	var mu sync.Mutex
	connectEvents := 0
	c.OnConnect(func(wallet.Account) {
		mu.Lock()
		connectEvents++
		mu.Unlock()
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Connect(context.Background(), "mock", nil)
		firstDone <- err
	}()
	require.Eventually(t, func() bool {
		connects, _ := mock.calls()
		return connects == 1
	}, time.Second, time.Millisecond, "first connect reaches the backend")

	// A second Connect while the first is still pending must fail fast
	// and not reach the backend.
	_, err = c.Connect(context.Background(), "mock", nil)
	assert.True(t, wallet.IsKind(err, wallet.AlreadyConnected))
	connects, _ := mock.calls()
	assert.Equal(t, 1, connects)

	close(gate)
	require.NoError(t, <-firstDone)
	assert.True(t, c.Connected())

	connects, _ = mock.calls()
	assert.Equal(t, 1, connects, "exactly one backend connect")
	mu.Lock()
	assert.Equal(t, 1, connectEvents, "exactly one commit")
	mu.Unlock()
}

func TestConnectFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	mock.connectErr = codedReason{msg: "user dismissed", code: 4001}
	storage := memorydb.NewDatabase()
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, Storage: storage})
	require.NoError(t, err)

	_, err = c.Connect(context.Background(), "mock", nil)
	assert.True(t, wallet.IsKind(err, wallet.ConnectionRejected))
	assert.False(t, c.Connected())
	assert.Nil(t, c.Account())

	rec, err := newSessionStore(storage).load()
	require.NoError(t, err)
	assert.Nil(t, rec, "no record written for a failed connect")
}

func TestConnectNetworkPreference(t *testing.T) {
	t.Parallel()

	def := &wallet.Network{ID: "mainnet"}
	mock := newMockAdapter("mock")
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, DefaultNetwork: def})
	require.NoError(t, err)

	// Caller preference wins over the default.
	acc, err := c.Connect(context.Background(), "mock",
		&wallet.ConnectOptions{Network: &wallet.Network{ID: "devnet"}})
	require.NoError(t, err)
	assert.Equal(t, "devnet", acc.Network.ID)

	require.NoError(t, c.Disconnect())

	// Without a caller preference the default is used.
	acc, err = c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", acc.Network.ID)
}

func TestDisconnectIdempotent(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	c, err := New(Options{Adapters: []wallet.Adapter{mock}})
	require.NoError(t, err)

	var disconnects int
	c.OnDisconnect(func() { disconnects++ })

	_, err = c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)

	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect())

	assert.False(t, c.Connected())
	assert.Equal(t, 1, disconnects, "exactly one disconnect event")
	_, adapterDisconnects := mock.calls()
	assert.Equal(t, 1, adapterDisconnects)
}

func TestDisconnectAdapterErrorStillClears(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	mock.disconnectErr = codedReason{msg: "transport torn down", code: -32000}
	storage := memorydb.NewDatabase()
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, Storage: storage})
	require.NoError(t, err)

	var disconnected bool
	c.OnDisconnect(func() { disconnected = true })

	_, err = c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)

	err = c.Disconnect()
	assert.True(t, wallet.IsKind(err, wallet.ConnectionFailed))

	// Local state and the record are gone regardless of the backend error.
	assert.False(t, c.Connected())
	assert.True(t, disconnected)
	rec, lerr := newSessionStore(storage).load()
	require.NoError(t, lerr)
	assert.Nil(t, rec)
}

func TestReconnect(t *testing.T) {
	t.Parallel()

	storage := memorydb.NewDatabase()
	mock := newMockAdapter("mock")
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, Storage: storage})
	require.NoError(t, err)
	_, err = c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)

	// A second client over the same storage restores the session, running
	// the full backend connect again.
	mock2 := newMockAdapter("mock")
	c2, err := New(Options{Adapters: []wallet.Adapter{mock2}, Storage: storage})
	require.NoError(t, err)

	acc, err := c2.Reconnect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.True(t, c2.Connected())
	connects, _ := mock2.calls()
	assert.Equal(t, 1, connects)
}

func TestReconnectNoRecord(t *testing.T) {
	t.Parallel()

	c, err := New(Options{Adapters: []wallet.Adapter{newMockAdapter("mock")}})
	require.NoError(t, err)

	acc, err := c.Reconnect(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, acc)
	assert.False(t, c.Connected())
}

func TestReconnectStaleRecord(t *testing.T) {
	t.Parallel()

	storage := memorydb.NewDatabase()
	store := newSessionStore(storage)
	store.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	require.NoError(t, store.save("mock", newMockAdapter("mock").account))

	mock := newMockAdapter("mock")
	var connects int
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, Storage: storage})
	require.NoError(t, err)
	c.OnConnect(func(wallet.Account) { connects++ })

	acc, err := c.Reconnect(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, acc, "stale record must not be restored")
	assert.False(t, c.Connected())
	assert.Zero(t, connects)

	// The stale record was cleared on first read.
	rec, err := newSessionStore(storage).load()
	require.NoError(t, err)
	assert.Nil(t, rec)
	backendConnects, _ := mock.calls()
	assert.Zero(t, backendConnects, "no backend attempt for a stale record")
}

func TestReconnectFailureClearsRecord(t *testing.T) {
	t.Parallel()

	storage := memorydb.NewDatabase()
	require.NoError(t, newSessionStore(storage).save("mock", newMockAdapter("mock").account))

	mock := newMockAdapter("mock")
	mock.connectErr = codedReason{msg: "wallet locked", code: 4100}
	c, err := New(Options{Adapters: []wallet.Adapter{mock}, Storage: storage})
	require.NoError(t, err)

	_, err = c.Reconnect(context.Background())
	assert.Error(t, err)

	rec, lerr := newSessionStore(storage).load()
	require.NoError(t, lerr)
	assert.Nil(t, rec, "failed restoration clears the record")
}

func TestAutoConnect(t *testing.T) {
	t.Parallel()

	storage := memorydb.NewDatabase()
	require.NoError(t, newSessionStore(storage).save("mock", newMockAdapter("mock").account))

	mock := newMockAdapter("mock")
	c, err := New(Options{
		Adapters:    []wallet.Adapter{mock},
		Storage:     storage,
		AutoConnect: true,
	})
	require.NoError(t, err)
	assert.True(t, c.Connected())
	assert.Equal(t, "mock", c.CurrentAdapterID())
}

func TestSignNotConnected(t *testing.T) {
	t.Parallel()

	c, err := New(Options{Adapters: []wallet.Adapter{newMockAdapter("mock")}})
	require.NoError(t, err)

	_, err = c.SignAndSubmit(context.Background(), wallet.Transaction("tx"), true)
	assert.True(t, wallet.IsKind(err, wallet.NotConnected))
	_, err = c.SignMessage(context.Background(), []byte("msg"))
	assert.True(t, wallet.IsKind(err, wallet.NotConnected))
}

func TestSignRejectedClassified(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	mock.signErr = codedReason{msg: "declined on device", code: 4001}
	c, err := New(Options{Adapters: []wallet.Adapter{mock}})
	require.NoError(t, err)

	var published *wallet.Error
	c.OnError(func(e *wallet.Error) { published = e })

	_, err = c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)

	_, err = c.SignAndSubmit(context.Background(), wallet.Transaction("tx"), false)
	assert.True(t, wallet.IsKind(err, wallet.SignRejected))
	require.NotNil(t, published, "classified error reaches the error topic")
	assert.Equal(t, wallet.SignRejected, published.Kind)
}

func TestSignAndSubmit(t *testing.T) {
	t.Parallel()

	mock := newMockAdapter("mock")
	c, err := New(Options{Adapters: []wallet.Adapter{mock}})
	require.NoError(t, err)
	_, err = c.Connect(context.Background(), "mock", nil)
	require.NoError(t, err)

	res, err := c.SignAndSubmit(context.Background(), wallet.Transaction("tx"), true)
	require.NoError(t, err)
	assert.Equal(t, "mock-txid", res.TxID)

	msg := []byte("prove it")
	signed, err := c.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, msg, signed.Message)
	assert.NotEmpty(t, signed.Signature)
}

func TestRegisteredAdapters(t *testing.T) {
	t.Parallel()

	c, err := New(Options{Adapters: []wallet.Adapter{
		newMockAdapter("zeta"), newMockAdapter("alpha"), newMockAdapter("mid"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, c.RegisteredAdapters())
}
