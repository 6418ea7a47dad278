// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package sim

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletmux.network/go-walletmux/approval"
	"walletmux.network/go-walletmux/wallet"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	a := New()
	require.True(t, a.IsAvailable())
	require.Nil(t, a.Account())

	var challenge approval.Challenge
	acc, err := a.Connect(context.Background(), &wallet.ConnectOptions{
		OnChallenge: func(c approval.Challenge) { challenge = c },
	})
	require.NoError(t, err)
	require.NotNil(t, acc)

	assert.True(t, strings.HasPrefix(acc.Address, "r"), "address %q", acc.Address)
	assert.Equal(t, DefaultNetwork.ID, acc.Network.ID)
	assert.Equal(t, approval.KindQR, challenge.Kind)
	assert.Equal(t, "sim:pair:"+acc.Address, challenge.Payload)
	assert.NotEmpty(t, challenge.OperationID)

	got := a.Account()
	require.NotNil(t, got)
	assert.Equal(t, acc.Address, got.Address)

	net, err := a.Network()
	require.NoError(t, err)
	assert.Equal(t, DefaultNetwork.ID, net.ID)
}

func TestConnectNetworkPreference(t *testing.T) {
	t.Parallel()

	a := New()
	acc, err := a.Connect(context.Background(), &wallet.ConnectOptions{
		Network: &wallet.Network{ID: "sim-devnet"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sim-devnet", acc.Network.ID)
}

func TestConnectRejected(t *testing.T) {
	t.Parallel()

	a := New(WithConnectRejection("no thanks"))
	_, err := a.Connect(context.Background(), nil)
	require.Error(t, err)

	var rej *approval.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "no thanks", rej.Reason)
	assert.True(t, wallet.IsKind(wallet.Classify(wallet.OpConnect, err), wallet.ConnectionRejected))
	assert.Nil(t, a.Account(), "no state after rejection")
}

func TestConnectExpires(t *testing.T) {
	t.Parallel()

	a := New(WithApprovalDelay(time.Second), WithApprovalTimeout(20*time.Millisecond))
	_, err := a.Connect(context.Background(), nil)
	assert.True(t, errors.Is(err, approval.ErrExpired))
}

func TestDisconnectIdempotent(t *testing.T) {
	t.Parallel()

	a := New()
	assert.NoError(t, a.Disconnect(), "disconnect before connect")

	_, err := a.Connect(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, a.Disconnect())
	assert.NoError(t, a.Disconnect())
	assert.Nil(t, a.Account())
}

func TestSign(t *testing.T) {
	t.Parallel()

	a := New()
	acc, err := a.Connect(context.Background(), nil)
	require.NoError(t, err)

	tx := wallet.Transaction("payment of 10 to rSOMEBODY")
	res, err := a.SignAndSubmit(context.Background(), tx, true)
	require.NoError(t, err)
	assert.NotEmpty(t, res.TxID)
	require.NotEmpty(t, res.Raw)

	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), acc.PublicKey)
	require.NotNil(t, x)
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	digest := sha256.Sum256(tx)
	assert.True(t, ecdsa.VerifyASN1(pub, digest[:], res.Raw))

	// Without submit only the raw signature is returned.
	res, err = a.SignAndSubmit(context.Background(), tx, false)
	require.NoError(t, err)
	assert.Empty(t, res.TxID)
	assert.NotEmpty(t, res.Raw)
}

func TestSignMessage(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.Connect(context.Background(), nil)
	require.NoError(t, err)

	msg := []byte("prove account ownership")
	signed, err := a.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, msg, signed.Message)

	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), signed.PublicKey)
	require.NotNil(t, x)
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	digest := sha256.Sum256(msg)
	assert.True(t, ecdsa.VerifyASN1(pub, digest[:], signed.Signature))
}

func TestSignRejected(t *testing.T) {
	t.Parallel()

	a := New(WithSignRejection("declined on phone"))
	_, err := a.Connect(context.Background(), nil)
	require.NoError(t, err)

	_, err = a.SignAndSubmit(context.Background(), wallet.Transaction("tx"), true)
	require.Error(t, err)
	assert.True(t, wallet.IsKind(wallet.Classify(wallet.OpSign, err), wallet.SignRejected))
}

func TestSignNotConnected(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.SignAndSubmit(context.Background(), wallet.Transaction("tx"), true)
	assert.True(t, wallet.IsKind(err, wallet.NotConnected))
}

func TestEvents(t *testing.T) {
	t.Parallel()

	a := New()
	first, err := a.Connect(context.Background(), nil)
	require.NoError(t, err)
	events := a.Events()
	require.NotNil(t, events)

	second, err := a.SwitchAccount()
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, second.Address)
	ev := <-events
	assert.Equal(t, wallet.EventAccountChanged, ev.Type)
	require.NotNil(t, ev.Account)
	assert.Equal(t, second.Address, ev.Account.Address)

	require.NoError(t, a.SwitchNetwork(wallet.Network{ID: "sim-devnet"}))
	ev = <-events
	assert.Equal(t, wallet.EventNetworkChanged, ev.Type)
	require.NotNil(t, ev.Network)
	assert.Equal(t, "sim-devnet", ev.Network.ID)

	require.NoError(t, a.RemoteDisconnect())
	ev = <-events
	assert.Equal(t, wallet.EventDisconnect, ev.Type)

	// Disconnect closes the channel.
	require.NoError(t, a.Disconnect())
	_, ok := <-events
	assert.False(t, ok)
}
