// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package sim implements a simulated wallet backend. It holds a freshly
// generated ECDSA key in memory, runs the full out-of-band approval flow
// with itself as the approver, and exposes hooks to script rejections and
// remote events. It backs tests and demo environments; it never talks to a
// network.
package sim // import "walletmux.network/go-walletmux/backend/sim"

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"walletmux.network/go-walletmux/approval"
	"walletmux.network/go-walletmux/log"
	"walletmux.network/go-walletmux/wallet"
)

// DefaultID is the adapter id the simulated wallet registers under.
const DefaultID = "sim"

// defaultApprovalTimeout bounds the simulated approval flow. The simulated
// approver answers within the configured delay, so this only triggers when a
// test scripts a delay past it.
const defaultApprovalTimeout = 10 * time.Second

// DefaultNetwork is the network the simulated wallet reports when the
// caller states no preference.
var DefaultNetwork = wallet.Network{
	ID:       "sim-testnet",
	Name:     "Simulated Testnet",
	Endpoint: "wss://sim.invalid",
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithID overrides the adapter id, so tests can register several simulated
// wallets side by side.
func WithID(id string) Option { return func(a *Adapter) { a.id = id } }

// WithUnavailable makes the adapter report itself as not available.
func WithUnavailable() Option { return func(a *Adapter) { a.available = false } }

// WithConnectRejection scripts the simulated approver to reject the
// connection approval with the given reason.
func WithConnectRejection(reason string) Option {
	return func(a *Adapter) { a.rejectConnect = reason }
}

// WithSignRejection scripts the simulated wallet to reject signing requests
// with the given reason.
func WithSignRejection(reason string) Option {
	return func(a *Adapter) { a.rejectSign = reason }
}

// WithApprovalDelay delays the simulated approver's verdict.
func WithApprovalDelay(d time.Duration) Option {
	return func(a *Adapter) { a.delay = d }
}

// WithApprovalTimeout overrides the approval deadline.
func WithApprovalTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// Adapter is the simulated wallet backend. It is safe for concurrent use.
type Adapter struct {
	id            string
	available     bool
	delay         time.Duration
	timeout       time.Duration
	rejectConnect string
	rejectSign    string
	log           log.Logger

	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	account *wallet.Account
	events  chan wallet.Event
}

var (
	_ wallet.Adapter     = (*Adapter)(nil)
	_ wallet.EventSource = (*Adapter)(nil)
)

// New creates a simulated wallet backend.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		id:        DefaultID,
		available: true,
		timeout:   defaultApprovalTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = log.WithField("adapter", a.id)
	return a
}

func (a *Adapter) ID() string { return a.id }

func (a *Adapter) IsAvailable() bool { return a.available }

// Connect generates a fresh key pair and runs the approval flow against the
// simulated approver. The challenge payload is a pairing URI for the new
// account, handed to opts.OnChallenge like any real out-of-band backend
// would.
func (a *Adapter) Connect(ctx context.Context, opts *wallet.ConnectOptions) (*wallet.Account, error) {
	a.mu.Lock()
	if a.account != nil {
		a.mu.Unlock()
		return nil, wallet.NewError(wallet.AlreadyConnected, "simulated wallet already connected")
	}
	a.mu.Unlock()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, wallet.WrapError(wallet.ConnectionFailed, err, "generating key")
	}
	pub := elliptic.MarshalCompressed(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	address := EncodeAddress(pub)

	network := DefaultNetwork
	if net := opts.PreferredNetwork(nil); net != nil {
		network = *net
	}
	account := wallet.Account{Address: address, PublicKey: pub, Network: network}

	verdicts := make(chan approval.Verdict, 1)
	machine, err := approval.New(approval.Op{
		Kind:    approval.KindQR,
		Timeout: a.timeout,
		Produce: func(context.Context) (string, error) {
			return "sim:pair:" + address, nil
		},
		OnChallenge: challengeHook(opts),
		Push:        verdicts,
	})
	if err != nil {
		return nil, err
	}

	go a.approve(verdicts)

	if _, err := machine.Await(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.key = key
	acc := account.Clone()
	a.account = &acc
	a.events = make(chan wallet.Event, 4)
	a.mu.Unlock()

	a.log.WithField("address", address).Debug("simulated wallet connected")
	result := account.Clone()
	return &result, nil
}

// approve is the simulated approver: it answers the side channel after the
// configured delay.
func (a *Adapter) approve(verdicts chan<- approval.Verdict) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.rejectConnect != "" {
		verdicts <- approval.Verdict{Reason: a.rejectConnect}
		return
	}
	verdicts <- approval.Verdict{Approved: true}
}

func challengeHook(opts *wallet.ConnectOptions) func(approval.Challenge) {
	if opts == nil {
		return nil
	}
	return opts.OnChallenge
}

// Disconnect drops the key and closes the event channel. It is idempotent.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil
	}
	a.key, a.account = nil, nil
	close(a.events)
	a.events = nil
	a.log.Debug("simulated wallet disconnected")
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

func (a *Adapter) Network() (*wallet.Network, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil, wallet.NewError(wallet.NotConnected, "simulated wallet not connected")
	}
	net := a.account.Network
	return &net, nil
}

// Events exposes the adapter's event channel. The channel is created on
// Connect and closed on Disconnect.
func (a *Adapter) Events() <-chan wallet.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events
}

// SignAndSubmit signs the transaction with the in-memory key. With submit
// set, a deterministic transaction id derived from the signed blob is
// reported; otherwise only the raw signature is returned.
func (a *Adapter) SignAndSubmit(_ context.Context, tx wallet.Transaction, submit bool) (*wallet.SubmissionResult, error) {
	key, err := a.signingKey()
	if err != nil {
		return nil, err
	}
	sig, err := signDigest(key, tx)
	if err != nil {
		return nil, wallet.WrapError(wallet.SignFailed, err, "signing transaction")
	}
	res := &wallet.SubmissionResult{Raw: sig}
	if submit {
		txid := sha256.Sum256(sig)
		res.TxID = hex.EncodeToString(txid[:])
	}
	return res, nil
}

// SignMessage signs an arbitrary message with the in-memory key.
func (a *Adapter) SignMessage(_ context.Context, msg []byte) (*wallet.SignedMessage, error) {
	key, err := a.signingKey()
	if err != nil {
		return nil, err
	}
	sig, err := signDigest(key, msg)
	if err != nil {
		return nil, wallet.WrapError(wallet.SignFailed, err, "signing message")
	}
	pub := elliptic.MarshalCompressed(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	return &wallet.SignedMessage{Message: msg, Signature: sig, PublicKey: pub}, nil
}

// signingKey returns the connected key, or the scripted sign rejection or a
// not-connected error.
func (a *Adapter) signingKey() (*ecdsa.PrivateKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key == nil {
		return nil, wallet.NewError(wallet.NotConnected, "simulated wallet not connected")
	}
	if a.rejectSign != "" {
		return nil, reasonError{msg: a.rejectSign, code: 4001}
	}
	return a.key, nil
}

func signDigest(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, key, digest[:])
}

// SwitchAccount rotates to a fresh key pair and emits an accountChanged
// event, like a wallet app whose user selects a different account.
func (a *Adapter) SwitchAccount() (*wallet.Account, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, wallet.WrapError(wallet.UnknownError, err, "generating key")
	}
	pub := elliptic.MarshalCompressed(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil, wallet.NewError(wallet.NotConnected, "simulated wallet not connected")
	}
	a.key = key
	acc := wallet.Account{Address: EncodeAddress(pub), PublicKey: pub, Network: a.account.Network}
	a.account = &acc
	emitted := acc.Clone()
	a.events <- wallet.Event{Type: wallet.EventAccountChanged, Account: &emitted}
	result := acc.Clone()
	return &result, nil
}

// SwitchNetwork switches the reported network and emits a networkChanged
// event.
func (a *Adapter) SwitchNetwork(net wallet.Network) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return wallet.NewError(wallet.NotConnected, "simulated wallet not connected")
	}
	a.account.Network = net
	a.events <- wallet.Event{Type: wallet.EventNetworkChanged, Network: &net}
	return nil
}

// RemoteDisconnect emits a backend-initiated disconnect event, like a
// wallet app whose user ends the session from the wallet side.
func (a *Adapter) RemoteDisconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return wallet.NewError(wallet.NotConnected, "simulated wallet not connected")
	}
	a.events <- wallet.Event{Type: wallet.EventDisconnect}
	return nil
}

// reasonError is a backend error carrying a structured reason code, the way
// provider errors do.
type reasonError struct {
	msg  string
	code int
}

func (e reasonError) Error() string   { return e.msg }
func (e reasonError) ReasonCode() int { return e.code }
