// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package hid implements a wallet backend for hardware devices. The device
// is driven through the Transport interface, which hides the wire framing
// of concrete device families; the backend contributes the approval flow:
// every operation puts a prompt on the device's screen and polls the
// device's answer at a fixed interval until the user confirms or the
// deadline passes.
package hid // import "walletmux.network/go-walletmux/backend/hid"

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/approval"
	"walletmux.network/go-walletmux/log"
	"walletmux.network/go-walletmux/wallet"
)

// DefaultID is the adapter id the hardware backend registers under.
const DefaultID = "hid"

// Default polling parameters. Hardware confirmation is a button press, so
// the interval is short and the deadline generous enough to read the
// prompt.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTimeout      = time.Minute
)

// Transport is the device transport. Implementations wrap a concrete
// device family's framing; all methods are called from a single operation
// at a time.
type Transport interface {
	// Probe reports whether a device is attached.
	Probe() bool
	// Open claims the device for a session.
	Open() error
	// Prompt puts an approval prompt for the named operation on the
	// device's screen and returns the prompt text for the host UI.
	Prompt(op string) (string, error)
	// Poll checks the prompt's answer. done is false while the user has
	// not decided yet.
	Poll() (approved bool, reason string, done bool, err error)
	// Account returns the device's active account on the given network.
	Account(network wallet.Network) (*wallet.Account, error)
	// Sign signs the payload with the device's active key. It is only
	// called after an approved prompt.
	Sign(payload []byte) ([]byte, error)
	// Close releases the device.
	Close() error
}

// Config configures the hardware backend.
type Config struct {
	// Transport drives the device. Required.
	Transport Transport
	// ID overrides the adapter id. Defaults to DefaultID.
	ID string
	// Network is the network the device account is resolved on. Callers
	// may override it per connect.
	Network wallet.Network
	// PollInterval overrides the fixed polling interval.
	PollInterval time.Duration
	// Timeout overrides the prompt deadline.
	Timeout time.Duration
}

// Adapter is the hardware wallet backend. It is safe for concurrent use.
// Hardware devices push no events; unplugging surfaces as an operation
// failure.
type Adapter struct {
	id       string
	tr       Transport
	network  wallet.Network
	interval time.Duration
	timeout  time.Duration
	log      log.Logger

	mu      sync.Mutex
	account *wallet.Account
}

var _ wallet.Adapter = (*Adapter)(nil)

// New creates a hardware wallet backend over the given transport.
func New(cfg Config) (*Adapter, error) {
	if cfg.Transport == nil {
		return nil, errors.New("hid backend needs a transport")
	}
	a := &Adapter{
		id:       cfg.ID,
		tr:       cfg.Transport,
		network:  cfg.Network,
		interval: cfg.PollInterval,
		timeout:  cfg.Timeout,
	}
	if a.id == "" {
		a.id = DefaultID
	}
	if a.interval <= 0 {
		a.interval = DefaultPollInterval
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	a.log = log.WithField("adapter", a.id)
	return a, nil
}

func (a *Adapter) ID() string { return a.id }

// IsAvailable reports whether a device is attached right now.
func (a *Adapter) IsAvailable() bool { return a.tr.Probe() }

// WaitAvailable blocks until a device is attached, polling at the
// backend's interval. It returns approval.ErrExpired if none shows up
// within the given wait.
func (a *Adapter) WaitAvailable(ctx context.Context, wait time.Duration) error {
	return approval.Poll(ctx, func(context.Context) (bool, error) {
		return a.tr.Probe(), nil
	}, a.interval, time.Now().Add(wait))
}

// Connect claims the device, prompts for the connection on its screen and
// polls until the user confirms. The device stays claimed for the session.
func (a *Adapter) Connect(ctx context.Context, opts *wallet.ConnectOptions) (*wallet.Account, error) {
	a.mu.Lock()
	if a.account != nil {
		a.mu.Unlock()
		return nil, wallet.NewError(wallet.AlreadyConnected, "device session already open")
	}
	a.mu.Unlock()

	if !a.tr.Probe() {
		return nil, wallet.NewError(wallet.WalletNotAvailable, "no device attached")
	}
	if err := a.tr.Open(); err != nil {
		return nil, wallet.WrapError(wallet.ConnectionFailed, err, "claiming device")
	}

	network := a.network
	if net := opts.PreferredNetwork(nil); net != nil {
		network = *net
	}
	var onChallenge func(approval.Challenge)
	if opts != nil {
		onChallenge = opts.OnChallenge
	}

	if err := a.confirm(ctx, "connect", onChallenge); err != nil {
		a.tr.Close() //nolint:errcheck
		return nil, err
	}

	acc, err := a.tr.Account(network)
	if err != nil {
		a.tr.Close() //nolint:errcheck
		return nil, wallet.WrapError(wallet.ConnectionFailed, err, "reading device account")
	}
	if acc == nil {
		a.tr.Close() //nolint:errcheck
		return nil, wallet.NewError(wallet.ConnectionFailed, "device reported no account")
	}

	stored := acc.Clone()
	a.mu.Lock()
	a.account = &stored
	a.mu.Unlock()

	a.log.WithField("address", stored.Address).Debug("device session open")
	result := stored.Clone()
	return &result, nil
}

// confirm runs one on-device prompt to its verdict.
func (a *Adapter) confirm(ctx context.Context, op string, onChallenge func(approval.Challenge)) error {
	machine, err := approval.New(approval.Op{
		Kind:    approval.KindPoll,
		Timeout: a.timeout,
		Produce: func(context.Context) (string, error) {
			text, err := a.tr.Prompt(op)
			return text, errors.WithMessage(err, "prompting device")
		},
		OnChallenge: onChallenge,
		Check: func(context.Context) (approval.Verdict, bool, error) {
			approved, reason, done, err := a.tr.Poll()
			if err != nil {
				return approval.Verdict{}, false, errors.WithMessage(err, "polling device")
			}
			return approval.Verdict{Approved: approved, Reason: reason}, done, nil
		},
		Interval: a.interval,
	})
	if err != nil {
		return err
	}
	_, err = machine.Await(ctx)
	return err
}

// Disconnect releases the device. It is idempotent.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return nil
	}
	a.account = nil
	a.log.Debug("device session closed")
	return errors.WithMessage(a.tr.Close(), "releasing device")
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
		return nil, wallet.NewError(wallet.NotConnected, "no device session")
	}
	net := a.account.Network
	return &net, nil
}

// SignAndSubmit prompts for the transaction on the device, polls for the
// confirmation and signs. Hardware devices do not submit; the signed blob
// is returned for the host to forward, so the submit flag only picks the
// prompt wording.
func (a *Adapter) SignAndSubmit(ctx context.Context, tx wallet.Transaction, submit bool) (*wallet.SubmissionResult, error) {
	if !a.connected() {
		return nil, wallet.NewError(wallet.NotConnected, "no device session")
	}
	op := "sign"
	if submit {
		op = "sign-and-submit"
	}
	if err := a.confirm(ctx, op, nil); err != nil {
		return nil, err
	}
	sig, err := a.tr.Sign(tx)
	if err != nil {
		return nil, wallet.WrapError(wallet.SignFailed, err, "device signing")
	}
	return &wallet.SubmissionResult{Raw: sig}, nil
}

// SignMessage prompts for the message on the device and signs it.
func (a *Adapter) SignMessage(ctx context.Context, msg []byte) (*wallet.SignedMessage, error) {
	if !a.connected() {
		return nil, wallet.NewError(wallet.NotConnected, "no device session")
	}
	if err := a.confirm(ctx, "sign-message", nil); err != nil {
		return nil, err
	}
	sig, err := a.tr.Sign(msg)
	if err != nil {
		return nil, wallet.WrapError(wallet.SignFailed, err, "device signing")
	}
	signed := &wallet.SignedMessage{Message: msg, Signature: sig}
	a.mu.Lock()
	if a.account != nil && a.account.PublicKey != nil {
		signed.PublicKey = append([]byte(nil), a.account.PublicKey...)
	}
	a.mu.Unlock()
	return signed, nil
}

func (a *Adapter) connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account != nil
}
