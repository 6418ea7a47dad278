// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package remote implements a wallet backend that talks to a remote wallet
// app through a websocket relay. Every operation opens its own socket,
// sends one request, receives the challenge artifact to display to the
// user, and then blocks on the user's verdict pushed back through the
// relay. The wait is driven by the out-of-band approval machine, so
// deadlines, cancellation and rejection behave like on every other backend.
package remote // import "walletmux.network/go-walletmux/backend/remote"

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/approval"
	"walletmux.network/go-walletmux/log"
	"walletmux.network/go-walletmux/wallet"
)

// DefaultID is the adapter id the remote backend registers under.
const DefaultID = "remote"

// DefaultTimeout is the approval deadline for remote operations. Remote
// approval involves a human picking up their phone, so it is generous.
const DefaultTimeout = 3 * time.Minute

// Relay protocol operations.
const (
	opConnect     = "connect"
	opDisconnect  = "disconnect"
	opSign        = "sign"
	opSignMessage = "signMessage"
)

// Relay protocol response statuses.
const (
	statusChallenge = "challenge"
	statusApproved  = "approved"
	statusRejected  = "rejected"
	statusError     = "error"
)

// request is one operation request sent to the relay.
type request struct {
	Op      string          `json:"op"`
	Kind    string          `json:"kind,omitempty"`
	Network *wallet.Network `json:"network,omitempty"`
	Payload []byte          `json:"payload,omitempty"`
	Submit  bool            `json:"submit,omitempty"`
}

// response is a message received from the relay: first the challenge, then
// the verdict.
type response struct {
	Op        string          `json:"op"`
	Status    string          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	Code      int             `json:"code,omitempty"`
	URI       string          `json:"uri,omitempty"`
	Account   *wallet.Account `json:"account,omitempty"`
	Signature []byte          `json:"signature,omitempty"`
	TxID      string          `json:"txid,omitempty"`
	Raw       []byte          `json:"raw,omitempty"`
}

// Config configures the remote backend.
type Config struct {
	// URL is the websocket endpoint of the relay. Required.
	URL string
	// ID overrides the adapter id. Defaults to DefaultID.
	ID string
	// Timeout overrides the approval deadline. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Dialer overrides the websocket dialer, e.g. for proxies or TLS
	// configuration. Defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Adapter is the remote wallet backend. It is safe for concurrent use. The
// relay pushes no unsolicited messages, so the adapter is not an event
// source.
type Adapter struct {
	id      string
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	log     log.Logger

	mu      sync.Mutex
	account *wallet.Account
}

var _ wallet.Adapter = (*Adapter)(nil)

// New creates a remote wallet backend for the given relay.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("remote backend needs a relay URL")
	}
	a := &Adapter{
		id:      cfg.ID,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		dialer:  cfg.Dialer,
	}
	if a.id == "" {
		a.id = DefaultID
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.dialer == nil {
		a.dialer = websocket.DefaultDialer
	}
	a.log = log.WithField("adapter", a.id)
	return a, nil
}

func (a *Adapter) ID() string { return a.id }

// IsAvailable reports whether the backend is usable. The relay is only
// dialed per operation, so a configured backend always reports available.
func (a *Adapter) IsAvailable() bool { return true }

// Connect requests a session from the remote wallet. The pairing URI
// received from the relay is handed to opts.OnChallenge for display; the
// call then blocks until the user approves or rejects in their wallet app,
// the deadline passes, or ctx is cancelled.
func (a *Adapter) Connect(ctx context.Context, opts *wallet.ConnectOptions) (*wallet.Account, error) {
	a.mu.Lock()
	if a.account != nil {
		a.mu.Unlock()
		return nil, wallet.NewError(wallet.AlreadyConnected, "remote wallet already connected")
	}
	a.mu.Unlock()

	requested := opts.PreferredNetwork(nil)
	req := request{Op: opConnect, Kind: string(approval.KindQR), Network: requested}
	var onChallenge func(approval.Challenge)
	if opts != nil {
		onChallenge = opts.OnChallenge
	}

	resp, err := a.roundTrip(ctx, req, onChallenge)
	if err != nil {
		return nil, err
	}
	if resp.Account == nil {
		return nil, wallet.NewError(wallet.ConnectionFailed, "relay approved without an account")
	}
	if requested != nil && !resp.Account.Network.Equals(*requested) {
		return nil, wallet.NewError(wallet.NetworkMismatch,
			"wallet is on "+resp.Account.Network.ID+", requested "+requested.ID)
	}

	acc := resp.Account.Clone()
	a.mu.Lock()
	a.account = &acc
	a.mu.Unlock()

	a.log.WithField("address", acc.Address).Debug("remote wallet connected")
	result := acc.Clone()
	return &result, nil
}

// Disconnect notifies the relay best-effort and drops the local session. It
// is idempotent; a relay that cannot be reached does not fail the
// disconnect.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	if a.account == nil {
		a.mu.Unlock()
		return nil
	}
	a.account = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := a.dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		a.log.WithError(err).Debug("relay unreachable for disconnect notification")
		return nil
	}
	defer conn.Close()
	if err := conn.WriteJSON(&request{Op: opDisconnect}); err != nil {
		a.log.WithError(err).Debug("disconnect notification failed")
	}
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
		return nil, wallet.NewError(wallet.NotConnected, "remote wallet not connected")
	}
	net := a.account.Network
	return &net, nil
}

// SignAndSubmit sends the transaction to the remote wallet for signing and,
// with submit set, submission. It blocks on the user's verdict.
func (a *Adapter) SignAndSubmit(ctx context.Context, tx wallet.Transaction, submit bool) (*wallet.SubmissionResult, error) {
	if !a.connected() {
		return nil, wallet.NewError(wallet.NotConnected, "remote wallet not connected")
	}
	resp, err := a.roundTrip(ctx, request{Op: opSign, Payload: tx, Submit: submit}, nil)
	if err != nil {
		return nil, err
	}
	raw := resp.Raw
	if raw == nil {
		raw = resp.Signature
	}
	return &wallet.SubmissionResult{TxID: resp.TxID, Raw: raw}, nil
}

// SignMessage sends an arbitrary message to the remote wallet for signing.
func (a *Adapter) SignMessage(ctx context.Context, msg []byte) (*wallet.SignedMessage, error) {
	if !a.connected() {
		return nil, wallet.NewError(wallet.NotConnected, "remote wallet not connected")
	}
	resp, err := a.roundTrip(ctx, request{Op: opSignMessage, Payload: msg}, nil)
	if err != nil {
		return nil, err
	}
	signed := &wallet.SignedMessage{Message: msg, Signature: resp.Signature}
	if resp.Account != nil {
		signed.PublicKey = resp.Account.PublicKey
	}
	return signed, nil
}

func (a *Adapter) connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account != nil
}

// roundTrip runs one relay operation: dial, send the request, surface the
// challenge, await the verdict. The socket lives exactly as long as the
// operation; the approval machine's cleanup closes it on every terminal
// path.
func (a *Adapter) roundTrip(ctx context.Context, req request, onChallenge func(approval.Challenge)) (*response, error) {
	conn, _, err := a.dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		return nil, wallet.WrapError(wallet.WalletNotAvailable, err, "dialing relay")
	}

	// The machine's deadline only arms once the challenge is produced, and
	// a cancelled context is only observed between waits, so the socket
	// itself must unblock any pending read: the challenge round-trip runs
	// under socket deadlines, and cancellation closes the socket.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close() //nolint:errcheck
		case <-done:
		}
	}()

	verdicts := make(chan approval.Verdict, 1)
	var relayFailure relayError
	var failed bool
	var failureMu sync.Mutex

	machine, err := approval.New(approval.Op{
		Kind:    approval.KindQR,
		Timeout: a.timeout,
		Produce: func(context.Context) (string, error) {
			deadline := time.Now().Add(a.timeout)
			conn.SetWriteDeadline(deadline) //nolint:errcheck
			if err := conn.WriteJSON(&req); err != nil {
				return "", errors.Wrap(err, "sending request")
			}
			conn.SetReadDeadline(deadline) //nolint:errcheck
			var resp response
			if err := conn.ReadJSON(&resp); err != nil {
				return "", errors.Wrap(err, "reading challenge")
			}
			// The verdict read is bounded by the machine's deadline, whose
			// cleanup closes the socket.
			conn.SetReadDeadline(time.Time{}) //nolint:errcheck
			if resp.Status != statusChallenge {
				return "", errors.Errorf("relay answered %q instead of a challenge", resp.Status)
			}
			// The verdict arrives on the same socket; read it in the
			// background so the machine can time out independently.
			go func() {
				var verdict response
				if err := conn.ReadJSON(&verdict); err != nil {
					close(verdicts)
					return
				}
				switch verdict.Status {
				case statusApproved:
					verdicts <- approval.Verdict{Approved: true, Data: &verdict}
				case statusRejected:
					verdicts <- approval.Verdict{Reason: verdict.Reason}
				default:
					failureMu.Lock()
					relayFailure = relayError{msg: verdict.Reason, code: verdict.Code}
					failed = true
					failureMu.Unlock()
					close(verdicts)
				}
			}()
			return resp.URI, nil
		},
		OnChallenge: onChallenge,
		Push:        verdicts,
		Cleanup:     func() { conn.Close() }, //nolint:errcheck
	})
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}

	data, err := machine.Await(ctx)
	if err != nil {
		failureMu.Lock()
		defer failureMu.Unlock()
		if failed && errors.Is(err, approval.ErrChannelClosed) {
			return nil, &relayFailure
		}
		return nil, err
	}
	return data.(*response), nil
}

// relayError is a relay failure carrying the relay's structured error code.
type relayError struct {
	msg  string
	code int
}

func (e *relayError) Error() string {
	if e.msg == "" {
		return "relay error"
	}
	return "relay error: " + e.msg
}

func (e *relayError) ReasonCode() int { return e.code }
