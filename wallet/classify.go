// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package wallet

import (
	"strings"

	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/approval"
)

// Op names the operation a failure happened in. Classification depends on
// the operation and the error's inspectable fields, never on the adapter's
// identity.
type Op string

// The classifiable operations.
const (
	OpConnect     Op = "connect"
	OpDisconnect  Op = "disconnect"
	OpSign        Op = "sign"
	OpSignMessage Op = "signMessage"
)

// ReasonCoder is the structured-field tier of the classifier: backends that
// expose a numeric status or reason code implement it on their errors.
type ReasonCoder interface {
	ReasonCode() int
}

// rpcCoder matches JSON-RPC error implementations, notably go-ethereum's
// rpc.Error.
type rpcCoder interface {
	ErrorCode() int
}

// Classify maps an arbitrary backend failure to a classified error. It is a
// pure function of the operation and the error. Matching is ordered:
// already-classified errors pass through, then approval machine terminals,
// then structured reason codes, then substring matching on the message as a
// documented fallback tier, and anything unmatched becomes UnknownError.
// Classify never fails; Classify(op, nil) is nil.
func Classify(op Op, err error) *Error {
	if err == nil {
		return nil
	}
	if ce := asError(err); ce != nil {
		return ce
	}

	if kind, ok := classifyApproval(op, err); ok {
		return WrapError(kind, err, string(op))
	}
	if code, ok := errorCode(err); ok {
		if kind, ok := kindForCode(op, code); ok {
			return WrapError(kind, err, string(op))
		}
	}
	if kind, ok := kindForMessage(op, err.Error()); ok {
		return WrapError(kind, err, string(op))
	}
	return WrapError(UnknownError, err, string(op))
}

func asError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// classifyApproval maps the approval state machine's terminal errors.
// Expiry and a broken side channel are operation failures; cancellation and
// explicit rejection are user decisions and keep their distinct kind.
func classifyApproval(op Op, err error) (Kind, bool) {
	var rej *approval.RejectedError
	switch {
	case errors.Is(err, approval.ErrExpired):
		return failedKind(op), true
	case errors.Is(err, approval.ErrChannelClosed):
		return failedKind(op), true
	case errors.Is(err, approval.ErrCancelled), errors.As(err, &rej):
		return rejectedKind(op), true
	}
	return UnknownError, false
}

// errorCode extracts a structured numeric code from the error, if any.
func errorCode(err error) (int, bool) {
	var rc ReasonCoder
	if errors.As(err, &rc) {
		return rc.ReasonCode(), true
	}
	var jc rpcCoder
	if errors.As(err, &jc) {
		return jc.ErrorCode(), true
	}
	return 0, false
}

// kindForCode is the structured-field rule table. The 4xxx codes follow the
// provider-error convention established by EIP-1193; -326xx are JSON-RPC
// protocol codes.
func kindForCode(op Op, code int) (Kind, bool) {
	switch code {
	case 4001: // user rejected request
		return rejectedKind(op), true
	case 4100: // unauthorized
		return rejectedKind(op), true
	case 4200: // unsupported method
		return UnsupportedMethod, true
	case 4900, 4901: // provider/chain disconnected
		return NotConnected, true
	case -32601: // method not found
		return UnsupportedMethod, true
	case -32000, -32002, -32003: // generic server errors
		return failedKind(op), true
	}
	return UnknownError, false
}

// substringRule is one entry of the fallback tier. Rules are applied in
// order; the first matching substring wins.
type substringRule struct {
	substr string
	kind   func(Op) Kind
}

var substringRules = []substringRule{
	{"user rejected", rejectedKind},
	{"user denied", rejectedKind},
	{"rejected by user", rejectedKind},
	{"declined", rejectedKind},
	{"cancelled", rejectedKind},
	{"canceled", rejectedKind},
	{"not installed", constKind(WalletNotInstalled)},
	{"not available", constKind(WalletNotAvailable)},
	{"no provider", constKind(WalletNotAvailable)},
	{"already connected", constKind(AlreadyConnected)},
	{"not connected", constKind(NotConnected)},
	{"network not supported", constKind(NetworkNotSupported)},
	{"unsupported network", constKind(NetworkNotSupported)},
	{"network mismatch", constKind(NetworkMismatch)},
	{"wrong network", constKind(NetworkMismatch)},
	{"unsupported method", constKind(UnsupportedMethod)},
	{"method not found", constKind(UnsupportedMethod)},
	{"timed out", failedKind},
	{"timeout", failedKind},
	{"deadline exceeded", failedKind},
	{"connection refused", failedKind},
	{"connection reset", failedKind},
	{"broken pipe", failedKind},
	{"websocket: close", failedKind},
}

func constKind(k Kind) func(Op) Kind {
	return func(Op) Kind { return k }
}

// kindForMessage is the documented substring fallback tier, used when the
// backend exposes no structured fields.
func kindForMessage(op Op, msg string) (Kind, bool) {
	msg = strings.ToLower(msg)
	for _, rule := range substringRules {
		if strings.Contains(msg, rule.substr) {
			return rule.kind(op), true
		}
	}
	return UnknownError, false
}

// rejectedKind maps an operation to its "user declined" kind.
func rejectedKind(op Op) Kind {
	switch op {
	case OpSign, OpSignMessage:
		return SignRejected
	default:
		return ConnectionRejected
	}
}

// failedKind maps an operation to its generic failure kind.
func failedKind(op Op) Kind {
	switch op {
	case OpSign, OpSignMessage:
		return SignFailed
	default:
		return ConnectionFailed
	}
}
