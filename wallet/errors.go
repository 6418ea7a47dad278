// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package wallet

// Kind is the closed taxonomy of wallet error kinds. Callers branch on the
// kind, e.g. to distinguish "user declined" from "device unreachable".
type Kind string

// The error taxonomy.
const (
	WalletNotFound      Kind = "WalletNotFound"
	WalletNotInstalled  Kind = "WalletNotInstalled"
	WalletNotAvailable  Kind = "WalletNotAvailable"
	ConnectionFailed    Kind = "ConnectionFailed"
	ConnectionRejected  Kind = "ConnectionRejected"
	SignFailed          Kind = "SignFailed"
	SignRejected        Kind = "SignRejected"
	NetworkNotSupported Kind = "NetworkNotSupported"
	NetworkMismatch     Kind = "NetworkMismatch"
	NotConnected        Kind = "NotConnected"
	AlreadyConnected    Kind = "AlreadyConnected"
	UnsupportedMethod   Kind = "UnsupportedMethod"
	UnknownError        Kind = "UnknownError"
)

// Error is a classified wallet error: a stable kind, a human-readable
// message, and the original cause for diagnostics. Errors are produced by
// Classify and the constructors below; other packages never hand-roll them.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

// NewError creates a classified error without a cause.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// WrapError creates a classified error wrapping the original cause.
func WrapError(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap returns the original cause.
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the original cause. It exists for compatibility with
// github.com/pkg/errors cause chains.
func (e *Error) Cause() error { return e.cause }

// KindOf returns the kind of a classified error, or UnknownError for any
// other non-nil error. KindOf of nil is the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return Kind("")
	}
	if ce := asError(err); ce != nil {
		return ce.Kind
	}
	return UnknownError
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	ce := asError(err)
	return ce != nil && ce.Kind == kind
}
