// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package approval implements the out-of-band approval state machine. It
// generalizes the "operation that blocks on a human or device action
// signaled asynchronously" pattern shared by QR-based remote approval,
// hardware-device polling and redirect flows.
//
// A machine runs Idle -> Requested -> {Approved | Rejected | Expired |
// Cancelled}. The terminal states are final; in particular, once a machine
// is cancelled or expired, it can never report an approval anymore, and the
// operation's side channel is cleaned up exactly once.
package approval // import "walletmux.network/go-walletmux/approval"

import (
	"time"

	"github.com/pkg/errors"
)

// Kind describes the shape of an out-of-band approval flow.
type Kind string

// The supported approval flow kinds.
const (
	// KindQR waits for a push signal after the user scanned a challenge
	// artifact, typically rendered as a QR code.
	KindQR Kind = "qr"
	// KindPoll repeatedly polls a side channel, typically a hardware device,
	// at a fixed interval.
	KindPoll Kind = "poll"
	// KindRedirect waits for a push signal after the user completed an
	// approval redirect.
	KindRedirect Kind = "redirect"
)

// State is the state of an approval machine.
type State int32

// The approval machine states. Approved, Rejected, Expired and Cancelled are
// terminal.
const (
	Idle State = iota
	Requested
	Approved
	Rejected
	Expired
	Cancelled
)

// Terminal returns whether the state is terminal.
func (s State) Terminal() bool { return s >= Approved }

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Requested:
		return "Requested"
	case Approved:
		return "Approved"
	case Rejected:
		return "Rejected"
	case Expired:
		return "Expired"
	case Cancelled:
		return "Cancelled"
	default:
		return "Invalid"
	}
}

// Challenge is the artifact of one in-flight out-of-band wait. It is handed
// to the caller so that a UI layer can display it; the machine itself does
// not render anything.
type Challenge struct {
	OperationID string    // Unique id of this approval operation.
	Kind        Kind      // The flow kind.
	Payload     string    // Pairing URI, redirect URL or device prompt text.
	Deadline    time.Time // When the operation expires.
}

// Verdict is the resolution signaled through the side channel.
type Verdict struct {
	Approved bool        // Whether the user approved the operation.
	Reason   string      // Rejection reason, if not approved.
	Data     interface{} // Backend-specific result data, if approved.
}

// Terminal errors returned by Machine.Await.
var (
	// ErrExpired is returned when the deadline passes without a resolution.
	ErrExpired = errors.New("approval deadline expired")
	// ErrCancelled is returned when the operation is cancelled by the caller
	// or by context cancellation.
	ErrCancelled = errors.New("approval cancelled")
	// ErrChannelClosed is returned when the side channel closes without
	// delivering a verdict.
	ErrChannelClosed = errors.New("approval side channel closed")
)

// RejectedError is returned when the side channel signals an explicit user
// rejection, as opposed to "not yet".
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "approval rejected"
	}
	return "approval rejected: " + e.Reason
}

// stateErr maps a terminal state to the error Await reports for it.
func stateErr(s State) error {
	switch s {
	case Rejected:
		return &RejectedError{}
	case Expired:
		return ErrExpired
	default:
		return ErrCancelled
	}
}
