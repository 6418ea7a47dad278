// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package approval

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/log"
	psync "walletmux.network/go-walletmux/pkg/sync"
)

// Op parameterizes an approval machine with the backend-specific parts of an
// out-of-band flow.
type Op struct {
	// Kind is the flow kind announced in the challenge.
	Kind Kind

	// Timeout is the operation deadline, relative to Await. Required.
	// Adapter-specific: short for in-process prompts, minutes for remote
	// human approval.
	Timeout time.Duration

	// Produce produces the challenge payload (pairing URI, redirect URL,
	// device prompt). Optional; an empty payload is used if nil.
	Produce func(ctx context.Context) (string, error)

	// OnChallenge hands the challenge artifact to the caller, so that a UI
	// layer can display it. Optional.
	OnChallenge func(Challenge)

	// Push is the side channel for push-resolved flows (qr, redirect).
	// Exactly one of Push and Check must be set.
	Push <-chan Verdict

	// Check is invoked at every Interval for poll-resolved flows. It
	// returns the verdict and whether the side channel has resolved yet.
	Check func(ctx context.Context) (Verdict, bool, error)

	// Interval is the fixed polling interval for Check. Required with
	// Check. The interval is constant; there is no backoff.
	Interval time.Duration

	// Cleanup closes the operation's side channel (socket, transport
	// handle). It is run exactly once, on whichever terminal transition
	// comes first. Optional.
	Cleanup func()
}

// Machine is a single-use out-of-band approval state machine. Await drives
// it to a terminal state; Cancel may be called from any goroutine.
type Machine struct {
	op       Op
	id       string
	deadline time.Time

	mutex  sync.Mutex
	state  State
	closer psync.Closer
}

// New creates a new approval machine for the given operation. The machine is
// single-use: Await must be called exactly once.
func New(op Op) (*Machine, error) {
	if op.Timeout <= 0 {
		return nil, errors.New("approval op needs a timeout")
	}
	if (op.Push == nil) == (op.Check == nil) {
		return nil, errors.New("approval op needs exactly one of Push and Check")
	}
	if op.Check != nil && op.Interval <= 0 {
		return nil, errors.New("approval op needs a polling interval")
	}

	m := &Machine{op: op, id: uuid.NewString()}
	if op.Cleanup != nil {
		m.closer.OnCloseAlways(op.Cleanup)
	}
	return m, nil
}

// OperationID returns the unique id of this approval operation.
func (m *Machine) OperationID() string { return m.id }

// State returns the machine's current state.
func (m *Machine) State() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

// Cancel cancels a requested operation. It closes the side channel exactly
// once and guarantees that no approval is reported afterwards. Cancelling an
// already terminal machine is a no-op.
func (m *Machine) Cancel() {
	if m.transition(Cancelled) {
		m.close()
	}
}

// Await runs the machine to a terminal state and returns the approval's
// result data. It returns ErrExpired when the deadline passes, ErrCancelled
// on cancellation (via Cancel or the context), a *RejectedError on explicit
// user rejection, and the side channel's own error when it fails. In every
// case the side channel is cleaned up before Await returns.
func (m *Machine) Await(ctx context.Context) (interface{}, error) {
	if err := m.request(ctx); err != nil {
		return nil, err
	}

	if m.op.Push != nil {
		return m.awaitPush(ctx)
	}
	return m.awaitPoll(ctx)
}

// request performs the Idle -> Requested transition: it produces the
// challenge artifact, arms the deadline and hands the challenge to the
// caller.
func (m *Machine) request(ctx context.Context) error {
	m.mutex.Lock()
	if m.state != Idle {
		state := m.state
		m.mutex.Unlock()
		if state == Cancelled {
			return ErrCancelled
		}
		return errors.New("approval machine is single-use")
	}
	m.mutex.Unlock()

	var payload string
	if m.op.Produce != nil {
		var err error
		if payload, err = m.op.Produce(ctx); err != nil {
			m.Cancel()
			return errors.WithMessage(err, "producing challenge")
		}
	}

	m.mutex.Lock()
	if m.state != Idle { // Cancelled while producing the challenge.
		state := m.state
		m.mutex.Unlock()
		return stateErr(state)
	}
	m.state = Requested
	m.deadline = time.Now().Add(m.op.Timeout)
	deadline := m.deadline
	m.mutex.Unlock()

	log.WithField("op", m.id).Tracef("approval %v: Idle -> Requested", m.op.Kind)
	if m.op.OnChallenge != nil {
		m.op.OnChallenge(Challenge{
			OperationID: m.id,
			Kind:        m.op.Kind,
			Payload:     payload,
			Deadline:    deadline,
		})
	}
	return nil
}

// awaitPush waits for a single push signal from the side channel.
func (m *Machine) awaitPush(ctx context.Context) (interface{}, error) {
	timer := time.NewTimer(time.Until(m.deadline))
	defer timer.Stop()

	select {
	case v, ok := <-m.op.Push:
		if !ok {
			return nil, m.fail(Cancelled, ErrChannelClosed)
		}
		return m.resolve(v)
	case <-timer.C:
		return nil, m.fail(Expired, ErrExpired)
	case <-m.closer.Closed():
		return nil, m.terminalErr()
	case <-ctx.Done():
		m.Cancel()
		return nil, ErrCancelled
	}
}

// awaitPoll polls the side channel at the fixed interval. The deadline is
// checked before every further wait, never after.
func (m *Machine) awaitPoll(ctx context.Context) (interface{}, error) {
	deadline := time.NewTimer(time.Until(m.deadline))
	defer deadline.Stop()

	for {
		if !time.Now().Before(m.deadline) {
			return nil, m.fail(Expired, ErrExpired)
		}

		v, done, err := m.op.Check(ctx)
		if err != nil {
			return nil, m.fail(Cancelled, err)
		}
		if done {
			return m.resolve(v)
		}

		select {
		case <-time.After(m.op.Interval):
		case <-deadline.C:
			return nil, m.fail(Expired, ErrExpired)
		case <-m.closer.Closed():
			return nil, m.terminalErr()
		case <-ctx.Done():
			m.Cancel()
			return nil, ErrCancelled
		}
	}
}

// resolve applies a side channel verdict.
func (m *Machine) resolve(v Verdict) (interface{}, error) {
	if !v.Approved {
		return nil, m.fail(Rejected, &RejectedError{Reason: v.Reason})
	}
	if !m.transition(Approved) {
		// Lost the race against Cancel; the approval must not be reported.
		return nil, m.terminalErr()
	}
	m.close()
	log.WithField("op", m.id).Tracef("approval %v: Requested -> Approved", m.op.Kind)
	return v.Data, nil
}

// fail moves the machine into the terminal state to and returns err. If
// another terminal transition won the race, that state's error is returned
// instead, so that exactly one terminal error surfaces per run.
func (m *Machine) fail(to State, err error) error {
	if !m.transition(to) {
		return m.terminalErr()
	}
	m.close()
	log.WithField("op", m.id).Tracef("approval %v: Requested -> %v", m.op.Kind, to)
	return err
}

// transition attempts a transition into a terminal state. It fails if the
// machine is already terminal.
func (m *Machine) transition(to State) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.state.Terminal() {
		return false
	}
	m.state = to
	return true
}

// terminalErr returns the error matching the current terminal state.
func (m *Machine) terminalErr() error {
	return stateErr(m.State())
}

// close closes the side channel. The Closer makes racing calls run the
// cleanup exactly once.
func (m *Machine) close() {
	_ = m.closer.Close() //nolint:errcheck
}
