// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package client

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"walletmux.network/go-walletmux/db"
	"walletmux.network/go-walletmux/log"
	"walletmux.network/go-walletmux/wallet"
)

// sessionKey is the single storage key the session record lives under.
const sessionKey = "wallet-state"

// MaxSessionAge is the staleness policy: a stored session older than this is
// never used for auto-reconnect.
const MaxSessionAge = 7 * 24 * time.Hour

// SessionRecord is the persisted form of a committed session. It is written
// only after an adapter's Connect resolved, never speculatively, and it is
// destroyed on disconnect and on staleness.
type SessionRecord struct {
	AdapterID          string         `json:"adapterId"`
	Account            wallet.Account `json:"account"`
	Network            wallet.Network `json:"network"`
	CommittedAtEpochMs int64          `json:"committedAtEpochMs"`
}

// CommittedAt returns the commit time of the record.
func (r *SessionRecord) CommittedAt() time.Time {
	return time.UnixMilli(r.CommittedAtEpochMs)
}

// Stale reports whether the record is too old to be trusted for silent
// restoration.
func (r *SessionRecord) Stale(now time.Time) bool {
	return now.Sub(r.CommittedAt()) >= MaxSessionAge
}

// sessionStore persists the session record through the storage port.
type sessionStore struct {
	db  db.Database
	now func() time.Time // Overridable in tests.
}

func newSessionStore(d db.Database) *sessionStore {
	return &sessionStore{db: d, now: time.Now}
}

// save writes the record for the given committed session.
func (s *sessionStore) save(adapterID string, acc wallet.Account) error {
	rec := SessionRecord{
		AdapterID:          adapterID,
		Account:            acc,
		Network:            acc.Network,
		CommittedAtEpochMs: s.now().UnixMilli(),
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return errors.Wrap(err, "encoding session record")
	}
	return errors.WithMessage(s.db.PutBytes(sessionKey, data), "writing session record")
}

// load reads the stored session record. A missing record yields (nil, nil).
// Stale and undecodable records are proactively cleared the first time they
// are read and also yield (nil, nil).
func (s *sessionStore) load() (*SessionRecord, error) {
	data, err := s.db.GetBytes(sessionKey)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "reading session record")
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.WithError(err).Warn("clearing undecodable session record")
		return nil, s.clear()
	}
	if rec.Stale(s.now()) {
		log.WithField("adapter", rec.AdapterID).Debug("clearing stale session record")
		return nil, s.clear()
	}
	return &rec, nil
}

// clear removes the stored session record. Clearing an absent record is a
// no-op.
func (s *sessionStore) clear() error {
	return errors.WithMessage(s.db.Delete(sessionKey), "clearing session record")
}
