// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package sim

import (
	"bytes"
	"crypto/sha256"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

// alphabet is the ledger's base58 dictionary. Together with the account
// version byte it makes every account address start with 'r'.
var alphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// accountVersion is the address type prefix byte for accounts.
const accountVersion = 0x00

// EncodeAddress derives the account address of a public key: the
// RIPEMD160 of the key's SHA256, version-prefixed and base58check encoded.
func EncodeAddress(pubKey []byte) string {
	sha := sha256.Sum256(pubKey)
	h := ripemd160.New()
	h.Write(sha[:]) //nolint:errcheck
	payload := append([]byte{accountVersion}, h.Sum(nil)...)
	return base58.FastBase58EncodingAlphabet(append(payload, checksum(payload)...), alphabet)
}

// DecodeAddress validates an address and returns the account hash it
// encodes.
func DecodeAddress(addr string) ([]byte, error) {
	raw, err := base58.FastBase58DecodingAlphabet(addr, alphabet)
	if err != nil {
		return nil, errors.Wrap(err, "decoding address")
	}
	if len(raw) != 1+ripemd160.Size+4 {
		return nil, errors.Errorf("address has invalid length %d", len(raw))
	}
	payload, check := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(check, checksum(payload)) {
		return nil, errors.New("address checksum mismatch")
	}
	if payload[0] != accountVersion {
		return nil, errors.Errorf("address has invalid version byte %#x", payload[0])
	}
	return payload[1:], nil
}

// checksum is the first four bytes of the double SHA256 of the payload.
func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}
