// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package test contains helper functions for testing.
package test // import "walletmux.network/go-walletmux/pkg/test"

import (
	"testing"
	"time"
)

// terminates checks that the function fn terminates within the given
// deadline.
func terminates(deadline time.Duration, fn func()) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return true
	case <-time.NewTimer(deadline).C:
		return false
	}
}

// AssertTerminates asserts that the function fn terminates within the given
// deadline.
func AssertTerminates(t *testing.T, deadline time.Duration, fn func()) {
	t.Helper()
	if !terminates(deadline, fn) {
		t.Errorf("function did not terminate within %v", deadline)
	}
}

// AssertNotTerminates asserts that the function fn does not terminate within
// the given deadline. The goroutine running fn is leaked, so only use this
// with functions that terminate when the test finishes.
func AssertNotTerminates(t *testing.T, deadline time.Duration, fn func()) {
	t.Helper()
	if terminates(deadline, fn) {
		t.Errorf("function terminated within %v", deadline)
	}
}
