// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

package approval

import (
	"context"
	"time"
)

// Poll repeatedly invokes check at the fixed interval until it reports
// success, the deadline passes, or the context is cancelled. It is the
// reusable replacement for backend-specific detection loops (device
// presence, extension install checks).
//
// Poll returns nil on success, ErrExpired when the deadline passes,
// ErrCancelled when the context is done, and check's own error if it fails.
// The deadline is checked before every wait.
func Poll(ctx context.Context, check func(context.Context) (bool, error), interval time.Duration, deadline time.Time) error {
	for {
		if !time.Now().Before(deadline) {
			return ErrExpired
		}

		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		wait := interval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ErrCancelled
		}
	}
}
