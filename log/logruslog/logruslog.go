// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package logruslog binds a logrus logger to the go-walletmux logging
// interface.
package logruslog // import "walletmux.network/go-walletmux/log/logruslog"

import (
	"github.com/sirupsen/logrus"

	"walletmux.network/go-walletmux/log"
)

// Logger wraps a logrus entry so that it satisfies log.Logger. The leveled
// logging methods are provided by the embedded entry.
type Logger struct {
	*logrus.Entry
}

var _ log.Logger = (*Logger)(nil)

// FromLogrus wraps a logrus logger into a walletmux logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{logrus.NewEntry(l)}
}

// Set sets a logrus logger as the library logger.
func Set(level logrus.Level, formatter logrus.Formatter) {
	l := logrus.New()
	l.SetLevel(level)
	if formatter != nil {
		l.SetFormatter(formatter)
	}
	log.Set(FromLogrus(l))
}

// WithField returns a derived logger with the given field set.
func (l *Logger) WithField(key string, value interface{}) log.Logger {
	return &Logger{l.Entry.WithField(key, value)}
}

// WithFields returns a derived logger with the given fields set.
func (l *Logger) WithFields(fields log.Fields) log.Logger {
	return &Logger{l.Entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a derived logger with the error field set.
func (l *Logger) WithError(err error) log.Logger {
	return &Logger{l.Entry.WithError(err)}
}
