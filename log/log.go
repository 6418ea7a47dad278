// Copyright (c) 2026 The Walletmux Authors. All rights reserved.
// This file is part of go-walletmux. Use of this source code is governed by
// a MIT-style license that can be found in the LICENSE file.

// Package log implements the logger interface of go-walletmux. Users are
// expected to pass an implementation of this interface to harmonize the
// library's logging with their application logging.
//
// It mimics the interface of logrus, which is go-walletmux's logger of
// choice. The log/logruslog subpackage binds a logrus logger to this
// interface.
package log // import "walletmux.network/go-walletmux/log"

// Log is the library logger. Library users should set this variable to their
// logger. It is set to the none non-logging logger by default.
var Log Logger = none{}

// LevelLogger is a logger with leveled logging.
type LevelLogger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})

	Trace(args ...interface{})
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Panic(args ...interface{})
}

// Fields is a collection of fields that can be passed to Logger.WithFields.
type Fields map[string]interface{}

// Logger is a LevelLogger with structured field logging capabilities.
// This is the interface that needs to be passed to go-walletmux.
type Logger interface {
	LevelLogger

	WithField(key string, value interface{}) Logger
	WithFields(Fields) Logger
	WithError(error) Logger
}

// Set sets the library logger. Passing nil resets it to the non-logging
// default.
func Set(l Logger) {
	if l == nil {
		Log = none{}
		return
	}
	Log = l
}

func Tracef(format string, args ...interface{}) { Log.Tracef(format, args...) }
func Debugf(format string, args ...interface{}) { Log.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Log.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Log.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Log.Errorf(format, args...) }
func Panicf(format string, args ...interface{}) { Log.Panicf(format, args...) }

func Trace(args ...interface{}) { Log.Trace(args...) }
func Debug(args ...interface{}) { Log.Debug(args...) }
func Info(args ...interface{})  { Log.Info(args...) }
func Warn(args ...interface{})  { Log.Warn(args...) }
func Error(args ...interface{}) { Log.Error(args...) }
func Panic(args ...interface{}) { Log.Panic(args...) }

// WithField calls WithField on the library logger.
func WithField(key string, value interface{}) Logger { return Log.WithField(key, value) }

// WithFields calls WithFields on the library logger.
func WithFields(fields Fields) Logger { return Log.WithFields(fields) }

// WithError calls WithError on the library logger.
func WithError(err error) Logger { return Log.WithError(err) }
