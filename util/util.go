/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package util has logging odds and ends.
package util

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging is a clumsy switch that affects what Logf does.
//
// If Logging is true, then Logf writes to the current Logger.
var Logging = false

var logger atomic.Value

func init() {
	logger.Store(zap.NewNop().Sugar())
}

// SetLogger installs the logger that Logf uses and turns on Logging
// (unless l is nil).
func SetLogger(l *zap.Logger) {
	if l == nil {
		Logging = false
		l = zap.NewNop()
	} else {
		Logging = true
	}
	logger.Store(l.Sugar())
}

// Logger returns the current logger.
func Logger() *zap.SugaredLogger {
	return logger.Load().(*zap.SugaredLogger)
}

// NewLogger makes a console logger at the given level ("debug",
// "info", "warn", or "error") that writes to stderr.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Logf is a silly utility function that logs (at debug level) if
// Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	Logger().Debugf(format, args...)
}

// Warnf is Logf at warn level.
func Warnf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	Logger().Warnf(format, args...)
}
