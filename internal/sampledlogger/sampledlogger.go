// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package sampledlogger logs at most once per interval, for events that can
// happen on every call.
package sampledlogger

import (
	"sync"
	"time"

	"go.uber.org/svc/internal/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultInterval is the interval used by New when none is given.
const DefaultInterval = time.Minute

// Logger writes the first entry of each interval and counts the rest. The
// next entry written carries the number suppressed before it.
type Logger struct {
	logger   *zap.Logger
	clock    clock.Clock
	interval time.Duration

	mu         sync.Mutex
	last       time.Time
	suppressed int
}

// New returns a Logger that writes to logger at most once per interval, as
// measured by c. A non-positive interval means DefaultInterval.
func New(logger *zap.Logger, c clock.Clock, interval time.Duration) *Logger {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Logger{logger: logger, clock: c, interval: interval}
}

// Debug logs a debug message unless one was written this interval.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.log(zapcore.DebugLevel, msg, fields)
}

// Info logs an info message unless one was written this interval.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.log(zapcore.InfoLevel, msg, fields)
}

// Warn logs a warning unless one was written this interval.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) log(level zapcore.Level, msg string, fields []zap.Field) {
	ce := l.logger.Check(level, msg)
	if ce == nil {
		return
	}

	now := l.clock.Now()
	l.mu.Lock()
	if !l.last.IsZero() && now.Sub(l.last) < l.interval {
		l.suppressed++
		l.mu.Unlock()
		return
	}
	suppressed := l.suppressed
	l.last = now
	l.suppressed = 0
	l.mu.Unlock()

	if suppressed > 0 {
		fields = append(fields, zap.Int("suppressed", suppressed))
	}
	ce.Write(fields...)
}
