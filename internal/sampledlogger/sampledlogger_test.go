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

package sampledlogger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSampling(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fc := clock.NewFake()
	l := New(zap.New(core), fc, time.Second)

	l.Warn("shed", zap.String("n", "1"))
	l.Warn("shed", zap.String("n", "2"))
	l.Info("shed", zap.String("n", "3"))
	require.Equal(t, 1, logs.Len())

	fc.Add(time.Second)
	l.Debug("shed", zap.String("n", "4"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, map[string]interface{}{"n": "1"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{"n": "4", "suppressed": int64(2)}, entries[1].ContextMap())
}

func TestDisabledLevelIsNotCounted(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fc := clock.NewFake()
	l := New(zap.New(core), fc, 0)
	assert.Equal(t, DefaultInterval, l.interval)

	l.Debug("ignored")
	l.Info("written")
	l.Info("suppressed")
	fc.Add(DefaultInterval)
	l.Info("written again")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "written", entries[0].Message)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, "written again", entries[1].Message)
	assert.Equal(t, map[string]interface{}{"suppressed": int64(1)}, entries[1].ContextMap())
}
