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

package balance

import (
	"context"
	"io"

	"go.uber.org/svc"
	"go.uber.org/zap"
)

// entry is a backend known to the balancer. All fields but id and service
// are guarded by the balancer's lock.
type entry[Req, Res any] struct {
	id      string
	service svc.Service[Req, Res]

	// ctx ends when the entry is removed, which stops its readiness watcher.
	ctx    context.Context
	cancel context.CancelFunc

	pending  int
	watching bool
	removed  bool
	disposed bool

	// Chooser bookkeeping. index is negative while the entry is not ready.
	index int
	last  int
	seen  bool
}

func newEntry[Req, Res any](parent context.Context, id string, s svc.Service[Req, Res]) *entry[Req, Res] {
	ctx, cancel := context.WithCancel(parent)
	return &entry[Req, Res]{
		id:      id,
		service: s,
		ctx:     ctx,
		cancel:  cancel,
		index:   -1,
	}
}

// retireLocked marks the entry removed and reports whether the caller must
// dispose of it now. An entry with calls in flight is disposed by the last
// call to return.
func (e *entry[Req, Res]) retireLocked() bool {
	e.removed = true
	e.cancel()
	return e.releasableLocked()
}

func (e *entry[Req, Res]) releasableLocked() bool {
	if e.removed && e.pending == 0 && !e.disposed {
		e.disposed = true
		return true
	}
	return false
}

func (e *entry[Req, Res]) dispose(logger *zap.Logger) {
	c, ok := e.service.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close backend", zap.String("backend", e.id), zap.Error(err))
	}
}
