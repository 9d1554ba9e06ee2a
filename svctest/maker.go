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

package svctest

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/svc"
)

// Maker builds services through a function and counts how many it built.
type Maker[Target, Req, Res any] struct {
	make func(context.Context, Target) (svc.Service[Req, Res], error)

	mu    sync.Mutex
	err   error
	made  atomic.Int32
	tries atomic.Int32
}

var _ svc.Maker[string, string, string] = (*Maker[string, string, string])(nil)

// NewMaker returns a Maker that builds services with f.
func NewMaker[Target, Req, Res any](f func(context.Context, Target) (svc.Service[Req, Res], error)) *Maker[Target, Req, Res] {
	return &Maker[Target, Req, Res]{make: f}
}

// SetError makes later Make calls fail with err. A nil err restores f.
func (m *Maker[Target, Req, Res]) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Make builds a service unless an error was set.
func (m *Maker[Target, Req, Res]) Make(ctx context.Context, target Target) (svc.Service[Req, Res], error) {
	m.tries.Inc()

	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s, err := m.make(ctx, target)
	if err != nil {
		return nil, err
	}
	m.made.Inc()
	return s, nil
}

// Made returns the number of services built.
func (m *Maker[Target, Req, Res]) Made() int {
	return int(m.made.Load())
}

// Tries returns the number of Make calls, including failed ones.
func (m *Maker[Target, Req, Res]) Tries() int {
	return int(m.tries.Load())
}
