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

// Package timeout bounds how long a caller waits for a call.
//
// The timer starts when Call is entered. If it fires first, the call fails
// with a timed out error and the context handed to the inner call is
// cancelled. The inner call may keep running if it ignores its context; the
// caller does not wait for it. Ready is not bounded.
package timeout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/svc"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/svc/svcerrors"
)

// Option customizes a timeout service.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	clock clock.Clock
}

// WithClock sets the clock that measures the timeout.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// Service fails calls that take longer than a fixed duration.
type Service[Req, Res any] struct {
	inner   svc.Service[Req, Res]
	timeout time.Duration
	clock   clock.Clock
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[struct{}, struct{}])(nil)
)

// New wraps inner so that every call fails after d.
func New[Req, Res any](inner svc.Service[Req, Res], d time.Duration, opts ...Option) (*Service[Req, Res], error) {
	if d <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", d)
	}
	options := options{clock: clock.NewReal()}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return &Service[Req, Res]{
		inner:   inner,
		timeout: d,
		clock:   options.clock,
	}, nil
}

// NewLayer builds a layer bounding every wrapped service's calls by d.
func NewLayer[Req, Res any](d time.Duration, opts ...Option) (svc.Layer[Req, Res], error) {
	if d <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", d)
	}
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		s, _ := New(inner, d, opts...)
		return s
	}), nil
}

// Ready waits for the inner service.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	return s.inner.Ready(ctx)
}

type result[Res any] struct {
	res Res
	err error
}

// Release gives back the inner service's grant.
func (s *Service[Req, Res]) Release() {
	svc.Release(s.inner)
}

// Call races the inner call against the timeout.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	t := s.clock.Timer(s.timeout)
	defer t.Stop()

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan result[Res], 1)
	go func() {
		res, err := s.inner.Call(callCtx, req)
		done <- result[Res]{res: res, err: err}
	}()

	var zero Res
	select {
	case r := <-done:
		return r.res, r.err
	case <-t.C():
		return zero, svcerrors.TimedOutErrorf("call timed out after %v", s.timeout)
	case <-ctx.Done():
		return zero, svcerrors.CancelledErrorf("call abandoned: %w", ctx.Err())
	}
}

// Timeout returns the configured duration.
func (s *Service[Req, Res]) Timeout() time.Duration {
	return s.timeout
}
