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

// Package loadshed fails calls fast instead of waiting when the wrapped
// service is busy.
//
// Ready never waits: it always reports the service ready unless the inner
// service has failed. A Call that was preceded by a Ready while the inner
// service was ready goes through; any other Call is shed with a capacity
// exceeded error and never reaches the inner service.
package loadshed

import (
	"context"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/svc"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/svc/internal/sampledlogger"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/zap"
)

// Option customizes a load shedding service.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	scope       tally.Scope
	logger      *zap.Logger
	clock       clock.Clock
	logInterval time.Duration
}

// WithTally reports shed calls to the given scope.
func WithTally(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// WithLogger logs shed calls, at most once per interval.
func WithLogger(logger *zap.Logger, interval time.Duration) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
		opts.logInterval = interval
	})
}

// WithClock sets the clock used to space out log entries.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// Service sheds calls the wrapped service is not ready for.
type Service[Req, Res any] struct {
	inner  svc.Service[Req, Res]
	grants atomic.Int64
	shed   tally.Counter
	log    *sampledlogger.Logger
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[struct{}, struct{}])(nil)
)

// New wraps inner with load shedding.
func New[Req, Res any](inner svc.Service[Req, Res], opts ...Option) *Service[Req, Res] {
	options := options{
		scope:  tally.NoopScope,
		logger: zap.NewNop(),
		clock:  clock.NewReal(),
	}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return &Service[Req, Res]{
		inner: inner,
		shed:  options.scope.Counter("shed"),
		log:   sampledlogger.New(options.logger, options.clock, options.logInterval),
	}
}

// NewLayer builds a layer adding load shedding to every wrapped service.
func NewLayer[Req, Res any](opts ...Option) svc.Layer[Req, Res] {
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		return New(inner, opts...)
	})
}

// Ready polls the inner service without waiting. If the inner service is
// ready, its grant is held for the next Call. A pending inner service is
// still reported ready so that the next Call is shed. Failures pass through.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	state, err := svc.Poll(s.inner)
	switch state {
	case svc.StateFailed:
		return err
	case svc.StateReady:
		s.grants.Inc()
	}
	return nil
}

// Call forwards the request if Ready found the inner service ready, and
// sheds it otherwise.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	if !s.takeGrant() {
		s.shed.Inc(1)
		s.log.Warn("loadshed: shedding calls, inner service is not ready")
		var zero Res
		return zero, svcerrors.CapacityExceededErrorf("service overloaded")
	}
	return s.inner.Call(ctx, req)
}

// Release gives back a grant Ready took from the inner service.
func (s *Service[Req, Res]) Release() {
	if s.takeGrant() {
		svc.Release(s.inner)
	}
}

func (s *Service[Req, Res]) takeGrant() bool {
	for {
		g := s.grants.Load()
		if g <= 0 {
			return false
		}
		if s.grants.CAS(g, g-1) {
			return true
		}
	}
}
