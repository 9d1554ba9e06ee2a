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

// Package ratelimit bounds the rate of calls through a service to a quota
// per window.
//
// Ready waits until the limiter admits a call and holds the admission as a
// grant for the next Call. With WithNonBlocking, Ready does not wait and a
// Call that finds no admission fails with a rate exceeded error instead.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/svc"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/svc/svcerrors"
)

// Option customizes a rate limited service.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	policy      Policy
	nonBlocking bool
	clock       clock.Clock
	scope       tally.Scope
}

var defaultOptions = options{
	policy: SlidingWindow,
	clock:  clock.NewReal(),
	scope:  tally.NoopScope,
}

// WithPolicy selects how admissions are counted. Defaults to SlidingWindow.
func WithPolicy(p Policy) Option {
	return optionFunc(func(opts *options) {
		opts.policy = p
	})
}

// WithNonBlocking makes calls beyond the quota fail with a rate exceeded
// error instead of waiting.
func WithNonBlocking() Option {
	return optionFunc(func(opts *options) {
		opts.nonBlocking = true
	})
}

// WithClock sets the clock used to measure windows.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// WithTally reports passes and drops to the given scope.
func WithTally(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

type metrics struct {
	passes tally.Counter
	drops  tally.Counter
}

// Service admits at most quota calls per window to the wrapped service.
type Service[Req, Res any] struct {
	inner       svc.Service[Req, Res]
	clock       clock.Clock
	nonBlocking bool
	metrics     metrics

	mu      sync.Mutex
	limiter limiter
	grants  []func() // undo for each admission held by a grant
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[struct{}, struct{}])(nil)
)

func validate(quota int, window time.Duration, p Policy) error {
	if quota < 1 {
		return fmt.Errorf("rate limit quota must be positive, got %d", quota)
	}
	if window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %v", window)
	}
	if _, ok := _policyNames[p]; !ok {
		return fmt.Errorf("unknown rate limit policy: %v", p)
	}
	return nil
}

// New wraps inner so that at most quota calls go through per window.
func New[Req, Res any](inner svc.Service[Req, Res], quota int, window time.Duration, opts ...Option) (*Service[Req, Res], error) {
	options := defaultOptions
	for _, opt := range opts {
		opt.apply(&options)
	}
	if err := validate(quota, window, options.policy); err != nil {
		return nil, err
	}

	return &Service[Req, Res]{
		inner:       inner,
		clock:       options.clock,
		nonBlocking: options.nonBlocking,
		limiter:     newLimiter(options.policy, quota, window),
		metrics: metrics{
			passes: options.scope.Counter("passes"),
			drops:  options.scope.Counter("drops"),
		},
	}, nil
}

// NewLayer builds a layer giving every wrapped service its own quota.
func NewLayer[Req, Res any](quota int, window time.Duration, opts ...Option) (svc.Layer[Req, Res], error) {
	options := defaultOptions
	for _, opt := range opts {
		opt.apply(&options)
	}
	if err := validate(quota, window, options.policy); err != nil {
		return nil, err
	}
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		s, _ := New(inner, quota, window, opts...)
		return s
	}), nil
}

// Ready waits for an admission, unless the service is non-blocking, and then
// for the inner service.
//
// An admission counts against the quota from the moment Ready takes it. If
// the inner service fails or ctx ends first, the admission is given back.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	undo, err := s.admit(ctx, !s.nonBlocking)
	if err != nil {
		return err
	}
	if undo == nil {
		// Non-blocking and over quota; the next Call will be refused unless
		// the window has moved by then.
		return s.inner.Ready(ctx)
	}

	if err := s.inner.Ready(ctx); err != nil {
		s.mu.Lock()
		undo()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.grants = append(s.grants, undo)
	s.mu.Unlock()
	return nil
}

// Release gives back the admission held by a grant from Ready, along with
// the inner service's grant.
func (s *Service[Req, Res]) Release() {
	s.mu.Lock()
	if n := len(s.grants); n > 0 {
		undo := s.grants[n-1]
		s.grants = s.grants[:n-1]
		undo()
	}
	s.mu.Unlock()
	svc.Release(s.inner)
}

// Call spends the grant from Ready, or takes an admission directly, and
// forwards the request.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	var zero Res

	s.mu.Lock()
	granted := len(s.grants) > 0
	if granted {
		s.grants = s.grants[:len(s.grants)-1]
	}
	s.mu.Unlock()

	if !granted {
		undo, err := s.admit(ctx, !s.nonBlocking)
		if err != nil {
			svc.Release(s.inner)
			s.metrics.drops.Inc(1)
			return zero, svcerrors.CancelledErrorf("waiting for rate limit: %w", err)
		}
		if undo == nil {
			// The inner service is not called, so its grant goes back.
			svc.Release(s.inner)
			s.metrics.drops.Inc(1)
			return zero, svcerrors.RateExceededErrorf("rate limit exceeded")
		}
	}

	s.metrics.passes.Inc(1)
	return s.inner.Call(ctx, req)
}

// admit takes an admission. When block is false it returns a nil undo if
// none is available now.
func (s *Service[Req, Res]) admit(ctx context.Context, block bool) (func(), error) {
	for {
		s.mu.Lock()
		undo, wait := s.limiter.take(s.clock.Now())
		s.mu.Unlock()

		if undo != nil || !block {
			return undo, nil
		}

		t := s.clock.Timer(wait)
		select {
		case <-t.C():
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
}
