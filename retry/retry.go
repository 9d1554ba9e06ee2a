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

package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/svc"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the attempts of one call when WithMaxAttempts is
// not given.
const DefaultMaxAttempts = 10

// Option customizes a retry service.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	maxAttempts uint
	clock       clock.Clock
	scope       tally.Scope
	logger      *zap.Logger
}

var defaultOptions = options{
	maxAttempts: DefaultMaxAttempts,
	scope:       tally.NoopScope,
}

// WithMaxAttempts caps the attempts of one call, the first one included,
// whatever the policy decides. Zero leaves the default in place.
func WithMaxAttempts(n uint) Option {
	return optionFunc(func(opts *options) {
		if n > 0 {
			opts.maxAttempts = n
		}
	})
}

// WithClock sets the clock used to wait between attempts.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// WithTally reports attempts to the given scope.
func WithTally(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// WithLogger sets the logger for calls that run out of attempts.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// Service retries calls to the wrapped service as its policy directs.
type Service[Req, Res any] struct {
	inner       svc.Service[Req, Res]
	policy      Policy[Req, Res]
	maxAttempts uint
	clock       clock.Clock
	logger      *zap.Logger
	observer    *observer
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[struct{}, struct{}])(nil)
)

// New wraps inner with retries driven by policy.
func New[Req, Res any](inner svc.Service[Req, Res], policy Policy[Req, Res], opts ...Option) *Service[Req, Res] {
	options := defaultOptions
	for _, opt := range opts {
		opt.apply(&options)
	}
	if options.clock == nil {
		options.clock = clock.NewReal()
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}

	return &Service[Req, Res]{
		inner:       inner,
		policy:      policy,
		maxAttempts: options.maxAttempts,
		clock:       options.clock,
		logger:      options.logger,
		observer:    newObserver(options.scope),
	}
}

// NewLayer builds a layer retrying every wrapped service with policy.
func NewLayer[Req, Res any](policy Policy[Req, Res], opts ...Option) svc.Layer[Req, Res] {
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		return New(inner, policy, opts...)
	})
}

// Ready waits for the wrapped service.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	return s.inner.Ready(ctx)
}

// Release gives back the inner service's grant.
func (s *Service[Req, Res]) Release() {
	svc.Release(s.inner)
}

// Call sends the request and retries it while the policy asks to.
//
// The outcome is that of the last attempt. If ctx ends during a backoff, the
// outcome of the attempt before it is returned. If the wrapped service fails
// its readiness check before a retry, that failure is returned.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	attempt := Attempt{}
	backup, clonable := s.policy.Clone(req)

	for n := uint(1); ; n++ {
		s.observer.call()
		res, err := s.inner.Call(ctx, req)
		if !clonable {
			s.observer.outcome(err)
			return res, err
		}

		decision, retry := s.policy.Retry(ctx, attempt, backup, res, err)
		if !retry {
			s.observer.outcome(err)
			return res, err
		}
		if n >= s.maxAttempts {
			s.observer.exhausted()
			s.logger.Warn("retry: call ran out of attempts",
				zap.Uint("attempts", n),
				zap.Error(err))
			return res, err
		}

		if decision.Backoff > 0 {
			if !s.sleep(ctx, decision.Backoff) {
				s.observer.outcome(err)
				return res, err
			}
			attempt.Delay += decision.Backoff
		}
		attempt.Count++

		if readyErr := s.inner.Ready(ctx); readyErr != nil {
			var zero Res
			return zero, fmt.Errorf("waiting to retry after %v: %w", err, readyErr)
		}

		req = decision.Request
		backup, clonable = s.policy.Clone(req)
		s.observer.retry()
	}
}

func (s *Service[Req, Res]) sleep(ctx context.Context, d time.Duration) bool {
	t := s.clock.Timer(d)
	defer t.Stop()

	select {
	case <-t.C():
		return true
	case <-ctx.Done():
		return false
	}
}
