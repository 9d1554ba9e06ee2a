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

// Package concurrency bounds the number of calls in flight through a service.
//
// A successful Ready reserves one of the permits and a Call spends it. The
// permit returns to the pool when the inner call finishes, whatever its
// outcome, so a service wrapped with a limit of N never has more than N calls
// running through it.
//
//	limited, err := concurrency.New(backend, 10)
//	if err != nil {
//		return err
//	}
//	res, err := svc.Oneshot(ctx, limited, req)
package concurrency

import (
	"context"
	"fmt"

	"github.com/uber-go/tally"
	"go.uber.org/svc"
	"go.uber.org/svc/internal/permit"
	"go.uber.org/svc/svcerrors"
)

// Option customizes a concurrency limited service.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	scope tally.Scope
}

var defaultOptions = options{
	scope: tally.NoopScope,
}

// WithTally reports the number of calls in flight to the given scope.
func WithTally(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// Service limits the calls in flight through the wrapped service.
type Service[Req, Res any] struct {
	inner    svc.Service[Req, Res]
	permits  *permit.Semaphore
	inFlight tally.Gauge
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[struct{}, struct{}])(nil)
)

// New wraps inner so that at most max calls run through it at once.
func New[Req, Res any](inner svc.Service[Req, Res], max int, opts ...Option) (*Service[Req, Res], error) {
	if max < 1 {
		return nil, fmt.Errorf("concurrency limit must be positive, got %d", max)
	}

	options := defaultOptions
	for _, opt := range opts {
		opt.apply(&options)
	}

	return &Service[Req, Res]{
		inner:    inner,
		permits:  permit.New(max),
		inFlight: options.scope.Gauge("in_flight"),
	}, nil
}

// NewLayer builds a layer applying the same limit to every service it wraps.
// Each wrapped service gets its own pool of permits.
func NewLayer[Req, Res any](max int, opts ...Option) (svc.Layer[Req, Res], error) {
	if max < 1 {
		return nil, fmt.Errorf("concurrency limit must be positive, got %d", max)
	}
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		s, _ := New(inner, max, opts...)
		return s
	}), nil
}

// Ready waits for a free permit and then for the inner service.
//
// The permit is held as a grant for the next Call. If the inner service
// fails, the permit is returned before the error is.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	if err := s.permits.Reserve(ctx); err != nil {
		return err
	}
	if err := s.inner.Ready(ctx); err != nil {
		s.permits.Drop()
		return err
	}
	return nil
}

// Call spends a grant, or waits for a permit when none was reserved, and
// forwards the request. The permit is released once the inner call returns.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	if err := s.permits.Claim(ctx); err != nil {
		var zero Res
		return zero, svcerrors.CancelledErrorf("waiting for a concurrency permit: %w", err)
	}
	s.inFlight.Update(float64(s.permits.InUse()))
	defer func() {
		s.permits.Release()
		s.inFlight.Update(float64(s.permits.InUse()))
	}()

	return s.inner.Call(ctx, req)
}

// Release returns the permit parked by a successful Ready, along with the
// inner service's grant.
func (s *Service[Req, Res]) Release() {
	if s.permits.Drop() {
		svc.Release(s.inner)
	}
}

// InFlight returns the number of calls currently running through the
// service.
func (s *Service[Req, Res]) InFlight() int {
	return s.permits.InUse()
}

// Max returns the limit on calls in flight.
func (s *Service[Req, Res]) Max() int {
	return s.permits.Size()
}
