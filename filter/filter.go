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

// Package filter admits or rejects requests before they reach a service.
//
// A Predicate inspects each request. Rejected requests fail with a rejected
// error that wraps the predicate's reason and never reach the wrapped
// service.
package filter

import (
	"context"
	"errors"

	"go.uber.org/svc"
	"go.uber.org/svc/svcerrors"
)

// Predicate decides whether a request may proceed. Check may block, for
// example to consult a remote policy, and should honor ctx.
type Predicate[Req any] interface {
	Check(ctx context.Context, req Req) error
}

// PredicateFunc adapts a function into a Predicate.
type PredicateFunc[Req any] func(ctx context.Context, req Req) error

// Check calls f.
func (f PredicateFunc[Req]) Check(ctx context.Context, req Req) error {
	return f(ctx, req)
}

// Service applies a Predicate to every request.
type Service[Req, Res any] struct {
	inner     svc.Service[Req, Res]
	predicate Predicate[Req]
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[struct{}, struct{}])(nil)
)

// New wraps inner so that only requests accepted by p reach it.
func New[Req, Res any](inner svc.Service[Req, Res], p Predicate[Req]) *Service[Req, Res] {
	return &Service[Req, Res]{inner: inner, predicate: p}
}

// NewLayer builds a layer applying p to every wrapped service.
func NewLayer[Req, Res any](p Predicate[Req]) svc.Layer[Req, Res] {
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		return New(inner, p)
	})
}

// Ready waits for the inner service.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	return s.inner.Ready(ctx)
}

// Release gives back the inner service's grant.
func (s *Service[Req, Res]) Release() {
	svc.Release(s.inner)
}

// Call checks the request and forwards it if the predicate accepts it. A
// rejected request releases the grant the inner service gave in Ready.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	if err := s.predicate.Check(ctx, req); err != nil {
		svc.Release(s.inner)
		var zero Res
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return zero, svcerrors.CancelledErrorf("checking request: %w", err)
		}
		return zero, svcerrors.RejectedErrorf("request rejected: %w", err)
	}
	return s.inner.Call(ctx, req)
}
