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

package svc

import (
	"context"

	"go.uber.org/atomic"
)

// Layer wraps a Service to produce another Service.
//
// Layers MUST NOT have side effects beyond constructing the new service.
// Validation of a layer's configuration happens when the layer is
// constructed, never in Wrap.
type Layer[Req, Res any] interface {
	Wrap(Service[Req, Res]) Service[Req, Res]
}

// LayerFunc adapts a function into a Layer.
type LayerFunc[Req, Res any] func(Service[Req, Res]) Service[Req, Res]

// Wrap calls the function.
func (f LayerFunc[Req, Res]) Wrap(s Service[Req, Res]) Service[Req, Res] {
	return f(s)
}

// Identity is a layer that returns the service it is given.
func Identity[Req, Res any]() Layer[Req, Res] {
	return identity[Req, Res]{}
}

type identity[Req, Res any] struct{}

func (identity[Req, Res]) Wrap(s Service[Req, Res]) Service[Req, Res] { return s }

// Apply wraps the service with the given layer. A nil layer leaves the
// service untouched.
func Apply[Req, Res any](s Service[Req, Res], l Layer[Req, Res]) Service[Req, Res] {
	if l == nil {
		return s
	}
	return l.Wrap(s)
}

// Chain combines the given layers into one. The first layer is the
// outermost: it sees every request before the layers that follow it.
func Chain[Req, Res any](layers ...Layer[Req, Res]) Layer[Req, Res] {
	filtered := make([]Layer[Req, Res], 0, len(layers))
	for _, l := range layers {
		switch l := l.(type) {
		case nil, identity[Req, Res]:
		case chain[Req, Res]:
			filtered = append(filtered, l...)
		default:
			filtered = append(filtered, l)
		}
	}
	switch len(filtered) {
	case 0:
		return Identity[Req, Res]()
	case 1:
		return filtered[0]
	default:
		return chain[Req, Res](filtered)
	}
}

type chain[Req, Res any] []Layer[Req, Res]

func (c chain[Req, Res]) Wrap(s Service[Req, Res]) Service[Req, Res] {
	for i := len(c) - 1; i >= 0; i-- {
		s = c[i].Wrap(s)
	}
	return s
}

// MapFunc intercepts a call on its way to the next service.
//
// The readiness grant obtained for the call belongs to next: a MapFunc MUST
// call next.Call at most once, or return without calling it.
type MapFunc[Req, Res any] func(ctx context.Context, req Req, next Service[Req, Res]) (Res, error)

// Map returns a service that delegates Ready to s unchanged and runs every
// Call through f.
func Map[Req, Res any](s Service[Req, Res], f MapFunc[Req, Res]) Service[Req, Res] {
	if f == nil {
		return s
	}
	return mapped[Req, Res]{s: s, f: f}
}

// MapLayer returns a layer that applies Map with the given function.
func MapLayer[Req, Res any](f MapFunc[Req, Res]) Layer[Req, Res] {
	return LayerFunc[Req, Res](func(s Service[Req, Res]) Service[Req, Res] {
		return Map(s, f)
	})
}

type mapped[Req, Res any] struct {
	s Service[Req, Res]
	f MapFunc[Req, Res]
}

func (m mapped[Req, Res]) Ready(ctx context.Context) error {
	return m.s.Ready(ctx)
}

// Call runs the function. If it returns without calling next, the grant of
// the wrapped service is released.
func (m mapped[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	next := &tracked[Req, Res]{Service: m.s}
	res, err := m.f(ctx, req, next)
	if !next.called.Load() {
		Release(m.s)
	}
	return res, err
}

func (m mapped[Req, Res]) Release() {
	Release(m.s)
}

// tracked notes whether a call went through.
type tracked[Req, Res any] struct {
	Service[Req, Res]

	called atomic.Bool
}

func (t *tracked[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	t.called.Store(true)
	return t.Service.Call(ctx, req)
}
