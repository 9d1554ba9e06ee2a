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

import "context"

// Builder collects layers and applies them to a service.
//
// Builders are immutable: With returns a new Builder and leaves the
// receiver untouched, so a partially configured Builder can be shared.
type Builder[Req, Res any] struct {
	layers []Layer[Req, Res]
}

// NewBuilder returns a Builder without any layers.
func NewBuilder[Req, Res any]() *Builder[Req, Res] {
	return &Builder[Req, Res]{}
}

// With returns a Builder that adds the given layer below all previously
// added layers.
func (b *Builder[Req, Res]) With(l Layer[Req, Res]) *Builder[Req, Res] {
	layers := make([]Layer[Req, Res], 0, len(b.layers)+1)
	layers = append(layers, b.layers...)
	layers = append(layers, l)
	return &Builder[Req, Res]{layers: layers}
}

// Layer returns the collected layers as a single layer.
func (b *Builder[Req, Res]) Layer() Layer[Req, Res] {
	return Chain(b.layers...)
}

// Service wraps the given service with the collected layers.
func (b *Builder[Req, Res]) Service(s Service[Req, Res]) Service[Req, Res] {
	return b.Layer().Wrap(s)
}

// Maker builds services for a target, typically by establishing a
// connection to it.
type Maker[Target, Req, Res any] interface {
	Make(ctx context.Context, target Target) (Service[Req, Res], error)
}

// MakerFunc adapts a function into a Maker.
type MakerFunc[Target, Req, Res any] func(context.Context, Target) (Service[Req, Res], error)

// Make calls the function.
func (f MakerFunc[Target, Req, Res]) Make(ctx context.Context, target Target) (Service[Req, Res], error) {
	return f(ctx, target)
}

// ApplyMaker returns a Maker that wraps every service produced by m with
// the given layer.
func ApplyMaker[Target, Req, Res any](m Maker[Target, Req, Res], l Layer[Req, Res]) Maker[Target, Req, Res] {
	if l == nil {
		return m
	}
	return layeredMaker[Target, Req, Res]{m: m, l: l}
}

type layeredMaker[Target, Req, Res any] struct {
	m Maker[Target, Req, Res]
	l Layer[Req, Res]
}

func (lm layeredMaker[Target, Req, Res]) Make(ctx context.Context, target Target) (Service[Req, Res], error) {
	s, err := lm.m.Make(ctx, target)
	if err != nil {
		return nil, err
	}
	return lm.l.Wrap(s), nil
}
