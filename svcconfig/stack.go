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

package svcconfig

import (
	"io"
	"sync"

	"github.com/uber-go/tally"
	"go.uber.org/multierr"
	"go.uber.org/svc"
	"go.uber.org/zap"
)

// Kit gives a LayerBuilder what it needs beyond its attributes.
type Kit struct {
	kind   string
	logger *zap.Logger
	scope  tally.Scope
	stack  closerRegistry
}

type closerRegistry interface {
	register(io.Closer)
}

// Kind returns the kind of the layer being built.
func (k *Kit) Kind() string { return k.kind }

// Logger returns a logger tagged with the layer kind.
func (k *Kit) Logger() *zap.Logger { return k.logger }

// Scope returns the metrics scope for the layer.
func (k *Kit) Scope() tally.Scope { return k.scope }

// OnClose registers c to be closed with the stack. Use it for services the
// layer starts, like buffers.
func (k *Kit) OnClose(c io.Closer) {
	k.stack.register(c)
}

// Stack is a layer built from configuration.
type Stack[Req, Res any] struct {
	layer svc.Layer[Req, Res]
	kinds []string

	mu      sync.Mutex
	closers []io.Closer
}

// Layer returns the whole stack as a single layer.
func (s *Stack[Req, Res]) Layer() svc.Layer[Req, Res] {
	return s.layer
}

// Kinds returns the layer kinds, outermost first.
func (s *Stack[Req, Res]) Kinds() []string {
	return append([]string(nil), s.kinds...)
}

// Service wraps inner in the stack.
func (s *Stack[Req, Res]) Service(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
	return s.layer.Wrap(inner)
}

// Builder returns a builder that starts with the stack. Layers added to it
// go inside the stack.
func (s *Stack[Req, Res]) Builder() *svc.Builder[Req, Res] {
	return svc.NewBuilder[Req, Res]().With(s.layer)
}

// Close closes every service the stack started, most recent first.
func (s *Stack[Req, Res]) Close() error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	return err
}

func (s *Stack[Req, Res]) register(c io.Closer) {
	s.mu.Lock()
	s.closers = append(s.closers, c)
	s.mu.Unlock()
}
