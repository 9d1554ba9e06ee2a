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

// Handler answers a call made on a fake Service.
type Handler[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Echo returns a handler that responds with the request.
func Echo[T any]() Handler[T, T] {
	return func(_ context.Context, req T) (T, error) { return req, nil }
}

// Fail returns a handler that always fails with err.
func Fail[Req, Res any](err error) Handler[Req, Res] {
	return func(context.Context, Req) (Res, error) {
		var zero Res
		return zero, err
	}
}

// Service is a fake service whose readiness is driven by the test.
//
// A new Service is ready. SetReady(false) makes Ready block until
// SetReady(true) or Fail is called. Fail makes every later Ready return the
// given error.
type Service[Req, Res any] struct {
	handler Handler[Req, Res]

	mu      sync.Mutex
	ready   bool
	err     error
	readyCh chan struct{} // closed once ready or failed
	calls   []Req

	readies     atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	entered     chan Req
}

var _ svc.Service[string, string] = (*Service[string, string])(nil)

// NewService returns a ready fake service answering with handler.
func NewService[Req, Res any](handler Handler[Req, Res]) *Service[Req, Res] {
	ch := make(chan struct{})
	close(ch)
	return &Service[Req, Res]{
		handler: handler,
		ready:   true,
		readyCh: ch,
		entered: make(chan Req, 1024),
	}
}

// NewEcho returns a ready fake service that responds with the request.
func NewEcho[T any]() *Service[T, T] {
	return NewService(Echo[T]())
}

// SetReady changes whether the service accepts calls.
func (s *Service[Req, Res]) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil || s.ready == ready {
		return
	}
	s.ready = ready
	if ready {
		close(s.readyCh)
	} else {
		s.readyCh = make(chan struct{})
	}
}

// Fail makes every later Ready return err.
func (s *Service[Req, Res]) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	s.err = err
	if !s.ready {
		close(s.readyCh)
	}
}

// Ready blocks until the service is ready or failed.
func (s *Service[Req, Res]) Ready(ctx context.Context) error {
	for {
		s.mu.Lock()
		err, ready, ch := s.err, s.ready, s.readyCh
		s.mu.Unlock()

		switch {
		case err != nil:
			return err
		case ready:
			s.readies.Inc()
			return nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Call records the request and hands it to the handler.
func (s *Service[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	n := s.inFlight.Inc()
	for {
		max := s.maxInFlight.Load()
		if n <= max || s.maxInFlight.CAS(max, n) {
			break
		}
	}
	defer s.inFlight.Dec()

	select {
	case s.entered <- req:
	default:
	}
	return s.handler(ctx, req)
}

// Calls returns the requests received so far, in arrival order.
func (s *Service[Req, Res]) Calls() []Req {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Req, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount returns the number of requests received so far.
func (s *Service[Req, Res]) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Entered delivers each request as its call begins.
func (s *Service[Req, Res]) Entered() <-chan Req {
	return s.entered
}

// ReadyCount returns the number of times Ready reported the service ready.
func (s *Service[Req, Res]) ReadyCount() int {
	return int(s.readies.Load())
}

// InFlight returns the number of calls inside the handler.
func (s *Service[Req, Res]) InFlight() int {
	return int(s.inFlight.Load())
}

// MaxInFlight returns the largest number of calls seen inside the handler at
// once.
func (s *Service[Req, Res]) MaxInFlight() int {
	return int(s.maxInFlight.Load())
}
