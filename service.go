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
	"errors"
)

// Service is a request-processing capability.
//
// Ready MUST be called, and MUST return nil, before each Call. A service that
// reported ready MUST accept the next Call without failing for capacity
// reasons.
//
// Ready MAY block. If the service is ready at the moment Ready is called it
// MUST return nil even when ctx is already done; otherwise it returns
// ctx.Err() once ctx is done. Any other error is a terminal failure and
// MUST be sticky: later calls to Ready keep failing until the service is
// recreated.
//
// Implementations MUST be safe for concurrent use.
type Service[Req, Res any] interface {
	// Ready waits until the service can accept a single Call.
	Ready(ctx context.Context) error

	// Call dispatches one request and waits for its outcome.
	Call(ctx context.Context, req Req) (Res, error)
}

// State is the readiness of a Service as observed by Poll.
type State int

const (
	// StatePending indicates the service cannot accept a call yet.
	StatePending State = iota

	// StateReady indicates the service accepts the next call.
	StateReady

	// StateFailed indicates the service failed and will not recover.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var _doneContext = func() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}()

// Poll reports the readiness of a service without waiting.
//
// A StateReady result holds a readiness grant just like a successful call to
// Ready does: the caller owes the service exactly one Call.
func Poll[Req, Res any](s Service[Req, Res]) (State, error) {
	err := s.Ready(_doneContext)
	switch {
	case err == nil:
		return StateReady, nil
	case errors.Is(err, context.Canceled):
		return StatePending, nil
	default:
		return StateFailed, err
	}
}

// Func adapts a function into a Service that is always ready.
type Func[Req, Res any] func(context.Context, Req) (Res, error)

// Ready always succeeds.
func (f Func[Req, Res]) Ready(context.Context) error { return nil }

// Call invokes the function.
func (f Func[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

// Releaser is implemented by services that hold capacity between a
// successful Ready and the Call it grants. Release gives back one such grant
// when the caller will not make the Call.
type Releaser interface {
	Release()
}

// Release gives back the readiness grant held by s, if s holds grants.
// Wrappers that decide not to forward a call to their inner service MUST
// release the inner service's grant.
func Release[Req, Res any](s Service[Req, Res]) {
	if r, ok := s.(Releaser); ok {
		r.Release()
	}
}

// Oneshot waits for the service to become ready and then calls it once.
func Oneshot[Req, Res any](ctx context.Context, s Service[Req, Res], req Req) (Res, error) {
	if err := s.Ready(ctx); err != nil {
		var zero Res
		return zero, err
	}
	return s.Call(ctx, req)
}
