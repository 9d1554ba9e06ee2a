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

package reconnect

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/svc"
	"go.uber.org/svc/api/backoff"
	ibackoff "go.uber.org/svc/internal/backoff"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/zap"
)

// Option customizes a reconnecting service.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	backoff backoff.Strategy
	isFatal func(error) bool
	clock   clock.Clock
	logger  *zap.Logger
}

// WithReconnectDelay waits d after a failed connection attempt before the
// next one. Defaults to zero: the next Ready after a failure reconnects.
func WithReconnectDelay(d time.Duration) Option {
	return optionFunc(func(opts *options) {
		opts.backoff = ibackoff.Constant(d)
	})
}

// WithBackoff picks the delay after each failed connection attempt from
// strategy, by the number of consecutive failures before it.
func WithBackoff(strategy backoff.Strategy) Option {
	return optionFunc(func(opts *options) {
		if strategy != nil {
			opts.backoff = strategy
		}
	})
}

// WithFatal sets which call errors drop the connection. Defaults to
// IsConnectionError.
func WithFatal(f func(error) bool) Option {
	return optionFunc(func(opts *options) {
		if f != nil {
			opts.isFatal = f
		}
	})
}

// WithClock sets the clock used for reconnect delays.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// WithLogger sets the logger for connects and disconnects.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// Service establishes its wrapped service lazily and re-establishes it after
// it breaks.
type Service[Target, Req, Res any] struct {
	maker   svc.Maker[Target, Req, Res]
	target  Target
	isFatal func(error) bool
	clock   clock.Clock
	logger  *zap.Logger

	connectCtx    context.Context
	cancelConnect context.CancelFunc
	wg            sync.WaitGroup
	connects      atomic.Int64

	mu         sync.Mutex
	state      State
	conn       svc.Service[Req, Res]
	gen        uint64
	connecting chan struct{} // closed when the attempt in progress ends
	err        error
	retryAt    time.Time
	failures   uint
	backoff    backoff.Backoff
}

var (
	_ svc.Service[struct{}, struct{}] = (*Service[string, struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Service[string, struct{}, struct{}])(nil)
)

// New returns a Service that connects to target through maker. Nothing is
// built until the first Ready.
func New[Target, Req, Res any](maker svc.Maker[Target, Req, Res], target Target, opts ...Option) *Service[Target, Req, Res] {
	options := options{
		backoff: ibackoff.None,
		isFatal: IsConnectionError,
		clock:   clock.NewReal(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service[Target, Req, Res]{
		maker:         maker,
		target:        target,
		isFatal:       options.isFatal,
		clock:         options.clock,
		logger:        options.logger,
		connectCtx:    ctx,
		cancelConnect: cancel,
		backoff:       options.backoff.Backoff(),
	}
}

// Ready connects if there is no connection and waits for the connection to
// be ready.
//
// A caller that waited on a connection attempt gets that attempt's failure.
// Later callers get the same failure until the reconnect delay has passed.
// Abandoning Ready does not abandon the connection attempt.
func (s *Service[Target, Req, Res]) Ready(ctx context.Context) error {
	waited := false
	for {
		s.mu.Lock()
		switch s.state {
		case Closed:
			s.mu.Unlock()
			return svcerrors.ClosedErrorf("reconnecting service closed")

		case Idle:
			s.startConnectLocked()
			s.mu.Unlock()

		case Connecting:
			ch := s.connecting
			s.mu.Unlock()

			select {
			case <-ch:
			default:
				select {
				case <-ch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			waited = true

		case Failed:
			if waited || s.clock.Now().Before(s.retryAt) {
				err := s.err
				s.mu.Unlock()
				return err
			}
			s.startConnectLocked()
			s.mu.Unlock()

		case Connected:
			conn, gen := s.conn, s.gen
			s.mu.Unlock()

			err := conn.Ready(ctx)
			if err == nil || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
				return err
			}
			s.drop(gen, err)
			return err
		}
	}
}

// Call forwards the request to the connection. If the call fails with a
// fatal error the connection is dropped and the next Ready reconnects.
func (s *Service[Target, Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	s.mu.Lock()
	if s.state != Connected {
		state := s.state
		s.mu.Unlock()
		var zero Res
		if state == Closed {
			return zero, svcerrors.ClosedErrorf("reconnecting service closed")
		}
		return zero, svcerrors.ConnectionFailedErrorf("not connected: %v", state)
	}
	conn, gen := s.conn, s.gen
	s.mu.Unlock()

	res, err := conn.Call(ctx, req)
	if err != nil && s.isFatal(err) {
		s.drop(gen, err)
	}
	return res, err
}

// Release gives back the grant of the current connection. A connection
// dropped since Ready took its grants with it.
func (s *Service[Target, Req, Res]) Release() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		svc.Release(conn)
	}
}

// State returns the current connection state.
func (s *Service[Target, Req, Res]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connects returns the number of connections established so far.
func (s *Service[Target, Req, Res]) Connects() int {
	return int(s.connects.Load())
}

// Close drops the connection and stops reconnecting. It waits for a
// connection attempt in progress to return.
func (s *Service[Target, Req, Res]) Close() error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.state = Closed
	s.conn = nil
	s.mu.Unlock()

	s.cancelConnect()
	s.wg.Wait()
	return dispose(conn)
}

func (s *Service[Target, Req, Res]) startConnectLocked() {
	ch := make(chan struct{})
	s.state = Connecting
	s.connecting = ch
	s.wg.Add(1)
	go s.connect(ch)
}

func (s *Service[Target, Req, Res]) connect(done chan struct{}) {
	defer s.wg.Done()
	defer close(done)

	s.logger.Debug("reconnect: connecting")
	conn, err := s.maker.Make(s.connectCtx, s.target)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		if err == nil {
			if derr := dispose(conn); derr != nil {
				s.logger.Warn("reconnect: failed to close connection", zap.Error(derr))
			}
		}
		return
	}

	if err != nil {
		delay := s.backoff.Duration(s.failures)
		s.failures++
		s.state = Failed
		s.err = svcerrors.ConnectionFailedErrorf("connection attempt failed: %w", err)
		s.retryAt = s.clock.Now().Add(delay)
		s.logger.Warn("reconnect: connection attempt failed",
			zap.Error(err),
			zap.Uint("failures", s.failures),
			zap.Duration("retryIn", delay))
		return
	}

	s.failures = 0
	s.err = nil
	s.gen++
	s.conn = conn
	s.state = Connected
	s.connects.Inc()
	s.logger.Info("reconnect: connected", zap.Uint64("generation", s.gen))
}

// drop discards connection generation gen if it is still the current one.
func (s *Service[Target, Req, Res]) drop(gen uint64, cause error) {
	s.mu.Lock()
	if s.state != Connected || s.gen != gen {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.conn = nil
	s.state = Idle
	s.mu.Unlock()

	s.logger.Info("reconnect: dropped broken connection",
		zap.Uint64("generation", gen),
		zap.Error(cause))
	if err := dispose(conn); err != nil {
		s.logger.Warn("reconnect: failed to close connection", zap.Error(err))
	}
}

func dispose(conn interface{}) error {
	if c, ok := conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
