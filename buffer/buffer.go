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

package buffer

import (
	"context"
	"fmt"
	"sync"

	"github.com/uber-go/tally"
	"go.uber.org/svc"
	"go.uber.org/svc/internal/permit"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/zap"
)

// Option customizes a Buffer.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	logger *zap.Logger
	scope  tally.Scope
}

var defaultOptions = options{
	scope: tally.NoopScope,
}

// WithLogger sets the logger for worker lifecycle and failures.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithTally reports the mailbox depth to the given scope.
func WithTally(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// Buffer serializes calls to the wrapped service through a FIFO mailbox.
type Buffer[Req, Res any] struct {
	inner  svc.Service[Req, Res]
	slots  *permit.Semaphore
	logger *zap.Logger
	depth  tally.Gauge

	mx        sync.Mutex
	queue     []*item[Req, Res]
	seq       uint64
	err       error // sticky; set once the worker fails or the buffer closes
	pendingCh chan struct{}

	workerCtx    context.Context
	cancelWorker context.CancelFunc
	stopCh       chan struct{}
	doneCh       chan struct{}
	closeOnce    sync.Once
}

var (
	_ svc.Service[struct{}, struct{}] = (*Buffer[struct{}, struct{}])(nil)
	_ svc.Releaser                    = (*Buffer[struct{}, struct{}])(nil)
)

type result[Res any] struct {
	res Res
	err error
}

type item[Req, Res any] struct {
	ctx   context.Context
	req   Req
	seq   uint64
	resCh chan result[Res]
}

func (it *item[Req, Res]) resolve(res Res, err error) {
	it.resCh <- result[Res]{res: res, err: err}
}

// New starts a buffer in front of inner with room for capacity queued
// requests.
func New[Req, Res any](inner svc.Service[Req, Res], capacity int, opts ...Option) (*Buffer[Req, Res], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}

	options := defaultOptions
	for _, opt := range opts {
		opt.apply(&options)
	}
	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Buffer[Req, Res]{
		inner:        inner,
		slots:        permit.New(capacity),
		logger:       logger,
		depth:        options.scope.Gauge("depth"),
		queue:        make([]*item[Req, Res], 0, capacity),
		pendingCh:    make(chan struct{}, 1),
		workerCtx:    ctx,
		cancelWorker: cancel,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	go b.run()
	return b, nil
}

// NewLayer builds a layer that puts a new buffer in front of every wrapped
// service. Each buffer owns a worker goroutine; callers that need to stop it
// can type assert the wrapped service to *Buffer and Close it.
func NewLayer[Req, Res any](capacity int, opts ...Option) (svc.Layer[Req, Res], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		b, _ := New(inner, capacity, opts...)
		return b
	}), nil
}

// Ready reserves a mailbox slot for the next Call.
//
// It fails with the sticky error once the worker has failed or the buffer
// has closed.
func (b *Buffer[Req, Res]) Ready(ctx context.Context) error {
	if err := b.failure(); err != nil {
		return err
	}
	if err := b.slots.Reserve(ctx); err != nil {
		return err
	}
	// Failure drains the mailbox, which frees the slots waiters block on.
	if err := b.failure(); err != nil {
		b.slots.Drop()
		return err
	}
	return nil
}

// Release frees the mailbox slot reserved by Ready.
func (b *Buffer[Req, Res]) Release() {
	b.slots.Drop()
}

// Call enqueues the request and waits for the worker to resolve it.
//
// If ctx ends first, Call returns a cancelled error. The request stays queued
// and is resolved as cancelled without reaching the wrapped service.
func (b *Buffer[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	var zero Res

	if err := b.failure(); err != nil {
		return zero, err
	}
	if err := b.slots.Claim(ctx); err != nil {
		return zero, svcerrors.CancelledErrorf("waiting for a buffer slot: %w", err)
	}

	it, err := b.put(ctx, req)
	if err != nil {
		b.slots.Release()
		return zero, err
	}

	// Non-blocking poke on the pending channel to wake the worker. If the
	// channel is already full the worker has not consumed the previous poke
	// yet and will see this item too.
	select {
	case b.pendingCh <- struct{}{}:
	default:
	}

	select {
	case r := <-it.resCh:
		return r.res, r.err
	case <-ctx.Done():
		return zero, abandonedError(ctx.Err())
	}
}

func abandonedError(cause error) error {
	return svcerrors.CancelledErrorf("buffered call abandoned: %w", cause)
}

// Len returns the number of requests waiting in the mailbox. The request the
// worker is dispatching is not counted.
func (b *Buffer[Req, Res]) Len() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return len(b.queue)
}

// Close stops the worker. Queued and future calls fail with a closed error.
// Close waits for a call the worker is dispatching to return.
func (b *Buffer[Req, Res]) Close() error {
	b.closeOnce.Do(func() {
		b.logger.Debug("buffer: initiated shutdown")

		b.mx.Lock()
		if b.err == nil {
			b.err = svcerrors.ClosedErrorf("buffer closed")
		}
		b.mx.Unlock()

		b.cancelWorker()
		close(b.stopCh)
		<-b.doneCh

		b.logger.Debug("buffer: completed shutdown")
	})
	return nil
}

func (b *Buffer[Req, Res]) failure() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.err
}

func (b *Buffer[Req, Res]) put(ctx context.Context, req Req) (*item[Req, Res], error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	if b.err != nil {
		return nil, b.err
	}

	b.seq++
	it := &item[Req, Res]{
		ctx:   ctx,
		req:   req,
		seq:   b.seq,
		resCh: make(chan result[Res], 1),
	}
	b.queue = append(b.queue, it)
	b.depth.Update(float64(len(b.queue)))
	return it, nil
}

// peek returns the oldest item, resolving abandoned items at the head of the
// queue along the way.
func (b *Buffer[Req, Res]) peek() *item[Req, Res] {
	for {
		b.mx.Lock()
		if len(b.queue) == 0 {
			b.mx.Unlock()
			return nil
		}
		it := b.queue[0]
		if it.ctx.Err() == nil {
			b.mx.Unlock()
			return it
		}
		b.popLocked()
		b.mx.Unlock()

		b.resolveAbandoned(it)
	}
}

func (b *Buffer[Req, Res]) pop() *item[Req, Res] {
	b.mx.Lock()
	defer b.mx.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	return b.popLocked()
}

// next pops the oldest live item, resolving abandoned items ahead of it.
func (b *Buffer[Req, Res]) next() *item[Req, Res] {
	for {
		it := b.pop()
		if it == nil || it.ctx.Err() == nil {
			return it
		}
		b.resolveAbandoned(it)
	}
}

// popLocked removes the oldest item and frees its slot.
func (b *Buffer[Req, Res]) popLocked() *item[Req, Res] {
	it := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	b.depth.Update(float64(len(b.queue)))
	b.slots.Release()
	return it
}

// drain resolves every queued item with err.
func (b *Buffer[Req, Res]) drain(err error) {
	b.mx.Lock()
	items := b.queue
	b.queue = nil
	b.depth.Update(0)
	b.mx.Unlock()

	var zero Res
	for _, it := range items {
		b.slots.Release()
		it.resolve(zero, err)
	}
}
