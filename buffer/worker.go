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
	"go.uber.org/svc"
	"go.uber.org/zap"
)

// run is the worker loop. It dispatches queued requests one at a time until
// the wrapped service fails or the buffer closes.
func (b *Buffer[Req, Res]) run() {
	defer close(b.doneCh)
	b.logger.Debug("buffer: worker started")

	for {
		select {
		case <-b.stopCh:
			b.drain(b.failure())
			b.logger.Debug("buffer: worker shut down")
			return
		case <-b.pendingCh:
		}

		for b.failure() == nil {
			if b.peek() == nil {
				break
			}

			if err := b.inner.Ready(b.workerCtx); err != nil {
				if b.failure() != nil {
					// Close interrupted the wait; the stop case drains.
					break
				}
				b.fail(err)
				return
			}

			// The grant from Ready goes to the oldest request still wanted.
			it := b.next()
			if it == nil {
				svc.Release(b.inner)
				break
			}

			res, err := b.inner.Call(it.ctx, it.req)
			it.resolve(res, err)
		}
	}
}

func (b *Buffer[Req, Res]) resolveAbandoned(it *item[Req, Res]) {
	var zero Res
	b.logger.Debug("buffer: dropped abandoned request", zap.Uint64("seq", it.seq))
	it.resolve(zero, abandonedError(it.ctx.Err()))
}

// fail records the wrapped service's failure and resolves everything queued
// with it.
func (b *Buffer[Req, Res]) fail(err error) {
	b.logger.Error("buffer: wrapped service failed, draining mailbox", zap.Error(err))

	b.mx.Lock()
	if b.err == nil {
		b.err = err
	}
	sticky := b.err
	b.mx.Unlock()

	b.drain(sticky)
}
