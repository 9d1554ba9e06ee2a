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

// Package buffer lets many callers share one service through a bounded
// mailbox drained by a single worker.
//
// Calls are dispatched to the wrapped service one at a time, in the order
// they were enqueued. Ready reserves a mailbox slot, so a caller whose Ready
// succeeded can always enqueue its next Call. When the mailbox is full, Ready
// and Call wait for the worker to take the oldest request out.
//
// If the wrapped service fails its readiness check, the failure is sticky:
// every queued request is resolved with it, and every later Ready and Call
// returns it. Close stops the worker and resolves whatever is left with a
// closed error.
//
//	b, err := buffer.New(conn, 64, buffer.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer b.Close()
package buffer
