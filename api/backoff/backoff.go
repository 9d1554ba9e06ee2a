// Copyright (c) 2019 Uber Technologies, Inc.
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

// Package backoff defines how layers space out repeated attempts, such as
// reconnecting to a backend or retrying a failed call.
package backoff

import "time"

// Strategy is a factory for backoff algorithms.
// Each backoff instance may capture some state, typically a random number
// generator, so a layer asks for a fresh Backoff per logical operation (one
// retried call, one run of consecutive reconnects).
type Strategy interface {
	Backoff() Backoff
}

// Backoff is an algorithm for determining how long to wait after a number of
// attempts to perform some action.
// Instances of backoff are intended to be used in the stack of a single
// goroutine and need not be safe for concurrent use.
type Backoff interface {
	Duration(attempts uint) time.Duration
}
