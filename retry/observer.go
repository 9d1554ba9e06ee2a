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

package retry

import "github.com/uber-go/tally"

type observer struct {
	callCounter      tally.Counter
	retryCounter     tally.Counter
	successCounter   tally.Counter
	failureCounter   tally.Counter
	exhaustedCounter tally.Counter
}

func newObserver(scope tally.Scope) *observer {
	return &observer{
		callCounter:      scope.Counter("attempts"),
		retryCounter:     scope.Counter("retries"),
		successCounter:   scope.Counter("successes"),
		failureCounter:   scope.Tagged(map[string]string{"error": "final"}).Counter("failures"),
		exhaustedCounter: scope.Tagged(map[string]string{"error": "max_attempts"}).Counter("failures"),
	}
}

func (o *observer) call() {
	o.callCounter.Inc(1)
}

func (o *observer) retry() {
	o.retryCounter.Inc(1)
}

func (o *observer) outcome(err error) {
	if err == nil {
		o.successCounter.Inc(1)
		return
	}
	o.failureCounter.Inc(1)
}

func (o *observer) exhausted() {
	o.exhaustedCounter.Inc(1)
}
