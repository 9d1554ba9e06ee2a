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

package ratelimit

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Policy selects how admissions are counted against the quota.
type Policy int

const (
	// SlidingWindow admits at most quota calls in any interval of one
	// window. This is the default.
	SlidingWindow Policy = iota

	// TokenBucket refills quota tokens evenly over each window and holds at
	// most quota tokens at once.
	TokenBucket
)

var _policyNames = map[Policy]string{
	SlidingWindow: "slidingWindow",
	TokenBucket:   "tokenBucket",
}

// String returns the configuration name of the policy.
func (p Policy) String() string {
	if name, ok := _policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if name, ok := _policyNames[p]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("unknown rate limit policy: %d", int(p))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	for policy, name := range _policyNames {
		if name == string(text) {
			*p = policy
			return nil
		}
	}
	return fmt.Errorf("unknown rate limit policy: %q", text)
}

// limiter counts admissions. take admits one call at now and returns a func
// that gives the admission back, or returns nil and how long to wait before
// trying again. Callers serialize access.
type limiter interface {
	take(now time.Time) (undo func(), wait time.Duration)
}

func newLimiter(p Policy, quota int, window time.Duration) limiter {
	if p == TokenBucket {
		return &bucket{
			lim:    rate.NewLimiter(rate.Limit(float64(quota)/window.Seconds()), quota),
			window: window,
		}
	}
	return &slidingWindow{
		quota: quota,
		width: window,
		times: make([]time.Time, 0, quota),
	}
}

// slidingWindow remembers the admission times within the last window.
type slidingWindow struct {
	quota int
	width time.Duration
	times []time.Time // oldest first
}

func (w *slidingWindow) take(now time.Time) (func(), time.Duration) {
	expired := 0
	for expired < len(w.times) && now.Sub(w.times[expired]) >= w.width {
		expired++
	}
	if expired > 0 {
		w.times = append(w.times[:0], w.times[expired:]...)
	}

	if len(w.times) >= w.quota {
		return nil, w.width - now.Sub(w.times[0])
	}
	w.times = append(w.times, now)
	return func() { w.remove(now) }, 0
}

func (w *slidingWindow) remove(t time.Time) {
	for i := len(w.times) - 1; i >= 0; i-- {
		if w.times[i].Equal(t) {
			w.times = append(w.times[:i], w.times[i+1:]...)
			return
		}
	}
}

type bucket struct {
	lim    *rate.Limiter
	window time.Duration
}

func (b *bucket) take(now time.Time) (func(), time.Duration) {
	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return nil, b.window
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return nil, d
	}
	return func() { r.CancelAt(now) }, 0
}
