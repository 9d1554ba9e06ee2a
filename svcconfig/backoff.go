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
	"time"

	"go.uber.org/svc/api/backoff"
	ibackoff "go.uber.org/svc/internal/backoff"
)

// Backoff specifies a backoff strategy.
// The only supported strategy is "exponential" with full jitter.
//
//	exponential:
//	  min: 100ms
//	  base: 100ms
//	  max: 30s
type Backoff struct {
	Exponential ExponentialBackoff `config:"exponential"`
}

// IsZero reports whether no strategy was configured.
func (c Backoff) IsZero() bool {
	return c.Exponential == ExponentialBackoff{}
}

// Strategy returns the configured backoff strategy.
func (c Backoff) Strategy() (backoff.Strategy, error) {
	return c.Exponential.Strategy()
}

// ExponentialBackoff details the exponential with full jitter backoff
// strategy.
// For each attempt, the delay before the next attempt will be the minimum,
// plus a random amount of time up to the base duration doubled after each
// attempt, up to the maximum inclusive.
type ExponentialBackoff struct {
	Min  time.Duration `config:"min,interpolate"`
	Max  time.Duration `config:"max,interpolate"`
	Base time.Duration `config:"base,interpolate"`
}

// Strategy returns an exponential backoff strategy with the given
// configuration.
func (c ExponentialBackoff) Strategy() (backoff.Strategy, error) {
	var opts []ibackoff.ExponentialOption

	if c.Min > 0 {
		opts = append(opts, ibackoff.MinBackoff(c.Min))
	}
	if c.Max > 0 {
		opts = append(opts, ibackoff.MaxBackoff(c.Max))
	}
	if c.Base > 0 {
		opts = append(opts, ibackoff.BaseJump(c.Base))
	}

	strategy, err := ibackoff.NewExponential(opts...)
	if err != nil {
		return nil, err
	}
	return strategy, nil
}
