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

import (
	"context"
	"time"

	"go.uber.org/svc/api/backoff"
	ibackoff "go.uber.org/svc/internal/backoff"
	"go.uber.org/svc/svcerrors"
)

// Attempt describes the retries made so far for one logical call.
type Attempt struct {
	// Count is the number of retries already made. It is zero when the
	// policy is consulted about the first attempt.
	Count uint

	// Delay is the total backoff waited so far.
	Delay time.Duration
}

// Decision tells the service how to retry.
type Decision[Req any] struct {
	// Request is sent on the next attempt.
	Request Req

	// Backoff is how long to wait before the next attempt.
	Backoff time.Duration
}

// Policy classifies the outcome of an attempt.
//
// Retry is called after every attempt, successful or not, with a clone of
// the request made before the attempt. Returning false ends the call with the
// attempt's outcome. Clone returns a copy of req that can be sent again, or
// false if req must not be replayed.
type Policy[Req, Res any] interface {
	Retry(ctx context.Context, attempt Attempt, req Req, res Res, err error) (Decision[Req], bool)
	Clone(req Req) (Req, bool)
}

// PolicyOption customizes the policy built by NewPolicy.
type PolicyOption interface {
	apply(*policyOptions)
}

type policyOptionFunc func(*policyOptions)

func (f policyOptionFunc) apply(opts *policyOptions) { f(opts) }

type policyOptions struct {
	// retries is the number of times we will retry the request (after the
	// initial attempt).
	retries uint

	// backoffStrategy picks the delay before every retry.
	backoffStrategy backoff.Strategy

	// retryIf reports whether an error is worth retrying.
	retryIf func(error) bool

	// clone holds a func(Req) (Req, bool) for the policy's request type.
	clone interface{}
}

var defaultPolicyOpts = policyOptions{
	retries:         0,
	backoffStrategy: ibackoff.None,
	retryIf:         svcerrors.NotSent,
}

// Retries sets the number of retries after the first attempt. Defaults to
// zero.
func Retries(retries uint) PolicyOption {
	return policyOptionFunc(func(opts *policyOptions) {
		opts.retries = retries
	})
}

// BackoffStrategy sets the delays between attempts. Defaults to no delay.
func BackoffStrategy(strategy backoff.Strategy) PolicyOption {
	return policyOptionFunc(func(opts *policyOptions) {
		if strategy != nil {
			opts.backoffStrategy = strategy
		}
	})
}

// RetryIf sets the predicate selecting retryable errors. Defaults to
// svcerrors.NotSent, which only retries requests the backend never saw.
func RetryIf(f func(error) bool) PolicyOption {
	return policyOptionFunc(func(opts *policyOptions) {
		if f != nil {
			opts.retryIf = f
		}
	})
}

// CloneWith sets how requests are copied before being sent. The default
// returns the request itself, which is only safe for requests that are
// values or immutable.
//
// The function's request type must match the policy's. A mismatched clone
// function makes every request non-clonable, so nothing is retried.
func CloneWith[Req any](f func(Req) (Req, bool)) PolicyOption {
	return policyOptionFunc(func(opts *policyOptions) {
		opts.clone = f
	})
}

// BasicPolicy retries failures selected by a predicate a fixed number of
// times.
type BasicPolicy[Req, Res any] struct {
	retries  uint
	strategy backoff.Strategy
	retryIf  func(error) bool
	clone    func(Req) (Req, bool)
}

var _ Policy[struct{}, struct{}] = (*BasicPolicy[struct{}, struct{}])(nil)

// NewPolicy builds a BasicPolicy.
func NewPolicy[Req, Res any](opts ...PolicyOption) *BasicPolicy[Req, Res] {
	options := defaultPolicyOpts
	for _, opt := range opts {
		opt.apply(&options)
	}

	clone := func(req Req) (Req, bool) { return req, true }
	if options.clone != nil {
		if f, ok := options.clone.(func(Req) (Req, bool)); ok {
			clone = f
		} else {
			clone = func(req Req) (Req, bool) { return req, false }
		}
	}

	return &BasicPolicy[Req, Res]{
		retries:  options.retries,
		strategy: options.backoffStrategy,
		retryIf:  options.retryIf,
		clone:    clone,
	}
}

// Retry retries failed attempts the predicate accepts until the retries are
// spent.
func (p *BasicPolicy[Req, Res]) Retry(ctx context.Context, attempt Attempt, req Req, _ Res, err error) (Decision[Req], bool) {
	if err == nil || attempt.Count >= p.retries || !p.retryIf(err) {
		return Decision[Req]{}, false
	}
	return Decision[Req]{
		Request: req,
		Backoff: p.strategy.Backoff().Duration(attempt.Count),
	}, true
}

// Clone copies the request with the configured clone function.
func (p *BasicPolicy[Req, Res]) Clone(req Req) (Req, bool) {
	return p.clone(req)
}

// Retries returns the number of retries after the first attempt.
func (p *BasicPolicy[Req, Res]) Retries() uint {
	return p.retries
}
