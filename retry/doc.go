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

// Package retry re-invokes a service when a policy classifies a failure as
// retryable.
//
// The Policy decides, after every attempt, whether to try again, with which
// request, and after how long. A request is only retried if the policy can
// clone it before the first attempt: requests the policy refuses to clone get
// exactly one attempt. Independently of the policy, the service stops after
// WithMaxAttempts attempts.
//
//	policy := retry.NewPolicy[*Request, *Response](
//		retry.Retries(3),
//		retry.BackoffStrategy(strategy),
//		retry.CloneWith(func(r *Request) (*Request, bool) { return r.Copy(), true }),
//	)
//	s := retry.New(backend, policy, retry.WithLogger(logger))
//
// Before every retry the service waits for the wrapped service to be ready
// again. Readiness of the retry service itself is that of the wrapped service.
package retry
