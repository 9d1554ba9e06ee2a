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

// Package svc provides a uniform contract for request/response services and
// a way to compose them from independent, stackable layers.
//
// A Service signals backpressure before it accepts work. Callers wait for
// Ready to return nil and only then Call the service. Every successful Ready
// grants exactly one Call. Services are safe for concurrent use, so grants
// are counted rather than tied to a goroutine.
//
// A Layer wraps one Service to add a single concern: bounded buffering
// (package buffer), concurrency limiting (package concurrency), rate limiting
// (package ratelimit), overload shedding (package loadshed), retrying
// (package retry), timing out (package timeout), reconnecting (package
// reconnect), predicate-based admission (package filter), or load balancing
// over a changing set of backends (package balance).
//
// Layers stack in the order they are added to a Builder; the first layer
// added is the outermost and sees each request first.
//
//	limit, err := concurrency.NewLayer[*Request, *Response](5)
//	if err != nil {
//		return err
//	}
//	client := svc.NewBuilder[*Request, *Response]().
//		With(filter.NewLayer[*Request, *Response](validate)).
//		With(limit).
//		Service(leaf)
//
//	res, err := svc.Oneshot(ctx, client, req)
//
// Errors produced by the layers themselves carry a svcerrors.Code so that
// callers can tell a request that never reached the backend apart from one
// the backend saw and failed. Errors from wrapped services are passed through
// unchanged.
package svc
