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

// Package reconnect keeps a connection-backed service established.
//
// A Service builds its wrapped service through a svc.Maker on the first
// readiness check, and builds a new one whenever a call fails with an error
// that means the connection is broken. Callers see the added latency of a
// reconnect, never the broken connection.
//
// A failed connection attempt is reported as a connection failed error by
// every Ready until the reconnect delay has passed. The delay is constant
// (WithReconnectDelay) or grows with consecutive failures (WithBackoff).
//
//	s := reconnect.New[string, *Request, *Response](dialer, "10.0.0.1:8080",
//		reconnect.WithBackoff(strategy),
//		reconnect.WithLogger(logger),
//	)
//	defer s.Close()
package reconnect
