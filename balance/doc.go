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

// Package balance spreads calls over a changing set of backends.
//
// A Balancer follows a discover.Source and keeps one entry per backend. An
// entry whose service is ready sits in the selection structure; an entry
// that is not ready is watched until it is. Each call goes to the ready
// entry with the fewest calls in flight, by default breaking ties in
// round-robin order.
//
//	b := balance.New(source, balance.WithLogger(logger))
//	if err := b.Start(); err != nil {
//		return err
//	}
//	defer b.Stop()
//
// A removed backend leaves the selection at once. Calls already in flight on
// it finish, and the backend is closed, if it implements io.Closer, when the
// last of them returns.
package balance
