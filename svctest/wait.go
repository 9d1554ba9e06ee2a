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

package svctest

import (
	"time"

	"go.uber.org/svc/internal/testtime"
)

// TestingT is the subset of testing.TB used by WaitUntil.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

// WaitUntil polls cond until it holds, failing the test if it does not hold
// within a second of test time.
func WaitUntil(t TestingT, cond func() bool, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(testtime.Second)
	for !cond() {
		if time.Now().After(deadline) {
			msg := "condition never held"
			if len(msgAndArgs) > 0 {
				if s, ok := msgAndArgs[0].(string); ok {
					msg = s
				}
			}
			t.Fatalf("%s", msg)
			return
		}
		time.Sleep(testtime.Millisecond)
	}
}
