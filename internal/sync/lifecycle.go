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

package sync

// LifecycleOnce gives a long-lived component idempotent Start and Stop.
//
// Start and Stop each run their function at most once. Stop before Start
// marks the component stopped without running the start function, so a
// stopped component never starts.
type LifecycleOnce struct {
	start OnceWithError
	stop  OnceWithError
}

// Start runs f once and returns its error to every caller.
func (l *LifecycleOnce) Start(f func() error) error {
	return l.start.Do(func() error {
		if l.stop.IsFinished() {
			return nil
		}
		return f()
	})
}

// Stop runs f once and returns its error to every caller. f only runs if
// Start has run.
func (l *LifecycleOnce) Stop(f func() error) error {
	return l.stop.Do(func() error {
		if !l.start.IsFinished() {
			return nil
		}
		return f()
	})
}

// IsRunning reports whether Start has completed and Stop has not.
func (l *LifecycleOnce) IsRunning() bool {
	return l.start.IsFinished() && !l.stop.IsFinished()
}
