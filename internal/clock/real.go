// Copyright (c) 2020 Uber Technologies, Inc.
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

package clock

import "time"

// NewReal returns the wall clock.
func NewReal() Clock {
	return wall{}
}

// wall defers to the time package.
type wall struct{}

func (wall) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (wall) AfterFunc(d time.Duration, f func()) Timer {
	return wallTimer{time.AfterFunc(d, f)}
}

func (wall) Now() time.Time { return time.Now() }

func (wall) Sleep(d time.Duration) { time.Sleep(d) }

func (wall) Timer(d time.Duration) Timer {
	return wallTimer{time.NewTimer(d)}
}

// wallTimer adapts *time.Timer, whose channel is a field, to Timer.
type wallTimer struct {
	*time.Timer
}

func (t wallTimer) C() <-chan time.Time { return t.Timer.C }
