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

package clock

// Forked from github.com/andres-erbsen/clock to isolate a missing nap.

import (
	"container/heap"
	"runtime"
	"sync"
	"time"
)

// FakeClock represents a fake clock that only moves forward programmically.
// It can be preferable to a real-time clock when testing time-based functionality.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers timers
}

var _ Clock = (*FakeClock)(nil)

// NewFake returns an instance of a fake clock.
// The current time of the fake clock on initialization is the Unix epoch.
func NewFake() *FakeClock {
	return &FakeClock{now: time.Unix(0, 0)}
}

// Add moves the current time of the fake clock forward by the duration,
// firing every timer scheduled up to the new time in order.
// This should only be called from a single goroutine at a time.
func (fc *FakeClock) Add(d time.Duration) {
	fc.mu.Lock()
	end := fc.now.Add(d)
	fc.flush(end)
	if fc.now.Before(end) {
		fc.now = end
	}
	fc.mu.Unlock()
	nap()
}

// Set advances the current time of the fake clock to the given absolute time.
func (fc *FakeClock) Set(end time.Time) {
	fc.mu.Lock()
	fc.flush(end)
	if fc.now.Before(end) {
		fc.now = end
	}
	fc.mu.Unlock()
	nap()
}

// Timers returns the number of timers waiting to fire. Tests use it to learn
// that a goroutine has started waiting before they move the clock.
func (fc *FakeClock) Timers() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.timers)
}

// flush fires all timers up to the given end time. Must be called with the
// lock held; the lock is released while each timer ticks.
func (fc *FakeClock) flush(end time.Time) {
	for len(fc.timers) > 0 && !fc.timers[0].time.After(end) {
		t := heap.Pop(&fc.timers).(*FakeTimer)
		if fc.now.Before(t.time) {
			fc.now = t.time
		}
		fc.mu.Unlock()
		t.tick()
		fc.mu.Lock()
	}
}

// FakeTimer produces a timer that will emit a time some duration after now,
// exposing the fake timer internals and type.
func (fc *FakeClock) FakeTimer(d time.Duration) *FakeTimer {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	t := &FakeTimer{
		c:     make(chan time.Time, 1),
		clock: fc,
		time:  fc.now.Add(d),
		index: -1,
	}
	heap.Push(&fc.timers, t)
	fc.flush(fc.now)
	return t
}

// Timer produces a timer that will emit a time some duration after now.
func (fc *FakeClock) Timer(d time.Duration) Timer {
	return fc.FakeTimer(d)
}

// After produces a channel that will emit the time after a duration passes.
func (fc *FakeClock) After(d time.Duration) <-chan time.Time {
	return fc.Timer(d).C()
}

// AfterFunc waits for the duration to elapse and then executes a function.
// A Timer is returned that can be stopped.
func (fc *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	t := &FakeTimer{
		c:     make(chan time.Time, 1),
		clock: fc,
		time:  fc.now.Add(d),
		index: -1,
		fn:    f,
	}
	heap.Push(&fc.timers, t)
	fc.flush(fc.now)
	return t
}

// Now returns the current time on the fake clock.
func (fc *FakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

// Sleep pauses the goroutine for the given duration on the fake clock.
// The clock must be moved forward in a separate goroutine.
func (fc *FakeClock) Sleep(d time.Duration) {
	<-fc.After(d)
}

// FakeTimer represents a single event.
type FakeTimer struct {
	c     chan time.Time
	time  time.Time
	clock *FakeClock
	index int
	fn    func()
}

// C returns a channel that will send the time when it fires.
func (t *FakeTimer) C() <-chan time.Time {
	return t.c
}

func (t *FakeTimer) tick() {
	if t.fn != nil {
		go t.fn()
		nap()
		return
	}
	select {
	case t.c <- t.time:
	default:
	}
	nap()
}

// Reset adjusts the timer's scheduled time forward from now. It reports
// whether the timer was still pending.
func (t *FakeTimer) Reset(d time.Duration) bool {
	fc := t.clock
	fc.mu.Lock()
	defer fc.mu.Unlock()

	t.time = fc.now.Add(d)
	select {
	case <-t.c:
	default:
	}

	if t.index >= 0 {
		heap.Fix(&fc.timers, t.index)
		return true
	}
	heap.Push(&fc.timers, t)
	return false
}

// Stop removes a timer from the scheduled timers. It reports whether the
// timer was still pending.
func (t *FakeTimer) Stop() bool {
	fc := t.clock
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if t.index < 0 {
		return false
	}
	select {
	case <-t.c:
	default:
	}
	heap.Remove(&fc.timers, t.index)
	return true
}

func nap() {
	runtime.Gosched()
}

// timers is a min-heap of fake timers ordered by their firing time.
type timers []*FakeTimer

func (ts timers) Len() int { return len(ts) }

func (ts timers) Swap(i, j int) {
	ts[i], ts[j] = ts[j], ts[i]
	ts[i].index, ts[j].index = i, j
}

func (ts timers) Less(i, j int) bool {
	return ts[i].time.Before(ts[j].time)
}

func (ts *timers) Push(t interface{}) {
	ft := t.(*FakeTimer)
	ft.index = len(*ts)
	*ts = append(*ts, ft)
}

func (ts *timers) Pop() interface{} {
	old := *ts
	ft := old[len(old)-1]
	*ts = old[:len(old)-1]
	ft.index = -1
	return ft
}
