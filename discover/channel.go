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

package discover

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errChannelClosed = errors.New("membership channel closed")

// Channel is a Source fed by the integrator.
//
// Insert and Remove update the membership and never block on watchers. Each
// watcher gets its own queue, so a slow watcher does not hold back the
// others. Drop ends every watch as if the discovery connection went away.
type Channel[Req, Res any] struct {
	mu       sync.Mutex
	members  map[string]Factory[Req, Res]
	order    []string
	watchers map[*watcher[Req, Res]]struct{}
	closed   bool
}

var _ Source[string, string] = (*Channel[string, string])(nil)

// NewChannel returns an empty Channel.
func NewChannel[Req, Res any]() *Channel[Req, Res] {
	return &Channel[Req, Res]{
		members:  make(map[string]Factory[Req, Res]),
		watchers: make(map[*watcher[Req, Res]]struct{}),
	}
}

// Insert adds or replaces the backend id.
func (c *Channel[Req, Res]) Insert(id string, f Factory[Req, Res]) error {
	if f == nil {
		return fmt.Errorf("backend %q has no factory", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errChannelClosed
	}
	if _, ok := c.members[id]; !ok {
		c.order = append(c.order, id)
	}
	c.members[id] = f
	c.broadcastLocked(InsertOf(id, f))
	return nil
}

// Remove drops the backend id.
func (c *Channel[Req, Res]) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errChannelClosed
	}
	if _, ok := c.members[id]; !ok {
		return fmt.Errorf("backend %q is not a member", id)
	}
	delete(c.members, id)
	for i, member := range c.order {
		if member == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.broadcastLocked(RemoveOf[Req, Res](id))
	return nil
}

// Members returns the current identities in insertion order.
func (c *Channel[Req, Res]) Members() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Watch starts a stream that replays the current members as inserts and a
// Synced change, then follows every later change.
func (c *Channel[Req, Res]) Watch(ctx context.Context) (<-chan Change[Req, Res], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errChannelClosed
	}

	w := &watcher[Req, Res]{
		out:    make(chan Change[Req, Res]),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	for _, id := range c.order {
		w.queue = append(w.queue, InsertOf(id, c.members[id]))
	}
	w.queue = append(w.queue, SyncedOf[Req, Res]())
	c.watchers[w] = struct{}{}
	go w.run(ctx, func() { c.forget(w) })
	return w.out, nil
}

// Drop ends every active watch. The membership is kept, and the next Watch
// replays it.
func (c *Channel[Req, Res]) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for w := range c.watchers {
		w.halt()
		delete(c.watchers, w)
	}
}

// Close ends every active watch and fails later updates and watches.
func (c *Channel[Req, Res]) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Drop()
	return nil
}

// Watchers returns the number of active watches.
func (c *Channel[Req, Res]) Watchers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

func (c *Channel[Req, Res]) forget(w *watcher[Req, Res]) {
	c.mu.Lock()
	delete(c.watchers, w)
	c.mu.Unlock()
}

// broadcastLocked must be called with c.mu held.
func (c *Channel[Req, Res]) broadcastLocked(change Change[Req, Res]) {
	for w := range c.watchers {
		w.push(change)
	}
}

// watcher forwards queued changes to a single watch stream.
type watcher[Req, Res any] struct {
	out    chan Change[Req, Res]
	notify chan struct{} // capacity 1
	stop   chan struct{}

	mu      sync.Mutex
	queue   []Change[Req, Res]
	stopped bool
}

func (w *watcher[Req, Res]) push(change Change[Req, Res]) {
	w.mu.Lock()
	w.queue = append(w.queue, change)
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *watcher[Req, Res]) halt() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.stopped = true
		close(w.stop)
	}
}

func (w *watcher[Req, Res]) next() (Change[Req, Res], bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		var zero Change[Req, Res]
		return zero, false
	}
	change := w.queue[0]
	w.queue[0] = Change[Req, Res]{}
	w.queue = w.queue[1:]
	return change, true
}

func (w *watcher[Req, Res]) run(ctx context.Context, forget func()) {
	defer close(w.out)
	defer forget()

	for {
		change, ok := w.next()
		if !ok {
			select {
			case <-w.notify:
				continue
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}

		select {
		case w.out <- change:
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
