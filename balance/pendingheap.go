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

package balance

import "container/heap"

// pendingHeap orders ready entries by pending count.
type pendingHeap[Req, Res any] struct {
	entries []*entry[Req, Res]

	// next is an incrementing counter for every push, which is compared when
	// pending counts are equal. This ends up implementing round-robin when
	// counts are equal.
	next int

	// nextRand MUST return a number in [0, n).
	nextRand func(n int) int
}

var _ chooser[string, string] = (*pendingHeap[string, string])(nil)

func (ph *pendingHeap[Req, Res]) choose() *entry[Req, Res] {
	if len(ph.entries) == 0 {
		return nil
	}
	return ph.entries[0]
}

// add inserts an entry that is new to the balancer at a random position among
// equally loaded entries, so a batch of new backends does not herd. Entries
// coming back after a call go to the back of the line.
func (ph *pendingHeap[Req, Res]) add(e *entry[Req, Res]) {
	if e.index >= 0 {
		return
	}

	ph.next++
	e.last = ph.next

	if !e.seen {
		e.seen = true
		random := ph.nextRand(len(ph.entries) + 1)
		if random < len(ph.entries) {
			other := ph.entries[random]
			e.last, other.last = other.last, e.last
			heap.Fix(ph, random)
		}
	}

	heap.Push(ph, e)
}

func (ph *pendingHeap[Req, Res]) remove(e *entry[Req, Res]) {
	if e.index < 0 {
		return
	}
	index := e.index

	// Swap the element we want to delete with the last element, then pop it off.
	ph.Swap(index, ph.Len()-1)
	ph.Pop()

	// If the original index still exists in the list, it contains a different
	// element so update the heap.
	if index < ph.Len() {
		heap.Fix(ph, index)
	}
}

func (ph *pendingHeap[Req, Res]) pendingChanged(e *entry[Req, Res]) {
	if e.index >= 0 {
		heap.Fix(ph, e.index)
	}
}

func (ph *pendingHeap[Req, Res]) len() int { return len(ph.entries) }

// Len implements heap.Interface.
func (ph *pendingHeap[Req, Res]) Len() int { return len(ph.entries) }

// Less returns whether the left entry has fewer pending calls. If the counts
// are equal, it returns the one that waited longer (where "last" is lower).
func (ph *pendingHeap[Req, Res]) Less(i, j int) bool {
	e1 := ph.entries[i]
	e2 := ph.entries[j]
	if e1.pending == e2.pending {
		return e1.last < e2.last
	}
	return e1.pending < e2.pending
}

// Swap implements heap.Interface. Do NOT use this method directly.
func (ph *pendingHeap[Req, Res]) Swap(i, j int) {
	e1 := ph.entries[i]
	e2 := ph.entries[j]

	ph.entries[i], ph.entries[j] = ph.entries[j], ph.entries[i]
	e1.index = j
	e2.index = i
}

// Push implements heap.Interface. Do NOT use this method directly; use add.
func (ph *pendingHeap[Req, Res]) Push(x interface{}) {
	e := x.(*entry[Req, Res])
	e.index = len(ph.entries)
	ph.entries = append(ph.entries, e)
}

// Pop implements heap.Interface. Do NOT use this method directly; use remove.
func (ph *pendingHeap[Req, Res]) Pop() interface{} {
	lastIndex := len(ph.entries) - 1
	last := ph.entries[lastIndex]
	ph.entries[lastIndex] = nil
	ph.entries = ph.entries[:lastIndex]
	last.index = -1
	return last
}
