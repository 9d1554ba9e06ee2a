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

import "math/rand"

type twoRandomChoices[Req, Res any] struct {
	entries []*entry[Req, Res]
	random  *rand.Rand
}

var _ chooser[string, string] = (*twoRandomChoices[string, string])(nil)

func (l *twoRandomChoices[Req, Res]) add(e *entry[Req, Res]) {
	if e.index >= 0 {
		return
	}
	e.index = len(l.entries)
	l.entries = append(l.entries, e)
}

func (l *twoRandomChoices[Req, Res]) remove(e *entry[Req, Res]) {
	if e.index < 0 || len(l.entries) == 0 {
		return
	}
	index := e.index
	last := len(l.entries) - 1
	l.entries[index] = l.entries[last]
	l.entries[index].index = index
	l.entries[last] = nil
	l.entries = l.entries[:last]
	e.index = -1
}

func (l *twoRandomChoices[Req, Res]) choose() *entry[Req, Res] {
	n := len(l.entries)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return l.entries[0]
	}
	i := l.random.Intn(n)
	j := i + 1 + l.random.Intn(n-1)
	if j >= n {
		j -= n
	}
	if l.entries[i].pending > l.entries[j].pending {
		i = j
	}
	return l.entries[i]
}

func (l *twoRandomChoices[Req, Res]) pendingChanged(*entry[Req, Res]) {}

func (l *twoRandomChoices[Req, Res]) len() int { return len(l.entries) }
