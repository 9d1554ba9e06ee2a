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

import (
	"fmt"
	"math/rand"
)

// Strategy selects among ready backends.
type Strategy int

const (
	// LeastPending picks the backend with the fewest calls in flight,
	// round-robin among equals. This is the default.
	LeastPending Strategy = iota

	// TwoRandomChoices picks two backends at random and uses the one with
	// fewer calls in flight.
	TwoRandomChoices
)

var _strategyNames = map[Strategy]string{
	LeastPending:     "leastPending",
	TwoRandomChoices: "twoRandomChoices",
}

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	if name, ok := _strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if name, ok := _strategyNames[s]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("unknown balancer strategy: %d", int(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	for strategy, name := range _strategyNames {
		if name == string(text) {
			*s = strategy
			return nil
		}
	}
	return fmt.Errorf("unknown balancer strategy: %q", text)
}

// chooser holds the ready entries. Every method runs under the balancer's
// lock. An entry is in the chooser iff its index is not negative.
type chooser[Req, Res any] interface {
	add(*entry[Req, Res])
	remove(*entry[Req, Res])
	choose() *entry[Req, Res]
	// pendingChanged repositions an entry whose pending count changed.
	pendingChanged(*entry[Req, Res])
	len() int
}

func newChooser[Req, Res any](s Strategy, random *rand.Rand) chooser[Req, Res] {
	if s == TwoRandomChoices {
		return &twoRandomChoices[Req, Res]{random: random}
	}
	return &pendingHeap[Req, Res]{nextRand: random.Intn}
}
