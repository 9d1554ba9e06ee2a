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

// Package permit implements the readiness grants shared by layers that
// reserve capacity in Ready and spend it in Call.
package permit

import (
	"context"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore whose permits can be reserved ahead of
// use.
//
// Reserve takes a permit and parks it as a grant. Claim spends a parked grant
// if there is one and otherwise takes a fresh permit. Release returns a
// permit taken by Claim. A grant that is never claimed stays parked and is
// spent by the next Claim, so the number of permits out never exceeds the
// size of the semaphore.
type Semaphore struct {
	size   int64
	sem    *semaphore.Weighted
	grants atomic.Int64
	inUse  atomic.Int64
}

// New returns a semaphore with n permits.
func New(n int) *Semaphore {
	return &Semaphore{
		size: int64(n),
		sem:  semaphore.NewWeighted(int64(n)),
	}
}

// Reserve waits for a permit and parks it as a grant.
//
// A free permit is reserved even if ctx is already done. Otherwise Reserve
// returns ctx.Err() once ctx is done, without holding anything.
func (s *Semaphore) Reserve(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	s.grants.Inc()
	return nil
}

// Claim spends a parked grant, or waits for a fresh permit when no grant is
// parked. The caller MUST Release the permit after a nil return.
func (s *Semaphore) Claim(ctx context.Context) error {
	if !s.takeGrant() {
		if err := s.acquire(ctx); err != nil {
			return err
		}
	}
	s.inUse.Inc()
	return nil
}

// Release returns a permit obtained through Claim.
func (s *Semaphore) Release() {
	s.inUse.Dec()
	s.sem.Release(1)
}

// Drop returns a parked grant without spending it, if one is parked.
func (s *Semaphore) Drop() bool {
	if !s.takeGrant() {
		return false
	}
	s.sem.Release(1)
	return true
}

// Size returns the total number of permits.
func (s *Semaphore) Size() int { return int(s.size) }

// InUse returns the number of claimed permits.
func (s *Semaphore) InUse() int { return int(s.inUse.Load()) }

// Grants returns the number of parked grants.
func (s *Semaphore) Grants() int { return int(s.grants.Load()) }

func (s *Semaphore) acquire(ctx context.Context) error {
	if s.sem.TryAcquire(1) {
		return nil
	}
	return s.sem.Acquire(ctx, 1)
}

func (s *Semaphore) takeGrant() bool {
	for {
		g := s.grants.Load()
		if g <= 0 {
			return false
		}
		if s.grants.CAS(g, g-1) {
			return true
		}
	}
}
