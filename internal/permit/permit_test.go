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

package permit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doneContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestReserveThenClaim(t *testing.T) {
	s := New(2)

	require.NoError(t, s.Reserve(doneContext()), "free permit must be reserved even with a done context")
	assert.Equal(t, 1, s.Grants())

	require.NoError(t, s.Claim(context.Background()))
	assert.Equal(t, 0, s.Grants())
	assert.Equal(t, 1, s.InUse())

	s.Release()
	assert.Equal(t, 0, s.InUse())
}

func TestReserveExhausted(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Reserve(context.Background()))

	assert.Equal(t, context.Canceled, s.Reserve(doneContext()))
	assert.Equal(t, 1, s.Grants(), "failed reserve must not change the grants")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, s.Reserve(ctx))
	assert.Equal(t, 1, s.Grants())
}

func TestClaimWithoutGrant(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Claim(context.Background()))
	assert.Equal(t, context.Canceled, s.Claim(doneContext()))

	s.Release()
	require.NoError(t, s.Claim(doneContext()))
	s.Release()
}

func TestDrop(t *testing.T) {
	s := New(1)
	assert.False(t, s.Drop())

	require.NoError(t, s.Reserve(context.Background()))
	assert.True(t, s.Drop())
	assert.Equal(t, 0, s.Grants())

	require.NoError(t, s.Reserve(doneContext()), "dropped grant must free its permit")
}

func TestReleaseWakesWaiter(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Claim(context.Background()))

	reserved := make(chan error, 1)
	go func() { reserved <- s.Reserve(context.Background()) }()

	select {
	case <-reserved:
		t.Fatal("reserve must wait for the claimed permit")
	case <-time.After(10 * time.Millisecond):
	}

	s.Release()
	assert.NoError(t, <-reserved)
	assert.Equal(t, 1, s.Size())
}
