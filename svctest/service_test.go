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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/svc"
)

func TestServiceReadiness(t *testing.T) {
	s := NewEcho[string]()

	state, err := svc.Poll[string, string](s)
	require.NoError(t, err)
	assert.Equal(t, svc.StateReady, state)

	s.SetReady(false)
	state, err = svc.Poll[string, string](s)
	require.NoError(t, err)
	assert.Equal(t, svc.StatePending, state)

	ready := make(chan error, 1)
	go func() { ready <- s.Ready(context.Background()) }()
	s.SetReady(true)
	assert.NoError(t, <-ready)

	s.Fail(errors.New("broken"))
	state, err = svc.Poll[string, string](s)
	assert.Equal(t, svc.StateFailed, state)
	assert.EqualError(t, err, "broken")

	s.SetReady(true)
	assert.EqualError(t, s.Ready(context.Background()), "broken", "failure must be sticky")
}

func TestServiceRecordsCalls(t *testing.T) {
	s := NewEcho[int]()
	for i := 0; i < 3; i++ {
		res, err := s.Call(context.Background(), i)
		require.NoError(t, err)
		assert.Equal(t, i, res)
	}
	assert.Equal(t, []int{0, 1, 2}, s.Calls())
	assert.Equal(t, 3, s.CallCount())
	assert.Equal(t, 1, s.MaxInFlight())
	assert.Equal(t, 0, s.InFlight())
}

func TestGate(t *testing.T) {
	g := NewGate()
	s := NewService(Hold(g, Echo[string]()))

	done := make(chan string, 1)
	go func() {
		res, _ := s.Call(context.Background(), "hello")
		done <- res
	}()

	assert.Equal(t, "hello", <-s.Entered())
	assert.Equal(t, 1, s.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, g.Wait(ctx))

	g.Open()
	g.Open()
	assert.Equal(t, "hello", <-done)
}

func TestMaker(t *testing.T) {
	m := NewMaker(func(context.Context, string) (svc.Service[string, string], error) {
		return NewEcho[string](), nil
	})

	_, err := m.Make(context.Background(), "a")
	require.NoError(t, err)

	m.SetError(errors.New("refused"))
	_, err = m.Make(context.Background(), "a")
	assert.EqualError(t, err, "refused")

	assert.Equal(t, 1, m.Made())
	assert.Equal(t, 2, m.Tries())
}
