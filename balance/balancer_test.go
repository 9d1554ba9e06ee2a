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
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
	"go.uber.org/svc"
	"go.uber.org/svc/api/backoff/backofftest"
	"go.uber.org/svc/discover"
	ibackoff "go.uber.org/svc/internal/backoff"
	"go.uber.org/svc/internal/clock"
	"go.uber.org/svc/internal/testtime"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/svc/svctest"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// backend is a fake backend that counts Close calls.
type backend struct {
	*svctest.Service[string, string]
	closed atomic.Int32
}

func newBackend(handler svctest.Handler[string, string]) *backend {
	return &backend{Service: svctest.NewService(handler)}
}

func (b *backend) Close() error {
	b.closed.Inc()
	return nil
}

func (b *backend) Closed() int { return int(b.closed.Load()) }

type sourceFunc func(context.Context) (<-chan discover.Change[string, string], error)

func (f sourceFunc) Watch(ctx context.Context) (<-chan discover.Change[string, string], error) {
	return f(ctx)
}

func newBalancer(t *testing.T, source discover.Source[string, string], opts ...Option) *Balancer[string, string] {
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithSeed(1)}, opts...)
	b := New(source, opts...)
	require.NoError(t, b.Start())
	t.Cleanup(func() { assert.NoError(t, b.Stop()) })
	return b
}

func add(t *testing.T, b *Balancer[string, string], backends map[string]svc.Service[string, string]) {
	t.Helper()
	var updates Updates[string, string]
	for id, s := range backends {
		updates.Additions = append(updates.Additions, discover.Backend[string, string]{
			ID:  id,
			New: discover.Of(s),
		})
	}
	require.NoError(t, b.Update(context.Background(), updates))
}

func TestNoBackends(t *testing.T) {
	b := newBalancer(t, nil)

	_, err := b.Call(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, svcerrors.IsNoBackends(err), "got %v", err)
	assert.True(t, svcerrors.NotSent(err))

	state, err := svc.Poll[string, string](b)
	require.NoError(t, err)
	assert.Equal(t, svc.StatePending, state)

	ctx, cancel := context.WithTimeout(context.Background(), 10*testtime.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, b.Ready(ctx))
}

func TestCallReachesBackend(t *testing.T) {
	b := newBalancer(t, nil)
	a := newBackend(svctest.Echo[string]())
	add(t, b, map[string]svc.Service[string, string]{"a": a})

	assert.Equal(t, 1, b.NumBackends())
	assert.Equal(t, 1, b.NumReady())
	require.NoError(t, b.Ready(context.Background()))

	res, err := svc.Oneshot[string, string](context.Background(), b, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", res)
	assert.Equal(t, []string{"hello"}, a.Calls())
	assert.Equal(t, 0, b.Pending("a"))
	assert.Equal(t, 1, b.NumReady(), "backend is ready again after the call")
}

func TestLeastPendingSpreadsLongCalls(t *testing.T) {
	b := newBalancer(t, nil)

	gate := svctest.NewGate()
	backends := map[string]*backend{
		"a": newBackend(svctest.Hold(gate, svctest.Echo[string]())),
		"b": newBackend(svctest.Hold(gate, svctest.Echo[string]())),
		"c": newBackend(svctest.Hold(gate, svctest.Echo[string]())),
	}
	services := make(map[string]svc.Service[string, string], len(backends))
	for id, be := range backends {
		services[id] = be
	}
	add(t, b, services)

	const calls = 30
	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Oneshot[string, string](context.Background(), b, fmt.Sprint(i))
			errs <- err
		}(i)
	}

	svctest.WaitUntil(t, func() bool {
		total := 0
		for _, be := range backends {
			total += be.InFlight()
		}
		return total == calls
	}, "every call should be in flight")

	for id, be := range backends {
		assert.InDelta(t, 10, be.InFlight(), 2, "backend %q", id)
		assert.Equal(t, be.InFlight(), b.Pending(id))
	}

	gate.Open()
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	for id := range backends {
		assert.Equal(t, 0, b.Pending(id))
	}
}

func TestTwoRandomChoicesStrategy(t *testing.T) {
	b := newBalancer(t, nil, WithStrategy(TwoRandomChoices))

	gate := svctest.NewGate()
	busy := newBackend(svctest.Hold(gate, svctest.Echo[string]()))
	idle := newBackend(svctest.Echo[string]())
	add(t, b, map[string]svc.Service[string, string]{"busy": busy})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Oneshot[string, string](context.Background(), b, "slow")
		assert.NoError(t, err)
	}()
	<-busy.Entered()

	add(t, b, map[string]svc.Service[string, string]{"idle": idle})
	for i := 0; i < 10; i++ {
		_, err := svc.Oneshot[string, string](context.Background(), b, "fast")
		require.NoError(t, err)
	}
	assert.Equal(t, 10, idle.CallCount(), "the busy backend always loses the comparison")

	gate.Open()
	<-done
}

func TestPendingBackendIsWatched(t *testing.T) {
	b := newBalancer(t, nil)
	a := newBackend(svctest.Echo[string]())
	a.SetReady(false)
	add(t, b, map[string]svc.Service[string, string]{"a": a})

	assert.Equal(t, 1, b.NumBackends())
	assert.Equal(t, 0, b.NumReady())

	state, err := svc.Poll[string, string](b)
	require.NoError(t, err)
	assert.Equal(t, svc.StatePending, state)

	ready := make(chan error, 1)
	go func() { ready <- b.Ready(context.Background()) }()

	a.SetReady(true)
	select {
	case err := <-ready:
		assert.NoError(t, err)
	case <-time.After(testtime.Second):
		t.Fatal("Ready did not return after the backend became ready")
	}
	assert.Equal(t, 1, b.NumReady())
}

func TestCallWaitsForReadyBackend(t *testing.T) {
	b := newBalancer(t, nil)
	a := newBackend(svctest.Echo[string]())
	a.SetReady(false)
	add(t, b, map[string]svc.Service[string, string]{"a": a})

	res := make(chan string, 1)
	go func() {
		out, err := b.Call(context.Background(), "hello")
		assert.NoError(t, err)
		res <- out
	}()

	select {
	case <-res:
		t.Fatal("call went through before any backend was ready")
	case <-time.After(10 * testtime.Millisecond):
	}

	a.SetReady(true)
	select {
	case out := <-res:
		assert.Equal(t, "hello", out)
	case <-time.After(testtime.Second):
		t.Fatal("call did not go through after the backend became ready")
	}
}

func TestCallCancelledWhileWaiting(t *testing.T) {
	b := newBalancer(t, nil)
	a := newBackend(svctest.Echo[string]())
	a.SetReady(false)
	add(t, b, map[string]svc.Service[string, string]{"a": a})

	ctx, cancel := context.WithTimeout(context.Background(), 10*testtime.Millisecond)
	defer cancel()

	_, err := b.Call(ctx, "hello")
	require.Error(t, err)
	assert.True(t, svcerrors.IsCancelled(err), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, a.CallCount())
	assert.Equal(t, 0, b.Pending("a"))
}

func TestFailedBackendIsRemoved(t *testing.T) {
	b := newBalancer(t, nil)
	broken := errors.New("backend broke")

	t.Run("while watched", func(t *testing.T) {
		a := newBackend(svctest.Echo[string]())
		a.SetReady(false)
		add(t, b, map[string]svc.Service[string, string]{"a": a})
		require.Equal(t, 1, b.NumBackends())

		a.Fail(broken)
		svctest.WaitUntil(t, func() bool { return b.NumBackends() == 0 })
		svctest.WaitUntil(t, func() bool { return a.Closed() == 1 })
	})

	t.Run("after a call", func(t *testing.T) {
		gate := svctest.NewGate()
		a := newBackend(svctest.Hold(gate, svctest.Echo[string]()))
		add(t, b, map[string]svc.Service[string, string]{"a": a})
		a.Fail(broken)

		done := make(chan struct{})
		go func() {
			defer close(done)
			// The backend was ready when the call chose it, so the call
			// still goes through.
			res, err := b.Call(context.Background(), "hello")
			assert.NoError(t, err)
			assert.Equal(t, "hello", res)
		}()

		<-a.Entered()
		svctest.WaitUntil(t, func() bool { return b.NumBackends() == 0 })
		assert.Equal(t, 0, a.Closed(), "not closed while a call is in flight")

		gate.Open()
		<-done
		assert.Equal(t, 1, a.Closed())
	})
}

func TestRemoveDrainsInFlightCalls(t *testing.T) {
	b := newBalancer(t, nil)

	gate := svctest.NewGate()
	a := newBackend(svctest.Hold(gate, svctest.Echo[string]()))
	idle := newBackend(svctest.Echo[string]())
	add(t, b, map[string]svc.Service[string, string]{"a": a})

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := svc.Oneshot[string, string](context.Background(), b, "in flight")
		assert.NoError(t, err)
		assert.Equal(t, "in flight", res)
	}()
	<-a.Entered()

	require.NoError(t, b.Update(context.Background(), Updates[string, string]{
		Removals:  []string{"a"},
		Additions: []discover.Backend[string, string]{{ID: "idle", New: discover.Of[string, string](idle)}},
	}))
	assert.Equal(t, 1, b.NumBackends())
	assert.Equal(t, 0, a.Closed())

	// New calls no longer reach the removed backend.
	_, err := svc.Oneshot[string, string](context.Background(), b, "next")
	require.NoError(t, err)
	assert.Equal(t, []string{"next"}, idle.Calls())

	gate.Open()
	<-done
	assert.Equal(t, 1, a.Closed())
	assert.Equal(t, 0, idle.Closed())
}

func TestUpdateErrors(t *testing.T) {
	b := newBalancer(t, nil)
	failing := func(context.Context) (svc.Service[string, string], error) {
		return nil, errors.New("dial failed")
	}

	err := b.Update(context.Background(), Updates[string, string]{
		Removals: []string{"missing"},
		Additions: []discover.Backend[string, string]{
			{ID: "broken", New: failing},
			{ID: "nil"},
			{ID: "ok", New: discover.Of[string, string](svctest.NewEcho[string]())},
		},
	})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), `backend "missing" is not in the balancer`)
	assert.Contains(t, errs[1].Error(), `building backend "broken": dial failed`)
	assert.Contains(t, errs[2].Error(), `backend "nil" has no factory`)
	assert.Equal(t, 1, b.NumBackends(), "valid changes still apply")
}

func TestInsertReplacesBackend(t *testing.T) {
	b := newBalancer(t, nil)
	first := newBackend(svctest.Echo[string]())
	second := newBackend(svctest.Echo[string]())

	add(t, b, map[string]svc.Service[string, string]{"a": first})
	add(t, b, map[string]svc.Service[string, string]{"a": second})

	assert.Equal(t, 1, b.NumBackends())
	assert.Equal(t, 1, first.Closed())

	_, err := svc.Oneshot[string, string](context.Background(), b, "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, first.CallCount())
	assert.Equal(t, 1, second.CallCount())
}

func TestFollowsSource(t *testing.T) {
	source := discover.NewChannel[string, string]()
	fc := clock.NewFake()
	b := newBalancer(t, source, WithBackoff(ibackoff.Constant(time.Second)), WithClock(fc))

	a := newBackend(svctest.Echo[string]())
	c := newBackend(svctest.Echo[string]())
	var builds atomic.Int32
	counted := func(s svc.Service[string, string]) discover.Factory[string, string] {
		return func(context.Context) (svc.Service[string, string], error) {
			builds.Inc()
			return s, nil
		}
	}

	require.NoError(t, source.Insert("a", counted(a)))
	require.NoError(t, source.Insert("c", counted(c)))
	svctest.WaitUntil(t, func() bool { return b.NumReady() == 2 })

	res, err := svc.Oneshot[string, string](context.Background(), b, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", res)

	// The watch drops and a leaves before the balancer watches again.
	source.Drop()
	svctest.WaitUntil(t, func() bool { return fc.Timers() == 1 }, "waiting to watch again")
	require.NoError(t, source.Remove("a"))

	fc.Add(time.Second)
	svctest.WaitUntil(t, func() bool { return b.NumBackends() == 1 }, "a must be evicted by the resync")
	svctest.WaitUntil(t, func() bool { return source.Watchers() == 1 })
	assert.Equal(t, 1, a.Closed())
	assert.Equal(t, int32(2), builds.Load(), "replayed members are kept, not rebuilt")
	assert.Equal(t, 0, c.Closed())

	before := a.CallCount()
	for i := 0; i < 10; i++ {
		_, err := svc.Oneshot[string, string](context.Background(), b, "hello")
		require.NoError(t, err)
	}
	assert.Equal(t, before, a.CallCount(), "no call may reach a removed backend")

	require.NoError(t, source.Remove("c"))
	svctest.WaitUntil(t, func() bool { return b.NumBackends() == 0 })

	_, err = b.Call(context.Background(), "hello")
	assert.True(t, svcerrors.IsNoBackends(err), "got %v", err)
}

func TestWatchAgainAfterBackoff(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	boff := backofftest.NewMockBackoff(mockCtrl)
	boff.EXPECT().Duration(uint(0)).Return(time.Second)
	strategy := backofftest.NewMockStrategy(mockCtrl)
	strategy.EXPECT().Backoff().Return(boff)

	static := discover.NewStatic(discover.Backend[string, string]{
		ID:  "a",
		New: discover.Of[string, string](svctest.NewEcho[string]()),
	})
	var watches atomic.Int32
	source := sourceFunc(func(ctx context.Context) (<-chan discover.Change[string, string], error) {
		if watches.Inc() == 1 {
			return nil, errors.New("registry unavailable")
		}
		return static.Watch(ctx)
	})

	fc := clock.NewFake()
	b := newBalancer(t, source, WithBackoff(strategy), WithClock(fc))

	svctest.WaitUntil(t, func() bool { return fc.Timers() == 1 }, "waiting to watch again")
	assert.Equal(t, 0, b.NumBackends())

	fc.Add(time.Second)
	svctest.WaitUntil(t, func() bool { return b.NumReady() == 1 })
	assert.Equal(t, int32(2), watches.Load())
}

func TestStop(t *testing.T) {
	b := New[string, string](nil, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, b.Start())
	assert.True(t, b.IsRunning())

	a := newBackend(svctest.Echo[string]())
	pending := newBackend(svctest.Echo[string]())
	pending.SetReady(false)
	add(t, b, map[string]svc.Service[string, string]{"a": a, "pending": pending})

	require.NoError(t, b.Stop())
	assert.False(t, b.IsRunning())
	assert.Equal(t, 1, a.Closed())
	assert.Equal(t, 1, pending.Closed())
	assert.Equal(t, 0, b.NumBackends())

	_, err := b.Call(context.Background(), "hello")
	assert.True(t, svcerrors.IsNoBackends(err), "got %v", err)

	late := newBackend(svctest.Echo[string]())
	err = b.Update(context.Background(), Updates[string, string]{
		Additions: []discover.Backend[string, string]{{ID: "late", New: discover.Of[string, string](late)}},
	})
	assert.True(t, svcerrors.IsClosed(err), "got %v", err)
	assert.Equal(t, 1, late.Closed())

	// Stop is idempotent.
	require.NoError(t, b.Stop())
}

func TestGauges(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	b := newBalancer(t, nil, WithTally(scope))

	pending := newBackend(svctest.Echo[string]())
	pending.SetReady(false)
	add(t, b, map[string]svc.Service[string, string]{
		"a":       newBackend(svctest.Echo[string]()),
		"pending": pending,
	})

	gauges := scope.Snapshot().Gauges()
	assert.Equal(t, float64(2), gauges["backends+"].Value())
	assert.Equal(t, float64(1), gauges["ready_backends+"].Value())
}
