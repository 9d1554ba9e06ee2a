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

package svcconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
	"go.uber.org/svc"
	"go.uber.org/svc/buffer"
	"go.uber.org/svc/concurrency"
	"go.uber.org/svc/filter"
	"go.uber.org/svc/retry"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/svc/svctest"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mapVariableResolver(m map[string]string) func(string) (string, bool) {
	return func(name string) (value string, ok bool) {
		if m == nil {
			return "", false
		}
		value, ok = m[name]
		return
	}
}

func newConfigurator(t *testing.T, env map[string]string, opts ...Option) *Configurator[string, string] {
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		InterpolationResolver(mapVariableResolver(env)),
	}, opts...)
	return New[string, string](opts...)
}

const fullStack = `
layers:
  - concurrency:
      maxInFlight: 8
  - rateLimit:
      quota: 1000
      window: 1s
      policy: tokenBucket
  - retry:
      retries: 2
      maxAttempts: 4
      retryOn: [rate-exceeded, timed-out]
      backoff:
        exponential:
          base: 1ms
          max: 5ms
  - timeout:
      duration: ${CALL_TIMEOUT:1s}
  - loadShed
  - buffer:
      capacity: 4
`

func TestLoadStackFromYAML(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	c := newConfigurator(t, nil, WithTally(scope))

	stack, err := c.LoadStackFromYAML(strings.NewReader(fullStack))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"concurrency", "rateLimit", "retry", "timeout", "loadShed", "buffer"},
		stack.Kinds())

	inner := svctest.NewEcho[string]()
	s := stack.Service(inner)
	for i := 0; i < 5; i++ {
		res, err := svc.Oneshot(context.Background(), s, fmt.Sprint(i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(i), res)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, inner.Calls())

	require.NoError(t, stack.Close())
	_, err = svc.Oneshot(context.Background(), s, "late")
	require.Error(t, err)
	assert.True(t, svcerrors.IsClosed(err), "got %v", err)

	counters := scope.Snapshot().Counters()
	assert.Equal(t, int64(5), counters["rateLimit.passes+"].Value())
	assert.Equal(t, int64(5), counters["retry.attempts+"].Value())
}

func TestLoadStackEmpty(t *testing.T) {
	c := newConfigurator(t, nil)
	stack, err := c.LoadStack(map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, stack.Kinds())

	inner := svctest.NewEcho[string]()
	assert.True(t, stack.Service(inner) == svc.Service[string, string](inner))
	assert.NoError(t, stack.Close())
}

func TestInterpolation(t *testing.T) {
	data := map[string]interface{}{
		"layers": []interface{}{
			map[string]interface{}{
				"concurrency": map[string]interface{}{"maxInFlight": "${MAX_IN_FLIGHT:2}"},
			},
		},
	}

	tests := []struct {
		desc string
		env  map[string]string
		want int
	}{
		{desc: "default", want: 2},
		{desc: "from environment", env: map[string]string{"MAX_IN_FLIGHT": "7"}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			stack, err := newConfigurator(t, tt.env).LoadStack(data)
			require.NoError(t, err)

			s, ok := stack.Service(svctest.NewEcho[string]()).(*concurrency.Service[string, string])
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Max())
		})
	}
}

func TestLoadStackErrors(t *testing.T) {
	tests := []struct {
		desc       string
		give       string
		env        map[string]string
		wantErrors []string
	}{
		{
			desc:       "unknown kind",
			give:       "layers: [retryForever]",
			wantErrors: []string{`layer 0: unknown kind "retryForever"`},
		},
		{
			desc: "unknown attribute",
			give: `
layers:
  - timeout:
      duration: 1s
      jitter: 10ms
`,
			wantErrors: []string{"layer 0 (timeout)", "jitter"},
		},
		{
			desc: "invalid values",
			give: `
layers:
  - concurrency:
      maxInFlight: 0
  - buffer:
      capacity: -1
  - timeout:
      duration: 0s
`,
			wantErrors: []string{
				"layer 0 (concurrency)",
				"layer 1 (buffer)",
				"buffer capacity must be positive",
				"layer 2 (timeout)",
			},
		},
		{
			desc: "bad policy",
			give: `
layers:
  - rateLimit:
      quota: 1
      window: 1s
      policy: leakyBucket
`,
			wantErrors: []string{"could not decode rate limit policy", "leakyBucket"},
		},
		{
			desc: "bad code",
			give: `
layers:
  - retry:
      retryOn: [everything]
`,
			wantErrors: []string{"could not decode error code"},
		},
		{
			desc: "bad backoff",
			give: `
layers:
  - retry:
      backoff:
        exponential:
          min: 2s
          max: 1s
`,
			wantErrors: []string{"exponential max value must be greater than min value"},
		},
		{
			desc: "two kinds in one layer",
			give: `
layers:
  - timeout: {duration: 1s}
    loadShed: {}
`,
			wantErrors: []string{"a layer must name exactly one kind, found 2"},
		},
		{
			desc:       "missing variable",
			give:       "layers: [{timeout: {duration: '${CALL_TIMEOUT}'}}]",
			wantErrors: []string{`failed to render "${CALL_TIMEOUT}"`},
		},
		{
			desc:       "bogus top level",
			give:       "stack: []",
			wantErrors: []string{"stack"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := newConfigurator(t, tt.env).LoadStackFromYAML(strings.NewReader(tt.give))
			require.Error(t, err)
			for _, msg := range tt.wantErrors {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestLoadStackCombinesErrors(t *testing.T) {
	_, err := newConfigurator(t, nil).LoadStackFromYAML(strings.NewReader(`
layers:
  - nope
  - concurrency: {maxInFlight: 0}
  - loadShed
  - alsoNope
`))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestLoadStackInvalidYAML(t *testing.T) {
	_, err := newConfigurator(t, nil).LoadStackFromYAML(strings.NewReader("layers: [\n"))
	assert.Error(t, err)
}

type denyListConfig struct {
	Words []string `config:"words"`
}

func TestRegisterLayer(t *testing.T) {
	c := newConfigurator(t, nil)
	c.MustRegisterLayer("denyList", func(attrs Attributes, kit *Kit) (svc.Layer[string, string], error) {
		assert.Equal(t, "denyList", kit.Kind())
		assert.Equal(t, []string{"words"}, attrs.Keys())

		var cfg denyListConfig
		if err := attrs.Decode(&cfg); err != nil {
			return nil, err
		}
		return filter.NewLayer[string, string](filter.PredicateFunc[string](func(_ context.Context, req string) error {
			for _, w := range cfg.Words {
				if strings.Contains(req, w) {
					return fmt.Errorf("contains %q", w)
				}
			}
			return nil
		})), nil
	})

	stack, err := c.LoadStackFromYAML(strings.NewReader(`
layers:
  - denyList:
      words: [drop, delete]
  - concurrency:
      maxInFlight: 1
`))
	require.NoError(t, err)

	inner := svctest.NewEcho[string]()
	s := stack.Service(inner)

	_, err = svc.Oneshot(context.Background(), s, "drop table")
	require.Error(t, err)
	assert.True(t, svcerrors.IsRejected(err), "got %v", err)
	assert.Contains(t, err.Error(), `contains "drop"`)

	// The rejection gave the only concurrency permit back.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := svc.Oneshot(ctx, s, "select")
	require.NoError(t, err)
	assert.Equal(t, "select", res)
	assert.Equal(t, []string{"select"}, inner.Calls())
}

func TestRegisterLayerErrors(t *testing.T) {
	c := newConfigurator(t, nil)
	build := func(Attributes, *Kit) (svc.Layer[string, string], error) {
		return svc.Identity[string, string](), nil
	}

	assert.EqualError(t, c.RegisterLayer("", build), "name is required")
	assert.EqualError(t, c.RegisterLayer("x", nil), `layer kind "x" has no builder`)
	assert.Panics(t, func() { c.MustRegisterLayer("", build) })

	// Built-in kinds may be replaced.
	require.NoError(t, c.RegisterLayer("timeout", build))
	stack, err := c.LoadStackFromYAML(strings.NewReader("layers: [timeout]"))
	require.NoError(t, err)
	inner := svctest.NewEcho[string]()
	assert.True(t, stack.Service(inner) == svc.Service[string, string](inner))
}

func TestStackBuilderAndClose(t *testing.T) {
	c := newConfigurator(t, nil)
	stack, err := c.LoadStackFromYAML(strings.NewReader(`
layers:
  - buffer: {capacity: 2}
  - buffer: {capacity: 2}
`))
	require.NoError(t, err)

	var order []string
	record := svc.MapLayer[string, string](func(ctx context.Context, req string, next svc.Service[string, string]) (string, error) {
		order = append(order, "inside")
		return next.Call(ctx, req)
	})

	inner := svctest.NewEcho[string]()
	s := stack.Builder().With(record).Service(inner)

	outer, ok := s.(*buffer.Buffer[string, string])
	require.True(t, ok, "the stack is outermost")

	res, err := svc.Oneshot(context.Background(), s, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", res)
	assert.Equal(t, []string{"inside"}, order)

	require.NoError(t, stack.Close())
	assert.True(t, svcerrors.IsClosed(outer.Ready(context.Background())))

	// Closing again is harmless.
	require.NoError(t, stack.Close())
}

func TestRetryConfigPolicy(t *testing.T) {
	cfg := RetryConfig{
		Retries: 1,
		RetryOn: []Code{Code(svcerrors.CodeTimedOut), Code(svcerrors.CodeInner)},
	}
	opts, err := cfg.PolicyOptions()
	require.NoError(t, err)

	tests := []struct {
		desc string
		err  error
		want bool
	}{
		{desc: "timed out", err: svcerrors.TimedOutErrorf("slow"), want: true},
		{desc: "inner", err: errors.New("boom"), want: true},
		{desc: "rejected", err: svcerrors.RejectedErrorf("no"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			attempts := 0
			inner := svctest.NewService[string, string](func(context.Context, string) (string, error) {
				attempts++
				return "", tt.err
			})
			s := retry.New[string, string](inner, retry.NewPolicy[string, string](opts...))

			_, err := svc.Oneshot(context.Background(), s, "req")
			require.Error(t, err)
			if tt.want {
				assert.Equal(t, 2, attempts)
			} else {
				assert.Equal(t, 1, attempts)
			}
		})
	}
}
