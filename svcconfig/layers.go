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
	"time"

	"go.uber.org/svc"
	"go.uber.org/svc/buffer"
	"go.uber.org/svc/concurrency"
	"go.uber.org/svc/loadshed"
	"go.uber.org/svc/ratelimit"
	"go.uber.org/svc/retry"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/svc/timeout"
)

// ConcurrencyConfig configures a concurrency layer.
//
//	concurrency:
//	  maxInFlight: 64
type ConcurrencyConfig struct {
	MaxInFlight int `config:"maxInFlight,interpolate"`
}

func buildConcurrency[Req, Res any](attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error) {
	var cfg ConcurrencyConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	return concurrency.NewLayer[Req, Res](cfg.MaxInFlight, concurrency.WithTally(kit.Scope()))
}

// RateLimitConfig configures a rate limiting layer. Policy is slidingWindow
// (the default) or tokenBucket.
//
//	rateLimit:
//	  quota: 100
//	  window: 1s
//	  policy: tokenBucket
//	  nonBlocking: true
type RateLimitConfig struct {
	Quota       int             `config:"quota,interpolate"`
	Window      time.Duration   `config:"window,interpolate"`
	Policy      RateLimitPolicy `config:"policy"`
	NonBlocking bool            `config:"nonBlocking"`
}

func buildRateLimit[Req, Res any](attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error) {
	var cfg RateLimitConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	opts := []ratelimit.Option{
		ratelimit.WithPolicy(ratelimit.Policy(cfg.Policy)),
		ratelimit.WithTally(kit.Scope()),
	}
	if cfg.NonBlocking {
		opts = append(opts, ratelimit.WithNonBlocking())
	}
	return ratelimit.NewLayer[Req, Res](cfg.Quota, cfg.Window, opts...)
}

// LoadShedConfig configures a load shedding layer. Shed calls are logged at
// most once per LogInterval, a minute by default.
//
//	loadShed:
//	  logInterval: 10s
type LoadShedConfig struct {
	LogInterval time.Duration `config:"logInterval,interpolate"`
}

func buildLoadShed[Req, Res any](attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error) {
	var cfg LoadShedConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	return loadshed.NewLayer[Req, Res](
		loadshed.WithTally(kit.Scope()),
		loadshed.WithLogger(kit.Logger(), cfg.LogInterval),
	), nil
}

// TimeoutConfig configures a timeout layer.
//
//	timeout:
//	  duration: 500ms
type TimeoutConfig struct {
	Duration time.Duration `config:"duration,interpolate"`
}

func buildTimeout[Req, Res any](attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error) {
	var cfg TimeoutConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	return timeout.NewLayer[Req, Res](cfg.Duration)
}

// BufferConfig configures a buffer layer. The stack closes every buffer it
// built when it is closed.
//
//	buffer:
//	  capacity: 128
type BufferConfig struct {
	Capacity int `config:"capacity,interpolate"`
}

func buildBuffer[Req, Res any](attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error) {
	var cfg BufferConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}

	opts := []buffer.Option{
		buffer.WithLogger(kit.Logger()),
		buffer.WithTally(kit.Scope()),
	}
	// Validate eagerly so the configuration error surfaces at load time.
	if _, err := buffer.NewLayer[Req, Res](cfg.Capacity, opts...); err != nil {
		return nil, err
	}
	return svc.LayerFunc[Req, Res](func(inner svc.Service[Req, Res]) svc.Service[Req, Res] {
		b, _ := buffer.New(inner, cfg.Capacity, opts...)
		kit.OnClose(b)
		return b
	}), nil
}

// RetryConfig configures a retry layer.
//
// RetryOn lists the error codes worth retrying, like "timed-out" or
// "inner". It defaults to the codes of requests that never reached the
// backend. Without a backoff, retries go out at once.
//
//	retry:
//	  retries: 3
//	  maxAttempts: 5
//	  retryOn: [capacity-exceeded, timed-out]
//	  backoff:
//	    exponential:
//	      base: 50ms
//	      max: 1s
type RetryConfig struct {
	Retries     uint    `config:"retries,interpolate"`
	MaxAttempts uint    `config:"maxAttempts,interpolate"`
	RetryOn     []Code  `config:"retryOn"`
	Backoff     Backoff `config:"backoff"`
}

// PolicyOptions returns the options for a retry.BasicPolicy.
func (c RetryConfig) PolicyOptions() ([]retry.PolicyOption, error) {
	opts := []retry.PolicyOption{retry.Retries(c.Retries)}
	if !c.Backoff.IsZero() {
		strategy, err := c.Backoff.Strategy()
		if err != nil {
			return nil, err
		}
		opts = append(opts, retry.BackoffStrategy(strategy))
	}
	if len(c.RetryOn) > 0 {
		codes := make(map[svcerrors.Code]struct{}, len(c.RetryOn))
		for _, code := range c.RetryOn {
			codes[svcerrors.Code(code)] = struct{}{}
		}
		opts = append(opts, retry.RetryIf(func(err error) bool {
			_, ok := codes[svcerrors.FromError(err).Code()]
			return ok
		}))
	}
	return opts, nil
}

func buildRetry[Req, Res any](attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error) {
	var cfg RetryConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	policyOpts, err := cfg.PolicyOptions()
	if err != nil {
		return nil, err
	}
	return retry.NewLayer[Req, Res](
		retry.NewPolicy[Req, Res](policyOpts...),
		retry.WithMaxAttempts(cfg.MaxAttempts),
		retry.WithLogger(kit.Logger()),
		retry.WithTally(kit.Scope()),
	), nil
}
