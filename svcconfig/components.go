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

	"go.uber.org/svc/balance"
	"go.uber.org/svc/reconnect"
)

// ReconnectConfig configures a reconnecting service. A backoff takes
// precedence over a fixed delay.
//
//	reconnectDelay: 1s
//	backoff:
//	  exponential:
//	    base: 100ms
//	    max: 10s
type ReconnectConfig struct {
	ReconnectDelay time.Duration `config:"reconnectDelay,interpolate"`
	Backoff        Backoff       `config:"backoff"`
}

// Options returns the reconnect options for the configuration.
func (c ReconnectConfig) Options() ([]reconnect.Option, error) {
	if !c.Backoff.IsZero() {
		strategy, err := c.Backoff.Strategy()
		if err != nil {
			return nil, err
		}
		return []reconnect.Option{reconnect.WithBackoff(strategy)}, nil
	}
	return []reconnect.Option{reconnect.WithReconnectDelay(c.ReconnectDelay)}, nil
}

// BalancerConfig configures a balancer. Strategy is leastPending (the
// default) or twoRandomChoices. Backoff sets the wait before watching the
// membership source again.
//
//	strategy: twoRandomChoices
//	backoff:
//	  exponential:
//	    max: 5s
type BalancerConfig struct {
	Strategy BalancerStrategy `config:"strategy"`
	Backoff  Backoff          `config:"backoff"`
}

// Options returns the balancer options for the configuration.
func (c BalancerConfig) Options() ([]balance.Option, error) {
	opts := []balance.Option{balance.WithStrategy(balance.Strategy(c.Strategy))}
	if !c.Backoff.IsZero() {
		strategy, err := c.Backoff.Strategy()
		if err != nil {
			return nil, err
		}
		opts = append(opts, balance.WithBackoff(strategy))
	}
	return opts, nil
}
