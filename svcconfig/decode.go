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
	"fmt"

	"github.com/uber-go/mapdecode"
	"go.uber.org/svc/balance"
	"go.uber.org/svc/internal/config"
	"go.uber.org/svc/ratelimit"
	"go.uber.org/svc/svcerrors"
)

type stackConfig struct {
	Layers []layerConfig `config:"layers"`
}

// layerConfig is a single entry of a stack. It is either the bare name of a
// kind or a map from the kind to its attributes.
type layerConfig struct {
	Kind  string
	Attrs config.AttributeMap
}

func (l *layerConfig) Decode(into mapdecode.Into) error {
	var kind string
	if err := into(&kind); err == nil {
		l.Kind = kind
		l.Attrs = config.AttributeMap{}
		return nil
	}

	var items map[string]config.AttributeMap
	if err := into(&items); err != nil {
		return fmt.Errorf("failed to decode layer: %v", err)
	}
	if len(items) != 1 {
		return fmt.Errorf("a layer must name exactly one kind, found %d", len(items))
	}
	for kind, attrs := range items {
		if attrs == nil {
			attrs = config.AttributeMap{}
		}
		l.Kind = kind
		l.Attrs = attrs
	}
	return nil
}

// RateLimitPolicy is a ratelimit.Policy read from its name.
type RateLimitPolicy ratelimit.Policy

// mapdecode doesn't support encoding.TextUnmarshaler by default so we have
// to do this manually.
func (p *RateLimitPolicy) Decode(into mapdecode.Into) error {
	var s string
	if err := into(&s); err != nil {
		return fmt.Errorf("could not decode rate limit policy: %v", err)
	}
	if err := (*ratelimit.Policy)(p).UnmarshalText([]byte(s)); err != nil {
		return fmt.Errorf("could not decode rate limit policy: %v", err)
	}
	return nil
}

// BalancerStrategy is a balance.Strategy read from its name.
type BalancerStrategy balance.Strategy

func (s *BalancerStrategy) Decode(into mapdecode.Into) error {
	var name string
	if err := into(&name); err != nil {
		return fmt.Errorf("could not decode balancer strategy: %v", err)
	}
	if err := (*balance.Strategy)(s).UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("could not decode balancer strategy: %v", err)
	}
	return nil
}

// Code is a svcerrors.Code read from its name, like "timed-out".
type Code svcerrors.Code

func (c *Code) Decode(into mapdecode.Into) error {
	var name string
	if err := into(&name); err != nil {
		return fmt.Errorf("could not decode error code: %v", err)
	}
	if err := (*svcerrors.Code)(c).UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("could not decode error code: %v", err)
	}
	return nil
}
