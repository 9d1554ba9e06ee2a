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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/uber-go/tally"
	"go.uber.org/multierr"
	"go.uber.org/svc"
	"go.uber.org/svc/internal/config"
	"go.uber.org/svc/internal/interpolate"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// LayerBuilder builds a layer from its attributes. Decode the attributes
// into a struct with `config` tags.
type LayerBuilder[Req, Res any] func(attrs Attributes, kit *Kit) (svc.Layer[Req, Res], error)

// Option customizes a Configurator.
type Option func(*configuratorOptions)

type configuratorOptions struct {
	resolver interpolate.VariableResolver
	logger   *zap.Logger
	scope    tally.Scope
}

// InterpolationResolver sets the source of values for ${NAME} references.
// Defaults to the environment.
func InterpolationResolver(resolve func(name string) (value string, ok bool)) Option {
	return func(opts *configuratorOptions) {
		opts.resolver = resolve
	}
}

// WithLogger sets the logger handed to layers that log.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *configuratorOptions) {
		opts.logger = logger
	}
}

// WithTally sets the scope under which layers report metrics. Each layer
// reports under a sub-scope named after its kind.
func WithTally(scope tally.Scope) Option {
	return func(opts *configuratorOptions) {
		opts.scope = scope
	}
}

// Configurator builds layer stacks from configuration.
//
// A new Configurator knows the built-in layer kinds. Teach it others with
// RegisterLayer or MustRegisterLayer.
type Configurator[Req, Res any] struct {
	known    map[string]LayerBuilder[Req, Res]
	resolver interpolate.VariableResolver
	logger   *zap.Logger
	scope    tally.Scope
}

// New sets up a Configurator that knows the built-in layer kinds.
func New[Req, Res any](opts ...Option) *Configurator[Req, Res] {
	options := configuratorOptions{
		resolver: os.LookupEnv,
		logger:   zap.NewNop(),
		scope:    tally.NoopScope,
	}
	for _, opt := range opts {
		opt(&options)
	}

	c := &Configurator[Req, Res]{
		known:    make(map[string]LayerBuilder[Req, Res]),
		resolver: options.resolver,
		logger:   options.logger,
		scope:    options.scope,
	}
	c.MustRegisterLayer("concurrency", buildConcurrency[Req, Res])
	c.MustRegisterLayer("rateLimit", buildRateLimit[Req, Res])
	c.MustRegisterLayer("loadShed", buildLoadShed[Req, Res])
	c.MustRegisterLayer("timeout", buildTimeout[Req, Res])
	c.MustRegisterLayer("buffer", buildBuffer[Req, Res])
	c.MustRegisterLayer("retry", buildRetry[Req, Res])
	return c
}

// RegisterLayer teaches the Configurator to build layers of the named kind.
// A kind with the same name is replaced.
func (c *Configurator[Req, Res]) RegisterLayer(name string, build LayerBuilder[Req, Res]) error {
	if name == "" {
		return errors.New("name is required")
	}
	if build == nil {
		return fmt.Errorf("layer kind %q has no builder", name)
	}
	c.known[name] = build
	return nil
}

// MustRegisterLayer registers a layer kind and panics if it is invalid.
func (c *Configurator[Req, Res]) MustRegisterLayer(name string, build LayerBuilder[Req, Res]) {
	if err := c.RegisterLayer(name, build); err != nil {
		panic(err)
	}
}

// LoadStackFromYAML builds a Stack from YAML. Use LoadStack if you have
// already parsed a map[string]interface{} or map[interface{}]interface{}.
func (c *Configurator[Req, Res]) LoadStackFromYAML(r io.Reader) (*Stack[Req, Res], error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return c.LoadStack(data)
}

// LoadStack builds a Stack from a map with a "layers" list.
//
// Every layer is attempted; the errors of those that could not be built are
// combined.
func (c *Configurator[Req, Res]) LoadStack(data interface{}) (*Stack[Req, Res], error) {
	var cfg stackConfig
	if err := config.DecodeInto(&cfg, data); err != nil {
		return nil, err
	}

	stack := &Stack[Req, Res]{}
	layers := make([]svc.Layer[Req, Res], 0, len(cfg.Layers))
	var errs error
	for i, lc := range cfg.Layers {
		build, ok := c.known[lc.Kind]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("layer %d: unknown kind %q", i, lc.Kind))
			continue
		}

		kit := &Kit{
			kind:   lc.Kind,
			logger: c.logger.With(zap.String("layer", lc.Kind)),
			scope:  c.scope.SubScope(lc.Kind),
			stack:  stack,
		}
		l, err := build(Attributes{attrs: lc.Attrs, resolver: c.resolver}, kit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("layer %d (%s): %v", i, lc.Kind, err))
			continue
		}
		layers = append(layers, l)
		stack.kinds = append(stack.kinds, lc.Kind)
	}
	if errs != nil {
		return nil, errs
	}

	stack.layer = svc.Chain(layers...)
	c.logger.Debug("loaded layer stack", zap.Strings("layers", stack.kinds))
	return stack, nil
}

// Decode reads data into dst, a struct with `config` tags such as
// ReconnectConfig or BalancerConfig, resolving ${NAME} references.
func (c *Configurator[Req, Res]) Decode(dst interface{}, data interface{}) error {
	return config.DecodeInto(dst, data, config.InterpolateWith(c.resolver))
}

// Attributes are the settings of a single layer.
type Attributes struct {
	attrs    config.AttributeMap
	resolver interpolate.VariableResolver
}

// Decode reads the attributes into dst. Unknown attributes are an error.
func (a Attributes) Decode(dst interface{}) error {
	return a.attrs.Decode(dst, config.InterpolateWith(a.resolver))
}

// Keys returns the names of the attributes.
func (a Attributes) Keys() []string {
	return a.attrs.Keys()
}
