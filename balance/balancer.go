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
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/multierr"
	"go.uber.org/svc"
	"go.uber.org/svc/api/backoff"
	"go.uber.org/svc/discover"
	ibackoff "go.uber.org/svc/internal/backoff"
	"go.uber.org/svc/internal/clock"
	isync "go.uber.org/svc/internal/sync"
	"go.uber.org/svc/svcerrors"
	"go.uber.org/zap"
)

// Option customizes a Balancer.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

type options struct {
	strategy Strategy
	backoff  backoff.Strategy
	clock    clock.Clock
	logger   *zap.Logger
	scope    tally.Scope
	seed     int64
}

// WithStrategy picks how a ready backend is selected. Defaults to
// LeastPending.
func WithStrategy(s Strategy) Option {
	return optionFunc(func(opts *options) {
		opts.strategy = s
	})
}

// WithBackoff sets how long the balancer waits before watching its source
// again after a watch ends. Defaults to an exponential backoff.
func WithBackoff(strategy backoff.Strategy) Option {
	return optionFunc(func(opts *options) {
		if strategy != nil {
			opts.backoff = strategy
		}
	})
}

// WithClock sets the clock used to wait between watches.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// WithLogger sets the logger for membership changes.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithTally reports the number of backends to the given scope.
func WithTally(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// WithSeed seeds the random placement of new backends.
func WithSeed(seed int64) Option {
	return optionFunc(func(opts *options) {
		opts.seed = seed
	})
}

// Updates is a batch of membership changes applied by Update.
type Updates[Req, Res any] struct {
	Additions []discover.Backend[Req, Res]
	Removals  []string
}

// Balancer is a service that dispatches each call to one of many backends.
type Balancer[Req, Res any] struct {
	source  discover.Source[Req, Res]
	once    isync.LifecycleOnce
	backoff backoff.Strategy
	clock   clock.Clock
	logger  *zap.Logger

	backendsGauge tally.Gauge
	readyGauge    tally.Gauge

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry[Req, Res]
	chooser chooser[Req, Res]
	stopped bool

	// availableCh is poked whenever an entry becomes ready.
	availableCh chan struct{}
}

var _ svc.Service[struct{}, struct{}] = (*Balancer[struct{}, struct{}])(nil)

// New returns a Balancer over the backends of source. The source is not
// watched until Start.
func New[Req, Res any](source discover.Source[Req, Res], opts ...Option) *Balancer[Req, Res] {
	options := options{
		strategy: LeastPending,
		backoff:  ibackoff.DefaultExponential,
		clock:    clock.NewReal(),
		logger:   zap.NewNop(),
		scope:    tally.NoopScope,
		seed:     time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt.apply(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Balancer[Req, Res]{
		source:        source,
		backoff:       options.backoff,
		clock:         options.clock,
		logger:        options.logger,
		backendsGauge: options.scope.Gauge("backends"),
		readyGauge:    options.scope.Gauge("ready_backends"),
		ctx:           ctx,
		cancel:        cancel,
		entries:       make(map[string]*entry[Req, Res]),
		chooser:       newChooser[Req, Res](options.strategy, rand.New(rand.NewSource(options.seed))),
		availableCh:   make(chan struct{}, 1),
	}
}

// Start begins watching the source.
func (b *Balancer[Req, Res]) Start() error {
	return b.once.Start(b.start)
}

func (b *Balancer[Req, Res]) start() error {
	if b.source == nil {
		return nil
	}
	b.wg.Add(1)
	go b.run()
	return nil
}

// Stop stops watching the source and removes every backend. Calls in flight
// finish on their backends.
func (b *Balancer[Req, Res]) Stop() error {
	return b.once.Stop(b.stop)
}

func (b *Balancer[Req, Res]) stop() error {
	b.cancel()

	b.mu.Lock()
	b.stopped = true
	var dispose []*entry[Req, Res]
	for _, e := range b.entries {
		if b.detachLocked(e) {
			dispose = append(dispose, e)
		}
	}
	b.mu.Unlock()

	for _, e := range dispose {
		e.dispose(b.logger)
	}

	b.wg.Wait()
	b.logger.Info("balancer stopped")
	return nil
}

// IsRunning reports whether the balancer has started and not stopped.
func (b *Balancer[Req, Res]) IsRunning() bool {
	return b.once.IsRunning()
}

// Update applies a batch of membership changes. Removals apply before
// additions. An addition under a known identity replaces that backend.
//
// Every change is attempted; the errors of those that failed are combined.
func (b *Balancer[Req, Res]) Update(ctx context.Context, updates Updates[Req, Res]) error {
	b.logger.Debug("balancer update",
		zap.Int("additions", len(updates.Additions)),
		zap.Int("removals", len(updates.Removals)))

	var errs error
	for _, id := range updates.Removals {
		errs = multierr.Append(errs, b.remove(id))
	}
	for _, backend := range updates.Additions {
		errs = multierr.Append(errs, b.insert(ctx, backend.ID, backend.New))
	}
	return errs
}

// Ready waits until at least one backend is ready.
func (b *Balancer[Req, Res]) Ready(ctx context.Context) error {
	for {
		if b.NumReady() > 0 {
			b.notifyAvailable()
			return nil
		}
		select {
		case <-b.availableCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Call dispatches req to a ready backend, waiting for one if every backend
// is busy becoming ready. It fails at once if there are no backends.
func (b *Balancer[Req, Res]) Call(ctx context.Context, req Req) (Res, error) {
	e, err := b.choose(ctx)
	if err != nil {
		var zero Res
		return zero, err
	}
	defer b.finish(e)

	// The chosen entry's readiness was spent on this call. Look again for
	// the next one.
	b.refresh(e)

	return e.service.Call(ctx, req)
}

// choose takes a ready entry out of the selection and counts a call against
// it.
func (b *Balancer[Req, Res]) choose(ctx context.Context) (*entry[Req, Res], error) {
	for {
		b.mu.Lock()
		if e := b.chooser.choose(); e != nil {
			b.chooser.remove(e)
			e.pending++
			b.updateGaugesLocked()
			b.mu.Unlock()

			// More than one caller may be waiting. Each success wakes the
			// next so that none sleeps while entries are ready.
			b.notifyAvailable()
			return e, nil
		}
		n := len(b.entries)
		b.mu.Unlock()

		if n == 0 {
			return nil, svcerrors.NoBackendsErrorf("balancer has no backends")
		}

		select {
		case <-b.availableCh:
		case <-ctx.Done():
			return nil, svcerrors.CancelledErrorf(
				"waiting for one of %d backends to be ready: %w", n, ctx.Err())
		}
	}
}

// refresh polls an entry that was taken out of the selection and puts it
// back if it is ready, or watches it until it is.
func (b *Balancer[Req, Res]) refresh(e *entry[Req, Res]) {
	state, err := svc.Poll(e.service)
	switch state {
	case svc.StateReady:
		b.mu.Lock()
		ok := !e.removed
		if ok {
			b.chooser.add(e)
			b.updateGaugesLocked()
		}
		b.mu.Unlock()
		if ok {
			b.notifyAvailable()
		}
	case svc.StatePending:
		b.mu.Lock()
		if !e.removed {
			b.watchLocked(e)
		}
		b.mu.Unlock()
	default:
		b.fail(e, err)
	}
}

func (b *Balancer[Req, Res]) finish(e *entry[Req, Res]) {
	b.mu.Lock()
	e.pending--
	b.chooser.pendingChanged(e)
	dispose := e.releasableLocked()
	b.mu.Unlock()

	if dispose {
		e.dispose(b.logger)
	}
}

// watchLocked waits in the background for a pending entry to become ready.
func (b *Balancer[Req, Res]) watchLocked(e *entry[Req, Res]) {
	if e.watching {
		return
	}
	e.watching = true

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		err := e.service.Ready(e.ctx)

		b.mu.Lock()
		e.watching = false
		if e.removed {
			b.mu.Unlock()
			return
		}
		if err != nil {
			b.mu.Unlock()
			b.fail(e, err)
			return
		}
		b.chooser.add(e)
		b.updateGaugesLocked()
		b.mu.Unlock()

		b.notifyAvailable()
	}()
}

// fail removes an entry whose readiness failed.
func (b *Balancer[Req, Res]) fail(e *entry[Req, Res], err error) {
	b.mu.Lock()
	if e.removed {
		b.mu.Unlock()
		return
	}
	dispose := b.detachLocked(e)
	b.mu.Unlock()

	b.logger.Warn("removing failed backend", zap.String("backend", e.id), zap.Error(err))
	if dispose {
		e.dispose(b.logger)
	}
}

// detachLocked forgets an entry and reports whether it must be disposed now.
func (b *Balancer[Req, Res]) detachLocked(e *entry[Req, Res]) bool {
	if cur, ok := b.entries[e.id]; ok && cur == e {
		delete(b.entries, e.id)
	}
	b.chooser.remove(e)
	dispose := e.retireLocked()
	b.updateGaugesLocked()
	return dispose
}

func (b *Balancer[Req, Res]) insert(ctx context.Context, id string, f discover.Factory[Req, Res]) error {
	if f == nil {
		return fmt.Errorf("backend %q has no factory", id)
	}

	s, err := f(ctx)
	if err != nil {
		return fmt.Errorf("building backend %q: %w", id, err)
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		(&entry[Req, Res]{id: id, service: s}).dispose(b.logger)
		return svcerrors.ClosedErrorf("balancer stopped")
	}

	e := newEntry(b.ctx, id, s)
	var replaced *entry[Req, Res]
	if old, ok := b.entries[id]; ok {
		if b.detachLocked(old) {
			replaced = old
		}
	}
	b.entries[id] = e
	b.updateGaugesLocked()
	b.mu.Unlock()

	if replaced != nil {
		replaced.dispose(b.logger)
	}
	b.logger.Info("added backend", zap.String("backend", id))

	b.refresh(e)
	return nil
}

func (b *Balancer[Req, Res]) remove(id string) error {
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("backend %q is not in the balancer", id)
	}
	dispose := b.detachLocked(e)
	b.mu.Unlock()

	b.logger.Info("removed backend", zap.String("backend", id), zap.Bool("draining", !dispose))
	if dispose {
		e.dispose(b.logger)
	}
	return nil
}

func (b *Balancer[Req, Res]) apply(ctx context.Context, change discover.Change[Req, Res]) {
	var err error
	switch change.Kind {
	case discover.Insert:
		err = b.insert(ctx, change.ID, change.New)
	case discover.Remove:
		err = b.remove(change.ID)
	case discover.Synced:
		// Only the first one, which ends the replay, means anything.
	default:
		err = fmt.Errorf("unknown change %v for backend %q", change.Kind, change.ID)
	}
	if err != nil {
		b.logger.Warn("failed to apply membership change",
			zap.Stringer("kind", change.Kind),
			zap.String("backend", change.ID),
			zap.Error(err))
	}
}

// run follows the source until the balancer stops, watching it again after
// a backoff whenever a watch ends.
func (b *Balancer[Req, Res]) run() {
	defer b.wg.Done()

	bo := b.backoff.Backoff()
	var attempts uint
	for {
		changes, err := b.source.Watch(b.ctx)
		if err == nil {
			b.logger.Debug("watching membership source")
			if b.consume(changes) {
				attempts = 0
			}
		} else if b.ctx.Err() == nil {
			b.logger.Warn("failed to watch membership source", zap.Error(err))
		}

		if b.ctx.Err() != nil {
			return
		}

		d := bo.Duration(attempts)
		attempts++
		b.logger.Info("membership watch ended, watching again",
			zap.Duration("backoff", d), zap.Uint("attempt", attempts))

		t := b.clock.Timer(d)
		select {
		case <-t.C():
		case <-b.ctx.Done():
			t.Stop()
			return
		}
	}
}

// consume applies changes until the stream ends and reports whether any
// change arrived.
//
// A stream opens with a replay of the membership. Replayed backends the
// balancer already holds are kept as they are. When the replay is synced,
// every backend it did not list is removed.
func (b *Balancer[Req, Res]) consume(changes <-chan discover.Change[Req, Res]) bool {
	received := false
	replayed := make(map[string]struct{}) // nil once synced
	for change := range changes {
		received = true
		if replayed != nil {
			switch change.Kind {
			case discover.Insert:
				replayed[change.ID] = struct{}{}
				if b.has(change.ID) {
					continue
				}
			case discover.Remove:
				delete(replayed, change.ID)
			case discover.Synced:
				b.resync(replayed)
				replayed = nil
				continue
			}
		}
		b.apply(b.ctx, change)
	}
	return received
}

// resync removes every backend not in members.
func (b *Balancer[Req, Res]) resync(members map[string]struct{}) {
	b.mu.Lock()
	var stale []string
	for id := range b.entries {
		if _, ok := members[id]; !ok {
			stale = append(stale, id)
		}
	}
	b.mu.Unlock()

	b.logger.Debug("membership synced",
		zap.Int("members", len(members)),
		zap.Int("stale", len(stale)))
	for _, id := range stale {
		if err := b.remove(id); err != nil {
			b.logger.Debug("stale backend already gone", zap.String("backend", id), zap.Error(err))
		}
	}
}

func (b *Balancer[Req, Res]) has(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[id]
	return ok
}

// notifyAvailable may be called without the lock.
func (b *Balancer[Req, Res]) notifyAvailable() {
	select {
	case b.availableCh <- struct{}{}:
	default:
	}
}

func (b *Balancer[Req, Res]) updateGaugesLocked() {
	b.backendsGauge.Update(float64(len(b.entries)))
	b.readyGauge.Update(float64(b.chooser.len()))
}

// NumBackends returns how many backends the balancer holds.
func (b *Balancer[Req, Res]) NumBackends() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// NumReady returns how many backends are ready for a call.
func (b *Balancer[Req, Res]) NumReady() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chooser.len()
}

// Pending returns the number of calls in flight on the backend id.
func (b *Balancer[Req, Res]) Pending(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[id]; ok {
		return e.pending
	}
	return 0
}
