//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package binder ties the lifecycle of a view to one stream subscription.
//
// A Binder moves through Idle, Loading, Ready and Failed. Every subscription
// belongs to an epoch; callbacks of an older epoch are ignored, so a released
// subscription can never change the state of a newer one.
package binder

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/internal/pkg/stream"
	"github.com/insolar/dao-observer/observability"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "idle"
}

// State is a snapshot of the binder state.
type State[T any] struct {
	Phase Phase
	Value T
	Err   error
	Epoch uint64
}

// Props is what the wrapped view receives.
type Props[P, T any] struct {
	External  P
	Data      *T
	IsLoading bool
	Error     error
}

type Config[P, T, V any] struct {
	// Name labels logs and metrics.
	Name             string
	CreateObservable func(props P) stream.Observable[T]
	CheckForUpdate   UpdateCheck[P]
	Wrapped          func(Props[P, T]) V
	// Loading and Error may be nil, the zero V is rendered then.
	Loading func(props P) V
	Error   func(props P, err error) V
}

type Binder[P, T, V any] struct {
	cfg     Config[P, T, V]
	log     logrus.FieldLogger
	metrics *observability.BinderMetrics
	changes chan struct{}

	mu      sync.Mutex
	props   P
	mounted bool
	state   State[T]
	sub     stream.Subscription
}

// New panics when CheckForUpdate names fields that P does not export.
func New[P, T, V any](obs *observability.Observability, cfg Config[P, T, V]) *Binder[P, T, V] {
	if check, ok := cfg.CheckForUpdate.(interface{ validate() error }); ok {
		if err := check.validate(); err != nil {
			panic(errors.Wrapf(err, "binder %s", cfg.Name))
		}
	}
	return &Binder[P, T, V]{
		cfg:     cfg,
		log:     obs.Log().WithField("view", cfg.Name),
		metrics: observability.MakeBinderMetrics(obs),
		changes: make(chan struct{}, 1),
	}
}

// Mount enters Loading and subscribes to the stream created from props.
func (b *Binder[P, T, V]) Mount(props P) {
	b.mu.Lock()
	if b.mounted {
		b.mu.Unlock()
		b.log.Warn("binder is already mounted")
		return
	}
	b.mounted = true
	b.props = props
	epoch := b.begin()
	b.mu.Unlock()

	b.subscribe(epoch, props)
}

// Update replaces props. The subscription is recreated only when the update
// check asks for it. It reports whether a resubscribe happened.
func (b *Binder[P, T, V]) Update(props P) bool {
	b.mu.Lock()
	if !b.mounted {
		b.props = props
		b.mu.Unlock()
		return false
	}
	old := b.props
	b.props = props
	b.mu.Unlock()

	if b.cfg.CheckForUpdate == nil || !b.cfg.CheckForUpdate.NeedsUpdate(old, props) {
		b.notify()
		return false
	}

	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return false
	}
	prev := b.release()
	epoch := b.begin()
	b.mu.Unlock()

	b.teardown(prev)
	b.log.Debug("props changed, resubscribing")
	b.subscribe(epoch, props)
	return true
}

// Unmount releases the current subscription. It is safe to call in any state
// and more than once.
func (b *Binder[P, T, V]) Unmount() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.mounted = false
	prev := b.release()
	b.mu.Unlock()

	b.teardown(prev)
	b.notify()
}

func (b *Binder[P, T, V]) State() State[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Binder[P, T, V]) Props() Props[P, T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := Props[P, T]{
		External:  b.props,
		IsLoading: b.state.Phase == Loading,
		Error:     b.state.Err,
	}
	if b.state.Phase == Ready {
		v := b.state.Value
		out.Data = &v
	}
	return out
}

// Render selects the placeholder or the wrapped view for the current state.
func (b *Binder[P, T, V]) Render() V {
	props := b.Props()
	var zero V

	switch {
	case props.Error != nil:
		if b.cfg.Error == nil {
			return zero
		}
		return b.cfg.Error(props.External, props.Error)
	case props.Data != nil:
		return b.cfg.Wrapped(props)
	default:
		if b.cfg.Loading == nil {
			return zero
		}
		return b.cfg.Loading(props.External)
	}
}

// Changes signals every state or props change. Signals are coalesced.
func (b *Binder[P, T, V]) Changes() <-chan struct{} {
	return b.changes
}

// Await blocks until the binder is Ready or Failed.
func (b *Binder[P, T, V]) Await(ctx context.Context) (Phase, error) {
	for {
		st := b.State()
		if st.Phase == Ready || st.Phase == Failed {
			return st.Phase, nil
		}
		select {
		case <-ctx.Done():
			return st.Phase, ctx.Err()
		case <-b.changes:
		}
	}
}

// begin starts a new epoch in Loading. Must hold mu.
func (b *Binder[P, T, V]) begin() uint64 {
	epoch := b.state.Epoch + 1
	b.state = State[T]{Phase: Loading, Epoch: epoch}
	return epoch
}

// release detaches the current subscription and moves to Idle. Must hold mu.
func (b *Binder[P, T, V]) release() stream.Subscription {
	prev := b.sub
	b.sub = nil
	b.state = State[T]{Phase: Idle, Epoch: b.state.Epoch + 1}
	return prev
}

func (b *Binder[P, T, V]) teardown(sub stream.Subscription) {
	if sub == nil {
		return
	}
	sub.Unsubscribe()
	b.metrics.Teardowns.WithLabelValues(b.cfg.Name).Inc()
	b.metrics.Active.Dec()
}

func (b *Binder[P, T, V]) subscribe(epoch uint64, props P) {
	b.notify()

	obs := b.cfg.CreateObservable(props)
	sub := obs.Subscribe(
		func(v T) { b.next(epoch, v) },
		func(err error) { b.fail(epoch, err) },
	)
	b.metrics.Subscriptions.WithLabelValues(b.cfg.Name).Inc()
	b.metrics.Active.Inc()

	b.mu.Lock()
	if b.state.Epoch != epoch {
		// released while subscribing
		b.mu.Unlock()
		b.teardown(sub)
		return
	}
	b.sub = sub
	b.mu.Unlock()
}

func (b *Binder[P, T, V]) next(epoch uint64, v T) {
	b.mu.Lock()
	if b.state.Epoch != epoch || b.state.Phase == Failed {
		b.mu.Unlock()
		return
	}
	b.state.Phase = Ready
	b.state.Value = v
	b.mu.Unlock()

	b.metrics.Emissions.WithLabelValues(b.cfg.Name).Inc()
	b.notify()
}

func (b *Binder[P, T, V]) fail(epoch uint64, err error) {
	b.mu.Lock()
	if b.state.Epoch != epoch || b.state.Phase == Failed {
		b.mu.Unlock()
		return
	}
	var zero T
	b.state.Phase = Failed
	b.state.Value = zero
	b.state.Err = err
	b.mu.Unlock()

	b.metrics.Failures.WithLabelValues(b.cfg.Name).Inc()
	b.log.WithError(err).Warn("subscription failed")
	b.notify()
}

func (b *Binder[P, T, V]) notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}
