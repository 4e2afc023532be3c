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

package stream

import (
	"context"
	"sync"
)

// Of emits v once, synchronously on subscribe.
func Of[T any](v T) Observable[T] {
	return Func[T](func(next func(T), _ func(error)) func() {
		next(v)
		return nil
	})
}

// Fail terminates every subscriber with err.
func Fail[T any](err error) Observable[T] {
	return Func[T](func(_ func(T), fail func(error)) func() {
		fail(err)
		return nil
	})
}

// Never does not emit anything.
func Never[T any]() Observable[T] {
	return Func[T](func(func(T), func(error)) func() {
		return nil
	})
}

func Map[T, R any](src Observable[T], f func(T) R) Observable[R] {
	return Func[R](func(next func(R), fail func(error)) func() {
		sub := src.Subscribe(func(v T) {
			next(f(v))
		}, fail)
		return sub.Unsubscribe
	})
}

// SwitchMap subscribes to the observable produced for every value of src and
// releases the previously produced one.
func SwitchMap[T, R any](src Observable[T], project func(T) Observable[R]) Observable[R] {
	return Func[R](func(next func(R), fail func(error)) func() {
		var (
			mu     sync.Mutex
			inner  Subscription
			closed bool
		)
		outer := src.Subscribe(func(v T) {
			mu.Lock()
			if closed {
				mu.Unlock()
				return
			}
			prev := inner
			inner = nil
			mu.Unlock()

			if prev != nil {
				prev.Unsubscribe()
			}
			sub := project(v).Subscribe(next, fail)

			mu.Lock()
			if closed {
				mu.Unlock()
				sub.Unsubscribe()
				return
			}
			inner = sub
			mu.Unlock()
		}, fail)

		return func() {
			mu.Lock()
			closed = true
			cur := inner
			inner = nil
			mu.Unlock()

			outer.Unsubscribe()
			if cur != nil {
				cur.Unsubscribe()
			}
		}
	})
}

type Pair[A, B any] struct {
	First  A
	Second B
}

// CombineLatest2 emits the latest value of both sources once each of them
// emitted at least once. Later emissions replace only their own slot.
func CombineLatest2[A, B any](a Observable[A], b Observable[B]) Observable[Pair[A, B]] {
	return Func[Pair[A, B]](func(next func(Pair[A, B]), fail func(error)) func() {
		var (
			mu         sync.Mutex
			last       Pair[A, B]
			hasA, hasB bool
		)
		subA := a.Subscribe(func(v A) {
			mu.Lock()
			defer mu.Unlock()
			last.First, hasA = v, true
			if hasB {
				next(last)
			}
		}, fail)
		subB := b.Subscribe(func(v B) {
			mu.Lock()
			defer mu.Unlock()
			last.Second, hasB = v, true
			if hasA {
				next(last)
			}
		}, fail)
		return Subscriptions{subA, subB}.Unsubscribe
	})
}

// CombineAll is CombineLatest over a homogeneous list. An empty list emits an
// empty slice once.
func CombineAll[T any](sources []Observable[T]) Observable[[]T] {
	return Func[[]T](func(next func([]T), fail func(error)) func() {
		if len(sources) == 0 {
			next([]T{})
			return nil
		}

		var mu sync.Mutex
		values := make([]T, len(sources))
		seen := make([]bool, len(sources))
		remaining := len(sources)

		subs := make(Subscriptions, 0, len(sources))
		for i, src := range sources {
			i := i
			sub := src.Subscribe(func(v T) {
				mu.Lock()
				defer mu.Unlock()
				values[i] = v
				if !seen[i] {
					seen[i] = true
					remaining--
				}
				if remaining == 0 {
					out := make([]T, len(values))
					copy(out, values)
					next(out)
				}
			}, fail)
			subs = append(subs, sub)
		}
		return subs.Unsubscribe
	})
}

// First waits for the first value or error of src and releases the
// subscription.
func First[T any](ctx context.Context, src Observable[T]) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	sub := src.Subscribe(
		func(v T) {
			select {
			case done <- result{value: v}:
			default:
			}
		},
		func(err error) {
			select {
			case done <- result{err: err}:
			default:
			}
		},
	)
	defer sub.Unsubscribe()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
