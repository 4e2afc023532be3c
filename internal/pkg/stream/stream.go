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

// Package stream contains a minimal push-based observable used to deliver
// entity state snapshots to subscribers.
package stream

import (
	"sync"
)

// Observable is a source of values of type T. Every call to Subscribe starts
// an independent delivery.
type Observable[T any] interface {
	Subscribe(onNext func(T), onError func(error)) Subscription
}

// Subscription releases the resources held by a single Subscribe call.
// Unsubscribe may be called any number of times.
type Subscription interface {
	Unsubscribe()
}

// Func adapts a producer function to Observable. The producer receives
// emission callbacks and returns a teardown that is called once on
// Unsubscribe. A nil teardown is allowed.
type Func[T any] func(next func(T), fail func(error)) (teardown func())

func (f Func[T]) Subscribe(onNext func(T), onError func(error)) Subscription {
	s := &subscription{}
	teardown := f(
		func(v T) {
			if s.active() && onNext != nil {
				onNext(v)
			}
		},
		func(err error) {
			if s.stop() && onError != nil {
				onError(err)
			}
		},
	)
	s.attach(teardown)
	return s
}

type subscription struct {
	mu       sync.Mutex
	closed   bool
	stopped  bool
	teardown func()
}

func (s *subscription) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && !s.stopped
}

// stop marks the stream as terminated by an error. It reports whether the
// error should be delivered.
func (s *subscription) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.stopped {
		return false
	}
	s.stopped = true
	return true
}

func (s *subscription) attach(teardown func()) {
	if teardown == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		teardown()
		return
	}
	s.teardown = teardown
	s.mu.Unlock()
}

func (s *subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	if teardown != nil {
		teardown()
	}
}

// Subscriptions is a group released together.
type Subscriptions []Subscription

func (ss Subscriptions) Unsubscribe() {
	for _, s := range ss {
		if s != nil {
			s.Unsubscribe()
		}
	}
}
