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
	"sync"
)

type sink[T any] struct {
	id   int
	next func(T)
	fail func(error)
}

// Subject is a hot observable: values pushed with Next are delivered to the
// subscribers present at that moment.
type Subject[T any] struct {
	mu    sync.Mutex
	seq   int
	sinks []sink[T]
	err   error
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

func (s *Subject[T]) Subscribe(onNext func(T), onError func(error)) Subscription {
	return Func[T](func(next func(T), fail func(error)) func() {
		s.mu.Lock()
		if s.err != nil {
			err := s.err
			s.mu.Unlock()
			fail(err)
			return nil
		}
		id := s.seq
		s.seq++
		s.sinks = append(s.sinks, sink[T]{id: id, next: next, fail: fail})
		s.mu.Unlock()

		return func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, k := range s.sinks {
				if k.id == id {
					s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
					return
				}
			}
		}
	}).Subscribe(onNext, onError)
}

func (s *Subject[T]) Next(v T) {
	for _, k := range s.snapshot() {
		k.next(v)
	}
}

// Error terminates current subscribers and every later one.
func (s *Subject[T]) Error(err error) {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = err
	sinks := s.sinks
	s.sinks = nil
	s.mu.Unlock()

	for _, k := range sinks {
		k.fail(err)
	}
}

// Observers returns the number of live subscribers.
func (s *Subject[T]) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinks)
}

func (s *Subject[T]) snapshot() []sink[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sink[T], len(s.sinks))
	copy(out, s.sinks)
	return out
}
