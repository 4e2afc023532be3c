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

package competition

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

type watcher struct {
	clock    clockwork.Clock
	c        observer.Competition
	onChange func(Status)

	mu      sync.Mutex
	timer   clockwork.Timer
	stopped bool
}

// Watch calls onChange every time the clock crosses one of the competition
// boundaries. The timer for the next boundary is armed before onChange runs.
// The returned function stops watching.
func Watch(clock clockwork.Clock, c observer.Competition, onChange func(Status)) (stop func()) {
	w := &watcher{clock: clock, c: c, onChange: onChange}
	w.schedule(Compute(c, clock.Now()))
	return w.stop
}

func (w *watcher) schedule(s Status) {
	next, ok := s.NextBoundary()
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.timer = w.clock.AfterFunc(next.Sub(s.Now), w.fire)
}

func (w *watcher) fire() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	s := Compute(w.c, w.clock.Now())
	w.schedule(s)
	w.onChange(s)
}

func (w *watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Observe emits the current status on subscribe and again on every boundary
// crossing.
func Observe(clock clockwork.Clock, c observer.Competition) stream.Observable[Status] {
	return stream.Func[Status](func(next func(Status), _ func(error)) func() {
		next(Compute(c, clock.Now()))
		return Watch(clock, c, next)
	})
}
