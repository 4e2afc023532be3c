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

package binder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/pkg/stream"
	"github.com/insolar/dao-observer/observability"
)

type testProps struct {
	ID    string
	Page  int
	Ref   *int
	Items []string
}

// rawSource keeps delivering through callbacks of released subscriptions, so
// only the binder's epoch guard protects the state.
type rawSource struct {
	mu         sync.Mutex
	subscribes []testProps
	teardowns  int
	nexts      []func(string)
	fails      []func(error)
}

type rawSubscription struct {
	src  *rawSource
	once sync.Once
}

func (s *rawSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.src.mu.Lock()
		s.src.teardowns++
		s.src.mu.Unlock()
	})
}

type rawObservable struct {
	src   *rawSource
	props testProps
}

func (o rawObservable) Subscribe(onNext func(string), onError func(error)) stream.Subscription {
	o.src.mu.Lock()
	o.src.subscribes = append(o.src.subscribes, o.props)
	o.src.nexts = append(o.src.nexts, onNext)
	o.src.fails = append(o.src.fails, onError)
	o.src.mu.Unlock()
	return &rawSubscription{src: o.src}
}

func (s *rawSource) create(p testProps) stream.Observable[string] {
	return rawObservable{src: s, props: p}
}

func (s *rawSource) emit(i int, v string) {
	s.mu.Lock()
	next := s.nexts[i]
	s.mu.Unlock()
	next(v)
}

func (s *rawSource) fail(i int, err error) {
	s.mu.Lock()
	fail := s.fails[i]
	s.mu.Unlock()
	fail(err)
}

func (s *rawSource) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribes), s.teardowns
}

func newTestBinder(src *rawSource, check UpdateCheck[testProps]) *Binder[testProps, string, string] {
	obs := observability.Make(configuration.Default())
	return New(obs, Config[testProps, string, string]{
		Name:             "test",
		CreateObservable: src.create,
		CheckForUpdate:   check,
		Wrapped: func(p Props[testProps, string]) string {
			return fmt.Sprintf("%s:%s", p.External.ID, *p.Data)
		},
		Loading: func(testProps) string { return "loading" },
		Error:   func(_ testProps, err error) string { return "error: " + err.Error() },
	})
}

func byID() UpdateCheck[testProps] {
	return CheckFunc[testProps](func(o, n testProps) bool { return o.ID != n.ID })
}

func TestBinder_Emissions(t *testing.T) {
	src := &rawSource{}
	b := newTestBinder(src, byID())

	b.Mount(testProps{ID: "a"})
	require.Equal(t, Loading, b.State().Phase)
	require.True(t, b.Props().IsLoading)
	require.Nil(t, b.Props().Data)
	require.Equal(t, "loading", b.Render())

	src.emit(0, "v1")
	require.False(t, b.Props().IsLoading)
	require.Equal(t, "v1", *b.Props().Data)

	src.emit(0, "v2")
	props := b.Props()
	require.Equal(t, "v2", *props.Data)
	require.False(t, props.IsLoading)
	require.NoError(t, props.Error)
	require.Equal(t, "a:v2", b.Render())
}

func TestBinder_Update(t *testing.T) {
	t.Run("check false keeps subscription", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, byID())
		b.Mount(testProps{ID: "a", Page: 1})
		src.emit(0, "v1")

		resubscribed := b.Update(testProps{ID: "a", Page: 2})
		require.False(t, resubscribed)

		subscribes, teardowns := src.counts()
		require.Equal(t, 1, subscribes)
		require.Equal(t, 0, teardowns)
		require.Equal(t, "v1", *b.Props().Data)
		require.Equal(t, 2, b.Props().External.Page, "props are passed through")
	})

	t.Run("check true resubscribes once", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, byID())
		b.Mount(testProps{ID: "a"})
		src.emit(0, "v1")
		epoch := b.State().Epoch

		resubscribed := b.Update(testProps{ID: "b"})
		require.True(t, resubscribed)

		subscribes, teardowns := src.counts()
		require.Equal(t, 2, subscribes)
		require.Equal(t, 1, teardowns)
		require.Equal(t, "b", src.subscribes[1].ID)
		require.True(t, b.Props().IsLoading, "loading before the new stream emits")
		require.Nil(t, b.Props().Data, "previous value is discarded")
		require.True(t, b.State().Epoch > epoch)

		src.emit(1, "v2")
		require.Equal(t, "b:v2", b.Render())
	})

	t.Run("stale subscription cannot change state", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, byID())
		b.Mount(testProps{ID: "a"})
		b.Update(testProps{ID: "b"})

		src.emit(0, "stale")
		src.fail(0, errors.New("stale error"))
		require.Equal(t, Loading, b.State().Phase)

		src.emit(1, "fresh")
		require.Equal(t, "fresh", *b.Props().Data)
	})

	t.Run("function check is authoritative", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, CheckFunc[testProps](func(testProps, testProps) bool { return false }))
		b.Mount(testProps{ID: "a"})
		b.Update(testProps{ID: "b"})

		subscribes, teardowns := src.counts()
		require.Equal(t, 1, subscribes)
		require.Equal(t, 0, teardowns)
	})

	t.Run("before mount", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, byID())
		require.False(t, b.Update(testProps{ID: "x"}))

		subscribes, _ := src.counts()
		require.Equal(t, 0, subscribes)
	})
}

func TestBinder_Unmount(t *testing.T) {
	states := map[string]func(src *rawSource){
		"loading": func(*rawSource) {},
		"ready":   func(src *rawSource) { src.emit(0, "v") },
		"failed":  func(src *rawSource) { src.fail(0, errors.New("down")) },
	}

	for name, prepare := range states {
		prepare := prepare
		t.Run(name, func(t *testing.T) {
			src := &rawSource{}
			b := newTestBinder(src, byID())
			b.Mount(testProps{ID: "a"})
			prepare(src)

			b.Unmount()
			b.Unmount()

			_, teardowns := src.counts()
			require.Equal(t, 1, teardowns)
			require.Equal(t, Idle, b.State().Phase)

			src.emit(0, "late")
			require.Equal(t, Idle, b.State().Phase)
		})
	}
}

func TestBinder_Failure(t *testing.T) {
	src := &rawSource{}
	b := newTestBinder(src, byID())
	b.Mount(testProps{ID: "a"})
	src.emit(0, "v1")
	src.fail(0, errors.New("query rejected"))

	st := b.State()
	require.Equal(t, Failed, st.Phase)
	require.EqualError(t, st.Err, "query rejected")
	require.Equal(t, "error: query rejected", b.Render())
	require.Nil(t, b.Props().Data)

	src.emit(0, "after error")
	require.Equal(t, Failed, b.State().Phase, "terminated stream is not revived")

	subscribes, _ := src.counts()
	require.Equal(t, 1, subscribes, "errors are not retried")

	t.Run("recovers on resubscribe", func(t *testing.T) {
		b.Update(testProps{ID: "b"})
		src.emit(1, "ok")
		require.Equal(t, Ready, b.State().Phase)
		require.NoError(t, b.Props().Error)
	})

	t.Run("recovers on remount", func(t *testing.T) {
		b.Unmount()
		b.Mount(testProps{ID: "c"})
		src.emit(2, "again")
		require.Equal(t, "c:again", b.Render())
	})
}

func TestBinder_SynchronousSource(t *testing.T) {
	obs := observability.Make(configuration.Default())
	teardowns := 0
	b := New(obs, Config[testProps, string, string]{
		Name: "sync",
		CreateObservable: func(p testProps) stream.Observable[string] {
			return stream.Func[string](func(next func(string), _ func(error)) func() {
				next("now:" + p.ID)
				return func() { teardowns++ }
			})
		},
		Wrapped: func(p Props[testProps, string]) string { return *p.Data },
	})

	b.Mount(testProps{ID: "a"})
	require.Equal(t, "now:a", b.Render())

	b.Unmount()
	require.Equal(t, 1, teardowns)
	require.Equal(t, "", b.Render(), "no loading placeholder configured")
}

func TestBinder_Await(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, byID())
		b.Mount(testProps{ID: "a"})

		go src.emit(0, "v")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		phase, err := b.Await(ctx)
		require.NoError(t, err)
		require.Equal(t, Ready, phase)
	})

	t.Run("never emits", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, byID())
		b.Mount(testProps{ID: "a"})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		phase, err := b.Await(ctx)
		require.Equal(t, context.DeadlineExceeded, err)
		require.Equal(t, Loading, phase)
	})
}

func TestPropNames(t *testing.T) {
	one, two := 1, 1
	base := testProps{ID: "a", Page: 1, Ref: &one, Items: []string{"x"}}

	t.Run("named field changed", func(t *testing.T) {
		next := base
		next.ID = "b"
		assert.True(t, PropNames[testProps]{"ID"}.NeedsUpdate(base, next))
	})

	t.Run("other field changed", func(t *testing.T) {
		next := base
		next.Page = 2
		assert.False(t, PropNames[testProps]{"ID"}.NeedsUpdate(base, next))
	})

	t.Run("empty list", func(t *testing.T) {
		assert.False(t, PropNames[testProps]{}.NeedsUpdate(base, testProps{ID: "z"}))
	})

	t.Run("pointer identity", func(t *testing.T) {
		next := base
		next.Ref = &two
		assert.True(t, PropNames[testProps]{"Ref"}.NeedsUpdate(base, next), "equal contents behind another pointer")
		assert.False(t, PropNames[testProps]{"Ref"}.NeedsUpdate(base, base))
	})

	t.Run("slice identity", func(t *testing.T) {
		next := base
		next.Items = []string{"x"}
		assert.True(t, PropNames[testProps]{"Items"}.NeedsUpdate(base, next))
		assert.False(t, PropNames[testProps]{"Items"}.NeedsUpdate(base, base))
	})

	t.Run("unknown name", func(t *testing.T) {
		assert.False(t, PropNames[testProps]{"Missing"}.NeedsUpdate(base, testProps{}))
	})

	t.Run("rejected names", func(t *testing.T) {
		type hidden struct {
			ID    string
			inner int
		}
		require.Panics(t, func() { newTestBinder(&rawSource{}, PropNames[testProps]{"ID", "Typo"}) })
		require.Panics(t, func() {
			New(observability.Make(configuration.Default()), Config[hidden, string, string]{
				Name:           "hidden",
				CheckForUpdate: PropNames[hidden]{"inner"},
			})
		})
		require.NotPanics(t, func() { newTestBinder(&rawSource{}, PropNames[testProps]{"ID", "Items"}) })
		require.NotPanics(t, func() {
			New(observability.Make(configuration.Default()), Config[*testProps, string, string]{
				CheckForUpdate: PropNames[*testProps]{"Page"},
			})
		})
	})

	t.Run("maps", func(t *testing.T) {
		check := PropNames[map[string]interface{}]{"event"}
		ev := &struct{}{}
		assert.False(t, check.NeedsUpdate(map[string]interface{}{"event": ev, "x": 1}, map[string]interface{}{"event": ev}))
		assert.True(t, check.NeedsUpdate(map[string]interface{}{"event": ev}, map[string]interface{}{"event": &struct{ A int }{}}))
	})

	t.Run("drives the binder", func(t *testing.T) {
		src := &rawSource{}
		b := newTestBinder(src, PropNames[testProps]{"ID"})
		b.Mount(base)

		next := base
		next.Page = 5
		require.False(t, b.Update(next))
		next.ID = "other"
		require.True(t, b.Update(next))

		subscribes, teardowns := src.counts()
		require.Equal(t, 2, subscribes)
		require.Equal(t, 1, teardowns)
	})
}
