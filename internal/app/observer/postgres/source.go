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


package postgres

import (
	"context"
	"reflect"
	"time"

	"github.com/go-pg/pg/orm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/pkg/cycle"
	"github.com/insolar/dao-observer/internal/pkg/stream"
	"github.com/insolar/dao-observer/observability"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrUnknownFilter = errors.New("unknown filter")
)

// Source turns indexer queries into entity streams. A subscribed stream
// re-runs its query every poll interval and emits when the result changed.
type Source struct {
	log     logrus.FieldLogger
	db      orm.DB
	cache   *SnapshotCache
	metrics *observability.SourceMetrics

	pollInterval    time.Duration
	attempts        cycle.Limit
	attemptInterval time.Duration
}

var _ observer.Source = (*Source)(nil)

func NewSource(cfg *configuration.Configuration, obs *observability.Observability, db orm.DB) (*Source, error) {
	metrics := observability.MakeSourceMetrics(obs, "postgres")
	cache, err := NewSnapshotCache(cfg.Source.SnapshotCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	interval := cfg.Source.PollInterval
	if interval <= 0 {
		interval = configuration.Default().Source.PollInterval
	}
	return &Source{
		log:             obs.Log().WithField("component", "source"),
		db:              db,
		cache:           cache,
		metrics:         metrics,
		pollInterval:    interval,
		attempts:        cfg.DB.Attempts,
		attemptInterval: cfg.DB.AttemptInterval,
	}, nil
}

func (s *Source) Cache() *SnapshotCache {
	return s.cache
}

func observe[T any](s *Source, key string, opts observer.QueryOptions, fetch func(ctx context.Context) (T, error)) stream.Observable[T] {
	log := s.log.WithField("query", key)
	return stream.Func[T](func(next func(T), fail func(error)) func() {
		if opts.FetchPolicy == observer.FetchCacheOnly {
			v, ok := cached[T](s.cache, key)
			if !ok {
				log.Warn("nothing cached for cache-only query")
			}
			next(v)
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		go poll(ctx, s, log, key, opts.Subscribe, fetch, next, fail)
		return cancel
	})
}

func poll[T any](
	ctx context.Context,
	s *Source,
	log logrus.FieldLogger,
	key string,
	subscribe bool,
	fetch func(ctx context.Context) (T, error),
	next func(T),
	fail func(error),
) {
	var (
		last    T
		emitted bool
	)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		var v T
		err := cycle.UntilConnectionError(ctx, func() error {
			s.metrics.Queries.Inc()
			var err error
			v, err = fetch(ctx)
			return err
		}, s.attemptInterval, s.attempts, log)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.metrics.Errors.Inc()
			log.WithError(err).Error("query failed")
			fail(err)
			return
		}

		s.cache.Put(key, v)
		if !emitted || !reflect.DeepEqual(last, v) {
			last, emitted = v, true
			s.metrics.Emissions.Inc()
			next(v)
		}
		if !subscribe {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// live is the options used by streams that always follow updates.
var live = observer.QueryOptions{Subscribe: true}
