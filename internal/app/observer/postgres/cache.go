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
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/observability"
)

// SnapshotCache keeps the last result of every query so cache-only lookups
// can be answered without touching the database.
type SnapshotCache struct {
	cache   *lru.Cache
	metrics *observability.SourceMetrics
}

func NewSnapshotCache(size int, metrics *observability.SourceMetrics) (*SnapshotCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init cache")
	}
	return &SnapshotCache{cache: cache, metrics: metrics}, nil
}

func (c *SnapshotCache) Put(key string, value interface{}) {
	_ = c.cache.Add(key, value)
}

func (c *SnapshotCache) Get(key string) (interface{}, bool) {
	val, ok := c.cache.Get(key)
	if !ok {
		c.metrics.Misses.Inc()
		return nil, false
	}
	c.metrics.Hits.Inc()
	return val, true
}

func (c *SnapshotCache) Len() int {
	return c.cache.Len()
}

// cached returns the snapshot stored under key if it holds a T.
func cached[T any](c *SnapshotCache, key string) (T, bool) {
	var zero T
	val, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := val.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
