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


package profile

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/insolar/dao-observer/internal/app/observer"
)

type Loader interface {
	Load(ctx context.Context, address common.Address) (observer.Profile, error)
}

// Cache keeps the first successful load of every address for its whole
// lifetime. Concurrent first loads of one address share a single loader call.
type Cache struct {
	loader Loader
	log    logrus.FieldLogger

	mu       sync.RWMutex
	profiles map[common.Address]observer.Profile
	group    singleflight.Group
}

func NewCache(loader Loader, log logrus.FieldLogger) *Cache {
	return &Cache{
		loader:   loader,
		log:      log.WithField("component", "profiles"),
		profiles: make(map[common.Address]observer.Profile),
	}
}

// Peek returns the cached profile without loading it.
func (c *Cache) Peek(address common.Address) (observer.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[address]
	return p, ok
}

func (c *Cache) Get(ctx context.Context, address common.Address) (observer.Profile, error) {
	if p, ok := c.Peek(address); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(address.Hex(), func() (interface{}, error) {
		if p, ok := c.Peek(address); ok {
			return p, nil
		}
		p, err := c.loader.Load(ctx, address)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.profiles[address] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return observer.Profile{}, errors.Wrapf(err, "failed to load profile %s", address.Hex())
	}
	return v.(observer.Profile), nil
}

// Prefetch loads the missing profiles in the background. The returned
// channel is closed once all of them finished.
func (c *Cache) Prefetch(ctx context.Context, addresses ...common.Address) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, address := range addresses {
		if _, ok := c.Peek(address); ok {
			continue
		}
		wg.Add(1)
		go func(address common.Address) {
			defer wg.Done()
			if _, err := c.Get(ctx, address); err != nil {
				c.log.WithError(err).Warn("profile prefetch failed")
			}
		}(address)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}
