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


package component

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/observability"
)

// MemberWarmer loads every member of a DAO into the snapshot cache.
type MemberWarmer interface {
	WarmMembers(ctx context.Context, dao common.Address) (int, error)
}

// makeWarmer fills the snapshot cache for the configured DAOs so cache-only
// member lookups resolve.
func makeWarmer(cfg *configuration.Configuration, obs *observability.Observability, w MemberWarmer) func(ctx context.Context) {
	log := obs.Log().WithField("component", "warmer")
	warmed := obs.Gauge(prometheus.GaugeOpts{
		Name: "observer_warmer_members",
		Help: "Members loaded into the snapshot cache by the last warm up",
	})
	failures := obs.Counter(prometheus.CounterOpts{
		Name: "observer_warmer_failures_total",
		Help: "Number of DAOs the warmer failed to load",
	})

	daos := make([]common.Address, 0, len(cfg.Warmer.DAOs))
	for _, s := range cfg.Warmer.DAOs {
		if !common.IsHexAddress(s) {
			log.WithField("dao", s).Warn("skipping invalid dao address")
			continue
		}
		daos = append(daos, common.HexToAddress(s))
	}

	return func(ctx context.Context) {
		if len(daos) == 0 {
			return
		}
		start := time.Now()
		total := 0
		for _, dao := range daos {
			n, err := w.WarmMembers(ctx, dao)
			total += n
			if err != nil {
				failures.Inc()
				log.WithError(err).WithField("dao", dao.Hex()).Error("failed to warm members")
				continue
			}
		}
		warmed.Set(float64(total))
		log.WithField("members", total).Debugf("warm up took %s", time.Since(start))
	}
}
