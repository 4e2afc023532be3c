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

package configuration

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/internal/pkg/cycle"
)

type Configuration struct {
	Log      Log
	DB       DB
	Source   Source
	API      API
	Router   Router
	Profiles Profiles
	Actions  Actions
	Warmer   Warmer
}

type Log struct {
	Level string
	// text or json
	Format string
}

type DB struct {
	URL      string
	PoolSize int
	Attempts cycle.Limit
	// Interval between failed query attempts
	AttemptInterval time.Duration
}

// Source configures the indexer-backed entity streams.
type Source struct {
	PollInterval time.Duration
	// Number of query snapshots kept for cache-only reads
	SnapshotCacheSize int
	// GEN token contract, stakes and bounties are paid in it
	GENToken string
}

type API struct {
	Listen string
	// Max time a view waits for its first emission
	RenderTimeout time.Duration
	FeedLimit     int
}

// Router serves health check and metrics.
type Router struct {
	Listen string
}

type Profiles struct {
	URL     string
	Timeout time.Duration
}

type Actions struct {
	URL     string
	Timeout time.Duration
}

// Warmer periodically loads DAO members into the snapshot cache.
type Warmer struct {
	DAOs     []string
	Interval time.Duration
}

func Default() *Configuration {
	return &Configuration{
		Log: Log{
			Level:  logrus.DebugLevel.String(),
			Format: "text",
		},
		DB: DB{
			URL:             "postgres://postgres@localhost/postgres?sslmode=disable",
			PoolSize:        100,
			Attempts:        5,
			AttemptInterval: 3 * time.Second,
		},
		Source: Source{
			PollInterval:      5 * time.Second,
			SnapshotCacheSize: 10000,
			GENToken:          "0x543ff227f64aa17ea132bf9886cab5db55dcaddf",
		},
		API: API{
			Listen:        ":8080",
			RenderTimeout: 10 * time.Second,
			FeedLimit:     50,
		},
		Router: Router{
			Listen: ":8888",
		},
		Profiles: Profiles{
			URL:     "http://localhost:8090",
			Timeout: 5 * time.Second,
		},
		Actions: Actions{
			URL:     "http://localhost:8091",
			Timeout: 30 * time.Second,
		},
		Warmer: Warmer{
			Interval: time.Minute,
		},
	}
}
