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
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/connectivity"
	"github.com/insolar/dao-observer/internal/app/api"
	"github.com/insolar/dao-observer/internal/app/observer/postgres"
	"github.com/insolar/dao-observer/internal/app/profile"
	"github.com/insolar/dao-observer/internal/app/views"
	"github.com/insolar/dao-observer/internal/dbconn"
	"github.com/insolar/dao-observer/observability"
)

type Manager struct {
	stopSignal chan bool
	stopped    chan struct{}

	cfg  *configuration.Configuration
	log  logrus.FieldLogger
	warm func(ctx context.Context)
	stop func()

	router *Router
	api    *echo.Echo
}

func Prepare() *Manager {
	cfg := configuration.Load()
	obs := observability.Make(cfg)
	conn := connectivity.Make(cfg, obs)
	log := obs.Log()
	if err := dbconn.Wait(context.Background(), conn.PG(), cfg.DB, log); err != nil {
		log.Fatal(err.Error())
	}

	source, err := postgres.NewSource(cfg, obs, conn.PG())
	if err != nil {
		log.Fatal(err.Error())
	}
	clock := clockwork.NewRealClock()
	profiles := profile.NewCache(conn.Profiles(), log)
	v := views.New(cfg, obs, source, profiles, clock)
	e := api.New(api.NewObserverServer(cfg.API, log, source, v, conn.Relay(), clock))

	router := NewRouter(cfg, obs, func(ctx context.Context) error {
		return dbconn.Ping(ctx, conn.PG())
	})
	return &Manager{
		stopSignal: make(chan bool, 1),
		stopped:    make(chan struct{}),
		cfg:        cfg,
		log:        log,
		warm:       makeWarmer(cfg, obs, source),
		stop:       makeStopper(obs, conn, router, e),
		router:     router,
		api:        e,
	}
}

func (m *Manager) Start() {
	m.router.Start()
	go func() {
		err := m.api.Start(m.cfg.API.Listen)
		if err != http.ErrServerClosed {
			m.log.Error(errors.Wrapf(err, "api server Start"))
		}
	}()

	go func() {
		defer close(m.stopped)
		defer m.stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		for {
			m.warm(ctx)
			if m.sleep(m.cfg.Warmer.Interval) {
				return
			}
		}
	}()
}

// Stop blocks until the servers are shut down and the db is closed.
func (m *Manager) Stop() {
	m.stopSignal <- true
	<-m.stopped
}

// sleep waits for d and reports whether a stop was requested meanwhile.
func (m *Manager) sleep(d time.Duration) bool {
	if d <= 0 {
		d = configuration.Default().Warmer.Interval
	}
	m.log.Debug("Sleep: ", d)
	select {
	case <-m.stopSignal:
		return true
	case <-time.After(d):
		return false
	}
}
