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


package connectivity

import (
	"github.com/go-pg/pg"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/app/actions"
	"github.com/insolar/dao-observer/internal/app/profile"
	"github.com/insolar/dao-observer/internal/dbconn"
	"github.com/insolar/dao-observer/observability"
)

// Connectivity holds the clients of everything the service talks to.
type Connectivity struct {
	pg       *pg.DB
	profiles *profile.HTTPLoader
	relay    *actions.Relay
}

func Make(cfg *configuration.Configuration, obs *observability.Observability) *Connectivity {
	log := obs.Log()
	return &Connectivity{
		pg: func() *pg.DB {
			db, err := dbconn.Connect(cfg.DB)
			if err != nil {
				log.Fatal(err.Error())
			}
			return db
		}(),
		profiles: profile.NewHTTPLoader(cfg.Profiles),
		relay:    actions.NewRelay(cfg.Actions, log),
	}
}

func (c *Connectivity) PG() *pg.DB {
	return c.pg
}

func (c *Connectivity) Profiles() *profile.HTTPLoader {
	return c.profiles
}

func (c *Connectivity) Relay() *actions.Relay {
	return c.relay
}

func (c *Connectivity) Close() error {
	return c.pg.Close()
}
