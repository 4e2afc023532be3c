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


package dbconn

import (
	"context"

	"github.com/go-pg/pg"
	"github.com/go-pg/pg/orm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/pkg/cycle"
)

func Connect(cfg configuration.DB) (*pg.DB, error) {
	opt, err := pg.ParseURL(cfg.URL)
	if err != nil {
		// url.Parse keeps the password in its error, so it is not wrapped.
		return nil, errors.New("failed to parse cfg.DB.URL")
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	return pg.Connect(opt), nil
}

// Execer is the part of *pg.DB needed to check the connection.
type Execer interface {
	ExecContext(ctx context.Context, query interface{}, params ...interface{}) (orm.Result, error)
}

func Ping(ctx context.Context, db Execer) error {
	_, err := db.ExecContext(ctx, "SELECT 1")
	return err
}

// Wait blocks until the database answers. Connection errors are retried
// cfg.Attempts times, cfg.AttemptInterval apart.
func Wait(ctx context.Context, db Execer, cfg configuration.DB, log logrus.FieldLogger) error {
	err := cycle.UntilConnectionError(ctx, func() error {
		return Ping(ctx, db)
	}, cfg.AttemptInterval, cfg.Attempts, log)
	return errors.Wrap(err, "database is unavailable")
}
