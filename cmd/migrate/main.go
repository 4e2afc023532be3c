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


package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/dbconn"
	"github.com/insolar/dao-observer/internal/migrations"
)

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	doInit := flags.Bool("init", false, "perform db init (for empty db)")
	flags.String("db-url", "", "database url, overrides the config file")
	flags.Usage = func() {
		_, _ = os.Stderr.WriteString("usage: migrate [--init] [--db-url URL] [up|down|reset|version|set_version N]\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlag("db.url", flags.Lookup("db-url")); err != nil {
		logrus.Fatal(errors.Wrap(err, "failed to bind flags"))
	}
	cfg := configuration.LoadWith(v)
	if url := v.GetString("db.url"); url != "" {
		cfg.DB.URL = url
	}

	log := logrus.StandardLogger()
	db, err := dbconn.Connect(cfg.DB)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer db.Close()
	if err := dbconn.Wait(context.Background(), db, cfg.DB, log); err != nil {
		log.Fatal(err.Error())
	}

	oldVersion, newVersion, err := migrations.Run(db, *doInit, flags.Args()...)
	if err != nil {
		log.Fatal(errors.Wrap(err, "Could not migrate"))
	}
	log.WithFields(logrus.Fields{
		"from": oldVersion,
		"to":   newVersion,
	}).Info("migrated successfully!")
}
