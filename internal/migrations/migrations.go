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


// Package migrations holds the indexer schema read by the data source.
package migrations

import (
	"github.com/go-pg/migrations"
	"github.com/pkg/errors"
)

var initialUp = []string{
	`CREATE TABLE daos (
		address                 TEXT PRIMARY KEY,
		name                    TEXT NOT NULL,
		reputation_total_supply NUMERIC(78, 0) NOT NULL DEFAULT 0,
		member_count            INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE members (
		dao        TEXT NOT NULL REFERENCES daos (address),
		address    TEXT NOT NULL,
		reputation NUMERIC(78, 0) NOT NULL DEFAULT 0,
		PRIMARY KEY (dao, address)
	)`,
	`CREATE TABLE proposals (
		id                                 TEXT PRIMARY KEY,
		dao                                TEXT NOT NULL REFERENCES daos (address),
		proposer                           TEXT NOT NULL,
		title                              TEXT,
		description                        TEXT,
		tags                               TEXT[],
		stage                              TEXT NOT NULL,
		winning_outcome                    TEXT,
		executed_at                        TIMESTAMPTZ,
		closing_at                         TIMESTAMPTZ,
		upstake_needed_to_pre_boost        NUMERIC(78, 0),
		down_stake_needed_to_queue         NUMERIC(78, 0),
		cr_beneficiary                     TEXT,
		cr_eth_reward                      NUMERIC(78, 0),
		cr_native_token_reward             NUMERIC(78, 0),
		cr_reputation_reward               NUMERIC(78, 0),
		cr_external_token_reward           NUMERIC(78, 0),
		cr_external_token                  TEXT,
		cr_periods                         INTEGER NOT NULL DEFAULT 0,
		cr_redeemed_eth_periods            INTEGER NOT NULL DEFAULT 0,
		cr_redeemed_native_token_periods   INTEGER NOT NULL DEFAULT 0,
		cr_redeemed_reputation_periods     INTEGER NOT NULL DEFAULT 0,
		cr_redeemed_external_token_periods INTEGER NOT NULL DEFAULT 0,
		competition_start_time             TIMESTAMPTZ,
		competition_submissions_end_time   TIMESTAMPTZ,
		competition_voting_start_time      TIMESTAMPTZ,
		competition_end_time               TIMESTAMPTZ,
		competition_number_of_winners      INTEGER NOT NULL DEFAULT 0,
		competition_votes_per_voter        INTEGER NOT NULL DEFAULT 0,
		competition_reward_split           INTEGER[]
	)`,
	`CREATE TABLE gp_rewards (
		id                               TEXT PRIMARY KEY,
		proposal_id                      TEXT NOT NULL REFERENCES proposals (id),
		beneficiary                      TEXT NOT NULL,
		reputation_for_voter             NUMERIC(78, 0),
		reputation_for_proposer          NUMERIC(78, 0),
		tokens_for_staker                NUMERIC(78, 0),
		dao_bounty_for_staker            NUMERIC(78, 0),
		reputation_for_voter_redeemed    BOOLEAN NOT NULL DEFAULT FALSE,
		reputation_for_proposer_redeemed BOOLEAN NOT NULL DEFAULT FALSE,
		tokens_for_staker_redeemed       BOOLEAN NOT NULL DEFAULT FALSE,
		dao_bounty_for_staker_redeemed   BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE submissions (
		id          TEXT PRIMARY KEY,
		proposal_id TEXT NOT NULL REFERENCES proposals (id),
		suggester   TEXT NOT NULL,
		title       TEXT,
		description TEXT,
		total_votes NUMERIC(78, 0) NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE submission_votes (
		submission_id TEXT NOT NULL REFERENCES submissions (id),
		voter         TEXT NOT NULL,
		PRIMARY KEY (submission_id, voter)
	)`,
	`CREATE TABLE token_balances (
		token   TEXT NOT NULL,
		owner   TEXT NOT NULL,
		balance NUMERIC(78, 0) NOT NULL DEFAULT 0,
		PRIMARY KEY (token, owner)
	)`,
	`CREATE TABLE events (
		id          TEXT PRIMARY KEY,
		dao         TEXT NOT NULL REFERENCES daos (address),
		proposal_id TEXT,
		type        TEXT NOT NULL,
		data        JSONB NOT NULL DEFAULT '{}',
		timestamp   TIMESTAMPTZ NOT NULL
	)`,
}

var initialDown = []string{
	`DROP TABLE events`,
	`DROP TABLE token_balances`,
	`DROP TABLE submission_votes`,
	`DROP TABLE submissions`,
	`DROP TABLE gp_rewards`,
	`DROP TABLE proposals`,
	`DROP TABLE members`,
	`DROP TABLE daos`,
}

var indexesUp = []string{
	`CREATE INDEX idx_submissions_proposal ON submissions (proposal_id, created_at)`,
	`CREATE INDEX idx_gp_rewards_proposal_beneficiary ON gp_rewards (proposal_id, beneficiary)`,
	`CREATE INDEX idx_events_dao_timestamp ON events (dao, timestamp DESC)`,
}

var indexesDown = []string{
	`DROP INDEX idx_events_dao_timestamp`,
	`DROP INDEX idx_gp_rewards_proposal_beneficiary`,
	`DROP INDEX idx_submissions_proposal`,
}

// Tables lists the schema tables in dependency order.
var Tables = []string{
	"daos", "members", "proposals", "gp_rewards", "submissions", "submission_votes", "token_balances", "events",
}

func exec(queries []string) func(migrations.DB) error {
	return func(db migrations.DB) error {
		for _, q := range queries {
			if _, err := db.Exec(q); err != nil {
				return errors.Wrapf(err, "failed to exec %.40q", q)
			}
		}
		return nil
	}
}

func Collection() *migrations.Collection {
	return migrations.NewCollection(
		&migrations.Migration{
			Version: 1,
			UpTx:    true,
			Up:      exec(initialUp),
			DownTx:  true,
			Down:    exec(initialDown),
		},
		&migrations.Migration{
			Version: 2,
			UpTx:    true,
			Up:      exec(indexesUp),
			DownTx:  true,
			Down:    exec(indexesDown),
		},
	)
}

// Run optionally creates the migrations table and then runs the command
// ("up" when none given).
func Run(db migrations.DB, init bool, command ...string) (oldVersion, newVersion int64, err error) {
	c := Collection()
	if init {
		if _, _, err := c.Run(db, "init"); err != nil {
			return 0, 0, errors.Wrap(err, "could not init migrations")
		}
	}
	if len(command) == 0 {
		command = []string{"up"}
	}
	oldVersion, newVersion, err = c.Run(db, command...)
	if err != nil {
		return oldVersion, newVersion, errors.Wrap(err, "could not migrate")
	}
	return oldVersion, newVersion, nil
}
