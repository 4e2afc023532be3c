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
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-pg/pg"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

// EthToken is the token column value of ether balances.
const EthToken = "eth"

func daoKey(dao common.Address) string {
	return "dao:" + hexAddress(dao)
}

func memberKey(dao, address common.Address) string {
	return "member:" + hexAddress(dao) + ":" + hexAddress(address)
}

func (s *Source) DAO(address common.Address) stream.Observable[observer.DAO] {
	return observe(s, daoKey(address), live, func(ctx context.Context) (observer.DAO, error) {
		row := &DAOSchema{}
		_, err := s.db.QueryOneContext(ctx, row,
			"SELECT address, name, reputation_total_supply, member_count FROM daos WHERE address = ?",
			hexAddress(address))
		if err == pg.ErrNoRows {
			return observer.DAO{}, errors.Wrapf(ErrNotFound, "dao %s", address.Hex())
		}
		if err != nil {
			return observer.DAO{}, errors.Wrap(err, "failed to select dao")
		}
		return daoModel(row)
	})
}

func (s *Source) Member(dao, address common.Address, opts observer.QueryOptions) stream.Observable[*observer.Member] {
	return observe(s, memberKey(dao, address), opts, func(ctx context.Context) (*observer.Member, error) {
		var rows []MemberSchema
		_, err := s.db.QueryContext(ctx, &rows,
			"SELECT dao, address, reputation FROM members WHERE dao = ? AND address = ?",
			hexAddress(dao), hexAddress(address))
		if err != nil {
			return nil, errors.Wrap(err, "failed to select member")
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return memberModel(&rows[0])
	})
}

// WarmMembers reads all members of a DAO into the snapshot cache so
// cache-only member lookups resolve.
func (s *Source) WarmMembers(ctx context.Context, dao common.Address) (int, error) {
	var rows []MemberSchema
	_, err := s.db.QueryContext(ctx, &rows,
		"SELECT dao, address, reputation FROM members WHERE dao = ?",
		hexAddress(dao))
	if err != nil {
		s.metrics.Errors.Inc()
		return 0, errors.Wrapf(err, "failed to select members of dao %s", dao.Hex())
	}
	for i := range rows {
		m, err := memberModel(&rows[i])
		if err != nil {
			return i, err
		}
		s.cache.Put(memberKey(m.DAO, m.Address), m)
	}
	return len(rows), nil
}

const proposalColumns = `id, dao, proposer, title, description, tags, stage, winning_outcome,
	executed_at, closing_at, upstake_needed_to_pre_boost, down_stake_needed_to_queue,
	cr_beneficiary, cr_eth_reward, cr_native_token_reward, cr_reputation_reward,
	cr_external_token_reward, cr_external_token, cr_periods, cr_redeemed_eth_periods,
	cr_redeemed_native_token_periods, cr_redeemed_reputation_periods, cr_redeemed_external_token_periods,
	competition_start_time, competition_submissions_end_time, competition_voting_start_time,
	competition_end_time, competition_number_of_winners, competition_votes_per_voter,
	competition_reward_split`

func (s *Source) Proposal(id string) stream.Observable[observer.Proposal] {
	return observe(s, "proposal:"+id, live, func(ctx context.Context) (observer.Proposal, error) {
		row := &ProposalSchema{}
		_, err := s.db.QueryOneContext(ctx, row,
			"SELECT "+proposalColumns+" FROM proposals WHERE id = ?", id)
		if err == pg.ErrNoRows {
			return observer.Proposal{}, errors.Wrapf(ErrNotFound, "proposal %s", id)
		}
		if err != nil {
			return observer.Proposal{}, errors.Wrap(err, "failed to select proposal")
		}
		return proposalModel(row)
	})
}

func (s *Source) Rewards(proposalID string, beneficiary common.Address) stream.Observable[*observer.GPReward] {
	key := "rewards:" + proposalID + ":" + hexAddress(beneficiary)
	return observe(s, key, live, func(ctx context.Context) (*observer.GPReward, error) {
		var rows []GPRewardSchema
		_, err := s.db.QueryContext(ctx, &rows,
			`SELECT id, proposal_id, beneficiary, reputation_for_voter, reputation_for_proposer,
				tokens_for_staker, dao_bounty_for_staker, reputation_for_voter_redeemed,
				reputation_for_proposer_redeemed, tokens_for_staker_redeemed, dao_bounty_for_staker_redeemed
			FROM gp_rewards WHERE proposal_id = ? AND beneficiary = ?`,
			proposalID, hexAddress(beneficiary))
		if err != nil {
			return nil, errors.Wrap(err, "failed to select rewards")
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rewardModel(&rows[0])
	})
}

var submissionFilters = map[string]string{
	"id":        "id",
	"proposal":  "proposal_id",
	"suggester": "suggester",
}

// where renders the supported filters in a stable order.
func where(filters map[string]interface{}) (string, []interface{}, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	params := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		column, ok := submissionFilters[k]
		if !ok {
			return "", nil, errors.Wrapf(ErrUnknownFilter, "filter %q", k)
		}
		conds = append(conds, column+" = ?")
		v := filters[k]
		if a, ok := v.(common.Address); ok {
			v = hexAddress(a)
		}
		params = append(params, v)
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), params, nil
}

func submissionsKey(opts observer.QueryOptions) string {
	keys := make([]string, 0, len(opts.Where))
	for k := range opts.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("submissions:")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, opts.Where[k])
	}
	if opts.FetchAllData {
		b.WriteString("all")
	}
	return b.String()
}

func (s *Source) Submissions(opts observer.QueryOptions) stream.Observable[[]observer.Submission] {
	cond, params, err := where(opts.Where)
	if err != nil {
		return stream.Fail[[]observer.Submission](err)
	}
	description := "'' AS description"
	if opts.FetchAllData {
		description = "description"
	}
	query := "SELECT id, proposal_id, suggester, title, " + description +
		", total_votes, created_at FROM submissions" + cond + " ORDER BY created_at, id"

	return observe(s, submissionsKey(opts), opts, func(ctx context.Context) ([]observer.Submission, error) {
		var rows []SubmissionSchema
		if _, err := s.db.QueryContext(ctx, &rows, query, params...); err != nil {
			return nil, errors.Wrap(err, "failed to select submissions")
		}
		subs := make([]observer.Submission, 0, len(rows))
		for i := range rows {
			sub, err := submissionModel(&rows[i])
			if err != nil {
				return nil, err
			}
			subs = append(subs, sub)
		}
		return subs, nil
	})
}

func (s *Source) VoterHasVoted(submissionID string, voter common.Address, opts observer.QueryOptions) stream.Observable[bool] {
	key := "voted:" + submissionID + ":" + hexAddress(voter)
	return observe(s, key, opts, func(ctx context.Context) (bool, error) {
		row := &countRow{}
		_, err := s.db.QueryOneContext(ctx, row,
			"SELECT count(*) AS count FROM submission_votes WHERE submission_id = ? AND voter = ?",
			submissionID, hexAddress(voter))
		if err != nil {
			return false, errors.Wrap(err, "failed to count votes")
		}
		return row.Count > 0, nil
	})
}

func (s *Source) balance(token string, owner common.Address) stream.Observable[*big.Int] {
	key := "balance:" + token + ":" + hexAddress(owner)
	return observe(s, key, live, func(ctx context.Context) (*big.Int, error) {
		row := &balanceRow{}
		_, err := s.db.QueryOneContext(ctx, row,
			"SELECT balance FROM token_balances WHERE token = ? AND owner = ?",
			token, hexAddress(owner))
		if err == pg.ErrNoRows {
			return new(big.Int), nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to select balance")
		}
		return parseAmount(row.Balance)
	})
}

func (s *Source) TokenBalance(token, owner common.Address) stream.Observable[*big.Int] {
	return s.balance(hexAddress(token), owner)
}

func (s *Source) EthBalance(owner common.Address) stream.Observable[*big.Int] {
	return s.balance(EthToken, owner)
}

func (s *Source) Events(dao common.Address, limit int) stream.Observable[[]observer.Event] {
	key := fmt.Sprintf("events:%s:%d", hexAddress(dao), limit)
	return observe(s, key, live, func(ctx context.Context) ([]observer.Event, error) {
		var rows []EventSchema
		_, err := s.db.QueryContext(ctx, &rows,
			"SELECT id, dao, proposal_id, type, data, timestamp FROM events WHERE dao = ? ORDER BY timestamp DESC, id LIMIT ?",
			hexAddress(dao), limit)
		if err != nil {
			return nil, errors.Wrap(err, "failed to select events")
		}
		events := make([]observer.Event, 0, len(rows))
		for i := range rows {
			events = append(events, eventModel(&rows[i]))
		}
		return events, nil
	})
}
