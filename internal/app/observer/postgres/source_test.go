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
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-pg/pg"
	"github.com/go-pg/pg/orm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/pkg/stream"
	"github.com/insolar/dao-observer/observability"
)

var (
	daoAddr    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	memberAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func makeSource(t *testing.T, db orm.DB) *Source {
	cfg := configuration.Default()
	cfg.Source.PollInterval = time.Millisecond
	cfg.DB.Attempts = 3
	cfg.DB.AttemptInterval = time.Nanosecond
	obs := observability.Make(cfg)
	obs.Log().SetLevel(logrus.PanicLevel)

	s, err := NewSource(cfg, obs, db)
	require.NoError(t, err)
	return s
}

func first[T any](t *testing.T, src stream.Observable[T]) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return stream.First(ctx, src)
}

func noQueries(t *testing.T) *DBMock {
	fail := func(context.Context, interface{}, interface{}, ...interface{}) (orm.Result, error) {
		return nil, errors.New("unexpected query")
	}
	return &DBMock{query: fail, queryOne: fail}
}

func TestSource_DAO(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := noQueries(t)
		db.queryOne = func(_ context.Context, model, query interface{}, params ...interface{}) (orm.Result, error) {
			require.Equal(t, []interface{}{hexAddress(daoAddr)}, params)
			*model.(*DAOSchema) = DAOSchema{
				Address:               hexAddress(daoAddr),
				Name:                  "Genesis Alpha",
				ReputationTotalSupply: "1000",
				MemberCount:           7,
			}
			return makeResult(1), nil
		}

		dao, err := first(t, makeSource(t, db).DAO(daoAddr))
		require.NoError(t, err)
		require.Equal(t, observer.DAO{
			Address:               daoAddr,
			Name:                  "Genesis Alpha",
			ReputationTotalSupply: big.NewInt(1000),
			MemberCount:           7,
		}, dao)
	})

	t.Run("not found", func(t *testing.T) {
		db := noQueries(t)
		db.queryOne = func(context.Context, interface{}, interface{}, ...interface{}) (orm.Result, error) {
			return makeResult(0), pg.ErrNoRows
		}
		_, err := first(t, makeSource(t, db).DAO(daoAddr))
		require.Equal(t, ErrNotFound, errors.Cause(err))
	})

	t.Run("connection error is retried", func(t *testing.T) {
		var calls int32
		db := noQueries(t)
		db.queryOne = func(_ context.Context, model, _ interface{}, _ ...interface{}) (orm.Result, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, errors.New("dial tcp [::1]:5432: connect: connection refused")
			}
			*model.(*DAOSchema) = DAOSchema{Address: hexAddress(daoAddr), ReputationTotalSupply: "1"}
			return makeResult(1), nil
		}
		dao, err := first(t, makeSource(t, db).DAO(daoAddr))
		require.NoError(t, err)
		require.Equal(t, daoAddr, dao.Address)
		require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("bad amount fails the stream", func(t *testing.T) {
		db := noQueries(t)
		db.queryOne = func(_ context.Context, model, _ interface{}, _ ...interface{}) (orm.Result, error) {
			*model.(*DAOSchema) = DAOSchema{ReputationTotalSupply: "lots"}
			return makeResult(1), nil
		}
		_, err := first(t, makeSource(t, db).DAO(daoAddr))
		require.Error(t, err)
	})
}

func TestSource_Member(t *testing.T) {
	memberRows := func(rows ...MemberSchema) func(context.Context, interface{}, interface{}, ...interface{}) (orm.Result, error) {
		return func(_ context.Context, model, _ interface{}, _ ...interface{}) (orm.Result, error) {
			*model.(*[]MemberSchema) = rows
			return makeResult(len(rows)), nil
		}
	}

	t.Run("not a member", func(t *testing.T) {
		db := noQueries(t)
		db.query = memberRows()
		m, err := first(t, makeSource(t, db).Member(daoAddr, memberAddr, observer.QueryOptions{}))
		require.NoError(t, err)
		require.Nil(t, m)
	})

	t.Run("cache-only miss does not query", func(t *testing.T) {
		s := makeSource(t, noQueries(t))
		m, err := first(t, s.Member(daoAddr, memberAddr, observer.QueryOptions{FetchPolicy: observer.FetchCacheOnly}))
		require.NoError(t, err)
		require.Nil(t, m)
	})

	t.Run("cache-only hit after fetch", func(t *testing.T) {
		db := noQueries(t)
		db.query = memberRows(MemberSchema{DAO: hexAddress(daoAddr), Address: hexAddress(memberAddr), Reputation: "42"})
		s := makeSource(t, db)

		m, err := first(t, s.Member(daoAddr, memberAddr, observer.QueryOptions{}))
		require.NoError(t, err)
		require.Equal(t, big.NewInt(42), m.Reputation)

		db.query = noQueries(t).query
		cachedMember, err := first(t, s.Member(daoAddr, memberAddr, observer.QueryOptions{FetchPolicy: observer.FetchCacheOnly}))
		require.NoError(t, err)
		require.Equal(t, m, cachedMember)
	})

	t.Run("warm members", func(t *testing.T) {
		db := noQueries(t)
		db.query = memberRows(
			MemberSchema{DAO: hexAddress(daoAddr), Address: hexAddress(memberAddr), Reputation: "5"},
			MemberSchema{DAO: hexAddress(daoAddr), Address: hexAddress(common.HexToAddress("0xb2")), Reputation: "6"},
		)
		s := makeSource(t, db)

		n, err := s.WarmMembers(context.Background(), daoAddr)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, 2, s.Cache().Len())

		m, err := first(t, s.Member(daoAddr, memberAddr, observer.QueryOptions{FetchPolicy: observer.FetchCacheOnly}))
		require.NoError(t, err)
		require.Equal(t, observer.MemberID(daoAddr, memberAddr), m.ID)
	})
}

func TestSource_Submissions(t *testing.T) {
	t.Run("unknown filter", func(t *testing.T) {
		s := makeSource(t, noQueries(t))
		_, err := first(t, s.Submissions(observer.QueryOptions{Where: map[string]interface{}{"title": "x"}}))
		require.Equal(t, ErrUnknownFilter, errors.Cause(err))
	})

	t.Run("filtered without description", func(t *testing.T) {
		db := noQueries(t)
		db.query = func(_ context.Context, model, query interface{}, params ...interface{}) (orm.Result, error) {
			require.Contains(t, query, "'' AS description")
			require.Contains(t, query, " WHERE proposal_id = ? AND suggester = ?")
			require.Equal(t, []interface{}{"0x1", hexAddress(memberAddr)}, params)
			*model.(*[]SubmissionSchema) = []SubmissionSchema{{ID: "s1", ProposalID: "0x1", TotalVotes: "3"}}
			return makeResult(1), nil
		}
		s := makeSource(t, db)

		subs, err := first(t, s.Submissions(observer.QueryOptions{
			Where: map[string]interface{}{"proposal": "0x1", "suggester": memberAddr},
		}))
		require.NoError(t, err)
		require.Len(t, subs, 1)
		require.Equal(t, big.NewInt(3), subs[0].TotalVotes)
	})

	t.Run("subscription emits on change only", func(t *testing.T) {
		var calls int32
		db := noQueries(t)
		db.query = func(_ context.Context, model, query interface{}, _ ...interface{}) (orm.Result, error) {
			require.Contains(t, query, "description, total_votes")
			votes := "1"
			if atomic.AddInt32(&calls, 1) >= 3 {
				votes = "2"
			}
			*model.(*[]SubmissionSchema) = []SubmissionSchema{{ID: "s1", TotalVotes: votes}}
			return makeResult(1), nil
		}
		s := makeSource(t, db)

		got := make(chan []observer.Submission, 10)
		sub := s.Submissions(observer.QueryOptions{Subscribe: true, FetchAllData: true}).
			Subscribe(func(v []observer.Submission) { got <- v }, nil)
		defer sub.Unsubscribe()

		for _, want := range []int64{1, 2} {
			select {
			case v := <-got:
				require.Equal(t, big.NewInt(want), v[0].TotalVotes)
			case <-time.After(time.Second):
				t.Fatal("no emission")
			}
		}
		for atomic.LoadInt32(&calls) < 6 {
			time.Sleep(time.Millisecond)
		}
		require.Len(t, got, 0)
	})
}

func TestSource_Balances(t *testing.T) {
	db := noQueries(t)
	db.queryOne = func(_ context.Context, model, _ interface{}, params ...interface{}) (orm.Result, error) {
		if params[0] == EthToken {
			return makeResult(0), pg.ErrNoRows
		}
		model.(*balanceRow).Balance = "1500"
		return makeResult(1), nil
	}
	s := makeSource(t, db)

	eth, err := first(t, s.EthBalance(daoAddr))
	require.NoError(t, err)
	require.Equal(t, 0, eth.Sign())

	gen, err := first(t, s.TokenBalance(common.HexToAddress("0x543ff227f64aa17ea132bf9886cab5db55dcaddf"), daoAddr))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1500), gen)
}

func TestSource_VoterHasVoted(t *testing.T) {
	db := noQueries(t)
	db.queryOne = func(_ context.Context, model, _ interface{}, params ...interface{}) (orm.Result, error) {
		if params[0] == "s1" {
			model.(*countRow).Count = 1
		}
		return makeResult(1), nil
	}
	s := makeSource(t, db)

	voted, err := first(t, s.VoterHasVoted("s1", memberAddr, observer.QueryOptions{}))
	require.NoError(t, err)
	require.True(t, voted)

	voted, err = first(t, s.VoterHasVoted("s2", memberAddr, observer.QueryOptions{}))
	require.NoError(t, err)
	require.False(t, voted)
}

func TestSource_Proposal(t *testing.T) {
	closing := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	db := noQueries(t)
	db.queryOne = func(_ context.Context, model, _ interface{}, _ ...interface{}) (orm.Result, error) {
		*model.(*ProposalSchema) = ProposalSchema{
			ID:                      "0x1",
			DAO:                     hexAddress(daoAddr),
			Stage:                   "Boosted",
			WinningOutcome:          "Pass",
			ClosingAt:               closing,
			UpstakeNeededToPreBoost: "-5",
			CrBeneficiary:           hexAddress(memberAddr),
			CrEthReward:             "10",
			CrPeriods:               1,
			CompetitionStartTime:    closing,
			CompetitionEndTime:      closing.Add(time.Hour),
			CompetitionRewardSplit:  []int{60, 40},
		}
		return makeResult(1), nil
	}

	p, err := first(t, makeSource(t, db).Proposal("0x1"))
	require.NoError(t, err)
	require.Equal(t, observer.StageBoosted, p.Stage)
	require.Equal(t, observer.OutcomePass, p.WinningOutcome)
	require.Equal(t, big.NewInt(-5), p.UpstakeNeededToPreBoost)
	require.Equal(t, 0, p.DownStakeNeededToQueue.Sign())
	require.NotNil(t, p.ContributionReward)
	require.Equal(t, memberAddr, p.ContributionReward.Beneficiary)
	require.NotNil(t, p.Competition)
	require.Equal(t, []int{60, 40}, p.Competition.RewardSplit)
}

func TestSource_Events(t *testing.T) {
	db := noQueries(t)
	db.query = func(_ context.Context, model, _ interface{}, params ...interface{}) (orm.Result, error) {
		require.Equal(t, 20, params[1])
		*model.(*[]EventSchema) = []EventSchema{{ID: "e1", DAO: hexAddress(daoAddr), Type: "NewProposal", Data: map[string]interface{}{"title": "x"}}}
		return makeResult(1), nil
	}

	events, err := first(t, makeSource(t, db).Events(daoAddr, 20))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "NewProposal", events[0].Type)
}
