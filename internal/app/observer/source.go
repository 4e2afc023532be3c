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

package observer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/insolar/dao-observer/internal/pkg/stream"
)

type FetchPolicy string

const (
	FetchDefault   FetchPolicy = ""
	FetchCacheOnly FetchPolicy = "cache-only"
)

// QueryOptions tunes how a Source resolves a query.
type QueryOptions struct {
	FetchPolicy FetchPolicy
	// keep emitting on every change instead of once
	Subscribe    bool
	FetchAllData bool
	Where        map[string]interface{}
}

// Source provides entity state as streams. Every stream emits on subscribe
// and, when subscribed for updates, on every change of the backing store.
type Source interface {
	DAO(address common.Address) stream.Observable[DAO]
	// Member emits nil when the account is not a member, or when a cache-only
	// lookup has nothing cached.
	Member(dao, address common.Address, opts QueryOptions) stream.Observable[*Member]
	Proposal(id string) stream.Observable[Proposal]
	// Rewards emits nil when the account has no rewards for the proposal.
	Rewards(proposalID string, beneficiary common.Address) stream.Observable[*GPReward]
	Submissions(opts QueryOptions) stream.Observable[[]Submission]
	VoterHasVoted(submissionID string, voter common.Address, opts QueryOptions) stream.Observable[bool]
	TokenBalance(token, owner common.Address) stream.Observable[*big.Int]
	EthBalance(owner common.Address) stream.Observable[*big.Int]
	Events(dao common.Address, limit int) stream.Observable[[]Event]
}
