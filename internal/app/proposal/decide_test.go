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


package proposal

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/insolar/dao-observer/internal/app/actions"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/rewards"
)

var (
	now         = time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	account     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	beneficiary = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func payable(tokens ...rewards.Token) rewards.Classification {
	l := rewards.Ledger{}
	for _, tok := range tokens {
		l[tok] = big.NewInt(1)
	}
	return rewards.Classify(l, nil)
}

func unpayable(tokens ...rewards.Token) rewards.Classification {
	l := rewards.Ledger{}
	b := rewards.Balances{}
	for _, tok := range tokens {
		l[tok] = big.NewInt(10)
		b[tok] = big.NewInt(1)
	}
	return rewards.Classify(l, b)
}

func TestDecide_Stages(t *testing.T) {
	expired := now.Add(-time.Hour)
	running := now.Add(time.Hour)

	table := []struct {
		name   string
		p      observer.Proposal
		action Action
		label  string
	}{
		{
			name:   "queued with negative upstake",
			p:      observer.Proposal{Stage: observer.StageQueued, UpstakeNeededToPreBoost: big.NewInt(-1), ClosingAt: running},
			action: PreBoost,
			label:  "Pre-Boost",
		},
		{
			name:   "queued with upstake needed",
			p:      observer.Proposal{Stage: observer.StageQueued, UpstakeNeededToPreBoost: big.NewInt(5), ClosingAt: running},
			action: None,
		},
		{
			name:   "expired preboosted without downstake",
			p:      observer.Proposal{Stage: observer.StagePreBoosted, DownStakeNeededToQueue: big.NewInt(0), ClosingAt: expired},
			action: UnBoost,
			label:  "Un-Boost",
		},
		{
			name:   "expired preboosted",
			p:      observer.Proposal{Stage: observer.StagePreBoosted, DownStakeNeededToQueue: big.NewInt(3), ClosingAt: expired},
			action: Boost,
			label:  "Boost",
		},
		{
			name:   "running preboosted",
			p:      observer.Proposal{Stage: observer.StagePreBoosted, DownStakeNeededToQueue: big.NewInt(0), ClosingAt: running},
			action: None,
		},
		{
			name:   "expired boosted",
			p:      observer.Proposal{Stage: observer.StageBoosted, ClosingAt: expired},
			action: Execute,
			label:  "Execute",
		},
		{
			name:   "expired quiet ending",
			p:      observer.Proposal{Stage: observer.StageQuietEndingPeriod, ClosingAt: expired},
			action: Execute,
			label:  "Execute",
		},
	}
	for _, tc := range table {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(Input{Proposal: tc.p, Now: now})
			require.Equal(t, tc.action, d.Action)
			require.Equal(t, tc.label, d.Label)
		})
	}
}

func TestDecide_Redeem(t *testing.T) {
	executed := observer.Proposal{
		Stage:          observer.StageExecuted,
		ExecutedAt:     now.Add(-time.Hour),
		WinningOutcome: observer.OutcomePass,
		ContributionReward: &observer.ContributionReward{
			Beneficiary: beneficiary,
		},
	}

	t.Run("gp rewards payable", func(t *testing.T) {
		d := Decide(Input{Proposal: executed, Now: now, CurrentAccount: account, GP: payable(rewards.GEN)})
		require.Equal(t, Redeem, d.Action)
		require.Equal(t, "Redeem", d.Label)
		require.False(t, d.Disabled)
		require.False(t, d.Warn)
		require.True(t, d.Rewards.AllPayable)
	})

	t.Run("beneficiary rewards only", func(t *testing.T) {
		d := Decide(Input{Proposal: executed, Now: now, CurrentAccount: account, CR: payable(rewards.ETH)})
		require.Equal(t, Redeem, d.Action)
		require.Equal(t, "Redeem for beneficiary", d.Label)
	})

	t.Run("beneficiary is current account", func(t *testing.T) {
		d := Decide(Input{Proposal: executed, Now: now, CurrentAccount: beneficiary, CR: payable(rewards.ETH)})
		require.Equal(t, "Redeem", d.Label)
	})

	t.Run("nothing payable", func(t *testing.T) {
		d := Decide(Input{Proposal: executed, Now: now, CurrentAccount: account, GP: unpayable(rewards.GEN), CR: unpayable(rewards.ETH)})
		require.Equal(t, Redeem, d.Action)
		require.True(t, d.Disabled)
		require.False(t, d.Warn)
	})

	t.Run("some payable", func(t *testing.T) {
		d := Decide(Input{Proposal: executed, Now: now, CurrentAccount: account, GP: payable(rewards.Reputation), CR: unpayable(rewards.ETH)})
		require.False(t, d.Disabled)
		require.True(t, d.Warn)
	})

	t.Run("failed proposal ignores contribution rewards", func(t *testing.T) {
		failed := executed
		failed.WinningOutcome = observer.OutcomeFail
		d := Decide(Input{Proposal: failed, Now: now, CurrentAccount: account, CR: payable(rewards.ETH)})
		require.Equal(t, None, d.Action)
	})

	t.Run("not executed", func(t *testing.T) {
		p := executed
		p.ExecutedAt = time.Time{}
		d := Decide(Input{Proposal: p, Now: now, CurrentAccount: account, GP: payable(rewards.GEN)})
		require.Equal(t, None, d.Action)
	})
}

func TestAction_Kind(t *testing.T) {
	kind, ok := Boost.Kind()
	require.True(t, ok)
	require.Equal(t, actions.ExecuteProposal, kind)

	kind, ok = Redeem.Kind()
	require.True(t, ok)
	require.Equal(t, actions.RedeemProposal, kind)

	_, ok = None.Kind()
	require.False(t, ok)
}
