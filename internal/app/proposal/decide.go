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
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/insolar/dao-observer/internal/app/actions"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/rewards"
)

type Action int

const (
	None Action = iota
	PreBoost
	UnBoost
	Boost
	Execute
	Redeem
)

func (a Action) String() string {
	switch a {
	case PreBoost:
		return "PreBoost"
	case UnBoost:
		return "UnBoost"
	case Boost:
		return "Boost"
	case Execute:
		return "Execute"
	case Redeem:
		return "Redeem"
	}
	return "None"
}

// Input is everything the action button looks at.
type Input struct {
	Proposal       observer.Proposal
	Now            time.Time
	CurrentAccount common.Address
	// unredeemed genesis protocol rewards of the current account
	GP rewards.Classification
	// unredeemed contribution rewards of the beneficiary
	CR rewards.Classification
}

type Decision struct {
	Action   Action
	Label    string
	Disabled bool
	// only some of the rewards can be paid
	Warn    bool
	Rewards rewards.Overall
}

type rule struct {
	action Action
	label  string
	match  func(in Input, expired bool) bool
}

var rules = []rule{
	{PreBoost, "Pre-Boost", func(in Input, _ bool) bool {
		return in.Proposal.Stage == observer.StageQueued && negative(in.Proposal.UpstakeNeededToPreBoost)
	}},
	{UnBoost, "Un-Boost", func(in Input, expired bool) bool {
		return in.Proposal.Stage == observer.StagePreBoosted && expired && !positive(in.Proposal.DownStakeNeededToQueue)
	}},
	{Boost, "Boost", func(in Input, expired bool) bool {
		return in.Proposal.Stage == observer.StagePreBoosted && expired
	}},
	{Execute, "Execute", func(in Input, expired bool) bool {
		stage := in.Proposal.Stage
		return (stage == observer.StageBoosted || stage == observer.StageQuietEndingPeriod) && expired
	}},
	{Redeem, "Redeem", func(in Input, _ bool) bool {
		p := in.Proposal
		return p.Executed() && (in.GP.Owed() > 0 || (p.WinningOutcome == observer.OutcomePass && in.CR.Owed() > 0))
	}},
}

// Decide picks the first matching rule.
func Decide(in Input) Decision {
	expired := in.Proposal.Expired(in.Now)
	overall := rewards.Combine(in.GP, in.CR)

	for _, r := range rules {
		if !r.match(in, expired) {
			continue
		}
		d := Decision{Action: r.action, Label: r.label, Rewards: overall}
		if r.action == Redeem {
			d.Disabled = overall.NonePayable
			d.Warn = overall.SomePayableNotAll
			if forBeneficiary(in) {
				d.Label = "Redeem for beneficiary"
			}
		}
		return d
	}
	return Decision{Action: None, Rewards: overall}
}

func forBeneficiary(in Input) bool {
	cr := in.Proposal.ContributionReward
	return in.CR.Owed() > 0 && cr != nil && cr.Beneficiary != in.CurrentAccount && in.GP.Owed() == 0
}

// Kind is the transaction the action button submits.
func (a Action) Kind() (actions.Kind, bool) {
	switch a {
	case PreBoost, UnBoost, Boost, Execute:
		return actions.ExecuteProposal, true
	case Redeem:
		return actions.RedeemProposal, true
	}
	return "", false
}

func negative(v *big.Int) bool {
	return v != nil && v.Sign() < 0
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
