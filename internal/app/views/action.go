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


package views

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/insolar/dao-observer/internal/app/actions"
	"github.com/insolar/dao-observer/internal/app/binder"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/proposal"
	"github.com/insolar/dao-observer/internal/app/rewards"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

type ActionButtonProps struct {
	DAO            observer.DAO
	Proposal       observer.Proposal
	CurrentAccount common.Address
}

type balances struct {
	ETH           *big.Int
	ExternalToken *big.Int
	GEN           *big.Int
	// genesis protocol rewards of the current account, nil when none
	Rewards *observer.GPReward
}

type ActionButtonView struct {
	ProposalID string          `json:"proposalId"`
	Action     string          `json:"action"`
	Label      string          `json:"label,omitempty"`
	Kind       actions.Kind    `json:"kind,omitempty"`
	Disabled   bool            `json:"disabled"`
	Warning    bool            `json:"warning"`
	Payable    []rewards.Token `json:"payable,omitempty"`
	Unpayable  []rewards.Token `json:"unpayable,omitempty"`
	HasRewards bool            `json:"hasRewards"`
}

type ActionButtonBinder = binder.Binder[ActionButtonProps, balances, Output[ActionButtonView]]

// ActionButton never resubscribes: the proposal state it decides on comes
// with the props, the DAO balances come from the stream.
func (v *Views) ActionButton() *ActionButtonBinder {
	return binder.New(v.obs, binder.Config[ActionButtonProps, balances, Output[ActionButtonView]]{
		Name:             "ActionButton",
		CreateObservable: v.daoBalances,
		CheckForUpdate: binder.CheckFunc[ActionButtonProps](func(ActionButtonProps, ActionButtonProps) bool {
			return false
		}),
		Wrapped: func(props binder.Props[ActionButtonProps, balances]) Output[ActionButtonView] {
			return ready(v.decide(props.External, *props.Data).view(props.External.Proposal.ID))
		},
		Loading: loading[ActionButtonProps, ActionButtonView],
		Error:   failed[ActionButtonProps, ActionButtonView],
	})
}

func (v *Views) daoBalances(props ActionButtonProps) stream.Observable[balances] {
	dao := props.DAO.Address
	cr := props.Proposal.ContributionReward

	external := stream.Of[*big.Int](nil)
	if rewards.HasExternalTokenReward(cr) {
		if cr.ExternalToken == (common.Address{}) {
			rewards.ReportCorrupt(v.log, props.Proposal.ID, cr)
		} else {
			external = v.source.TokenBalance(cr.ExternalToken, dao)
		}
	}

	tokens := stream.CombineLatest2(external, v.source.TokenBalance(v.genToken, dao))
	rest := stream.CombineLatest2(v.source.EthBalance(dao), v.source.Rewards(props.Proposal.ID, props.CurrentAccount))
	return stream.Map(stream.CombineLatest2(tokens, rest),
		func(d stream.Pair[stream.Pair[*big.Int, *big.Int], stream.Pair[*big.Int, *observer.GPReward]]) balances {
			return balances{
				ExternalToken: d.First.First,
				GEN:           d.First.Second,
				ETH:           d.Second.First,
				Rewards:       d.Second.Second,
			}
		})
}

type decision struct {
	proposal.Decision
	GP rewards.Classification
	CR rewards.Classification
}

func (d decision) view(proposalID string) ActionButtonView {
	view := ActionButtonView{
		ProposalID: proposalID,
		Action:     d.Action.String(),
		Label:      d.Label,
		Disabled:   d.Disabled,
		Warning:    d.Warn,
		HasRewards: d.Rewards.HasRewards,
	}
	if kind, ok := d.Action.Kind(); ok {
		view.Kind = kind
	}
	if d.Action == proposal.Redeem {
		view.Payable = append(append(view.Payable, d.GP.Payable...), d.CR.Payable...)
		view.Unpayable = append(append(view.Unpayable, d.GP.Unpayable...), d.CR.Unpayable...)
	}
	return view
}

// decide classifies the rewards against the DAO balances and runs the action
// decision table.
func (v *Views) decide(props ActionButtonProps, b balances) decision {
	daoBalances := rewards.DAOBalances(b.ETH, b.ExternalToken, b.GEN)
	crLedger, _ := rewards.CRLedger(props.Proposal.ContributionReward)

	d := decision{
		GP: rewards.Classify(rewards.GPLedger(b.Rewards), daoBalances),
		CR: rewards.Classify(crLedger, daoBalances),
	}
	d.Decision = proposal.Decide(proposal.Input{
		Proposal:       props.Proposal,
		Now:            v.clock.Now(),
		CurrentAccount: props.CurrentAccount,
		GP:             d.GP,
		CR:             d.CR,
	})
	return d
}
