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
	"github.com/insolar/dao-observer/internal/app/binder"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

type ProposalFeedItemProps struct {
	Event *observer.Event
	// nil for events that are not about a proposal
	Proposal *observer.Proposal
}

type feedData = stream.Pair[observer.DAO, observer.Profile]

type ProposalFeedItemView struct {
	EventID    string                 `json:"eventId"`
	Type       string                 `json:"type"`
	DAO        string                 `json:"dao"`
	DAOName    string                 `json:"daoName"`
	ProposalID string                 `json:"proposalId,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Proposer   *Account               `json:"proposer,omitempty"`
	Data       map[string]interface{} `json:"data"`
	Timestamp  int64                  `json:"timestamp"`
}

type ProposalFeedItemBinder = binder.Binder[ProposalFeedItemProps, feedData, Output[ProposalFeedItemView]]

// ProposalFeedItem renders one entry of the DAO feed. Only another event
// resubscribes.
func (v *Views) ProposalFeedItem() *ProposalFeedItemBinder {
	return binder.New(v.obs, binder.Config[ProposalFeedItemProps, feedData, Output[ProposalFeedItemView]]{
		Name: "ProposalFeedItem",
		CreateObservable: func(props ProposalFeedItemProps) stream.Observable[feedData] {
			proposer := stream.Of(observer.Profile{})
			if props.Proposal != nil {
				proposer = v.profile(props.Proposal.Proposer)
			}
			return stream.CombineLatest2(v.source.DAO(props.Event.DAO), proposer)
		},
		CheckForUpdate: binder.PropNames[ProposalFeedItemProps]{"Event"},
		Wrapped: func(props binder.Props[ProposalFeedItemProps, feedData]) Output[ProposalFeedItemView] {
			ev, p := props.External.Event, props.External.Proposal
			dao, proposer := props.Data.First, props.Data.Second
			view := ProposalFeedItemView{
				EventID:   ev.ID,
				Type:      ev.Type,
				DAO:       dao.Address.Hex(),
				DAOName:   dao.Name,
				Data:      ev.Data,
				Timestamp: ev.Timestamp.Unix(),
			}
			if p != nil {
				acc := account(p.Proposer, proposer)
				view.ProposalID = p.ID
				view.Title = "Proposal " + p.HumanTitle()
				view.Proposer = &acc
			}
			return ready(view)
		},
		Loading: loading[ProposalFeedItemProps, ProposalFeedItemView],
		Error:   failed[ProposalFeedItemProps, ProposalFeedItemView],
	})
}
