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

	"github.com/insolar/dao-observer/internal/app/binder"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

type DaoMemberProps struct {
	DAO     observer.DAO
	Address common.Address
}

func (p DaoMemberProps) memberID() string {
	return observer.MemberID(p.DAO.Address, p.Address)
}

type memberData = stream.Pair[*observer.Member, observer.Profile]

type DaoMemberView struct {
	Address          string   `json:"address"`
	Profile          *Account `json:"profile,omitempty"`
	NoProfile        string   `json:"noProfile,omitempty"`
	Reputation       string   `json:"reputation"`
	ReputationTokens float64  `json:"reputationTokens"`
	// percent of the DAO reputation supply
	ReputationShare float64  `json:"reputationShare"`
	DAOName         string   `json:"daoName"`
	Social          []Social `json:"social,omitempty"`
}

type DaoMemberBinder = binder.Binder[DaoMemberProps, memberData, Output[DaoMemberView]]

// DaoMember follows one member of a DAO. Changing the DAO or the address to a
// different member resubscribes.
func (v *Views) DaoMember() *DaoMemberBinder {
	return binder.New(v.obs, binder.Config[DaoMemberProps, memberData, Output[DaoMemberView]]{
		Name: "DaoMember",
		CreateObservable: func(props DaoMemberProps) stream.Observable[memberData] {
			return stream.CombineLatest2(
				v.source.Member(props.DAO.Address, props.Address, observer.QueryOptions{Subscribe: true}),
				v.profile(props.Address),
			)
		},
		CheckForUpdate: binder.CheckFunc[DaoMemberProps](func(oldProps, newProps DaoMemberProps) bool {
			return oldProps.memberID() != newProps.memberID()
		}),
		Wrapped: func(props binder.Props[DaoMemberProps, memberData]) Output[DaoMemberView] {
			return ready(renderDaoMember(props.External, props.Data.First, props.Data.Second))
		},
		Loading: loading[DaoMemberProps, DaoMemberView],
		Error:   failed[DaoMemberProps, DaoMemberView],
	})
}

func renderDaoMember(props DaoMemberProps, member *observer.Member, p observer.Profile) DaoMemberView {
	reputation := memberReputation(member)
	view := DaoMemberView{
		Address:          props.Address.Hex(),
		Reputation:       reputation.String(),
		ReputationTokens: fromWei(reputation),
		ReputationShare:  observer.ReputationShare(reputation, props.DAO.ReputationTotalSupply),
		DAOName:          props.DAO.Name,
		Social:           socials(p),
	}
	if p.Name != "" {
		a := account(props.Address, p)
		view.Profile = &a
	} else {
		view.NoProfile = "No Profile"
	}
	return view
}

// memberReputation is 0 for accounts that are not members.
func memberReputation(m *observer.Member) *big.Int {
	if m == nil || m.Reputation == nil {
		return new(big.Int)
	}
	return m.Reputation
}

type AccountPopupProps struct {
	DAO     observer.DAO
	Account common.Address
}

type AccountPopupView struct {
	Address         string   `json:"address"`
	Name            string   `json:"name,omitempty"`
	Description     string   `json:"description,omitempty"`
	IsMember        bool     `json:"isMember"`
	Reputation      string   `json:"reputation"`
	ReputationShare float64  `json:"reputationShare"`
	DAOName         string   `json:"daoName"`
	Social          []Social `json:"social,omitempty"`
	NoSocial        string   `json:"noSocial,omitempty"`
}

type AccountPopupBinder = binder.Binder[AccountPopupProps, memberData, Output[AccountPopupView]]

// AccountPopup never queries the indexer for the member: only what is
// already cached is shown, so accounts that are not members cost nothing.
// The profile is loaded on mount.
func (v *Views) AccountPopup() *AccountPopupBinder {
	return binder.New(v.obs, binder.Config[AccountPopupProps, memberData, Output[AccountPopupView]]{
		Name: "AccountPopup",
		CreateObservable: func(props AccountPopupProps) stream.Observable[memberData] {
			return stream.CombineLatest2(
				v.source.Member(props.DAO.Address, props.Account, observer.QueryOptions{FetchPolicy: observer.FetchCacheOnly}),
				v.profile(props.Account),
			)
		},
		CheckForUpdate: binder.CheckFunc[AccountPopupProps](func(oldProps, newProps AccountPopupProps) bool {
			return oldProps.Account != newProps.Account || oldProps.DAO.Address != newProps.DAO.Address
		}),
		Wrapped: func(props binder.Props[AccountPopupProps, memberData]) Output[AccountPopupView] {
			return ready(renderAccountPopup(props.External, props.Data.First, props.Data.Second))
		},
		Loading: loading[AccountPopupProps, AccountPopupView],
		Error:   failed[AccountPopupProps, AccountPopupView],
	})
}

func renderAccountPopup(props AccountPopupProps, member *observer.Member, p observer.Profile) AccountPopupView {
	reputation := memberReputation(member)
	view := AccountPopupView{
		Address:         props.Account.Hex(),
		Name:            p.Name,
		Description:     p.Description,
		IsMember:        member != nil,
		Reputation:      reputation.String(),
		ReputationShare: observer.ReputationShare(reputation, props.DAO.ReputationTotalSupply),
		DAOName:         props.DAO.Name,
		Social:          socials(p),
	}
	if len(view.Social) == 0 {
		view.NoSocial = "No social profiles"
	}
	return view
}
