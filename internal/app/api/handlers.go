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


package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/views"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

func (s *ObserverServer) DaoMember(ctx echo.Context) error {
	daoAddress, err := address(ctx, "dao")
	if err != nil {
		return s.fail(ctx, err)
	}
	member, err := address(ctx, "address")
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	dao, err := s.dao(c, daoAddress)
	if err != nil {
		return s.fail(ctx, err)
	}
	out, err := render(c, s.views.DaoMember(), views.DaoMemberProps{DAO: dao, Address: member})
	return s.respond(ctx, out, err)
}

func (s *ObserverServer) AccountPopup(ctx echo.Context) error {
	daoAddress, err := address(ctx, "dao")
	if err != nil {
		return s.fail(ctx, err)
	}
	acc, err := address(ctx, "address")
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	dao, err := s.dao(c, daoAddress)
	if err != nil {
		return s.fail(ctx, err)
	}
	out, err := render(c, s.views.AccountPopup(), views.AccountPopupProps{DAO: dao, Account: acc})
	return s.respond(ctx, out, err)
}

type FeedResponse struct {
	Items []views.Output[views.ProposalFeedItemView] `json:"items"`
}

// Feed renders the latest events of a DAO, newest first.
func (s *ObserverServer) Feed(ctx echo.Context) error {
	daoAddress, err := address(ctx, "dao")
	if err != nil {
		return s.fail(ctx, err)
	}
	limit, err := s.limit(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	events, err := stream.First(c, s.source.Events(daoAddress, limit))
	if err != nil {
		return s.fail(ctx, err)
	}

	proposals := make([]*observer.Proposal, len(events))
	proposers := make([]common.Address, 0, len(events))
	for i, ev := range events {
		if ev.ProposalID == "" {
			continue
		}
		found, err := s.proposal(c, ev.ProposalID)
		if err != nil {
			return s.fail(ctx, err)
		}
		proposals[i] = &found
		proposers = append(proposers, found.Proposer)
	}
	s.views.PrefetchProfiles(c, proposers...)

	resp := FeedResponse{Items: make([]views.Output[views.ProposalFeedItemView], 0, len(events))}
	for i := range events {
		out, err := render(c, s.views.ProposalFeedItem(), views.ProposalFeedItemProps{Event: &events[i], Proposal: proposals[i]})
		if err != nil {
			return s.respond(ctx, out, err)
		}
		resp.Items = append(resp.Items, out)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (s *ObserverServer) CompetitionCard(ctx echo.Context) error {
	c, cancel := s.renderContext(ctx)
	defer cancel()
	p, dao, err := s.proposalWithDAO(c, ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}
	out, err := render(c, s.views.CompetitionCard(), views.CompetitionProps{DAO: dao, Proposal: p})
	return s.respond(ctx, out, err)
}

func (s *ObserverServer) CompetitionDetails(ctx echo.Context) error {
	acc, err := account(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	p, dao, err := s.proposalWithDAO(c, ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}
	out, err := render(c, s.views.CompetitionDetails(), views.CompetitionProps{DAO: dao, Proposal: p, CurrentAccount: acc})
	return s.respond(ctx, out, err)
}

func (s *ObserverServer) ActionButton(ctx echo.Context) error {
	acc, err := account(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	p, dao, err := s.proposalWithDAO(c, ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}
	out, err := render(c, s.views.ActionButton(), views.ActionButtonProps{DAO: dao, Proposal: p, CurrentAccount: acc})
	return s.respond(ctx, out, err)
}
