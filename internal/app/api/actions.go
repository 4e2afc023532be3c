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
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/internal/app/actions"
	"github.com/insolar/dao-observer/internal/app/competition"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/observer/postgres"
	"github.com/insolar/dao-observer/internal/app/views"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

type ActionRequest struct {
	Account string `json:"account"`
}

type SubmissionRequest struct {
	Account     string   `json:"account"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
}

func (s *ObserverServer) ExecuteProposal(ctx echo.Context) error {
	return s.proposalAction(ctx, actions.ExecuteProposal)
}

func (s *ObserverServer) RedeemProposal(ctx echo.Context) error {
	return s.proposalAction(ctx, actions.RedeemProposal)
}

// proposalAction dispatches kind only when the action button of the
// proposal offers it to the account.
func (s *ObserverServer) proposalAction(ctx echo.Context, kind actions.Kind) error {
	var req ActionRequest
	if err := ctx.Bind(&req); err != nil {
		return s.fail(ctx, errors.Wrap(errInvalidRequest, err.Error()))
	}
	acc, err := parseAddress(req.Account)
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
	if err != nil {
		return s.respond(ctx, out, err)
	}

	button := out.View
	if button.Kind != kind || button.Disabled {
		return s.fail(ctx, errors.Wrapf(errUnavailable, "%s on proposal %s (button is %s)", kind, p.ID, button.Action))
	}
	return s.dispatch(ctx, kind, actions.Params{
		"dao":      dao.Address.Hex(),
		"proposal": p.ID,
		"account":  acc.Hex(),
	})
}

func (s *ObserverServer) CreateSubmission(ctx echo.Context) error {
	var req SubmissionRequest
	if err := ctx.Bind(&req); err != nil {
		return s.fail(ctx, errors.Wrap(errInvalidRequest, err.Error()))
	}
	acc, err := parseAddress(req.Account)
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	p, err := s.proposal(c, ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}
	if p.Competition == nil {
		return s.fail(ctx, errors.Wrapf(views.ErrNoCompetition, "proposal %s", p.ID))
	}
	if !competition.Compute(*p.Competition, s.clock.Now()).CanSubmit() {
		return s.fail(ctx, errors.Wrapf(errUnavailable, "competition %s does not accept submissions", p.ID))
	}

	params := actions.Params{
		"proposal":    p.ID,
		"account":     acc.Hex(),
		"title":       req.Title,
		"description": req.Description,
		"url":         req.URL,
	}
	if len(req.Tags) > 0 {
		params["tags"] = req.Tags
	}
	return s.dispatch(ctx, actions.CreateCompetitionSubmission, params)
}

func (s *ObserverServer) VoteForSubmission(ctx echo.Context) error {
	return s.submissionAction(ctx, actions.VoteForSubmission, competition.Voting)
}

func (s *ObserverServer) RedeemForSubmission(ctx echo.Context) error {
	return s.submissionAction(ctx, actions.RedeemForSubmission, competition.Ended)
}

// submissionAction dispatches kind when the competition of the submission is
// in phase.
func (s *ObserverServer) submissionAction(ctx echo.Context, kind actions.Kind, phase competition.Phase) error {
	var req ActionRequest
	if err := ctx.Bind(&req); err != nil {
		return s.fail(ctx, errors.Wrap(errInvalidRequest, err.Error()))
	}
	acc, err := parseAddress(req.Account)
	if err != nil {
		return s.fail(ctx, err)
	}

	c, cancel := s.renderContext(ctx)
	defer cancel()
	sub, err := s.submission(c, ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}
	p, err := s.proposal(c, sub.ProposalID)
	if err != nil {
		return s.fail(ctx, err)
	}
	if p.Competition == nil {
		return s.fail(ctx, errors.Wrapf(views.ErrNoCompetition, "proposal %s", p.ID))
	}
	// the submission itself exists
	status := competition.ComputeWithSubmissions(*p.Competition, s.clock.Now(), 1)
	if status.Phase != phase {
		return s.fail(ctx, errors.Wrapf(errUnavailable, "%s while competition is %s", kind, status.Phase))
	}

	return s.dispatch(ctx, kind, actions.Params{
		"submission": sub.ID,
		"account":    acc.Hex(),
	})
}

func (s *ObserverServer) submission(ctx context.Context, id string) (observer.Submission, error) {
	subs, err := stream.First(ctx, s.source.Submissions(observer.QueryOptions{
		Where: map[string]interface{}{"id": id},
	}))
	if err != nil {
		return observer.Submission{}, err
	}
	if len(subs) == 0 {
		return observer.Submission{}, errors.Wrapf(postgres.ErrNotFound, "submission %s", id)
	}
	return subs[0], nil
}

// dispatch hands the transaction to the relay and answers with its receipt.
// Nothing changes locally.
func (s *ObserverServer) dispatch(ctx echo.Context, kind actions.Kind, params actions.Params) error {
	if err := actions.Validate(kind, params); err != nil {
		return s.fail(ctx, errors.Wrap(errInvalidRequest, err.Error()))
	}

	c := ctx.Request().Context()
	receipt, err := actions.Submit(c, s.dispatcher, kind, params).Get(c)
	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Error("failed to dispatch transaction")
		return ctx.JSON(http.StatusBadGateway, NewSingleMessageError(err.Error()))
	}
	return ctx.JSON(http.StatusAccepted, receipt)
}
