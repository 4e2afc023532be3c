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
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/app/actions"
	"github.com/insolar/dao-observer/internal/app/binder"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/observer/postgres"
	"github.com/insolar/dao-observer/internal/app/views"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

var (
	errBadAddress     = errors.New("invalid address")
	errInvalidRequest = errors.New("invalid request")
	errUnavailable    = errors.New("action is not available")
)

type ObserverServer struct {
	log        logrus.FieldLogger
	cfg        configuration.API
	source     observer.Source
	views      *views.Views
	dispatcher actions.Dispatcher
	clock      clockwork.Clock
}

func NewObserverServer(
	cfg configuration.API,
	log logrus.FieldLogger,
	source observer.Source,
	v *views.Views,
	dispatcher actions.Dispatcher,
	clock clockwork.Clock,
) *ObserverServer {
	return &ObserverServer{
		log:        log.WithField("component", "api"),
		cfg:        cfg,
		source:     source,
		views:      v,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// New builds the echo instance serving s.
func New(s *ObserverServer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	RegisterHandlers(e, s)
	return e
}

func RegisterHandlers(e *echo.Echo, s *ObserverServer) {
	g := e.Group("/api")

	g.GET("/dao/:dao/member/:address", s.DaoMember)
	g.GET("/dao/:dao/account/:address", s.AccountPopup)
	g.GET("/dao/:dao/feed", s.Feed)
	g.GET("/proposal/:id/competition", s.CompetitionCard)
	g.GET("/proposal/:id/competition/details", s.CompetitionDetails)
	g.GET("/proposal/:id/action", s.ActionButton)

	g.POST("/proposal/:id/execute", s.ExecuteProposal)
	g.POST("/proposal/:id/redeem", s.RedeemProposal)
	g.POST("/proposal/:id/submissions", s.CreateSubmission)
	g.POST("/submission/:id/vote", s.VoteForSubmission)
	g.POST("/submission/:id/redeem", s.RedeemForSubmission)
}

func (s *ObserverServer) renderContext(ctx echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request().Context(), s.cfg.RenderTimeout)
}

// render mounts a view for a single request and releases it once rendered.
func render[P, T, V any](ctx context.Context, b *binder.Binder[P, T, V], props P) (V, error) {
	b.Mount(props)
	defer b.Unmount()

	phase, err := b.Await(ctx)
	if err != nil {
		var zero V
		return zero, errors.Wrapf(err, "view is still %s", phase)
	}
	return b.Render(), b.State().Err
}

// respond writes a rendered view. A failed view still carries its
// placeholder, a view that never rendered gets an error message.
func (s *ObserverServer) respond(ctx echo.Context, out interface{}, err error) error {
	switch cause := errors.Cause(err); {
	case err == nil:
		return ctx.JSON(http.StatusOK, out)
	case cause == context.DeadlineExceeded || cause == context.Canceled:
		return s.fail(ctx, err)
	}

	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", ctx.Path()).Error("failed to render view")
	}
	return ctx.JSON(code, out)
}

func (s *ObserverServer) fail(ctx echo.Context, err error) error {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", ctx.Path()).Error("request failed")
	}
	return ctx.JSON(code, NewSingleMessageError(err.Error()))
}

func statusOf(err error) int {
	switch errors.Cause(err) {
	case postgres.ErrNotFound, views.ErrNoCompetition:
		return http.StatusNotFound
	case errBadAddress, errInvalidRequest, postgres.ErrUnknownFilter:
		return http.StatusBadRequest
	case errUnavailable:
		return http.StatusConflict
	case context.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func address(ctx echo.Context, name string) (common.Address, error) {
	return parseAddress(ctx.Param(name))
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(errBadAddress, "%q", s)
	}
	return common.HexToAddress(s), nil
}

// account is the optional current account of the request.
func account(ctx echo.Context) (common.Address, error) {
	v := ctx.QueryParam("account")
	if v == "" {
		return common.Address{}, nil
	}
	return parseAddress(v)
}

func (s *ObserverServer) limit(ctx echo.Context) (int, error) {
	v := ctx.QueryParam("limit")
	if v == "" {
		return s.cfg.FeedLimit, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 || limit > 1000 {
		return 0, errors.Wrap(errInvalidRequest, "`limit` should be in range [1, 1000]")
	}
	return limit, nil
}

func (s *ObserverServer) dao(ctx context.Context, address common.Address) (observer.DAO, error) {
	return stream.First(ctx, s.source.DAO(address))
}

func (s *ObserverServer) proposal(ctx context.Context, id string) (observer.Proposal, error) {
	return stream.First(ctx, s.source.Proposal(id))
}

// proposalWithDAO resolves the proposal of the request and its DAO.
func (s *ObserverServer) proposalWithDAO(ctx context.Context, id string) (observer.Proposal, observer.DAO, error) {
	p, err := s.proposal(ctx, id)
	if err != nil {
		return p, observer.DAO{}, err
	}
	dao, err := s.dao(ctx, p.DAO)
	return p, dao, err
}
