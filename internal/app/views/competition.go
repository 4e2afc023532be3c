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
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/internal/app/binder"
	"github.com/insolar/dao-observer/internal/app/competition"
	"github.com/insolar/dao-observer/internal/app/observer"
	"github.com/insolar/dao-observer/internal/app/rewards"
	"github.com/insolar/dao-observer/internal/pkg/stream"
)

var ErrNoCompetition = errors.New("proposal is not a competition")

const noSubmissionTitle = "[No title is available]"

type CompetitionProps struct {
	DAO            observer.DAO
	Proposal       observer.Proposal
	CurrentAccount common.Address
}

type CountdownView struct {
	Label     string    `json:"label"`
	Target    time.Time `json:"target"`
	Remaining int64     `json:"remainingSeconds"`
}

func (v *Views) countdown(cd competition.Countdown, ok bool) *CountdownView {
	if !ok {
		return nil
	}
	return &CountdownView{
		Label:     cd.Label,
		Target:    cd.Target,
		Remaining: int64(cd.Remaining(v.clock.Now()) / time.Second),
	}
}

// rewardAmounts lists the nonzero contribution rewards of a proposal.
func rewardAmounts(cr *observer.ContributionReward) map[rewards.Token]string {
	out := map[rewards.Token]string{}
	if cr == nil {
		return out
	}
	for token, v := range map[rewards.Token]*big.Int{
		rewards.ETH:           cr.EthReward,
		rewards.NativeToken:   cr.NativeTokenReward,
		rewards.Reputation:    cr.ReputationReward,
		rewards.ExternalToken: cr.ExternalTokenReward,
	} {
		if v != nil && v.Sign() != 0 {
			out[token] = v.String()
		}
	}
	return out
}

func (v *Views) submissions(id string) stream.Observable[[]observer.Submission] {
	return v.source.Submissions(observer.QueryOptions{
		Where:        map[string]interface{}{"proposal": id},
		Subscribe:    true,
		FetchAllData: true,
	})
}

// phases re-emits the competition status at every boundary crossing.
func (v *Views) phases(p observer.Proposal) stream.Observable[competition.Status] {
	if p.Competition == nil {
		return stream.Fail[competition.Status](errors.Wrapf(ErrNoCompetition, "proposal %s", p.ID))
	}
	if err := competition.Validate(*p.Competition); err != nil {
		v.log.WithError(err).WithField("proposal", p.ID).Warn("competition boundaries are out of order")
	}
	return competition.Observe(v.clock, *p.Competition)
}

type cardData struct {
	Submissions []observer.Submission
	Status      competition.Status
	Proposer    observer.Profile
}

type CompetitionCardView struct {
	ProposalID         string                   `json:"proposalId"`
	Title              string                   `json:"title"`
	Phase              string                   `json:"phase"`
	Proposer           Account                  `json:"proposer"`
	Countdown          *CountdownView           `json:"countdown,omitempty"`
	Rewards            map[rewards.Token]string `json:"rewards"`
	AnticipatedWinners string                   `json:"anticipatedWinners"`
	Suggestions        string                   `json:"suggestions"`
}

type CompetitionCardBinder = binder.Binder[CompetitionProps, cardData, Output[CompetitionCardView]]

// CompetitionCard keeps its subscription for the whole mount and re-renders
// on every submission change and boundary crossing.
func (v *Views) CompetitionCard() *CompetitionCardBinder {
	return binder.New(v.obs, binder.Config[CompetitionProps, cardData, Output[CompetitionCardView]]{
		Name: "CompetitionCard",
		CreateObservable: func(props CompetitionProps) stream.Observable[cardData] {
			p := props.Proposal
			state := stream.CombineLatest2(v.submissions(p.ID), v.phases(p))
			return stream.Map(stream.CombineLatest2(state, v.profile(p.Proposer)),
				func(d stream.Pair[stream.Pair[[]observer.Submission, competition.Status], observer.Profile]) cardData {
					return cardData{Submissions: d.First.First, Status: d.First.Second, Proposer: d.Second}
				})
		},
		CheckForUpdate: binder.PropNames[CompetitionProps]{},
		Wrapped: func(props binder.Props[CompetitionProps, cardData]) Output[CompetitionCardView] {
			p, d := props.External.Proposal, props.Data
			status := competition.ComputeWithSubmissions(*p.Competition, d.Status.Now, len(d.Submissions))
			return ready(CompetitionCardView{
				ProposalID:         p.ID,
				Title:              p.HumanTitle(),
				Phase:              status.Phase.String(),
				Proposer:           account(p.Proposer, d.Proposer),
				Countdown:          v.countdown(d.Status.CardCountdown()),
				Rewards:            rewardAmounts(p.ContributionReward),
				AnticipatedWinners: fmt.Sprintf("%d anticipated winners", p.Competition.NumberOfWinners),
				Suggestions:        fmt.Sprintf("%d Suggestions", len(d.Submissions)),
			})
		},
		Error: failed[CompetitionProps, CompetitionCardView],
	})
}

type detailsData struct {
	Submissions []observer.Submission
	// Voted[i] tells whether the current account voted for Submissions[i]
	Voted    []bool
	Status   competition.Status
	Proposer observer.Profile
}

type SubmissionRow struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Suggester Account `json:"suggester"`
	Votes     string  `json:"votes"`
	Voted     bool    `json:"voted"`
}

type Split struct {
	Position int `json:"position"`
	Percent  int `json:"percent"`
}

type Periods struct {
	Start          time.Time `json:"start"`
	SubmissionsEnd time.Time `json:"submissionsEnd"`
	VotingStart    time.Time `json:"votingStart"`
	End            time.Time `json:"end"`
}

type CompetitionDetailsView struct {
	ProposalID         string                   `json:"proposalId"`
	Title              string                   `json:"title"`
	Description        string                   `json:"description"`
	Tags               []string                 `json:"tags,omitempty"`
	Phase              string                   `json:"phase"`
	Proposer           Account                  `json:"proposer"`
	CanSubmit          bool                     `json:"canSubmit"`
	Countdown          *CountdownView           `json:"countdown,omitempty"`
	Rewards            map[rewards.Token]string `json:"rewards"`
	AnticipatedWinners string                   `json:"anticipatedWinners"`
	Distribution       []Split                  `json:"distribution"`
	VotesAllowed       string                   `json:"votesAllowed"`
	Periods            Periods                  `json:"periods"`
	SubmissionsHeading string                   `json:"submissionsHeading,omitempty"`
	Submissions        []SubmissionRow          `json:"submissions"`
	NoWinners          string                   `json:"noWinners,omitempty"`
}

type CompetitionDetailsBinder = binder.Binder[CompetitionProps, detailsData, Output[CompetitionDetailsView]]

// CompetitionDetails subscribes to the submissions itself and to the voted
// flag of the current account for each of them. The voted flags follow the
// latest submission list.
func (v *Views) CompetitionDetails() *CompetitionDetailsBinder {
	return binder.New(v.obs, binder.Config[CompetitionProps, detailsData, Output[CompetitionDetailsView]]{
		Name: "CompetitionDetails",
		CreateObservable: func(props CompetitionProps) stream.Observable[detailsData] {
			p := props.Proposal
			withVotes := stream.SwitchMap(v.submissions(p.ID), func(subs []observer.Submission) stream.Observable[detailsData] {
				return stream.Map(v.voted(subs, props.CurrentAccount), func(voted []bool) detailsData {
					return detailsData{Submissions: subs, Voted: voted}
				})
			})
			state := stream.CombineLatest2(withVotes, v.phases(p))
			return stream.Map(stream.CombineLatest2(state, v.profile(p.Proposer)),
				func(d stream.Pair[stream.Pair[detailsData, competition.Status], observer.Profile]) detailsData {
					out := d.First.First
					out.Status = d.First.Second
					out.Proposer = d.Second
					return out
				})
		},
		CheckForUpdate: binder.PropNames[CompetitionProps]{},
		Wrapped: func(props binder.Props[CompetitionProps, detailsData]) Output[CompetitionDetailsView] {
			return ready(v.renderDetails(props.External.Proposal, *props.Data))
		},
		Error: failed[CompetitionProps, CompetitionDetailsView],
	})
}

func (v *Views) voted(subs []observer.Submission, voter common.Address) stream.Observable[[]bool] {
	flags := make([]stream.Observable[bool], 0, len(subs))
	for _, s := range subs {
		flags = append(flags, v.source.VoterHasVoted(s.ID, voter, observer.QueryOptions{Subscribe: true}))
	}
	return stream.CombineAll(flags)
}

func (v *Views) renderDetails(p observer.Proposal, d detailsData) CompetitionDetailsView {
	c := *p.Competition
	status := competition.ComputeWithSubmissions(c, d.Status.Now, len(d.Submissions))

	view := CompetitionDetailsView{
		ProposalID:         p.ID,
		Title:              p.HumanTitle(),
		Description:        p.Description,
		Tags:               p.Tags,
		Phase:              status.Phase.String(),
		Proposer:           account(p.Proposer, d.Proposer),
		CanSubmit:          status.CanSubmit(),
		Countdown:          v.countdown(status.DetailsCountdown()),
		Rewards:            rewardAmounts(p.ContributionReward),
		AnticipatedWinners: fmt.Sprintf("%d anticipated winner(s)", c.NumberOfWinners),
		VotesAllowed:       fmt.Sprintf("Up to %d vote(s) allowed per account", c.NumberOfVotesPerVoter),
		Periods: Periods{
			Start:          c.StartTime,
			SubmissionsEnd: c.SubmissionsEndTime,
			VotingStart:    c.VotingStartTime,
			End:            c.EndTime,
		},
		Submissions: make([]SubmissionRow, 0, len(d.Submissions)),
	}
	for i, split := range c.RewardSplit {
		view.Distribution = append(view.Distribution, Split{Position: i + 1, Percent: split})
	}

	for i, s := range d.Submissions {
		title := s.Title
		if title == "" {
			title = noSubmissionTitle
		}
		row := SubmissionRow{
			ID:        s.ID,
			Title:     title,
			Suggester: Account{Address: s.Suggester.Hex()},
			Votes:     amount(s.TotalVotes),
		}
		if pr, ok := v.profiles.Peek(s.Suggester); ok {
			row.Suggester.Name = pr.Name
		}
		if i < len(d.Voted) {
			row.Voted = d.Voted[i]
		}
		view.Submissions = append(view.Submissions, row)
	}

	// winners are not known to the indexer yet
	if len(d.Submissions) > 0 {
		view.SubmissionsHeading = fmt.Sprintf("%d Submissions", len(d.Submissions))
		view.NoWinners = "None of the competition submissions received any votes. Competition rewards will be returned to the DAO."
	} else {
		view.NoWinners = "This competition received no submissions. Competition rewards will be returned to the DAO."
	}
	return view
}
