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


package postgres

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/internal/app/observer"
)

type DAOSchema struct {
	tableName struct{} `sql:"daos"` //nolint: unused,structcheck

	Address               string `sql:",pk"`
	Name                  string `sql:",notnull"`
	ReputationTotalSupply string `sql:",notnull"`
	MemberCount           int    `sql:",notnull"`
}

type MemberSchema struct {
	tableName struct{} `sql:"members"` //nolint: unused,structcheck

	DAO        string `sql:"dao,pk"`
	Address    string `sql:",pk"`
	Reputation string `sql:",notnull"`
}

type ProposalSchema struct {
	tableName struct{} `sql:"proposals"` //nolint: unused,structcheck

	ID                      string `sql:",pk"`
	DAO                     string `sql:"dao,notnull"`
	Proposer                string `sql:",notnull"`
	Title                   string
	Description             string
	Tags                    []string `sql:",array"`
	Stage                   string   `sql:",notnull"`
	WinningOutcome          string
	ExecutedAt              time.Time
	ClosingAt               time.Time
	UpstakeNeededToPreBoost string
	DownStakeNeededToQueue  string

	CrBeneficiary                  string
	CrEthReward                    string
	CrNativeTokenReward            string
	CrReputationReward             string
	CrExternalTokenReward          string
	CrExternalToken                string
	CrPeriods                      int
	CrRedeemedEthPeriods           int
	CrRedeemedNativeTokenPeriods   int
	CrRedeemedReputationPeriods    int
	CrRedeemedExternalTokenPeriods int

	CompetitionStartTime          time.Time
	CompetitionSubmissionsEndTime time.Time
	CompetitionVotingStartTime    time.Time
	CompetitionEndTime            time.Time
	CompetitionNumberOfWinners    int
	CompetitionVotesPerVoter      int
	CompetitionRewardSplit        []int `sql:",array"`
}

type GPRewardSchema struct {
	tableName struct{} `sql:"gp_rewards"` //nolint: unused,structcheck

	ID                            string `sql:",pk"`
	ProposalID                    string `sql:",notnull"`
	Beneficiary                   string `sql:",notnull"`
	ReputationForVoter            string
	ReputationForProposer         string
	TokensForStaker               string
	DaoBountyForStaker            string
	ReputationForVoterRedeemed    bool `sql:",notnull"`
	ReputationForProposerRedeemed bool `sql:",notnull"`
	TokensForStakerRedeemed       bool `sql:",notnull"`
	DaoBountyForStakerRedeemed    bool `sql:",notnull"`
}

type SubmissionSchema struct {
	tableName struct{} `sql:"submissions"` //nolint: unused,structcheck

	ID          string `sql:",pk"`
	ProposalID  string `sql:",notnull"`
	Suggester   string `sql:",notnull"`
	Title       string
	Description string
	TotalVotes  string
	CreatedAt   time.Time `sql:",notnull"`
}

type EventSchema struct {
	tableName struct{} `sql:"events"` //nolint: unused,structcheck

	ID         string `sql:",pk"`
	DAO        string `sql:"dao,notnull"`
	ProposalID string
	Type       string                 `sql:",notnull"`
	Data       map[string]interface{} `sql:",notnull"`
	Timestamp  time.Time              `sql:",notnull"`
}

type balanceRow struct {
	Balance string
}

type countRow struct {
	Count int
}

// hexAddress is how addresses are stored.
func hexAddress(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// parseAmount reads a numeric column. NULL reads as zero.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}

type amounts struct {
	err error
}

func (a *amounts) parse(s string) *big.Int {
	if a.err != nil {
		return nil
	}
	v, err := parseAmount(s)
	if err != nil {
		a.err = err
	}
	return v
}

func daoModel(row *DAOSchema) (observer.DAO, error) {
	supply, err := parseAmount(row.ReputationTotalSupply)
	if err != nil {
		return observer.DAO{}, errors.Wrapf(err, "dao %s", row.Address)
	}
	return observer.DAO{
		Address:               common.HexToAddress(row.Address),
		Name:                  row.Name,
		ReputationTotalSupply: supply,
		MemberCount:           row.MemberCount,
	}, nil
}

func memberModel(row *MemberSchema) (*observer.Member, error) {
	rep, err := parseAmount(row.Reputation)
	if err != nil {
		return nil, errors.Wrapf(err, "member %s", row.Address)
	}
	dao := common.HexToAddress(row.DAO)
	address := common.HexToAddress(row.Address)
	return &observer.Member{
		ID:         observer.MemberID(dao, address),
		DAO:        dao,
		Address:    address,
		Reputation: rep,
	}, nil
}

func proposalModel(row *ProposalSchema) (observer.Proposal, error) {
	stage, err := observer.ParseStage(row.Stage)
	if err != nil {
		return observer.Proposal{}, errors.Wrapf(err, "proposal %s", row.ID)
	}
	outcome, err := observer.ParseOutcome(row.WinningOutcome)
	if err != nil {
		return observer.Proposal{}, errors.Wrapf(err, "proposal %s", row.ID)
	}

	var a amounts
	p := observer.Proposal{
		ID:                      row.ID,
		DAO:                     common.HexToAddress(row.DAO),
		Proposer:                common.HexToAddress(row.Proposer),
		Title:                   row.Title,
		Description:             row.Description,
		Tags:                    row.Tags,
		Stage:                   stage,
		WinningOutcome:          outcome,
		ExecutedAt:              row.ExecutedAt,
		ClosingAt:               row.ClosingAt,
		UpstakeNeededToPreBoost: a.parse(row.UpstakeNeededToPreBoost),
		DownStakeNeededToQueue:  a.parse(row.DownStakeNeededToQueue),
	}
	if row.CrBeneficiary != "" {
		p.ContributionReward = &observer.ContributionReward{
			Beneficiary:                         common.HexToAddress(row.CrBeneficiary),
			EthReward:                           a.parse(row.CrEthReward),
			NativeTokenReward:                   a.parse(row.CrNativeTokenReward),
			ReputationReward:                    a.parse(row.CrReputationReward),
			ExternalTokenReward:                 a.parse(row.CrExternalTokenReward),
			ExternalToken:                       common.HexToAddress(row.CrExternalToken),
			Periods:                             row.CrPeriods,
			AlreadyRedeemedEthPeriods:           row.CrRedeemedEthPeriods,
			AlreadyRedeemedNativeTokenPeriods:   row.CrRedeemedNativeTokenPeriods,
			AlreadyRedeemedReputationPeriods:    row.CrRedeemedReputationPeriods,
			AlreadyRedeemedExternalTokenPeriods: row.CrRedeemedExternalTokenPeriods,
		}
	}
	if !row.CompetitionStartTime.IsZero() {
		p.Competition = &observer.Competition{
			StartTime:             row.CompetitionStartTime,
			SubmissionsEndTime:    row.CompetitionSubmissionsEndTime,
			VotingStartTime:       row.CompetitionVotingStartTime,
			EndTime:               row.CompetitionEndTime,
			NumberOfWinners:       row.CompetitionNumberOfWinners,
			NumberOfVotesPerVoter: row.CompetitionVotesPerVoter,
			RewardSplit:           row.CompetitionRewardSplit,
		}
	}
	if a.err != nil {
		return observer.Proposal{}, errors.Wrapf(a.err, "proposal %s", row.ID)
	}
	return p, nil
}

func rewardModel(row *GPRewardSchema) (*observer.GPReward, error) {
	var a amounts
	r := &observer.GPReward{
		ID:                            row.ID,
		ProposalID:                    row.ProposalID,
		Beneficiary:                   common.HexToAddress(row.Beneficiary),
		ReputationForVoter:            a.parse(row.ReputationForVoter),
		ReputationForProposer:         a.parse(row.ReputationForProposer),
		TokensForStaker:               a.parse(row.TokensForStaker),
		DaoBountyForStaker:            a.parse(row.DaoBountyForStaker),
		ReputationForVoterRedeemed:    row.ReputationForVoterRedeemed,
		ReputationForProposerRedeemed: row.ReputationForProposerRedeemed,
		TokensForStakerRedeemed:       row.TokensForStakerRedeemed,
		DaoBountyForStakerRedeemed:    row.DaoBountyForStakerRedeemed,
	}
	if a.err != nil {
		return nil, errors.Wrapf(a.err, "reward %s", row.ID)
	}
	return r, nil
}

func submissionModel(row *SubmissionSchema) (observer.Submission, error) {
	votes, err := parseAmount(row.TotalVotes)
	if err != nil {
		return observer.Submission{}, errors.Wrapf(err, "submission %s", row.ID)
	}
	return observer.Submission{
		ID:          row.ID,
		ProposalID:  row.ProposalID,
		Suggester:   common.HexToAddress(row.Suggester),
		Title:       row.Title,
		Description: row.Description,
		TotalVotes:  votes,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func eventModel(row *EventSchema) observer.Event {
	return observer.Event{
		ID:         row.ID,
		DAO:        common.HexToAddress(row.DAO),
		ProposalID: row.ProposalID,
		Type:       row.Type,
		Data:       row.Data,
		Timestamp:  row.Timestamp,
	}
}
