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

package observer

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

type Stage int

const (
	StageQueued Stage = iota
	StagePreBoosted
	StageBoosted
	StageQuietEndingPeriod
	StageExecuted
	StageExpiredInQueue
)

var stageNames = map[Stage]string{
	StageQueued:            "Queued",
	StagePreBoosted:        "PreBoosted",
	StageBoosted:           "Boosted",
	StageQuietEndingPeriod: "QuietEndingPeriod",
	StageExecuted:          "Executed",
	StageExpiredInQueue:    "ExpiredInQueue",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

func ParseStage(s string) (Stage, error) {
	for stage, name := range stageNames {
		if name == s {
			return stage, nil
		}
	}
	return 0, errors.Errorf("unknown proposal stage %q", s)
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePass
	OutcomeFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "Pass"
	case OutcomeFail:
		return "Fail"
	}
	return "None"
}

func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "", "None":
		return OutcomeNone, nil
	case "Pass":
		return OutcomePass, nil
	case "Fail":
		return OutcomeFail, nil
	}
	return OutcomeNone, errors.Errorf("unknown proposal outcome %q", s)
}

type Proposal struct {
	ID             string
	DAO            common.Address
	Proposer       common.Address
	Title          string
	Description    string
	Tags           []string
	Stage          Stage
	WinningOutcome Outcome
	// zero if not executed
	ExecutedAt time.Time
	ClosingAt  time.Time

	UpstakeNeededToPreBoost *big.Int
	DownStakeNeededToQueue  *big.Int

	ContributionReward *ContributionReward
	Competition        *Competition
}

func (p *Proposal) Executed() bool {
	return !p.ExecutedAt.IsZero()
}

// Expired reports whether the current stage ran out of time.
func (p *Proposal) Expired(now time.Time) bool {
	return !p.ClosingAt.IsZero() && !now.Before(p.ClosingAt)
}

func (p *Proposal) HumanTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return "No title"
}

// ContributionReward is the reward a proposal pays to its beneficiary once
// passed.
type ContributionReward struct {
	Beneficiary         common.Address
	EthReward           *big.Int
	NativeTokenReward   *big.Int
	ReputationReward    *big.Int
	ExternalTokenReward *big.Int
	ExternalToken       common.Address

	Periods                             int
	AlreadyRedeemedEthPeriods           int
	AlreadyRedeemedNativeTokenPeriods   int
	AlreadyRedeemedReputationPeriods    int
	AlreadyRedeemedExternalTokenPeriods int
}
