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
)

// Competition extends a proposal with time-boxed submissions and voting.
type Competition struct {
	StartTime          time.Time
	SubmissionsEndTime time.Time
	VotingStartTime    time.Time
	EndTime            time.Time

	NumberOfWinners       int
	NumberOfVotesPerVoter int
	// percent of the reward per winner position
	RewardSplit []int
}

type Submission struct {
	ID          string
	ProposalID  string
	Suggester   common.Address
	Title       string
	Description string
	TotalVotes  *big.Int
	CreatedAt   time.Time
}
