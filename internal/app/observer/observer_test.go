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
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	for stage, name := range stageNames {
		parsed, err := ParseStage(name)
		require.NoError(t, err)
		require.Equal(t, stage, parsed)
		require.Equal(t, name, stage.String())
	}

	_, err := ParseStage("Boosting")
	require.Error(t, err)
}

func TestParseOutcome(t *testing.T) {
	o, err := ParseOutcome("Pass")
	require.NoError(t, err)
	require.Equal(t, OutcomePass, o)

	o, err = ParseOutcome("")
	require.NoError(t, err)
	require.Equal(t, OutcomeNone, o)

	_, err = ParseOutcome("Maybe")
	require.Error(t, err)
}

func TestReputationShare(t *testing.T) {
	require.Equal(t, 25.0, ReputationShare(big.NewInt(25), big.NewInt(100)))
	require.Equal(t, 0.0, ReputationShare(big.NewInt(25), big.NewInt(0)))
	require.Equal(t, 0.0, ReputationShare(nil, big.NewInt(100)))
}

func TestProposal_Expired(t *testing.T) {
	closing := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Proposal{ClosingAt: closing}

	require.False(t, p.Expired(closing.Add(-time.Second)))
	require.True(t, p.Expired(closing))
	require.False(t, (&Proposal{}).Expired(closing), "no closing time never expires")
}

func TestMemberID(t *testing.T) {
	dao := common.HexToAddress("0xAa")
	member := common.HexToAddress("0xBb")
	require.Equal(t, MemberID(dao, member), MemberID(dao, member))
	require.NotEqual(t, MemberID(dao, member), MemberID(member, dao))
	require.Equal(t, "0x00000000000000000000000000000000000000aa-0x00000000000000000000000000000000000000bb", MemberID(dao, member))
}
