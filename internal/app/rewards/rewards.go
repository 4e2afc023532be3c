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


// Package rewards extracts what a DAO owes for a proposal and checks it
// against the DAO balances.
package rewards

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/internal/app/observer"
)

type Token string

const (
	ETH           Token = "eth"
	ExternalToken Token = "externalToken"
	GEN           Token = "GEN"
	NativeToken   Token = "nativeToken"
	Reputation    Token = "rep"
)

// Ledger maps a token to the owed amount.
type Ledger map[Token]*big.Int

// Len counts tokens with a positive owed amount.
func (l Ledger) Len() int {
	n := 0
	for _, owed := range l {
		if owed != nil && owed.Sign() > 0 {
			n++
		}
	}
	return n
}

// Tokens returns tokens with a positive owed amount in a stable order.
func (l Ledger) Tokens() []Token {
	tokens := make([]Token, 0, len(l))
	for token, owed := range l {
		if owed != nil && owed.Sign() > 0 {
			tokens = append(tokens, token)
		}
	}
	sortTokens(tokens)
	return tokens
}

func (l Ledger) add(token Token, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	if cur, ok := l[token]; ok && cur != nil {
		l[token] = new(big.Int).Add(cur, amount)
		return
	}
	l[token] = new(big.Int).Set(amount)
}

// Balances maps a token to the DAO balance. A missing or nil entry means the
// balance is undefined for the token and it is not checked.
type Balances map[Token]*big.Int

func (b Balances) covers(token Token, owed *big.Int) bool {
	available, ok := b[token]
	if !ok || available == nil {
		return true
	}
	return available.Cmp(owed) >= 0
}

type Classification struct {
	Payable   []Token
	Unpayable []Token

	AllPayable        bool
	NonePayable       bool
	SomePayableNotAll bool
}

func (c Classification) Owed() int {
	return len(c.Payable) + len(c.Unpayable)
}

func Classify(l Ledger, b Balances) Classification {
	var c Classification
	for _, token := range l.Tokens() {
		if b.covers(token, l[token]) {
			c.Payable = append(c.Payable, token)
		} else {
			c.Unpayable = append(c.Unpayable, token)
		}
	}

	if c.Owed() == 0 {
		return c
	}
	c.AllPayable = len(c.Unpayable) == 0
	c.NonePayable = len(c.Payable) == 0
	c.SomePayableNotAll = !c.AllPayable && !c.NonePayable
	return c
}

// Overall is the combination of the genesis protocol rewards of the current
// account and the contribution rewards of the beneficiary.
type Overall struct {
	HasRewards        bool
	AllPayable        bool
	NonePayable       bool
	SomePayableNotAll bool
}

func Combine(gp, cr Classification) Overall {
	gpOwed, crOwed := gp.Owed(), cr.Owed()
	gpLacksAll := gpOwed > 0 && len(gp.Payable) == 0
	crLacksAll := crOwed > 0 && len(cr.Payable) == 0

	canRewardAll := (crOwed == 0 || len(cr.Unpayable) == 0) && (gpOwed == 0 || len(gp.Unpayable) == 0)

	var canRewardNone bool
	switch {
	case crLacksAll:
		canRewardNone = gpLacksAll || gpOwed == 0
	case gpLacksAll:
		canRewardNone = crOwed == 0
	}

	o := Overall{HasRewards: gpOwed > 0 || crOwed > 0}
	if !o.HasRewards {
		return o
	}
	o.AllPayable = canRewardAll
	o.NonePayable = canRewardNone
	o.SomePayableNotAll = !canRewardAll && !canRewardNone
	return o
}

// GPLedger collects the unredeemed genesis protocol rewards. Staker tokens and
// bounties are both paid in GEN and are summed.
func GPLedger(r *observer.GPReward) Ledger {
	l := Ledger{}
	if r == nil {
		return l
	}
	if !r.ReputationForVoterRedeemed {
		l.add(Reputation, r.ReputationForVoter)
	}
	if !r.ReputationForProposerRedeemed {
		l.add(Reputation, r.ReputationForProposer)
	}
	if !r.TokensForStakerRedeemed {
		l.add(GEN, r.TokensForStaker)
	}
	if !r.DaoBountyForStakerRedeemed {
		l.add(GEN, r.DaoBountyForStaker)
	}
	return l
}

// CRLedger collects the contribution rewards with periods left to redeem. An
// external token reward without a token address is dropped and reported as
// corrupt.
func CRLedger(cr *observer.ContributionReward) (l Ledger, corrupt bool) {
	l = Ledger{}
	if cr == nil {
		return l, false
	}
	if cr.AlreadyRedeemedEthPeriods < cr.Periods {
		l.add(ETH, cr.EthReward)
	}
	if cr.AlreadyRedeemedNativeTokenPeriods < cr.Periods {
		l.add(NativeToken, cr.NativeTokenReward)
	}
	if cr.AlreadyRedeemedReputationPeriods < cr.Periods {
		l.add(Reputation, cr.ReputationReward)
	}
	if HasExternalTokenReward(cr) {
		if cr.ExternalToken == (common.Address{}) {
			return l, true
		}
		if cr.AlreadyRedeemedExternalTokenPeriods < cr.Periods {
			l.add(ExternalToken, cr.ExternalTokenReward)
		}
	}
	return l, false
}

// HasExternalTokenReward reports whether a nonzero external token reward is
// set, whatever the token address.
func HasExternalTokenReward(cr *observer.ContributionReward) bool {
	return cr != nil && cr.ExternalTokenReward != nil && cr.ExternalTokenReward.Sign() != 0
}

// ReportCorrupt logs a contribution reward that carries an external token
// amount but no token address.
func ReportCorrupt(log logrus.FieldLogger, proposalID string, cr *observer.ContributionReward) {
	log.WithFields(logrus.Fields{
		"proposal": proposalID,
		"amount":   cr.ExternalTokenReward.String(),
	}).Error("external token reward is set but external token address is not")
}

// DAOBalances builds the balance snapshot used for redemption checks.
// Reputation and the native token are minted by the DAO and stay undefined.
func DAOBalances(eth, externalToken, gen *big.Int) Balances {
	return Balances{
		ETH:           orZero(eth),
		ExternalToken: orZero(externalToken),
		GEN:           orZero(gen),
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

var tokenOrder = map[Token]int{ETH: 0, ExternalToken: 1, GEN: 2, NativeToken: 3, Reputation: 4}

func sortTokens(tokens []Token) {
	sort.Slice(tokens, func(i, j int) bool {
		oi, iok := tokenOrder[tokens[i]]
		oj, jok := tokenOrder[tokens[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		}
		return tokens[i] < tokens[j]
	})
}
