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
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Member is the state of one reputation holder of a DAO.
type Member struct {
	ID         string
	DAO        common.Address
	Address    common.Address
	Reputation *big.Int
}

func MemberID(dao, address common.Address) string {
	return strings.ToLower(dao.Hex() + "-" + address.Hex())
}

// ReputationShare returns the member reputation in percent of total, 0 when
// either is unknown.
func ReputationShare(reputation, total *big.Int) float64 {
	if reputation == nil || total == nil || total.Sign() <= 0 {
		return 0
	}
	share := new(big.Float).Quo(new(big.Float).SetInt(reputation), new(big.Float).SetInt(total))
	percent, _ := share.Mul(share, big.NewFloat(100)).Float64()
	return percent
}
