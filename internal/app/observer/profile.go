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
	"github.com/ethereum/go-ethereum/common"
)

type Profile struct {
	Address     common.Address    `json:"address"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	SocialURLs  map[string]string `json:"socialURLs"`
}

func (p Profile) HasSocial() bool {
	return len(p.SocialURLs) > 0
}
