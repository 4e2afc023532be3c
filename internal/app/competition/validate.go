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

package competition

import (
	"fmt"
	"time"

	"github.com/insolar/dao-observer/internal/app/observer"
)

// DerivationError reports competition boundaries that break
// start <= submissionsEnd <= votingStart <= end. Status is still computed for
// such input; callers decide whether to show countdowns.
type DerivationError struct {
	Earlier, Later         string
	EarlierTime, LaterTime time.Time
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("competition %s (%s) is after %s (%s)",
		e.Earlier, e.EarlierTime.Format(time.RFC3339), e.Later, e.LaterTime.Format(time.RFC3339))
}

// Validate checks boundary ordering. It returns a *DerivationError for the
// first pair out of order.
func Validate(c observer.Competition) error {
	bounds := []struct {
		name string
		at   time.Time
	}{
		{"start", c.StartTime},
		{"submissions end", c.SubmissionsEndTime},
		{"voting start", c.VotingStartTime},
		{"end", c.EndTime},
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i-1].at.After(bounds[i].at) {
			return &DerivationError{
				Earlier:     bounds[i-1].name,
				EarlierTime: bounds[i-1].at,
				Later:       bounds[i].name,
				LaterTime:   bounds[i].at,
			}
		}
	}
	return nil
}
