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

type Phase int

const (
	Pending Phase = iota
	AcceptingSubmissions
	AwaitingVoting
	Voting
	// voting window is open but nothing was submitted
	EndedWithoutActivity
	Ended
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "Pending"
	case AcceptingSubmissions:
		return "AcceptingSubmissions"
	case AwaitingVoting:
		return "AwaitingVoting"
	case Voting:
		return "Voting"
	case EndedWithoutActivity:
		return "EndedWithoutActivity"
	case Ended:
		return "Ended"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

const unknownSubmissions = -1

type Status struct {
	Phase              Phase
	Now                time.Time
	StartTime          time.Time
	SubmissionsEndTime time.Time
	VotingStartTime    time.Time
	EndTime            time.Time
	// -1 when not known
	Submissions int
}

// Compute derives the status without knowing the submissions; the voting
// window always counts as Voting.
func Compute(c observer.Competition, now time.Time) Status {
	return compute(c, now, unknownSubmissions)
}

func ComputeWithSubmissions(c observer.Competition, now time.Time, submissions int) Status {
	if submissions < 0 {
		submissions = 0
	}
	return compute(c, now, submissions)
}

func compute(c observer.Competition, now time.Time, submissions int) Status {
	s := Status{
		Now:                now,
		StartTime:          c.StartTime,
		SubmissionsEndTime: c.SubmissionsEndTime,
		VotingStartTime:    c.VotingStartTime,
		EndTime:            c.EndTime,
		Submissions:        submissions,
	}

	switch {
	case now.Before(c.StartTime):
		s.Phase = Pending
	case now.Before(c.SubmissionsEndTime):
		s.Phase = AcceptingSubmissions
	case now.Before(c.VotingStartTime):
		s.Phase = AwaitingVoting
	case now.Before(c.EndTime):
		if submissions == 0 {
			s.Phase = EndedWithoutActivity
		} else {
			s.Phase = Voting
		}
	default:
		s.Phase = Ended
	}
	return s
}

func (s Status) CanSubmit() bool {
	return !s.Now.Before(s.StartTime) && s.Now.Before(s.SubmissionsEndTime)
}

func (s Status) InSubmissionsNotYetVoting() bool {
	return !s.Now.Before(s.StartTime) && s.Now.Before(s.VotingStartTime)
}

func (s Status) InVoting() bool {
	return !s.Now.Before(s.VotingStartTime) && s.Now.Before(s.EndTime) && s.Submissions != 0
}

// Countdown is a labelled target time.
type Countdown struct {
	Label  string
	Target time.Time
}

// Remaining never goes below zero.
func (c Countdown) Remaining(now time.Time) time.Duration {
	d := c.Target.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CardCountdown is the countdown shown on a competition card.
func (s Status) CardCountdown() (Countdown, bool) {
	switch {
	case s.Now.Before(s.StartTime):
		return Countdown{Label: "Suggestions open in", Target: s.StartTime}, true
	case s.Now.Before(s.VotingStartTime):
		return Countdown{Label: "Voting starts in", Target: s.VotingStartTime}, true
	case s.Now.Before(s.EndTime):
		return Countdown{Label: "Voting ends in", Target: s.EndTime}, true
	}
	return Countdown{}, false
}

// DetailsCountdown is the countdown shown on the competition page.
func (s Status) DetailsCountdown() (Countdown, bool) {
	switch {
	case s.InSubmissionsNotYetVoting():
		return Countdown{Label: "Voting starts in:", Target: s.VotingStartTime}, true
	case s.InVoting():
		return Countdown{Label: "Voting ends in:", Target: s.EndTime}, true
	}
	return Countdown{}, false
}

// NextBoundary returns the earliest boundary strictly after Now.
func (s Status) NextBoundary() (time.Time, bool) {
	var next time.Time
	for _, b := range []time.Time{s.StartTime, s.SubmissionsEndTime, s.VotingStartTime, s.EndTime} {
		if b.After(s.Now) && (next.IsZero() || b.Before(next)) {
			next = b
		}
	}
	return next, !next.IsZero()
}
