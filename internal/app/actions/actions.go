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


// Package actions hands transactions over to the external relay. Nothing is
// applied locally: the data source re-emits once the indexer sees the change.
package actions

import (
	"context"
	"sort"

	"github.com/abevier/tsk/futures"
	"github.com/pkg/errors"
)

type Kind string

const (
	ExecuteProposal             Kind = "executeProposal"
	RedeemProposal              Kind = "redeemProposal"
	CreateCompetitionSubmission Kind = "createCompetitionSubmission"
	VoteForSubmission           Kind = "voteForSubmission"
	RedeemForSubmission         Kind = "redeemForSubmission"
)

var required = map[Kind][]string{
	ExecuteProposal:             {"dao", "proposal", "account"},
	RedeemProposal:              {"dao", "proposal", "account"},
	CreateCompetitionSubmission: {"proposal", "title"},
	VoteForSubmission:           {"submission"},
	RedeemForSubmission:         {"submission"},
}

var (
	ErrUnknownKind = errors.New("unknown transaction kind")
	ErrRejected    = errors.New("transaction rejected by relay")
)

type Params map[string]interface{}

// Validate checks the kind and its required params.
func Validate(kind Kind, params Params) error {
	keys, ok := required[kind]
	if !ok {
		return errors.Wrapf(ErrUnknownKind, "kind %q", kind)
	}
	var missing []string
	for _, key := range keys {
		if v, ok := params[key]; !ok || v == nil || v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Errorf("%s: missing params %v", kind, missing)
	}
	return nil
}

type Dispatcher interface {
	SubmitTransaction(ctx context.Context, kind Kind, params Params) error
}

// Sender is a Dispatcher that also returns the relay receipt.
type Sender interface {
	Dispatcher
	Send(ctx context.Context, kind Kind, params Params) (Receipt, error)
}

type Receipt struct {
	RequestID string `json:"id"`
	Kind      Kind   `json:"kind"`
	Status    string `json:"status"`
}

// Submit dispatches in the background and resolves the future with the
// receipt or the dispatch error.
func Submit(ctx context.Context, d Dispatcher, kind Kind, params Params) *futures.Future[Receipt] {
	f := futures.New[Receipt]()
	go func() {
		receipt, err := send(ctx, d, kind, params)
		if err != nil {
			f.Fail(err)
			return
		}
		f.Complete(receipt)
	}()
	return f
}

func send(ctx context.Context, d Dispatcher, kind Kind, params Params) (Receipt, error) {
	if s, ok := d.(Sender); ok {
		return s.Send(ctx, kind, params)
	}
	if err := d.SubmitTransaction(ctx, kind, params); err != nil {
		return Receipt{}, err
	}
	return Receipt{Kind: kind, Status: StatusSubmitted}, nil
}

const StatusSubmitted = "submitted"
