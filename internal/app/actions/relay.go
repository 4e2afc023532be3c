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


package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/abevier/tsk/ratelimiter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
)

const (
	relayRateLimit     = 16
	relayBurstLimit    = 16
	relayMaxQueueDepth = 100
)

type request struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Params Params `json:"params"`
}

// Relay posts transactions to the relay service, paced by a rate limiter.
type Relay struct {
	url     string
	client  *http.Client
	log     logrus.FieldLogger
	limiter *ratelimiter.RateLimiter[*request, Receipt]
}

func NewRelay(cfg configuration.Actions, log logrus.FieldLogger) *Relay {
	r := &Relay{
		url:    strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.WithField("component", "relay"),
	}
	opts := ratelimiter.Opts{
		Limit:             relayRateLimit,
		Burst:             relayBurstLimit,
		MaxQueueDepth:     relayMaxQueueDepth,
		FullQueueStrategy: ratelimiter.BlockWhenFull,
	}
	r.limiter = ratelimiter.New(opts, r.post)
	return r
}

func (r *Relay) SubmitTransaction(ctx context.Context, kind Kind, params Params) error {
	_, err := r.Send(ctx, kind, params)
	return err
}

func (r *Relay) Send(ctx context.Context, kind Kind, params Params) (Receipt, error) {
	if err := Validate(kind, params); err != nil {
		return Receipt{}, err
	}
	return r.limiter.Submit(ctx, &request{ID: uuid.New().String(), Kind: kind, Params: params})
}

func (r *Relay) post(ctx context.Context, req *request) (Receipt, error) {
	log := r.log.WithFields(logrus.Fields{"request": req.ID, "kind": req.Kind})

	body, err := json.Marshal(req)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "failed to marshal transaction")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/transactions", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, errors.Wrap(err, "failed to create relay request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		log.WithError(err).Error("relay is unreachable")
		return Receipt{}, errors.Wrap(err, "failed to submit transaction")
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "failed to read relay response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("status", resp.StatusCode).Warn("relay rejected transaction")
		return Receipt{}, errors.Wrapf(ErrRejected, "relay answered %d", resp.StatusCode)
	}

	receipt := Receipt{RequestID: req.ID, Kind: req.Kind, Status: StatusSubmitted}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &receipt); err != nil {
			return Receipt{}, errors.Wrap(err, "failed to decode relay receipt")
		}
	}
	if receipt.RequestID == "" {
		receipt.RequestID = req.ID
	}
	if receipt.Kind == "" {
		receipt.Kind = req.Kind
	}
	log.WithField("status", receipt.Status).Info("transaction submitted")
	return receipt, nil
}
