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


package profile

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/internal/app/observer"
)

// HTTPLoader reads profiles from the profile service. An unknown address
// yields an empty profile.
type HTTPLoader struct {
	url    string
	client *http.Client
}

func NewHTTPLoader(cfg configuration.Profiles) *HTTPLoader {
	return &HTTPLoader{
		url:    strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (l *HTTPLoader) Load(ctx context.Context, address common.Address) (observer.Profile, error) {
	q := url.Values{"address": []string{address.Hex()}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url+"/profile?"+q.Encode(), nil)
	if err != nil {
		return observer.Profile{}, errors.Wrap(err, "failed to create profile request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return observer.Profile{}, errors.Wrap(err, "failed to request profile")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return observer.Profile{Address: address}, nil
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return observer.Profile{}, errors.Wrap(err, "failed to read profile")
	}
	if resp.StatusCode != http.StatusOK {
		return observer.Profile{}, errors.Errorf("profile service answered %d", resp.StatusCode)
	}

	var p observer.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return observer.Profile{}, errors.Wrap(err, "failed to decode profile")
	}
	p.Address = address
	return p, nil
}
