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


package component

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/insolar/dao-observer/configuration"
	"github.com/insolar/dao-observer/observability"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := ioutil.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func testObservability() (*configuration.Configuration, *observability.Observability) {
	cfg := configuration.Default()
	cfg.Log.Level = "panic"
	return cfg, observability.Make(cfg)
}

func TestRouter_HealthCheck(t *testing.T) {
	cfg, obs := testObservability()

	t.Run("ok", func(t *testing.T) {
		r := NewRouter(cfg, obs, func(context.Context) error { return nil })
		code, body := get(t, r.Handler(), "/healthcheck")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "OK", body)
	})

	t.Run("db is down", func(t *testing.T) {
		r := NewRouter(cfg, obs, func(context.Context) error { return errors.New("connection refused") })
		code, body := get(t, r.Handler(), "/healthcheck")
		require.Equal(t, http.StatusServiceUnavailable, code)
		require.Equal(t, "DB is unavailable", body)
	})

	t.Run("without pinger", func(t *testing.T) {
		r := NewRouter(cfg, obs, nil)
		code, _ := get(t, r.Handler(), "/healthcheck")
		require.Equal(t, http.StatusOK, code)
	})
}

func TestRouter_Metrics(t *testing.T) {
	cfg, obs := testObservability()
	obs.Counter(prometheus.CounterOpts{Name: "observer_test_total", Help: "test"}).Add(3)

	r := NewRouter(cfg, obs, nil)
	code, body := get(t, r.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.True(t, strings.Contains(body, "observer_test_total 3"), body)
}
