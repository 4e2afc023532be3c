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

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/insolar/dao-observer/configuration"
)

func Test_MakeSourceMetrics(t *testing.T) {
	obs := Make(configuration.Default())
	metrics := MakeSourceMetrics(obs, "postgres")
	require.NotNil(t, metrics)
	require.NotNil(t, metrics.Queries)
	require.NotNil(t, metrics.Misses)

	again := MakeSourceMetrics(obs, "postgres")
	require.Equal(t, metrics.Queries, again.Queries, "counters are memoized by name")
}

func Test_MakeBinderMetrics(t *testing.T) {
	obs := Make(configuration.Default())
	first := MakeBinderMetrics(obs)
	second := MakeBinderMetrics(obs)
	require.Equal(t, first.Subscriptions, second.Subscriptions)

	first.Subscriptions.WithLabelValues("dao_member").Inc()
	families, err := obs.Metrics().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "observer_binder_subscriptions_total" {
			found = true
		}
	}
	require.True(t, found)
}

func Test_Counter(t *testing.T) {
	obs := Make(configuration.Default())
	opts := prometheus.CounterOpts{Name: "observer_test_total", Help: "test"}
	require.Equal(t, obs.Counter(opts), obs.Counter(opts))
}

func Test_makeLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		log := makeLogger(configuration.Log{Level: "warn", Format: "json"})
		require.Equal(t, logrus.WarnLevel, log.GetLevel())
		require.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	})

	t.Run("unknown level", func(t *testing.T) {
		log := makeLogger(configuration.Log{Level: "loud"})
		require.Equal(t, logrus.InfoLevel, log.GetLevel())
	})
}
