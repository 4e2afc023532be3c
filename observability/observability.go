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
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/insolar/dao-observer/configuration"
)

func Make(cfg *configuration.Configuration) *Observability {
	return &Observability{
		log:         makeLogger(cfg.Log),
		metrics:     prometheus.NewRegistry(),
		counters:    make(map[string]prometheus.Counter),
		counterVecs: make(map[string]*prometheus.CounterVec),
		gauges:      make(map[string]prometheus.Gauge),
	}
}

func makeLogger(cfg configuration.Log) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("unknown log level, falling back to info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

type Observability struct {
	log     *logrus.Logger
	metrics *prometheus.Registry

	mu          sync.Mutex
	counters    map[string]prometheus.Counter
	counterVecs map[string]*prometheus.CounterVec
	gauges      map[string]prometheus.Gauge
}

func (o *Observability) Log() *logrus.Logger {
	return o.log
}

func (o *Observability) Metrics() *prometheus.Registry {
	return o.metrics
}

func (o *Observability) Counter(opts prometheus.CounterOpts) prometheus.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.counters[opts.Name]
	if ok {
		return c
	}
	c = prometheus.NewCounter(opts)
	err := o.metrics.Register(c)
	if err != nil {
		o.log.WithField("metric_collector", opts.Name).
			Errorf("failed to register metric")
		return c
	}
	o.counters[opts.Name] = c
	return c
}

func (o *Observability) CounterVec(opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.counterVecs[opts.Name]
	if ok {
		return c
	}
	c = prometheus.NewCounterVec(opts, labels)
	err := o.metrics.Register(c)
	if err != nil {
		o.log.WithField("metric_collector", opts.Name).
			Errorf("failed to register metric")
		return c
	}
	o.counterVecs[opts.Name] = c
	return c
}

func (o *Observability) Gauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.gauges[opts.Name]
	if ok {
		return g
	}
	g = prometheus.NewGauge(opts)
	err := o.metrics.Register(g)
	if err != nil {
		o.log.WithField("metric_collector", opts.Name).
			Errorf("failed to register metric")
		return g
	}
	o.gauges[opts.Name] = g
	return g
}

// MakeSourceMetrics creates one counter per SourceMetrics field, named after
// the field and the source kind.
func MakeSourceMetrics(obs *Observability, source string) *SourceMetrics {
	counters := &SourceMetrics{}
	v := reflect.ValueOf(counters).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := strings.ToLower(t.Field(i).Name)
		name := fmt.Sprintf("observer_%s_%s_total", source, field)
		help := fmt.Sprintf("Number of %s made by %s source.", field, source)
		opts := prometheus.CounterOpts{
			Name: name,
			Help: help,
		}
		collector := obs.Counter(opts)
		v.Field(i).Set(reflect.ValueOf(collector))
	}
	return counters
}

type SourceMetrics struct {
	Queries   prometheus.Counter
	Emissions prometheus.Counter
	Errors    prometheus.Counter
	Hits      prometheus.Counter
	Misses    prometheus.Counter
}

// BinderMetrics are labelled by view name.
type BinderMetrics struct {
	Subscriptions *prometheus.CounterVec
	Teardowns     *prometheus.CounterVec
	Emissions     *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	Active        prometheus.Gauge
}

func MakeBinderMetrics(obs *Observability) *BinderMetrics {
	return &BinderMetrics{
		Subscriptions: obs.CounterVec(prometheus.CounterOpts{
			Name: "observer_binder_subscriptions_total",
			Help: "Number of subscriptions started by view binders",
		}, "view"),
		Teardowns: obs.CounterVec(prometheus.CounterOpts{
			Name: "observer_binder_teardowns_total",
			Help: "Number of subscriptions released by view binders",
		}, "view"),
		Emissions: obs.CounterVec(prometheus.CounterOpts{
			Name: "observer_binder_emissions_total",
			Help: "Number of values applied by view binders",
		}, "view"),
		Failures: obs.CounterVec(prometheus.CounterOpts{
			Name: "observer_binder_failures_total",
			Help: "Number of subscriptions terminated with an error",
		}, "view"),
		Active: obs.Gauge(prometheus.GaugeOpts{
			Name: "observer_binder_active_subscriptions",
			Help: "Subscriptions currently held by mounted binders",
		}),
	}
}
