/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sim

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// promExporter republishes the run statistics as prometheus gauges.
// The registry refreshes on scrape, so gauges are only as stale as the
// scrape itself.
type promExporter struct {
	registry *prometheus.Registry
	stats    *Stats
}

func newPromExporter(s *Stats) *promExporter {
	return &promExporter{registry: prometheus.NewRegistry(), stats: s}
}

func (e *promExporter) handler() http.Handler {
	promHandler := promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.refresh()
		promHandler.ServeHTTP(w, r)
	})
}

func (e *promExporter) setGauge(name, help string, val float64) {
	promCollector := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
	if err := e.registry.Register(promCollector); err != nil {
		are := &prometheus.AlreadyRegisteredError{}
		if errors.As(err, are) {
			promCollector = are.ExistingCollector.(prometheus.Gauge)
		} else {
			log.Errorf("failed to register metric %s %v", name, err)
			return
		}
	}
	promCollector.Set(val)
}

func (e *promExporter) refresh() {
	report := e.stats.Report()
	for mkey, mval := range report.Counters {
		e.setGauge(flattenKey(mkey), mkey, float64(mval))
	}
	for i, ch := range report.Channels {
		e.setGauge(fmt.Sprintf("channel_%d_mean", i), fmt.Sprintf("channel %d mean output", i), ch.Mean)
		e.setGauge(fmt.Sprintf("channel_%d_stddev", i), fmt.Sprintf("channel %d output stddev", i), ch.Stddev)
		e.setGauge(fmt.Sprintf("channel_%d_min", i), fmt.Sprintf("channel %d min output", i), ch.Min)
		e.setGauge(fmt.Sprintf("channel_%d_max", i), fmt.Sprintf("channel %d max output", i), ch.Max)
	}
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
