/*
Copyright 2025 The TARS Authors.

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

package watchcache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the watch caches observe. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	events  *prometheus.CounterVec
	relists *prometheus.CounterVec
	state   *prometheus.GaugeVec
	objects *prometheus.GaugeVec
}

// NewMetrics creates the watch cache metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tars_admin",
			Subsystem: "watch_cache",
			Name:      "events_total",
			Help:      "Events applied to a watch cache, by kind and event type.",
		}, []string{"kind", "type"}),
		relists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tars_admin",
			Subsystem: "watch_cache",
			Name:      "relists_total",
			Help:      "Full relists performed by a watch cache.",
		}, []string{"kind"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tars_admin",
			Subsystem: "watch_cache",
			Name:      "state",
			Help:      "Loop state of a watch cache: 0 init, 1 listing, 2 watching.",
		}, []string{"kind"}),
		objects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tars_admin",
			Subsystem: "watch_cache",
			Name:      "objects",
			Help:      "Objects in the last published snapshot.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.relists, m.state, m.objects)
	}
	return m
}

func (m *Metrics) recordEvent(kind string, t EventType) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, string(t)).Inc()
}

func (m *Metrics) recordRelist(kind string) {
	if m == nil {
		return
	}
	m.relists.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordState(kind string, s State) {
	if m == nil {
		return
	}
	m.state.WithLabelValues(kind).Set(float64(s))
}

func (m *Metrics) recordObjects(kind string, n int) {
	if m == nil {
		return
	}
	m.objects.WithLabelValues(kind).Set(float64(n))
}
