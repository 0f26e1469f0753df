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

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"k8s.io/klog/v2"

	"github.com/tarscloud/tars-admin/pkg/admin"
	"github.com/tarscloud/tars-admin/pkg/health"
	"github.com/tarscloud/tars-admin/pkg/watchcache"
)

type handler struct {
	client *admin.Client
	caches *watchcache.Set
	checks *health.Aggregator
}

func newRouter(client *admin.Client, caches *watchcache.Set, gatherer prometheus.Gatherer) http.Handler {
	h := &handler{client: client, caches: caches, checks: health.NewAggregator(0)}
	health.AddWatchCacheCheckers(h.checks, caches)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/readyz/*", h.readyzComponent)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/debug", func(r chi.Router) {
		r.Get("/caches", h.cacheStates)
		r.Get("/nodes", h.nodes)
	})

	return r
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	status := h.checks.CheckAll(r.Context())
	if !status.Healthy {
		logger := klog.FromContext(r.Context())
		for name, component := range status.Components {
			if !component.Healthy {
				logger.V(2).Info("Component not ready", "component", name, "status", component.String())
			}
		}
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// readyzComponent checks one component, such as watchcache/tservers.
func (h *handler) readyzComponent(w http.ResponseWriter, r *http.Request) {
	status, err := h.checks.CheckComponent(r.Context(), chi.URLParam(r, "*"))
	if errors.Is(err, health.ErrUnknownComponent) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if !status.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type cacheStatus struct {
	Enabled bool              `json:"enabled"`
	Synced  bool              `json:"synced"`
	States  map[string]string `json:"states,omitempty"`
}

func (h *handler) cacheStates(w http.ResponseWriter, r *http.Request) {
	status := cacheStatus{Enabled: h.caches.Enabled(), Synced: h.caches.Synced()}
	if status.Enabled {
		status.States = map[string]string{}
		for kind, state := range h.caches.States() {
			status.States[kind] = state.String()
		}
	}
	writeJSON(w, http.StatusOK, status)
}

type nodeStatus struct {
	Name     string `json:"name"`
	Eligible bool   `json:"eligible"`
}

func (h *handler) nodes(w http.ResponseWriter, r *http.Request) {
	all, err := h.client.NodeListAll(r.Context())
	if err != nil {
		klog.FromContext(r.Context()).Error(err, "Failed to list nodes")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	out := make([]nodeStatus, 0, len(all))
	for _, node := range all {
		out = append(out, nodeStatus{Name: node.GetName(), Eligible: h.client.Nodes().IsEligible(node)})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
