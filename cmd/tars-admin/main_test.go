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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"

	"github.com/tarscloud/tars-admin/cmd/tars-admin/options"
	"github.com/tarscloud/tars-admin/pkg/admin"
	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
	"github.com/tarscloud/tars-admin/pkg/gateway"
	"github.com/tarscloud/tars-admin/pkg/watchcache"
)

const sampleKubeconfig = `
apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://localhost:6443
  name: dev
- cluster:
    server: https://prod.example.com:6443
  name: prod
contexts:
- context:
    cluster: dev
    user: test-user
  name: dev
- context:
    cluster: prod
    user: test-user
  name: prod
current-context: dev
users:
- name: test-user
  user:
    token: test-token
`

func writeKubeconfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(sampleKubeconfig), 0o600))
	return path
}

func TestBuildConfig(t *testing.T) {
	tests := map[string]struct {
		context  string
		wantHost string
	}{
		"current context":  {wantHost: "https://localhost:6443"},
		"explicit context": {context: "prod", wantHost: "https://prod.example.com:6443"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			opts := options.NewOptions()
			opts.Kubeconfig = writeKubeconfig(t)
			opts.Context = tc.context

			config, err := buildConfig(opts)
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, config.Host)
			assert.Equal(t, float32(50), config.QPS)
			assert.Equal(t, 100, config.Burst)
			assert.Equal(t, "tars-admin", config.UserAgent)
		})
	}
}

func TestBuildConfigMissingKubeconfig(t *testing.T) {
	opts := options.NewOptions()
	opts.Kubeconfig = filepath.Join(t.TempDir(), "missing")

	_, err := buildConfig(opts)
	assert.Error(t, err)
}

func newTestRouter(t *testing.T, objects ...runtime.Object) (http.Handler, *prometheus.Registry) {
	listKinds := tarsv1beta1.ListKinds()
	listKinds[gateway.NodesResource] = "NodeList"
	dynamicClient := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds, objects...)
	gw := gateway.NewForClients("tars", nil, dynamicClient, kubefake.NewSimpleClientset())

	registry := prometheus.NewRegistry()
	caches := admin.NewCacheSet(context.Background(), gw, false, watchcache.Options{
		Metrics: watchcache.NewMetrics(registry),
	})
	return newRouter(admin.NewClient(gw, caches), caches, registry), registry
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code, "uncached sets are always ready")
	assert.Contains(t, rec.Body.String(), "no components registered")

	rec = get(t, router, "/debug/caches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false,"synced":true}`, rec.Body.String())
}

func TestReadyzWaitsForCaches(t *testing.T) {
	listKinds := tarsv1beta1.ListKinds()
	listKinds[gateway.NodesResource] = "NodeList"
	dynamicClient := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds)
	gw := gateway.NewForClients("tars", nil, dynamicClient, kubefake.NewSimpleClientset())
	caches := admin.NewCacheSet(context.Background(), gw, true, watchcache.Options{})
	router := newRouter(admin.NewClient(gw, caches), caches, prometheus.NewRegistry())

	rec := get(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "watchcache/tservers")

	rec = get(t, router, "/readyz/watchcache/tservers")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"synced":false`)

	rec = get(t, router, "/readyz/watchcache/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, registry := newTestRouter(t)
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "tars_admin_test_total"})
	require.NoError(t, registry.Register(counter))
	counter.Inc()

	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tars_admin_test_total 1"))
}

func TestNodesEndpoint(t *testing.T) {
	eligible := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Node",
		"metadata": map[string]interface{}{
			"name":   "n1",
			"labels": map[string]interface{}{"tars.io/node.tars": ""},
		},
	}}
	other := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Node",
		"metadata":   map[string]interface{}{"name": "n2"},
	}}
	router, _ := newTestRouter(t, eligible, other)

	rec := get(t, router, "/debug/nodes")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []nodeStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.ElementsMatch(t, []nodeStatus{{Name: "n1", Eligible: true}, {Name: "n2"}}, got)
}
