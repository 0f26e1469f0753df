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
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ListFunc lists a resource kind live against the API server.
type ListFunc func(ctx context.Context) ([]*unstructured.Unstructured, error)

// Reader serves list reads of one kind, from the mirror when caching is
// enabled and from a live list otherwise.
type Reader struct {
	cache   *WatchCache
	list    ListFunc
	enabled bool
}

// NewReader returns a Reader over cache and list. enabled is the process-wide
// cache switch.
func NewReader(cache *WatchCache, list ListFunc, enabled bool) *Reader {
	return &Reader{cache: cache, list: list, enabled: enabled}
}

// List returns the current objects. Cached reads never fail.
func (r *Reader) List(ctx context.Context) ([]*unstructured.Unstructured, error) {
	if r.enabled {
		return r.cache.List(), nil
	}
	return r.list(ctx)
}

// Lookup returns the cached object called name. It always misses when
// caching is disabled.
func (r *Reader) Lookup(name, namespace string) (*unstructured.Unstructured, bool) {
	if !r.enabled {
		return nil, false
	}
	return r.cache.Get(name, namespace)
}

// Cached reports whether reads are served from the mirror.
func (r *Reader) Cached() bool {
	return r.enabled
}

// Cache returns the underlying WatchCache.
func (r *Reader) Cache() *WatchCache {
	return r.cache
}
