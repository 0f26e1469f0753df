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
	"fmt"
	"sync"

	"k8s.io/client-go/tools/cache"
	"k8s.io/klog/v2"
)

// Source is what a Set needs to mirror one kind: a ListerWatcher for the
// cache and a live list for uncached reads.
type Source struct {
	Kind          string
	ListerWatcher cache.ListerWatcher
	List          ListFunc
}

// Set holds the readers of every mirrored kind. It is built once at startup
// and handed to request handling code.
type Set struct {
	enabled bool

	servers   *Reader
	templates *Reader
	accounts  *Reader
	nodes     *Reader

	wg sync.WaitGroup
}

// NewSet builds the caches and readers for servers, templates, accounts and
// nodes. enabled is the process-wide cache switch.
func NewSet(enabled bool, opts Options, servers, templates, accounts, nodes Source) *Set {
	reader := func(src Source) *Reader {
		return NewReader(New(src.Kind, src.ListerWatcher, opts), src.List, enabled)
	}
	return &Set{
		enabled:   enabled,
		servers:   reader(servers),
		templates: reader(templates),
		accounts:  reader(accounts),
		nodes:     reader(nodes),
	}
}

// Servers reads TServers.
func (s *Set) Servers() *Reader { return s.servers }

// Templates reads TTemplates.
func (s *Set) Templates() *Reader { return s.templates }

// Accounts reads TAccounts.
func (s *Set) Accounts() *Reader { return s.accounts }

// Nodes reads cluster nodes.
func (s *Set) Nodes() *Reader { return s.nodes }

// Enabled reports the cache switch.
func (s *Set) Enabled() bool {
	return s.enabled
}

func (s *Set) readers() []*Reader {
	return []*Reader{s.servers, s.templates, s.accounts, s.nodes}
}

// Start runs one watch loop per kind until ctx is cancelled. It does
// nothing when caching is disabled.
func (s *Set) Start(ctx context.Context) {
	if !s.enabled {
		klog.FromContext(ctx).Info("Watch caches disabled, reads go to the API server")
		return
	}
	for _, r := range s.readers() {
		s.wg.Add(1)
		go func(c *WatchCache) {
			defer s.wg.Done()
			c.Run(ctx)
		}(r.Cache())
	}
}

// Wait blocks until every watch loop started by Start has returned.
func (s *Set) Wait() {
	s.wg.Wait()
}

// WaitForSync blocks until every cache has listed once or ctx is done.
func (s *Set) WaitForSync(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	var synced []cache.InformerSynced
	for _, r := range s.readers() {
		synced = append(synced, r.Cache().HasSynced)
	}
	if !cache.WaitForCacheSync(ctx.Done(), synced...) {
		return fmt.Errorf("timed out waiting for watch caches to sync")
	}
	return nil
}

// Synced reports whether all caches have listed once. It is always true when
// caching is disabled.
func (s *Set) Synced() bool {
	if !s.enabled {
		return true
	}
	for _, r := range s.readers() {
		if !r.Cache().HasSynced() {
			return false
		}
	}
	return true
}

// States returns the loop state of every cache keyed by kind.
func (s *Set) States() map[string]State {
	states := make(map[string]State, 4)
	for _, r := range s.readers() {
		states[r.Cache().Kind()] = r.Cache().State()
	}
	return states
}
