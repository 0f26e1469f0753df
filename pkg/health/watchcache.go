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

package health

import (
	"context"

	"github.com/tarscloud/tars-admin/pkg/watchcache"
)

// WatchCacheChecker reports a watch cache healthy once it has listed and is
// watching. Relisting after a failure is unhealthy until the watch resumes.
func WatchCacheChecker(c *watchcache.WatchCache) Checker {
	return NewFuncChecker("watchcache/"+c.Kind(), func(context.Context) Status {
		state := c.State()
		details := map[string]interface{}{
			"state":  state.String(),
			"synced": c.HasSynced(),
			"items":  len(c.List()),
		}
		switch {
		case !c.HasSynced():
			return Status{Message: "waiting for the first list", Details: details}
		case state != watchcache.StateWatching:
			return Status{Message: "relisting", Details: details}
		default:
			return Status{Healthy: true, Message: "watching", Details: details}
		}
	})
}

// AddWatchCacheCheckers registers one checker per cache of set. Nothing is
// registered when caching is disabled.
func AddWatchCacheCheckers(a *Aggregator, set *watchcache.Set) {
	if !set.Enabled() {
		return
	}
	for _, r := range []*watchcache.Reader{set.Servers(), set.Templates(), set.Accounts(), set.Nodes()} {
		a.AddChecker(WatchCacheChecker(r.Cache()))
	}
}
