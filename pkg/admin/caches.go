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

package admin

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
	"github.com/tarscloud/tars-admin/pkg/gateway"
	"github.com/tarscloud/tars-admin/pkg/watchcache"
)

// NewCacheSet wires the watch caches of servers, templates, accounts and
// nodes to gw. ctx bounds every list and watch the caches start.
func NewCacheSet(ctx context.Context, gw *gateway.Gateway, enabled bool, opts watchcache.Options) *watchcache.Set {
	source := func(resource string) watchcache.Source {
		return watchcache.Source{
			Kind:          resource,
			ListerWatcher: gw.ListerWatcher(ctx, resource),
			List: func(ctx context.Context) ([]*unstructured.Unstructured, error) {
				return gw.ListAll(ctx, resource)
			},
		}
	}
	return watchcache.NewSet(enabled, opts,
		source(tarsv1beta1.TServerResource),
		source(tarsv1beta1.TTemplateResource),
		source(tarsv1beta1.TAccountResource),
		watchcache.Source{
			Kind:          "nodes",
			ListerWatcher: gw.NodeListerWatcher(ctx),
			List:          gw.ListAllNodes,
		},
	)
}
