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

// Package nodes answers which cluster nodes the managed namespace may use.
// Eligibility is carried entirely by node labels whose keys embed the
// namespace, see v1beta1.NamespaceLabels.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/klog/v2"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// NodeSource lists the current cluster nodes. A watchcache.Reader is one.
type NodeSource interface {
	List(ctx context.Context) ([]*unstructured.Unstructured, error)
}

// Patcher reads a node and applies a JSON patch to it.
type Patcher interface {
	GetNode(ctx context.Context, name string) (*corev1.Node, error)
	PatchNode(ctx context.Context, name string, patch []byte) (*corev1.Node, error)
}

// Index filters the nodes of a NodeSource by namespace scoped labels.
type Index struct {
	source NodeSource
	labels tarsv1beta1.NamespaceLabels
}

// NewIndex returns an Index over source.
func NewIndex(source NodeSource, labels tarsv1beta1.NamespaceLabels) *Index {
	return &Index{source: source, labels: labels}
}

// AllNodes returns every node, unfiltered.
func (i *Index) AllNodes(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return i.source.List(ctx)
}

// EligibleNodes returns the nodes the framework may use in this namespace.
func (i *Index) EligibleNodes(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return i.withLabel(ctx, i.labels.NodeFrameworkAbility)
}

// AppNodes returns the nodes reserved for app.
func (i *Index) AppNodes(ctx context.Context, app string) ([]*unstructured.Unstructured, error) {
	return i.withLabel(ctx, i.labels.AppAbility(app))
}

// PublicNodes returns the nodes of the shared public pool.
func (i *Index) PublicNodes(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return i.withLabel(ctx, i.labels.PublicNode)
}

// IsEligible reports whether node carries the framework ability label. The
// label value is ignored.
func (i *Index) IsEligible(node *unstructured.Unstructured) bool {
	return hasLabel(node, i.labels.NodeFrameworkAbility)
}

func (i *Index) withLabel(ctx context.Context, key string) ([]*unstructured.Unstructured, error) {
	all, err := i.source.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*unstructured.Unstructured, 0, len(all))
	for _, node := range all {
		if hasLabel(node, key) {
			matched = append(matched, node)
		}
	}
	return matched, nil
}

func hasLabel(node *unstructured.Unstructured, key string) bool {
	_, ok := node.GetLabels()[key]
	return ok
}

// SetAppAbility adds or removes the label placing node in app's pool. The
// node is read live first; nothing is patched when the label is already in
// the requested state.
func (i *Index) SetAppAbility(ctx context.Context, patcher Patcher, node, app string, enabled bool) (*corev1.Node, error) {
	logger := klog.FromContext(ctx).WithValues("node", node, "app", app, "enabled", enabled)
	key := i.labels.AppAbility(app)

	current, err := patcher.GetNode(ctx, node)
	if err != nil {
		return nil, err
	}
	if _, ok := current.Labels[key]; ok == enabled {
		logger.V(4).Info("Node app ability unchanged")
		return current, nil
	}

	patch, err := labelPatch(current, key, enabled)
	if err != nil {
		return nil, err
	}
	logger.V(2).Info("Patching node app ability", "patch", string(patch))
	return patcher.PatchNode(ctx, node, patch)
}

type patchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// labelPatch builds a one operation JSON patch setting or removing a label
// of node, and checks that it applies to node as read.
func labelPatch(node *corev1.Node, key string, set bool) ([]byte, error) {
	var op patchOperation
	switch {
	case !set:
		op = patchOperation{Op: "remove", Path: "/metadata/labels/" + escapePointer(key)}
	case len(node.Labels) == 0:
		op = patchOperation{Op: "add", Path: "/metadata/labels", Value: map[string]string{key: ""}}
	default:
		op = patchOperation{Op: "add", Path: "/metadata/labels/" + escapePointer(key), Value: ""}
	}

	data, err := json.Marshal([]patchOperation{op})
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.DecodePatch(data)
	if err != nil {
		return nil, err
	}
	original, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	if _, err := patch.Apply(original); err != nil {
		return nil, fmt.Errorf("label patch for node %s does not apply: %w", node.Name, err)
	}
	return data, nil
}

// escapePointer escapes a label key for use as a JSON pointer token.
func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
