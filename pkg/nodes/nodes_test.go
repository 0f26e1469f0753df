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

package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

type fakeSource struct {
	nodes []*unstructured.Unstructured
	err   error
}

func (f *fakeSource) List(context.Context) ([]*unstructured.Unstructured, error) {
	return f.nodes, f.err
}

// fakePatcher applies patches to an in-memory node.
type fakePatcher struct {
	node    *corev1.Node
	patches []string
}

func (f *fakePatcher) GetNode(_ context.Context, name string) (*corev1.Node, error) {
	if f.node.Name != name {
		return nil, apierrors.NewNotFound(corev1.Resource("nodes"), name)
	}
	return f.node.DeepCopy(), nil
}

func (f *fakePatcher) PatchNode(_ context.Context, name string, patch []byte) (*corev1.Node, error) {
	f.patches = append(f.patches, string(patch))
	if f.node.Name != name {
		return nil, errors.New("unknown node")
	}
	decoded, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, err
	}
	original, err := json.Marshal(f.node)
	if err != nil {
		return nil, err
	}
	patched, err := decoded.Apply(original)
	if err != nil {
		return nil, err
	}
	node := &corev1.Node{}
	if err := json.Unmarshal(patched, node); err != nil {
		return nil, err
	}
	f.node = node
	return node, nil
}

func newNode(name string, labels map[string]string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Node",
		"metadata":   map[string]interface{}{"name": name},
	}}
	u.SetLabels(labels)
	return u
}

func names(nodes []*unstructured.Unstructured) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.GetName())
	}
	return out
}

func TestIndex(t *testing.T) {
	labels := tarsv1beta1.NewNamespaceLabels("tars")
	source := &fakeSource{nodes: []*unstructured.Unstructured{
		newNode("n1", map[string]string{"tars.io/node.tars": ""}),
		newNode("n2", map[string]string{"kubernetes.io/hostname": "n2"}),
		newNode("n3", map[string]string{"tars.io/node.tars": "true", "tars.io/ability.tars.Test": "", "tars.io/public.tars": ""}),
		newNode("n4", map[string]string{"tars.io/node.other": ""}),
		newNode("n5", nil),
	}}
	index := NewIndex(source, labels)
	ctx := context.Background()

	tests := map[string]struct {
		list func() ([]*unstructured.Unstructured, error)
		want []string
	}{
		"eligible nodes carry the namespace node label": {
			list: func() ([]*unstructured.Unstructured, error) { return index.EligibleNodes(ctx) },
			want: []string{"n1", "n3"},
		},
		"all nodes are unfiltered": {
			list: func() ([]*unstructured.Unstructured, error) { return index.AllNodes(ctx) },
			want: []string{"n1", "n2", "n3", "n4", "n5"},
		},
		"app nodes": {
			list: func() ([]*unstructured.Unstructured, error) { return index.AppNodes(ctx, "Test") },
			want: []string{"n3"},
		},
		"app nodes of an unknown app": {
			list: func() ([]*unstructured.Unstructured, error) { return index.AppNodes(ctx, "Base") },
		},
		"public nodes": {
			list: func() ([]*unstructured.Unstructured, error) { return index.PublicNodes(ctx) },
			want: []string{"n3"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := tc.list()
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(got))
		})
	}
}

func TestIndexEmptyAndErrors(t *testing.T) {
	ctx := context.Background()
	labels := tarsv1beta1.NewNamespaceLabels("tars")

	got, err := NewIndex(&fakeSource{}, labels).EligibleNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	listErr := errors.New("connection refused")
	_, err = NewIndex(&fakeSource{err: listErr}, labels).EligibleNodes(ctx)
	assert.ErrorIs(t, err, listErr)
}

func TestIsEligible(t *testing.T) {
	index := NewIndex(&fakeSource{}, tarsv1beta1.NewNamespaceLabels("tars"))

	assert.True(t, index.IsEligible(newNode("n1", map[string]string{"tars.io/node.tars": "anything"})))
	assert.False(t, index.IsEligible(newNode("n2", map[string]string{"tars.io/node.other": ""})))
	assert.False(t, index.IsEligible(newNode("n3", nil)))
}

func TestSetAppAbility(t *testing.T) {
	ctx := context.Background()
	index := NewIndex(&fakeSource{}, tarsv1beta1.NewNamespaceLabels("tars"))
	patcher := &fakePatcher{node: &corev1.Node{ObjectMeta: metav1.ObjectMeta{
		Name:   "n1",
		Labels: map[string]string{"tars.io/node.tars": ""},
	}}}

	node, err := index.SetAppAbility(ctx, patcher, "n1", "Test", true)
	require.NoError(t, err)
	assert.Contains(t, node.Labels, "tars.io/ability.tars.Test")
	assert.Equal(t, `[{"op":"add","path":"/metadata/labels/tars.io~1ability.tars.Test","value":""}]`, patcher.patches[0])

	node, err = index.SetAppAbility(ctx, patcher, "n1", "Test", false)
	require.NoError(t, err)
	assert.NotContains(t, node.Labels, "tars.io/ability.tars.Test")
	assert.Contains(t, node.Labels, "tars.io/node.tars")
	assert.Equal(t, `[{"op":"remove","path":"/metadata/labels/tars.io~1ability.tars.Test"}]`, patcher.patches[1])

	_, err = index.SetAppAbility(ctx, patcher, "n2", "Test", true)
	assert.True(t, apierrors.IsNotFound(err))
	assert.Len(t, patcher.patches, 2)
}

func TestSetAppAbilityUnchanged(t *testing.T) {
	ctx := context.Background()
	index := NewIndex(&fakeSource{}, tarsv1beta1.NewNamespaceLabels("tars"))

	tests := map[string]struct {
		labels  map[string]string
		enabled bool
	}{
		"disable when absent": {
			labels:  map[string]string{"tars.io/node.tars": ""},
			enabled: false,
		},
		"disable without labels": {
			enabled: false,
		},
		"enable when present": {
			labels:  map[string]string{"tars.io/ability.tars.Test": "x"},
			enabled: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			patcher := &fakePatcher{node: &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "n1", Labels: tc.labels}}}

			node, err := index.SetAppAbility(ctx, patcher, "n1", "Test", tc.enabled)
			require.NoError(t, err)
			assert.Empty(t, patcher.patches)
			assert.Equal(t, "n1", node.Name)
			assert.Equal(t, tc.labels, node.Labels)
		})
	}
}

func TestSetAppAbilityWithoutLabels(t *testing.T) {
	patcher := &fakePatcher{node: &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "n1"}}}
	index := NewIndex(&fakeSource{}, tarsv1beta1.NewNamespaceLabels("tars"))

	node, err := index.SetAppAbility(context.Background(), patcher, "n1", "Test", true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tars.io/ability.tars.Test": ""}, node.Labels)
	assert.Equal(t, []string{`[{"op":"add","path":"/metadata/labels","value":{"tars.io/ability.tars.Test":""}}]`}, patcher.patches)
}

func TestEscapePointer(t *testing.T) {
	assert.Equal(t, "a~1b~0c", escapePointer("a/b~c"))
}
