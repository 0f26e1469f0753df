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

package committer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

type patchCall struct {
	resource string
	name     string
	pt       types.PatchType
	data     string
}

type recordingPatcher struct {
	calls []patchCall
	err   error
}

func (r *recordingPatcher) PatchObject(_ context.Context, resource, name string, pt types.PatchType, data []byte) (*unstructured.Unstructured, error) {
	r.calls = append(r.calls, patchCall{resource: resource, name: name, pt: pt, data: string(data)})
	return nil, r.err
}

func newServer() *tarsv1beta1.TServer {
	return &tarsv1beta1.TServer{
		ObjectMeta: metav1.ObjectMeta{
			Name:            "test-hello",
			UID:             "u1",
			ResourceVersion: "5",
			Labels:          map[string]string{tarsv1beta1.ServerAppLabel: "Test"},
		},
		Spec: tarsv1beta1.TServerSpec{
			App:     "Test",
			Server:  "Hello",
			SubType: tarsv1beta1.ServerTypeTars,
			Tars: &tarsv1beta1.TServerTars{
				Template: "tars.default",
				Servants: []tarsv1beta1.TServerServant{{Name: "HelloObj", Port: 10000}},
			},
			K8S: tarsv1beta1.TServerK8S{Replicas: 1},
		},
	}
}

func TestServerCommitter(t *testing.T) {
	tests := map[string]struct {
		edit      func(r *Resource[tarsv1beta1.TServerSpec])
		wantPatch string
	}{
		"unchanged": {
			edit: func(*Resource[tarsv1beta1.TServerSpec]) {},
		},
		"replicas": {
			edit: func(r *Resource[tarsv1beta1.TServerSpec]) {
				r.Spec.K8S.Replicas = 3
			},
			wantPatch: `{"metadata":{"resourceVersion":"5","uid":"u1"},"spec":{"k8s":{"replicas":3}}}`,
		},
		"servant port": {
			edit: func(r *Resource[tarsv1beta1.TServerSpec]) {
				r.Spec.Tars.Servants[0].Port = 10001
			},
			wantPatch: `{"metadata":{"resourceVersion":"5","uid":"u1"},"spec":{"tars":{"servants":[{"name":"HelloObj","port":10001,"thread":0,"connection":0,"capacity":0,"isTars":false,"isTcp":false,"timeout":0}]}}}`,
		},
		"labels": {
			edit: func(r *Resource[tarsv1beta1.TServerSpec]) {
				r.Labels[tarsv1beta1.ServerNameLabel] = "Hello"
			},
			wantPatch: `{"metadata":{"labels":{"tars.io/ServerName":"Hello"},"resourceVersion":"5","uid":"u1"}}`,
		},
		"status only fields of metadata are ignored": {
			edit: func(r *Resource[tarsv1beta1.TServerSpec]) {
				r.Generation = 7
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			server := newServer()
			old, err := ServerResource(server)
			require.NoError(t, err)
			obj, err := ServerResource(server)
			require.NoError(t, err)
			tc.edit(obj)

			patcher := &recordingPatcher{}
			require.NoError(t, NewServerCommitter(patcher)(context.Background(), old, obj))

			if tc.wantPatch == "" {
				assert.Empty(t, patcher.calls)
				return
			}
			require.Len(t, patcher.calls, 1)
			call := patcher.calls[0]
			assert.Equal(t, tarsv1beta1.TServerResource, call.resource)
			assert.Equal(t, "test-hello", call.name)
			assert.Equal(t, types.MergePatchType, call.pt)
			assert.JSONEq(t, tc.wantPatch, call.data)
		})
	}
}

func TestServerResourceCopiesSpec(t *testing.T) {
	server := newServer()
	r, err := ServerResource(server)
	require.NoError(t, err)

	r.Spec.Tars.Servants[0].Port = 1
	r.Labels["x"] = "y"
	assert.Equal(t, int32(10000), server.Spec.Tars.Servants[0].Port)
	assert.NotContains(t, server.Labels, "x")
}

func TestCommitterWrapsPatchErrors(t *testing.T) {
	server := newServer()
	old, err := ServerResource(server)
	require.NoError(t, err)
	obj, err := ServerResource(server)
	require.NoError(t, err)
	obj.Spec.Important = 5

	patchErr := errors.New("conflict")
	err = NewServerCommitter(&recordingPatcher{err: patchErr})(context.Background(), old, obj)
	assert.ErrorIs(t, err, patchErr)
}

func TestCommitterRejectsRename(t *testing.T) {
	server := newServer()
	old, err := ServerResource(server)
	require.NoError(t, err)
	obj, err := ServerResource(server)
	require.NoError(t, err)
	obj.Name = "other"
	obj.Spec.Important = 5

	patcher := &recordingPatcher{}
	err = NewServerCommitter(patcher)(context.Background(), old, obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"test-hello" as "other"`)
	assert.Empty(t, patcher.calls)
}
