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

// Package committer writes edited TARS objects back as merge patches that
// carry only what changed.
package committer

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"

	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/klog/v2"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// Resource is the committable part of a TARS object.
type Resource[Sp any] struct {
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              Sp `json:"spec"`
}

// Patcher is the Patch API of the gateway.
type Patcher interface {
	PatchObject(ctx context.Context, resource, name string, pt types.PatchType, data []byte) (*unstructured.Unstructured, error)
}

// CommitFunc commits the difference between old and obj.
type CommitFunc[Sp any] func(ctx context.Context, old, obj *Resource[Sp]) error

// NewCommitter returns a CommitFunc patching objects of resource.
func NewCommitter[Sp any](patcher Patcher, resource string) CommitFunc[Sp] {
	return func(ctx context.Context, old, obj *Resource[Sp]) error {
		logger := klog.FromContext(ctx).WithValues("resource", resource, "name", old.Name)

		patchBytes, err := generatePatch(old, obj)
		if err != nil {
			return fmt.Errorf("failed to create patch for %s %s: %w", resource, old.Name, err)
		}
		if len(patchBytes) == 0 {
			logger.V(4).Info("No changes to commit")
			return nil
		}

		logger.V(2).Info("Patching", "patch", string(patchBytes))
		if _, err := patcher.PatchObject(ctx, resource, old.Name, types.MergePatchType, patchBytes); err != nil {
			return fmt.Errorf("failed to patch %s %s: %w", resource, old.Name, err)
		}
		return nil
	}
}

// NewServerCommitter returns a CommitFunc for TServers.
func NewServerCommitter(patcher Patcher) CommitFunc[tarsv1beta1.TServerSpec] {
	return NewCommitter[tarsv1beta1.TServerSpec](patcher, tarsv1beta1.TServerResource)
}

// ServerResource wraps a TServer for committing. The spec is deep copied
// through JSON so edits to the result do not reach server.
func ServerResource(server *tarsv1beta1.TServer) (*Resource[tarsv1beta1.TServerSpec], error) {
	data, err := json.Marshal(server.Spec)
	if err != nil {
		return nil, err
	}
	r := &Resource[tarsv1beta1.TServerSpec]{ObjectMeta: *server.ObjectMeta.DeepCopy()}
	if err := json.Unmarshal(data, &r.Spec); err != nil {
		return nil, err
	}
	return r, nil
}

func generatePatch[Sp any](old, obj *Resource[Sp]) ([]byte, error) {
	if old.Name != obj.Name {
		return nil, fmt.Errorf("cannot commit %q as %q: renames are not supported", old.Name, obj.Name)
	}

	specChanged := !equality.Semantic.DeepEqual(old.Spec, obj.Spec)
	labelsChanged := !equality.Semantic.DeepEqual(old.Labels, obj.Labels)
	annotationsChanged := !equality.Semantic.DeepEqual(old.Annotations, obj.Annotations)
	if !specChanged && !labelsChanged && !annotationsChanged {
		return nil, nil
	}

	oldForPatch := &Resource[Sp]{Spec: old.Spec}
	oldForPatch.Labels = old.Labels
	oldForPatch.Annotations = old.Annotations
	oldData, err := json.Marshal(oldForPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal old data for %s: %w", old.Name, err)
	}

	newForPatch := &Resource[Sp]{Spec: obj.Spec}
	newForPatch.Labels = obj.Labels
	newForPatch.Annotations = obj.Annotations
	// uid and resourceVersion become preconditions of the patch.
	newForPatch.UID = old.UID
	newForPatch.ResourceVersion = old.ResourceVersion
	newData, err := json.Marshal(newForPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal new data for %s: %w", old.Name, err)
	}

	patchBytes, err := jsonpatch.CreateMergePatch(oldData, newData)
	if err != nil {
		return nil, fmt.Errorf("failed to create merge patch for %s: %w (diff: %s)", old.Name, err, cmp.Diff(old.Spec, obj.Spec))
	}
	return patchBytes, nil
}
