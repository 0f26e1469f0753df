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

package v1beta1

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// ToUnstructured converts a typed TARS object into the form accepted by the
// dynamic client. The null creationTimestamp that a zero ObjectMeta carries is
// removed so the payload only holds what was set.
func ToUnstructured(obj interface{}) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T to unstructured: %w", obj, err)
	}
	unstructured.RemoveNestedField(content, "metadata", "creationTimestamp")
	return &unstructured.Unstructured{Object: content}, nil
}

// ServerFromUnstructured decodes a stored TServer.
func ServerFromUnstructured(u *unstructured.Unstructured) (*TServer, error) {
	server := &TServer{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.UnstructuredContent(), server); err != nil {
		return nil, fmt.Errorf("failed to decode TServer %s: %w", u.GetName(), err)
	}
	return server, nil
}

// TreeFromUnstructured decodes the stored TTree.
func TreeFromUnstructured(u *unstructured.Unstructured) (*TTree, error) {
	tree := &TTree{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.UnstructuredContent(), tree); err != nil {
		return nil, fmt.Errorf("failed to decode TTree %s: %w", u.GetName(), err)
	}
	return tree, nil
}
