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

// Package gateway is the only code that talks to the API server. Every call
// is scoped to the namespace configured at startup.
//
// Errors are returned exactly as client-go reports them so callers can map
// the status themselves. The one exception is GetObject, which reports a
// missing object as a nil result.
package gateway

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/cache"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// NodesResource is the core nodes resource, watched through the dynamic
// client like the TARS kinds.
var NodesResource = schema.GroupVersionResource{Version: "v1", Resource: "nodes"}

// Gateway wraps the dynamic and typed clients for one namespace.
type Gateway struct {
	namespace string
	config    *rest.Config
	dynamic   dynamic.Interface
	kube      kubernetes.Interface
}

// New builds a Gateway from a rest config.
func New(config *rest.Config, namespace string) (*Gateway, error) {
	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	kubeClient, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return NewForClients(namespace, config, dynamicClient, kubeClient), nil
}

// NewForClients builds a Gateway from existing clients. config is only
// needed by ExecPod and may be nil otherwise.
func NewForClients(namespace string, config *rest.Config, dynamicClient dynamic.Interface, kubeClient kubernetes.Interface) *Gateway {
	return &Gateway{
		namespace: namespace,
		config:    config,
		dynamic:   dynamicClient,
		kube:      kubeClient,
	}
}

// Namespace returns the namespace all calls are scoped to.
func (g *Gateway) Namespace() string {
	return g.namespace
}

func (g *Gateway) resource(resource string) dynamic.ResourceInterface {
	return g.dynamic.Resource(tarsv1beta1.ResourceWithVersion(resource)).Namespace(g.namespace)
}

// ListObject lists a TARS resource. labelSelector, limit and continueToken
// are passed through when set.
func (g *Gateway) ListObject(ctx context.Context, resource, labelSelector string, limit int64, continueToken string) (*unstructured.UnstructuredList, error) {
	return g.resource(resource).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
		Limit:         limit,
		Continue:      continueToken,
	})
}

// ListAll lists every object of a TARS resource.
func (g *Gateway) ListAll(ctx context.Context, resource string) ([]*unstructured.Unstructured, error) {
	list, err := g.ListObject(ctx, resource, "", 0, "")
	if err != nil {
		return nil, err
	}
	return Items(list), nil
}

// GetObject returns the named object, or nil when it does not exist.
func (g *Gateway) GetObject(ctx context.Context, resource, name string) (*unstructured.Unstructured, error) {
	obj, err := g.resource(resource).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// CreateObject creates obj.
func (g *Gateway) CreateObject(ctx context.Context, resource string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return g.resource(resource).Create(ctx, obj, metav1.CreateOptions{})
}

// ReplaceObject replaces the named object with obj.
func (g *Gateway) ReplaceObject(ctx context.Context, resource, name string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	obj = obj.DeepCopy()
	obj.SetName(name)
	return g.resource(resource).Update(ctx, obj, metav1.UpdateOptions{})
}

// PatchObject patches the named object.
func (g *Gateway) PatchObject(ctx context.Context, resource, name string, pt types.PatchType, data []byte) (*unstructured.Unstructured, error) {
	return g.resource(resource).Patch(ctx, name, pt, data, metav1.PatchOptions{})
}

// DeleteObject deletes the named object.
func (g *Gateway) DeleteObject(ctx context.Context, resource, name string) error {
	return g.resource(resource).Delete(ctx, name, metav1.DeleteOptions{})
}

// ListNodes lists every node of the cluster.
func (g *Gateway) ListNodes(ctx context.Context) (*corev1.NodeList, error) {
	return g.kube.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
}

// ListAllNodes lists every node in unstructured form, as the node cache
// holds them.
func (g *Gateway) ListAllNodes(ctx context.Context) ([]*unstructured.Unstructured, error) {
	list, err := g.dynamic.Resource(NodesResource).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return Items(list), nil
}

// GetNode reads one node.
func (g *Gateway) GetNode(ctx context.Context, name string) (*corev1.Node, error) {
	return g.kube.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
}

// PatchNode applies a JSON patch to a node.
func (g *Gateway) PatchNode(ctx context.Context, name string, patch []byte) (*corev1.Node, error) {
	return g.kube.CoreV1().Nodes().Patch(ctx, name, types.JSONPatchType, patch, metav1.PatchOptions{})
}

// ListPods lists the pods of the namespace matching labelSelector.
func (g *Gateway) ListPods(ctx context.Context, labelSelector string) (*corev1.PodList, error) {
	return g.kube.CoreV1().Pods(g.namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
}

// GetPod reads one pod.
func (g *Gateway) GetPod(ctx context.Context, name string) (*corev1.Pod, error) {
	return g.kube.CoreV1().Pods(g.namespace).Get(ctx, name, metav1.GetOptions{})
}

// DeletePod deletes one pod.
func (g *Gateway) DeletePod(ctx context.Context, name string) error {
	return g.kube.CoreV1().Pods(g.namespace).Delete(ctx, name, metav1.DeleteOptions{})
}

// ListerWatcher feeds a watch cache of a TARS resource. ctx bounds every
// list and watch it starts.
func (g *Gateway) ListerWatcher(ctx context.Context, resource string) cache.ListerWatcher {
	return listerWatcher(ctx, g.resource(resource))
}

// NodeListerWatcher feeds the node watch cache.
func (g *Gateway) NodeListerWatcher(ctx context.Context) cache.ListerWatcher {
	return listerWatcher(ctx, g.dynamic.Resource(NodesResource))
}

func listerWatcher(ctx context.Context, client dynamic.ResourceInterface) cache.ListerWatcher {
	return &cache.ListWatch{
		ListFunc: func(options metav1.ListOptions) (runtime.Object, error) {
			return client.List(ctx, options)
		},
		WatchFunc: func(options metav1.ListOptions) (watch.Interface, error) {
			return client.Watch(ctx, options)
		},
	}
}

// Items returns pointers to the items of list.
func Items(list *unstructured.UnstructuredList) []*unstructured.Unstructured {
	items := make([]*unstructured.Unstructured, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, &list.Items[i])
	}
	return items
}
