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

// Package daemonpod finds the agent daemon pod serving a node.
package daemonpod

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/klog/v2"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// PodLister lists the pods of the managed namespace matching a label
// selector.
type PodLister interface {
	ListPods(ctx context.Context, labelSelector string) (*corev1.PodList, error)
}

// Predicate selects a pod.
type Predicate func(pod *corev1.Pod) bool

// Locator searches the agent daemon pods.
type Locator struct {
	lister   PodLister
	selector string
}

// NewLocator returns a Locator listing through lister.
func NewLocator(lister PodLister) *Locator {
	return &Locator{
		lister: lister,
		selector: labels.SelectorFromSet(labels.Set{
			tarsv1beta1.ServerAppLabel:  tarsv1beta1.ServerTypeTars,
			tarsv1beta1.ServerNameLabel: tarsv1beta1.AgentServerName,
		}).String(),
	}
}

// Selector returns the label selector used to list agent pods.
func (l *Locator) Selector() string {
	return l.selector
}

// Find returns the first agent pod, in listing order, that matches pred and
// is Running. It returns nil when none does. The listing order is whatever
// the API server returns, so when several pods match the result is not
// stable across calls.
func (l *Locator) Find(ctx context.Context, pred Predicate) (*corev1.Pod, error) {
	pods, err := l.lister.ListPods(ctx, l.selector)
	if err != nil {
		return nil, err
	}
	if pods == nil {
		return nil, nil
	}
	for i := range pods.Items {
		pod := &pods.Items[i]
		if pred(pod) && pod.Status.Phase == corev1.PodRunning {
			return pod, nil
		}
	}
	klog.FromContext(ctx).V(4).Info("No running agent pod matched", "candidates", len(pods.Items))
	return nil, nil
}

// ByNodeName finds the running agent pod scheduled on node.
func (l *Locator) ByNodeName(ctx context.Context, node string) (*corev1.Pod, error) {
	return l.Find(ctx, func(pod *corev1.Pod) bool {
		return pod.Spec.NodeName == node
	})
}

// ByHostIP finds the running agent pod on the node with address ip.
func (l *Locator) ByHostIP(ctx context.Context, ip string) (*corev1.Pod, error) {
	return l.Find(ctx, func(pod *corev1.Pod) bool {
		return pod.Status.HostIP == ip
	})
}
