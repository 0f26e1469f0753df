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

package daemonpod

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
	"github.com/tarscloud/tars-admin/pkg/gateway"
)

type podListerFunc func(ctx context.Context, labelSelector string) (*corev1.PodList, error)

func (f podListerFunc) ListPods(ctx context.Context, labelSelector string) (*corev1.PodList, error) {
	return f(ctx, labelSelector)
}

func agentPod(name, node, hostIP string, phase corev1.PodPhase) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "tars",
			Labels: map[string]string{
				tarsv1beta1.ServerAppLabel:  "tars",
				tarsv1beta1.ServerNameLabel: "tarsagent",
			},
		},
		Spec:   corev1.PodSpec{NodeName: node},
		Status: corev1.PodStatus{Phase: phase, HostIP: hostIP},
	}
}

func staticLister(pods ...corev1.Pod) PodLister {
	return podListerFunc(func(context.Context, string) (*corev1.PodList, error) {
		return &corev1.PodList{Items: pods}, nil
	})
}

func TestSelector(t *testing.T) {
	var got string
	locator := NewLocator(podListerFunc(func(_ context.Context, selector string) (*corev1.PodList, error) {
		got = selector
		return nil, nil
	}))

	pod, err := locator.Find(context.Background(), func(*corev1.Pod) bool { return true })
	require.NoError(t, err)
	assert.Nil(t, pod)
	assert.Equal(t, "tars.io/ServerApp=tars,tars.io/ServerName=tarsagent", got)
	assert.Equal(t, got, locator.Selector())
}

func TestFind(t *testing.T) {
	tests := map[string]struct {
		pods     []corev1.Pod
		find     func(*Locator) (*corev1.Pod, error)
		wantName string
	}{
		"by node name": {
			pods: []corev1.Pod{
				agentPod("agent-a", "node-a", "10.0.0.1", corev1.PodRunning),
				agentPod("agent-b", "node-b", "10.0.0.2", corev1.PodRunning),
			},
			find:     func(l *Locator) (*corev1.Pod, error) { return l.ByNodeName(context.Background(), "node-b") },
			wantName: "agent-b",
		},
		"by host ip": {
			pods: []corev1.Pod{
				agentPod("agent-a", "node-a", "10.0.0.1", corev1.PodRunning),
				agentPod("agent-b", "node-b", "10.0.0.2", corev1.PodRunning),
			},
			find:     func(l *Locator) (*corev1.Pod, error) { return l.ByHostIP(context.Background(), "10.0.0.1") },
			wantName: "agent-a",
		},
		"matching pod that is not running": {
			pods: []corev1.Pod{
				agentPod("agent-a", "node-a", "10.0.0.1", corev1.PodPending),
			},
			find: func(l *Locator) (*corev1.Pod, error) { return l.ByNodeName(context.Background(), "node-a") },
		},
		"running pod skipped for a later match": {
			pods: []corev1.Pod{
				agentPod("agent-old", "node-a", "10.0.0.1", corev1.PodFailed),
				agentPod("agent-new", "node-a", "10.0.0.1", corev1.PodRunning),
			},
			find:     func(l *Locator) (*corev1.Pod, error) { return l.ByNodeName(context.Background(), "node-a") },
			wantName: "agent-new",
		},
		"first match in listing order wins": {
			pods: []corev1.Pod{
				agentPod("agent-1", "node-a", "10.0.0.1", corev1.PodRunning),
				agentPod("agent-2", "node-a", "10.0.0.1", corev1.PodRunning),
			},
			find:     func(l *Locator) (*corev1.Pod, error) { return l.ByNodeName(context.Background(), "node-a") },
			wantName: "agent-1",
		},
		"no agents": {
			find: func(l *Locator) (*corev1.Pod, error) { return l.ByNodeName(context.Background(), "node-a") },
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			pod, err := tc.find(NewLocator(staticLister(tc.pods...)))
			require.NoError(t, err)
			if tc.wantName == "" {
				assert.Nil(t, pod)
				return
			}
			require.NotNil(t, pod)
			assert.Equal(t, tc.wantName, pod.Name)
		})
	}
}

func TestFindPropagatesErrors(t *testing.T) {
	listErr := errors.New("connection refused")
	locator := NewLocator(podListerFunc(func(context.Context, string) (*corev1.PodList, error) {
		return nil, listErr
	}))

	pod, err := locator.ByNodeName(context.Background(), "node-a")
	assert.ErrorIs(t, err, listErr)
	assert.Nil(t, pod)
}

func TestFindThroughGateway(t *testing.T) {
	ctx := context.Background()
	running := agentPod("agent-a", "node-a", "10.0.0.1", corev1.PodRunning)
	other := agentPod("web-a", "node-a", "10.0.0.1", corev1.PodRunning)
	other.Labels = map[string]string{tarsv1beta1.ServerAppLabel: "Test"}
	kubeClient := fake.NewSimpleClientset(&other, &running)

	locator := NewLocator(gateway.NewForClients("tars", nil, nil, kubeClient))
	pod, err := locator.ByNodeName(ctx, "node-a")
	require.NoError(t, err)
	require.NotNil(t, pod)
	assert.Equal(t, "agent-a", pod.Name)
}
