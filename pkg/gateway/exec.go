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

package gateway

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	"k8s.io/klog/v2"
)

// ExecPod runs command in a container of pod and streams its input and
// output through streams until the command exits or ctx is done.
func (g *Gateway) ExecPod(ctx context.Context, pod, container string, command []string, streams remotecommand.StreamOptions) error {
	if g.config == nil {
		return fmt.Errorf("exec into pod %s: no rest config", pod)
	}

	req := g.kube.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(g.namespace).
		Name(pod).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   command,
			Stdin:     streams.Stdin != nil,
			Stdout:    streams.Stdout != nil,
			Stderr:    streams.Stderr != nil,
			TTY:       streams.Tty,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(g.config, "POST", req.URL())
	if err != nil {
		return fmt.Errorf("exec into pod %s: %w", pod, err)
	}

	klog.FromContext(ctx).V(2).Info("Executing in pod", "pod", pod, "container", container, "command", command)
	return executor.StreamWithContext(ctx, streams)
}
