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

package converter

import (
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

const (
	hostLogDirName = "host-log-dir"
	hostLogDir     = "/usr/local/app/" + tarsv1beta1.ServerTypeTars + "/app_log"
)

// BuildServer builds the TServer for app/server in namespace. Servant
// numbers go through ParseInt, host ports and node selector are only filled
// when the caller supplied some, and replicas always start at 0 because no
// image is attached yet. The ability affinity is left to the cluster default.
func BuildServer(namespace, app, server string, servants ServerServant, k8s ServerK8S, option ServerOption) *tarsv1beta1.TServer {
	hostPorts := []tarsv1beta1.TK8SHostPort{}
	for _, hp := range k8s.HostPort {
		hostPorts = append(hostPorts, tarsv1beta1.TK8SHostPort{NameRef: hp.NameRef, Port: hp.Port})
	}

	nodeSelector := []corev1.NodeSelectorRequirement{}
	if len(k8s.NodeSelector) != 0 {
		nodeSelector = append(nodeSelector, k8s.NodeSelector...)
	}

	return &tarsv1beta1.TServer{
		TypeMeta: metav1.TypeMeta{
			APIVersion: tarsv1beta1.APIVersion,
			Kind:       tarsv1beta1.TServerKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      TServerName(ServerID(app, server)),
		},
		Spec: tarsv1beta1.TServerSpec{
			App:       app,
			Server:    server,
			SubType:   option.ServerSubType,
			Important: option.ServerImportant,
			Tars: &tarsv1beta1.TServerTars{
				Template:    option.ServerTemplate,
				Profile:     option.ServerProfile,
				Foreground:  false,
				AsyncThread: option.AsyncThread,
				Servants:    ToServants(servants),
			},
			K8S: tarsv1beta1.TServerK8S{
				Env:          serverEnv(),
				HostIPC:      k8s.HostIpc,
				HostNetwork:  k8s.HostNetwork,
				HostPorts:    hostPorts,
				Mounts:       serverMounts(),
				NodeSelector: nodeSelector,
				NotStacked:   k8s.NotStacked,
				Replicas:     0,
			},
		},
	}
}

// ToServants converts the servant table into the TServer servant list,
// ordered by servant name.
func ToServants(servants ServerServant) []tarsv1beta1.TServerServant {
	keys := make([]string, 0, len(servants))
	for key := range servants {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]tarsv1beta1.TServerServant, 0, len(keys))
	for _, key := range keys {
		s := servants[key]
		out = append(out, tarsv1beta1.TServerServant{
			Name:       s.Name,
			Port:       ParseInt(s.Port),
			Thread:     ParseInt(s.Threads),
			Connection: ParseInt(s.Connections),
			Capacity:   ParseInt(s.Capacity),
			IsTars:     s.IsTars,
			IsTcp:      s.IsTcp,
			Timeout:    ParseInt(s.Timeout),
		})
	}
	return out
}

// serverEnv exposes the pod identity to the server process. Values are field
// references resolved by the kubelet, never static strings.
func serverEnv() []corev1.EnvVar {
	fieldRef := func(name, apiVersion, path string) corev1.EnvVar {
		return corev1.EnvVar{
			Name: name,
			ValueFrom: &corev1.EnvVarSource{
				FieldRef: &corev1.ObjectFieldSelector{APIVersion: apiVersion, FieldPath: path},
			},
		}
	}
	return []corev1.EnvVar{
		fieldRef("Namespace", "", "metadata.namespace"),
		fieldRef("PodName", "", "metadata.name"),
		fieldRef("PodIP", "", "status.podIP"),
		fieldRef("ServerApp", "v1", "metadata.labels['"+tarsv1beta1.ServerAppLabel+"']"),
	}
}

func serverMounts() []tarsv1beta1.TK8SMount {
	return []tarsv1beta1.TK8SMount{
		{
			Name:        hostLogDirName,
			MountPath:   hostLogDir,
			SubPathExpr: "$(Namespace)/$(PodName)",
			Source: tarsv1beta1.TK8SMountSource{
				HostPath: &corev1.HostPathVolumeSource{
					Path: hostLogDir,
					Type: ptr.To(corev1.HostPathDirectoryOrCreate),
				},
			},
		},
	}
}
