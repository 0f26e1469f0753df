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
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// The functions below recover the editable admin fields of a stored
// TServer. They are not exact inverses of BuildServer: env and mounts have no
// admin representation and are dropped.

// ToAdminK8S converts the orchestration block. Host ports and node selector
// are never nil in the result.
func ToAdminK8S(k8s tarsv1beta1.TServerK8S) ServerK8S {
	hostPort := []HostPortElem{}
	for _, hp := range k8s.HostPorts {
		hostPort = append(hostPort, HostPortElem{NameRef: hp.NameRef, Port: hp.Port})
	}

	nodeSelector := []corev1.NodeSelectorRequirement{}
	if len(k8s.NodeSelector) != 0 {
		nodeSelector = append(nodeSelector, k8s.NodeSelector...)
	}

	return ServerK8S{
		AbilityAffinity: k8s.AbilityAffinity,
		HostIpc:         k8s.HostIPC,
		HostNetwork:     k8s.HostNetwork,
		NotStacked:      k8s.NotStacked,
		Replicas:        k8s.Replicas,
		HostPort:        hostPort,
		NodeSelector:    nodeSelector,
	}
}

// ToAdminServants converts the servant list into the servant table. A nil
// list yields a nil table.
func ToAdminServants(servants []tarsv1beta1.TServerServant) ServerServant {
	if servants == nil {
		return nil
	}
	table := make(ServerServant, len(servants))
	for _, s := range servants {
		table[s.Name] = ServantConfig{
			Name:        s.Name,
			Port:        intstr.FromInt32(s.Port),
			Threads:     intstr.FromInt32(s.Thread),
			Connections: intstr.FromInt32(s.Connection),
			Capacity:    intstr.FromInt32(s.Capacity),
			IsTars:      s.IsTars,
			IsTcp:       s.IsTcp,
			Timeout:     intstr.FromInt32(s.Timeout),
		}
	}
	return table
}

// ToAdminOption converts the framework options. Servers without a tars
// block read with empty template and profile and no async threads.
func ToAdminOption(spec tarsv1beta1.TServerSpec) ServerOption {
	option := ServerOption{
		ServerImportant: spec.Important,
		ServerSubType:   spec.SubType,
	}
	if spec.Tars != nil {
		option.AsyncThread = spec.Tars.AsyncThread
		option.ServerProfile = spec.Tars.Profile
		option.ServerTemplate = spec.Tars.Template
	}
	return option
}
