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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// BuildDeploy builds the TDeploy for a deploy action. The rules are applied
// in order on a copy of meta:
//
//  1. replicas are forced to 0, a deploy never carries an image;
//  2. host ports are dropped when host network is requested, the two are
//     exclusive;
//  3. the sub type is forced to tars, the console only deploys its own
//     workload type;
//  4. the name gets two random suffixes;
//  5. the submitter and remark are attached to the apply block.
func BuildDeploy(namespace string, meta DeployMetadata) *tarsv1beta1.TDeploy {
	meta.ServerK8S.Replicas = 0
	if meta.ServerK8S.HostNetwork {
		meta.ServerK8S.HostPort = []HostPortElem{}
	}
	meta.ServerOption.ServerSubType = tarsv1beta1.ServerTypeTars

	name := DeployName(meta.ServerApp, meta.ServerName)
	server := BuildServer(namespace, meta.ServerApp, meta.ServerName, meta.ServerServant, meta.ServerK8S, meta.ServerOption)

	return &tarsv1beta1.TDeploy{
		TypeMeta: metav1.TypeMeta{
			APIVersion: tarsv1beta1.APIVersion,
			Kind:       tarsv1beta1.TDeployKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
		},
		Apply: tarsv1beta1.TDeployApply{
			TServerSpec: server.Spec,
			Mark:        meta.ServerMark,
			Person:      meta.Uid,
		},
	}
}
