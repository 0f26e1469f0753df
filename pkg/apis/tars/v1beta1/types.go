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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// TServer is the declarative description of one TARS server. Its name is
// always derived from app and server name, see converter.TServerName.
type TServer struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec TServerSpec `json:"spec"`
}

// TServerSpec is the desired state of a TServer. It is also the payload of a
// TDeploy apply block.
type TServerSpec struct {
	App       string `json:"app"`
	Server    string `json:"server"`
	SubType   string `json:"subType"`
	Important int32  `json:"important"`

	// Tars is only set for servers of sub type "tars".
	Tars *TServerTars `json:"tars,omitempty"`
	K8S  TServerK8S   `json:"k8s"`
}

// TServerTars is the framework specific block of a server.
type TServerTars struct {
	Template    string           `json:"template"`
	Profile     string           `json:"profile"`
	Foreground  bool             `json:"foreground"`
	AsyncThread int32            `json:"asyncThread"`
	Servants    []TServerServant `json:"servants"`
}

// TServerServant is one network endpoint exposed by the server process.
type TServerServant struct {
	Name       string `json:"name"`
	Port       int32  `json:"port"`
	Thread     int32  `json:"thread"`
	Connection int32  `json:"connection"`
	Capacity   int32  `json:"capacity"`
	IsTars     bool   `json:"isTars"`
	IsTcp      bool   `json:"isTcp"`
	Timeout    int32  `json:"timeout"`
}

// TServerK8S is the orchestration block of a server.
type TServerK8S struct {
	ServiceAccount  string                           `json:"serviceAccount,omitempty"`
	Env             []corev1.EnvVar                  `json:"env"`
	HostIPC         bool                             `json:"hostIPC"`
	HostNetwork     bool                             `json:"hostNetwork"`
	HostPorts       []TK8SHostPort                   `json:"hostPorts"`
	Mounts          []TK8SMount                      `json:"mounts"`
	NodeSelector    []corev1.NodeSelectorRequirement `json:"nodeSelector"`
	AbilityAffinity string                           `json:"abilityAffinity,omitempty"`
	NotStacked      bool                             `json:"notStacked"`
	Replicas        int32                            `json:"replicas"`
}

// TK8SHostPort binds a servant, by name, to a port on the node.
type TK8SHostPort struct {
	NameRef string `json:"nameRef"`
	Port    int32  `json:"port"`
}

// TK8SMount mounts a volume source into the server container.
type TK8SMount struct {
	Name        string          `json:"name"`
	MountPath   string          `json:"mountPath"`
	SubPathExpr string          `json:"subPathExpr,omitempty"`
	ReadOnly    bool            `json:"readOnly,omitempty"`
	Source      TK8SMountSource `json:"source"`
}

// TK8SMountSource is the volume behind a TK8SMount.
type TK8SMountSource struct {
	HostPath *corev1.HostPathVolumeSource `json:"hostPath,omitempty"`
	EmptyDir *corev1.EmptyDirVolumeSource `json:"emptyDir,omitempty"`
}

// TDeploy is a one-shot deploy request. The operator creates the TServer
// described by Apply once the request is approved.
type TDeploy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Apply TDeployApply `json:"apply"`
}

// TDeployApply is a TServerSpec plus the submitter and remark.
type TDeployApply struct {
	TServerSpec `json:",inline"`

	Mark   string `json:"mark"`
	Person string `json:"person"`
}

// TTree is the singleton app tree. Only the fields read by the admin layer
// are declared.
type TTree struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Businesses []TTreeBusiness `json:"businesses,omitempty"`
	Apps       []TTreeApp      `json:"apps,omitempty"`
}

// TTreeBusiness groups apps for display.
type TTreeBusiness struct {
	Name   string `json:"name"`
	Show   string `json:"show"`
	Weight int32  `json:"weight"`
	Mark   string `json:"mark"`
}

// TTreeApp is one app of the tree.
type TTreeApp struct {
	Name         string `json:"name"`
	BusinessRef  string `json:"businessRef"`
	CreatePerson string `json:"createPerson,omitempty"`
	Mark         string `json:"mark,omitempty"`
}
