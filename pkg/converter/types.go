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
)

// ServantConfig is one servant as submitted by the console. Numeric fields
// accept JSON numbers or strings; anything that does not start with an
// integer reads as 0.
type ServantConfig struct {
	Name        string             `json:"Name"`
	Port        intstr.IntOrString `json:"Port"`
	Threads     intstr.IntOrString `json:"Threads"`
	Connections intstr.IntOrString `json:"Connections"`
	Capacity    intstr.IntOrString `json:"Capacity"`
	IsTars      bool               `json:"IsTars"`
	IsTcp       bool               `json:"IsTcp"`
	Timeout     intstr.IntOrString `json:"Timeout"`
}

// ServerServant is the servant table of a server keyed by servant name.
type ServerServant map[string]ServantConfig

// HostPortElem binds the servant NameRef to Port on the node.
type HostPortElem struct {
	NameRef string `json:"NameRef"`
	Port    int32  `json:"Port"`
}

// ServerK8S holds the cluster facing options of a server. The zero value is
// valid: no host IPC, no host network, stacking allowed, no replicas, no host
// ports, no node selector and no ability affinity.
type ServerK8S struct {
	AbilityAffinity string                           `json:"abilityAffinity,omitempty"`
	HostIpc         bool                             `json:"HostIpc"`
	HostNetwork     bool                             `json:"HostNetwork"`
	NotStacked      bool                             `json:"NotStacked"`
	Replicas        int32                            `json:"Replicas"`
	HostPort        []HostPortElem                   `json:"HostPort"`
	NodeSelector    []corev1.NodeSelectorRequirement `json:"NodeSelector"`
}

// ServerOption holds the framework options of a server. The zero value has
// no template, no profile, no sub type, importance 0 and no async threads.
type ServerOption struct {
	ServerTemplate  string `json:"ServerTemplate"`
	ServerProfile   string `json:"ServerProfile"`
	ServerSubType   string `json:"ServerSubType"`
	ServerImportant int32  `json:"ServerImportant"`
	AsyncThread     int32  `json:"AsyncThread"`
}

// DeployMetadata is everything a deploy action submits.
type DeployMetadata struct {
	ServerApp     string        `json:"ServerApp"`
	ServerName    string        `json:"ServerName"`
	ServerServant ServerServant `json:"ServerServant"`
	ServerK8S     ServerK8S     `json:"ServerK8S"`
	ServerOption  ServerOption  `json:"ServerOption"`
	ServerMark    string        `json:"ServerMark"`
	Uid           string        `json:"Uid"`
}
