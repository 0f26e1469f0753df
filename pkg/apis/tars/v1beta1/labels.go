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

// Label keys that are not scoped to a namespace. They are used both as list
// selectors and as labels set on created objects.
const (
	ImageTypeLabel     = "tars.io/ImageType"
	SupportedLabel     = "tars.io/Supported."
	SubTypeLabel       = "tars.io/SubType"
	ServerAppLabel     = "tars.io/ServerApp"
	ServerNameLabel    = "tars.io/ServerName"
	DeployApproveLabel = "tars.io/Approve"
	ConfigNameLabel    = "tars.io/ConfigName"
	ConfigPodSeqLabel  = "tars.io/PodSeq"
	ConfigActivated    = "tars.io/Activated"
	ConfigVersion      = "tars.io/Version"
	SecretLabel        = "tars.io/Secret"
)

// Server sub types. The admin layer only ever deploys ServerTypeTars.
const (
	ServerTypeTars   = "tars"
	ServerTypeNormal = "normal"
)

// AgentServerName is the tars.io/ServerName of the per-node agent daemon.
const AgentServerName = ServerTypeTars + "agent"

// NamespaceLabels holds the node labels whose keys embed the namespace the
// process manages. It is computed once at startup.
type NamespaceLabels struct {
	// NodeFrameworkAbility marks a node usable by the framework in this namespace.
	NodeFrameworkAbility string
	// NodeAppAbilityPrefix is completed with an app name to mark a node as part
	// of that app's node pool.
	NodeAppAbilityPrefix string
	// PublicNode marks a node as part of the shared public pool.
	PublicNode string
}

// NewNamespaceLabels derives the namespace scoped label keys.
func NewNamespaceLabels(namespace string) NamespaceLabels {
	return NamespaceLabels{
		NodeFrameworkAbility: "tars.io/node." + namespace,
		NodeAppAbilityPrefix: "tars.io/ability." + namespace + ".",
		PublicNode:           "tars.io/public." + namespace,
	}
}

// AppAbility returns the node label key granting app scheduling eligibility.
func (l NamespaceLabels) AppAbility(app string) string {
	return l.NodeAppAbilityPrefix + app
}
