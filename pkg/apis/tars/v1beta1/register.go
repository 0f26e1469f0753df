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
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	// GroupName is the API group of all TARS custom resources.
	GroupName = "k8s.tars.io"
	// Version defines the API version
	Version = "v1beta1"
)

// SchemeGroupVersion is group version used for every TARS object.
var SchemeGroupVersion = schema.GroupVersion{Group: GroupName, Version: Version}

// APIVersion is the apiVersion written into created objects.
var APIVersion = SchemeGroupVersion.String()

// Kinds written by this layer.
const (
	TServerKind = "TServer"
	TDeployKind = "TDeploy"
	TImageKind  = "TImage"
)

// Plural resource names.
const (
	TServerResource   = "tservers"
	TDeployResource   = "tdeploys"
	TTemplateResource = "ttemplates"
	TAccountResource  = "taccounts"
	TTreeResource     = "ttrees"
	TImageResource    = "timages"
)

// TreeName is the name of the singleton TTree object holding the app tree.
const TreeName = "tars-tree"

// Resource takes an unqualified resource and returns a Group qualified GroupResource
func Resource(resource string) schema.GroupResource {
	return SchemeGroupVersion.WithResource(resource).GroupResource()
}

// ResourceWithVersion takes an unqualified resource and returns a Group qualified GroupVersionResource
func ResourceWithVersion(resource string) schema.GroupVersionResource {
	return SchemeGroupVersion.WithResource(resource)
}

// ListKinds maps every TARS resource to its list kind. Fake dynamic clients
// need it to serve lists of types that are not in a scheme.
func ListKinds() map[schema.GroupVersionResource]string {
	return map[schema.GroupVersionResource]string{
		ResourceWithVersion(TServerResource):   "TServerList",
		ResourceWithVersion(TDeployResource):   "TDeployList",
		ResourceWithVersion(TTemplateResource): "TTemplateList",
		ResourceWithVersion(TAccountResource):  "TAccountList",
		ResourceWithVersion(TTreeResource):     "TTreeList",
		ResourceWithVersion(TImageResource):    "TImageList",
	}
}
