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

// Package v1beta1 contains the k8s.tars.io/v1beta1 resource shapes written by
// the admin layer and the label vocabulary shared with the TARS operator.
//
// The structs here are only used to build and read objects that are sent
// through the dynamic client, so they are not registered in a scheme and carry
// no generated deep-copy code.
package v1beta1
