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

package admin

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
)

// Filter is the label filter of a list request.
type Filter struct {
	Eq    map[string]string `json:"eq,omitempty"`
	NotEq map[string]string `json:"noteq,omitempty"`
}

// AddEqFilter adds equality requirements addressing serverID to filter and
// returns it. An id without "." only selects the app. A nil filter is
// allocated.
func AddEqFilter(filter *Filter, serverID string) *Filter {
	if filter == nil {
		filter = &Filter{}
	}
	if filter.Eq == nil {
		filter.Eq = map[string]string{}
	}
	if serverID == "" {
		return filter
	}
	app, server, found := strings.Cut(serverID, ".")
	filter.Eq[tarsv1beta1.ServerAppLabel] = app
	if found {
		filter.Eq[tarsv1beta1.ServerNameLabel] = server
	}
	return filter
}

// LabelSelector renders filter as a label selector. Requirements are sorted
// by key. Keys or values that are not valid label syntax are rejected.
func LabelSelector(filter *Filter) (string, error) {
	if filter == nil {
		return "", nil
	}
	selector := labels.NewSelector()
	add := func(op selection.Operator, terms map[string]string) error {
		for key, value := range terms {
			req, err := labels.NewRequirement(key, op, []string{value})
			if err != nil {
				return fmt.Errorf("invalid filter %s%s%s: %w", key, op, value, err)
			}
			selector = selector.Add(*req)
		}
		return nil
	}
	if err := add(selection.Equals, filter.Eq); err != nil {
		return "", err
	}
	if err := add(selection.NotEquals, filter.NotEq); err != nil {
		return "", err
	}
	return selector.String(), nil
}
