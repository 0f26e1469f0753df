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

// Package health aggregates component health checks for the probe endpoints.
package health

import (
	"context"
	"fmt"
	"time"
)

// Checker reports the health of one component.
type Checker interface {
	// Name returns the unique name of the component.
	Name() string

	// Check determines the current status. ctx carries the check timeout.
	Check(ctx context.Context) Status
}

// Status is the health of a component.
type Status struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`

	// Details holds structured diagnostics, such as the watch loop state.
	Details map[string]interface{} `json:"details,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// String returns a human-readable representation of the status.
func (s Status) String() string {
	status := "UNHEALTHY"
	if s.Healthy {
		status = "HEALTHY"
	}
	return fmt.Sprintf("[%s] %s (checked at %s)", status, s.Message, s.Timestamp.Format(time.RFC3339))
}

// SystemStatus is the aggregated health of every registered component.
type SystemStatus struct {
	Healthy      bool              `json:"healthy"`
	Message      string            `json:"message"`
	Components   map[string]Status `json:"components"`
	Timestamp    time.Time         `json:"timestamp"`
	HealthyCount int               `json:"healthy_count"`
	TotalCount   int               `json:"total_count"`
}

// FuncChecker adapts a function to the Checker interface.
type FuncChecker struct {
	name  string
	check func(ctx context.Context) Status
}

// NewFuncChecker returns a Checker called name running check.
func NewFuncChecker(name string, check func(ctx context.Context) Status) *FuncChecker {
	return &FuncChecker{name: name, check: check}
}

// Name implements Checker.
func (f *FuncChecker) Name() string {
	return f.name
}

// Check implements Checker. A zero Timestamp is filled in.
func (f *FuncChecker) Check(ctx context.Context) Status {
	status := f.check(ctx)
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	return status
}
