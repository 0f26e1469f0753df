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

package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 5 * time.Second

// ErrUnknownComponent is returned for a component no checker is registered for.
var ErrUnknownComponent = errors.New("unknown component")

// Aggregator runs registered checkers in parallel and combines their status.
type Aggregator struct {
	mutex        sync.RWMutex
	checkers     map[string]Checker
	checkTimeout time.Duration
}

// NewAggregator returns an empty Aggregator. A non-positive checkTimeout
// means DefaultCheckTimeout.
func NewAggregator(checkTimeout time.Duration) *Aggregator {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}
	return &Aggregator{
		checkers:     make(map[string]Checker),
		checkTimeout: checkTimeout,
	}
}

// AddChecker registers checker, replacing any checker of the same name.
func (a *Aggregator) AddChecker(checker Checker) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.checkers[checker.Name()] = checker
}

// CheckAll checks every component. The system is healthy when all
// components are; an empty aggregator is healthy.
func (a *Aggregator) CheckAll(ctx context.Context) SystemStatus {
	a.mutex.RLock()
	checkers := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		checkers[name] = checker
	}
	a.mutex.RUnlock()

	type checkResult struct {
		name   string
		status Status
	}
	resultCh := make(chan checkResult, len(checkers))
	for name, checker := range checkers {
		go func(name string, checker Checker) {
			checkCtx, cancel := context.WithTimeout(ctx, a.checkTimeout)
			defer cancel()
			resultCh <- checkResult{name: name, status: checker.Check(checkCtx)}
		}(name, checker)
	}

	components := make(map[string]Status, len(checkers))
	healthyCount := 0
	for range checkers {
		select {
		case result := <-resultCh:
			components[result.name] = result.status
			if result.status.Healthy {
				healthyCount++
			}
		case <-ctx.Done():
			return SystemStatus{
				Message:      "health check timed out",
				Components:   components,
				Timestamp:    time.Now(),
				HealthyCount: healthyCount,
				TotalCount:   len(checkers),
			}
		}
	}

	return SystemStatus{
		Healthy:      healthyCount == len(checkers),
		Message:      healthMessage(healthyCount, components),
		Components:   components,
		Timestamp:    time.Now(),
		HealthyCount: healthyCount,
		TotalCount:   len(checkers),
	}
}

// CheckComponent checks the component called name.
func (a *Aggregator) CheckComponent(ctx context.Context, name string) (Status, error) {
	a.mutex.RLock()
	checker, exists := a.checkers[name]
	a.mutex.RUnlock()

	if !exists {
		return Status{}, fmt.Errorf("health checker %q: %w", name, ErrUnknownComponent)
	}

	checkCtx, cancel := context.WithTimeout(ctx, a.checkTimeout)
	defer cancel()
	return checker.Check(checkCtx), nil
}

func healthMessage(healthyCount int, components map[string]Status) string {
	total := len(components)
	if healthyCount == total {
		if total == 0 {
			return "no components registered"
		}
		return fmt.Sprintf("all %d components are healthy", total)
	}

	var unhealthy []string
	for name, status := range components {
		if !status.Healthy {
			unhealthy = append(unhealthy, name)
		}
	}
	sort.Strings(unhealthy)
	return fmt.Sprintf("%d/%d components healthy (unhealthy: %v)", healthyCount, total, unhealthy)
}
