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

package watchcache

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// EventType is the kind of change carried by an Event.
type EventType string

const (
	Added    EventType = "add"
	Modified EventType = "update"
	Deleted  EventType = "delete"
	Error    EventType = "error"
)

// Event is one change applied to the mirror, in stream order. Error events
// carry Err and no object; they only reach observers.
type Event struct {
	Type   EventType
	Object *unstructured.Unstructured
	Err    error
}

// State is the position of a WatchCache in its list/watch loop.
type State int32

const (
	StateInit State = iota
	StateListing
	StateWatching
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateListing:
		return "Listing"
	case StateWatching:
		return "Watching"
	default:
		return "Unknown"
	}
}

// delta is what the producer hands to the consumer: either one watch event or
// the full content of a relist.
type delta struct {
	event   Event
	relist  bool
	objects []*unstructured.Unstructured
}
