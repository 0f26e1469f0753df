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

// Package watchcache mirrors one cluster resource kind locally so read
// paths do not hit the API server.
//
// A WatchCache runs a list/watch loop that feeds an ordered channel of
// events. A single consumer applies them to the mirror it owns and publishes
// an immutable snapshot after each batch; readers only ever load a snapshot.
// When the watch fails the loop goes back to a full list before watching
// again, for as long as its context lives.
//
// Reader puts the process-wide cache switch in front of a WatchCache: with
// caching disabled every read is a live list call.
package watchcache
