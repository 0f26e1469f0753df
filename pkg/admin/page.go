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

// Limiter is the paging window of a list request.
type Limiter struct {
	Offset int `json:"offset"`
	Rows   int `json:"rows"`
}

// PageList returns the slice bounds of the page described by limiter over n
// items. A negative window end, or one past n, extends the page to n.
func PageList(n int, limiter Limiter) (start, stop int) {
	start = limiter.Offset
	if start < 0 {
		start = 0
	} else if start >= n {
		start = n
	}

	stop = limiter.Offset + limiter.Rows
	if stop < 0 || stop >= n {
		stop = n
	}
	if stop < start {
		stop = start
	}
	return start, stop
}

// Page returns the items of the page described by limiter.
func Page[T any](items []T, limiter Limiter) []T {
	start, stop := PageList(len(items), limiter)
	return items[start:stop]
}
