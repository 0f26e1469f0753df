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
	"math/rand/v2"
	"strings"
)

const lowercase = "abcdefghijklmnopqrstuvwxyz"

// ServerID joins app and server name the way the console addresses a server.
func ServerID(app, server string) string {
	return app + "." + server
}

// TServerName derives the TServer name from a server id: the first "." is
// replaced by "-" and the result is lower-cased. Every lookup of a stored
// server depends on this derivation.
func TServerName(serverID string) string {
	return strings.ToLower(strings.Replace(serverID, ".", "-", 1))
}

// DeployName is the TServer name followed by two random lowercase suffixes,
// so repeated deploys of one server never collide.
func DeployName(app, server string) string {
	return TServerName(ServerID(app, server)) + "-" + randomString(10) + "-" + randomString(5)
}

func randomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(lowercase[rand.IntN(len(lowercase))])
	}
	return b.String()
}
