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
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// ParseInt reads v as an integer, keeping only the leading integer of a
// string value ("12abc" is 12, "3.9" is 3). Values that do not start with an
// integer, and values outside the int32 range, read as 0.
func ParseInt(v intstr.IntOrString) int32 {
	if v.Type == intstr.Int {
		return v.IntVal
	}
	return parseLeadingInt(v.StrVal)
}

func parseLeadingInt(s string) int32 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
		return 0
	}
	return int32(n)
}

// UnmarshalJSON decodes a servant leniently. Numeric fields take JSON
// numbers, strings, booleans or null; anything that is not a number or a
// string reads as 0 and never fails the decode.
func (s *ServantConfig) UnmarshalJSON(data []byte) error {
	type plain ServantConfig
	var raw struct {
		plain
		Port        json.RawMessage `json:"Port"`
		Threads     json.RawMessage `json:"Threads"`
		Connections json.RawMessage `json:"Connections"`
		Capacity    json.RawMessage `json:"Capacity"`
		Timeout     json.RawMessage `json:"Timeout"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ServantConfig(raw.plain)
	s.Port = looseInt(raw.Port)
	s.Threads = looseInt(raw.Threads)
	s.Connections = looseInt(raw.Connections)
	s.Capacity = looseInt(raw.Capacity)
	s.Timeout = looseInt(raw.Timeout)
	return nil
}

// looseInt keeps strings as they are for ParseInt and truncates numbers
// toward zero. Numbers outside the int32 range read as 0.
func looseInt(data json.RawMessage) intstr.IntOrString {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return intstr.FromInt32(0)
	}
	switch c := data[0]; {
	case c == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return intstr.FromInt32(0)
		}
		return intstr.FromString(str)
	case c == '-' || (c >= '0' && c <= '9'):
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil || f > math.MaxInt32 || f < math.MinInt32 {
			return intstr.FromInt32(0)
		}
		return intstr.FromInt32(int32(math.Trunc(f)))
	default:
		return intstr.FromInt32(0)
	}
}
