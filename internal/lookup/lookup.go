// Copyright The OpenTelemetry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lookup finds keys anywhere in a nested JSON event.
//
// Events are kept as raw JSON and walked with gjson so that nested values are
// visited in document order, which decides the winner when a key occurs more than
// once.
package lookup

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Match is the first occurrence of a key.
type Match struct {
	// Path holds the object keys and array indexes leading from the root to Value.
	Path  []string
	Value gjson.Result
}

// Find performs a depth-first, first-match search for key. The object's own keys
// are checked before any nested value; nested objects and the object entries of
// arrays are then searched in document order. A key holding null does not match.
func Find(event gjson.Result, key string) (Match, bool) {
	return find(event, key, nil)
}

// Value returns the value of the first occurrence of key, or a result for which
// Exists reports false.
func Value(event gjson.Result, key string) gjson.Result {
	m, ok := Find(event, key)
	if !ok {
		return gjson.Result{}
	}

	return m.Value
}

func find(obj gjson.Result, key string, path []string) (Match, bool) {
	if !obj.IsObject() {
		return Match{}, false
	}

	var match Match
	found := false

	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key && v.Type != gjson.Null {
			match = Match{Path: with(path, k.Str), Value: v}
			found = true
			return false
		}
		return true
	})

	if found {
		return match, true
	}

	obj.ForEach(func(k, v gjson.Result) bool {
		switch {
		case v.IsObject():
			match, found = find(v, key, with(path, k.Str))

		case v.IsArray():
			idx := 0
			v.ForEach(func(_, entry gjson.Result) bool {
				if entry.IsObject() {
					match, found = find(entry, key, with(path, k.Str, strconv.Itoa(idx)))
				}
				idx++
				return !found
			})
		}
		return !found
	})

	return match, found
}

func with(path []string, elems ...string) []string {
	p := make([]string, 0, len(path)+len(elems))
	p = append(p, path...)
	return append(p, elems...)
}

// JoinPath renders path in gjson/sjson path syntax, escaping characters the path
// syntax treats specially.
func JoinPath(path []string) string {
	escaped := make([]string, len(path))
	for i, elem := range path {
		escaped[i] = EscapeKey(elem)
	}

	return strings.Join(escaped, ".")
}

// EscapeKey escapes a single object key for use in a gjson/sjson path.
func EscapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '!', '\\', ':', '=', '<', '>', '%', '[', ']', '{', '}', '(', ')', ',':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}
