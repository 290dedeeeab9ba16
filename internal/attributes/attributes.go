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

// Package attributes converts dynamic JSON values into OpenTelemetry attributes.
package attributes

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/oracle-samples/oci-observability-functions/internal/lookup"
)

// ErrUnsupportedValue is returned for values that have no attribute representation.
var ErrUnsupportedValue = errors.New("value is not supported")

// Assemble adds an attribute for each of keys found in event. A value that is an
// object contributes each of its entries as a separate attribute; any other value
// is added under the key itself. Keys absent from the event are added with an
// empty value.
func Assemble(attrs pcommon.Map, event gjson.Result, keys []string) error {
	for _, key := range keys {
		value := lookup.Value(event, key)

		if value.IsObject() {
			var err error
			value.ForEach(func(k, v gjson.Result) bool {
				err = Put(attrs, k.Str, v)
				return err == nil
			})
			if err != nil {
				return err
			}
			continue
		}

		if err := Put(attrs, key, value); err != nil {
			return err
		}
	}

	return nil
}

// Put adds value to attrs under key. Null and missing values produce an empty
// attribute since OTLP has no null.
func Put(attrs pcommon.Map, key string, value gjson.Result) error {
	dest := attrs.PutEmpty(key)
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}

	return set(dest, key, value)
}

func set(dest pcommon.Value, key string, value gjson.Result) error {
	switch value.Type {
	// Booleans first, they must never end up as integers.
	case gjson.True, gjson.False:
		dest.SetBool(value.Bool())

	case gjson.Number:
		if i, ok := integral(value); ok {
			dest.SetInt(i)
		} else {
			dest.SetDouble(value.Num)
		}

	case gjson.String:
		dest.SetStr(value.Str)

	case gjson.JSON:
		if value.IsArray() {
			return setSlice(dest.SetEmptySlice(), key, value)
		}

		m := dest.SetEmptyMap()
		var err error
		value.ForEach(func(k, v gjson.Result) bool {
			err = Put(m, k.Str, v)
			return err == nil
		})
		return err

	default:
		return errors.Wrapf(ErrUnsupportedValue, "key %s / %s", key, value.Raw)
	}

	return nil
}

func setSlice(dest pcommon.Slice, key string, list gjson.Result) error {
	var err error
	list.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.Null {
			err = errors.Wrapf(ErrUnsupportedValue, "attribute list assigned to key %s / %s", key, list.Raw)
			return false
		}
		err = set(dest.AppendEmpty(), key, v)
		return err == nil
	})

	return err
}

// integral reports whether a JSON number is written as an integer that fits in
// an int64.
func integral(value gjson.Result) (int64, bool) {
	raw := strings.TrimSpace(value.Raw)
	if strings.ContainsAny(raw, ".eE") {
		return 0, false
	}

	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return i, true
}
