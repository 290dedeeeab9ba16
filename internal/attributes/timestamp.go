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

package attributes

import (
	"math"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/collector/pdata/pcommon"
)

const nanoMagnitude = uint64(1_000_000_000_000_000_000)

// UnixToNano scales a unix timestamp in seconds or milliseconds up to nanosecond
// magnitude by multiplying by 10 until it reaches 10^18. It only approximates a unit
// conversion: a timestamp is assumed to already be in nanoseconds once it is that
// large.
func UnixToNano(ts uint64) uint64 {
	if ts == 0 {
		return 0
	}

	for ts < nanoMagnitude {
		ts *= 10
	}

	return ts
}

// Timestamp converts an event timestamp into an OTLP timestamp. Numbers and numeric
// strings are scaled to nanoseconds; integers through UnixToNano, fractional values
// keeping their fraction. Values beyond the uint64 range are clamped to the largest
// timestamp. RFC 3339 strings are parsed. Anything else, including zero and negative
// numbers and non-finite values, yields 0.
func Timestamp(value gjson.Result) pcommon.Timestamp {
	switch value.Type {
	case gjson.Number:
		return numeric(value.Raw, value.Num)

	case gjson.String:
		if f, err := strconv.ParseFloat(value.Str, 64); err == nil {
			return numeric(value.Str, f)
		}
		if t, err := time.Parse(time.RFC3339Nano, value.Str); err == nil {
			return pcommon.NewTimestampFromTime(t)
		}
	}

	return 0
}

func numeric(raw string, f float64) pcommon.Timestamp {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f <= 0:
		return 0
	case f >= math.MaxUint64:
		return pcommon.Timestamp(uint64(math.MaxUint64))
	}

	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return pcommon.Timestamp(UnixToNano(n))
	}

	for f < float64(nanoMagnitude) {
		f *= 10
	}

	return pcommon.Timestamp(uint64(f))
}
