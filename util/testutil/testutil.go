/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package testutil has JSON helpers for tests and sessions.
//
// Objects parsed here are match.Objects, so the order of their
// properties survives into messages and back out as JSON.
package testutil

import (
	"bytes"
	"fmt"

	"github.com/Comcast/spok/specfile"
	"github.com/Comcast/spok/util"

	"github.com/goccy/go-json"
)

// JS renders x as compact JSON for logs.  When x can't be marshalled,
// the result is its Go syntax.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		util.Warnf("testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes that hold a JSON value,
// returns that value with objects as match.Objects.  Anything else
// comes back as given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	var bs []byte
	switch vv := x.(type) {
	case []byte:
		bs = vv
	case string:
		bs = []byte(vv)
	default:
		return x
	}
	v, err := specfile.Decode(bytes.TrimSpace(bs), specfile.JSON)
	if err != nil {
		return x
	}
	return v
}

// Line renders x as one line of input for a process that reads JSON
// lines.  A string is taken to be JSON already.
func Line(x interface{}) ([]byte, error) {
	var bs []byte
	switch vv := x.(type) {
	case string:
		bs = bytes.TrimSpace([]byte(vv))
	case []byte:
		bs = bytes.TrimSpace(vv)
	default:
		var err error
		if bs, err = json.Marshal(x); err != nil {
			return nil, err
		}
	}
	if i := bytes.IndexByte(bs, '\n'); 0 <= i {
		return nil, fmt.Errorf("input has a newline: %q", bs)
	}
	return append(bs, '\n'), nil
}
