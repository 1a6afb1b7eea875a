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

// Package specfile reads specifications and actual values from JSON
// and YAML.
//
// Objects keep the order of their properties (as match.Objects), so
// assertions come out in the order they were written.
//
// In a specification, an object with a "$pred" or "$js" property is
// a directive that becomes a predicate:
//
//	{"age": {"$pred": "range(30, 40)"},
//	 "kids": {"$js": "x.length === 3", "$spec": "three kids"}}
package specfile

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/tools"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v2"
)

// Format is a document syntax.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// FormatOf guesses the format from the file extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".js", ".ndjson", ".jsonl":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return JSON, fmt.Errorf("unknown format for %s", filename)
}

// Load reads a document from a file.
//
// '%inline("NAME")' in the file is replaced with the contents of the
// file NAME (relative to the document's directory) before parsing.
func Load(filename string) (interface{}, error) {
	f, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	bs, err := tools.ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	x, err := Decode(bs, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return x, nil
}

// Decode parses a single document.
func Decode(data []byte, f Format) (interface{}, error) {
	switch f {
	case YAML:
		return DecodeYAML(data)
	default:
		d := NewDecoder(bytes.NewReader(data))
		x, err := d.Decode()
		if err != nil {
			return nil, err
		}
		if _, err = d.Decode(); err != io.EOF {
			return nil, fmt.Errorf("trailing data after JSON value")
		}
		return x, nil
	}
}

// Decoder reads a stream of JSON values.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder makes a Decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		dec: json.NewDecoder(r),
	}
}

// Decode returns the next value.  At the end of the stream, the
// error is io.EOF.
func (d *Decoder) Decode() (interface{}, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}
	return d.value(tok)
}

func (d *Decoder) value(tok json.Token) (interface{}, error) {
	switch vv := tok.(type) {
	case json.Delim:
		switch vv {
		case '{':
			acc := match.Object{}
			for d.dec.More() {
				kt, err := d.dec.Token()
				if err != nil {
					return nil, err
				}
				k, is := kt.(string)
				if !is {
					return nil, fmt.Errorf("bad key %#v", kt)
				}
				v, err := d.next()
				if err != nil {
					return nil, err
				}
				acc = acc.Set(k, v)
			}
			if _, err := d.dec.Token(); err != nil {
				return nil, err
			}
			return acc, nil
		case '[':
			acc := []interface{}{}
			for d.dec.More() {
				v, err := d.next()
				if err != nil {
					return nil, err
				}
				acc = append(acc, v)
			}
			if _, err := d.dec.Token(); err != nil {
				return nil, err
			}
			return acc, nil
		}
		return nil, fmt.Errorf("unexpected %s", vv)
	case json.Number:
		return vv.Float64()
	}
	return tok, nil
}

func (d *Decoder) next() (interface{}, error) {
	tok, err := d.dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	return d.value(tok)
}

// DecodeYAML parses a YAML document.
//
// Mappings keep their order, except that mappings inside a
// top-level sequence that also holds other values have their keys
// sorted.
func DecodeYAML(data []byte) (interface{}, error) {
	var x interface{}
	if err := yaml.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	switch vv := x.(type) {
	case map[interface{}]interface{}:
		var m yaml.MapSlice
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return fromYAML(m)
	case []interface{}:
		for _, y := range vv {
			if _, is := y.(map[interface{}]interface{}); !is {
				return fromYAML(x)
			}
		}
		var ms []yaml.MapSlice
		if err := yaml.Unmarshal(data, &ms); err == nil {
			acc := make([]interface{}, len(ms))
			for i, m := range ms {
				acc[i] = m
			}
			return fromYAML(acc)
		}
	}
	return fromYAML(x)
}

func yamlKey(k interface{}) string {
	if s, is := k.(string); is {
		return s
	}
	return fmt.Sprint(k)
}

func fromYAML(x interface{}) (interface{}, error) {
	switch vv := x.(type) {
	case yaml.MapSlice:
		acc := make(match.Object, 0, len(vv))
		for _, item := range vv {
			v, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			acc = acc.Set(yamlKey(item.Key), v)
		}
		return acc, nil
	case map[interface{}]interface{}:
		ks := make([]string, 0, len(vv))
		vs := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s := yamlKey(k)
			ks = append(ks, s)
			vs[s] = v
		}
		sort.Strings(ks)
		acc := make(match.Object, 0, len(ks))
		for _, k := range ks {
			v, err := fromYAML(vs[k])
			if err != nil {
				return nil, err
			}
			acc = append(acc, match.Entry{Key: k, Value: v})
		}
		return acc, nil
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			v, err := fromYAML(y)
			if err != nil {
				return nil, err
			}
			acc[i] = v
		}
		return acc, nil
	}
	return x, nil
}
