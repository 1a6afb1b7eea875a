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

package match

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Comcast/spok/inspect"

	"github.com/goccy/go-json"
)

// Undef is the type of Undefined.
type Undef struct{}

// Undefined is what you get when you ask an actual value for a
// property it doesn't have.
//
// It is distinct from nil, which is an explicit null.
var Undefined = Undef{}

func (Undef) String() string { return "undefined" }

// IsUndefined lets package inspect recognize Undefined without
// importing this package.
func (Undef) IsUndefined() bool { return true }

func (Undef) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IsNull reports if x is nil, Undefined, or a nil pointer, map,
// slice, interface, or func.
func IsNull(x interface{}) bool {
	switch x.(type) {
	case nil, Undef:
		return true
	case Object:
		return false
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Entry is a property of an Object.
type Entry struct {
	Key   string
	Value interface{}
}

// Object is a map that remembers the order of its properties.
//
// Specifications are walked in property order, so that's the order
// in which assertions are emitted.
type Object []Entry

// Obj makes an Object from alternating keys and values.
//
//	match.Obj("name", "homer", "age", match.GT(30))
//
// Panics if given an odd number of arguments or a non-string key.
func Obj(pairs ...interface{}) Object {
	if len(pairs)%2 != 0 {
		panic("odd args to match.Obj")
	}
	acc := make(Object, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, is := pairs[i].(string)
		if !is {
			panic(fmt.Sprintf("match.Obj given a non-string key (%T)", pairs[i]))
		}
		acc = acc.Set(k, pairs[i+1])
	}
	return acc
}

// Get returns the value for the given key.
func (o Object) Get(k string) (interface{}, bool) {
	for _, e := range o {
		if e.Key == k {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (o Object) Keys() []string {
	acc := make([]string, len(o))
	for i, e := range o {
		acc[i] = e.Key
	}
	return acc
}

// Set replaces the value of an existing key or appends a new entry.
//
// The Object might be modified.
func (o Object) Set(k string, v interface{}) Object {
	for i, e := range o {
		if e.Key == k {
			o[i].Value = v
			return o
		}
	}
	return append(o, Entry{k, v})
}

// WithTopic returns a copy with the given $topic.
func (o Object) WithTopic(topic string) Object {
	acc := make(Object, 0, len(o)+1)
	acc = append(acc, Entry{TopicKey, topic})
	for _, e := range o {
		if e.Key != TopicKey {
			acc = append(acc, e)
		}
	}
	return acc
}

// MarshalJSON writes the properties in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if 0 < i {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fudge is a hack to cast numbers to float64s.
func fudge(x interface{}) interface{} {
	switch vv := x.(type) {
	case float64:
		return vv
	case float32:
		return float64(vv)
	case int:
		return float64(vv)
	case int64:
		return float64(vv)
	case int32:
		return float64(vv)
	case json.Number:
		if f, err := vv.Float64(); err == nil {
			return f
		}
		return x
	}
	if x == nil {
		return nil
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return x
}

// IsNumber reports if x is any kind of Go number.
func IsNumber(x interface{}) bool {
	_, is := fudge(x).(float64)
	return is
}

// Index returns the value of the property k of x.
//
// Objects and maps are indexed by key, slices and arrays by decimal
// index, and structs by exported field name or JSON name.  Pointers
// are followed.  A missing property is Undefined.  x is never
// modified.
func Index(x interface{}, k string) interface{} {
	switch vv := x.(type) {
	case nil, Undef:
		return Undefined
	case Object:
		if v, have := vv.Get(k); have {
			return v
		}
		return Undefined
	case map[string]interface{}:
		if v, have := vv[k]; have {
			return v
		}
		return Undefined
	case []interface{}:
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || len(vv) <= i {
			return Undefined
		}
		return vv[i]
	}

	v := reflect.ValueOf(x)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Undefined
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return Undefined
		}
		e := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
		if !e.IsValid() {
			return Undefined
		}
		return e.Interface()
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || v.Len() <= i {
			return Undefined
		}
		return v.Index(i).Interface()
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			if f.Name == k || jsonName(f) == k {
				return v.Field(i).Interface()
			}
		}
	}
	return Undefined
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

// Canonical returns a JSON-like rendering of x: numbers become
// float64s, Objects, string-keyed maps, and structs become
// map[string]interface{}, and slices and arrays become
// []interface{}.  Undefined, predicates, and other funcs are left
// alone.
func Canonical(x interface{}) interface{} {
	return canonical(x, 0)
}

// maxCanonicalDepth stops runaway recursion through cyclic values.
const maxCanonicalDepth = 64

func canonical(x interface{}, depth int) interface{} {
	if maxCanonicalDepth < depth {
		return x
	}
	switch vv := x.(type) {
	case nil, Undef, bool, string, float64:
		return x
	case Object:
		m := make(map[string]interface{}, len(vv))
		for _, e := range vv {
			m[e.Key] = canonical(e.Value, depth+1)
		}
		return m
	case *Predicate:
		return x
	}
	if IsNumber(x) {
		return fudge(x)
	}

	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return canonical(v.Elem().Interface(), depth+1)
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return x
		}
		m := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = canonical(iter.Value().Interface(), depth+1)
		}
		return m
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		acc := make([]interface{}, v.Len())
		for i := range acc {
			acc[i] = canonical(v.Index(i).Interface(), depth+1)
		}
		return acc
	case reflect.Struct:
		t := v.Type()
		m := make(map[string]interface{}, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name := jsonName(f)
			if name == "" {
				name = f.Name
			}
			m[name] = canonical(v.Field(i).Interface(), depth+1)
		}
		return m
	}
	return x
}

// Equal is the comparison used by this package's sinks for single
// values.
//
// Numbers are equal if they have the same value regardless of their
// Go types.  NaN isn't equal to anything.  Undefined is only equal to
// Undefined, and nil is only equal to other nils.
func Equal(a, b interface{}) bool {
	if a == Undefined || b == Undefined {
		return a == Undefined && b == Undefined
	}
	an, aIsNum := fudge(a).(float64)
	bn, bIsNum := fudge(b).(float64)
	if aIsNum || bIsNum {
		return aIsNum && bIsNum && an == bn
	}
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return DeepEqual(a, b)
}

// DeepEqual compares the Canonical forms of a and b.
func DeepEqual(a, b interface{}) bool {
	return reflect.DeepEqual(Canonical(a), Canonical(b))
}

// TypeOf returns the ECMAScript typeof name for x: "undefined",
// "object" (including nil), "boolean", "number", "string", or
// "function".
func TypeOf(x interface{}) string {
	switch x.(type) {
	case Undef:
		return "undefined"
	case nil:
		return "object"
	case bool:
		return "boolean"
	case string:
		return "string"
	case *Predicate, Predicate:
		return "function"
	}
	if IsNumber(x) {
		return "number"
	}
	switch reflect.ValueOf(x).Kind() {
	case reflect.Func:
		return "function"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	}
	return "object"
}

// isArray reports if x is a slice or an array (but not an Object).
func isArray(x interface{}) bool {
	if _, is := x.(Object); is || x == nil {
		return false
	}
	switch reflect.ValueOf(x).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// length returns the number of elements in an array or 0.
func length(x interface{}) int {
	if !isArray(x) {
		return 0
	}
	return reflect.ValueOf(x).Len()
}

// jsString converts x to a string roughly as ECMAScript's String()
// would.
func jsString(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return "null"
	case Undef:
		return "undefined"
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case Object:
		return "[object Object]"
	}
	if f, is := fudge(x).(float64); is {
		return inspect.FormatNumber(f)
	}
	return fmt.Sprint(x)
}

// sortedKeys returns the keys of a string-keyed map in order.
func sortedKeys(v reflect.Value) []string {
	acc := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		acc = append(acc, k.String())
	}
	sort.Strings(acc)
	return acc
}
