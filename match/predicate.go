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
	"reflect"
	"runtime"
	"strings"
)

// Predicate is a specification that's a function of the actual
// value.
type Predicate struct {
	// Fn does the work.  A panic from Fn is not recovered.
	Fn func(x interface{}) bool

	// Label is a short name, like "spok.gt(3)".  When empty, the
	// name of Fn (if it has one) is used.
	Label string

	// Description is a longer explanation, like "value > 3".
	Description string
}

// Satisfies makes a Predicate with the given label.
func Satisfies(label string, fn func(interface{}) bool) *Predicate {
	return &Predicate{Fn: fn, Label: label}
}

// Describe sets the description and returns the Predicate.
func (p *Predicate) Describe(description string) *Predicate {
	p.Description = description
	return p
}

// Test calls the predicate's function.
func (p *Predicate) Test(x interface{}) bool {
	return p.Fn(x)
}

// SpecLabel returns the Label or, failing that, the name of the
// function.
//
// The Predicate isn't modified.
func (p *Predicate) SpecLabel() string {
	if p.Label != "" {
		return p.Label
	}
	if p.Fn == nil {
		return ""
	}
	return funcName(reflect.ValueOf(p.Fn))
}

// funcName returns the short name of a declared function.
// Anonymous functions have no name.
func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); 0 <= i {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); 0 <= i {
		name = name[i+1:]
	}
	if strings.Contains(name, ".func") || strings.HasPrefix(name, "func") {
		return ""
	}
	return strings.TrimSuffix(name, "-fm")
}

// funcPredicate adapts a func of one argument that returns a bool.
//
// The actual value is converted to the argument's type if it can
// be.  Otherwise the predicate is false.
func funcPredicate(fn reflect.Value) *Predicate {
	t := fn.Type()
	if t.NumIn() != 1 || t.NumOut() != 1 || t.Out(0).Kind() != reflect.Bool || t.IsVariadic() {
		return nil
	}
	in := t.In(0)
	return &Predicate{
		Label: funcName(fn),
		Fn: func(x interface{}) bool {
			arg, ok := convertArg(x, in)
			if !ok {
				return false
			}
			return fn.Call([]reflect.Value{arg})[0].Bool()
		},
	}
}

func convertArg(x interface{}, in reflect.Type) (reflect.Value, bool) {
	if IsNull(x) {
		switch in.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if x == nil || x == Undefined {
				return reflect.Zero(in), true
			}
		default:
			return reflect.Value{}, false
		}
	}
	v := reflect.ValueOf(x)
	if v.Type().AssignableTo(in) {
		return v, true
	}
	if f, is := fudge(x).(float64); is {
		switch in.Kind() {
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(f).Convert(in), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if f == float64(int64(f)) {
				return reflect.ValueOf(int64(f)).Convert(in), true
			}
			return reflect.Value{}, false
		}
	}
	if v.Type().ConvertibleTo(in) && v.Kind() == in.Kind() {
		return v.Convert(in), true
	}
	return reflect.Value{}, false
}
