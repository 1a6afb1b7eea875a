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
	"fmt"
	"reflect"
	"strconv"
)

// Reserved keys carry annotations.  They are never compared against
// the actual value.
const (
	// TopicKey names the subtree for messages.
	TopicKey = "$topic"

	// SpecKey is a short label ("satisfies: ...").
	SpecKey = "$spec"

	// DescriptionKey is a longer description.
	DescriptionKey = "$description"
)

// IsReserved reports if k is an annotation key.
func IsReserved(k string) bool {
	return k == TopicKey || k == SpecKey || k == DescriptionKey
}

// Kind is the variant of a Spec.
type Kind int

const (
	KindPredicate Kind = iota
	KindBool
	KindNumber
	KindString
	KindNull
	KindObject
	KindArray
)

var kindNames = []string{"predicate", "boolean", "number", "string", "null", "object", "array"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Spec is a classified specification value.
//
// Value is always the value that was classified.  Pred is set for
// KindPredicate, Obj for KindObject, and Elems for KindArray.
type Spec struct {
	Kind  Kind
	Value interface{}
	Pred  *Predicate
	Obj   Object
	Elems []interface{}
}

// UnknownSpecKind is returned when a specification contains a value
// that isn't a predicate, a scalar, null, or a container.
//
// That's a mistake in the specification, not a mismatch in the data.
type UnknownSpecKind struct {
	Key  string
	Type string
}

func (e *UnknownSpecKind) Error() string {
	return `at key "` + e.Key + `" type ` + e.Type + ` not yet handled`
}

// Classify determines the Kind of a specification value.
//
// A Predicate without a Fn is an *UnknownSpecKind.
//
// Maps with string keys become Objects with sorted keys.  Slices and
// arrays become KindArray.  Funcs that take one argument and return
// a bool become predicates.
func Classify(x interface{}) (Spec, error) {
	switch vv := x.(type) {
	case nil, Undef:
		return Spec{Kind: KindNull, Value: x}, nil
	case *Predicate:
		if vv == nil {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		if vv.Fn == nil {
			return Spec{}, &UnknownSpecKind{Type: "predicate without a function"}
		}
		return Spec{Kind: KindPredicate, Value: x, Pred: vv}, nil
	case Predicate:
		if vv.Fn == nil {
			return Spec{}, &UnknownSpecKind{Type: "predicate without a function"}
		}
		return Spec{Kind: KindPredicate, Value: x, Pred: &vv}, nil
	case func(interface{}) bool:
		if vv == nil {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		return Spec{Kind: KindPredicate, Value: x, Pred: &Predicate{Fn: vv}}, nil
	case bool:
		return Spec{Kind: KindBool, Value: x}, nil
	case string:
		return Spec{Kind: KindString, Value: x}, nil
	case Object:
		return Spec{Kind: KindObject, Value: x, Obj: vv}, nil
	case map[string]interface{}:
		if vv == nil {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		return Spec{Kind: KindObject, Value: x, Obj: objectOf(reflect.ValueOf(vv))}, nil
	case []interface{}:
		if vv == nil {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		return Spec{Kind: KindArray, Value: x, Elems: vv}, nil
	}

	if IsNumber(x) {
		return Spec{Kind: KindNumber, Value: x}, nil
	}

	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Bool:
		return Spec{Kind: KindBool, Value: x}, nil
	case reflect.String:
		return Spec{Kind: KindString, Value: x}, nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return Spec{Kind: KindNull, Value: x}, nil
		}
	case reflect.Map:
		if v.IsNil() {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		if v.Type().Key().Kind() == reflect.String {
			return Spec{Kind: KindObject, Value: x, Obj: objectOf(v)}, nil
		}
	case reflect.Slice:
		if v.IsNil() {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		return Spec{Kind: KindArray, Value: x, Elems: elemsOf(v)}, nil
	case reflect.Array:
		return Spec{Kind: KindArray, Value: x, Elems: elemsOf(v)}, nil
	case reflect.Func:
		if v.IsNil() {
			return Spec{Kind: KindNull, Value: x}, nil
		}
		if p := funcPredicate(v); p != nil {
			return Spec{Kind: KindPredicate, Value: x, Pred: p}, nil
		}
	}

	return Spec{}, &UnknownSpecKind{Type: fmt.Sprintf("%T", x)}
}

func objectOf(v reflect.Value) Object {
	keys := sortedKeys(v)
	acc := make(Object, 0, len(keys))
	for _, k := range keys {
		e := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
		acc = append(acc, Entry{k, e.Interface()})
	}
	return acc
}

func elemsOf(v reflect.Value) []interface{} {
	acc := make([]interface{}, v.Len())
	for i := range acc {
		acc[i] = v.Index(i).Interface()
	}
	return acc
}

// Topic returns the $topic annotation of an Object (if any).
func (s Spec) Topic() string {
	if s.Kind != KindObject {
		return ""
	}
	return s.annotation(TopicKey)
}

func (s Spec) annotation(k string) string {
	if x, have := s.Obj.Get(k); have {
		if str, is := x.(string); is {
			return str
		}
	}
	return ""
}

// Labels returns the label and description used in messages.
//
// Predicates provide their own.  Objects can carry $spec and
// $description annotations.
func (s Spec) Labels() (label, description string) {
	switch s.Kind {
	case KindPredicate:
		return s.Pred.SpecLabel(), s.Pred.Description
	case KindObject:
		return s.annotation(SpecKey), s.annotation(DescriptionKey)
	}
	return "", ""
}

// Entries returns the keys and values to check, in order.  Keys
// include reserved ones like $topic.
func (s Spec) Entries() ([]string, []interface{}) {
	switch s.Kind {
	case KindObject:
		ks := make([]string, len(s.Obj))
		vs := make([]interface{}, len(s.Obj))
		for i, e := range s.Obj {
			ks[i], vs[i] = e.Key, e.Value
		}
		return ks, vs
	case KindArray:
		ks := make([]string, len(s.Elems))
		for i := range s.Elems {
			ks[i] = strconv.Itoa(i)
		}
		return ks, s.Elems
	}
	return nil, nil
}

// NeedsRecurse reports if the matcher should descend into the
// specification rather than compare it as a unit.
//
// Arrays are only recursed into if they contain something other
// than numbers, strings, and nulls.  Empty objects are never recursed
// into, so {} asserts that there are no properties.  All other
// objects are recursed into, even if they only hold constants, since
// that gives a message per property.
func (s Spec) NeedsRecurse() bool {
	switch s.Kind {
	case KindArray:
		for _, x := range s.Elems {
			if IsNull(x) || IsNumber(x) || TypeOf(x) == "string" {
				continue
			}
			return true
		}
		return false
	case KindObject:
		return 0 < len(s.Obj)
	}
	return false
}

// NeedsRecurse classifies x and reports if the matcher would descend
// into it.
func NeedsRecurse(x interface{}) bool {
	s, err := Classify(x)
	if err != nil {
		return false
	}
	return s.NeedsRecurse()
}
