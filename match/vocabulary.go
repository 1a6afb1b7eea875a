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
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Comcast/spok/inspect"
	"github.com/Comcast/spok/util"
)

// Range specifies that a number is within [min,max].
func Range(min, max float64) *Predicate {
	return &Predicate{
		Label:       "spok.range(" + inspect.FormatNumber(min) + ", " + inspect.FormatNumber(max) + ")",
		Description: inspect.FormatNumber(min) + " <= value <= " + inspect.FormatNumber(max),
		Fn: func(x interface{}) bool {
			f, is := number(x)
			return is && min <= f && f <= max
		},
	}
}

// GT specifies that a number is greater than n.
func GT(n float64) *Predicate {
	return &Predicate{
		Label:       "spok.gt(" + inspect.FormatNumber(n) + ")",
		Description: "value > " + inspect.FormatNumber(n),
		Fn: func(x interface{}) bool {
			f, is := number(x)
			return is && f > n
		},
	}
}

// GE specifies that a number is greater than or equal to n.
func GE(n float64) *Predicate {
	return &Predicate{
		Label:       "spok.ge(" + inspect.FormatNumber(n) + ")",
		Description: "value >= " + inspect.FormatNumber(n),
		Fn: func(x interface{}) bool {
			f, is := number(x)
			return is && f >= n
		},
	}
}

// LT specifies that a number is less than n.
func LT(n float64) *Predicate {
	return &Predicate{
		Label:       "spok.lt(" + inspect.FormatNumber(n) + ")",
		Description: "value < " + inspect.FormatNumber(n),
		Fn: func(x interface{}) bool {
			f, is := number(x)
			return is && f < n
		},
	}
}

// LE specifies that a number is less than or equal to n.
func LE(n float64) *Predicate {
	return &Predicate{
		Label:       "spok.le(" + inspect.FormatNumber(n) + ")",
		Description: "value <= " + inspect.FormatNumber(n),
		Fn: func(x interface{}) bool {
			f, is := number(x)
			return is && f <= n
		},
	}
}

func relabel(p *Predicate, label, description string) *Predicate {
	p.Label = label
	p.Description = description
	return p
}

// GTZ specifies that a number is greater than zero.
func GTZ() *Predicate { return relabel(GT(0), "spok.gtz", "value > 0") }

// GEZ specifies that a number is greater than or equal to zero.
func GEZ() *Predicate { return relabel(GE(0), "spok.gez", "value >= 0") }

// LTZ specifies that a number is less than zero.
func LTZ() *Predicate { return relabel(LT(0), "spok.ltz", "value < 0") }

// LEZ specifies that a number is less than or equal to zero.
func LEZ() *Predicate { return relabel(LE(0), "spok.lez", "value <= 0") }

// NE specifies that the value is not (strictly) equal to v.
func NE(v interface{}) *Predicate {
	return &Predicate{
		Label:       "spok.ne(" + jsString(v) + ")",
		Description: "value !== " + jsString(v),
		Fn: func(x interface{}) bool {
			return !Equal(v, x)
		},
	}
}

// Type specifies the ECMAScript typeof name of the value.  See
// TypeOf.
func Type(t string) *Predicate {
	return &Predicate{
		Label:       "spok.type(" + t + ")",
		Description: "value is of type " + t,
		Fn: func(x interface{}) bool {
			return TypeOf(x) == t
		},
	}
}

// Array specifies that the value is a slice or an array.
func Array() *Predicate {
	return &Predicate{
		Label:       "spok.array",
		Description: "values is an Array",
		Fn:          isArray,
	}
}

// ArrayElements specifies that the value is an array with n elements.
func ArrayElements(n int) *Predicate {
	return &Predicate{
		Label:       "spok.arrayElements(" + strconv.Itoa(n) + ")",
		Description: "array has " + strconv.Itoa(n) + " element(s)",
		Fn: func(x interface{}) bool {
			if IsNull(x) {
				util.Logf("Expected %d, but found array to be null.", n)
				return false
			}
			pass := isArray(x) && length(x) == n
			if !pass {
				util.Logf("Expected %d, but found %d elements.", n, length(x))
			}
			return pass
		},
	}
}

// ArrayElementsRange specifies that the value is an array with
// between min and max elements (inclusive).
func ArrayElementsRange(min, max int) *Predicate {
	return &Predicate{
		Label:       "spok.arrayElementsRange(" + strconv.Itoa(min) + ", " + strconv.Itoa(max) + ")",
		Description: "array has between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " elements",
		Fn: func(x interface{}) bool {
			if IsNull(x) {
				util.Logf("Expected between %d and %d, but found array to be null.", min, max)
				return false
			}
			n := length(x)
			pass := isArray(x) && min <= n && n <= max
			if !pass {
				util.Logf("Expected between %d and %d, but found %d elements.", min, max, n)
			}
			return pass
		},
	}
}

// Number specifies a number that isn't NaN.
func Number() *Predicate {
	return &Predicate{
		Label:       "spok.number",
		Description: "value is a number",
		Fn: func(x interface{}) bool {
			_, is := number(x)
			return is
		},
	}
}

// String specifies a string.
func String() *Predicate {
	return relabel(Type("string"), "spok.string", "value is a string")
}

// Function specifies a function.
func Function() *Predicate {
	return relabel(Type("function"), "spok.function", "value is a function")
}

// DefinedObject specifies a value that's an object and isn't null.
func DefinedObject() *Predicate {
	return &Predicate{
		Label:       "spok.definedObject",
		Description: "value is defined and of type object",
		Fn: func(x interface{}) bool {
			return !IsNull(x) && TypeOf(x) == "object"
		},
	}
}

// Defined specifies a value that's neither nil nor Undefined.
func Defined() *Predicate {
	return &Predicate{
		Label:       "spok.defined",
		Description: "value is neither null nor undefined",
		Fn: func(x interface{}) bool {
			return !IsNull(x)
		},
	}
}

// NotDefined specifies a value that's nil or Undefined.
func NotDefined() *Predicate {
	return &Predicate{
		Label:       "spok.notDefined",
		Description: "value is either null or undefined",
		Fn:          IsNull,
	}
}

// StartsWith specifies a string with the given prefix.
func StartsWith(what string) *Predicate {
	return &Predicate{
		Label:       "spok.startsWith(" + what + ")",
		Description: "string starts with " + what,
		Fn: func(x interface{}) bool {
			s, is := stringOf(x)
			res := is && strings.HasPrefix(s, what)
			if !res {
				util.Logf(`"%s" does not start with "%s"`, jsString(x), what)
			}
			return res
		},
	}
}

// EndsWith specifies a string with the given suffix.
func EndsWith(what string) *Predicate {
	return &Predicate{
		Label:       "spok.endsWith(" + what + ")",
		Description: "string ends with " + what,
		Fn: func(x interface{}) bool {
			s, is := stringOf(x)
			res := is && strings.HasSuffix(s, what)
			if !res {
				util.Logf(`"%s" does not end with "%s"`, jsString(x), what)
			}
			return res
		},
	}
}

// Test specifies a value that matches the regular expression.
//
// Non-strings are converted as ECMAScript would, so null is tested
// as "null".
func Test(re *regexp.Regexp) *Predicate {
	s := "/" + re.String() + "/"
	return &Predicate{
		Label:       "spok.test(" + s + ")",
		Description: "value matches " + s + " regex",
		Fn: func(x interface{}) bool {
			str, is := stringOf(x)
			if !is {
				str = jsString(x)
			}
			res := re.MatchString(str)
			if !res {
				util.Logf("\"%s\" does not match \n%s", str, s)
			}
			return res
		},
	}
}

func number(x interface{}) (float64, bool) {
	f, is := fudge(x).(float64)
	return f, is && !math.IsNaN(f)
}

func stringOf(x interface{}) (string, bool) {
	if s, is := x.(string); is {
		return s, true
	}
	if x != nil && reflect.ValueOf(x).Kind() == reflect.String {
		return reflect.ValueOf(x).String(), true
	}
	return "", false
}
