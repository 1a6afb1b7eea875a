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
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Builder makes a Predicate from decoded arguments.
type Builder struct {
	// Name is the name used in predicate expressions.
	Name string

	// Params documents the arguments (e.g. "min, max").
	Params string

	// Doc is a one-line description.
	Doc string

	// Arity is the required number of arguments.
	Arity int

	Build func(args []interface{}) (*Predicate, error)
}

// Vocabulary maps names to Builders.
var Vocabulary = map[string]*Builder{}

func register(name, params, doc string, arity int, build func(args []interface{}) (*Predicate, error)) {
	Vocabulary[name] = &Builder{
		Name:   name,
		Params: params,
		Doc:    doc,
		Arity:  arity,
		Build:  build,
	}
}

func constant(f func() *Predicate) func([]interface{}) (*Predicate, error) {
	return func([]interface{}) (*Predicate, error) {
		return f(), nil
	}
}

func numeric(f func(float64) *Predicate) func([]interface{}) (*Predicate, error) {
	return func(args []interface{}) (*Predicate, error) {
		n, is := number(args[0])
		if !is {
			return nil, fmt.Errorf("%#v (%T) isn't a number", args[0], args[0])
		}
		return f(n), nil
	}
}

func integers(args []interface{}) ([]int, error) {
	acc := make([]int, len(args))
	for i, x := range args {
		n, is := number(x)
		if !is || n != float64(int(n)) {
			return nil, fmt.Errorf("%#v (%T) isn't an integer", x, x)
		}
		acc[i] = int(n)
	}
	return acc, nil
}

func str(args []interface{}, f func(string) *Predicate) (*Predicate, error) {
	s, is := args[0].(string)
	if !is {
		return nil, fmt.Errorf("%#v (%T) isn't a string", args[0], args[0])
	}
	return f(s), nil
}

func init() {
	register("range", "min, max", "min <= value <= max", 2, func(args []interface{}) (*Predicate, error) {
		min, is := number(args[0])
		if !is {
			return nil, fmt.Errorf("bad min %#v", args[0])
		}
		max, is := number(args[1])
		if !is {
			return nil, fmt.Errorf("bad max %#v", args[1])
		}
		return Range(min, max), nil
	})
	register("gt", "n", "value > n", 1, numeric(GT))
	register("ge", "n", "value >= n", 1, numeric(GE))
	register("lt", "n", "value < n", 1, numeric(LT))
	register("le", "n", "value <= n", 1, numeric(LE))
	register("gtz", "", "value > 0", 0, constant(GTZ))
	register("gez", "", "value >= 0", 0, constant(GEZ))
	register("ltz", "", "value < 0", 0, constant(LTZ))
	register("lez", "", "value <= 0", 0, constant(LEZ))
	register("ne", "value", "value !== given value", 1, func(args []interface{}) (*Predicate, error) {
		return NE(args[0]), nil
	})
	register("type", "name", "typeof value === name", 1, func(args []interface{}) (*Predicate, error) {
		return str(args, Type)
	})
	register("array", "", "value is an array", 0, constant(Array))
	register("arrayElements", "n", "array has n elements", 1, func(args []interface{}) (*Predicate, error) {
		ns, err := integers(args)
		if err != nil {
			return nil, err
		}
		return ArrayElements(ns[0]), nil
	})
	register("arrayElementsRange", "min, max", "array has between min and max elements", 2, func(args []interface{}) (*Predicate, error) {
		ns, err := integers(args)
		if err != nil {
			return nil, err
		}
		return ArrayElementsRange(ns[0], ns[1]), nil
	})
	register("number", "", "value is a number (not NaN)", 0, constant(Number))
	register("string", "", "value is a string", 0, constant(String))
	register("function", "", "value is a function", 0, constant(Function))
	register("definedObject", "", "value is a non-null object", 0, constant(DefinedObject))
	register("defined", "", "value is neither null nor undefined", 0, constant(Defined))
	register("notDefined", "", "value is null or undefined", 0, constant(NotDefined))
	register("startsWith", "prefix", "string starts with prefix", 1, func(args []interface{}) (*Predicate, error) {
		return str(args, StartsWith)
	})
	register("endsWith", "suffix", "string ends with suffix", 1, func(args []interface{}) (*Predicate, error) {
		return str(args, EndsWith)
	})
	register("test", "regex", "value matches the regular expression", 1, func(args []interface{}) (*Predicate, error) {
		var src string
		switch vv := args[0].(type) {
		case string:
			src = vv
		case *regexp.Regexp:
			return Test(vv), nil
		default:
			return nil, fmt.Errorf("%#v (%T) isn't a regular expression", args[0], args[0])
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, err
		}
		return Test(re), nil
	})
}

// VocabularyNames returns the names of all Builders in order.
func VocabularyNames() []string {
	acc := make([]string, 0, len(Vocabulary))
	for name := range Vocabulary {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// BadPredicateExpr is returned by ParsePredicate.
type BadPredicateExpr struct {
	Expr   string
	Reason string
}

func (e *BadPredicateExpr) Error() string {
	return `bad predicate "` + e.Expr + `": ` + e.Reason
}

var predicateExpr = regexp.MustCompile(`^(?:spok\.)?([A-Za-z_][A-Za-z0-9_]*)\s*(?:\((.*)\))?$`)

// ParsePredicate builds a Predicate from a call expression like
// "range(0, 2)", "gtz", or "test(/^a/)".
//
// Arguments are JSON values, except that a single argument of the
// form /.../ is a regular expression and a single argument
// undefined is Undefined.  A leading "spok." is ignored,
// so labels like "spok.gt(3)" parse back into their predicates.
func ParsePredicate(expr string) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	ss := predicateExpr.FindStringSubmatch(expr)
	if ss == nil {
		return nil, &BadPredicateExpr{expr, "syntax"}
	}
	b, have := Vocabulary[ss[1]]
	if !have {
		return nil, &BadPredicateExpr{expr, "unknown predicate " + ss[1]}
	}

	args, err := parseArgs(ss[2])
	if err != nil {
		return nil, &BadPredicateExpr{expr, err.Error()}
	}
	if len(args) != b.Arity {
		return nil, &BadPredicateExpr{expr, fmt.Sprintf("%s wants %d args, not %d", b.Name, b.Arity, len(args))}
	}
	p, err := b.Build(args)
	if err != nil {
		return nil, &BadPredicateExpr{expr, err.Error()}
	}
	return p, nil
}

func parseArgs(s string) ([]interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s == "undefined" {
		return []interface{}{Undefined}, nil
	}
	if 2 <= len(s) && s[0] == '/' && s[len(s)-1] == '/' {
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return []interface{}{re}, nil
	}
	var args []interface{}
	if err := json.Unmarshal([]byte("["+s+"]"), &args); err != nil {
		return nil, err
	}
	return args, nil
}
