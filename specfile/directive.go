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

package specfile

import (
	"context"
	"strconv"

	"github.com/Comcast/spok/interpreters"
	"github.com/Comcast/spok/match"
)

// Directive keys.
const (
	// PredKey holds a predicate expression (see
	// match.ParsePredicate).
	PredKey = "$pred"

	// JSKey holds predicate source code.
	JSKey = "$js"

	// LangKey optionally names the language of the JSKey
	// source.  The default is interpreters.Default.
	LangKey = "$lang"
)

// BadDirective is returned for a directive that can't be made into
// a predicate.
type BadDirective struct {
	Path   string
	Reason string
}

func (e *BadDirective) Error() string {
	return "bad directive at " + e.Path + ": " + e.Reason
}

// IsDirective reports if the Object is a directive.
func IsDirective(o match.Object) bool {
	_, pred := o.Get(PredKey)
	_, js := o.Get(JSKey)
	return pred || js
}

// Resolver turns directives into predicates.
type Resolver struct {
	Interpreters interpreters.Map
}

// NewResolver makes a Resolver with the standard interpreters.
func NewResolver() *Resolver {
	return &Resolver{
		Interpreters: interpreters.Standard(),
	}
}

// Resolve returns a copy of x with every directive replaced by its
// predicate.
func (r *Resolver) Resolve(ctx context.Context, x interface{}) (interface{}, error) {
	return r.resolve(ctx, x, "")
}

func (r *Resolver) resolve(ctx context.Context, x interface{}, path string) (interface{}, error) {
	switch vv := x.(type) {
	case match.Object:
		if IsDirective(vv) {
			return r.directive(ctx, vv, path)
		}
		acc := make(match.Object, 0, len(vv))
		for _, e := range vv {
			v, err := r.resolve(ctx, e.Value, path+"."+e.Key)
			if err != nil {
				return nil, err
			}
			acc = append(acc, match.Entry{Key: e.Key, Value: v})
		}
		return acc, nil
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			v, err := r.resolve(ctx, y, path+"."+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			acc[i] = v
		}
		return acc, nil
	}
	return x, nil
}

func (r *Resolver) directive(ctx context.Context, o match.Object, path string) (*match.Predicate, error) {
	if path == "" {
		path = "."
	}
	bad := func(reason string) (*match.Predicate, error) {
		return nil, &BadDirective{Path: path, Reason: reason}
	}

	strs := make(map[string]string, len(o))
	for _, e := range o {
		switch e.Key {
		case PredKey, JSKey, LangKey, match.SpecKey, match.DescriptionKey:
		default:
			return bad("unexpected property " + e.Key)
		}
		s, is := e.Value.(string)
		if !is {
			return bad(e.Key + " isn't a string")
		}
		strs[e.Key] = s
	}

	pred, hasPred := strs[PredKey]
	src, hasJS := strs[JSKey]

	var (
		p   *match.Predicate
		err error
	)
	switch {
	case hasPred && hasJS:
		return bad("both " + PredKey + " and " + JSKey)
	case hasPred:
		if p, err = match.ParsePredicate(pred); err != nil {
			return bad(err.Error())
		}
	default:
		lang := strs[LangKey]
		c, have := r.Interpreters.Find(lang)
		if !have {
			return bad("unknown language " + lang)
		}
		if p, err = c.Predicate(ctx, src); err != nil {
			return bad(err.Error())
		}
	}

	if s, have := strs[match.SpecKey]; have {
		p.Label = s
	}
	if s, have := strs[match.DescriptionKey]; have {
		p.Description = s
	}
	return p, nil
}

// LoadSpec loads a specification and resolves its directives with a
// NewResolver.
func LoadSpec(ctx context.Context, filename string) (interface{}, error) {
	x, err := Load(filename)
	if err != nil {
		return nil, err
	}
	return NewResolver().Resolve(ctx, x)
}

// DecodeSpec decodes a specification and resolves its directives
// with a NewResolver.
func DecodeSpec(ctx context.Context, data []byte, f Format) (interface{}, error) {
	x, err := Decode(data, f)
	if err != nil {
		return nil, err
	}
	return NewResolver().Resolve(ctx, x)
}
