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

// Package interpreters names the languages predicates can be
// written in.
package interpreters

import (
	"context"

	"github.com/Comcast/spok/interpreters/ecmascript"
	"github.com/Comcast/spok/match"
)

// Compiler makes a Predicate from source code.
type Compiler interface {
	Predicate(ctx context.Context, src string) (*match.Predicate, error)
}

// Map is a set of Compilers by name.
type Map map[string]Compiler

// Default is the name of the language used when none is given.
const Default = "ecmascript-ext"

// Standard returns the usual Compilers.
func Standard() Map {
	is := make(Map)

	es := ecmascript.NewInterpreter()
	is["ecmascript"] = es
	is["ecmascript-5.1"] = es

	ext := ecmascript.NewInterpreter()
	ext.Extended = true
	is["ecmascript-ext"] = ext
	is["ecmascript-5.1-ext"] = ext
	is["goja"] = ext

	return is
}

// Find returns the named Compiler (or the Default if name is empty).
func (m Map) Find(name string) (Compiler, bool) {
	if name == "" {
		name = Default
	}
	c, have := m[name]
	return c, have
}
