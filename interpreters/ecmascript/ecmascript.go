/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package ecmascript provides predicates written in ECMAScript.
package ecmascript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/util"

	"github.com/dop251/goja"
	"github.com/goccy/go-json"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Eval if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout is the Timeout for NewInterpreter.
	DefaultTimeout = time.Second
)

// Interpreter compiles and runs predicates using Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {
	// Timeout limits each evaluation.  Zero means no limit
	// (other than the context's).
	Timeout time.Duration

	// Testing is used to expose or hide some runtime
	// capabilities.
	Test bool

	// Extended adds some additional properties.
	Extended bool
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Timeout: DefaultTimeout,
	}
}

// wrapSrc makes a function body.  Source without a return statement
// is an expression.
func wrapSrc(src string) string {
	if !strings.Contains(src, "return") {
		src = "return (" + strings.TrimRight(strings.TrimSpace(src), ";") + ");"
	}
	return fmt.Sprintf("(function(x) {\n%s\n}(x));\n", src)
}

// Compile calls goja.Compile.
func (i *Interpreter) Compile(ctx context.Context, src string) (*goja.Program, error) {
	code := wrapSrc(src)
	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}
	return p, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// canonicalize makes a JSON-like copy so that the program can't
// modify the caller's value.
func canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}

// Eval runs the program with x bound to the given value.
//
// The following properties are available from the runtime at _.
//
// Extended properties (enabled by interpreter's Extended property):
//
//	cronNext(s): Return a string representing (RFC3999Nano) the
//	  next time for the given crontab expression.
//	check(actual, spec): Run the matcher and report whether every
//	  assertion passed.
//
// Testing properties (enabled by the interpreter's Test property):
//
//	sleep(ms): sleep for the given number of milliseconds.
//	log(x): log x as JSON.
func (i *Interpreter) Eval(ctx context.Context, p *goja.Program, x interface{}) (interface{}, error) {
	o := goja.New()

	if x == match.Undefined {
		o.Set("x", goja.Undefined())
	} else {
		y, err := canonicalize(x)
		if err != nil {
			return nil, err
		}
		o.Set("x", y)
	}

	env := map[string]interface{}{}
	o.Set("_", env)

	if i.Extended {
		// cronNext parses the given string as a crontab expression
		// using github.com/gorhill/cronexpr.  Returns the next time
		// as a string formatted in time.RFC3339Nano (UTC).
		env["cronNext"] = func(x interface{}) interface{} {
			cronExpr, is := export(x).(string)
			if !is {
				protest(o, "not a string")
			}
			c, err := cronexpr.Parse(cronExpr)
			if err != nil {
				protest(o, err.Error())
			}
			return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
		}

		env["check"] = func(actual, spec goja.Value) interface{} {
			var (
				sink = &tally{}
				m    = match.NewMatcher(&match.Config{})
			)
			m.Notify = func() {}
			if err := m.Check(sink, export(actual), export(spec)); err != nil {
				protest(o, err.Error())
			}
			return sink.failed == 0
		}
	}

	if i.Test {
		env["sleep"] = func(n interface{}) interface{} {
			ms, is := export(n).(int64)
			if !is {
				panic(fmt.Sprintf("a %T is not an %T", n, ms))
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return nil
		}

		env["log"] = func(x interface{}) interface{} {
			x = export(x)
			js, err := json.Marshal(&x)
			if err != nil {
				util.Logf("goja.log (can't marshal: %s)", err)
			} else {
				util.Logf("goja.log %s", js)
			}
			return x
		}
	}

	if 0 < i.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If Eval calls cancel() after RunProgram returns,
		// then the interrupt is harmless.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := RunProgram(o, p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return v.Export(), nil
}

// Predicate compiles the source into a Predicate.
//
// The source is either an expression using x (like "x > 3") or a
// function body that returns something.  The result is converted to
// a boolean as ECMAScript would.
//
// An error during evaluation (including a timeout) is a panic,
// which propagates out of match.Check.
func (i *Interpreter) Predicate(ctx context.Context, src string) (*match.Predicate, error) {
	p, err := i.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	return &match.Predicate{
		Label:       "js(" + strings.TrimSpace(src) + ")",
		Description: "ECMAScript predicate",
		Fn: func(x interface{}) bool {
			v, err := i.Eval(ctx, p, x)
			if err != nil {
				panic(err)
			}
			return truthy(v)
		},
	}, nil
}

func truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int64:
		return vv != 0
	case float64:
		return vv != 0 && vv == vv
	}
	return true
}

// RunProgram runs the program and turns panics into errors.
func RunProgram(o *goja.Runtime, p *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s", r)
		}
	}()
	return o.RunProgram(p)
}

// tally is a Sink that counts failures.
type tally struct {
	failed int
}

func (t *tally) Equal(actual, expected interface{}, msg string) {
	if !match.Equal(actual, expected) {
		t.failed++
	}
}

func (t *tally) DeepEqual(actual, expected interface{}, msg string) {
	if !match.DeepEqual(actual, expected) {
		t.failed++
	}
}
