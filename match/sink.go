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
	"github.com/Comcast/spok/inspect"
)

// Sink receives the assertions.
//
// The Matcher never looks at what happens next.  A Sink can record,
// log, fail a test, or panic.
type Sink interface {
	// Equal asserts that actual equals expected.
	Equal(actual, expected interface{}, msg string)

	// DeepEqual asserts that actual and expected have the same
	// structure and values.
	DeepEqual(actual, expected interface{}, msg string)
}

// Diagnoser is a test context that can only write diagnostics.
type Diagnoser interface {
	Diagnostic(msg string)
}

// DiagnosticSink is a Sink for a Diagnoser.
//
// Every message goes to the Diagnoser first.  The comparison itself
// is done by the Fallback (or StrictAsserter if Fallback is nil).
type DiagnosticSink struct {
	Diagnoser Diagnoser
	Fallback  Sink
}

// NewDiagnosticSink makes a DiagnosticSink that uses StrictAsserter.
func NewDiagnosticSink(d Diagnoser) *DiagnosticSink {
	return &DiagnosticSink{Diagnoser: d}
}

func (s *DiagnosticSink) fallback() Sink {
	if s.Fallback == nil {
		return StrictAsserter
	}
	return s.Fallback
}

func (s *DiagnosticSink) Equal(actual, expected interface{}, msg string) {
	s.Diagnoser.Diagnostic(msg)
	s.fallback().Equal(actual, expected, msg)
}

func (s *DiagnosticSink) DeepEqual(actual, expected interface{}, msg string) {
	s.Diagnoser.Diagnostic(msg)
	s.fallback().DeepEqual(actual, expected, msg)
}

// AssertionError is the panic value from StrictAsserter.
type AssertionError struct {
	Operator string
	Actual   interface{}
	Expected interface{}
	Message  string
}

func (e *AssertionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "assertion failed"
	}
	return msg + ": expected " + inspect.Inspect(e.Expected, false) +
		" " + e.Operator + " " + inspect.Inspect(e.Actual, false)
}

type strictAsserter struct{}

// StrictAsserter is the process-wide default Sink used by
// DiagnosticSinks.  It panics with an *AssertionError when a
// comparison fails and does nothing otherwise.
var StrictAsserter Sink = strictAsserter{}

func (strictAsserter) Equal(actual, expected interface{}, msg string) {
	if !Equal(actual, expected) {
		panic(&AssertionError{"strictEqual", actual, expected, msg})
	}
}

func (strictAsserter) DeepEqual(actual, expected interface{}, msg string) {
	if !DeepEqual(actual, expected) {
		panic(&AssertionError{"deepStrictEqual", actual, expected, msg})
	}
}
