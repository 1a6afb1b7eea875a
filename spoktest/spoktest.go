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

// Package spoktest provides Sinks for Go tests.
//
//	func TestUser(t *testing.T) {
//		spoktest.Check(t, user, match.Obj(
//			"$topic", "user",
//			"name", match.StartsWith("ho"),
//			"age", match.Range(30, 40)))
//	}
package spoktest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Comcast/spok/inspect"
	"github.com/Comcast/spok/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TB is a Sink that reports failures with Errorf.
type TB struct {
	T testing.TB

	// Verbose logs passing assertions too.
	Verbose bool
}

// T makes a TB.
func T(t testing.TB) *TB {
	return &TB{T: t}
}

func (s *TB) report(pass bool, op string, actual, expected interface{}, msg string) {
	s.T.Helper()
	if pass {
		if s.Verbose {
			s.T.Log("ok " + msg)
		}
		return
	}
	s.T.Errorf("not ok %s\n  operator: %s\n  expected: %s\n  actual:   %s",
		msg, op, inspect.Inspect(expected, false), inspect.Inspect(actual, false))
}

func (s *TB) Equal(actual, expected interface{}, msg string) {
	s.T.Helper()
	s.report(match.Equal(actual, expected), "equal", actual, expected, msg)
}

func (s *TB) DeepEqual(actual, expected interface{}, msg string) {
	s.T.Helper()
	s.report(match.DeepEqual(actual, expected), "deepEqual", actual, expected, msg)
}

// Testify is a Sink backed by testify's assert (or require).
//
// Values are compared in their canonical forms (see
// match.Canonical), so an int and a float64 with the same value are
// equal.
type Testify struct {
	T testing.TB

	// Require stops the test at the first failure.
	Require bool
}

// NewTestify makes a Testify Sink that doesn't stop at the first
// failure.
func NewTestify(t testing.TB) *Testify {
	return &Testify{T: t}
}

func (s *Testify) Equal(actual, expected interface{}, msg string) {
	s.T.Helper()
	if !match.Equal(actual, expected) {
		s.fail(actual, expected, msg)
	}
}

func (s *Testify) DeepEqual(actual, expected interface{}, msg string) {
	s.T.Helper()
	if !match.DeepEqual(actual, expected) {
		s.fail(actual, expected, msg)
	}
}

// fail lets testify render the difference.
func (s *Testify) fail(actual, expected interface{}, msg string) {
	s.T.Helper()
	want, got := match.Canonical(expected), match.Canonical(actual)
	if assert.ObjectsAreEqual(want, got) {
		// Canonically equal but not match.Equal (NaN, say).
		got = inspect.Inspect(actual, false)
		want = inspect.Inspect(expected, false)
	}
	if s.Require {
		require.Equal(s.T, want, got, msg)
		return
	}
	assert.Equal(s.T, want, got, msg)
}

// Logger is a match.Diagnoser that writes with Log.
type Logger struct {
	T testing.TB
}

func (l Logger) Diagnostic(msg string) {
	l.T.Helper()
	l.T.Log(msg)
}

// Diagnostic makes a DiagnosticSink that logs every message and
// panics (with a *match.AssertionError) at the first failure.
func Diagnostic(t testing.TB) *match.DiagnosticSink {
	return match.NewDiagnosticSink(Logger{t})
}

// Call is one assertion received by a Recorder.
type Call struct {
	Op       string
	Actual   interface{}
	Expected interface{}
	Msg      string
}

// OK reports whether the assertion passed.
func (c Call) OK() bool {
	if c.Op == "deepEqual" {
		return match.DeepEqual(c.Actual, c.Expected)
	}
	return match.Equal(c.Actual, c.Expected)
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%s, %s, %q)", c.Op,
		inspect.Inspect(c.Actual, false), inspect.Inspect(c.Expected, false), c.Msg)
}

// Recorder is a Sink that remembers every assertion.
type Recorder struct {
	sync.Mutex
	Calls []Call
}

func (r *Recorder) add(c Call) {
	r.Lock()
	r.Calls = append(r.Calls, c)
	r.Unlock()
}

func (r *Recorder) Equal(actual, expected interface{}, msg string) {
	r.add(Call{"equal", actual, expected, msg})
}

func (r *Recorder) DeepEqual(actual, expected interface{}, msg string) {
	r.add(Call{"deepEqual", actual, expected, msg})
}

// Msgs returns the messages in order.
func (r *Recorder) Msgs() []string {
	r.Lock()
	defer r.Unlock()
	acc := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		acc[i] = c.Msg
	}
	return acc
}

// Failures returns the assertions that didn't pass.
func (r *Recorder) Failures() []Call {
	r.Lock()
	defer r.Unlock()
	var acc []Call
	for _, c := range r.Calls {
		if !c.OK() {
			acc = append(acc, c)
		}
	}
	return acc
}

// Reset forgets everything.
func (r *Recorder) Reset() {
	r.Lock()
	r.Calls = nil
	r.Unlock()
}

// Check checks actual against spec with match.DefaultMatcher and a
// TB sink.  A broken specification is fatal.
func Check(t testing.TB, actual, spec interface{}) {
	t.Helper()
	if err := match.Check(T(t), actual, spec); err != nil {
		t.Fatal(err)
	}
}
