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

// Package tap provides a Sink that writes TAP version 13.
package tap

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Comcast/spok/inspect"
	"github.com/Comcast/spok/match"

	"gopkg.in/yaml.v2"
)

// Writer is a match.Sink and a match.Diagnoser.
type Writer struct {
	sync.Mutex

	w       io.Writer
	started bool
	n       int
	failed  int
	err     error
}

// NewWriter makes a Writer.  The TAP version line is written before
// the first test line.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (t *Writer) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	if !t.started {
		t.started = true
		if _, t.err = io.WriteString(t.w, "TAP version 13\n"); t.err != nil {
			return
		}
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

var escaper = strings.NewReplacer("\n", " ", "\r", " ", "#", `\#`)

func (t *Writer) assert(pass bool, op string, actual, expected interface{}, msg string) {
	t.Lock()
	defer t.Unlock()

	t.n++
	status := "ok"
	if !pass {
		status = "not ok"
		t.failed++
	}
	t.printf("%s %d %s\n", status, t.n, escaper.Replace(msg))
	if pass {
		return
	}

	block := yaml.MapSlice{
		{Key: "operator", Value: op},
		{Key: "expected", Value: inspect.Inspect(expected, false)},
		{Key: "actual", Value: inspect.Inspect(actual, false)},
	}
	bs, err := yaml.Marshal(block)
	if err != nil {
		t.printf("  # yaml error %s\n", err)
		return
	}
	t.printf("  ---\n%s  ...\n", indent(string(bs), "  "))
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}

func (t *Writer) Equal(actual, expected interface{}, msg string) {
	t.assert(match.Equal(actual, expected), "equal", actual, expected, msg)
}

func (t *Writer) DeepEqual(actual, expected interface{}, msg string) {
	t.assert(match.DeepEqual(actual, expected), "deepEqual", actual, expected, msg)
}

// Diagnostic writes each line of msg as a comment.
func (t *Writer) Diagnostic(msg string) {
	t.Lock()
	defer t.Unlock()
	for _, line := range strings.Split(msg, "\n") {
		t.printf("# %s\n", line)
	}
}

// Plan writes the plan (1..N) for the tests written so far, along
// with a summary.
func (t *Writer) Plan() error {
	t.Lock()
	defer t.Unlock()
	t.printf("\n1..%d\n# tests %d\n# pass  %d\n", t.n, t.n, t.n-t.failed)
	if 0 < t.failed {
		t.printf("# fail  %d\n", t.failed)
	} else {
		t.printf("\n# ok\n")
	}
	return t.err
}

// Count returns the number of test lines.
func (t *Writer) Count() int {
	t.Lock()
	defer t.Unlock()
	return t.n
}

// Failures returns the number of "not ok" lines.
func (t *Writer) Failures() int {
	t.Lock()
	defer t.Unlock()
	return t.failed
}

// Err returns the first write error.
func (t *Writer) Err() error {
	t.Lock()
	defer t.Unlock()
	return t.err
}
