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

// Package snapshot records assertion streams and compares them with
// earlier runs.
package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/Comcast/spok/inspect"
	"github.com/Comcast/spok/match"
)

// Record is an assertion with its values rendered as text.
type Record struct {
	Operator string `json:"operator"`
	Actual   string `json:"actual"`
	Expected string `json:"expected"`
	Message  string `json:"message"`
	OK       bool   `json:"ok"`
}

func (r Record) String() string {
	status := "ok"
	if !r.OK {
		status = "not ok"
	}
	return fmt.Sprintf("%s %s (%s %s %s)", status, r.Message, r.Actual, r.Operator, r.Expected)
}

// Snapshot is a named assertion stream.
type Snapshot struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Records []Record  `json:"records"`
}

// Recorder is a Sink that records every assertion before passing it
// on to another Sink (if any).
type Recorder struct {
	sync.Mutex

	// Next, if not nil, receives every assertion.
	Next match.Sink

	Records []Record
}

// NewRecorder makes a Recorder.
func NewRecorder(next match.Sink) *Recorder {
	return &Recorder{Next: next}
}

func (r *Recorder) add(ok bool, op string, actual, expected interface{}, msg string) {
	r.Lock()
	r.Records = append(r.Records, Record{
		Operator: op,
		Actual:   inspect.Inspect(actual, false),
		Expected: inspect.Inspect(expected, false),
		Message:  inspect.StripColors(msg),
		OK:       ok,
	})
	r.Unlock()
}

func (r *Recorder) Equal(actual, expected interface{}, msg string) {
	r.add(match.Equal(actual, expected), "equal", actual, expected, msg)
	if r.Next != nil {
		r.Next.Equal(actual, expected, msg)
	}
}

func (r *Recorder) DeepEqual(actual, expected interface{}, msg string) {
	r.add(match.DeepEqual(actual, expected), "deepEqual", actual, expected, msg)
	if r.Next != nil {
		r.Next.DeepEqual(actual, expected, msg)
	}
}

// Failures returns the number of records that aren't OK.
func (r *Recorder) Failures() int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, rec := range r.Records {
		if !rec.OK {
			n++
		}
	}
	return n
}

// Snapshot returns a Snapshot of what's been recorded.
func (r *Recorder) Snapshot(name string) *Snapshot {
	r.Lock()
	defer r.Unlock()
	return &Snapshot{
		Name:    name,
		Created: time.Now().UTC(),
		Records: append([]Record(nil), r.Records...),
	}
}

// Difference is a position where two streams disagree.  Want or Got
// is nil when one stream is shorter.
type Difference struct {
	Index int
	Want  *Record
	Got   *Record
}

func (d Difference) String() string {
	switch {
	case d.Want == nil:
		return fmt.Sprintf("%d: unexpected %s", d.Index, d.Got)
	case d.Got == nil:
		return fmt.Sprintf("%d: missing %s", d.Index, d.Want)
	}
	return fmt.Sprintf("%d: wanted %s, got %s", d.Index, d.Want, d.Got)
}

// Compare returns the differences between two streams, position by
// position.
func Compare(want, got []Record) []Difference {
	var acc []Difference
	n := len(want)
	if n < len(got) {
		n = len(got)
	}
	for i := 0; i < n; i++ {
		var w, g *Record
		if i < len(want) {
			w = &want[i]
		}
		if i < len(got) {
			g = &got[i]
		}
		if w != nil && g != nil && *w == *g {
			continue
		}
		acc = append(acc, Difference{Index: i, Want: w, Got: g})
	}
	return acc
}
