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

package main

import (
	"fmt"
	"io"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/report"
	"github.com/Comcast/spok/snapshot"
	"github.com/Comcast/spok/tap"
)

// output routes assertions to TAP or to a report.
type output struct {
	format string
	w      io.Writer
	tap    *tap.Writer
	rec    *snapshot.Recorder
	diags  []string
}

// sink is a Sink that also takes diagnostics.
type sink struct {
	*snapshot.Recorder
	match.Diagnoser
}

func newOutput(w io.Writer, format string) (*output, error) {
	o := &output{
		format: format,
		w:      w,
	}
	switch format {
	case "", "tap":
		o.tap = tap.NewWriter(w)
		o.rec = snapshot.NewRecorder(o.tap)
	case "markdown", "md", "html":
		o.rec = snapshot.NewRecorder(nil)
	default:
		return nil, fmt.Errorf("unknown format %q (want tap, markdown, or html)", format)
	}
	return o, nil
}

// Sink returns the sink for assertions.
func (o *output) Sink() *sink {
	return &sink{
		Recorder:  o.rec,
		Diagnoser: o,
	}
}

// Diagnostic goes to TAP as a comment or into the report's doc.
func (o *output) Diagnostic(msg string) {
	if o.tap != nil {
		o.tap.Diagnostic(msg)
		return
	}
	o.diags = append(o.diags, msg)
}

// Failures counts failed assertions.
func (o *output) Failures() int {
	return o.rec.Failures()
}

// Finish writes the TAP plan or the report.
func (o *output) Finish(title string, diffs []snapshot.Difference, css []string) error {
	if o.tap != nil {
		for _, d := range diffs {
			o.tap.Diagnostic("snapshot " + d.String())
		}
		if err := o.tap.Plan(); err != nil {
			return err
		}
		return o.tap.Err()
	}

	r := &report.Report{
		Title:       title,
		Records:     o.rec.Records,
		Differences: diffs,
	}
	for _, d := range o.diags {
		r.Doc += d + "\n\n"
	}
	if o.format == "html" {
		return report.HTML(o.w, r, css)
	}
	return report.Markdown(o.w, r)
}

// discard is a Sink for benchmarking.
type discard struct{}

func (discard) Equal(actual, expected interface{}, msg string)     {}
func (discard) DeepEqual(actual, expected interface{}, msg string) {}
