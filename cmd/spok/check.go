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
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/snapshot"
	"github.com/Comcast/spok/specfile"
	"github.com/Comcast/spok/util"

	"github.com/spf13/cobra"
)

// document is a value given as a filename or as inline JSON.
type document struct {
	filename string
	inline   string
}

func (d *document) load(ctx context.Context, what string, resolve bool) (interface{}, error) {
	var (
		x   interface{}
		err error
	)
	switch {
	case d.inline != "":
		x, err = specfile.Decode([]byte(d.inline), specfile.JSON)
	case d.filename != "":
		x, err = specfile.Load(d.filename)
	default:
		return nil, fmt.Errorf("no %s given", what)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if resolve {
		if x, err = specfile.NewResolver().Resolve(ctx, x); err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
	}
	return x, nil
}

func checkCmd(o *options) *cobra.Command {
	var (
		actual, spec document

		format, title, topic string
		css                  []string

		snapshotDB, name string
		update           bool

		bench int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check an actual value against a specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			x, err := actual.load(ctx, "actual", false)
			if err != nil {
				return err
			}
			s, err := spec.load(ctx, "spec", true)
			if err != nil {
				return err
			}
			if topic != "" {
				obj, is := s.(match.Object)
				if !is {
					return fmt.Errorf("can't add a topic to a %T", s)
				}
				s = obj.WithTopic(topic)
			}

			if !cmd.Flags().Changed("format") && o.settings.Format != "" {
				format = o.settings.Format
			}
			if snapshotDB == "" {
				snapshotDB = o.settings.Snapshot
			}
			if len(css) == 0 {
				css = o.settings.CSS
			}

			m := o.matcher(cmd, o.config(cmd))

			if 0 < bench {
				if err = benchmark(cmd, m, x, s, bench); err != nil {
					return err
				}
			}

			out, err := newOutput(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			if err = m.Check(out.Sink(), x, s); err != nil {
				return err
			}

			var diffs []snapshot.Difference
			if snapshotDB != "" {
				if name == "" {
					name = spec.filename
				}
				if diffs, err = compareSnapshot(ctx, snapshotDB, name, out.rec, update); err != nil {
					return err
				}
			}

			if err = out.Finish(title, diffs, css); err != nil {
				return err
			}
			if 0 < out.Failures() || 0 < len(diffs) {
				return errFailed
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&actual.filename, "actual", "a", "", "actual value file (JSON or YAML)")
	fs.StringVarP(&actual.inline, "actual-json", "A", "", "actual value in JSON")
	fs.StringVarP(&spec.filename, "spec", "s", "", "specification file (JSON or YAML)")
	fs.StringVarP(&spec.inline, "spec-json", "S", "", "specification in JSON")
	fs.StringVarP(&topic, "topic", "t", "", "topic to announce")
	fs.StringVarP(&format, "format", "f", "tap", "output format: tap, markdown, or html")
	fs.StringVar(&title, "title", "spok", "report title")
	fs.StringSliceVar(&css, "css", nil, "CSS files for HTML reports")
	fs.StringVar(&snapshotDB, "snapshot", "", "snapshot database")
	fs.StringVar(&name, "name", "", "snapshot name (defaults to the spec filename)")
	fs.BoolVar(&update, "update", false, "replace the stored snapshot")
	fs.IntVar(&bench, "bench", 0, "number of times to run (and report time)")

	return cmd
}

// compareSnapshot compares what was recorded with the stored
// snapshot.  A snapshot is stored when there isn't one yet or when
// updating.
func compareSnapshot(ctx context.Context, filename, name string, rec *snapshot.Recorder, update bool) ([]snapshot.Difference, error) {
	if name == "" {
		return nil, fmt.Errorf("need a snapshot name")
	}

	store := snapshot.NewStore(filename)
	if err := store.Open(ctx); err != nil {
		return nil, err
	}
	defer store.Close()

	got := rec.Snapshot(name)

	if !update {
		want, err := store.Get(ctx, name)
		if err == nil {
			return snapshot.Compare(want.Records, got.Records), nil
		}
		if !errors.Is(err, snapshot.ErrNotFound) {
			return nil, err
		}
		util.Logf("no snapshot %s; storing", name)
	}

	return nil, store.Put(ctx, got)
}

// benchmark runs the check n times and reports the mean time and
// allocation.
func benchmark(cmd *cobra.Command, m *match.Matcher, actual, spec interface{}, n int) error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	allocs := stats.TotalAlloc
	then := time.Now()
	for i := 0; i < n; i++ {
		if err := m.Check(discard{}, actual, spec); err != nil {
			return err
		}
	}
	elapsed := time.Since(then)
	meanNanos := elapsed.Nanoseconds() / int64(n)

	runtime.ReadMemStats(&stats)
	allocated := (stats.TotalAlloc - allocs) / uint64(n)

	fmt.Fprintf(cmd.ErrOrStderr(), "%d iterations, %d mean ns/Check, %d mean bytes allocated per Check\n", n, meanNanos, allocated)
	return nil
}
