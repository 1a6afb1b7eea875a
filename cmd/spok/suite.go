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
	"path/filepath"

	"github.com/Comcast/spok/tools/expect"

	"github.com/spf13/cobra"
)

func suiteCmd(o *options) *cobra.Command {
	var (
		format, dir string
		css         []string
		showStderr  bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "suite SESSION [-- COMMAND ARGS...]",
		Short: "Run a session of cases, optionally against a subprocess",
		Long: `Run a session of cases.

Without a command, each case checks its own actual value.  With a
command, each JSON line the command writes to stdout is the actual
value for the next case.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			var command []string
			if at := cmd.ArgsLenAtDash(); 0 <= at {
				if at != 1 {
					return fmt.Errorf("one session file before --")
				}
				command = args[at:]
			} else if 1 < len(args) {
				return fmt.Errorf("put the command after --")
			}

			s, err := expect.LoadSession(filename)
			if err != nil {
				return err
			}
			if showStderr {
				s.ShowStderr = true
			}
			if verbose {
				s.Verbose = true
			}

			s.Matcher = o.matcher(cmd, o.config(cmd, s.Config))

			if !cmd.Flags().Changed("format") && o.settings.Format != "" {
				format = o.settings.Format
			}
			if len(css) == 0 {
				css = o.settings.CSS
			}
			if dir == "" {
				dir = filepath.Dir(filename)
			}

			out, err := newOutput(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			if s.Doc != "" {
				out.Diagnostic(s.Doc)
			}

			runErr := s.Run(cmd.Context(), out.Sink(), dir, command...)

			title := filepath.Base(filename)
			if err = out.Finish(title, nil, css); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if 0 < out.Failures() {
				return errFailed
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&format, "format", "f", "tap", "output format: tap, markdown, or html")
	fs.StringVarP(&dir, "dir", "d", "", "working directory (defaults to the session's directory)")
	fs.StringSliceVar(&css, "css", nil, "CSS files for HTML reports")
	fs.BoolVarP(&showStderr, "stderr", "e", false, "show the subprocess's stderr")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log inputs and outputs")

	return cmd
}
