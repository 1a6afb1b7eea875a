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

	"github.com/Comcast/spok/tools"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func graphCmd() *cobra.Command {
	var (
		spec         document
		format       string
		descriptions bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render a specification as a Graphviz or Mermaid graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := spec.load(cmd.Context(), "spec", true)
			if err != nil {
				return err
			}
			switch format {
			case "dot":
				return tools.Dot(s, cmd.OutOrStdout(), &tools.DotOpts{
					Descriptions: descriptions,
				})
			case "mermaid":
				return tools.Mermaid(s, cmd.OutOrStdout(), &tools.MermaidOpts{
					PredicateFill: "#bcf2db",
					Descriptions:  descriptions,
				})
			}
			return fmt.Errorf("unknown graph format %q (want dot or mermaid)", format)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&spec.filename, "spec", "s", "", "specification file (JSON or YAML)")
	fs.StringVarP(&spec.inline, "spec-json", "S", "", "specification in JSON")
	fs.StringVarP(&format, "format", "f", "dot", "dot or mermaid")
	fs.BoolVar(&descriptions, "descriptions", false, "include predicate descriptions")

	return cmd
}

func analyzeCmd() *cobra.Command {
	var spec document

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize a specification (as JSON)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := spec.load(cmd.Context(), "spec", true)
			if err != nil {
				return err
			}
			a, err := tools.Analyze(s)
			if err != nil {
				return err
			}
			js, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", js)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&spec.filename, "spec", "s", "", "specification file (JSON or YAML)")
	fs.StringVarP(&spec.inline, "spec-json", "S", "", "specification in JSON")

	return cmd
}
