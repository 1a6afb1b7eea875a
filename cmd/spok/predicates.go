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
	"sort"
	"text/tabwriter"

	"github.com/Comcast/spok/interpreters"
	"github.com/Comcast/spok/match"

	"github.com/spf13/cobra"
)

func predicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predicates",
		Short: "List the predicates available to $pred and the $js languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "$pred\tdescription\n")
			for _, name := range match.VocabularyNames() {
				b := match.Vocabulary[name]
				fmt.Fprintf(w, "%s(%s)\t%s\n", b.Name, b.Params, b.Doc)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			langs := make([]string, 0)
			for name := range interpreters.Standard() {
				langs = append(langs, name)
			}
			sort.Strings(langs)
			fmt.Fprintf(cmd.OutOrStdout(), "\n$lang (for $js, default %s)\n", interpreters.Default)
			for _, name := range langs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}
}
