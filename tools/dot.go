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

package tools

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/Comcast/spok/match"
)

// DotOpts control the Graphviz rendering.
type DotOpts struct {
	// Highlight has the paths (see Node.Path) of nodes to draw
	// in red, such as the properties that failed a check.
	Highlight map[string]bool

	// Descriptions adds predicate descriptions to their labels.
	Descriptions bool
}

// Dot makes a Graphviz dot file for the given specification.
//
//	dot -Tpng g.dot > g.png
func Dot(spec interface{}, w io.Writer, opts *DotOpts) error {
	if opts == nil {
		opts = &DotOpts{}
	}

	root, err := Tree(spec)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	nids := make(map[*Node]string)
	num := 0

	err = root.Walk(func(n *Node) error {
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[n] = nid

		label := html.EscapeString(n.Label())
		if _, description := n.Spec.Labels(); opts.Descriptions && description != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + html.EscapeString(description) + "</FONT>"
		}
		label = strings.Replace(label, "\n", `<BR ALIGN="LEFT"/>`, -1)

		var (
			color     = "black"
			fillcolor = "#99ddc8"
			shape     = "record"
			style     = "filled"
		)
		switch {
		case n.Recursed():
			fillcolor = "#52aa5e"
			style += ",rounded"
			if n.Depth == 0 {
				style += ",bold"
			}
		case n.Spec.Kind == match.KindPredicate:
			shape = "note"
			fillcolor = "#2d93ad"
		case n.Spec.Kind == match.KindObject, n.Spec.Kind == match.KindArray:
			style += ",dashed"
		}
		if opts.Highlight[n.Path] {
			color = "red"
			fillcolor = "#f98b8b"
		}

		_, err := fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			nid, shape, style, color, fillcolor, label)
		return err
	})
	if err != nil {
		return err
	}

	err = root.Walk(func(n *Node) error {
		for i, c := range n.Children {
			color := "black"
			if opts.Highlight[c.Path] {
				color = "red"
			}
			_, err := fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" label = <%d/%d> ]\n",
				nids[n], nids[c], color, i+1, len(n.Children))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "}\n")
	return err
}
