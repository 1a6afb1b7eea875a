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
	"io"
	"strings"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/util"
)

type MermaidOpts struct {
	// PredicateFill is the fill color for predicate nodes.  Does
	// not apply if PredicateClass is set.
	PredicateFill string `json:"predicateFill,omitempty"`

	// PredicateClass will be the CSS class for predicate nodes.
	PredicateClass string `json:"predicateClass,omitempty"`

	// Descriptions adds predicate descriptions to their labels.
	Descriptions bool `json:"descriptions,omitempty"`
}

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "\n", " ")

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given specification.
//
// Containers that are recursed into are rounded nodes labeled with
// their topics.  Predicates are hexagons.  Everything else is a
// rectangle.
func Mermaid(spec interface{}, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			PredicateFill: "#bcf2db",
		}
	}

	root, err := Tree(spec)
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintf(w, "graph TB\n"); err != nil {
		return err
	}

	nids := make(map[*Node]string)
	num := 0

	err = root.Walk(func(n *Node) error {
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[n] = nid

		label := n.Label()
		if _, description := n.Spec.Labels(); opts.Descriptions && description != "" {
			label += ": " + description
		}
		label = mermaidEscaper.Replace(label)

		switch {
		case n.Recursed():
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, label)
		case n.Spec.Kind == match.KindPredicate:
			fmt.Fprintf(w, "  %s{{\"%s\"}}\n", nid, label)
			if opts.PredicateClass != "" {
				fmt.Fprintf(w, "  class %s %s\n", nid, opts.PredicateClass)
			} else if opts.PredicateFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.PredicateFill)
			}
		default:
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, label)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = root.Walk(func(n *Node) error {
		for _, c := range n.Children {
			if _, err := fmt.Fprintf(w, "  %s --> %s\n", nids[n], nids[c]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	util.Logf("mermaid gen done: %d nodes", num)

	_, err = fmt.Fprintf(w, "\n")
	return err
}
