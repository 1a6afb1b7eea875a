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

// Package tools has utilities for looking at specifications: an
// analysis, Graphviz and Mermaid renderings, and %inline support for
// spec documents.
package tools

import (
	"sort"

	"github.com/Comcast/spok/inspect"
	"github.com/Comcast/spok/match"
)

// Node is a property of a specification as the matcher sees it.
type Node struct {
	// Key is the property name (or array index).  The root's Key is
	// empty.
	Key string

	// Path is like ".kids.0.name".  The root's Path is ".".
	Path string

	Depth int

	Spec match.Spec

	// Topic is the topic announced for a container that's
	// recursed into.
	Topic string

	// Children are only given for containers that are recursed
	// into.
	Children []*Node
}

// Recursed reports if the matcher descends into this Node.
func (n *Node) Recursed() bool {
	return n.Depth == 0 || n.Spec.NeedsRecurse()
}

// Label is a short description of the Node.
func (n *Node) Label() string {
	key := n.Key
	if n.Depth == 0 {
		key = "."
	}
	label, _ := n.Spec.Labels()
	switch n.Spec.Kind {
	case match.KindPredicate:
		if label == "" {
			label = inspect.Inspect(n.Spec.Pred, false)
		}
		return key + " satisfies " + label
	case match.KindObject, match.KindArray:
		if !n.Recursed() {
			return key + " = " + inspect.Inspect(n.Spec.Value, false)
		}
		if n.Topic != "" {
			return n.Topic
		}
		return key
	}
	return key + " = " + inspect.Inspect(n.Spec.Value, false)
}

// Tree classifies the whole specification.
//
// The root must be a container.  Topics are derived as the matcher
// derives them.
func Tree(spec interface{}) (*Node, error) {
	s, err := match.Classify(spec)
	if err != nil {
		return nil, err
	}
	switch s.Kind {
	case match.KindObject, match.KindArray:
	default:
		return nil, &match.UnknownSpecKind{Type: s.Kind.String() + " (not a container)"}
	}
	root := &Node{
		Path:  ".",
		Spec:  s,
		Topic: s.Topic(),
	}
	if err = grow(root); err != nil {
		return nil, err
	}
	return root, nil
}

func grow(n *Node) error {
	ks, vs := n.Spec.Entries()
	for i, k := range ks {
		if match.IsReserved(k) {
			continue
		}
		s, err := match.Classify(vs[i])
		if err != nil {
			if e, is := err.(*match.UnknownSpecKind); is {
				e.Key = k
			}
			return err
		}
		path := n.Path + k
		if n.Depth != 0 {
			path = n.Path + "." + k
		}
		child := &Node{
			Key:   k,
			Path:  path,
			Depth: n.Depth + 1,
			Spec:  s,
		}
		if child.Recursed() {
			if child.Topic = s.Topic(); child.Topic == "" {
				child.Topic = k
				if n.Topic != "" {
					child.Topic = n.Topic + "." + k
				}
			}
			if err = grow(child); err != nil {
				return err
			}
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// Walk calls f for n and its descendants, parents first.
func (n *Node) Walk(f func(*Node) error) error {
	if err := f(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.Walk(f); err != nil {
			return err
		}
	}
	return nil
}

// SpecAnalysis summarizes a specification.
type SpecAnalysis struct {
	// Assertions is the number of assertions a check will make
	// (when the actual value isn't missing anything).
	Assertions int `json:"assertions"`

	// Topics are announced in this order.
	Topics []string `json:"topics"`

	Literals   int `json:"literals"`
	Predicates int `json:"predicates"`

	// Unlabeled predicates don't show up in messages.
	Unlabeled int `json:"unlabeled"`

	// Compared containers are checked as a unit (deepEqual).
	Compared int `json:"compared"`

	MaxDepth int `json:"maxDepth"`

	// Labels are the distinct predicate labels.
	Labels []string `json:"labels"`
}

// Analyze summarizes the specification.
func Analyze(spec interface{}) (*SpecAnalysis, error) {
	root, err := Tree(spec)
	if err != nil {
		return nil, err
	}

	var (
		a      = SpecAnalysis{}
		labels = make(map[string]bool)
	)

	root.Walk(func(n *Node) error {
		if a.MaxDepth < n.Depth {
			a.MaxDepth = n.Depth
		}
		if n.Recursed() {
			if n.Topic != "" {
				a.Topics = append(a.Topics, n.Topic)
				a.Assertions++
			}
			return nil
		}
		a.Assertions++
		switch n.Spec.Kind {
		case match.KindPredicate:
			a.Predicates++
			if label, _ := n.Spec.Labels(); label == "" {
				a.Unlabeled++
			} else {
				labels[label] = true
			}
		case match.KindObject, match.KindArray:
			a.Compared++
		default:
			a.Literals++
		}
		return nil
	})

	a.Labels = keysToStringSlice(labels)

	return &a, nil
}

// keysToStringSlice returns the keys of the map sorted.
func keysToStringSlice(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
