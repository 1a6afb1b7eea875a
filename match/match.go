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

// Package match implements the core specification matcher.
//
// A specification describes what an actual value should look like.
// Check walks the specification and the actual value together and
// reports one assertion to a Sink for every property it checks:
//
//	spec := match.Obj(
//	    "$topic", "user",
//	    "name", "homer",
//	    "age", match.Range(30, 40),
//	    "kids", []interface{}{match.Obj("name", match.StartsWith("B"))},
//	)
//	err := match.Check(sink, user, spec)
//
// Scalars are compared with Sink.Equal.  A Predicate is called and
// its result compared with true.  Containers are recursed into when
// NeedsRecurse says so and otherwise compared with Sink.DeepEqual.
//
// Mismatches are only ever reported to the Sink.  Check returns an
// error only when the specification itself is broken.
package match

import (
	"fmt"

	"github.com/Comcast/spok/env"
	"github.com/Comcast/spok/inspect"
)

// Indent is added to the message prefix for each level of topic.
const Indent = "·· "

// NullGuardFormat is the message for a property that was checked on
// a missing actual value.
const NullGuardFormat = `property "%s" checked on null or undefined, this is most likely due to an array in the specs that has more items than the actual array`

// ColorGate can veto colors.  See env.Detector.
type ColorGate interface {
	AllowsColor() bool
}

// Matcher checks specifications.
type Matcher struct {
	// Config is read for every property checked.  A nil Config
	// means NewConfig().
	Config *Config

	// Inspect renders actual values for messages.  Defaults to
	// inspect.Inspect.
	Inspect func(x interface{}, color bool) string

	// Notify is called after each specification is checked when
	// Config.Sound is on.  Defaults to Say.
	Notify func()

	// Gate, if not nil, can turn off colors regardless of the
	// Config.
	Gate ColorGate
}

// NewMatcher makes a Matcher with the given Config.
func NewMatcher(cfg *Config) *Matcher {
	return &Matcher{Config: cfg}
}

// DefaultMatcher is used by Check.
//
// Its colors are off while env.DefaultDetector is still looking for
// a TAP harness and stay off if it finds one.
var DefaultMatcher = &Matcher{
	Config: NewConfig(),
	Gate:   env.DefaultDetector,
}

func (m *Matcher) config() *Config {
	if m.Config == nil {
		m.Config = NewConfig()
	}
	return m.Config
}

func (m *Matcher) color() bool {
	return m.config().Color && (m.Gate == nil || m.Gate.AllowsColor())
}

func (m *Matcher) inspect(x interface{}, color bool) string {
	if m.Inspect == nil {
		return inspect.Inspect(x, color)
	}
	return m.Inspect(x, color)
}

func (m *Matcher) notify() {
	if m.Notify == nil {
		Say()
		return
	}
	m.Notify()
}

// Check checks the actual value against the specification.
//
// The specification must be a container (an Object, a string-keyed
// map, a slice, or an array).  If it's an Object with a $topic, the
// first assertion announces that topic.
//
// The returned error is an *UnknownSpecKind when the specification
// contains something that can't be a specification.  In that case,
// checking stops immediately.
func (m *Matcher) Check(sink Sink, actual, spec interface{}) error {
	return m.CheckPrefix(sink, actual, spec, "")
}

// CheckPrefix is Check with a prefix for every message.
func (m *Matcher) CheckPrefix(sink Sink, actual, spec interface{}, prefix string) error {
	s, err := Classify(spec)
	if err != nil {
		return err
	}
	switch s.Kind {
	case KindObject, KindArray:
	default:
		return &UnknownSpecKind{Type: s.Kind.String() + " (not a container)"}
	}
	return m.check(sink, actual, s, s.Topic(), prefix)
}

func (m *Matcher) check(sink Sink, actual interface{}, s Spec, topic, prefix string) error {
	if topic != "" {
		// Announce the start of this topic.
		sink.Equal(1, 1, prefix+"spok: "+topic)
		prefix += Indent
	}

	ks, vs := s.Entries()
	for i, k := range ks {
		if IsReserved(k) {
			continue
		}
		if err := m.checkProperty(sink, actual, k, vs[i], topic, prefix); err != nil {
			return err
		}
	}

	if m.config().Sound {
		m.notify()
	}

	return nil
}

func (m *Matcher) checkProperty(sink Sink, actual interface{}, k string, v interface{}, topic, prefix string) error {
	if IsNull(actual) {
		sink.Equal(v, actual, nullGuardMessage(k))
		return nil
	}

	val := Index(actual, k)

	s, err := Classify(v)
	if err != nil {
		if e, is := err.(*UnknownSpecKind); is {
			e.Key = k
		}
		return err
	}

	var (
		cfg   = m.config()
		color = m.color()
		msg   = prefix + k + " = " + m.inspect(val, color)
	)

	label, description := s.Labels()
	if cfg.PrintSpec && label != "" {
		msg += "  " + inspect.Faint("satisfies: "+label, color)
	}
	if cfg.PrintDescription && description != "" {
		msg += "  " + inspect.Faint(description, color)
	}

	switch s.Kind {
	case KindPredicate:
		sink.Equal(s.Pred.Test(val), true, msg)
	case KindBool, KindNumber, KindString, KindNull:
		sink.Equal(val, v, msg)
	case KindObject, KindArray:
		if !s.NeedsRecurse() {
			sink.DeepEqual(val, v, msg)
			return nil
		}
		sub := s.Topic()
		if sub == "" {
			sub = k
			if topic != "" {
				sub = topic + "." + k
			}
		}
		return m.check(sink, val, s, sub, prefix)
	default:
		return &UnknownSpecKind{Key: k, Type: s.Kind.String()}
	}

	return nil
}

func nullGuardMessage(k string) string {
	return fmt.Sprintf(NullGuardFormat, k)
}

// Check uses the DefaultMatcher.
func Check(sink Sink, actual, spec interface{}) error {
	return DefaultMatcher.Check(sink, actual, spec)
}
