/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package expect runs sessions of specification checks.
//
// A Session is a sequence of Cases.  Each Case has a specification
// and either its own actual value or, when the Session runs a
// subprocess, the next JSON value the subprocess writes to stdout.
// A Case can also send input lines to the subprocess first.
//
// See ../../cmd/spok (the "suite" command) for command-line use.
package expect

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/specfile"
	"github.com/Comcast/spok/util"
	. "github.com/Comcast/spok/util/testutil"

	"github.com/jsccast/yaml"
)

// Timeout is returned when a Case waited too long for output.
var Timeout = errors.New("timeout")

// Case is a specification and the actual value it checks.
type Case struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Topic, if given, is announced before the specification's
	// properties are checked.
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`

	// Inputs are written to the subprocess's stdin (as JSON lines)
	// before waiting for its output.
	Inputs []interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// Actual is the value to check when there isn't a subprocess.
	Actual interface{} `json:"actual,omitempty" yaml:"actual,omitempty"`

	// ActualFile is read (relative to the Session's directory)
	// when Actual isn't given.
	ActualFile string `json:"actualFile,omitempty" yaml:"actualFile,omitempty"`

	// Spec is the specification, which can contain $pred and $js
	// directives.
	Spec interface{} `json:"spec,omitempty" yaml:"spec,omitempty"`

	// SpecFile is loaded (relative to the Session's directory)
	// when Spec isn't given.
	SpecFile string `json:"specFile,omitempty" yaml:"specFile,omitempty"`

	// Timeout is the optional timeout for this Case.
	// Session.DefaultTimeout is the default value.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Session is mostly a sequence of Cases.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Cases is the sequence of Cases that this session will run.
	Cases []Case `json:"cases" yaml:"cases"`

	// Config, if given, changes the default message switches.
	Config *match.ConfigPatch `json:"config,omitempty" yaml:"config,omitempty"`

	// DefaultTimeout is the default timeout for each Case.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	// ShowStderr controls whether the subprocess's stderr is
	// copied to ours.
	ShowStderr bool `json:"showStderr,omitempty" yaml:"showStderr,omitempty"`

	// InputPrefix specifies the prefix of output lines that should
	// be consumed.  Other lines are ignored.
	InputPrefix string `json:"inputPrefix,omitempty" yaml:"inputPrefix,omitempty"`

	// ParseActuals parses string Actual values as JSON when
	// possible.
	ParseActuals bool `json:"parseActuals,omitempty" yaml:"parseActuals,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	// Resolver turns directives into predicates.  Defaults to
	// specfile.NewResolver().
	Resolver *specfile.Resolver `json:"-" yaml:"-"`

	// Matcher defaults to a Matcher with the Session's Config.
	Matcher *match.Matcher `json:"-" yaml:"-"`
}

// ParseSession parses a YAML (or JSON) session.
//
// Inline specifications and actual values keep the order of their
// properties.
func ParseSession(data []byte) (*Session, error) {
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	doc, err := specfile.DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	cases := match.Index(doc, "cases")
	for i := range s.Cases {
		c := match.Index(cases, strconv.Itoa(i))
		if x := match.Index(c, "spec"); x != match.Undefined {
			s.Cases[i].Spec = x
		}
		if x := match.Index(c, "actual"); x != match.Undefined {
			s.Cases[i].Actual = x
		}
		if x := match.Index(c, "inputs"); x != match.Undefined {
			if xs, is := x.([]interface{}); is {
				s.Cases[i].Inputs = xs
			}
		}
	}

	return &s, nil
}

// LoadSession reads and parses a session file.
func LoadSession(filename string) (*Session, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	s, err := ParseSession(bs)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", filename, err)
	}
	return s, nil
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.Verbose {
		util.Logf(format, args...)
	}
}

func (s *Session) matcher() *match.Matcher {
	if s.Matcher == nil {
		s.Matcher = match.NewMatcher(s.Config.Apply(match.NewConfig()))
	}
	return s.Matcher
}

func (s *Session) resolver() *specfile.Resolver {
	if s.Resolver == nil {
		s.Resolver = specfile.NewResolver()
	}
	return s.Resolver
}

func path(dir, filename string) string {
	if dir == "" || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(dir, filename)
}

// spec returns the Case's resolved specification.
func (s *Session) spec(ctx context.Context, dir string, c *Case) (interface{}, error) {
	var (
		x   interface{}
		err error
	)
	switch {
	case c.Spec != nil:
		if x, err = s.resolver().Resolve(ctx, c.Spec); err != nil {
			return nil, err
		}
	case c.SpecFile != "":
		if x, err = specfile.Load(path(dir, c.SpecFile)); err != nil {
			return nil, err
		}
		if x, err = s.resolver().Resolve(ctx, x); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("case has neither spec nor specFile")
	}
	if c.Topic != "" {
		if o, is := x.(match.Object); is {
			x = o.WithTopic(c.Topic)
		}
	}
	return x, nil
}

// actual returns the Case's own actual value.
func (c *Case) actual(dir string, parse bool) (interface{}, error) {
	if c.ActualFile != "" && c.Actual == nil {
		return specfile.Load(path(dir, c.ActualFile))
	}
	if parse {
		return Dwimjs(c.Actual), nil
	}
	return c.Actual, nil
}

// check announces the Case's Doc (if the sink can take diagnostics)
// and checks the actual value.
func (s *Session) check(ctx context.Context, sink match.Sink, dir string, i int, c *Case, actual interface{}) error {
	spec, err := s.spec(ctx, dir, c)
	if err != nil {
		return fmt.Errorf("case %d: %w", i, err)
	}
	if d, is := sink.(match.Diagnoser); is && c.Doc != "" {
		d.Diagnostic(c.Doc)
	}
	s.logf("expect case %d actual %s", i, JS(actual))
	if err = s.matcher().Check(sink, actual, spec); err != nil {
		return fmt.Errorf("case %d: %w", i, err)
	}
	return nil
}

// Run checks all the Cases in the Session.
//
// Filenames are relative to 'dir', which is also the subprocess's
// working directory.
//
// Without args, each Case checks its own actual value.  Otherwise
// the subprocess is given by the args.  The first arg is the
// executable.  Example args:
//
//	"jq", "-c", "--unbuffered", "."
//
// Mismatches go to the sink.  The returned error reports problems
// with the Session itself, such as a timeout or a bad specification.
func (s *Session) Run(ctx context.Context, sink match.Sink, dir string, args ...string) error {
	if len(args) == 0 {
		for i := range s.Cases {
			c := &s.Cases[i]
			actual, err := c.actual(dir, s.ParseActuals)
			if err != nil {
				return fmt.Errorf("case %d: %w", i, err)
			}
			if err = s.check(ctx, sink, dir, i, c, actual); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	if s.ShowStderr {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	defer stdin.Close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	waited := false
	defer func() {
		if !waited {
			cancel()
			cmd.Wait()
		}
	}()

	var (
		outputs = make(chan interface{})
		readErr = make(chan error, 1)
	)

	// Consume stdout.
	go func() {
		readErr <- s.read(ctx, stdout, outputs)
	}()

	for i := range s.Cases {
		c := &s.Cases[i]

		if err := s.send(stdin, c.Inputs); err != nil {
			return fmt.Errorf("case %d: %w", i, err)
		}

		timeout := c.Timeout
		if timeout == 0 {
			timeout = s.DefaultTimeout
		}
		var expired <-chan time.Time
		if 0 < timeout {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			expired = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expired:
			return fmt.Errorf("case %d: %w after %s", i, Timeout, timeout)
		case err := <-readErr:
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("case %d: output ended: %w", i, err)
		case actual := <-outputs:
			if err := s.check(ctx, sink, dir, i, c, actual); err != nil {
				return err
			}
		}
	}

	if err := stdin.Close(); err != nil {
		s.logf("stdin.Close() error %s", err)
	}

	waited = true
	return cmd.Wait()
}

// read forwards JSON values from the subprocess's output.
func (s *Session) read(ctx context.Context, r io.Reader, outputs chan interface{}) error {
	in := bufio.NewReader(r)
	prefix := []byte(s.InputPrefix)
	for {
		line, err := in.ReadBytes('\n')
		if 0 < len(line) {
			s.logf("out %s", line)
			if bytes.HasPrefix(line, prefix) {
				line = bytes.TrimSpace(line[len(prefix):])
				if x, err := specfile.Decode(line, specfile.JSON); err != nil {
					s.logf("ignoring '%s'", line)
				} else {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case outputs <- x:
					}
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// send writes the inputs as JSON lines.
func (s *Session) send(w io.Writer, inputs []interface{}) error {
	for _, input := range inputs {
		line, err := Line(input)
		if err != nil {
			return err
		}
		s.logf("in %s", bytes.TrimSpace(line))
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
