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

// Package env derives defaults from the process environment.
//
// Colors are on unless NO_COLOR is set or FORCE_COLOR is "0" or
// "false".  Colors are also turned off when the parent process looks
// like a test runner that consumes TAP, since escape codes would
// corrupt that output.
package env

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Comcast/spok/util"

	"github.com/shirou/gopsutil/v4/process"
)

// ColorEnabled consults NO_COLOR and FORCE_COLOR.
func ColorEnabled() bool {
	return colorEnabled(os.Getenv)
}

func colorEnabled(getenv func(string) string) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	switch strings.ToLower(getenv("FORCE_COLOR")) {
	case "0", "false":
		return false
	}
	return true
}

// IsTAPHarness reports if the given command line looks like a test
// runner that reads TAP from its children.
func IsTAPHarness(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch filepath.Base(args[0]) {
	case "prove", "tap", "tape":
		return true
	}
	for _, arg := range args[1:] {
		if arg == "--test" || strings.HasPrefix(arg, "--test=") {
			return true
		}
	}
	return false
}

// ParentCmdline returns the command line of the parent process.
func ParentCmdline(ctx context.Context) ([]string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getppid()))
	if err != nil {
		return nil, err
	}
	return p.CmdlineSliceWithContext(ctx)
}

const (
	statePending int32 = iota
	stateClear
	stateHarness
)

// Detector looks for a TAP harness in the background.
//
// Until the detection is complete, AllowsColor returns false.
type Detector struct {
	// Timeout limits the process lookup.
	Timeout time.Duration

	// Lookup returns the parent's command line.  Defaults to
	// ParentCmdline.
	Lookup func(ctx context.Context) ([]string, error)

	once  sync.Once
	state int32
	done  chan struct{}
}

// DefaultDetector is used by match.DefaultMatcher.
var DefaultDetector = NewDetector()

// NewDetector makes a Detector with a reasonable Timeout.
func NewDetector() *Detector {
	return &Detector{
		Timeout: 2 * time.Second,
		done:    make(chan struct{}),
	}
}

// Start begins detection (once).
func (d *Detector) Start() {
	d.once.Do(func() {
		if d.done == nil {
			d.done = make(chan struct{})
		}
		go d.detect()
	})
}

func (d *Detector) detect() {
	defer close(d.done)

	lookup := d.Lookup
	if lookup == nil {
		lookup = ParentCmdline
	}

	ctx := context.Background()
	if 0 < d.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	args, err := lookup(ctx)
	if err != nil {
		util.Logf("env: parent lookup error %s", err)
		atomic.StoreInt32(&d.state, stateClear)
		return
	}
	if IsTAPHarness(args) {
		util.Logf("env: TAP harness detected (%s); colors off", strings.Join(args, " "))
		atomic.StoreInt32(&d.state, stateHarness)
		return
	}
	atomic.StoreInt32(&d.state, stateClear)
}

// AllowsColor starts detection if necessary and reports if colors
// are allowed yet.
func (d *Detector) AllowsColor() bool {
	d.Start()
	return atomic.LoadInt32(&d.state) == stateClear
}

// Wait blocks until detection is done and reports if a harness was
// found.
func (d *Detector) Wait(ctx context.Context) (bool, error) {
	d.Start()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-d.done:
		return atomic.LoadInt32(&d.state) == stateHarness, nil
	}
}
