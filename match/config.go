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

package match

import (
	"os/exec"

	"github.com/Comcast/spok/env"
	"github.com/Comcast/spok/util"
)

// Config holds the switches that affect messages.
//
// A Matcher reads its Config for every property it checks, so
// changes take effect immediately.  Don't change a Config while
// another goroutine is using it.
type Config struct {
	// PrintSpec appends "satisfies: <label>" to messages for
	// specifications that have labels.
	PrintSpec bool `json:"printSpec" yaml:"printSpec"`

	// PrintDescription appends the description (if any).
	PrintDescription bool `json:"printDescription" yaml:"printDescription"`

	// Sound plays a sound after each specification is checked.
	Sound bool `json:"sound" yaml:"sound"`

	// Color renders values in color.
	Color bool `json:"color" yaml:"color"`
}

// NewConfig returns the default Config.
//
// Color is on unless the environment says otherwise (see
// env.ColorEnabled).
func NewConfig() *Config {
	return &Config{
		PrintSpec: true,
		Color:     env.ColorEnabled(),
	}
}

// Copy returns a copy of the Config.
func (c *Config) Copy() *Config {
	acc := *c
	return &acc
}

// ConfigPatch holds the Config fields given in a file.  Missing
// fields leave the Config alone.
type ConfigPatch struct {
	PrintSpec        *bool `json:"printSpec,omitempty" yaml:"printSpec,omitempty"`
	PrintDescription *bool `json:"printDescription,omitempty" yaml:"printDescription,omitempty"`
	Sound            *bool `json:"sound,omitempty" yaml:"sound,omitempty"`
	Color            *bool `json:"color,omitempty" yaml:"color,omitempty"`
}

// Apply sets the given fields in c and returns c.  A nil patch
// changes nothing.
//
// Color can only be turned on if the environment allows it.
func (p *ConfigPatch) Apply(c *Config) *Config {
	if p == nil {
		return c
	}
	if p.PrintSpec != nil {
		c.PrintSpec = *p.PrintSpec
	}
	if p.PrintDescription != nil {
		c.PrintDescription = *p.PrintDescription
	}
	if p.Sound != nil {
		c.Sound = *p.Sound
	}
	if p.Color != nil {
		c.Color = *p.Color && env.ColorEnabled()
	}
	return c
}

// Say is the default completion notification.  Errors are logged and
// otherwise ignored.
func Say() {
	if err := exec.Command("say", "spokie", "dokie", "-v", "Vicki", "-r", "600").Run(); err != nil {
		util.Logf("spok: say error %s", err)
	}
}
