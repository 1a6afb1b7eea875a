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

// Package main is a command-line tool that checks JSON and YAML
// values against spok specifications.
//
//	spok check -a actual.json -s spec.yaml
//	spok check -A '{"likes":"tacos"}' -S '{"likes":{"$pred":"startsWith(\"t\")"}}'
//	spok suite session.yaml -- ./service -v
//	spok watch -s spec.json --ws ws://localhost:8080/events
//	spok graph -s spec.yaml -f mermaid
//	spok predicates
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Comcast/spok/env"
	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/util"

	"github.com/jsccast/yaml"
	"github.com/spf13/cobra"
)

// Version is the version of this tool.
var Version = "0.1.0"

// errFailed means some assertions didn't pass.  The details have
// already been written.
var errFailed = errors.New("failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		if err != errFailed {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}

// Settings can come from a YAML config file.
type Settings struct {
	// Config changes the message switches it mentions.
	Config *match.ConfigPatch `yaml:"config,omitempty"`

	// Format is the default output format.
	Format string `yaml:"format,omitempty"`

	// CSS files for HTML reports.
	CSS []string `yaml:"css,omitempty"`

	// Snapshot is the default snapshot database.
	Snapshot string `yaml:"snapshot,omitempty"`
}

// LoadSettings reads a YAML config file.
func LoadSettings(filename string) (*Settings, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err = yaml.Unmarshal(bs, &s); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	return &s, nil
}

// options are the global flags.
type options struct {
	noColor          bool
	printSpec        bool
	printDescription bool
	sound            bool
	configFile       string
	logLevel         string

	settings *Settings
}

// config returns the match.Config: defaults, then the config file,
// then the given patches (in order), then flags that were given.
// Each layer only changes the fields it mentions.
//
// Colors stay off if the environment says so.
func (o *options) config(cmd *cobra.Command, more ...*match.ConfigPatch) *match.Config {
	cfg := match.NewConfig()
	for _, p := range append([]*match.ConfigPatch{o.settings.Config}, more...) {
		p.Apply(cfg)
	}
	flags := cmd.Flags()
	if flags.Changed("print-spec") {
		cfg.PrintSpec = o.printSpec
	}
	if flags.Changed("print-description") {
		cfg.PrintDescription = o.printDescription
	}
	if flags.Changed("sound") {
		cfg.Sound = o.sound
	}
	if o.noColor {
		cfg.Color = false
	}
	return cfg
}

// matcher makes a Matcher for the config.
//
// When colors are on, it waits for TAP harness detection, which
// turns colors off.
func (o *options) matcher(cmd *cobra.Command, cfg *match.Config) *match.Matcher {
	m := match.NewMatcher(cfg)
	if cfg.Color {
		if harness, err := env.DefaultDetector.Wait(cmd.Context()); err == nil && harness {
			util.Logf("TAP harness; no colors")
		}
		m.Gate = env.DefaultDetector
	}
	return m
}

func rootCmd() *cobra.Command {
	o := &options{
		settings: &Settings{},
	}

	cmd := &cobra.Command{
		Use:   "spok",
		Short: "Check values against specifications",
		Long: `spok checks actual values against specifications.

A specification is a JSON or YAML document that mirrors the actual
value.  Leaves are literal values or predicates, written as
{"$pred": "range(0, 10)"} or {"$js": "x % 2 === 0"}.  Every property
checked becomes an assertion, which is written as TAP (or as a
Markdown or HTML report).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.logLevel != "" {
				l, err := util.NewLogger(o.logLevel)
				if err != nil {
					return fmt.Errorf("log level: %w", err)
				}
				util.SetLogger(l)
			}
			if o.configFile != "" {
				s, err := LoadSettings(o.configFile)
				if err != nil {
					return err
				}
				o.settings = s
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&o.noColor, "no-color", false, "no colors in messages")
	pf.BoolVar(&o.printSpec, "print-spec", true, "append the predicate label to messages")
	pf.BoolVar(&o.printDescription, "print-description", false, "append the predicate description to messages")
	pf.BoolVar(&o.sound, "sound", false, "play a sound after each specification")
	pf.StringVarP(&o.configFile, "config", "c", "", "config file (YAML)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		checkCmd(o),
		suiteCmd(o),
		watchCmd(o),
		predicatesCmd(),
		graphCmd(),
		analyzeCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "spok version %s\n", Version)
			},
		},
	)

	return cmd
}
