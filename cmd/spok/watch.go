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
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Comcast/spok/source"

	"github.com/spf13/cobra"
)

// errEnough stops a watch after the requested number of values.
var errEnough = errors.New("enough")

func watchCmd(o *options) *cobra.Command {
	var (
		spec document

		stdin        bool
		wsURL        string
		mqttURL      string
		mqttClientID string
		topics       []string
		pollURL      string
		cronExpr     string
		immediate    bool
		count        int
		format       string
		css          []string
		mqttInsecure bool
		mqttInject   bool
		mqttUser     string
		mqttPass     string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check a stream of values against a specification",
		Long: `Check every value from a stream against a specification.

The stream is stdin (JSON values), a WebSocket, an MQTT subscription,
or an HTTP endpoint polled on a cron schedule.  Polled values look
like {"statusCode":200, "status":"200 OK", "contentType":..., "body":...}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := spec.load(ctx, "spec", true)
			if err != nil {
				return err
			}

			src, err := openSource(ctx, cmd.InOrStdin(), sourceOptions{
				stdin:     stdin,
				wsURL:     wsURL,
				mqttURL:   mqttURL,
				pollURL:   pollURL,
				cronExpr:  cronExpr,
				immediate: immediate,
				mqtt: func(opts *source.MQTTOptions) {
					opts.ClientID = mqttClientID
					opts.Topics = topics
					opts.Insecure = mqttInsecure
					opts.InjectTopic = mqttInject
					opts.Username = mqttUser
					opts.Password = mqttPass
				},
			})
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("format") && o.settings.Format != "" {
				format = o.settings.Format
			}
			if len(css) == 0 {
				css = o.settings.CSS
			}

			out, err := newOutput(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			m := o.matcher(cmd, o.config(cmd))
			sink := out.Sink()

			n := 0
			err = source.Each(ctx, src, func(x interface{}) error {
				n++
				out.Diagnostic(fmt.Sprintf("value %d", n))
				if err := m.Check(sink, x, s); err != nil {
					return err
				}
				if 0 < count && count <= n {
					return errEnough
				}
				return nil
			})
			switch {
			case err == nil, err == errEnough:
			case errors.Is(err, context.Canceled):
			default:
				return err
			}

			if err = out.Finish("spok watch", nil, css); err != nil {
				return err
			}
			if 0 < out.Failures() {
				return errFailed
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&spec.filename, "spec", "s", "", "specification file (JSON or YAML)")
	fs.StringVarP(&spec.inline, "spec-json", "S", "", "specification in JSON")
	fs.BoolVar(&stdin, "stdin", false, "read JSON values from stdin")
	fs.StringVar(&wsURL, "ws", "", "WebSocket URL")
	fs.StringVar(&mqttURL, "mqtt", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
	fs.StringVarP(&mqttClientID, "client-id", "i", "", "MQTT client id")
	fs.StringSliceVarP(&topics, "topic", "t", nil, "MQTT subscription topic(s), each TOPIC or TOPIC:QOS")
	fs.BoolVar(&mqttInsecure, "insecure", false, "skip MQTT broker cert checking")
	fs.BoolVar(&mqttInject, "inject-topic", false, "put the MQTT topic in each incoming object")
	fs.StringVarP(&mqttUser, "username", "u", "", "MQTT username")
	fs.StringVarP(&mqttPass, "password", "P", "", "MQTT password")
	fs.StringVar(&pollURL, "poll", "", "URL to GET on a schedule")
	fs.StringVar(&cronExpr, "cron", "*/10 * * * * * *", "poll schedule (cron expression)")
	fs.BoolVar(&immediate, "immediate", true, "poll once right away")
	fs.IntVarP(&count, "count", "n", 0, "stop after this many values")
	fs.StringVarP(&format, "format", "f", "tap", "output format: tap, markdown, or html")
	fs.StringSliceVar(&css, "css", nil, "CSS files for HTML reports")

	return cmd
}

type sourceOptions struct {
	stdin     bool
	wsURL     string
	mqttURL   string
	pollURL   string
	cronExpr  string
	immediate bool
	mqtt      func(*source.MQTTOptions)
}

// openSource opens the one source that's specified.
func openSource(ctx context.Context, in io.Reader, so sourceOptions) (source.Source, error) {
	given := 0
	for _, b := range []bool{so.stdin, so.wsURL != "", so.mqttURL != "", so.pollURL != ""} {
		if b {
			given++
		}
	}
	if given != 1 {
		return nil, fmt.Errorf("need exactly one of --stdin, --ws, --mqtt, or --poll")
	}

	switch {
	case so.stdin:
		if in == nil {
			in = os.Stdin
		}
		return source.Lines(io.NopCloser(in)), nil
	case so.wsURL != "":
		return source.WebSocket(ctx, so.wsURL)
	case so.mqttURL != "":
		opts := source.DefaultMQTTOptions(so.mqttURL)
		if so.mqtt != nil {
			so.mqtt(opts)
		}
		return source.MQTT(ctx, opts)
	default:
		p, err := source.Poll(so.pollURL, so.cronExpr)
		if err != nil {
			return nil, err
		}
		p.Immediate = so.immediate
		return p, nil
	}
}
