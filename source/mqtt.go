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

package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions follow mosquitto_sub's command-line arguments.
type MQTTOptions struct {
	// Broker is a URL like "tcp://localhost:1883".
	Broker   string
	ClientID string
	Username string
	Password string

	// Topics are subscription topics, each with an optional
	// ":QOS" suffix.
	Topics []string

	KeepAlive time.Duration
	Clean     bool
	Insecure  bool

	// InjectTopic adds the message topic as "topic" to JSON
	// objects.
	InjectTopic bool

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint
}

// DefaultMQTTOptions returns the defaults for the given broker.
func DefaultMQTTOptions(broker string, topics ...string) *MQTTOptions {
	return &MQTTOptions{
		Broker:    broker,
		Topics:    topics,
		KeepAlive: 10 * time.Second,
		Clean:     true,
		Quiesce:   100,
	}
}

// MQTTSource holds subscriptions at an MQTT broker.
type MQTTSource struct {
	Client mqtt.Client

	opts *MQTTOptions
	*chanSource
}

// MQTT connects to the broker and subscribes to the topics.
func MQTT(ctx context.Context, opts *MQTTOptions) (*MQTTSource, error) {
	if len(opts.Topics) == 0 {
		return nil, fmt.Errorf("no MQTT topics")
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetKeepAlive(opts.KeepAlive)
	co.Username = opts.Username
	co.Password = opts.Password
	co.CleanSession = opts.Clean
	co.SetTLSConfig(&tls.Config{
		InsecureSkipVerify: opts.Insecure,
	})

	s := &MQTTSource{
		opts:       opts,
		chanSource: newChanSource(10),
	}

	co.OnConnectionLost = func(client mqtt.Client, err error) {
		util.Logf("MQTT connection lost: %s", err)
		s.fail(err)
	}

	co.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		util.Logf("incoming: %s %s", msg.Topic(), msg.Payload())
		s.put(decodePayload(msg.Topic(), msg.Payload(), opts.InjectTopic))
	}

	s.Client = mqtt.NewClient(co)

	util.Logf("Attempting to connect to %s", opts.Broker)
	if err := wait(ctx, s.Client.Connect()); err != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", opts.Broker, err)
	}
	util.Logf("Connected to broker")

	for _, t := range opts.Topics {
		topic, qos := parseTopic(t)
		if topic == "" {
			continue
		}
		util.Logf("Subscribing to %s (%d)", topic, qos)
		if err := wait(ctx, s.Client.Subscribe(topic, qos, nil)); err != nil {
			s.Client.Disconnect(opts.Quiesce)
			return nil, fmt.Errorf("MQTT subscribe %s: %w", topic, err)
		}
	}

	return s, nil
}

// wait waits for the token or the Context.
func wait(ctx context.Context, t mqtt.Token) error {
	done := make(chan struct{})
	go func() {
		t.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return t.Error()
	}
}

// Next returns the next message.
func (s *MQTTSource) Next(ctx context.Context) (interface{}, error) {
	return s.next(ctx)
}

// Close terminates the MQTT session.
func (s *MQTTSource) Close() error {
	if s.close() {
		util.Logf("Disconnecting")
		s.Client.Disconnect(s.opts.Quiesce)
	}
	return nil
}

// decodePayload parses JSON or falls back to the string.
func decodePayload(topic string, payload []byte, injectTopic bool) interface{} {
	x := decodeMessage(payload)
	if o, is := x.(match.Object); is && injectTopic {
		acc := make(match.Object, len(o))
		copy(acc, o)
		return acc.Set("topic", topic)
	}
	return x
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	var topic string
	var qos byte
	if _, err := fmt.Sscanf(strings.Replace(s, ":", " ", 1), "%s %d", &topic, &qos); err == nil {
		return topic, qos
	}
	return s, 0
}
