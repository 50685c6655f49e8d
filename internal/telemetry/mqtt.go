// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry carries tilt readings over MQTT as JSON.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

const (
	disconnectQuiesce = 250 // ms
	publishTimeout    = 2 * time.Second
)

// Payload is the JSON published for every reading.
type Payload struct {
	Time   string              `json:"time"`
	Raw    int32               `json:"raw"`
	Angle  int32               `json:"angle"`
	Active string              `json:"active"`
	State  tilt.IndicatorState `json:"state"`
}

// NewPayload converts a reading to its wire form.
func NewPayload(r tilt.Reading) Payload {
	return Payload{
		Time:   r.Time.UTC().Format(time.RFC3339Nano),
		Raw:    r.Raw,
		Angle:  r.Angle,
		Active: r.State.String(),
		State:  r.State,
	}
}

// Decode parses a payload received from the broker.
func Decode(b []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Payload{}, fmt.Errorf("decode reading: %w", err)
	}
	return p, nil
}

// Connect opens an MQTT connection to broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// Disconnect closes client after letting in-flight work finish.
func Disconnect(client mqtt.Client) {
	client.Disconnect(disconnectQuiesce)
}

// Publisher reports readings to a retained MQTT topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher publishes on topic through client.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// Report publishes r and waits for the broker to accept it.
func (p *Publisher) Report(_ context.Context, r tilt.Reading) error {
	payload, err := json.Marshal(NewPayload(r))
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out after %s", p.topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	return nil
}

// Subscribe calls handle with every reading published on topic. Payloads
// that fail to decode are logged and dropped.
func Subscribe(ctx context.Context, client mqtt.Client, topic string, handle func(Payload)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		p, err := Decode(msg.Payload())
		if err != nil {
			logger.WarnKV(ctx, "dropping message", "topic", msg.Topic(), "error", err)
			return
		}
		handle(p)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	logger.InfoKV(ctx, "subscribed", "topic", topic)
	return nil
}
