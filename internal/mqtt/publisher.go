// Package mqtt publishes selected pipeline events (now playing, session
// state, recordings) to an MQTT broker, so home-automation dashboards
// can follow what the radio is doing without polling the HTTP API.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sparkfault/hdrd/internal/config"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds, passed to paho Disconnect
)

// Publisher is a thin wrapper around the paho client that publishes
// JSON payloads under a fixed topic prefix. All publishes are QoS 0,
// best effort; a radio dashboard cares about the latest value, not a
// replay.
type Publisher struct {
	cfg    config.MQTTConfig
	log    *log.Logger
	client mqtt.Client
}

// New builds a publisher from the daemon config. Call Connect before
// publishing.
func New(cfg config.MQTTConfig, logger *log.Logger) *Publisher {
	return &Publisher{cfg: cfg, log: logger}
}

// Connect dials the broker. The paho client keeps reconnecting in the
// background afterwards, so a flaky broker does not take the daemon
// down with it.
func (p *Publisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.cfg.Broker)
	opts.SetClientID(p.cfg.ClientID)
	opts.SetUsername(p.cfg.Username)
	opts.SetPassword(p.cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		p.log.Printf("mqtt: connected to %s", p.cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.log.Printf("mqtt: connection lost: %v", err)
	})

	p.client = mqtt.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s timed out", p.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Publish marshals v as JSON and publishes it under
// "<topic prefix>/<subtopic>". Messages are dropped with a log line
// when the broker is unreachable; the pipeline never blocks on MQTT.
func (p *Publisher) Publish(subtopic string, v any) {
	if p.client == nil || !p.client.IsConnected() {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		p.log.Printf("mqtt: marshal %s: %v", subtopic, err)
		return
	}

	topic := p.cfg.Topic + "/" + subtopic
	token := p.client.Publish(topic, 0, false, payload)

	// Completion is observed off the caller's goroutine, so the pipeline
	// loop never waits on the broker.
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.log.Printf("mqtt: publish to %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Printf("mqtt: publish to %s: %v", topic, err)
		}
	}()
}

// Disconnect closes the broker connection, letting in-flight messages
// quiesce briefly.
func (p *Publisher) Disconnect() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
}
