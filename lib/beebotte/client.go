// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package beebotte

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// connectTimeout bounds the initial broker handshake. Reconnects
// after that are handled asynchronously by the paho client.
const connectTimeout = 30 * time.Second

// eventBufferSize is the capacity of the delivery channel. The
// dispatch loop can stall for the presence oracle's full sampling
// window, so the buffer absorbs a realistic burst; beyond that the
// MQTT callback blocks, which is the correct backpressure for an
// ordered stream.
const eventBufferSize = 16

// Config holds the Beebotte connection parameters.
type Config struct {
	// Host is the Beebotte MQTT broker hostname. Required.
	Host string

	// Port is the broker's TLS port. Required.
	Port int

	// CACert is the path to the broker's CA certificate bundle.
	// Required; the connection is always TLS.
	CACert string

	// Token is the Beebotte channel token. Required.
	Token string

	// Topic is the channel/resource topic carrying account-activity
	// records. Required.
	Topic string

	// ClientID is the MQTT client identifier. Defaults to
	// "boushitsu".
	ClientID string

	// Logger receives connection lifecycle messages. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// Client is a subscribed Beebotte MQTT connection delivering raw
// account-activity payloads.
type Client struct {
	mqtt   mqtt.Client
	events chan []byte
	done   chan struct{}
	logger *slog.Logger
}

// Dial connects to the broker, subscribes to the configured topic,
// and starts delivering events. The caller must Close the client.
func Dial(cfg Config) (*Client, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("beebotte: Host and Port are required")
	}
	if cfg.Token == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("beebotte: Token and Topic are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "boushitsu"
	}

	tlsConfig, err := loadTLSConfig(cfg.CACert)
	if err != nil {
		return nil, err
	}

	client := &Client{
		events: make(chan []byte, eventBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}

	options := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(clientID).
		SetUsername("token:" + cfg.Token).
		SetTLSConfig(tlsConfig).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetKeepAlive(60 * time.Second)

	// Subscribe inside the connect handler so a reconnect after a
	// broker restart re-establishes the subscription too.
	options.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("connected to beebotte", "host", cfg.Host, "topic", cfg.Topic)
		token := c.Subscribe(cfg.Topic, 1, client.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Error("subscription failed", "topic", cfg.Topic, "error", err)
		}
	})
	options.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		logger.Warn("beebotte connection lost, reconnecting", "error", err)
	})

	client.mqtt = mqtt.NewClient(options)

	token := client.mqtt.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("beebotte: connect to %s timed out after %v", cfg.Host, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("beebotte: connecting to %s: %w", cfg.Host, err)
	}

	return client, nil
}

// Events delivers raw account-activity payloads in publish order.
// The channel is never closed; consumers select against their own
// shutdown signal.
func (c *Client) Events() <-chan []byte {
	return c.events
}

// Close disconnects from the broker and stops deliveries.
func (c *Client) Close() {
	close(c.done)
	c.mqtt.Disconnect(250)
	c.logger.Info("beebotte connection closed")
}

// onMessage queues one published record. The record envelope is left
// intact; the consumer unwraps it with DecodeRecord so malformed
// records are diagnosed where they are acted on.
func (c *Client) onMessage(_ mqtt.Client, message mqtt.Message) {
	// The paho client reuses the payload buffer after the callback
	// returns; copy before queueing.
	payload := make([]byte, len(message.Payload()))
	copy(payload, message.Payload())

	select {
	case c.events <- payload:
	case <-c.done:
		return
	}
}

// DecodeRecord unwraps a Beebotte record envelope and returns the
// inner account-activity payloads it carries, in order.
func DecodeRecord(raw []byte) ([][]byte, error) {
	var record struct {
		Data []struct {
			// The account-activity payload arrives JSON-encoded as
			// a string inside the record.
			Event string `json:"event"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("beebotte: decoding record: %w", err)
	}

	payloads := make([][]byte, 0, len(record.Data))
	for _, item := range record.Data {
		if item.Event == "" {
			continue
		}
		payloads = append(payloads, []byte(item.Event))
	}
	return payloads, nil
}

// loadTLSConfig builds the TLS configuration from the CA bundle path.
func loadTLSConfig(caCertPath string) (*tls.Config, error) {
	if caCertPath == "" {
		return nil, fmt.Errorf("beebotte: CACert is required")
	}

	pem, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("beebotte: reading CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("beebotte: no certificates parsed from %s", caCertPath)
	}

	return &tls.Config{RootCAs: pool}, nil
}
