package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/models"
)

// EventType names a change to the entry list.
type EventType string

const (
	ActivityCreated EventType = "created"
	ActivityUpdated EventType = "updated"
	ActivityDeleted EventType = "deleted"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Event is published whenever the entry list changes.
type Event struct {
	Type      EventType             `json:"type"`
	EntryID   string                `json:"entry_id"`
	Entry     *models.ActivityEntry `json:"entry,omitempty"`
	TotalKg   float64               `json:"total_kg"`
	Timestamp time.Time             `json:"timestamp"`
}

// Publisher sends entry events somewhere.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close()                               {}

// MQTTPublisher publishes events as JSON to <prefix>/activities/<type>.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return NewMQTTPublisherWithClient(client, cfg.TopicPrefix), nil
}

// NewMQTTPublisherWithClient wraps an already connected client.
func NewMQTTPublisherWithClient(client mqtt.Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, qos: 1, timeout: 5 * time.Second}
}

// Topic returns the topic an event type is published on.
func (p *MQTTPublisher) Topic(t EventType) string {
	return p.prefix + "/activities/" + string(t)
}

// Publish sends the event and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := p.client.Publish(p.Topic(event.Type), p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish error: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
