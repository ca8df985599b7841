// Package events publishes ledger change events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pennywise-app/apiserver/config"
	"github.com/pennywise-app/apiserver/types"
)

const (
	BackendNone     = "none"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"

	attrEventType = "event_type"
)

// ErrDisabled is returned by Subscribe when no broker is configured.
var ErrDisabled = errors.New("events backend disabled")

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker operations used by the bus.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Bus publishes and consumes types.Event values on a single channel.
type Bus struct {
	backend Backend
	channel string
}

// New constructs a Bus over backend. A nil backend disables the bus.
func New(backend Backend, channel string) *Bus {
	return &Bus{backend: backend, channel: channel}
}

// NewFromConfig selects the backend named by cfg.Events.Backend.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Bus, error) {
	var backend Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Events.Backend)) {
	case "", BackendNone:
	case BackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		backend = client
	case BackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
	return New(backend, cfg.Events.Channel), nil
}

// Enabled reports whether a broker is configured.
func (b *Bus) Enabled() bool {
	return b != nil && b.backend != nil
}

// Channel returns the channel events are published on.
func (b *Bus) Channel() string {
	return b.channel
}

// PublishEvent encodes evt as JSON and publishes it. It is a no-op when the
// bus is disabled.
func (b *Bus) PublishEvent(ctx context.Context, evt types.Event) error {
	if !b.Enabled() {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = b.backend.Publish(ctx, b.channel, data, map[string]string{attrEventType: string(evt.Type)})
	return err
}

// Subscribe decodes every message on the channel and hands it to fn.
// Messages that are not valid events are acknowledged and dropped.
func (b *Bus) Subscribe(ctx context.Context, fn func(ctx context.Context, evt types.Event) error) error {
	if !b.Enabled() {
		return ErrDisabled
	}
	return b.backend.Subscribe(ctx, b.channel, func(ctx context.Context, msg Message) error {
		var evt types.Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			return nil
		}
		return fn(ctx, evt)
	})
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	if !b.Enabled() {
		return nil
	}
	return b.backend.Close()
}
