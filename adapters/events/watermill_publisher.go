package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/xamanauth/ports"
)

const (
	// ConnectedTopic carries WalletEvent messages for completed sign-ins
	ConnectedTopic = "wallet.connected"

	// DisconnectedTopic carries WalletEvent messages for explicit logouts
	DisconnectedTopic = "wallet.disconnected"
)

// WalletEvent is the payload of both lifecycle topics
type WalletEvent struct {
	Address    string    `json:"address"`
	AttemptID  string    `json:"attempt_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher         message.Publisher
	connectedTopic    string
	disconnectedTopic string
}

// NewWatermillPublisher creates a publisher for the default topics
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher:         publisher,
		connectedTopic:    ConnectedTopic,
		disconnectedTopic: DisconnectedTopic,
	}
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// WithTopicPrefix namespaces both topics, e.g. "nftsite." + "wallet.connected"
func (p *WatermillPublisher) WithTopicPrefix(prefix string) *WatermillPublisher {
	p.connectedTopic = prefix + ConnectedTopic
	p.disconnectedTopic = prefix + DisconnectedTopic
	return p
}

// PublishConnected publishes a sign-in completion
func (p *WatermillPublisher) PublishConnected(ctx context.Context, address string, attemptID string) error {
	return p.publish(ctx, p.connectedTopic, WalletEvent{
		Address:    address,
		AttemptID:  attemptID,
		OccurredAt: time.Now().UTC(),
	})
}

// PublishDisconnected publishes a logout
func (p *WatermillPublisher) PublishDisconnected(ctx context.Context, address string) error {
	return p.publish(ctx, p.disconnectedTopic, WalletEvent{
		Address:    address,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event WalletEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
