package ports

import "context"

// EventPublisher publishes wallet lifecycle events to other services
type EventPublisher interface {
	PublishConnected(ctx context.Context, address string, attemptID string) error
	PublishDisconnected(ctx context.Context, address string) error
}
