package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/resilience"
)

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	Topic     string
	Logger    zerolog.Logger
}

// envelope is the JSON body of every published message.
type envelope struct {
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// PubSubPublisher publishes events to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	exec      *resilience.Executor
	topic     string
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a publisher for cfg.Topic.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	publisher := client.Publisher(cfg.Topic)
	publisher.PublishSettings.CountThreshold = 50
	publisher.PublishSettings.DelayThreshold = 50 * time.Millisecond

	return &PubSubPublisher{
		client:    client,
		publisher: publisher,
		exec:      resilience.NewExecutor(resilience.DefaultPolicy("pubsub:" + cfg.Topic)),
		topic:     cfg.Topic,
		logger:    cfg.Logger,
	}, nil
}

// Executor exposes the publisher's circuit breaker for health reporting.
func (p *PubSubPublisher) Executor() *resilience.Executor {
	return p.exec
}

// Publish encodes e and waits for the server to acknowledge it.
func (p *PubSubPublisher) Publish(ctx context.Context, e Event) error {
	data, err := Encode(e)
	if err != nil {
		return err
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": e.Type,
			"subject":    e.Subject,
		},
	}

	id, err := resilience.Call(ctx, p.exec, func(ctx context.Context) (string, error) {
		return p.publisher.Publish(ctx, msg).Get(ctx)
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.topic, err)
	}

	p.logger.Debug().
		Str("event_type", e.Type).
		Str("subject", e.Subject).
		Str("message_id", id).
		Msg("event published")
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// Encode renders e as the JSON envelope used on the wire.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Type:       e.Type,
		Subject:    e.Subject,
		OccurredAt: e.OccurredAt.UTC(),
		Data:       e.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return data, nil
}

var _ Publisher = (*PubSubPublisher)(nil)
