package notify

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSub publishes album ids to a Google Cloud Pub/Sub topic so downstream
// consumers (mappers, search indexers) learn about fresh metadata.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub connects to the project and verifies the topic exists. It
// authenticates using Application Default Credentials.
func NewPubSub(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSub, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing pubsub client after missing topic", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}

	return &PubSub{client: client, topic: topic, logger: logger}, nil
}

// Publish sends the album id to the topic. Fire-and-forget: the Pub/Sub
// client batches and retries in the background, so the publish result is not
// awaited.
func (p *PubSub) Publish(ctx context.Context, albumID string) error {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: []byte(albumID),
		Attributes: map[string]string{
			"source": "spotify-metadata-cache",
		},
	})
	_ = result
	return nil
}

// Close flushes pending messages and releases the client.
func (p *PubSub) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
