package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// orderingKey groups one run's headlines when the topic is ordered.
const orderingKey = fifoGroupID

// gcpPubSubSender implements queueSender for Google Cloud Pub/Sub.
type gcpPubSubSender struct {
	topic   *pubsub.Topic
	ordered bool
	log     Logger
}

// newGCPPubSubSender builds a Pub/Sub sender. PUBSUB_EMULATOR_HOST is honored
// by the client library.
func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gcp queue configuration is missing")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	topic.EnableMessageOrdering = cfg.Ordered

	return &gcpPubSubSender{topic: topic, ordered: cfg.Ordered, log: ensureLogger(log)}, nil
}

// Send publishes the event and waits for the server-assigned id.
func (s *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &pubsub.Message{Data: payload, Attributes: eventAttributes(evt)}
	if s.ordered {
		msg.OrderingKey = orderingKey
	}

	msgID, err := s.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if s.ordered {
			// a failed ordered publish pauses the key until resumed
			s.topic.ResumePublish(orderingKey)
		}
		s.log.ErrorObj("pubsub publish failed", "publisher_pubsub_error", map[string]any{
			"event_id": evt.ID,
			"rank":     evt.Rank,
			"error":    err.Error(),
		})
		return fmt.Errorf("send message to pubsub: %w", err)
	}

	s.log.DebugObj("pubsub delivered event", "publisher_pubsub_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": msgID,
	})
	return nil
}
