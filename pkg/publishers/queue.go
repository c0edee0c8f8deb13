package publishers

import (
	"context"
	"fmt"
)

// queueSender delivers one event to a cloud queue or topic.
type queueSender interface {
	Send(ctx context.Context, evt Event) error
}

// senderFactory builds a queueSender from the queue section of a publisher.
type senderFactory func(ctx context.Context, qc *QueuePublisherConfig, log Logger) (queueSender, error)

var queueSenders = map[string]senderFactory{
	QueueProviderAWSSQS: func(ctx context.Context, qc *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newAWSSQSSender(ctx, qc.AWS, log)
	},
	QueueProviderAWSSNS: func(ctx context.Context, qc *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newAWSSNSSender(ctx, qc.SNS, log)
	},
	QueueProviderGCP: func(ctx context.Context, qc *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newGCPPubSubSender(ctx, qc.GCP, log)
	},
}

// queuePublisher hands headline events to a queue sender.
type queuePublisher struct {
	id       string
	typ      string
	provider string
	sender   queueSender
}

func newQueuePublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	factory, ok := queueSenders[cfg.Queue.Provider]
	if !ok {
		return nil, fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	sender, err := factory(ctx, cfg.Queue, ensureLogger(log))
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	return &queuePublisher{
		id:       cfg.ID,
		typ:      cfg.Type,
		provider: cfg.Queue.Provider,
		sender:   sender,
	}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return p.typ }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("%s send: %w", p.provider, err)
	}
	return nil
}
