package producer

import (
	"context"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// NoopProducer discards messages. Used when the event stream is disabled.
type NoopProducer struct{}

// NewNoopProducer creates a producer that publishes nothing.
func NewNoopProducer() *NoopProducer {
	return &NoopProducer{}
}

func (NoopProducer) ProduceMessage(ctx context.Context, msg *domain.ChatMessage) error {
	return nil
}

func (NoopProducer) Close() error {
	return nil
}
