package producer

import (
	"context"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// MessageProducer publishes chat messages to an event stream for downstream
// consumers (search indexing, analytics, archival). Publishing is fire and
// forget from the session's point of view: failures never block live
// delivery.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, msg *domain.ChatMessage) error
	Close() error
}
