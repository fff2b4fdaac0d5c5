package hub

import (
	"context"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
)

// Broadcaster fans a chat message out to every live connection in a room.
// Delivery is best effort: a failed send removes that one connection from
// the registry and closes it, without affecting the remaining recipients.
type Broadcaster struct {
	registry *Registry
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast sends msg to all connections currently registered in the room.
// The payload is marshalled once and shared. The registry lock is released
// before any send happens; a snapshot can therefore be slightly stale, in
// which case the send fails and the dead connection is cleaned up here.
// Returns the number of successful deliveries.
func (b *Broadcaster) Broadcast(ctx context.Context, msg *domain.ChatMessage) int {
	l := log.Ctx(ctx)

	data, err := msg.EncodeOutbound()
	if err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to encode outbound payload")
		return 0
	}

	delivered := 0
	for _, entry := range b.registry.Snapshot(msg.RoomID) {
		if err := entry.Handle.Send(data); err != nil {
			if b.registry.Remove(msg.RoomID, entry.Username, entry.Handle) {
				entry.Handle.Close()
				l.Warn().Err(err).
					Str(log.FieldRoomID, msg.RoomID).
					Str(log.FieldUsername, entry.Username).
					Msg("dropped dead connection during broadcast")
			}
			continue
		}
		delivered++
	}

	return delivered
}
