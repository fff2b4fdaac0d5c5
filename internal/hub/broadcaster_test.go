package hub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

func chatMessage(room, user, content string) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        "m1",
		RoomID:    room,
		Username:  user,
		Content:   content,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBroadcastReachesAllRoomMembers(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	anna := &fakeHandle{}
	max := &fakeHandle{}
	r.Admit("1", "anna", anna)
	r.Admit("1", "max", max)

	delivered := b.Broadcast(context.Background(), chatMessage("1", "anna", "hi"))

	assert.Equal(t, 2, delivered)
	require.Equal(t, 1, anna.sentCount())
	require.Equal(t, 1, max.sentCount())

	// The sender's own connection receives the message too, with the
	// username taken from the event.
	var payload struct {
		Username  string    `json:"username"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(max.sent[0], &payload))
	assert.Equal(t, "anna", payload.Username)
	assert.Equal(t, "hi", payload.Message)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestBroadcastDoesNotLeakAcrossRooms(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	inRoom := &fakeHandle{}
	elsewhere := &fakeHandle{}
	r.Admit("1", "anna", inRoom)
	r.Admit("2", "max", elsewhere)

	b.Broadcast(context.Background(), chatMessage("1", "anna", "hi"))

	assert.Equal(t, 1, inRoom.sentCount())
	assert.Equal(t, 0, elsewhere.sentCount())
}

func TestBroadcastIsolatesFailedSend(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	healthy1 := &fakeHandle{}
	dead := &fakeHandle{sendErr: errors.New("peer gone")}
	healthy2 := &fakeHandle{}
	r.Admit("1", "anna", healthy1)
	r.Admit("1", "max", dead)
	r.Admit("1", "kim", healthy2)

	delivered := b.Broadcast(context.Background(), chatMessage("1", "anna", "hi"))

	// The failed connection does not abort delivery to the rest.
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, healthy1.sentCount())
	assert.Equal(t, 1, healthy2.sentCount())

	// Exactly one registry removal and the dead handle is closed.
	assert.Equal(t, 2, r.RoomSize("1"))
	assert.Equal(t, 1, dead.closed)
}

func TestBroadcastFailedSendAlreadyReplaced(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	replacement := &fakeHandle{}
	dead := &fakeHandle{sendErr: errors.New("peer gone")}
	// A newer connection replaces the dead one between the broadcaster's
	// snapshot and its send attempt.
	dead.sendHook = func() {
		r.Admit("1", "anna", replacement)
	}
	r.Admit("1", "anna", dead)

	b.Broadcast(context.Background(), chatMessage("1", "anna", "hi"))

	// The conditional removal spares the replacement, and the dead handle
	// is not closed by the broadcaster since it no longer owned the entry.
	assert.Equal(t, 1, r.RoomSize("1"))
	got := r.Snapshot("1")
	require.Len(t, got, 1)
	assert.Same(t, replacement, got[0].Handle.(*fakeHandle))
	assert.Equal(t, 0, dead.closed)
}

func TestBroadcastEmptyRoom(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	assert.Equal(t, 0, b.Broadcast(context.Background(), chatMessage("1", "anna", "hi")))
}

func TestBroadcastOrderPerConnection(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)

	h := &fakeHandle{}
	r.Admit("1", "anna", h)

	for i, content := range []string{"one", "two", "three"} {
		msg := chatMessage("1", "anna", content)
		msg.ID = content
		require.Equal(t, 1, b.Broadcast(context.Background(), msg), "broadcast %d", i)
	}

	require.Equal(t, 3, h.sentCount())
	for i, want := range []string{"one", "two", "three"} {
		var payload struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(h.sent[i], &payload))
		assert.Equal(t, want, payload.Message)
	}
}
