package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mkw68Mkw/fast-chat/internal/audit"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/hub"
	"github.com/Mkw68Mkw/fast-chat/internal/producer"
	"github.com/Mkw68Mkw/fast-chat/internal/repository"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
)

// collaboratorTimeout bounds calls to the verifier and the history store
// made from inside a session goroutine. A hung collaborator must not wedge
// the room.
const collaboratorTimeout = 5 * time.Second

// errorPayload is sent to a client whose own payload was rejected. The
// session stays active.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type chatService struct {
	registry    *hub.Registry
	broadcaster *hub.Broadcaster
	verifier    IdentityVerifier
	rooms       repository.RoomRepository
	history     HistoryService
	producer    producer.MessageProducer
}

// NewChatService wires the realtime session lifecycle.
func NewChatService(
	registry *hub.Registry,
	broadcaster *hub.Broadcaster,
	verifier IdentityVerifier,
	rooms repository.RoomRepository,
	history HistoryService,
	prod producer.MessageProducer,
) ChatService {
	return &chatService{
		registry:    registry,
		broadcaster: broadcaster,
		verifier:    verifier,
		rooms:       rooms,
		history:     history,
		producer:    prod,
	}
}

// Run executes the session state machine for one connection: authenticate,
// admit into the registry (evicting any previous same-identity connection
// in the room), process inbound payloads, tear down. It returns when the
// connection is gone.
func (s *chatService) Run(ctx context.Context, client *hub.Client, credential string) {
	session := client.Session()
	l := log.Ctx(ctx).With().Str(log.FieldRoomID, session.RoomID).Logger()
	ctx = log.WithLogger(ctx, l)

	session.BeginAuth()

	identity, err := s.authenticate(ctx, credential)
	if err != nil {
		audit.LogWithDetail(ctx, audit.ActionAuthRejected, "", err.Error(), "realtime auth rejected")
		s.refuse(client, hub.CloseUnauthorized, "unauthorized")
		return
	}

	if err := s.checkRoom(ctx, session.RoomID); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			s.refuse(client, hub.CloseRoomNotFound, "room not found")
			return
		}
		l.Error().Err(err).Msg("room lookup failed")
		s.refuse(client, hub.CloseRoomNotFound, "room unavailable")
		return
	}

	session.Activate(identity.UserID, identity.Username)

	if evicted := s.registry.Admit(session.RoomID, identity.Username, client); evicted != nil {
		evicted.CloseWithCode(hub.CloseSuperseded, "superseded by a newer session")
		audit.Log(ctx, audit.ActionSessionEvicted, identity.UserID, "previous session superseded")
	}
	audit.Log(ctx, audit.ActionSessionOpen, identity.UserID, "realtime session opened")

	client.ReadPump(func(data []byte) {
		s.handleInbound(ctx, client, data)
	})

	s.teardown(ctx, client)
}

func (s *chatService) authenticate(ctx context.Context, credential string) (*Identity, error) {
	vctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.verifier.Verify(vctx, credential)
}

func (s *chatService) checkRoom(ctx context.Context, roomID string) error {
	rctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()

	if _, err := s.rooms.GetByID(rctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}

// refuse closes a connection that never made it into the registry.
func (s *chatService) refuse(client *hub.Client, code int, reason string) {
	session := client.Session()
	session.BeginClose()
	client.CloseWithCode(code, reason)
	session.Finish()
}

// handleInbound processes one client payload while the session is active.
// Malformed payloads are dropped with an error frame back to the sender;
// the session is not terminated.
func (s *chatService) handleInbound(ctx context.Context, client *hub.Client, data []byte) {
	session := client.Session()
	if !session.IsActive() {
		return
	}
	l := log.Ctx(ctx)

	var payload domain.InboundPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
		l.Warn().Err(err).Str(log.FieldUsername, session.Identity()).Msg("dropped malformed payload")
		s.sendError(client, "BAD_REQUEST", domain.ErrMalformedPayload.Error())
		return
	}
	if err := payload.Validate(); err != nil {
		l.Warn().Err(err).Str(log.FieldUsername, session.Identity()).Msg("dropped invalid payload")
		s.sendError(client, "BAD_REQUEST", err.Error())
		return
	}

	// Authorship comes from the session identity. A username field in the
	// payload is ignored.
	msg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		RoomID:    session.RoomID,
		Username:  session.Identity(),
		Content:   payload.Message,
		Timestamp: time.Now().UTC(),
	}

	// Persist first, but a store failure does not stop live delivery.
	pctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	if err := s.history.Append(pctx, msg); err != nil {
		audit.LogWithDetail(ctx, audit.ActionPersistFailed, session.UserID, msg.ID, "history append failed")
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to persist message")
	}
	cancel()

	if err := s.producer.ProduceMessage(ctx, msg); err != nil {
		l.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to publish message to event stream")
	}

	s.broadcaster.Broadcast(ctx, msg)
}

func (s *chatService) sendError(client *hub.Client, code, message string) {
	data, err := json.Marshal(errorPayload{Error: code, Message: message})
	if err != nil {
		return
	}
	_ = client.Send(data)
}

// teardown removes the connection from the registry, but only while it is
// still the registered one: a session that was superseded finds a different
// handle under its key and leaves it alone. Running teardown twice is a
// no-op.
func (s *chatService) teardown(ctx context.Context, client *hub.Client) {
	session := client.Session()
	if !session.BeginClose() {
		return
	}

	if s.registry.Remove(session.RoomID, session.Username, client) {
		audit.Log(ctx, audit.ActionSessionClose, session.UserID, "realtime session closed")
	}
	client.Close()
	session.Finish()
}
