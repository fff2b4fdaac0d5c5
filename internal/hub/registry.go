package hub

import (
	"errors"
	"sync"
)

var (
	// ErrSendBufferFull is returned when a handle's outbound queue is full.
	// The connection is considered dead and gets cleaned up by the caller.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrHandleClosed is returned when sending to an already closed handle.
	ErrHandleClosed = errors.New("handle closed")
)

// Handle is one live realtime connection as seen by the registry and the
// broadcaster. Send enqueues a frame on the connection's serialized outbound
// stream; it never blocks on the peer.
type Handle interface {
	Send(data []byte) error
	CloseWithCode(code int, reason string)
	Close()
}

// Entry is one live (user, connection) pair inside a room.
type Entry struct {
	Username string
	Handle   Handle
}

// Registry tracks live connections keyed by (room, user). It is the single
// piece of shared mutable state across all session goroutines; every access
// goes through the mutex. At most one connection is registered per key.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Handle
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]Handle),
	}
}

// Admit inserts h under (roomID, username). If a connection is already
// registered under that key it is removed and returned; the caller must
// close it with CloseSuperseded. Never leaves two entries under one key.
func (r *Registry) Admit(roomID, username string, h Handle) (evicted Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil {
		room = make(map[string]Handle)
		r.rooms[roomID] = room
	}

	evicted = room[username]
	room[username] = h
	return evicted
}

// Remove deletes the entry under (roomID, username) only if the registered
// handle is h. A teardown racing against a newer connection that replaced it
// under the same key finds a different handle and leaves it alone.
func (r *Registry) Remove(roomID, username string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil || room[username] != h {
		return false
	}

	delete(room, username)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// Snapshot returns a point-in-time copy of all live entries in a room. The
// copy can be iterated without holding the registry lock, so slow peers
// never stall Admit or Remove.
func (r *Registry) Snapshot(roomID string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	if len(room) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(room))
	for username, h := range room {
		entries = append(entries, Entry{Username: username, Handle: h})
	}
	return entries
}

// RoomSize returns the number of live connections in a room.
func (r *Registry) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
