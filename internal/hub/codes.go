package hub

// Application close codes, in the 4000-4999 range reserved for private use
// by RFC 6455. Clients use these to tell an intentional server-side close
// apart from a network failure.
const (
	// CloseUnauthorized is sent when the connect credential is missing,
	// malformed or rejected.
	CloseUnauthorized = 4401

	// CloseSuperseded is sent to a connection that was replaced by a newer
	// connection for the same user in the same room.
	CloseSuperseded = 4402

	// CloseRoomNotFound is sent when the requested room does not exist.
	CloseRoomNotFound = 4404
)
