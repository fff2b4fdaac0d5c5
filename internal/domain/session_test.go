package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycleHappyPath(t *testing.T) {
	s := NewSession("s1", "room-1")
	assert.Equal(t, StateConnecting, s.State())
	assert.False(t, s.IsActive())

	require.True(t, s.BeginAuth())
	assert.Equal(t, StateAuthenticating, s.State())

	require.True(t, s.Activate("u1", "anna"))
	assert.Equal(t, StateActive, s.State())
	assert.True(t, s.IsActive())
	assert.Equal(t, "anna", s.Identity())

	require.True(t, s.BeginClose())
	assert.Equal(t, StateClosing, s.State())
	assert.False(t, s.IsActive())

	s.Finish()
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionActivateRequiresAuthenticating(t *testing.T) {
	s := NewSession("s1", "room-1")

	assert.False(t, s.Activate("u1", "anna"), "activate before auth")
	assert.Equal(t, StateConnecting, s.State())
	assert.Empty(t, s.Identity())

	s.BeginAuth()
	s.Activate("u1", "anna")
	assert.False(t, s.Activate("u2", "max"), "identity cannot change once active")
	assert.Equal(t, "anna", s.Identity())
}

func TestSessionBeginAuthOnlyFromConnecting(t *testing.T) {
	s := NewSession("s1", "room-1")
	s.BeginAuth()

	assert.False(t, s.BeginAuth())

	s.Activate("u1", "anna")
	assert.False(t, s.BeginAuth())
}

func TestSessionBeginCloseIsIdempotent(t *testing.T) {
	s := NewSession("s1", "room-1")
	s.BeginAuth()
	s.Activate("u1", "anna")

	assert.True(t, s.BeginClose(), "first close wins")
	assert.False(t, s.BeginClose(), "second close is a no-op")

	s.Finish()
	assert.False(t, s.BeginClose(), "closed is terminal")
}

func TestSessionCloseBeforeActivation(t *testing.T) {
	// An unauthorized connection is torn down before it ever activates.
	s := NewSession("s1", "room-1")
	s.BeginAuth()

	require.True(t, s.BeginClose())
	assert.False(t, s.Activate("u1", "anna"), "no activation after close begins")
	assert.Equal(t, StateClosing, s.State())
}

func TestSessionConcurrentBeginClose(t *testing.T) {
	s := NewSession("s1", "room-1")
	s.BeginAuth()
	s.Activate("u1", "anna")

	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.BeginClose() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one caller should own teardown")
	assert.Equal(t, StateClosing, s.State())
}
