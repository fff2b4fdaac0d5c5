package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mkw68Mkw/fast-chat/pkg/jwt"
)

func TestVerifyAccessToken(t *testing.T) {
	tokens, err := jwt.NewManager(15*time.Minute, 24*time.Hour, "fast-chat-test")
	require.NoError(t, err)
	verifier := NewJWTVerifier(tokens)

	access, _, _, err := tokens.GenerateTokenPair("u1", "anna")
	require.NoError(t, err)

	identity, err := verifier.Verify(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "anna", identity.Username)
}

func TestVerifyRejectsMissingCredential(t *testing.T) {
	tokens, err := jwt.NewManager(15*time.Minute, 24*time.Hour, "fast-chat-test")
	require.NoError(t, err)
	verifier := NewJWTVerifier(tokens)

	_, err = verifier.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tokens, err := jwt.NewManager(15*time.Minute, 24*time.Hour, "fast-chat-test")
	require.NoError(t, err)
	verifier := NewJWTVerifier(tokens)

	_, err = verifier.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	tokens, err := jwt.NewManager(15*time.Minute, 24*time.Hour, "fast-chat-test")
	require.NoError(t, err)
	verifier := NewJWTVerifier(tokens)

	_, refresh, _, err := tokens.GenerateTokenPair("u1", "anna")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	tokens, err := jwt.NewManager(15*time.Minute, 24*time.Hour, "fast-chat-test")
	require.NoError(t, err)
	other, err := jwt.NewManager(15*time.Minute, 24*time.Hour, "fast-chat-test")
	require.NoError(t, err)
	verifier := NewJWTVerifier(tokens)

	access, _, _, err := other.GenerateTokenPair("u1", "anna")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), access)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
