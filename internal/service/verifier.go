package service

import (
	"context"
	"fmt"

	"github.com/Mkw68Mkw/fast-chat/pkg/jwt"
)

// jwtVerifier implements IdentityVerifier over the local token manager.
type jwtVerifier struct {
	tokens *jwt.Manager
}

// NewJWTVerifier creates an identity verifier backed by the JWT manager.
func NewJWTVerifier(tokens *jwt.Manager) IdentityVerifier {
	return &jwtVerifier{tokens: tokens}
}

func (v *jwtVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	claims, err := v.tokens.ValidateToken(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}

	if claims.Type != "access" {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidCredentials)
	}

	return &Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}
