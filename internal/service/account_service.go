package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Mkw68Mkw/fast-chat/internal/audit"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/repository"
	"github.com/Mkw68Mkw/fast-chat/pkg/jwt"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
)

type accountService struct {
	repo   repository.UserRepository
	tokens *jwt.Manager
}

// NewAccountService creates the account service.
func NewAccountService(repo repository.UserRepository, tokens *jwt.Manager) AccountService {
	return &accountService{
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates a new user and issues a token pair.
func (s *accountService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, err
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return s.issueTokens(ctx, user)
}

// Login authenticates a user and issues a token pair.
func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Username, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by username")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, req.Username, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return s.issueTokens(ctx, user)
}

// Logout revokes all outstanding tokens for a user. Tokens signed before
// the revocation fail validation until the revocation entry expires.
func (s *accountService) Logout(ctx context.Context, userID string) error {
	s.tokens.RevokeUserTokens(userID)
	audit.Log(ctx, audit.ActionLogout, userID, "user logged out")
	return nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *accountService) Refresh(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	accessToken, refreshToken, expiresAt, err := s.tokens.RefreshTokens(req.RefreshToken)
	if err != nil {
		l.Warn().Err(err).Msg("failed to refresh token")
		return nil, ErrInvalidCredentials
	}

	claims, err := s.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// GetProfile returns the public view of a user.
func (s *accountService) GetProfile(ctx context.Context, userID string) (*domain.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

func (s *accountService) issueTokens(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	accessToken, refreshToken, expiresAt, err := s.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens")
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
