package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eyasluna999/wertigo/config"
	"github.com/eyasluna999/wertigo/internal/api/session"
	"github.com/eyasluna999/wertigo/internal/types"
)

const minPasswordLength = 8

// Claims are the custom claims carried in the access token.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr,omitempty"`
	Email    string `json:"eml"`
	jwt.RegisteredClaims
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.User, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	sessions session.Repository
	jwtCfg   config.JWTConfig
}

func NewServiceImpl(repo Repository, sessions session.Repository, jwtCfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		sessions: sessions,
		jwtCfg:   jwtCfg,
	}
}

func (s *ServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", types.ErrValidationFailed)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", types.ErrValidationFailed)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", types.ErrValidationFailed, minPasswordLength)
	}

	user, err := s.repo.CreateUser(ctx, username, email, req.Password)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login validates credentials, issues an access token, and links the
// caller's anonymous session to the user when one is supplied.
func (s *ServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	user, err := s.repo.ValidateCredentials(ctx, strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if req.SessionID != "" {
		sessionID, err := uuid.Parse(req.SessionID)
		if err == nil {
			if err := s.sessions.LinkUser(ctx, sessionID, user.ID); err != nil {
				s.logger.WarnContext(ctx, "Failed to link session to user",
					slog.String("session_id", req.SessionID), slog.Any("error", err))
			}
		}
	}

	return &types.LoginResponse{Token: token, User: *user}, nil
}

func (s *ServiceImpl) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}
