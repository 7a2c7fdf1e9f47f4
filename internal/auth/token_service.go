package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CredentialStore persists the single active refresh token of each user.
// FindByID returns repositories.ErrNotFound for unknown ids.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	// SetRefreshToken stores token for the user; an empty token clears it.
	SetRefreshToken(ctx context.Context, userID, token string) error
}

// Options configures a TokenService.
type Options struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	ActionKey     []byte
	ActionTTL     time.Duration
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// TokenService issues and validates session tokens and action tokens.
type TokenService struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration

	actions *actionSealer
	store   CredentialStore
	now     func() time.Time
}

// NewTokenService constructs a TokenService backed by store.
func NewTokenService(opts Options, store CredentialStore) (*TokenService, error) {
	if store == nil {
		return nil, errors.New("auth: credential store must not be nil")
	}
	if len(opts.AccessSecret) == 0 || len(opts.RefreshSecret) == 0 {
		return nil, errors.New("auth: access and refresh secrets are required")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 10 * 24 * time.Hour
	}

	actions, err := newActionSealer(opts.ActionKey, opts.ActionTTL)
	if err != nil {
		return nil, err
	}

	s := &TokenService{
		accessSecret:  opts.AccessSecret,
		accessTTL:     opts.AccessTTL,
		refreshSecret: opts.RefreshSecret,
		refreshTTL:    opts.RefreshTTL,
		actions:       actions,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
	actions.now = s.clock
	return s, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) clock() time.Time {
	return s.now()
}

// IssueTokenPair signs a new access/refresh pair for user and persists the refresh
// token, replacing any previous one.
func (s *TokenService) IssueTokenPair(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, apperr.Internal("issue tokens", errors.New("user id must be provided"))
	}

	now := s.now()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		UserName: user.UserName,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}).SignedString(s.accessSecret)
	if err != nil {
		return models.SessionTokens{}, apperr.Internal("sign access token", err)
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	}).SignedString(s.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, apperr.Internal("sign refresh token", err)
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.SessionTokens{}, apperr.Internal("persist refresh token", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Rotate exchanges the current refresh token for a new pair. A token that was
// already rotated no longer matches the stored value and is rejected.
func (s *TokenService) Rotate(ctx context.Context, oldRefreshToken string) (models.SessionTokens, error) {
	oldRefreshToken = strings.TrimSpace(oldRefreshToken)
	if oldRefreshToken == "" {
		return models.SessionTokens{}, apperr.Unauthenticated("unauthorized request")
	}

	var claims refreshClaims
	if _, err := s.parse(oldRefreshToken, &claims, s.refreshSecret); err != nil || claims.UserID == "" {
		return models.SessionTokens{}, apperr.InvalidToken("invalid refresh token")
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apperr.InvalidToken("invalid refresh token")
		}
		return models.SessionTokens{}, apperr.Internal("load user for refresh", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(oldRefreshToken)) != 1 {
		return models.SessionTokens{}, apperr.InvalidToken("refresh token is expired or used")
	}

	return s.IssueTokenPair(ctx, user)
}

// Revoke clears the stored refresh token for userID.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return apperr.Internal("clear refresh token", err)
	}
	return nil
}

// VerifyAccess validates an access token's signature and expiry. Persisted state is not consulted.
func (s *TokenService) VerifyAccess(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, apperr.Unauthenticated("unauthorized request")
	}

	var claims AccessClaims
	if _, err := s.parse(token, &claims, s.accessSecret); err != nil || claims.UserID == "" {
		return Identity{}, apperr.Unauthenticated("invalid access token")
	}

	return Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		UserName: claims.UserName,
		FullName: claims.FullName,
	}, nil
}

// IssueActionToken seals a time-boxed token binding userID to purpose.
func (s *TokenService) IssueActionToken(userID string, purpose Purpose) (ActionToken, error) {
	return s.actions.seal(userID, purpose)
}

// RedeemActionToken opens tok and returns the user id it was issued for.
func (s *TokenService) RedeemActionToken(tok ActionToken, purpose Purpose) (string, error) {
	return s.actions.open(tok, purpose)
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret []byte) (*jwt.Token, error) {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return parsed, nil
}
