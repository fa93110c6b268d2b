// Package service holds the token service and the audit event publisher.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/utils"
)

// ErrInvalidToken is the only error Verify returns to callers.  The wrapped
// cause is meant for logs and must not reach HTTP responses.
var ErrInvalidToken = errors.New("invalid token")

var errRevoked = errors.New("token revoked")

// Blacklist stores revoked tokens.  *repository.TokenRepo implements it.
type Blacklist interface {
	Blacklist(ctx context.Context, token string) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// Identity is the authenticated caller derived from a verified token.
type Identity struct {
	UserID    uint64
	Role      string
	ExpiresAt time.Time // zero for tokens that never expire
}

// IsAdmin reports whether the token carried the admin role.
func (id Identity) IsAdmin() bool { return id.Role == model.RoleAdmin }

// TokenService issues, verifies and revokes bearer tokens.
type TokenService struct {
	secret    []byte
	ttl       time.Duration
	blacklist Blacklist
	now       func() time.Time
}

// NewTokenService returns a service signing with secret.  A ttl of zero
// issues tokens that never expire.
func NewTokenService(secret string, ttl time.Duration, blacklist Blacklist) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		ttl:       ttl,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// Issue signs a token for the user.
func (s *TokenService) Issue(user model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(s.secret, user.ID, user.Role(), s.ttl, s.now())
}

// Verify checks the blacklist first and then the token itself.
func (s *TokenService) Verify(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: blacklist lookup: %v", ErrInvalidToken, err)
	}
	if revoked {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, errRevoked)
	}
	claims, err := utils.ParseAccessToken(s.secret, raw, s.now())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	uid, _ := claims.UserID()
	id := Identity{UserID: uid, Role: claims.Role}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return id, nil
}

// Revoke blacklists the token.  Revoking twice is not an error.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	return s.blacklist.Blacklist(ctx, raw)
}
