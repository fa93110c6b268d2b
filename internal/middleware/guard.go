package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/service"
)

// Capability is the minimum authorization a route requires.
type Capability int

const (
	AnyValidToken Capability = iota + 1
	AdminToken
)

func (c Capability) String() string {
	switch c {
	case AnyValidToken:
		return "any_valid_token"
	case AdminToken:
		return "admin_token"
	}
	return "unknown"
}

// Fixed response messages.  Every token failure shares one message so callers
// cannot tell forged, expired and revoked tokens apart.
const (
	msgMissingToken = "Missing bearer token."
	msgInvalidToken = "Invalid token. Please log in again."
	msgAdminOnly    = "You are not authorized to perform the requested action."
)

// TokenVerifier is the part of the token service Guard depends on.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (service.Identity, error)
}

// Guard wraps next so that it only runs for callers holding capability.
func Guard(tokens TokenVerifier, capability Capability, log *zap.Logger, next echo.HandlerFunc) echo.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c echo.Context) error {
		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			log.Debug("auth: missing token", zap.String("path", c.Path()))
			return unauthorized(c, msgMissingToken)
		}

		id, err := tokens.Verify(c.Request().Context(), raw)
		if err != nil {
			log.Info("auth: token rejected",
				zap.String("path", c.Path()),
				zap.String("method", c.Request().Method),
				zap.Error(err))
			return unauthorized(c, msgInvalidToken)
		}

		if capability == AdminToken && !id.IsAdmin() {
			log.Info("auth: admin token required",
				zap.Uint64("user_id", id.UserID),
				zap.String("path", c.Path()))
			return c.JSON(http.StatusForbidden, echo.Map{"status": "fail", "message": msgAdminOnly})
		}

		attach(c, id, raw)
		return next(c)
	}
}

// RequireCapability adapts Guard to a route middleware.
func RequireCapability(tokens TokenVerifier, capability Capability, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return Guard(tokens, capability, log, next)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"status": "fail", "message": msg})
}
