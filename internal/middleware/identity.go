package middleware

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/robot-management/internal/service"
)

// Echo context keys set by Guard.
const (
	identityKey = "identity"
	tokenKey    = "token"
)

type ctxKey struct{ name string }

var (
	identityCtxKey = ctxKey{"identity"}
	tokenCtxKey    = ctxKey{"token"}
)

func attach(c echo.Context, id service.Identity, raw string) {
	c.Set(identityKey, id)
	c.Set(tokenKey, raw)
	ctx := context.WithValue(c.Request().Context(), identityCtxKey, id)
	ctx = context.WithValue(ctx, tokenCtxKey, raw)
	c.SetRequest(c.Request().WithContext(ctx))
}

// IdentityFrom returns the identity attached by Guard.
func IdentityFrom(c echo.Context) (service.Identity, bool) {
	id, ok := c.Get(identityKey).(service.Identity)
	return id, ok
}

// TokenFrom returns the raw bearer token attached by Guard.
func TokenFrom(c echo.Context) (string, bool) {
	raw, ok := c.Get(tokenKey).(string)
	return raw, ok && raw != ""
}

// IdentityFromContext reads the identity from a request context, for code
// below the HTTP layer.
func IdentityFromContext(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(service.Identity)
	return id, ok
}

// currentUserID identifies the caller for rate limit keys; "anon" when the
// route is not guarded.
func currentUserID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.UserID != 0 {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
