// Package router defines how HTTP routes are registered for the API and which
// capability each one requires.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/handler"
	"github.com/iliyamo/robot-management/internal/middleware"
)

// Chain holds the route-level middleware shared by all route groups.
// RateLimit and Cache may be nil.
type Chain struct {
	Tokens    middleware.TokenVerifier
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
	Log       *zap.Logger
}

// public routes are only rate limited.
func (ch Chain) public(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	return ch.with(nil, extra...)
}

func (ch Chain) anyToken() []echo.MiddlewareFunc {
	return ch.with(middleware.RequireCapability(ch.Tokens, middleware.AnyValidToken, ch.Log))
}

func (ch Chain) adminToken() []echo.MiddlewareFunc {
	return ch.with(middleware.RequireCapability(ch.Tokens, middleware.AdminToken, ch.Log))
}

// with orders guard before the rate limiter so buckets can be keyed by user.
func (ch Chain) with(guard echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	var out []echo.MiddlewareFunc
	if guard != nil {
		out = append(out, guard)
	}
	if ch.RateLimit != nil {
		out = append(out, ch.RateLimit)
	}
	for _, m := range extra {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers routes that do not belong to any resource.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers login, logout and the current-user endpoint under
// /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, ch Chain) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, ch.public()...)
	g.GET("/user", a.User, ch.anyToken()...)
	g.POST("/logout", a.Logout, ch.anyToken()...)
}
