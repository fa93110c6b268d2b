package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/middleware"
	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/queue"
	"github.com/iliyamo/robot-management/internal/service"
	"github.com/iliyamo/robot-management/internal/utils"
)

// UserStore is the user lookup the auth handlers need.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenIssuer issues and revokes access tokens.
type TokenIssuer interface {
	Issue(user model.User) (utils.AccessToken, error)
	Revoke(ctx context.Context, raw string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users  UserStore
	Tokens TokenIssuer
	Audit  service.AuditPublisher
	Log    *zap.Logger
}

// NewAuthHandler wires the login, logout and current-user endpoints.  A nil
// publisher disables auditing and a nil logger discards output.
func NewAuthHandler(users UserStore, tokens TokenIssuer, pub service.AuditPublisher, log *zap.Logger) *AuthHandler {
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Users: users, Tokens: tokens, Audit: pub, Log: log.Named("auth")}
}

const msgBadCredentials = "email or password does not match"

// loginReq carries the credentials; email is matched case-insensitively.
type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// loginResp follows the OAuth2 token response shape.
type loginResp struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds, 0 when the token never expires
}

// userResp describes the caller of /v1/auth/user.
type userResp struct {
	Email          string    `json:"email"`
	Admin          bool      `json:"admin"`
	RegisteredOn   time.Time `json:"registered_on"`
	TokenExpiresIn string    `json:"token_expires_in"`
}

// noStore keeps tokens out of intermediary caches.
func noStore(c echo.Context) {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	c.Response().Header().Set("Pragma", "no-cache")
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, h.Log, "login", &req); !ok {
		return err
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			h.Log.Info("login: unknown email")
			return fail(c, http.StatusUnauthorized, msgBadCredentials)
		}
		return internal(c, h.Log, "login", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Log.Info("login: bad password", zap.Uint64("user_id", u.ID))
		return fail(c, http.StatusUnauthorized, msgBadCredentials)
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		return internal(c, h.Log, "issue token", err)
	}
	var expiresIn int64
	if !tok.Exp.IsZero() {
		expiresIn = int64(time.Until(tok.Exp).Round(time.Second) / time.Second)
	}
	h.Log.Info("login", zap.Uint64("user_id", u.ID), zap.String("role", u.Role()))
	publish(c, h.Audit, queue.AuditEvent{Action: queue.ActionLogin, Entity: "user", Key: u.Email, UserID: u.ID, Role: u.Role()})

	noStore(c)
	return c.JSON(http.StatusOK, loginResp{
		Status:      "success",
		Message:     "successfully logged in",
		AccessToken: tok.Token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
	})
}

// User handles GET /v1/auth/user and describes the caller.
func (h *AuthHandler) User(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Missing bearer token.")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if isNotFound(err) {
			h.Log.Warn("token for deleted user", zap.Uint64("user_id", id.UserID))
			return fail(c, http.StatusNotFound, "User not found.")
		}
		return internal(c, h.Log, "get user", err)
	}
	expires := "never"
	if !id.ExpiresAt.IsZero() {
		expires = time.Until(id.ExpiresAt).Truncate(time.Second).String()
	}
	return c.JSON(http.StatusOK, userResp{
		Email:          u.Email,
		Admin:          u.Admin,
		RegisteredOn:   u.RegisteredOn.UTC(),
		TokenExpiresIn: expires,
	})
}

// Logout handles POST /v1/auth/logout by blacklisting the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := middleware.TokenFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Missing bearer token.")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, raw); err != nil {
		return internal(c, h.Log, "logout", err)
	}
	id, _ := middleware.IdentityFrom(c)
	h.Log.Info("logout", zap.Uint64("user_id", id.UserID))
	audit(c, h.Audit, queue.ActionLogout, "user", strconv.FormatUint(id.UserID, 10))
	return success(c, http.StatusOK, "successfully logged out")
}
