// Package handler translates HTTP requests into repository operations and
// domain results back into JSON.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/middleware"
	"github.com/iliyamo/robot-management/internal/queue"
	"github.com/iliyamo/robot-management/internal/repository"
	"github.com/iliyamo/robot-management/internal/service"
	"github.com/iliyamo/robot-management/internal/validate"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

// dbContext derives the per-request database deadline.
func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// statusResp is the body of every non-listing response.
type statusResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// fail writes {"status":"fail"} with msg.
func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, statusResp{Status: "fail", Message: msg})
}

func success(c echo.Context, code int, msg string) error {
	return c.JSON(code, statusResp{Status: "success", Message: msg})
}

// created sets Location and answers 201.
func created(c echo.Context, location, msg string) error {
	c.Response().Header().Set(echo.HeaderLocation, location)
	return success(c, http.StatusCreated, msg)
}

// invalid renders a validation failure with its message verbatim.  Errors
// that are not validation errors are storage failures.
func invalid(c echo.Context, log *zap.Logger, op string, err error) error {
	var ve *validate.Error
	if !errors.As(err, &ve) {
		return internal(c, log, op, err)
	}
	log.Info("validation failed", zap.String("op", op), zap.String("field", ve.Field),
		zap.Stringer("kind", ve.Kind), zap.String("message", ve.Msg))
	if ve.Kind == validate.NotFound {
		return fail(c, http.StatusNotFound, ve.Msg)
	}
	return fail(c, http.StatusBadRequest, ve.Msg)
}

// internal logs err and hides it behind a generic 500.
func internal(c echo.Context, log *zap.Logger, op string, err error) error {
	log.Error("request failed", zap.String("op", op), zap.Error(err))
	return fail(c, http.StatusInternalServerError, "Internal server error.")
}

// bind decodes the body (JSON or form) and applies the struct rules.  When
// ok is false the error response has already been written and err is what
// the handler should return.
func bind(c echo.Context, log *zap.Logger, op string, dst interface{}) (ok bool, err error) {
	if err := c.Bind(dst); err != nil {
		log.Info("bind failed", zap.String("op", op), zap.Error(err))
		return false, fail(c, http.StatusBadRequest, "Invalid request body.")
	}
	if err := c.Validate(dst); err != nil {
		return false, invalid(c, log, op, err)
	}
	return true, nil
}

// isNotFound reports repository misses.
func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }

// isConflict reports unique or foreign key violations.
func isConflict(err error) bool { return errors.Is(err, repository.ErrConflict) }

// audit publishes an event for the current caller.  Failures are logged by
// the publisher and never affect the response.
func audit(c echo.Context, pub service.AuditPublisher, action, entity, key string) {
	publish(c, pub, queue.AuditEvent{Action: action, Entity: entity, Key: key})
}

// publish stamps ev with the request id and caller, then hands it to pub.
// Publishers only enqueue, so this never waits on the broker.
func publish(c echo.Context, pub service.AuditPublisher, ev queue.AuditEvent) {
	if pub == nil {
		return
	}
	ev.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	ev.OccurredAt = time.Now().UTC()
	if id, ok := middleware.IdentityFrom(c); ok && ev.UserID == 0 {
		ev.UserID = id.UserID
		ev.Role = id.Role
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = pub.Publish(ctx, ev)
}
