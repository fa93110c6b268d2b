package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/middleware"
	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/queue"
	"github.com/iliyamo/robot-management/internal/service"
	"github.com/iliyamo/robot-management/internal/validate"
)

const msgAdminRequired = "You are not authorized to perform the requested action."

// RobotStore is the persistence the robot handlers need.
type RobotStore interface {
	Create(ctx context.Context, robot *model.Robot) error
	GetByName(ctx context.Context, name string) (model.Robot, error)
	List(ctx context.Context) ([]model.Robot, error)
	Update(ctx context.Context, robot model.Robot) error
	DeleteByName(ctx context.Context, name string) error
}

// RobotHandler serves /v1/robots.  Writes are audited through Audit.
type RobotHandler struct {
	Robots RobotStore
	Audit  service.AuditPublisher
	Log    *zap.Logger
}

// NewRobotHandler panics on a nil store; pub and log fall back to no-ops.
func NewRobotHandler(robots RobotStore, pub service.AuditPublisher, log *zap.Logger) *RobotHandler {
	if robots == nil {
		panic("nil robot store passed to NewRobotHandler")
	}
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RobotHandler{Robots: robots, Audit: pub, Log: log.Named("robots")}
}

// robotReq is the body of POST and PUT; form and json encodings both bind.
type robotReq struct {
	Name string `json:"name" form:"name" validate:"required"`
	Type string `json:"type" form:"type" validate:"required"`
}

type robotResp struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type robotItem struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// fields validates both attributes with the name rule.
func (r robotReq) fields() (model.RobotFields, error) {
	name, err := validate.Name(r.Name)
	if err != nil {
		return model.RobotFields{}, validate.Field(err, "name")
	}
	typ, err := validate.Name(r.Type)
	if err != nil {
		return model.RobotFields{}, validate.Field(err, "type")
	}
	return model.RobotFields{Name: name, Type: typ}, nil
}

// Create handles POST /v1/robots.
func (h *RobotHandler) Create(c echo.Context) error {
	var req robotReq
	if ok, err := bind(c, h.Log, "create robot", &req); !ok {
		return err
	}
	in, err := req.fields()
	if err != nil {
		return invalid(c, h.Log, "create robot", err)
	}
	return h.create(c, in)
}

func (h *RobotHandler) create(c echo.Context, in model.RobotFields) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	robot := &model.Robot{Name: in.Name, Type: in.Type}
	if err := h.Robots.Create(ctx, robot); err != nil {
		if isConflict(err) {
			msg := fmt.Sprintf("Robot name: %s already exists, must be unique.", in.Name)
			h.Log.Warn(msg, zap.String("op", "create robot"))
			return fail(c, http.StatusConflict, msg)
		}
		return internal(c, h.Log, "create robot", err)
	}
	h.Log.Info("robot added", zap.Stringer("robot", robot), zap.Uint64("id", robot.ID))
	audit(c, h.Audit, queue.ActionCreated, "robot", robot.Name)
	return created(c, "/v1/robots/"+robot.Name, fmt.Sprintf("New robot added: %s.", robot.Name))
}

// List handles GET /v1/robots.
func (h *RobotHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	robots, err := h.Robots.List(ctx)
	if err != nil {
		return internal(c, h.Log, "list robots", err)
	}
	out := make([]robotItem, 0, len(robots))
	for _, r := range robots {
		out = append(out, robotItem{ID: r.ID, Name: r.Name, Type: r.Type})
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/robots/:name.
func (h *RobotHandler) Get(c echo.Context) error {
	name := c.Param("name")
	ctx, cancel := dbContext(c)
	defer cancel()

	robot, err := h.Robots.GetByName(ctx, strings.ToLower(name))
	if err != nil {
		if isNotFound(err) {
			h.Log.Info("robot not found", zap.String("name", name))
			return fail(c, http.StatusNotFound, fmt.Sprintf("%s not found.", name))
		}
		return internal(c, h.Log, "get robot", err)
	}
	return c.JSON(http.StatusOK, robotResp{Name: robot.Name, Type: robot.Type})
}

// Update handles PUT /v1/robots/:name.  An unknown name creates the robot
// under the path name, which requires an admin token.
func (h *RobotHandler) Update(c echo.Context) error {
	name := c.Param("name")
	var req robotReq
	if ok, err := bind(c, h.Log, "update robot", &req); !ok {
		return err
	}
	in, err := req.fields()
	if err != nil {
		return invalid(c, h.Log, "update robot", err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	// Existing robot: merge and save.  Anything but not-found is fatal.
	existing, err := h.Robots.GetByName(ctx, strings.ToLower(name))
	switch {
	case err == nil:
		if err := h.Robots.Update(ctx, model.MergeRobot(existing, in)); err != nil {
			switch {
			case isConflict(err):
				return fail(c, http.StatusConflict, fmt.Sprintf("Robot name: %s already exists, must be unique.", in.Name))
			case isNotFound(err):
				return fail(c, http.StatusNotFound, fmt.Sprintf("%s not found.", name))
			}
			return internal(c, h.Log, "update robot", err)
		}
		msg := fmt.Sprintf("'%s' was successfully updated", name)
		h.Log.Info(msg, zap.Uint64("id", existing.ID))
		audit(c, h.Audit, queue.ActionUpdated, "robot", in.Name)
		return success(c, http.StatusOK, msg)
	case !isNotFound(err):
		return internal(c, h.Log, "update robot", err)
	}

	// Unknown robot: create it under the path name, admins only.
	pathName, err := validate.Name(strings.ToLower(name))
	if err != nil {
		return invalid(c, h.Log, "update robot", err)
	}
	if id, _ := middleware.IdentityFrom(c); !id.IsAdmin() {
		h.Log.Info("non-admin upsert rejected", zap.String("name", pathName), zap.Uint64("user_id", id.UserID))
		return fail(c, http.StatusForbidden, msgAdminRequired)
	}
	in.Name = pathName
	return h.create(c, in)
}

// Delete handles DELETE /v1/robots/:name.
func (h *RobotHandler) Delete(c echo.Context) error {
	name := c.Param("name")
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Robots.DeleteByName(ctx, strings.ToLower(name)); err != nil {
		switch {
		case isNotFound(err):
			return fail(c, http.StatusNotFound, fmt.Sprintf("%s not found in database.", name))
		case isConflict(err):
			msg := fmt.Sprintf("Robot %s has task executions and cannot be deleted.", name)
			h.Log.Warn(msg)
			return fail(c, http.StatusConflict, msg)
		}
		return internal(c, h.Log, "delete robot", err)
	}
	h.Log.Info("robot deleted", zap.String("name", name))
	audit(c, h.Audit, queue.ActionDeleted, "robot", strings.ToLower(name))
	return c.NoContent(http.StatusNoContent)
}
