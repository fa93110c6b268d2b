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

// TaskStore is the persistence the task handlers need.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByName(ctx context.Context, name string) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, task model.Task) error
	DeleteByName(ctx context.Context, name string) error
}

// TaskHandler serves /v1/tasks.  It mirrors RobotHandler for the tasks table.
type TaskHandler struct {
	Tasks TaskStore
	Audit service.AuditPublisher
	Log   *zap.Logger
}

// NewTaskHandler panics on a nil store; pub and log fall back to no-ops.
func NewTaskHandler(tasks TaskStore, pub service.AuditPublisher, log *zap.Logger) *TaskHandler {
	if tasks == nil {
		panic("nil task store passed to NewTaskHandler")
	}
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{Tasks: tasks, Audit: pub, Log: log.Named("tasks")}
}

// taskReq is the body of POST and PUT; form and json encodings both bind.
type taskReq struct {
	Name string `json:"name" form:"name" validate:"required"`
	Type string `json:"type" form:"type" validate:"required"`
}

type taskResp struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type taskItem struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// fields applies the name rule to name and type.
func (req taskReq) fields() (model.TaskFields, error) {
	name, err := validate.Name(req.Name)
	if err != nil {
		return model.TaskFields{}, validate.Field(err, "name")
	}
	typ, err := validate.Name(req.Type)
	if err != nil {
		return model.TaskFields{}, validate.Field(err, "type")
	}
	return model.TaskFields{Name: name, Type: typ}, nil
}

// Create handles POST /v1/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
	var req taskReq
	if ok, err := bind(c, h.Log, "create task", &req); !ok {
		return err
	}
	in, err := req.fields()
	if err != nil {
		return invalid(c, h.Log, "create task", err)
	}
	return h.create(c, in)
}

func (h *TaskHandler) create(c echo.Context, in model.TaskFields) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	task := &model.Task{Name: in.Name, Type: in.Type}
	if err := h.Tasks.Create(ctx, task); err != nil {
		if isConflict(err) {
			msg := fmt.Sprintf("Task name: %s already exists, must be unique.", in.Name)
			h.Log.Warn(msg, zap.String("op", "create task"))
			return fail(c, http.StatusConflict, msg)
		}
		return internal(c, h.Log, "create task", err)
	}
	h.Log.Info("task added", zap.Stringer("task", task), zap.Uint64("id", task.ID))
	audit(c, h.Audit, queue.ActionCreated, "task", task.Name)
	return created(c, "/v1/tasks/"+task.Name, fmt.Sprintf("New task added: %s.", task.Name))
}

// List handles GET /v1/tasks.
func (h *TaskHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	tasks, err := h.Tasks.List(ctx)
	if err != nil {
		return internal(c, h.Log, "list tasks", err)
	}
	out := make([]taskItem, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskItem{ID: t.ID, Name: t.Name, Type: t.Type})
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/tasks/:name.
func (h *TaskHandler) Get(c echo.Context) error {
	name := c.Param("name")
	ctx, cancel := dbContext(c)
	defer cancel()

	task, err := h.Tasks.GetByName(ctx, strings.ToLower(name))
	if err != nil {
		if isNotFound(err) {
			h.Log.Info("task not found", zap.String("name", name))
			return fail(c, http.StatusNotFound, fmt.Sprintf("%s not found.", name))
		}
		return internal(c, h.Log, "get task", err)
	}
	return c.JSON(http.StatusOK, taskResp{Name: task.Name, Type: task.Type})
}

// Update handles PUT /v1/tasks/:name.  An unknown name creates the task
// under the path name, which requires an admin token.
func (h *TaskHandler) Update(c echo.Context) error {
	name := c.Param("name")
	var req taskReq
	if ok, err := bind(c, h.Log, "update task", &req); !ok {
		return err
	}
	in, err := req.fields()
	if err != nil {
		return invalid(c, h.Log, "update task", err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	// Existing task: merge and save.  Anything but not-found is fatal.
	existing, err := h.Tasks.GetByName(ctx, strings.ToLower(name))
	switch {
	case err == nil:
		if err := h.Tasks.Update(ctx, model.MergeTask(existing, in)); err != nil {
			switch {
			case isConflict(err):
				return fail(c, http.StatusConflict, fmt.Sprintf("Task name: %s already exists, must be unique.", in.Name))
			case isNotFound(err):
				return fail(c, http.StatusNotFound, fmt.Sprintf("%s not found.", name))
			}
			return internal(c, h.Log, "update task", err)
		}
		msg := fmt.Sprintf("'%s' was successfully updated", name)
		h.Log.Info(msg, zap.Uint64("id", existing.ID))
		audit(c, h.Audit, queue.ActionUpdated, "task", in.Name)
		return success(c, http.StatusOK, msg)
	case !isNotFound(err):
		return internal(c, h.Log, "update task", err)
	}

	// Unknown task: create it under the path name, admins only.
	pathName, err := validate.Name(strings.ToLower(name))
	if err != nil {
		return invalid(c, h.Log, "update task", err)
	}
	if id, _ := middleware.IdentityFrom(c); !id.IsAdmin() {
		h.Log.Info("non-admin upsert rejected", zap.String("name", pathName), zap.Uint64("user_id", id.UserID))
		return fail(c, http.StatusForbidden, msgAdminRequired)
	}
	in.Name = pathName
	return h.create(c, in)
}

// Delete handles DELETE /v1/tasks/:name.
func (h *TaskHandler) Delete(c echo.Context) error {
	name := c.Param("name")
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Tasks.DeleteByName(ctx, strings.ToLower(name)); err != nil {
		switch {
		case isNotFound(err):
			return fail(c, http.StatusNotFound, fmt.Sprintf("%s not found in database.", name))
		case isConflict(err):
			msg := fmt.Sprintf("Task %s has task executions and cannot be deleted.", name)
			h.Log.Warn(msg)
			return fail(c, http.StatusConflict, msg)
		}
		return internal(c, h.Log, "delete task", err)
	}
	h.Log.Info("task deleted", zap.String("name", name))
	audit(c, h.Audit, queue.ActionDeleted, "task", strings.ToLower(name))
	return c.NoContent(http.StatusNoContent)
}
