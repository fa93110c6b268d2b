package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/queue"
	"github.com/iliyamo/robot-management/internal/repository"
	"github.com/iliyamo/robot-management/internal/service"
	"github.com/iliyamo/robot-management/internal/validate"
)

// ExecutionStore is the persistence the task execution handlers need.
type ExecutionStore interface {
	Create(ctx context.Context, te *model.TaskExecution) error
	GetView(ctx context.Context, id uint64) (model.TaskExecutionView, error)
	ListViews(ctx context.Context) ([]model.TaskExecutionView, error)
}

// TaskExecutionHandler serves /v1/task-executions.  Robots and Tasks resolve
// the ids in a create request; now is swapped out in tests.
type TaskExecutionHandler struct {
	Executions ExecutionStore
	Robots     validate.RobotLookup
	Tasks      validate.TaskLookup
	Audit      service.AuditPublisher
	Log        *zap.Logger

	now func() time.Time
}

// NewTaskExecutionHandler builds the handler with the wall clock.
func NewTaskExecutionHandler(executions ExecutionStore, robots validate.RobotLookup, tasks validate.TaskLookup,
	pub service.AuditPublisher, log *zap.Logger) *TaskExecutionHandler {
	if executions == nil || robots == nil || tasks == nil {
		panic("nil store passed to NewTaskExecutionHandler")
	}
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskExecutionHandler{
		Executions: executions,
		Robots:     robots,
		Tasks:      tasks,
		Audit:      pub,
		Log:        log.Named("task_executions"),
		now:        time.Now,
	}
}

// executionReq is the create body; start defaults to the time of the request.
type executionReq struct {
	RobotID uint64 `json:"robot_id" form:"robot_id" validate:"required"`
	TaskID  uint64 `json:"task_id" form:"task_id" validate:"required"`
	Start   string `json:"start" form:"start"`
	End     string `json:"end" form:"end" validate:"required"`
	Status  string `json:"status" form:"status" validate:"required,oneof=Success Failure"`
}

// namedRef embeds a robot or task in an execution response.
type namedRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// executionResp is the wire form of one execution.
type executionResp struct {
	ID       uint64    `json:"id"`
	Robot    namedRef  `json:"robot"`
	Task     namedRef  `json:"task"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration string    `json:"duration"`
	Status   string    `json:"status"`
}

func toExecutionResp(v model.TaskExecutionView, now time.Time) executionResp {
	return executionResp{
		ID:       v.ID,
		Robot:    namedRef{Name: v.RobotName, Type: v.RobotType},
		Task:     namedRef{Name: v.TaskName, Type: v.TaskType},
		Start:    v.Start.UTC(),
		End:      v.End.UTC(),
		Duration: model.FormatDuration(v.Duration(now)),
		Status:   v.Status(),
	}
}

// Create handles POST /v1/task-executions.
func (h *TaskExecutionHandler) Create(c echo.Context) error {
	const op = "create task execution"
	var req executionReq
	if ok, err := bind(c, h.Log, op, &req); !ok {
		return err
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	// References first so a missing robot or task is reported as 404 even
	// when other fields are also wrong.
	robotID, err := validate.RobotRef(ctx, h.Robots, req.RobotID)
	if err != nil {
		return invalid(c, h.Log, op, validate.Field(err, "robot_id"))
	}
	taskID, err := validate.TaskRef(ctx, h.Tasks, req.TaskID)
	if err != nil {
		return invalid(c, h.Log, op, validate.Field(err, "task_id"))
	}
	end, err := validate.FutureDate(req.End)
	if err != nil {
		return invalid(c, h.Log, op, validate.Field(err, "end"))
	}
	start := h.now().UTC()
	if req.Start != "" {
		if start, err = validate.Timestamp(req.Start); err != nil {
			return invalid(c, h.Log, op, validate.Field(err, "start"))
		}
	}
	ok, err := validate.Status(req.Status)
	if err != nil {
		return invalid(c, h.Log, op, validate.Field(err, "status"))
	}

	// A robot or task deleted since the checks above surfaces as a foreign
	// key failure.
	te := &model.TaskExecution{RobotID: robotID, TaskID: taskID, Start: start, End: end, Success: ok}
	if err := h.Executions.Create(ctx, te); err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "Robot or task no longer exists.")
		}
		return internal(c, h.Log, op, err)
	}

	// Fall back to ids if the joined row cannot be read back.
	msg := fmt.Sprintf("New task execution added: robot %d: task %d.", robotID, taskID)
	if v, err := h.Executions.GetView(ctx, te.ID); err == nil {
		msg = fmt.Sprintf("New task execution added: %s: %s.",
			model.Robot{Name: v.RobotName, Type: v.RobotType}, model.Task{Name: v.TaskName, Type: v.TaskType})
	}
	h.Log.Info("task execution added", zap.Uint64("id", te.ID), zap.Uint64("robot_id", robotID), zap.Uint64("task_id", taskID))
	id := strconv.FormatUint(te.ID, 10)
	audit(c, h.Audit, queue.ActionCreated, "task_execution", id)
	return created(c, "/v1/task-executions/"+id, msg)
}

// parseFilter reads the sparse equality filter from the query string.
// Empty values do not constrain.  Names and types must exist.
func (h *TaskExecutionHandler) parseFilter(ctx context.Context, c echo.Context) (repository.TaskExecutionFilter, error) {
	var f repository.TaskExecutionFilter
	str := func(v string) *string { return &v }

	if v := c.QueryParam("robot_name"); v != "" {
		name, err := validate.RobotName(ctx, h.Robots, v)
		if err != nil {
			return f, validate.Field(err, "robot_name")
		}
		f.RobotName = str(name)
	}
	if v := c.QueryParam("robot_type"); v != "" {
		typ, err := validate.RobotType(ctx, h.Robots, v)
		if err != nil {
			return f, validate.Field(err, "robot_type")
		}
		f.RobotType = str(typ)
	}
	if v := c.QueryParam("task_name"); v != "" {
		name, err := validate.TaskName(ctx, h.Tasks, v)
		if err != nil {
			return f, validate.Field(err, "task_name")
		}
		f.TaskName = str(name)
	}
	if v := c.QueryParam("task_type"); v != "" {
		typ, err := validate.TaskType(ctx, h.Tasks, v)
		if err != nil {
			return f, validate.Field(err, "task_type")
		}
		f.TaskType = str(typ)
	}
	if v := c.QueryParam("start"); v != "" {
		t, err := validate.Timestamp(v)
		if err != nil {
			return f, validate.Field(err, "start")
		}
		f.Start = &t
	}
	if v := c.QueryParam("end"); v != "" {
		t, err := validate.Timestamp(v)
		if err != nil {
			return f, validate.Field(err, "end")
		}
		f.End = &t
	}
	if v := c.QueryParam("duration"); v != "" {
		f.Duration = str(v)
	}
	if v := c.QueryParam("status"); v != "" {
		f.Status = str(v)
	}
	return f, nil
}

// List handles GET /v1/task-executions.  Filtering happens in memory over
// every execution.
func (h *TaskExecutionHandler) List(c echo.Context) error {
	const op = "list task executions"
	ctx, cancel := dbContext(c)
	defer cancel()

	f, err := h.parseFilter(ctx, c)
	if err != nil {
		return invalid(c, h.Log, op, err)
	}
	views, err := h.Executions.ListViews(ctx)
	if err != nil {
		return internal(c, h.Log, op, err)
	}
	// One clock reading so duration filters and rendered durations agree.
	now := h.now()
	matched := repository.Filter(views, f, now)
	out := make([]executionResp, 0, len(matched))
	for _, v := range matched {
		out = append(out, toExecutionResp(v, now))
	}
	h.Log.Debug("task execution list", zap.Int("total", len(views)), zap.Int("matched", len(out)))
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/task-executions/:id.
func (h *TaskExecutionHandler) Get(c echo.Context) error {
	raw := c.Param("id")
	notFound := fmt.Sprintf("Task execution [%s] not found.", raw)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fail(c, http.StatusNotFound, notFound)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	v, err := h.Executions.GetView(ctx, id)
	if err != nil {
		if isNotFound(err) {
			h.Log.Info("task execution not found", zap.Uint64("id", id))
			return fail(c, http.StatusNotFound, notFound)
		}
		return internal(c, h.Log, "get task execution", err)
	}
	return c.JSON(http.StatusOK, toExecutionResp(v, h.now()))
}
