package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/robot-management/internal/model"
)

// TaskExecutionRepo stores task executions.  Executions are read-only once
// created, so there is no update or delete.
type TaskExecutionRepo struct {
	db *sqlx.DB
}

// NewTaskExecutionRepo returns a repository over task_executions joined with
// robots and tasks.
func NewTaskExecutionRepo(db *sqlx.DB) *TaskExecutionRepo {
	return &TaskExecutionRepo{db: db}
}

// selectExecutionViews joins each execution with its robot and task.
const selectExecutionViews = `SELECT
		te.id, te.robot_id, te.task_id, te.start, te.end, te.success,
		r.name AS robot_name, r.type AS robot_type,
		t.name AS task_name,  t.type AS task_type
	FROM task_executions te
	JOIN robots r ON r.id = te.robot_id
	JOIN tasks  t ON t.id = te.task_id`

// Create inserts an execution and populates its ID.  A robot or task that
// vanished between validation and insert yields ErrNotFound.
func (r *TaskExecutionRepo) Create(ctx context.Context, te *model.TaskExecution) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO task_executions (robot_id, task_id, `start`, `end`, success) VALUES (?, ?, ?, ?, ?)",
		te.RobotID, te.TaskID, te.Start.UTC(), te.End.UTC(), te.Success)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	te.ID = uint64(id)
	return nil
}

// GetView fetches one execution joined with its robot and task.
func (r *TaskExecutionRepo) GetView(ctx context.Context, id uint64) (model.TaskExecutionView, error) {
	var out model.TaskExecutionView
	err := r.db.GetContext(ctx, &out, selectExecutionViews+" WHERE te.id = ? LIMIT 1", id)
	return out, classify(err)
}

// ListViews returns every execution joined with its robot and task.
// Filtering happens in memory afterwards, see Filter.
func (r *TaskExecutionRepo) ListViews(ctx context.Context) ([]model.TaskExecutionView, error) {
	out := []model.TaskExecutionView{}
	if err := r.db.SelectContext(ctx, &out, selectExecutionViews+" ORDER BY te.id"); err != nil {
		return nil, err
	}
	return out, nil
}
