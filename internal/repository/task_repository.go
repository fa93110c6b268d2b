package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/robot-management/internal/model"
)

// TaskRepo encapsulates all database queries related to tasks.  Callers
// pass names already normalized by the validation layer.
type TaskRepo struct {
	db *sqlx.DB
}

// NewTaskRepo returns a repository backed by the tasks table.
func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create inserts a task and populates its ID.  A duplicate name yields
// ErrConflict.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO tasks (name, type) VALUES (?, ?)", task.Name, task.Type)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	task.ID = uint64(id)
	return nil
}

// GetByName fetches a task by its unique name.
func (r *TaskRepo) GetByName(ctx context.Context, name string) (model.Task, error) {
	var out model.Task
	err := r.db.GetContext(ctx, &out, "SELECT id, name, type FROM tasks WHERE name = ? LIMIT 1", name)
	return out, classify(err)
}

// GetByID fetches a task by primary key.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	var out model.Task
	err := r.db.GetContext(ctx, &out, "SELECT id, name, type FROM tasks WHERE id = ? LIMIT 1", id)
	return out, classify(err)
}

// List returns every task ordered by id.
func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	out := []model.Task{}
	if err := r.db.SelectContext(ctx, &out, "SELECT id, name, type FROM tasks ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

// TypeExists reports whether at least one task has the given type.
func (r *TaskRepo) TypeExists(ctx context.Context, typ string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, "SELECT EXISTS(SELECT 1 FROM tasks WHERE type = ?)", typ)
	return ok, err
}

// Update writes name and type for the row identified by task.ID.
func (r *TaskRepo) Update(ctx context.Context, task model.Task) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tasks SET name = ?, type = ? WHERE id = ?", task.Name, task.Type, task.ID)
	if err != nil {
		return classify(err)
	}
	return requireRow(res, r.exists(ctx, task.ID))
}

// DeleteByName removes a task.  Tasks referenced by task executions cannot
// be deleted and yield ErrConflict.
func (r *TaskRepo) DeleteByName(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE name = ?", name)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// exists tells requireRow whether a zero-row UPDATE was a no-op or a miss;
// MySQL reports unchanged rows as unaffected.
func (r *TaskRepo) exists(ctx context.Context, id uint64) func() (bool, error) {
	return func() (bool, error) {
		_, err := r.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}
