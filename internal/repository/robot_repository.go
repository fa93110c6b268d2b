package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/robot-management/internal/model"
)

// RobotRepo encapsulates all database queries related to robots.  Callers
// pass names already normalized by the validation layer.
type RobotRepo struct {
	db *sqlx.DB
}

// NewRobotRepo returns a repository backed by the robots table.
func NewRobotRepo(db *sqlx.DB) *RobotRepo {
	return &RobotRepo{db: db}
}

// Create inserts a robot and populates its ID.  A duplicate name yields
// ErrConflict.
func (r *RobotRepo) Create(ctx context.Context, robot *model.Robot) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO robots (name, type) VALUES (?, ?)", robot.Name, robot.Type)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	robot.ID = uint64(id)
	return nil
}

// GetByName fetches a robot by its unique name.
func (r *RobotRepo) GetByName(ctx context.Context, name string) (model.Robot, error) {
	var out model.Robot
	err := r.db.GetContext(ctx, &out, "SELECT id, name, type FROM robots WHERE name = ? LIMIT 1", name)
	return out, classify(err)
}

// GetByID fetches a robot by primary key.
func (r *RobotRepo) GetByID(ctx context.Context, id uint64) (model.Robot, error) {
	var out model.Robot
	err := r.db.GetContext(ctx, &out, "SELECT id, name, type FROM robots WHERE id = ? LIMIT 1", id)
	return out, classify(err)
}

// List returns every robot ordered by id.
func (r *RobotRepo) List(ctx context.Context) ([]model.Robot, error) {
	out := []model.Robot{}
	if err := r.db.SelectContext(ctx, &out, "SELECT id, name, type FROM robots ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

// TypeExists reports whether at least one robot has the given type.
func (r *RobotRepo) TypeExists(ctx context.Context, typ string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, "SELECT EXISTS(SELECT 1 FROM robots WHERE type = ?)", typ)
	return ok, err
}

// Update writes name and type for the row identified by robot.ID.
func (r *RobotRepo) Update(ctx context.Context, robot model.Robot) error {
	res, err := r.db.ExecContext(ctx, "UPDATE robots SET name = ?, type = ? WHERE id = ?", robot.Name, robot.Type, robot.ID)
	if err != nil {
		return classify(err)
	}
	return requireRow(res, r.exists(ctx, robot.ID))
}

// DeleteByName removes a robot.  Robots referenced by task executions cannot
// be deleted and yield ErrConflict.
func (r *RobotRepo) DeleteByName(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM robots WHERE name = ?", name)
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
func (r *RobotRepo) exists(ctx context.Context, id uint64) func() (bool, error) {
	return func() (bool, error) {
		_, err := r.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}
