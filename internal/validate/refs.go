package validate

import (
	"context"
	"errors"

	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/repository"
)

// RobotLookup is the slice of the robot repository the reference checks need.
type RobotLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Robot, error)
	GetByName(ctx context.Context, name string) (model.Robot, error)
	TypeExists(ctx context.Context, typ string) (bool, error)
}

// TaskLookup is the slice of the task repository the reference checks need.
type TaskLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Task, error)
	GetByName(ctx context.Context, name string) (model.Task, error)
	TypeExists(ctx context.Context, typ string) (bool, error)
}

// RobotRef checks that a robot with the given id exists right now.
func RobotRef(ctx context.Context, robots RobotLookup, id uint64) (uint64, error) {
	r, err := robots.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, newError(NotFound, "Robot with id %d does not exist", id)
	}
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// TaskRef checks that a task with the given id exists right now.
func TaskRef(ctx context.Context, tasks TaskLookup, id uint64) (uint64, error) {
	t, err := tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, newError(NotFound, "Task with id %d does not exist", id)
	}
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// RobotName is used by the execution filter: it rejects names of robots
// that do not exist instead of silently matching nothing.
func RobotName(ctx context.Context, robots RobotLookup, name string) (string, error) {
	r, err := robots.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return "", newError(InvalidInput, "Robot with name %s does not exist", name)
	}
	if err != nil {
		return "", err
	}
	return r.Name, nil
}

// RobotType rejects types no robot has.
func RobotType(ctx context.Context, robots RobotLookup, typ string) (string, error) {
	ok, err := robots.TypeExists(ctx, typ)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(InvalidInput, "Robots of type %s does not exist", typ)
	}
	return typ, nil
}

// TaskName rejects names of tasks that do not exist.
func TaskName(ctx context.Context, tasks TaskLookup, name string) (string, error) {
	t, err := tasks.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return "", newError(InvalidInput, "Task with name %s does not exist", name)
	}
	if err != nil {
		return "", err
	}
	return t.Name, nil
}

// TaskType rejects types no task has.
func TaskType(ctx context.Context, tasks TaskLookup, typ string) (string, error) {
	ok, err := tasks.TypeExists(ctx, typ)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(InvalidInput, "Tasks of type %s does not exist", typ)
	}
	return typ, nil
}
