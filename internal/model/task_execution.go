package model

import (
	"fmt"
	"time"
)

const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// TaskExecution represents a row in the `task_executions` table.  It holds
// non-owning references to a robot and a task.
//
// Fields:
//  ID      – primary key identifier.
//  RobotID – robots.id of the executing robot.
//  TaskID  – tasks.id of the executed task.
//  Start   – when the execution window opens (defaults to creation time).
//  End     – last instant of the window, always 23:59:59.999999 UTC of a day.
//  Success – outcome flag.
type TaskExecution struct {
	ID      uint64    `db:"id"`
	RobotID uint64    `db:"robot_id"`
	TaskID  uint64    `db:"task_id"`
	Start   time.Time `db:"start"`
	End     time.Time `db:"end"`
	Success bool      `db:"success"`
}

// Status renders the success flag.
func (te TaskExecution) Status() string {
	if te.Success {
		return StatusSuccess
	}
	return StatusFailure
}

// Duration is the time remaining until End as seen at now.  It is derived on
// every read and never stored; it goes negative once End has passed.
func (te TaskExecution) Duration(now time.Time) time.Duration {
	return te.End.UTC().Sub(now.UTC())
}

// FormatDuration renders a duration truncated to whole seconds, e.g.
// "49h13m2s" or "-3h0m0s".
func FormatDuration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// TaskExecutionView is an execution joined with the robot and task it
// references.  The joined attributes are read, never copied into the row.
type TaskExecutionView struct {
	TaskExecution
	RobotName string `db:"robot_name"`
	RobotType string `db:"robot_type"`
	TaskName  string `db:"task_name"`
	TaskType  string `db:"task_type"`
}

func (v TaskExecutionView) String() string {
	return fmt.Sprintf("<TaskExecution id=%d robot=%s task=%s status=%s>", v.ID, v.RobotName, v.TaskName, v.Status())
}
