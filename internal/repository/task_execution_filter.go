package repository

import (
	"time"

	"github.com/iliyamo/robot-management/internal/model"
)

// TaskExecutionFilter is a sparse equality filter over joined executions.
// Nil fields do not constrain.  There is no partial matching and no range
// matching, not even for the time fields.
type TaskExecutionFilter struct {
	RobotName *string
	RobotType *string
	TaskName  *string
	TaskType  *string
	Start     *time.Time
	End       *time.Time
	Duration  *string // compared with model.FormatDuration at evaluation time
	Status    *string // Success or Failure
}

// Empty reports whether no field is set.
func (f TaskExecutionFilter) Empty() bool {
	return f.RobotName == nil && f.RobotType == nil && f.TaskName == nil && f.TaskType == nil &&
		f.Start == nil && f.End == nil && f.Duration == nil && f.Status == nil
}

// Match reports whether v satisfies every present field.  now is used to
// derive the duration.
func (f TaskExecutionFilter) Match(v model.TaskExecutionView, now time.Time) bool {
	if f.RobotName != nil && *f.RobotName != v.RobotName {
		return false
	}
	if f.RobotType != nil && *f.RobotType != v.RobotType {
		return false
	}
	if f.TaskName != nil && *f.TaskName != v.TaskName {
		return false
	}
	if f.TaskType != nil && *f.TaskType != v.TaskType {
		return false
	}
	if f.Start != nil && !f.Start.Equal(v.Start) {
		return false
	}
	if f.End != nil && !f.End.Equal(v.End) {
		return false
	}
	if f.Duration != nil && *f.Duration != model.FormatDuration(v.Duration(now)) {
		return false
	}
	if f.Status != nil && *f.Status != v.Status() {
		return false
	}
	return true
}

// Filter returns the executions matching f, preserving order.  It runs over
// the full result set in memory, which is only acceptable while execution
// volumes stay small.
func Filter(views []model.TaskExecutionView, f TaskExecutionFilter, now time.Time) []model.TaskExecutionView {
	if f.Empty() {
		return views
	}
	out := make([]model.TaskExecutionView, 0, len(views))
	for _, v := range views {
		if f.Match(v, now) {
			out = append(out, v)
		}
	}
	return out
}
