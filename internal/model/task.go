package model

import "fmt"

// Task represents a row in the `tasks` table.  It follows the same naming
// rules as Robot.
type Task struct {
	ID   uint64 `db:"id"`   // tasks.id
	Name string `db:"name"` // tasks.name
	Type string `db:"type"` // tasks.type
}

func (t Task) String() string {
	return fmt.Sprintf("<Task name=%s, type=%s>", t.Name, t.Type)
}

// TaskFields lists the attributes a client may set on create or update.
type TaskFields struct {
	Name string
	Type string
}

// MergeTask applies the mutable fields of an update onto an existing row.
func MergeTask(existing Task, in TaskFields) Task {
	existing.Name = in.Name
	existing.Type = in.Type
	return existing
}
