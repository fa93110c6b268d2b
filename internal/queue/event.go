// Package queue defines the audit event payload and the background consumer
// that writes audit events to disk.
package queue

import "time"

// Audit actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionLogin   = "login"
	ActionLogout  = "logout"
)

// AuditEvent is published after every successful mutation and every login or
// logout.  It carries enough for an offline trail without querying the
// primary database.
type AuditEvent struct {
	Action     string    `json:"action"`
	Entity     string    `json:"entity"` // robot, task, task_execution or user
	Key        string    `json:"key"`    // name or id of the affected row
	UserID     uint64    `json:"user_id"`
	Role       string    `json:"role,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
