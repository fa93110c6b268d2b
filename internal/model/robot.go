package model

import "fmt"

// Robot represents a row in the `robots` table.  Name is unique and always
// stored lowercase; Type passes the same character rule.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique lowercase name.
//  Type – lowercase robot type.
type Robot struct {
	ID   uint64 `db:"id"`   // robots.id
	Name string `db:"name"` // robots.name
	Type string `db:"type"` // robots.type
}

func (r Robot) String() string {
	return fmt.Sprintf("<Robot name=%s, type=%s>", r.Name, r.Type)
}

// RobotFields lists the attributes a client may set on create or update.
type RobotFields struct {
	Name string
	Type string
}

// MergeRobot applies the mutable fields of an update onto an existing row.
// The identifier is never taken from the update.
func MergeRobot(existing Robot, in RobotFields) Robot {
	existing.Name = in.Name
	existing.Type = in.Type
	return existing
}
