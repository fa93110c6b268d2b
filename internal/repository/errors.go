// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow handlers to choose a status code
// without inspecting driver errors: ErrNotFound becomes 404 and ErrConflict
// becomes 409, both for duplicate names and for deleting a robot or task that
// executions still reference.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique or foreign key
// constraint.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers handled by classify.
const (
	erDupEntry           = 1062
	erRowIsReferenced    = 1451
	erNoReferencedRow    = 1452
	erRowIsReferencedOld = 1217
	erNoReferencedRowOld = 1216
)

// classify maps driver errors onto the sentinels above and passes anything
// else through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erDupEntry, erRowIsReferenced, erRowIsReferencedOld:
			return ErrConflict
		case erNoReferencedRow, erNoReferencedRowOld:
			return ErrNotFound
		}
	}
	return err
}
