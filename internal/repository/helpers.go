package repository

import "database/sql"

// requireRow turns a zero-row UPDATE into ErrNotFound.  MySQL reports zero
// affected rows when the new values equal the old ones, so the row is looked
// up again before giving up.
func requireRow(res sql.Result, exists func() (bool, error)) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	ok, err := exists()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
