package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an application user record as stored in the `users` table.
// Users are only created by the provisioning command.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Admin        – administrator flag.
//  RegisteredOn – timestamp of creation.
type User struct {
	ID           uint64    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Admin        bool      `db:"admin"`
	RegisteredOn time.Time `db:"registered_on"`
}

// Role returns the token role for the user.
func (u User) Role() string {
	if u.Admin {
		return RoleAdmin
	}
	return RoleUser
}

// BlacklistedToken models an entry in the `blacklisted_tokens` table.  A
// token present here is rejected regardless of its signature.  Rows are never
// deleted by the service.
type BlacklistedToken struct {
	ID            uint64    `db:"id"`
	Token         string    `db:"token"`
	BlacklistedOn time.Time `db:"blacklisted_on"`
}
