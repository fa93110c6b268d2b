package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/utils"
)

// UserRepo reads and provisions accounts in the users table.
type UserRepo struct{ db *sqlx.DB }

// NewUserRepo returns a UserRepo using db.
func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// ErrEmailExists is returned by Create when the address is taken.
var ErrEmailExists = errors.New("email already exists")

// NormalizeEmail lower-cases and trims an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, email, password string, admin bool, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, admin) VALUES (?, ?, ?)",
		NormalizeEmail(email), hash, admin)
	if err != nil {
		if errors.Is(classify(err), ErrConflict) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u,
		"SELECT id, email, password_hash, admin, registered_on FROM users WHERE email = ? LIMIT 1",
		NormalizeEmail(email))
	return u, classify(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u,
		"SELECT id, email, password_hash, admin, registered_on FROM users WHERE id = ? LIMIT 1", id)
	return u, classify(err)
}
