package model

import (
	"database/sql"
	"time"
)

// User represents an application user record as stored in the `users`
// table.  PasswordHash is NULL for accounts created through federated login.
// Only the SHA-256 hash of an outstanding password reset token is kept,
// together with the time it was issued.
type User struct {
	ID                 uint64         `db:"id"`
	Email              string         `db:"email"`
	PasswordHash       sql.NullString `db:"password_hash"`
	IsActive           bool           `db:"is_active"`
	ResetTokenHash     sql.NullString `db:"reset_token_hash"`
	ResetTokenIssuedAt sql.NullTime   `db:"reset_token_issued_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// HasPassword reports whether the user can log in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}
